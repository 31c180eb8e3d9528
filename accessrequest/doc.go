// Package accessrequest models pending elevated-access requests and
// routes them: ordered match rules dispatch each event to the first
// handler whose predicate is satisfied, with denial as a first-class
// outcome distinct from handler faults.
package accessrequest
