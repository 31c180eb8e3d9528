// Package credentials implements the pluggable sources of transport
// trust material: direct in-memory PEM, watched filesystem paths with
// transparent rotation, and local pre-authenticated profiles, plus the
// ordered chain that combines them under an explicit failure policy.
package credentials
