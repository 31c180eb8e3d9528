// Package core contains the canonical client domain: credential and
// profile values, provider and store contracts, the error taxonomy, and
// configuration resolution. Transport and persistence adapters depend on
// this package; core must not depend on them.
package core
