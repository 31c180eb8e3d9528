// Package client implements the typed RPC client: an authenticated TLS
// session over ordered candidate addresses, a version-gated connect, a
// typed liveness call, and watch subscriptions for access-request
// events. Credential material comes from a core.CredentialProvider and
// rotated material is picked up without reconnecting.
package client
