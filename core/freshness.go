package core

import "time"

const DefaultCredentialExpiringSoonWindow = 5 * time.Minute

// CredentialState captures the lifecycle flags derived from a credential
// at a point in time.
type CredentialState struct {
	Expiry         *time.Time
	HasIdentity    bool
	IsExpired      bool
	IsExpiringSoon bool
}

// ResolveCredentialState evaluates expiry and identity flags for a
// credential.
func ResolveCredentialState(now time.Time, credential Credential, expiringSoonWindow time.Duration) CredentialState {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if expiringSoonWindow <= 0 {
		expiringSoonWindow = DefaultCredentialExpiringSoonWindow
	}

	state := CredentialState{
		HasIdentity: credential.HasIdentity(),
	}
	if credential.Expiry.IsZero() {
		return state
	}
	expiry := credential.Expiry.UTC()
	state.Expiry = &expiry
	if !expiry.After(now) {
		state.IsExpired = true
		return state
	}
	state.IsExpiringSoon = !expiry.After(now.Add(expiringSoonWindow))
	return state
}

// ShouldReloadCredential reports whether a provider sweep should force a
// reload before the next dial.
func ShouldReloadCredential(now time.Time, state CredentialState, leadWindow time.Duration) bool {
	if !state.HasIdentity {
		return true
	}
	if state.IsExpired {
		return true
	}
	if leadWindow <= 0 {
		leadWindow = DefaultCredentialExpiringSoonWindow
	}
	if state.Expiry == nil {
		return false
	}
	return !state.Expiry.After(now.UTC().Add(leadWindow))
}
