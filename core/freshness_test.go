package core

import (
	"crypto/tls"
	"testing"
	"time"
)

func identityCredential(expiry time.Time) Credential {
	return Credential{
		Certificate: tls.Certificate{Certificate: [][]byte{{0x01}}},
		Expiry:      expiry,
		Source:      "test",
	}
}

func TestResolveCredentialState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	state := ResolveCredentialState(now, identityCredential(now.Add(time.Hour)), 5*time.Minute)
	if !state.HasIdentity || state.IsExpired || state.IsExpiringSoon {
		t.Fatalf("fresh credential misclassified: %+v", state)
	}

	state = ResolveCredentialState(now, identityCredential(now.Add(2*time.Minute)), 5*time.Minute)
	if !state.IsExpiringSoon || state.IsExpired {
		t.Fatalf("expiring credential misclassified: %+v", state)
	}

	state = ResolveCredentialState(now, identityCredential(now.Add(-time.Minute)), 5*time.Minute)
	if !state.IsExpired {
		t.Fatalf("expired credential misclassified: %+v", state)
	}

	state = ResolveCredentialState(now, identityCredential(time.Time{}), 5*time.Minute)
	if state.Expiry != nil || state.IsExpired || state.IsExpiringSoon {
		t.Fatalf("credential without expiry misclassified: %+v", state)
	}
}

func TestShouldReloadCredential(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	state := ResolveCredentialState(now, Credential{}, 0)
	if !ShouldReloadCredential(now, state, 0) {
		t.Fatalf("missing identity must force reload")
	}

	state = ResolveCredentialState(now, identityCredential(now.Add(time.Hour)), 0)
	if ShouldReloadCredential(now, state, 5*time.Minute) {
		t.Fatalf("fresh credential must not force reload")
	}

	state = ResolveCredentialState(now, identityCredential(now.Add(2*time.Minute)), 0)
	if !ShouldReloadCredential(now, state, 5*time.Minute) {
		t.Fatalf("credential inside lead window must force reload")
	}
}
