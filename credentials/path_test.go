package credentials

import (
	"context"
	"crypto/tls"
	"os"
	"testing"
	"time"

	"github.com/sageanya/teleport/core"
)

func TestPathProvider_RotationSwapsMaterialWithoutRebuild(t *testing.T) {
	dir := t.TempDir()
	first := generateKeyPair(t, "first", time.Now().Add(time.Hour))
	certPath, keyPath := writeKeyPair(t, dir, first)

	provider, err := NewPathProvider(PathConfig{CertPath: certPath, KeyPath: keyPath})
	if err != nil {
		t.Fatalf("new path provider: %v", err)
	}

	// A TLS config built once, indirecting certificate lookup through
	// the provider, is what the client hands to the transport.
	tlsConfig := &tls.Config{
		GetClientCertificate: func(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
			credential, credErr := provider.Credential(context.Background())
			if credErr != nil {
				return nil, credErr
			}
			certificate := credential.Certificate
			return &certificate, nil
		},
	}

	before, err := tlsConfig.GetClientCertificate(nil)
	if err != nil {
		t.Fatalf("initial certificate: %v", err)
	}

	second := generateKeyPair(t, "second", time.Now().Add(2*time.Hour))
	writeKeyPair(t, dir, second)
	touch(t, certPath, time.Now().Add(2*time.Second))
	touch(t, keyPath, time.Now().Add(2*time.Second))

	rotated, err := provider.CheckForRotation()
	if err != nil {
		t.Fatalf("check for rotation: %v", err)
	}
	if !rotated {
		t.Fatalf("expected rotation to be detected")
	}

	after, err := tlsConfig.GetClientCertificate(nil)
	if err != nil {
		t.Fatalf("rotated certificate: %v", err)
	}
	if string(before.Certificate[0]) == string(after.Certificate[0]) {
		t.Fatalf("expected the live TLS config to serve the rotated certificate")
	}

	select {
	case <-provider.Reloaded():
	default:
		t.Fatalf("expected a reload signal after rotation")
	}
}

func TestPathProvider_MalformedRotationKeepsPreviousMaterial(t *testing.T) {
	dir := t.TempDir()
	first := generateKeyPair(t, "first", time.Now().Add(time.Hour))
	certPath, keyPath := writeKeyPair(t, dir, first)

	var diagnostics []ReloadDiagnostic
	provider, err := NewPathProvider(
		PathConfig{CertPath: certPath, KeyPath: keyPath},
		WithReloadDiagnostics(func(event ReloadDiagnostic) {
			diagnostics = append(diagnostics, event)
		}),
	)
	if err != nil {
		t.Fatalf("new path provider: %v", err)
	}

	if err := os.WriteFile(certPath, []byte("broken rotation"), 0o600); err != nil {
		t.Fatalf("corrupt certificate: %v", err)
	}
	touch(t, certPath, time.Now().Add(2*time.Second))

	rotated, rotErr := provider.CheckForRotation()
	if rotErr == nil || rotated {
		t.Fatalf("expected malformed rotation to fail, got rotated=%v err=%v", rotated, rotErr)
	}
	if !core.IsCredentialUnavailable(rotErr) {
		t.Fatalf("expected credential unavailable kind, got %v", rotErr)
	}

	credential, err := provider.Credential(context.Background())
	if err != nil {
		t.Fatalf("credential after failed rotation: %v", err)
	}
	if !credential.HasIdentity() {
		t.Fatalf("previous material must stay active after a failed rotation")
	}

	if len(diagnostics) == 0 || diagnostics[len(diagnostics)-1].Outcome != "reload_failed" {
		t.Fatalf("expected a reload_failed diagnostic, got %+v", diagnostics)
	}
}

func TestPathProvider_FailsFastOnMissingPaths(t *testing.T) {
	_, err := NewPathProvider(PathConfig{CertPath: "/does/not/exist.crt", KeyPath: "/does/not/exist.key"})
	if err == nil {
		t.Fatalf("expected construction to fail on missing paths")
	}

	_, err = NewPathProvider(PathConfig{})
	if err == nil {
		t.Fatalf("expected construction to fail on empty paths")
	}
}

func TestPathProvider_NoRotationNoSignal(t *testing.T) {
	dir := t.TempDir()
	pair := generateKeyPair(t, "steady", time.Now().Add(time.Hour))
	certPath, keyPath := writeKeyPair(t, dir, pair)

	provider, err := NewPathProvider(PathConfig{CertPath: certPath, KeyPath: keyPath})
	if err != nil {
		t.Fatalf("new path provider: %v", err)
	}

	rotated, err := provider.CheckForRotation()
	if err != nil || rotated {
		t.Fatalf("expected steady state, got rotated=%v err=%v", rotated, err)
	}
	select {
	case <-provider.Reloaded():
		t.Fatalf("unexpected reload signal without rotation")
	default:
	}
}
