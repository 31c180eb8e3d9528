package core

import (
	stderrors "errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestClientErrorMapper_AssignsStableCodes(t *testing.T) {
	mapped := ClientErrorMapper(stderrors.New("dial tcp 127.0.0.1:3025: connection refused"))
	if mapped.TextCode != ClientErrorConnectionFailed {
		t.Fatalf("expected connection failed text code, got %q", mapped.TextCode)
	}
	if mapped.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", mapped.Category)
	}

	mapped = ClientErrorMapper(stderrors.New("remote error: tls: bad certificate"))
	if mapped.TextCode != ClientErrorCredentialRejected {
		t.Fatalf("expected credential rejected code, got %q", mapped.TextCode)
	}

	mapped = ClientErrorMapper(stderrors.New("access denied to requested resource"))
	if mapped.TextCode != ClientErrorAccessDenied {
		t.Fatalf("expected access denied code, got %q", mapped.TextCode)
	}
}

func TestClientErrorMapper_PreservesExistingEnvelope(t *testing.T) {
	source := NewVersionIncompatibleError("9.0.0", "12.0.0")
	mapped := ClientErrorMapper(source)
	if mapped.TextCode != ClientErrorVersionIncompatible {
		t.Fatalf("expected version incompatible code preserved, got %q", mapped.TextCode)
	}
}

func TestErrorPredicates_DistinguishKinds(t *testing.T) {
	connErr := NewConnectionError(stderrors.New("dial timeout"), "proxy:3025")
	credErr := NewCredentialRejectedError(stderrors.New("handshake failed"))
	versionErr := NewVersionIncompatibleError("9.0.0", "12.0.0")
	deniedErr := NewAccessDeniedError("team not allowed")

	if !IsConnectionFault(connErr) || IsConnectionFault(credErr) {
		t.Fatalf("connection fault predicate misclassified")
	}
	if !IsCredentialRejected(credErr) || IsCredentialRejected(versionErr) {
		t.Fatalf("credential rejected predicate misclassified")
	}
	if !IsVersionIncompatible(versionErr) || IsVersionIncompatible(deniedErr) {
		t.Fatalf("version incompatible predicate misclassified")
	}
	if !IsDenied(deniedErr) || IsDenied(connErr) {
		t.Fatalf("denied predicate misclassified")
	}
}

func TestNewAccessDeniedError_DefaultsReason(t *testing.T) {
	err := NewAccessDeniedError("  ")
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors type, got %T", err)
	}
	if richErr.Category != goerrors.CategoryAuthz {
		t.Fatalf("expected authz category, got %q", richErr.Category)
	}
}

func TestIsDenied_NilAndForeignErrors(t *testing.T) {
	if IsDenied(nil) {
		t.Fatalf("nil error must not be a denial")
	}
	if IsDenied(stderrors.New("handler exploded")) {
		t.Fatalf("plain execution fault must not be a denial")
	}
}
