package core

import (
	"context"
	"errors"
	"net"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ClientErrorBadInput              = "CLIENT_BAD_INPUT"
	ClientErrorConnectionFailed      = "CLIENT_CONNECTION_FAILED"
	ClientErrorCredentialRejected    = "CLIENT_CREDENTIAL_REJECTED"
	ClientErrorCredentialUnavailable = "CLIENT_CREDENTIAL_UNAVAILABLE"
	ClientErrorVersionIncompatible   = "CLIENT_VERSION_INCOMPATIBLE"
	ClientErrorAccessDenied          = "CLIENT_ACCESS_DENIED"
	ClientErrorWatchClosed           = "CLIENT_WATCH_CLOSED"
	ClientErrorInternal              = "CLIENT_INTERNAL_ERROR"
)

// NewConnectionError wraps a transport-establishment failure: DNS,
// refused, timeout. These are retryable by dialing another address.
func NewConnectionError(source error, addr string) error {
	err := goerrors.Wrap(source, goerrors.CategoryExternal, "core: connection failed").
		WithTextCode(ClientErrorConnectionFailed)
	if strings.TrimSpace(addr) != "" {
		err.WithMetadata(map[string]any{"addr": addr})
	}
	return err
}

// NewCredentialRejectedError marks the remote refusing the presented
// trust material. Retrying the same material is pointless.
func NewCredentialRejectedError(source error) error {
	return goerrors.Wrap(source, goerrors.CategoryAuth, "core: credential rejected by remote").
		WithTextCode(ClientErrorCredentialRejected)
}

// NewCredentialUnavailableError marks a provider that could not produce
// material at all.
func NewCredentialUnavailableError(source error, provider string) error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New("core: credential unavailable", goerrors.CategoryOperation).
			WithTextCode(ClientErrorCredentialUnavailable)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryOperation, "core: credential unavailable").
			WithTextCode(ClientErrorCredentialUnavailable)
	}
	if strings.TrimSpace(provider) != "" {
		err.WithMetadata(map[string]any{"provider": provider})
	}
	return err
}

// NewVersionIncompatibleError marks a remote whose reported version falls
// outside the supported range.
func NewVersionIncompatibleError(serverVersion, minimum string) error {
	return goerrors.New("core: server version is not supported", goerrors.CategoryOperation).
		WithTextCode(ClientErrorVersionIncompatible).
		WithMetadata(map[string]any{
			"server_version":    serverVersion,
			"minimum_supported": minimum,
		})
}

// NewAccessDeniedError is the first-class denial outcome a router handler
// returns. It is distinct from a handler execution fault.
func NewAccessDeniedError(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "access request denied"
	}
	return goerrors.New("core: "+reason, goerrors.CategoryAuthz).
		WithTextCode(ClientErrorAccessDenied)
}

// NewWatchClosedError marks a watch stream terminated by client shutdown
// rather than by the caller's context.
func NewWatchClosedError() error {
	return goerrors.New("core: watch closed by client shutdown", goerrors.CategoryOperation).
		WithTextCode(ClientErrorWatchClosed)
}

func IsConnectionFault(err error) bool { return hasTextCode(err, ClientErrorConnectionFailed) }

func IsCredentialRejected(err error) bool { return hasTextCode(err, ClientErrorCredentialRejected) }

func IsCredentialUnavailable(err error) bool {
	return hasTextCode(err, ClientErrorCredentialUnavailable)
}

func IsVersionIncompatible(err error) bool { return hasTextCode(err, ClientErrorVersionIncompatible) }

func IsDenied(err error) bool { return hasTextCode(err, ClientErrorAccessDenied) }

func IsWatchClosed(err error) bool { return hasTextCode(err, ClientErrorWatchClosed) }

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), code)
}

// ClientErrorMapper normalizes foreign errors into the client error
// envelope. Already-mapped errors pass through untouched.
func ClientErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureClientErrorEnvelope(richErr)
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newClientError(err.Error(), goerrors.CategoryExternal, ClientErrorConnectionFailed)
	case errors.As(err, &netErr):
		return newClientError(err.Error(), goerrors.CategoryExternal, ClientErrorConnectionFailed)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "certificate") && (strings.Contains(msg, "bad") || strings.Contains(msg, "unknown") || strings.Contains(msg, "expired")):
		return newClientError(err.Error(), goerrors.CategoryAuth, ClientErrorCredentialRejected)
	case strings.Contains(msg, "access denied"), strings.Contains(msg, "forbidden"):
		return newClientError(err.Error(), goerrors.CategoryAuthz, ClientErrorAccessDenied)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"), strings.Contains(msg, "i/o timeout"):
		return newClientError(err.Error(), goerrors.CategoryExternal, ClientErrorConnectionFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newClientError(err.Error(), goerrors.CategoryBadInput, ClientErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureClientErrorEnvelope(mapped)
}

func newClientError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureClientErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureClientErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultClientTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultClientTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ClientErrorBadInput
	case goerrors.CategoryAuth:
		return ClientErrorCredentialRejected
	case goerrors.CategoryAuthz:
		return ClientErrorAccessDenied
	case goerrors.CategoryExternal:
		return ClientErrorConnectionFailed
	case goerrors.CategoryOperation:
		return ClientErrorCredentialUnavailable
	default:
		return ClientErrorInternal
	}
}
