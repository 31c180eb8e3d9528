package client

import (
	"encoding/json"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/sageanya/teleport/core"
)

// The wire protocol is newline-delimited JSON frames over the TLS
// session. Calls carry a uuid id; replies echo it. Server-initiated
// event frames carry the stream id their subscription call returned.
const (
	frameKindCall  = "call"
	frameKindReply = "reply"
	frameKindEvent = "event"
)

const (
	methodPing                = "ping"
	methodWatchAccessRequests = "watch_access_requests"
)

type wireError struct {
	Category string `json:"category,omitempty"`
	TextCode string `json:"text_code,omitempty"`
	Message  string `json:"message"`
}

type frame struct {
	Kind   string          `json:"kind"`
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Stream string          `json:"stream,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

// toClientError rehydrates a remote failure into the client envelope so
// callers can use the core predicates on it.
func (e *wireError) toClientError() error {
	if e == nil {
		return nil
	}
	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = "remote call failed"
	}
	err := goerrors.New(message, wireCategory(e.Category))
	if code := strings.TrimSpace(e.TextCode); code != "" {
		err = err.WithTextCode(code)
	}
	return core.ClientErrorMapper(err)
}

func wireCategory(raw string) goerrors.Category {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "auth":
		return goerrors.CategoryAuth
	case "authz":
		return goerrors.CategoryAuthz
	case "bad_input":
		return goerrors.CategoryBadInput
	case "not_found":
		return goerrors.CategoryNotFound
	case "external":
		return goerrors.CategoryExternal
	case "operation":
		return goerrors.CategoryOperation
	default:
		return goerrors.CategoryInternal
	}
}
