package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/scribeworks/scribe/internal/shared"
)

// Kind classifies request failures so callers can branch on the failure class
// instead of sniffing message strings.
type Kind int

const (
	// KindTransport covers network-level failures: unreachable host, canceled
	// context, failure to read the response body.
	KindTransport Kind = iota

	// KindUnauthorized is a 401 from the backend on a single attempt. The
	// client usually absorbs these via refresh-and-replay; callers only see
	// one when the request opted out of the retry policy.
	KindUnauthorized

	// KindSessionExpired means the refresh protocol failed and the session was
	// torn down. The user has to authenticate again.
	KindSessionExpired

	// KindValidation is any other non-2xx response; the message is taken
	// verbatim from the response body when the backend provides one.
	KindValidation

	// KindDecode means the backend replied 2xx but the body was not what the
	// caller asked for.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindSessionExpired:
		return "session_expired"
	case KindValidation:
		return "validation"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by every Client method.
type Error struct {
	Kind    Kind
	Status  int // HTTP status code, 0 for transport failures
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

// Unwrap maps each kind onto a shared sentinel so errors.Is works across
// package boundaries.
func (e *Error) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	switch e.Kind {
	case KindTransport:
		return shared.ErrAPIRequest
	case KindUnauthorized:
		return shared.ErrUnauthorized
	case KindSessionExpired:
		return shared.ErrSessionExpired
	case KindDecode:
		return shared.ErrInvalidResponse
	default:
		return nil
	}
}

func newError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

func wrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// IsUnauthorized reports whether err is a single-attempt 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized
}

// IsSessionExpired reports whether err represents a terminated session.
func IsSessionExpired(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindSessionExpired
}

// errorMessage extracts a human-readable message from an error response body.
//
// JSON bodies are mined for the backend's known error fields in priority
// order; otherwise the raw text is used, with the status line as a last
// resort.
func errorMessage(status int, body []byte) string {
	if len(body) > 0 {
		var fields struct {
			Detail  string `json:"detail"`
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &fields); err == nil {
			switch {
			case fields.Detail != "":
				return fields.Detail
			case fields.Error != "":
				return fields.Error
			case fields.Message != "":
				return fields.Message
			}
		}
		if text := string(body); len(text) <= 512 {
			return text
		}
	}

	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("request failed: %s", text)
	}
	return fmt.Sprintf("request failed with status %d", status)
}
