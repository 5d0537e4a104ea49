package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindNetwork means no HTTP response was received.
	KindNetwork Kind = iota + 1
	// KindUnauthorized is an HTTP 401.
	KindUnauthorized
	// KindForbidden is an HTTP 403.
	KindForbidden
	// KindNotFound is an HTTP 404.
	KindNotFound
	// KindServer is an HTTP 5xx.
	KindServer
	// KindBusiness is a rejection carrying a server-provided message, either a
	// 4xx or a 2xx envelope with a non-zero code.
	KindBusiness
	// KindDecode means the response body could not be understood.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindBusiness:
		return "business"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// User-facing messages for failures that carry no useful server text.
const (
	msgNetwork      = "network error, please check your connection"
	msgUnauthorized = "login expired, please sign in again"
	msgForbidden    = "permission denied"
	msgNotFound     = "requested resource not found"
	msgServer       = "internal server error"
	msgFailed       = "request failed"
	msgDecode       = "unexpected response from server"
)

// Error describes a failed API call.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, zero for network failures
	Code    int    // envelope code when present
	Message string // safe to show to the user
	Path    string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s", e.Path)
		if e.Status > 0 {
			fmt.Fprintf(&b, ", status %d", e.Status)
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsUnauthorized reports whether err is an HTTP 401.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// UserMessage renders err for a status line.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// statusError maps a non-2xx response to an Error. serverMsg is the envelope
// message when the body carried one.
func statusError(status int, code int, serverMsg string) *Error {
	e := &Error{Status: status, Code: code}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, msgUnauthorized
	case status == http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, msgForbidden
	case status == http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, msgNotFound
	case status >= 500:
		e.Kind, e.Message = KindServer, msgServer
	default:
		e.Kind, e.Message = KindBusiness, msgFailed
		if msg := strings.TrimSpace(serverMsg); msg != "" {
			e.Message = msg
		}
	}
	return e
}
