package sdk

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures at the client boundary so callers can
// pick the right recovery: re-authenticate, retry, or show the server's
// message.
type ErrorKind int

const (
	// ErrorIdentity means no usable credential was available (absent,
	// expired, or unparsable). Local state is never touched.
	ErrorIdentity ErrorKind = iota + 1
	// ErrorTransport covers network failures, non-JSON responses, and
	// structurally invalid payloads. Recoverable by retry.
	ErrorTransport
	// ErrorApplication is a structured {ok:false, error, message}
	// rejection from the server.
	ErrorApplication
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorIdentity:
		return "identity"
	case ErrorTransport:
		return "transport"
	case ErrorApplication:
		return "application"
	}
	return "unknown"
}

// Error is the tagged failure type returned by Client operations.
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status, when one was received
	Code    string // server's short error code, when present
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// IsKind reports whether err is an sdk.Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func identityError(format string, args ...any) *Error {
	return &Error{Kind: ErrorIdentity, Message: fmt.Sprintf(format, args...)}
}

func transportError(status int, format string, args ...any) *Error {
	return &Error{Kind: ErrorTransport, Status: status, Message: fmt.Sprintf(format, args...)}
}
