package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthenticationRejected is matched by every error caused by a 401 response
var ErrAuthenticationRejected = errors.New("authentication rejected")

// Kind classifies backend failures by how the UI must react to them
type Kind int

const (
	// KindAuthenticationRejected tears the session down and navigates to login
	KindAuthenticationRejected Kind = iota + 1
	// KindValidationFailed surfaces the backend message verbatim
	KindValidationFailed
	// KindNetworkOrServer is logged and shown as a generic notice
	KindNetworkOrServer
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticationRejected:
		return "authentication_rejected"
	case KindValidationFailed:
		return "validation_failed"
	case KindNetworkOrServer:
		return "network_or_server"
	}
	return "unknown"
}

// Error is returned by every failed backend call
type Error struct {
	Kind    Kind
	Backend string
	Method  string
	Path    string
	Status  int    // 0 for transport failures
	Message string // backend-supplied message, if any
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s %s %s: status %d: %s", e.Backend, e.Method, e.Path, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s %s %s: status %d", e.Backend, e.Method, e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s %s: %v", e.Backend, e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s %s failed", e.Backend, e.Method, e.Path)
}

func (e *Error) Unwrap() error {
	if e.Kind == KindAuthenticationRejected {
		return ErrAuthenticationRejected
	}
	return e.Err
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthenticationRejected
	case status >= 400 && status < 500:
		return KindValidationFailed
	default:
		return KindNetworkOrServer
	}
}

// KindOf returns the Kind of a gateway error, or 0 for other errors
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return 0
}

// UserMessage picks the text shown to the user for err: the backend's own
// message for validation failures, otherwise fallback
func UserMessage(err error, fallback string) string {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Kind == KindValidationFailed && gwErr.Message != "" {
		return gwErr.Message
	}
	return fallback
}

// BackendMessage returns the backend's own message for any failed response
// that carried one, otherwise fallback
func BackendMessage(err error, fallback string) string {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return fallback
}
