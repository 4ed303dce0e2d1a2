// internal/printer/errors.go
package printer

import "errors"

// Error kinds. Every error returned by a Session wraps exactly one of these.
var (
	ErrConfiguration       = errors.New("printer identity missing")
	ErrUnsupportedPlatform = errors.New("printer transport not supported on this host")
	ErrIncompatibleDevice  = errors.New("device exposes no supported printer characteristic")
	ErrNotConfigured       = errors.New("no printer configured")
	ErrPrintTransport      = errors.New("printer write failed")
	ErrDeviceNotFound      = errors.New("printer not found")
	ErrConnection          = errors.New("printer connection failed")
)

// Error records which operation and step failed
type Error struct {
	Op   string // connect, print
	Step string // e.g. "request device", "write fragment 12 (text \"TOTAL...\")"
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Step != "" {
		msg += " (" + e.Step + ")"
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether calling again may succeed without user action
func (e *Error) Retryable() bool {
	switch e.Kind {
	case ErrPrintTransport, ErrConnection, ErrDeviceNotFound:
		return true
	default:
		return false
	}
}

func newError(op, step string, kind, err error) *Error {
	return &Error{Op: op, Step: step, Kind: kind, Err: err}
}

// IsRetryable reports whether err is a retryable printer error
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Retryable()
}

// Code maps an error to a stable code for API clients
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "NOT_CONFIGURED"
	case errors.Is(err, ErrConfiguration):
		return "CONFIGURATION_ERROR"
	case errors.Is(err, ErrUnsupportedPlatform):
		return "UNSUPPORTED_PLATFORM"
	case errors.Is(err, ErrIncompatibleDevice):
		return "INCOMPATIBLE_DEVICE"
	case errors.Is(err, ErrDeviceNotFound):
		return "DEVICE_NOT_FOUND"
	case errors.Is(err, ErrConnection):
		return "CONNECTION_FAILED"
	case errors.Is(err, ErrPrintTransport):
		return "PRINT_TRANSPORT_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
