package registry

import "errors"

// Business outcomes of a lookup. Neither is a fault: the handler answers 200
// with valid=false and the matching Message.
var (
	ErrNoRegistration = errors.New("registry: no registration found")
	ErrAmbiguous      = errors.New("registry: multiple registrations match")
)

// ErrInvalidInput is returned for a blank registration number.
var ErrInvalidInput = errors.New("registry: registration number is required")

// ErrLookupFailed marks an operational fault. It is the only outcome a caller
// should offer to retry.
var ErrLookupFailed = errors.New("registry: lookup failed")

// User-facing messages.
const (
	MsgRequired       = "Registration number is required"
	MsgNoRegistration = "No SLMC registration found for this number."
	MsgAmbiguous      = "Multiple registrations match. Enter your full SLMC registration number."
	MsgRetry          = "Unable to verify SLMC registration. Please try again."
)

// Message maps a lookup error to the text shown next to the field.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoRegistration):
		return MsgNoRegistration
	case errors.Is(err, ErrAmbiguous):
		return MsgAmbiguous
	case errors.Is(err, ErrInvalidInput):
		return MsgRequired
	default:
		return MsgRetry
	}
}
