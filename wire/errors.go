package wire

import "github.com/pkg/errors"

// ProtocolError is returned for any wire-level violation: bad magic, a bad
// checksum, an oversized payload, or a malformed typed payload.
type ProtocolError struct {
	Reason string
	Cause  error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return e.Reason + ": " + e.Cause.Error()
	}
	return e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// NewProtocolError builds a ProtocolError with an optional wrapped cause.
func NewProtocolError(reason string, cause error) *ProtocolError {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &ProtocolError{Reason: reason, Cause: cause}
}
