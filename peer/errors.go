package peer

import "github.com/pkg/errors"

// PeerError wraps a failure encountered while dialing, handshaking with,
// or servicing a remote peer, preserving the underlying cause for logging
// while giving callers a stable type to match on.
type PeerError struct {
	Op    string
	Addr  string
	cause error
}

func (e *PeerError) Error() string {
	if e.Addr != "" {
		return "peer: " + e.Op + " " + e.Addr + ": " + e.cause.Error()
	}
	return "peer: " + e.Op + ": " + e.cause.Error()
}

func (e *PeerError) Unwrap() error { return e.cause }

func newPeerError(op, addr string, cause error) *PeerError {
	return &PeerError{Op: op, Addr: addr, cause: errors.WithStack(cause)}
}
