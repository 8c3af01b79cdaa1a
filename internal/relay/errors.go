package relay

import "errors"

// Sentinel errors for the relay core. These provide consistent, checkable
// errors for protocol-level failures.
var (
	// ErrNotJoined is returned when a session attempts to chat before
	// joining a topic.
	ErrNotJoined = errors.New("session has not joined a topic")

	// ErrAlreadyJoined is returned when a joined session attempts a second
	// join without leaving first.
	ErrAlreadyJoined = errors.New("session is already joined to a topic")

	// ErrNameExhausted is returned when no unique suffix can be found for a
	// requested name. Practically unreachable, but a defined failure path.
	ErrNameExhausted = errors.New("no unique name available for requested name")
)
