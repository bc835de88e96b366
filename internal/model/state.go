package model

import "fmt"

// State is the lifecycle state of a masking request.
//
// Design decision: We use iota-based constants rather than string constants
// for cheap comparisons, with text marshaling so reports and the audit store
// carry readable names.
type State int

const (
	// StateSubmitted is the state of a record whose submit call is in flight.
	StateSubmitted State = iota

	// StatePending indicates the service accepted the chunk and issued a
	// tracking id; the record waits for the poller.
	StatePending

	// StateCompleted indicates the service returned masked text.
	StateCompleted

	// StateFailed indicates submission failed or the service rejected the chunk.
	StateFailed

	// StateTimedOut indicates the record was still pending when its wait
	// budget or the global deadline ran out.
	StateTimedOut
)

// States lists every state in lifecycle order.
var States = []State{StateSubmitted, StatePending, StateCompleted, StateFailed, StateTimedOut}

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition can occur from s.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState converts a state name produced by String back to a State.
func ParseState(name string) (State, error) {
	for _, s := range States {
		if s.String() == name {
			return s, nil
		}
	}
	return StateSubmitted, fmt.Errorf("unknown state %q", name)
}
