package dispatch

import (
	"fmt"

	"github.com/govm-net/actions/core"
)

// State is a step of a single dispatch. A dispatch moves forward through
// Received, Resolved, Decoded, Authorized and Invoked and ends in Completed
// or Failed. No state is visited twice.
type State int

const (
	StateReceived State = iota
	StateResolved
	StateDecoded
	StateAuthorized
	StateInvoked
	StateCompleted
	StateFailed
)

var stateNames = [...]string{
	StateReceived:   "received",
	StateResolved:   "resolved",
	StateDecoded:    "decoded",
	StateAuthorized: "authorized",
	StateInvoked:    "invoked",
	StateCompleted:  "completed",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Error reports a failed dispatch. Stage is the last state reached before the
// failing step; Err carries the error kind and its cause.
type Error struct {
	Action core.Name
	Stage  State
	Trace  []State
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dispatch %s failed after %s: %v", e.Action, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
