// Package nfa provides a multi-group Thompson NFA (Non-deterministic Finite
// Automaton) over bytes.
//
// Expressions are built with the Expr constructors, tagged as finalizer
// groups, and compiled into a single NFA in which every group owns its own
// match state. Unlike a conventional regex engine there is no single winner:
// any number of groups may finalize at the same input position.
package nfa

import (
	"fmt"
)

// BuildError reports a malformed automaton assembled through Builder.
// StateID is InvalidState when no single state is at fault.
type BuildError struct {
	Message string
	StateID StateID
}

func (e *BuildError) Error() string {
	if e.StateID == InvalidState {
		return "nfa: " + e.Message
	}
	return fmt.Sprintf("nfa: state %d: %s", e.StateID, e.Message)
}
