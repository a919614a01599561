package regex

import (
	"fmt"

	"github.com/coregx/glrmask/dfa"
)

// State is an execution cursor into a Regex. It never mutates the Regex.
type State struct {
	rx       *Regex
	state    dfa.StateID
	matches  Matches
	position int
	done     bool
}

// Execute consumes input one byte at a time. A byte without a transition
// ends execution without further finalization; entering a state with no
// outgoing transitions finalizes it and then ends execution. Bytes after
// the end are ignored.
func (s *State) Execute(input []byte) {
	for _, b := range input {
		if s.done {
			return
		}
		next, ok := s.rx.dfa.Next(s.state, b)
		if !ok {
			s.done = true
			return
		}
		s.state = next
		s.position++
		s.finalize()
		if s.rx.dfa.State(next).IsDead() {
			s.done = true
		}
	}
}

// finalize records every group finalizing in the current state.
func (s *State) finalize() {
	for _, g := range s.rx.dfa.State(s.state).Finalizers() {
		s.matches.record(g, s.position, s.rx.groups[g].Greedy)
	}
}

// Matches returns the recorded group positions.
func (s *State) Matches() Matches {
	return s.matches
}

// Done reports whether execution can no longer continue.
func (s *State) Done() bool {
	return s.done
}

// Position returns the number of bytes consumed.
func (s *State) Position() int {
	return s.position
}

// StateID returns the current DFA state.
func (s *State) StateID() dfa.StateID {
	return s.state
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := *s
	c.matches = s.matches.clone()
	return &c
}

func (s *State) String() string {
	return fmt.Sprintf("RegexState{state: %d, pos: %d, done: %v, matches: %v}",
		s.state, s.position, s.done, s.matches)
}
