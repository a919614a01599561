package nfa

import (
	"fmt"
	"strings"
)

// StateID indexes a state in an NFA.
type StateID uint32

// InvalidState is returned where no state exists.
const InvalidState StateID = 0xFFFFFFFF

// StateKind selects which fields of a State are meaningful.
type StateKind uint8

const (
	// StateMatch finalizes one group. It has no outgoing transitions.
	StateMatch StateKind = iota

	// StateByteRange consumes one byte in [lo, hi].
	StateByteRange

	// StateSparse consumes one byte from a list of disjoint ranges.
	StateSparse

	// StateSplit branches to two states without consuming input.
	StateSplit

	// StateEpsilon moves to one state without consuming input.
	StateEpsilon

	// StateFail has no transitions.
	StateFail
)

var stateKindNames = [...]string{
	StateMatch:     "Match",
	StateByteRange: "ByteRange",
	StateSparse:    "Sparse",
	StateSplit:     "Split",
	StateEpsilon:   "Epsilon",
	StateFail:      "Fail",
}

func (k StateKind) String() string {
	if int(k) < len(stateKindNames) {
		return stateKindNames[k]
	}
	return fmt.Sprintf("StateKind(%d)", k)
}

// State is one NFA state.
type State struct {
	id   StateID
	kind StateKind

	// ByteRange
	lo, hi byte
	// ByteRange and Epsilon target
	next StateID

	// Sparse
	transitions []Transition

	// Split
	left, right StateID

	// Match
	group GroupID
}

// Transition is one range of a Sparse state.
type Transition struct {
	Lo, Hi byte
	Next   StateID
}

// ID returns the state's index.
func (s *State) ID() StateID { return s.id }

// Kind returns the state's kind.
func (s *State) Kind() StateKind { return s.kind }

// IsMatch reports whether s finalizes a group.
func (s *State) IsMatch() bool { return s.kind == StateMatch }

// Group returns the group finalized by a Match state.
func (s *State) Group() (GroupID, bool) {
	if s.kind == StateMatch {
		return s.group, true
	}
	return 0, false
}

// Epsilons returns the targets s reaches without consuming input, left
// branch first.
func (s *State) Epsilons() []StateID {
	switch s.kind {
	case StateEpsilon:
		return []StateID{s.next}
	case StateSplit:
		return []StateID{s.left, s.right}
	}
	return nil
}

// Step returns the target reached by consuming b, or InvalidState.
func (s *State) Step(b byte) StateID {
	switch s.kind {
	case StateByteRange:
		if s.lo <= b && b <= s.hi {
			return s.next
		}
	case StateSparse:
		for _, t := range s.transitions {
			if t.Lo <= b && b <= t.Hi {
				return t.Next
			}
		}
	}
	return InvalidState
}

func (s *State) String() string {
	var detail string
	switch s.kind {
	case StateMatch:
		detail = fmt.Sprintf(" group %d", s.group)
	case StateByteRange:
		detail = fmt.Sprintf(" [%q-%q] -> %d", s.lo, s.hi, s.next)
	case StateSparse:
		parts := make([]string, len(s.transitions))
		for i, t := range s.transitions {
			parts[i] = fmt.Sprintf("[%q-%q] -> %d", t.Lo, t.Hi, t.Next)
		}
		detail = " " + strings.Join(parts, ", ")
	case StateSplit:
		detail = fmt.Sprintf(" -> %d, %d", s.left, s.right)
	case StateEpsilon:
		detail = fmt.Sprintf(" -> %d", s.next)
	}
	return fmt.Sprintf("%d: %s%s", s.id, s.kind, detail)
}

// NFA is a compiled multi-group Thompson NFA.
//
// Every group owns one Match state. The start state reaches the entry of
// every group's fragment through epsilon transitions, so a single run of the
// automaton tracks all groups at once.
type NFA struct {
	states      []State
	start       StateID
	groups      Groups
	byteClasses ByteClasses
}

// Start returns the start state.
func (n *NFA) Start() StateID { return n.start }

// State returns the state with the given ID, or nil if out of range.
func (n *NFA) State(id StateID) *State {
	if int(id) >= len(n.states) {
		return nil
	}
	return &n.states[id]
}

// States returns the number of states.
func (n *NFA) States() int { return len(n.states) }

// Groups returns the groups the NFA was compiled from.
func (n *NFA) Groups() Groups { return n.groups }

// ByteClasses returns the alphabet partition of this NFA.
func (n *NFA) ByteClasses() *ByteClasses { return &n.byteClasses }

// String dumps every state, one per line.
func (n *NFA) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "NFA start=%d groups=%d\n", n.start, len(n.groups))
	for i := range n.states {
		sb.WriteString("  ")
		sb.WriteString(n.states[i].String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
