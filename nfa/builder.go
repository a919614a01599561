package nfa

import (
	"fmt"

	"github.com/coregx/glrmask/internal/conv"
)

// Builder assembles an NFA state by state. Targets that are not known yet
// are left as InvalidState and filled in later with Patch.
type Builder struct {
	states []State
	start  StateID

	// boundaries of every byte range seen, for the alphabet partition
	classes ByteClassSet
}

// NewBuilder returns an empty Builder with no start state.
func NewBuilder() *Builder {
	return &Builder{start: InvalidState}
}

// Grow reserves room for n more states.
func (b *Builder) Grow(n int) {
	if free := cap(b.states) - len(b.states); free < n {
		grown := make([]State, len(b.states), len(b.states)+n)
		copy(grown, b.states)
		b.states = grown
	}
}

func (b *Builder) add(s State) StateID {
	s.id = conv.NextID[StateID](len(b.states))
	b.states = append(b.states, s)
	return s.id
}

// AddMatch adds the state that finalizes group.
func (b *Builder) AddMatch(group GroupID) StateID {
	return b.add(State{kind: StateMatch, group: group})
}

// AddByteRange adds a state consuming one byte in [lo, hi].
func (b *Builder) AddByteRange(lo, hi byte, next StateID) StateID {
	b.classes.SetRange(lo, hi)
	return b.add(State{kind: StateByteRange, lo: lo, hi: hi, next: next})
}

// AddSparse adds a state consuming one byte from any of the ranges. The
// slice is copied.
func (b *Builder) AddSparse(transitions []Transition) StateID {
	own := make([]Transition, len(transitions))
	for i, tr := range transitions {
		b.classes.SetRange(tr.Lo, tr.Hi)
		own[i] = tr
	}
	return b.add(State{kind: StateSparse, transitions: own})
}

// AddSplit adds an epsilon fork to left and right.
func (b *Builder) AddSplit(left, right StateID) StateID {
	return b.add(State{kind: StateSplit, left: left, right: right})
}

// AddEpsilon adds an epsilon move to next.
func (b *Builder) AddEpsilon(next StateID) StateID {
	return b.add(State{kind: StateEpsilon, next: next})
}

// AddFail adds a state with no transitions.
func (b *Builder) AddFail() StateID {
	return b.add(State{kind: StateFail})
}

// Patch points every outgoing transition of a ByteRange, Sparse or Epsilon
// state at target.
func (b *Builder) Patch(id, target StateID) error {
	if int(id) >= len(b.states) {
		return &BuildError{Message: "state ID out of bounds", StateID: id}
	}
	s := &b.states[id]
	switch s.kind {
	case StateByteRange, StateEpsilon:
		s.next = target
	case StateSparse:
		for i := range s.transitions {
			s.transitions[i].Next = target
		}
	default:
		return &BuildError{Message: fmt.Sprintf("cannot patch %s state", s.kind), StateID: id}
	}
	return nil
}

// SetStart sets the start state.
func (b *Builder) SetStart(start StateID) {
	b.start = start
}

// States returns the number of states added so far.
func (b *Builder) States() int {
	return len(b.states)
}

// targets lists every state s refers to.
func (s *State) targets() []StateID {
	switch s.kind {
	case StateByteRange:
		return []StateID{s.next}
	case StateSparse:
		out := make([]StateID, len(s.transitions))
		for i, t := range s.transitions {
			out[i] = t.Next
		}
		return out
	}
	return s.Epsilons()
}

// Validate checks that the start state is set and that no transition is
// left dangling.
func (b *Builder) Validate() error {
	if b.start == InvalidState {
		return &BuildError{Message: "start state not set", StateID: InvalidState}
	}
	if int(b.start) >= len(b.states) {
		return &BuildError{Message: "start state out of bounds", StateID: b.start}
	}
	for i := range b.states {
		for _, t := range b.states[i].targets() {
			if int(t) >= len(b.states) {
				return &BuildError{
					Message: fmt.Sprintf("transition to missing state %d", t),
					StateID: StateID(i),
				}
			}
		}
	}
	return nil
}

// Build validates the states and returns the NFA for groups. Every Match
// state must finalize one of groups.
func (b *Builder) Build(groups Groups) (*NFA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	for i := range b.states {
		if g, ok := b.states[i].Group(); ok && int(g) >= len(groups) {
			return nil, &BuildError{
				Message: fmt.Sprintf("match state for unknown group %d", g),
				StateID: StateID(i),
			}
		}
	}
	return &NFA{
		states:      b.states,
		start:       b.start,
		groups:      groups,
		byteClasses: b.classes.ByteClasses(),
	}, nil
}
