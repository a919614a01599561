package dfa

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/coregx/glrmask/internal/u8set"
	"github.com/coregx/glrmask/nfa"
)

// StateID uniquely identifies a DFA state.
// This is a 32-bit unsigned integer for compact representation.
type StateID uint32

// Special state constants
const (
	// InvalidState marks a missing transition.
	InvalidState StateID = 0xFFFFFFFF

	// StartState is always state ID 0 (the initial state)
	StartState StateID = 0
)

// State is a DFA state: one canonical set of NFA states.
//
// Transitions are stored per byte class, so a state occupies
// AlphabetLen() entries regardless of how many bytes map to each class.
type State struct {
	id StateID

	// transitions is indexed by byte class; InvalidState means no transition
	transitions []StateID

	// finalizers are the groups finalized here, sorted, precedence filtered
	finalizers []nfa.GroupID

	// possible holds every group finalizable from here, including finalizers
	possible *bitset.BitSet

	// toward maps a group to the bytes whose target can still finalize it
	toward map[nfa.GroupID]u8set.U8Set

	// nfaStates is the sorted NFA state set this state represents
	nfaStates []nfa.StateID

	// classes is shared with the owning DFA
	classes *nfa.ByteClasses
}

// ID returns the state's unique identifier
func (s *State) ID() StateID {
	return s.id
}

// Transition returns the state reached by consuming b.
// Returns (InvalidState, false) if there is no transition.
func (s *State) Transition(b byte) (StateID, bool) {
	next := s.transitions[s.classes.Get(b)]
	return next, next != InvalidState
}

// Finalizers returns the groups finalized in this state, ascending.
func (s *State) Finalizers() []nfa.GroupID {
	return s.finalizers
}

// IsMatch reports whether any group finalizes here.
func (s *State) IsMatch() bool {
	return len(s.finalizers) > 0
}

// PossibleGroupIDs returns the groups that can still finalize from this
// state, including the ones finalizing here. Callers must not modify it.
func (s *State) PossibleGroupIDs() *bitset.BitSet {
	return s.possible
}

// CanFinalize reports whether g is in PossibleGroupIDs.
func (s *State) CanFinalize(g nfa.GroupID) bool {
	return s.possible.Test(uint(g))
}

// GroupIDToU8Set maps each group to the bytes whose transition leads to a
// state from which the group can still finalize. Groups with no such byte are
// absent. Callers must not modify the map.
func (s *State) GroupIDToU8Set() map[nfa.GroupID]u8set.U8Set {
	return s.toward
}

// BytesToward returns GroupIDToU8Set()[g].
func (s *State) BytesToward(g nfa.GroupID) u8set.U8Set {
	return s.toward[g]
}

// IsDead reports whether the state has no outgoing transitions.
func (s *State) IsDead() bool {
	for _, t := range s.transitions {
		if t != InvalidState {
			return false
		}
	}
	return true
}

// NFAStates returns the NFA states this DFA state was built from.
func (s *State) NFAStates() []nfa.StateID {
	return s.nfaStates
}

// String returns a human-readable representation of the state
func (s *State) String() string {
	return fmt.Sprintf("State(%d, finalizers=%v, possible=%v, nfa=%v)",
		s.id, s.finalizers, s.possible, s.nfaStates)
}
