// Package dfa determinizes a multi-group NFA by subset construction.
//
// Every reachable DFA state is built eagerly. Besides transitions, each state
// carries the analyses the precompute and constraint layers query on every
// decode step: the groups that finalize in it, the groups that can still
// finalize from it, and for each such group the bytes that lead toward it.
package dfa

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/coregx/glrmask/internal/conv"
	"github.com/coregx/glrmask/internal/sparse"
	"github.com/coregx/glrmask/nfa"
)

// DFA is an immutable deterministic automaton over bytes.
type DFA struct {
	states  []*State
	classes nfa.ByteClasses
	groups  nfa.Groups
}

// Build determinizes n. It never fails: an NFA that cannot finalize any group
// yields a DFA whose states have empty PossibleGroupIDs.
func Build(n *nfa.NFA) *DFA {
	b := &builder{
		nfa:   n,
		index: make(map[string]StateID),
		dfa: &DFA{
			classes: *n.ByteClasses(),
			groups:  n.Groups(),
		},
		set: sparse.New(conv.IntToUint32(n.States())),
	}
	b.determinize()
	b.dfa.computePossible()
	b.dfa.computeToward()
	return b.dfa
}

// Start returns the start state.
func (d *DFA) Start() *State {
	return d.states[StartState]
}

// State returns the state with the given ID, or nil if out of range.
func (d *DFA) State(id StateID) *State {
	if int(id) >= len(d.states) {
		return nil
	}
	return d.states[id]
}

// Len returns the number of states.
func (d *DFA) Len() int {
	return len(d.states)
}

// Next returns the state reached from id by consuming b.
func (d *DFA) Next(id StateID, b byte) (StateID, bool) {
	return d.states[id].Transition(b)
}

// Groups returns the groups this DFA finalizes.
func (d *DFA) Groups() nfa.Groups {
	return d.groups
}

// ByteClasses returns the alphabet partition.
func (d *DFA) ByteClasses() *nfa.ByteClasses {
	return &d.classes
}

// String returns a multi-line dump of all states.
func (d *DFA) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DFA{states: %d, groups: %d, classes: %d}\n", len(d.states), len(d.groups), d.classes.AlphabetLen())
	for _, s := range d.states {
		sb.WriteString("  ")
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

type builder struct {
	nfa   *nfa.NFA
	dfa   *DFA
	index map[string]StateID
	set   *sparse.Set
	queue []StateID
}

// determinize runs the worklist over canonical NFA state sets. States are
// numbered in discovery order, visiting byte classes in ascending order, so
// two builds of the same NFA are identical.
func (b *builder) determinize() {
	b.set.Clear()
	b.nfa.EpsilonClosure(b.set, b.nfa.Start())
	b.intern(b.set.Sorted())

	reps := b.dfa.classes.Representatives()
	for len(b.queue) > 0 {
		id := b.queue[0]
		b.queue = b.queue[1:]
		s := b.dfa.states[id]
		for class, rep := range reps {
			b.set.Clear()
			b.nfa.EpsilonClosure(b.set, b.nfa.Move(s.nfaStatesRaw(), rep)...)
			if b.set.IsEmpty() {
				continue
			}
			s.transitions[class] = b.intern(b.set.Sorted())
		}
	}
}

// intern returns the state for the sorted NFA set, creating it if new.
func (b *builder) intern(sorted []uint32) StateID {
	key := stateKey(sorted)
	if id, ok := b.index[key]; ok {
		return id
	}

	id := conv.NextID[StateID](len(b.dfa.states))
	nfaStates := make([]nfa.StateID, len(sorted))
	for i, v := range sorted {
		nfaStates[i] = nfa.StateID(v)
	}
	transitions := make([]StateID, b.dfa.classes.AlphabetLen())
	for i := range transitions {
		transitions[i] = InvalidState
	}
	b.dfa.states = append(b.dfa.states, &State{
		id:          id,
		transitions: transitions,
		finalizers:  b.nfa.Finalizers(sorted),
		nfaStates:   nfaStates,
		classes:     &b.dfa.classes,
	})
	b.index[key] = id
	b.queue = append(b.queue, id)
	return id
}

func (s *State) nfaStatesRaw() []uint32 {
	out := make([]uint32, len(s.nfaStates))
	for i, v := range s.nfaStates {
		out[i] = uint32(v)
	}
	return out
}

// stateKey encodes a sorted NFA state set as an exact map key.
func stateKey(sorted []uint32) string {
	buf := make([]byte, 4*len(sorted))
	for i, v := range sorted {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return string(buf)
}

// newGroupSet returns an empty bitset sized for the DFA's groups.
func (d *DFA) newGroupSet() *bitset.BitSet {
	return bitset.New(uint(len(d.groups)))
}
