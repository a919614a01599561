package nfa

import (
	"slices"

	"github.com/coregx/glrmask/internal/conv"
	"github.com/coregx/glrmask/internal/sparse"
)

// EpsilonClosure adds to set every state reachable from seeds through
// epsilon and split transitions, seeds included.
func (n *NFA) EpsilonClosure(set *sparse.Set, seeds ...StateID) {
	stack := make([]StateID, 0, len(seeds))
	for _, s := range seeds {
		if set.Insert(uint32(s)) {
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		targets := n.states[id].Epsilons()
		for i := len(targets) - 1; i >= 0; i-- {
			if set.Insert(uint32(targets[i])) {
				stack = append(stack, targets[i])
			}
		}
	}
}

// Move returns the states reached from states by consuming b, without
// closure.
func (n *NFA) Move(states []uint32, b byte) []StateID {
	var out []StateID
	for _, id := range states {
		if next := n.states[id].Step(b); next != InvalidState {
			out = append(out, next)
		}
	}
	return out
}

// Finalizers returns the groups finalized by the given state set, sorted and
// reduced to those with the highest precedence.
func (n *NFA) Finalizers(states []uint32) []GroupID {
	var out []GroupID
	best := 0
	for _, id := range states {
		g, ok := n.states[id].Group()
		if !ok {
			continue
		}
		p := n.groups[g].Precedence
		switch {
		case len(out) == 0 || p > best:
			out = append(out[:0], g)
			best = p
		case p == best:
			out = append(out, g)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Simulate runs the NFA directly over input and returns the position at
// which each group finalized. Greedy groups report their last finalization,
// non-greedy groups their first. Simulation stops once no state is live.
func (n *NFA) Simulate(input []byte) map[GroupID]int {
	matches := make(map[GroupID]int)
	record := func(set *sparse.Set, pos int) {
		for _, g := range n.Finalizers(set.Values()) {
			if _, seen := matches[g]; seen && !n.groups[g].Greedy {
				continue
			}
			matches[g] = pos
		}
	}

	capacity := conv.IntToUint32(len(n.states))
	cur, next := sparse.New(capacity), sparse.New(capacity)
	n.EpsilonClosure(cur, n.start)
	record(cur, 0)

	for i, b := range input {
		next.Clear()
		n.EpsilonClosure(next, n.Move(cur.Values(), b)...)
		if next.IsEmpty() {
			break
		}
		record(next, i+1)
		cur, next = next, cur
	}
	return matches
}
