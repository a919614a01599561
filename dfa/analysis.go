package dfa

import (
	"github.com/coregx/glrmask/internal/u8set"
	"github.com/coregx/glrmask/nfa"
)

// computePossible computes PossibleGroupIDs as the least fixpoint of
//
//	possible(s) = finalizers(s) ∪ ⋃ possible(t) for every transition s → t
//
// using a worklist over reverse edges: whenever a state's set grows, its
// predecessors are revisited.
func (d *DFA) computePossible() {
	preds := make([][]StateID, len(d.states))
	for _, s := range d.states {
		s.possible = d.newGroupSet()
		for _, g := range s.finalizers {
			s.possible.Set(uint(g))
		}
		for _, t := range s.transitions {
			if t == InvalidState {
				continue
			}
			if n := len(preds[t]); n == 0 || preds[t][n-1] != s.id {
				preds[t] = append(preds[t], s.id)
			}
		}
	}

	queued := make([]bool, len(d.states))
	queue := make([]StateID, 0, len(d.states))
	for _, s := range d.states {
		queue = append(queue, s.id)
		queued[s.id] = true
	}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		queued[t] = false
		from := d.states[t].possible
		for _, p := range preds[t] {
			into := d.states[p].possible
			before := into.Count()
			into.InPlaceUnion(from)
			if into.Count() != before && !queued[p] {
				queued[p] = true
				queue = append(queue, p)
			}
		}
	}
}

// computeToward derives GroupIDToU8Set from the possible sets of each byte
// class's target.
func (d *DFA) computeToward() {
	n := d.classes.AlphabetLen()
	elements := make([]u8set.U8Set, n)
	for class := 0; class < n; class++ {
		elements[class] = d.classes.Elements(byte(class))
	}
	for _, s := range d.states {
		s.toward = make(map[nfa.GroupID]u8set.U8Set)
		for class, t := range s.transitions {
			if t == InvalidState {
				continue
			}
			possible := d.states[t].possible
			for g, ok := possible.NextSet(0); ok; g, ok = possible.NextSet(g + 1) {
				gid := nfa.GroupID(g)
				s.toward[gid] = s.toward[gid].Union(elements[class])
			}
		}
	}
}
