// Package regex wraps a multi-group DFA with incremental execution.
//
// A Regex is immutable and may be shared freely. A State is a cursor into
// it: the current DFA state, the position of every group finalized so far,
// and whether execution can continue. Execution is total: a byte without a
// transition ends the run, it is not an error.
package regex

import (
	"fmt"

	"github.com/coregx/glrmask/dfa"
	"github.com/coregx/glrmask/nfa"
)

// Regex owns one DFA compiled from a list of groups.
type Regex struct {
	dfa    *dfa.DFA
	groups nfa.Groups
}

// Build compiles groups into a Regex.
func Build(groups nfa.Groups) (*Regex, error) {
	n, err := nfa.Compile(groups)
	if err != nil {
		return nil, err
	}
	return &Regex{dfa: dfa.Build(n), groups: groups}, nil
}

// BuildExpr compiles a single greedy group.
func BuildExpr(e *nfa.Expr) (*Regex, error) {
	return Build(nfa.GroupsOf(e))
}

// MustBuild is like Build but panics on error.
func MustBuild(groups nfa.Groups) *Regex {
	rx, err := Build(groups)
	if err != nil {
		panic(fmt.Sprintf("regex: MustBuild: %v", err))
	}
	return rx
}

// DFA returns the underlying automaton.
func (r *Regex) DFA() *dfa.DFA {
	return r.dfa
}

// Groups returns the groups the Regex was built from.
func (r *Regex) Groups() nfa.Groups {
	return r.groups
}

// MatchesEmpty reports whether any group finalizes without consuming input.
func (r *Regex) MatchesEmpty() bool {
	return r.dfa.Start().IsMatch()
}

// Init returns a State at the start of the automaton.
func (r *Regex) Init() *State {
	return r.InitAt(dfa.StartState)
}

// InitAt returns a State positioned at an arbitrary DFA state. Groups that
// finalize in that state are recorded at position 0.
func (r *Regex) InitAt(id dfa.StateID) *State {
	s := &State{rx: r, state: id}
	s.finalize()
	s.done = r.dfa.State(id).IsDead()
	return s
}

// ExecuteResult is the outcome of ExecuteAll.
type ExecuteResult struct {
	// Matches lists every finalization in position order, then group order.
	Matches []Match

	// End is the state after the last byte. Valid only if Complete.
	End dfa.StateID

	// Complete reports whether every byte had a transition.
	Complete bool
}

// ExecuteAll runs from the given state over input and reports every
// position at which any group finalizes, not just the last one per group.
// Non-greedy groups report only their first finalization.
func (r *Regex) ExecuteAll(from dfa.StateID, input []byte) ExecuteResult {
	var res ExecuteResult
	var lazyDone map[nfa.GroupID]bool
	emit := func(s *dfa.State, pos int) {
		for _, g := range s.Finalizers() {
			if !r.groups[g].Greedy {
				if lazyDone[g] {
					continue
				}
				if lazyDone == nil {
					lazyDone = make(map[nfa.GroupID]bool)
				}
				lazyDone[g] = true
			}
			res.Matches = append(res.Matches, Match{Group: g, Position: pos})
		}
	}

	cur := from
	emit(r.dfa.State(cur), 0)
	for i, b := range input {
		next, ok := r.dfa.Next(cur, b)
		if !ok {
			return res
		}
		cur = next
		emit(r.dfa.State(cur), i+1)
	}
	res.End, res.Complete = cur, true
	return res
}
