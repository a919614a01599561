// Package parser runs a GLR table over a stream of terminals.
//
// All live branches advance in lockstep. Their stacks share a
// graph-structured stack, so common prefixes are stored once and branches
// that reach the same configuration are merged instead of multiplied. A
// branch that cannot continue is not an error: it becomes inactive with a
// reason and is recorded at the position where it stopped.
package parser

import (
	"fmt"
	"slices"

	"github.com/coregx/glrmask/glr/gss"
	"github.com/coregx/glrmask/glr/table"
	"github.com/dolthub/swiss"
)

// Reason explains why a branch became inactive.
type Reason uint8

const (
	// ActionNotFound means the table has no entry for the terminal.
	ActionNotFound Reason = iota

	// GotoNotFound means a reduction revealed a state without a goto for
	// the reduced nonterminal.
	GotoNotFound

	// Accepted means the augmented start production was reduced on end
	// of input.
	Accepted
)

func (r Reason) String() string {
	switch r {
	case ActionNotFound:
		return "ActionNotFound"
	case GotoNotFound:
		return "GotoNotFound"
	case Accepted:
		return "Accepted"
	default:
		return fmt.Sprintf("Reason(%d)", r)
	}
}

// ParseState is one branch: a state stack and the stack of actions taken,
// both as nodes of the parser's shared arenas.
type ParseState struct {
	Stack   gss.NodeID
	Actions gss.NodeID
}

// Inactive is a branch that stopped, with the terminal it stopped on.
type Inactive struct {
	ParseState
	Reason   Reason
	Terminal table.TerminalID
}

// Options configures a Parser.
type Options struct {
	// MergeActiveStates merges branches with the same top state and top
	// action after every step.
	MergeActiveStates bool
}

// DefaultOptions returns the options used by the constraint layer.
func DefaultOptions() Options {
	return Options{MergeActiveStates: true}
}

// inactiveRecord is one position's inactive branches. Records form an
// immutable list shared between clones.
type inactiveRecord struct {
	pos    int
	states []Inactive
	prev   *inactiveRecord
}

// Parser is a GLR parser over one table.
type Parser struct {
	tbl     *table.Table
	stacks  *gss.Arena[table.StateID]
	actions *gss.Arena[table.Action]
	opts    Options

	active  []ParseState
	history *inactiveRecord
	pos     int
}

// New returns a parser with one active branch at the table's start state.
func New(tbl *table.Table, opts Options) *Parser {
	p := &Parser{
		tbl:     tbl,
		stacks:  gss.New(func(s table.StateID) uint64 { return uint64(s) }),
		actions: gss.New(func(a table.Action) uint64 { return uint64(a.Kind)<<32 | uint64(a.Arg) }),
		opts:    opts,
	}
	p.active = []ParseState{{
		Stack:   p.stacks.Root(tbl.Start()),
		Actions: p.actions.Root(table.Action{}),
	}}
	return p
}

// Table returns the parse table.
func (p *Parser) Table() *table.Table { return p.tbl }

// Active returns the live branches. Callers must not modify the slice.
func (p *Parser) Active() []ParseState { return p.active }

// Position returns the number of terminals stepped so far.
func (p *Parser) Position() int { return p.pos }

// IsAlive reports whether any branch is active.
func (p *Parser) IsAlive() bool { return len(p.active) > 0 }

// Top returns the state on top of a branch's stack.
func (p *Parser) Top(st ParseState) table.StateID { return p.stacks.Value(st.Stack) }

// TopAction returns the last action a branch took.
func (p *Parser) TopAction(st ParseState) table.Action { return p.actions.Value(st.Actions) }

// Inactive returns the branches that stopped while stepping the terminal at
// position pos.
func (p *Parser) Inactive(pos int) []Inactive {
	for r := p.history; r != nil && r.pos >= pos; r = r.prev {
		if r.pos == pos {
			return r.states
		}
	}
	return nil
}

// FullyMatches reports whether the last terminal stepped was EOF and some
// branch accepted on it.
func (p *Parser) FullyMatches() bool {
	return p.acceptedAt(p.pos - 1)
}

func (p *Parser) acceptedAt(pos int) bool {
	for _, in := range p.Inactive(pos) {
		if in.Reason == Accepted && in.Terminal == p.tbl.EOF() {
			return true
		}
	}
	return false
}

// Clone returns a parser sharing this parser's table, arenas and history
// with an independent active set.
func (p *Parser) Clone() *Parser {
	c := *p
	c.active = slices.Clone(p.active)
	return &c
}

// Absorb adds other's active branches to p. Both parsers must share arenas
// and be at the same position.
func (p *Parser) Absorb(other *Parser) {
	if other.stacks != p.stacks || other.actions != p.actions {
		panic("parser: Absorb of a parser with different arenas")
	}
	if other.pos != p.pos {
		panic(fmt.Sprintf("parser: Absorb at position %d into position %d", other.pos, p.pos))
	}
	seen := make(map[ParseState]bool, len(p.active))
	for _, st := range p.active {
		seen[st] = true
	}
	for _, st := range other.active {
		if !seen[st] {
			seen[st] = true
			p.active = append(p.active, st)
		}
	}
	if p.opts.MergeActiveStates {
		p.MergeActiveStates()
	}
}

// MergeActiveStates merges branches whose stacks have the same top state
// and whose last actions are equal. Merged stacks keep the union of their
// parents, so every linear stack of the inputs survives.
func (p *Parser) MergeActiveStates() {
	type key struct {
		state  table.StateID
		action table.Action
	}
	groups := swiss.NewMap[key, int](uint32(len(p.active)))
	var members [][]ParseState
	for _, st := range p.active {
		k := key{p.stacks.Value(st.Stack), p.actions.Value(st.Actions)}
		if i, ok := groups.Get(k); ok {
			members[i] = append(members[i], st)
			continue
		}
		groups.Put(k, len(members))
		members = append(members, []ParseState{st})
	}

	merged := make([]ParseState, 0, len(members))
	for _, group := range members {
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}
		stacks := make([]gss.NodeID, len(group))
		actions := make([]gss.NodeID, len(group))
		for i, st := range group {
			stacks[i], actions[i] = st.Stack, st.Actions
		}
		// Every member holds the same values, so each merge yields one node.
		merged = append(merged, ParseState{
			Stack:   p.stacks.BulkMerge(stacks)[0],
			Actions: p.actions.BulkMerge(actions)[0],
		})
	}
	p.active = merged
}

// Mark records the arena sizes so speculative work can be discarded.
type Mark struct {
	stacks, actions int
}

// Mark returns the current arena sizes.
func (p *Parser) Mark() Mark {
	return Mark{stacks: p.stacks.Len(), actions: p.actions.Len()}
}

// Release discards every arena node created after m. Parsers holding such
// nodes, including clones stepped after m, must not be used afterwards.
func (p *Parser) Release(m Mark) {
	p.stacks.Truncate(m.stacks)
	p.actions.Truncate(m.actions)
}

// Accepts reports whether stepping term would leave a branch alive or, for
// EOF, accept. The parser is unchanged.
func (p *Parser) Accepts(term table.TerminalID) bool {
	m := p.Mark()
	defer p.Release(m)
	c := p.Clone()
	c.Step(term)
	return c.IsAlive() || c.acceptedAt(c.pos-1)
}

// AcceptableTerminals returns every terminal Accepts holds for, ascending.
func (p *Parser) AcceptableTerminals() []table.TerminalID {
	var out []table.TerminalID
	for t := 0; t < p.tbl.NumTerminals(); t++ {
		if p.Accepts(table.TerminalID(t)) {
			out = append(out, table.TerminalID(t))
		}
	}
	return out
}

// Parse steps every terminal followed by EOF and reports FullyMatches. It
// stops early once no branch is active.
func (p *Parser) Parse(terms []table.TerminalID) bool {
	for _, t := range terms {
		p.Step(t)
		if !p.IsAlive() {
			return false
		}
	}
	p.Step(p.tbl.EOF())
	return p.FullyMatches()
}

// Trace returns up to limit action sequences that led to st, oldest action
// first. A limit <= 0 means no limit.
func (p *Parser) Trace(st ParseState, limit int) [][]table.Action {
	paths := p.actions.Paths(st.Actions, limit)
	for i, path := range paths {
		// Drop the root sentinel and put the oldest action first.
		path = path[:len(path)-1]
		slices.Reverse(path)
		paths[i] = path
	}
	return paths
}

// Stacks returns up to limit state stacks of st, bottom first.
func (p *Parser) Stacks(st ParseState, limit int) [][]table.StateID {
	paths := p.stacks.Paths(st.Stack, limit)
	for _, path := range paths {
		slices.Reverse(path)
	}
	return paths
}
