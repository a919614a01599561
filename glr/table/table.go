// Package table builds conflict-preserving GLR parse tables.
//
// Build runs a fixed pipeline of stages, each consuming only the previous
// stage's output:
//
//  1. LR(0) item automaton over canonical item sets
//  2. classification into shifts, gotos and completed items
//  3. Follow-set lookahead on completed items
//  4. terminal → production set inversion
//  5. lookahead-equivalent state merging (currently a pass-through)
//  6. per-terminal merge into shift, reduce, accept or Split
//  7. dense id assignment in canonical order
//
// Conflicts are never resolved: they become Split actions that the runtime
// explores in parallel. Two builds of the same grammar yield identical
// tables.
package table

import (
	"errors"

	"github.com/coregx/glrmask/glr/grammar"
	"go.uber.org/zap"
)

// ErrNilGrammar is returned by Build for a nil grammar.
var ErrNilGrammar = errors.New("table: nil grammar")

// Options configures Build.
type Options struct {
	// Logger receives build statistics. Nil means no logging.
	Logger *zap.Logger
}

// Table is the final GLR table. It is immutable and safe to share.
type Table struct {
	grammar *grammar.Grammar
	prods   productions

	start StateID

	terminals      []grammar.Terminal
	terminalIDs    map[grammar.Terminal]TerminalID
	nonTerminals   []grammar.NonTerminal
	nonTerminalIDs map[grammar.NonTerminal]NonTerminalID
	productions    []grammar.Production

	actions [][]Action  // [state][terminal]
	gotos   [][]StateID // [state][nonterminal]
	reduces []Reduce
	splits  []Split

	itemSets  []ItemSet
	stateOf   map[string]StateID
	conflicts []Conflict
}

// Build constructs the table for g.
func Build(g *grammar.Grammar, opts Options) (*Table, error) {
	if g == nil {
		return nil, ErrNilGrammar
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s1 := buildItemAutomaton(g)
	log.Debug("item automaton built", zap.Int("states", len(s1.sets)), zap.Int("productions", len(s1.prods)))
	s2 := classify(s1)
	s3 := attachLookahead(g, s2)
	s4 := internReduces(s3)
	s5 := mergeLookaheadEquivalent(s4)
	s6 := mergeActions(s5)
	t := intern(g, s6)

	if ce := log.Check(zap.DebugLevel, "conflict"); ce != nil {
		for _, c := range t.conflicts {
			log.Debug("conflict",
				zap.Uint32("state", uint32(c.State)),
				zap.String("terminal", string(t.terminals[c.Terminal])),
				zap.Uint32("split", uint32(c.Split)))
		}
	}
	log.Info("GLR table built",
		zap.Int("states", len(t.actions)),
		zap.Int("terminals", len(t.terminals)),
		zap.Int("nonterminals", len(t.nonTerminals)),
		zap.Int("reduces", len(t.reduces)),
		zap.Int("splits", len(t.splits)),
		zap.Int("conflicts", len(t.conflicts)))
	return t, nil
}

// Grammar returns the grammar the table was built from.
func (t *Table) Grammar() *grammar.Grammar { return t.grammar }

// Start returns the initial state.
func (t *Table) Start() StateID { return t.start }

// EOF returns the id of the end-of-input terminal.
func (t *Table) EOF() TerminalID { return TerminalID(len(t.terminals) - 1) }

// NumStates returns the number of states.
func (t *Table) NumStates() int { return len(t.actions) }

// NumTerminals returns the number of terminals, including EOF.
func (t *Table) NumTerminals() int { return len(t.terminals) }

// NumNonTerminals returns the number of nonterminals.
func (t *Table) NumNonTerminals() int { return len(t.nonTerminals) }

// Action returns the entry for (state, terminal).
func (t *Table) Action(state StateID, term TerminalID) (Action, bool) {
	a := t.actions[state][term]
	return a, a.Kind != ActionNone
}

// Goto returns the target of state on nt.
func (t *Table) Goto(state StateID, nt NonTerminalID) (StateID, bool) {
	s := t.gotos[state][nt]
	return s, s != InvalidState
}

// TerminalID returns the id of term.
func (t *Table) TerminalID(term grammar.Terminal) (TerminalID, bool) {
	id, ok := t.terminalIDs[term]
	return id, ok
}

// Terminal returns the terminal with the given id.
func (t *Table) Terminal(id TerminalID) grammar.Terminal { return t.terminals[id] }

// NonTerminalID returns the id of nt.
func (t *Table) NonTerminalID(nt grammar.NonTerminal) (NonTerminalID, bool) {
	id, ok := t.nonTerminalIDs[nt]
	return id, ok
}

// NonTerminal returns the nonterminal with the given id.
func (t *Table) NonTerminal(id NonTerminalID) grammar.NonTerminal { return t.nonTerminals[id] }

// Production returns the production with the given id.
func (t *Table) Production(id ProductionID) grammar.Production { return t.productions[id] }

// Reduce returns the interned reduction.
func (t *Table) Reduce(id ReduceID) Reduce { return t.reduces[id] }

// Split returns the interned conflict.
func (t *Table) Split(id SplitID) Split { return t.splits[id] }

// Conflicts returns every Split entry in (state, terminal) order.
func (t *Table) Conflicts() []Conflict { return t.conflicts }

// ItemSet returns the canonical item set of state.
func (t *Table) ItemSet(state StateID) ItemSet { return t.itemSets[state] }

// StateOf returns the state whose item set equals set.
func (t *Table) StateOf(set ItemSet) (StateID, bool) {
	id, ok := t.stateOf[canonical(append(ItemSet(nil), set...)).key()]
	return id, ok
}

// FormatItem renders an item as "A → α • β".
func (t *Table) FormatItem(it Item) string { return t.prods.format(it) }

// Expected returns the terminals with an action in state, ascending.
func (t *Table) Expected(state StateID) []TerminalID {
	var out []TerminalID
	for tid, a := range t.actions[state] {
		if a.Kind != ActionNone {
			out = append(out, TerminalID(tid))
		}
	}
	return out
}
