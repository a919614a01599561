// Package grammar models context-free grammars for the GLR table builder.
//
// A Grammar is validated on construction and then immutable. It is always
// augmented with a fresh start rule S' → S, where S is the user's start
// symbol, and computes Nullable, First and Follow sets eagerly.
package grammar

import (
	"slices"

	"github.com/emirpasic/gods/sets/treeset"
)

// Grammar is a validated, augmented context-free grammar.
type Grammar struct {
	start     NonTerminal
	augmented Production

	// productions holds the user productions sorted and deduplicated.
	productions []Production
	byLHS       map[NonTerminal][]Production

	terminals    []Terminal
	nonTerminals []NonTerminal

	nullable map[NonTerminal]bool
	first    map[NonTerminal]*treeset.Set
	follow   map[NonTerminal]*treeset.Set
}

// New validates productions and returns the augmented grammar.
func New(start NonTerminal, productions []Production) (*Grammar, error) {
	g := &Grammar{
		start:     start,
		augmented: Production{LHS: start + "'", RHS: []Symbol{NT(string(start))}},
		byLHS:     make(map[NonTerminal][]Production),
	}

	ps := slices.Clone(productions)
	slices.SortFunc(ps, Production.Compare)
	ps = slices.CompactFunc(ps, Production.Equal)
	g.productions = ps

	terms := treeset.NewWithStringComparator()
	nts := treeset.NewWithStringComparator()
	for _, p := range ps {
		g.byLHS[p.LHS] = append(g.byLHS[p.LHS], p)
		nts.Add(string(p.LHS))
		for _, s := range p.RHS {
			if s.IsTerminal() {
				terms.Add(s.Name())
			} else {
				nts.Add(s.Name())
			}
		}
	}
	for _, v := range terms.Values() {
		g.terminals = append(g.terminals, Terminal(v.(string)))
	}
	for _, v := range nts.Values() {
		g.nonTerminals = append(g.nonTerminals, NonTerminal(v.(string)))
	}

	if err := g.validate(); err != nil {
		return nil, err
	}
	g.computeNullable()
	g.computeFirst()
	g.computeFollow()
	return g, nil
}

// MustNew is like New but panics on error.
func MustNew(start NonTerminal, productions []Production) *Grammar {
	g, err := New(start, productions)
	if err != nil {
		panic(err)
	}
	return g
}

// Start returns the user start symbol.
func (g *Grammar) Start() NonTerminal { return g.start }

// Augmented returns the augmented start production S' → S.
func (g *Grammar) Augmented() Production { return g.augmented }

// Productions returns the user productions sorted by LHS, then RHS.
func (g *Grammar) Productions() []Production { return g.productions }

// ProductionsOf returns the productions of nt in sorted order. For the
// augmented start symbol it returns the augmented production.
func (g *Grammar) ProductionsOf(nt NonTerminal) []Production {
	if nt == g.augmented.LHS {
		return []Production{g.augmented}
	}
	return g.byLHS[nt]
}

// Terminals returns the terminals used by the grammar, sorted, without EOF.
func (g *Grammar) Terminals() []Terminal { return g.terminals }

// NonTerminals returns the nonterminals of the grammar, sorted, without the
// augmented start.
func (g *Grammar) NonTerminals() []NonTerminal { return g.nonTerminals }
