package grammar

import (
	"github.com/emirpasic/gods/sets/treeset"
)

// computeNullable marks every nonterminal that derives the empty string.
func (g *Grammar) computeNullable() {
	g.nullable = make(map[NonTerminal]bool)
	for changed := true; changed; {
		changed = false
		for _, p := range g.productions {
			if !g.nullable[p.LHS] && g.sequenceNullable(p.RHS) {
				g.nullable[p.LHS] = true
				changed = true
			}
		}
	}
	g.nullable[g.augmented.LHS] = g.nullable[g.start]
}

func (g *Grammar) sequenceNullable(syms []Symbol) bool {
	for _, s := range syms {
		if s.IsTerminal() || !g.nullable[s.NonTerminal()] {
			return false
		}
	}
	return true
}

// computeFirst seeds First with the directly derivable leading terminals and
// propagates through nonterminal-headed productions until stable.
func (g *Grammar) computeFirst() {
	g.first = make(map[NonTerminal]*treeset.Set, len(g.nonTerminals)+1)
	for _, nt := range g.nonTerminals {
		g.first[nt] = treeset.NewWithStringComparator()
	}
	for changed := true; changed; {
		changed = false
		for _, p := range g.productions {
			set := g.first[p.LHS]
			before := set.Size()
			g.addFirstOf(set, p.RHS)
			if set.Size() != before {
				changed = true
			}
		}
	}
	g.first[g.augmented.LHS] = g.first[g.start]
}

// addFirstOf adds First(syms) to set and reports whether syms is nullable.
func (g *Grammar) addFirstOf(set *treeset.Set, syms []Symbol) bool {
	for _, s := range syms {
		if s.IsTerminal() {
			set.Add(s.Name())
			return false
		}
		if f := g.first[s.NonTerminal()]; f != nil && f != set {
			set.Add(f.Values()...)
		}
		if !g.nullable[s.NonTerminal()] {
			return false
		}
	}
	return true
}

// computeFollow seeds Follow(start) with EOF and propagates across
// production bodies until stable.
func (g *Grammar) computeFollow() {
	g.follow = make(map[NonTerminal]*treeset.Set, len(g.nonTerminals)+1)
	for _, nt := range g.nonTerminals {
		g.follow[nt] = treeset.NewWithStringComparator()
	}
	g.follow[g.start].Add(string(EOF))

	for changed := true; changed; {
		changed = false
		for _, p := range g.productions {
			for i, s := range p.RHS {
				if s.IsTerminal() {
					continue
				}
				set := g.follow[s.NonTerminal()]
				before := set.Size()
				if g.addFirstOf(set, p.RHS[i+1:]) && set != g.follow[p.LHS] {
					set.Add(g.follow[p.LHS].Values()...)
				}
				if set.Size() != before {
					changed = true
				}
			}
		}
	}
	g.follow[g.augmented.LHS] = treeset.NewWithStringComparator(string(EOF))
}

// Nullable reports whether nt derives the empty string.
func (g *Grammar) Nullable(nt NonTerminal) bool {
	return g.nullable[nt]
}

// First returns First(sym), sorted. It never contains EOF.
func (g *Grammar) First(sym Symbol) []Terminal {
	if sym.IsTerminal() {
		return []Terminal{sym.Terminal()}
	}
	return terminalsOf(g.first[sym.NonTerminal()])
}

// FirstOfSequence returns First(syms), sorted, and whether syms is nullable.
func (g *Grammar) FirstOfSequence(syms []Symbol) ([]Terminal, bool) {
	set := treeset.NewWithStringComparator()
	nullable := g.addFirstOf(set, syms)
	return terminalsOf(set), nullable
}

// Follow returns Follow(nt), sorted. EOF sorts as "$".
func (g *Grammar) Follow(nt NonTerminal) []Terminal {
	return terminalsOf(g.follow[nt])
}

func terminalsOf(set *treeset.Set) []Terminal {
	if set == nil {
		return nil
	}
	out := make([]Terminal, 0, set.Size())
	for _, v := range set.Values() {
		out = append(out, Terminal(v.(string)))
	}
	return out
}
