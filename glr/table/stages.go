package table

import (
	"slices"

	"github.com/coregx/glrmask/glr/grammar"
	"github.com/google/btree"
)

// Stage 1 ---------------------------------------------------------------

// itemAutomaton is the LR(0) automaton over canonical item sets, in
// discovery order.
type itemAutomaton struct {
	prods productions
	sets  []ItemSet
	trans []map[grammar.Symbol]int
}

type registryEntry struct {
	key   string
	index int
}

// buildItemAutomaton runs the closure/goto worklist from the augmented start
// item. Successor symbols are visited in sorted order, so discovery order is
// the same for every build of the same grammar.
func buildItemAutomaton(g *grammar.Grammar) *itemAutomaton {
	ps := newProductions(g)
	index := ps.indexByLHS()
	a := &itemAutomaton{prods: ps}
	registry := btree.NewG(8, func(x, y registryEntry) bool { return x.key < y.key })

	intern := func(set ItemSet) int {
		key := set.key()
		if e, ok := registry.Get(registryEntry{key: key}); ok {
			return e.index
		}
		i := len(a.sets)
		a.sets = append(a.sets, set)
		a.trans = append(a.trans, nil)
		registry.ReplaceOrInsert(registryEntry{key: key, index: i})
		return i
	}

	intern(closure(ps, index, []Item{{Prod: 0, Dot: 0}}))
	for i := 0; i < len(a.sets); i++ {
		set := a.sets[i]
		var syms []grammar.Symbol
		for _, it := range set {
			if sym, ok := ps.next(it); ok {
				syms = append(syms, sym)
			}
		}
		slices.SortFunc(syms, grammar.Symbol.Compare)
		syms = slices.Compact(syms)

		trans := make(map[grammar.Symbol]int, len(syms))
		for _, sym := range syms {
			var kernel []Item
			for _, it := range set {
				if next, ok := ps.next(it); ok && next == sym {
					kernel = append(kernel, Item{Prod: it.Prod, Dot: it.Dot + 1})
				}
			}
			trans[sym] = intern(closure(ps, index, kernel))
		}
		a.trans[i] = trans
	}
	return a
}

// Stage 2 ---------------------------------------------------------------

type classifiedState struct {
	shifts  map[grammar.Terminal]int
	gotos   map[grammar.NonTerminal]int
	reduces []int // production indices with the dot at the end
}

type classified struct {
	prods  productions
	sets   []ItemSet
	states []classifiedState
}

// classify partitions each state's transitions into shifts and gotos and
// collects its completed items.
func classify(a *itemAutomaton) *classified {
	c := &classified{prods: a.prods, sets: a.sets, states: make([]classifiedState, len(a.sets))}
	for i, set := range a.sets {
		st := classifiedState{
			shifts: make(map[grammar.Terminal]int),
			gotos:  make(map[grammar.NonTerminal]int),
		}
		for sym, target := range a.trans[i] {
			if sym.IsTerminal() {
				st.shifts[sym.Terminal()] = target
			} else {
				st.gotos[sym.NonTerminal()] = target
			}
		}
		for _, it := range set {
			if _, ok := a.prods.next(it); !ok {
				st.reduces = append(st.reduces, it.Prod)
			}
		}
		c.states[i] = st
	}
	return c
}

// Stage 3 ---------------------------------------------------------------

type lookaheadReduce struct {
	prod      int
	lookahead []grammar.Terminal
}

type lookaheadState struct {
	shifts  map[grammar.Terminal]int
	gotos   map[grammar.NonTerminal]int
	reduces []lookaheadReduce
}

type withLookahead struct {
	prods  productions
	sets   []ItemSet
	states []lookaheadState
}

// attachLookahead gives every completed item Follow(lhs) as its lookahead.
// This approximates LALR(1) lookahead without merging states.
func attachLookahead(g *grammar.Grammar, c *classified) *withLookahead {
	w := &withLookahead{prods: c.prods, sets: c.sets, states: make([]lookaheadState, len(c.states))}
	for i, st := range c.states {
		ls := lookaheadState{shifts: st.shifts, gotos: st.gotos}
		for _, prod := range st.reduces {
			ls.reduces = append(ls.reduces, lookaheadReduce{
				prod:      prod,
				lookahead: g.Follow(c.prods[prod].LHS),
			})
		}
		w.states[i] = ls
	}
	return w
}

// Stage 4 ---------------------------------------------------------------

type reduceState struct {
	shifts   map[grammar.Terminal]int
	gotos    map[grammar.NonTerminal]int
	reduceOn map[grammar.Terminal][]int // sorted production indices
}

type reduceTable struct {
	prods  productions
	sets   []ItemSet
	states []reduceState
}

// internReduces inverts lookaheads into terminal → production set.
func internReduces(w *withLookahead) *reduceTable {
	r := &reduceTable{prods: w.prods, sets: w.sets, states: make([]reduceState, len(w.states))}
	for i, st := range w.states {
		rs := reduceState{shifts: st.shifts, gotos: st.gotos, reduceOn: make(map[grammar.Terminal][]int)}
		for _, red := range st.reduces {
			for _, t := range red.lookahead {
				rs.reduceOn[t] = append(rs.reduceOn[t], red.prod)
			}
		}
		for t, prods := range rs.reduceOn {
			slices.Sort(prods)
			rs.reduceOn[t] = slices.Compact(prods)
		}
		r.states[i] = rs
	}
	return r
}

// Stage 5 ---------------------------------------------------------------

// mergeLookaheadEquivalent is where states with equal cores and compatible
// lookaheads would be merged. States are kept distinct, so it passes its
// input through.
func mergeLookaheadEquivalent(r *reduceTable) *reduceTable {
	return r
}

// Stage 6 ---------------------------------------------------------------

// mergedAction is every action on one terminal in one state.
type mergedAction struct {
	shift   int     // target state, or -1
	reduces [][]int // production indices grouped by (len, lhs), ordered
	accept  bool
}

func (m mergedAction) kind() ActionKind {
	switch {
	case m.shift >= 0 && len(m.reduces) == 0 && !m.accept:
		return ActionShift
	case m.shift < 0 && len(m.reduces) == 1 && !m.accept:
		return ActionReduce
	case m.shift < 0 && len(m.reduces) == 0 && m.accept:
		return ActionAccept
	default:
		return ActionSplit
	}
}

type mergedState struct {
	gotos   map[grammar.NonTerminal]int
	actions map[grammar.Terminal]mergedAction
}

type mergedTable struct {
	prods  productions
	sets   []ItemSet
	states []mergedState
}

// mergeActions combines shifts and reduces per terminal. The augmented
// production becomes accept; reductions are grouped by (length, lhs).
func mergeActions(r *reduceTable) *mergedTable {
	m := &mergedTable{prods: r.prods, sets: r.sets, states: make([]mergedState, len(r.states))}
	for i, st := range r.states {
		ms := mergedState{gotos: st.gotos, actions: make(map[grammar.Terminal]mergedAction)}
		for t, target := range st.shifts {
			ms.actions[t] = mergedAction{shift: target}
		}
		for t, prods := range st.reduceOn {
			act, ok := ms.actions[t]
			if !ok {
				act.shift = -1
			}
			var rest []int
			for _, p := range prods {
				if p == 0 {
					act.accept = true
				} else {
					rest = append(rest, p)
				}
			}
			act.reduces = groupReduces(r.prods, rest)
			ms.actions[t] = act
		}
		m.states[i] = ms
	}
	return m
}

// groupReduces groups sorted production indices by (len(RHS), LHS).
func groupReduces(ps productions, prods []int) [][]int {
	sorted := slices.Clone(prods)
	slices.SortStableFunc(sorted, func(a, b int) int {
		pa, pb := ps[a], ps[b]
		if len(pa.RHS) != len(pb.RHS) {
			return len(pa.RHS) - len(pb.RHS)
		}
		switch {
		case pa.LHS < pb.LHS:
			return -1
		case pa.LHS > pb.LHS:
			return 1
		}
		return a - b
	})
	var groups [][]int
	for i, p := range sorted {
		if i > 0 {
			prev := ps[sorted[i-1]]
			if len(prev.RHS) == len(ps[p].RHS) && prev.LHS == ps[p].LHS {
				groups[len(groups)-1] = append(groups[len(groups)-1], p)
				continue
			}
		}
		groups = append(groups, []int{p})
	}
	return groups
}
