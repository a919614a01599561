package table

import (
	"fmt"
	"slices"
	"strings"

	"github.com/coregx/glrmask/glr/grammar"
	"github.com/coregx/glrmask/internal/conv"
)

// intern assigns dense ids in canonical order and flattens the merged table.
//
//   - StateID: item sets sorted by their canonical key
//   - TerminalID: terminal names sorted, EOF last
//   - NonTerminalID: nonterminal names sorted
//   - ProductionID: productions sorted by LHS, then RHS
//
// Reductions and splits are interned in first-use order while scanning
// states and terminals by id, so equal entries share one id.
func intern(g *grammar.Grammar, m *mergedTable) *Table {
	t := &Table{
		grammar:        g,
		prods:          m.prods,
		terminalIDs:    make(map[grammar.Terminal]TerminalID),
		nonTerminalIDs: make(map[grammar.NonTerminal]NonTerminalID),
		stateOf:        make(map[string]StateID),
	}

	t.terminals = append(slices.Clone(g.Terminals()), grammar.EOF)
	for i, term := range t.terminals {
		t.terminalIDs[term] = conv.NextID[TerminalID](i)
	}
	t.nonTerminals = slices.Clone(g.NonTerminals())
	for i, nt := range t.nonTerminals {
		t.nonTerminalIDs[nt] = conv.NextID[NonTerminalID](i)
	}
	// m.prods[0] is the augmented production; the rest are sorted.
	t.productions = m.prods[1:]

	order := make([]int, len(m.sets))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return strings.Compare(m.sets[a].key(), m.sets[b].key())
	})
	newID := make([]StateID, len(m.sets))
	for id, old := range order {
		newID[old] = conv.NextID[StateID](id)
	}
	t.start = newID[0]

	t.itemSets = make([]ItemSet, len(order))
	t.actions = make([][]Action, len(order))
	t.gotos = make([][]StateID, len(order))

	reduceIndex := make(map[string]ReduceID)
	splitIndex := make(map[string]SplitID)

	for id, old := range order {
		sid := StateID(id)
		set := m.sets[old]
		st := m.states[old]
		t.itemSets[id] = set
		t.stateOf[set.key()] = sid

		gotos := make([]StateID, len(t.nonTerminals))
		for i := range gotos {
			gotos[i] = InvalidState
		}
		for nt, target := range st.gotos {
			gotos[t.nonTerminalIDs[nt]] = newID[target]
		}
		t.gotos[id] = gotos

		row := make([]Action, len(t.terminals))
		for tid, term := range t.terminals {
			act, ok := st.actions[term]
			if !ok {
				continue
			}
			reduces := make([]ReduceID, len(act.reduces))
			for i, group := range act.reduces {
				reduces[i] = t.internReduce(reduceIndex, group)
			}
			switch act.kind() {
			case ActionShift:
				row[tid] = Shift(newID[act.shift])
			case ActionReduce:
				row[tid] = ReduceAction(reduces[0])
			case ActionAccept:
				row[tid] = Accept
			case ActionSplit:
				sp := Split{Reduces: reduces, Accept: act.accept}
				if act.shift >= 0 {
					sp.Shift, sp.HasShift = newID[act.shift], true
				}
				split := t.internSplit(splitIndex, sp)
				row[tid] = SplitAction(split)
				t.conflicts = append(t.conflicts, Conflict{State: sid, Terminal: TerminalID(tid), Split: split})
			}
		}
		t.actions[id] = row
	}
	return t
}

func (t *Table) internReduce(index map[string]ReduceID, group []int) ReduceID {
	first := t.prods[group[0]]
	r := Reduce{
		NonTerminal: t.nonTerminalIDs[first.LHS],
		Len:         len(first.RHS),
	}
	for _, p := range group {
		r.Productions = append(r.Productions, ProductionID(p-1))
	}
	key := fmt.Sprint(r.NonTerminal, r.Len, r.Productions)
	if id, ok := index[key]; ok {
		return id
	}
	id := conv.NextID[ReduceID](len(t.reduces))
	t.reduces = append(t.reduces, r)
	index[key] = id
	return id
}

func (t *Table) internSplit(index map[string]SplitID, sp Split) SplitID {
	key := fmt.Sprint(sp.HasShift, sp.Shift, sp.Reduces, sp.Accept)
	if id, ok := index[key]; ok {
		return id
	}
	id := conv.NextID[SplitID](len(t.splits))
	t.splits = append(t.splits, sp)
	index[key] = id
	return id
}
