package table

import (
	"cmp"
	"encoding/binary"
	"slices"
	"strings"

	"github.com/coregx/glrmask/glr/grammar"
)

// Item is an LR(0) item: a production with a dot position. Prod indexes the
// builder's production list, where 0 is the augmented start production.
type Item struct {
	Prod int
	Dot  int
}

func compareItems(a, b Item) int {
	if c := cmp.Compare(a.Prod, b.Prod); c != 0 {
		return c
	}
	return cmp.Compare(a.Dot, b.Dot)
}

// ItemSet is a canonical (sorted, duplicate-free) set of items.
type ItemSet []Item

// canonical sorts and deduplicates items in place.
func canonical(items []Item) ItemSet {
	slices.SortFunc(items, compareItems)
	return slices.Compact(items)
}

// key encodes the set as an exact map key. Keys compare in the same order
// as the item sets themselves.
func (s ItemSet) key() string {
	buf := make([]byte, 0, 8*len(s))
	for _, it := range s {
		buf = binary.BigEndian.AppendUint32(buf, uint32(it.Prod))
		buf = binary.BigEndian.AppendUint32(buf, uint32(it.Dot))
	}
	return string(buf)
}

// productions is the augmented production list the builder works on.
type productions []grammar.Production

func newProductions(g *grammar.Grammar) productions {
	ps := make(productions, 0, len(g.Productions())+1)
	ps = append(ps, g.Augmented())
	return append(ps, g.Productions()...)
}

// next returns the symbol after the dot, if any.
func (ps productions) next(it Item) (grammar.Symbol, bool) {
	rhs := ps[it.Prod].RHS
	if it.Dot >= len(rhs) {
		return grammar.Symbol{}, false
	}
	return rhs[it.Dot], true
}

func (ps productions) format(it Item) string {
	p := ps[it.Prod]
	var sb strings.Builder
	sb.WriteString(string(p.LHS))
	sb.WriteString(" →")
	for i, s := range p.RHS {
		if i == it.Dot {
			sb.WriteString(" •")
		}
		sb.WriteByte(' ')
		sb.WriteString(s.String())
	}
	if it.Dot == len(p.RHS) {
		sb.WriteString(" •")
	}
	return sb.String()
}

// closure expands every item with the dot before a nonterminal into that
// nonterminal's productions at dot 0.
func closure(ps productions, index map[grammar.NonTerminal][]int, kernel []Item) ItemSet {
	items := slices.Clone(kernel)
	seen := make(map[Item]bool, len(items))
	for _, it := range items {
		seen[it] = true
	}
	for i := 0; i < len(items); i++ {
		sym, ok := ps.next(items[i])
		if !ok || sym.IsTerminal() {
			continue
		}
		for _, prod := range index[sym.NonTerminal()] {
			it := Item{Prod: prod}
			if !seen[it] {
				seen[it] = true
				items = append(items, it)
			}
		}
	}
	return canonical(items)
}

// indexByLHS maps each nonterminal to the indices of its productions.
func (ps productions) indexByLHS() map[grammar.NonTerminal][]int {
	index := make(map[grammar.NonTerminal][]int)
	for i, p := range ps {
		index[p.LHS] = append(index[p.LHS], i)
	}
	return index
}
