package precompute

import (
	"cmp"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/coregx/glrmask/dfa"
	"github.com/coregx/glrmask/nfa"
)

// End records that a vocabulary token was fully consumed at a trie node,
// leaving the tokenizer in State.
type End struct {
	Token uint32
	State dfa.StateID
}

func compareEnds(a, b End) int {
	if c := cmp.Compare(a.Token, b.Token); c != 0 {
		return c
	}
	return cmp.Compare(a.State, b.State)
}

// Leaf is the value of a trie node. The path to the node is the sequence of
// grammar tokens emitted so far; Ends lists the vocabulary tokens whose bytes
// run out there.
//
// The bitsets are filled when a Table is built and are nil on tries returned
// by ExecuteAllFromState.
type Leaf struct {
	// Ends is sorted by token, then state.
	Ends []End

	// Complete holds tokens that leave the tokenizer in its start state.
	// That is always the case on a grammar token boundary, and also where
	// a token pattern loops back through the start state, as (?:ab)*c
	// does after ab; both continue identically.
	Complete *bitset.BitSet

	// Incomplete holds tokens that leave the tokenizer in any other state.
	Incomplete *bitset.BitSet

	// ByGroup maps a grammar token to the tokens whose end state can still
	// produce it.
	ByGroup map[nfa.GroupID]*bitset.BitSet
}

// combineLeaves is the trie merge function. Ends stay sorted and unique, so
// merging is commutative and associative.
func combineLeaves(dst, src *Leaf) *Leaf {
	out := &Leaf{}
	switch {
	case dst == nil && src == nil:
	case dst == nil:
		out.Ends = slices.Clone(src.Ends)
	case src == nil:
		out.Ends = slices.Clone(dst.Ends)
	default:
		out.Ends = append(slices.Clone(dst.Ends), src.Ends...)
		slices.SortFunc(out.Ends, compareEnds)
		out.Ends = slices.Compact(out.Ends)
	}
	return out
}

// index fills the leaf's bitsets for a vocabulary of size n.
func (l *Leaf) index(d *dfa.DFA, n uint) {
	l.Complete = bitset.New(n)
	l.Incomplete = bitset.New(n)
	l.ByGroup = make(map[nfa.GroupID]*bitset.BitSet)
	for _, e := range l.Ends {
		if e.State == dfa.StartState {
			l.Complete.Set(uint(e.Token))
		} else {
			l.Incomplete.Set(uint(e.Token))
		}
		possible := d.State(e.State).PossibleGroupIDs()
		for g, ok := possible.NextSet(0); ok; g, ok = possible.NextSet(g + 1) {
			set := l.ByGroup[nfa.GroupID(g)]
			if set == nil {
				set = bitset.New(n)
				l.ByGroup[nfa.GroupID(g)] = set
			}
			set.Set(uint(e.Token))
		}
	}
}

// Groups returns the keys of ByGroup in ascending order.
func (l *Leaf) Groups() []nfa.GroupID {
	out := make([]nfa.GroupID, 0, len(l.ByGroup))
	for g := range l.ByGroup {
		out = append(out, g)
	}
	slices.Sort(out)
	return out
}
