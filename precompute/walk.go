package precompute

import (
	"encoding/binary"
	"maps"
	"slices"

	"github.com/coregx/glrmask/dfa"
	"github.com/coregx/glrmask/nfa"
	"github.com/coregx/glrmask/regex"
	"github.com/coregx/glrmask/trie"
)

// item is a tokenizer position inside one vocabulary token.
type item struct {
	pos   int
	state dfa.StateID
}

func compareItems(a, b item) int {
	if a.pos != b.pos {
		return a.pos - b.pos
	}
	return int(a.state) - int(b.state)
}

func itemsKey(items []item) string {
	buf := make([]byte, 0, 8*len(items))
	for _, it := range items {
		buf = binary.BigEndian.AppendUint32(buf, uint32(it.pos))
		buf = binary.BigEndian.AppendUint32(buf, uint32(it.state))
	}
	return string(buf)
}

type walker struct {
	rx    *regex.Regex
	token []byte
	id    uint32
	trie  *trie.Trie[nfa.GroupID, *Leaf]
	nodes map[string]trie.NodeID
}

// ExecuteAllFromState tokenizes token starting at tokenizer state from and
// returns every way it splits into grammar tokens.
//
// Each edge of the result is labeled with a grammar token. A node stands for
// the set of positions reached by its path, and nodes with equal position
// sets are shared, so the result is a DAG. Every match restarts the
// tokenizer at the start state. When the tokenizer consumes the rest of the
// token without getting stuck, the node records End{id, state}.
//
// The tokenizer must not match the empty string.
func ExecuteAllFromState(rx *regex.Regex, token []byte, id uint32, from dfa.StateID) *trie.Trie[nfa.GroupID, *Leaf] {
	w := &walker{
		rx:    rx,
		token: token,
		id:    id,
		trie:  trie.New[nfa.GroupID](&Leaf{}),
		nodes: make(map[string]trie.NodeID),
	}
	root := []item{{pos: 0, state: from}}
	w.nodes[itemsKey(root)] = w.trie.Root()
	w.expand(w.trie.Root(), root)
	return w.trie
}

func (w *walker) expand(n trie.NodeID, items []item) {
	next := make(map[nfa.GroupID][]item)
	var ends []End
	for _, it := range items {
		res := w.rx.ExecuteAll(it.state, w.token[it.pos:])
		for _, m := range res.Matches {
			child := item{pos: it.pos + m.Position, state: dfa.StartState}
			if child == it {
				continue
			}
			next[m.Group] = append(next[m.Group], child)
		}
		if res.Complete {
			ends = append(ends, End{Token: w.id, State: res.End})
		}
	}
	slices.SortFunc(ends, compareEnds)
	w.trie.SetValue(n, &Leaf{Ends: slices.Compact(ends)})

	for _, g := range slices.Sorted(maps.Keys(next)) {
		set := next[g]
		slices.SortFunc(set, compareItems)
		set = slices.Compact(set)
		key := itemsKey(set)
		if child, ok := w.nodes[key]; ok {
			w.trie.Link(n, g, child)
			continue
		}
		child := w.trie.AddChild(n, g, nil)
		w.nodes[key] = child
		w.expand(child, set)
	}
}
