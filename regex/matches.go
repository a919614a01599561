package regex

import (
	"fmt"
	"strings"

	"github.com/coregx/glrmask/nfa"
	"github.com/google/btree"
)

// Match is one group finalization: Group finalized after Position bytes.
type Match struct {
	Group    nfa.GroupID
	Position int
}

func byGroup(a, b Match) bool { return a.Group < b.Group }

// Matches is an ordered map from group to recorded position.
// The zero value is empty and ready to use.
type Matches struct {
	tree *btree.BTreeG[Match]
}

func (m *Matches) init() {
	if m.tree == nil {
		m.tree = btree.NewG(4, byGroup)
	}
}

// record applies the greedy/non-greedy rule for one finalization.
func (m *Matches) record(g nfa.GroupID, pos int, greedy bool) {
	m.init()
	if !greedy {
		if _, ok := m.tree.Get(Match{Group: g}); ok {
			return
		}
	}
	m.tree.ReplaceOrInsert(Match{Group: g, Position: pos})
}

// Get returns the position recorded for g.
func (m Matches) Get(g nfa.GroupID) (int, bool) {
	if m.tree == nil {
		return 0, false
	}
	match, ok := m.tree.Get(Match{Group: g})
	return match.Position, ok
}

// Len returns the number of groups recorded.
func (m Matches) Len() int {
	if m.tree == nil {
		return 0
	}
	return m.tree.Len()
}

// Each calls fn for every recorded group in ascending order until fn
// returns false.
func (m Matches) Each(fn func(Match) bool) {
	if m.tree == nil {
		return
	}
	m.tree.Ascend(btree.ItemIteratorG[Match](fn))
}

// Map copies the matches into a plain map.
func (m Matches) Map() map[nfa.GroupID]int {
	out := make(map[nfa.GroupID]int, m.Len())
	m.Each(func(match Match) bool {
		out[match.Group] = match.Position
		return true
	})
	return out
}

func (m Matches) clone() Matches {
	if m.tree == nil {
		return Matches{}
	}
	return Matches{tree: m.tree.Clone()}
}

// String renders the matches as {group:position ...}.
func (m Matches) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	m.Each(func(match Match) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%d:%d", match.Group, match.Position)
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}
