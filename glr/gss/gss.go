// Package gss implements a graph-structured stack as an arena of nodes.
//
// A node holds a value and a list of parent nodes, so one node is the top of
// many linear stacks at once. Nodes are immutable once their level is
// finished; during the level that created them, parents may still be added.
// Nodes are addressed by NodeID and never freed individually; Truncate
// discards every node after a mark.
package gss

import (
	"encoding/binary"
	"slices"

	"github.com/coregx/glrmask/internal/conv"
	"github.com/dolthub/swiss"
)

// NodeID addresses a node in an Arena.
type NodeID uint32

type node[T comparable] struct {
	value   T
	parents []NodeID // sorted, duplicate-free
}

// Arena owns the nodes of one or more graph-structured stacks.
type Arena[T comparable] struct {
	nodes []node[T]

	// levelStart is the first node of the current level.
	levelStart NodeID

	// interned maps (value, parents) of nodes built by BulkMerge in the
	// current level to the node, so repeated merges reuse one node.
	interned map[string]NodeID
	keyOf    func(T) uint64
}

// New returns an empty arena. keyOf must map equal values to equal keys and
// is used to intern merged nodes; it may be nil, which disables interning.
func New[T comparable](keyOf func(T) uint64) *Arena[T] {
	return &Arena[T]{keyOf: keyOf, interned: make(map[string]NodeID)}
}

// Len returns the number of nodes allocated so far.
func (a *Arena[T]) Len() int {
	return len(a.nodes)
}

// BeginLevel starts a new level. Only nodes created after this call accept
// AddParent.
func (a *Arena[T]) BeginLevel() {
	a.levelStart = conv.NextID[NodeID](len(a.nodes))
	clear(a.interned)
}

// Truncate discards every node with ID >= n.
func (a *Arena[T]) Truncate(n int) {
	a.nodes = a.nodes[:n]
	if int(a.levelStart) > n {
		a.levelStart = conv.NextID[NodeID](n)
	}
	clear(a.interned)
}

func (a *Arena[T]) alloc(v T, parents []NodeID) NodeID {
	id := conv.NextID[NodeID](len(a.nodes))
	a.nodes = append(a.nodes, node[T]{value: v, parents: parents})
	return id
}

// Root creates a node without parents.
func (a *Arena[T]) Root(v T) NodeID {
	return a.alloc(v, nil)
}

// Push creates a node holding v on top of parent.
func (a *Arena[T]) Push(parent NodeID, v T) NodeID {
	return a.alloc(v, []NodeID{parent})
}

// Value returns n's value.
func (a *Arena[T]) Value(n NodeID) T {
	return a.nodes[n].value
}

// Parents returns n's parents in ascending order. Callers must not modify
// the slice.
func (a *Arena[T]) Parents(n NodeID) []NodeID {
	return a.nodes[n].parents
}

// AddParent adds p as a parent of n and reports whether the edge is new.
// Panics if n was not created in the current level.
func (a *Arena[T]) AddParent(n, p NodeID) bool {
	if n < a.levelStart {
		panic("gss: AddParent on a node from a finished level")
	}
	parents := a.nodes[n].parents
	i, found := slices.BinarySearch(parents, p)
	if found {
		return false
	}
	a.nodes[n].parents = slices.Insert(parents, i, p)
	return true
}

// PopN returns the nodes reached by following k parent edges from n, sorted
// and duplicate-free. PopN(n, 0) is [n].
func (a *Arena[T]) PopN(n NodeID, k int) []NodeID {
	frontier := []NodeID{n}
	for ; k > 0 && len(frontier) > 0; k-- {
		var next []NodeID
		for _, f := range frontier {
			next = append(next, a.nodes[f].parents...)
		}
		slices.Sort(next)
		frontier = slices.Compact(next)
	}
	return frontier
}

// Merge returns a node holding a's value whose parents are the union of a's
// and b's. a and b must hold equal values.
func (a *Arena[T]) Merge(x, y NodeID) NodeID {
	if x == y {
		return x
	}
	return a.alloc(a.nodes[x].value, unionSorted(a.nodes[x].parents, a.nodes[y].parents))
}

// BulkMerge replaces every group of nodes holding equal values with one node
// whose parents are the group's union. Groups appear in order of their first
// node; a group of one keeps its node.
func (a *Arena[T]) BulkMerge(nodes []NodeID) []NodeID {
	if len(nodes) < 2 {
		return nodes
	}
	groups := swiss.NewMap[T, int](uint32(len(nodes)))
	var members [][]NodeID
	for _, n := range nodes {
		v := a.nodes[n].value
		if g, ok := groups.Get(v); ok {
			members[g] = append(members[g], n)
			continue
		}
		groups.Put(v, len(members))
		members = append(members, []NodeID{n})
	}

	out := make([]NodeID, 0, len(members))
	for _, group := range members {
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		var parents []NodeID
		for _, n := range group {
			parents = unionSorted(parents, a.nodes[n].parents)
		}
		out = append(out, a.intern(a.nodes[group[0]].value, parents))
	}
	return out
}

// intern returns the node of the current level holding v with exactly
// these parents, creating it if needed.
func (a *Arena[T]) intern(v T, parents []NodeID) NodeID {
	if a.keyOf == nil {
		return a.alloc(v, parents)
	}
	buf := binary.LittleEndian.AppendUint64(make([]byte, 0, 8+4*len(parents)), a.keyOf(v))
	for _, p := range parents {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(p))
	}
	key := string(buf)
	if id, ok := a.interned[key]; ok && a.nodes[id].value == v {
		return id
	}
	id := a.alloc(v, parents)
	a.interned[key] = id
	return id
}

// Paths returns up to limit value sequences from n down to a root, top
// first, in ascending parent order. A limit <= 0 means no limit. A node
// appears at most once per path, so cycles left by epsilon reductions end.
func (a *Arena[T]) Paths(n NodeID, limit int) [][]T {
	var out [][]T
	var path []T
	onPath := make(map[NodeID]bool)
	var walk func(n NodeID) bool
	walk = func(n NodeID) bool {
		path = append(path, a.nodes[n].value)
		onPath[n] = true
		defer func() {
			path = path[:len(path)-1]
			delete(onPath, n)
		}()
		parents := a.nodes[n].parents
		if len(parents) == 0 {
			out = append(out, slices.Clone(path))
			return limit <= 0 || len(out) < limit
		}
		for _, p := range parents {
			if onPath[p] {
				continue
			}
			if !walk(p) {
				return false
			}
		}
		return true
	}
	walk(n)
	return out
}

func unionSorted(x, y []NodeID) []NodeID {
	out := make([]NodeID, 0, len(x)+len(y))
	i, j := 0, 0
	for i < len(x) && j < len(y) {
		switch {
		case x[i] < y[j]:
			out = append(out, x[i])
			i++
		case x[i] > y[j]:
			out = append(out, y[j])
			j++
		default:
			out = append(out, x[i])
			i++
			j++
		}
	}
	out = append(out, x[i:]...)
	return append(out, y[j:]...)
}
