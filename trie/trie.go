// Package trie provides an arena-backed, mergeable prefix DAG.
//
// Nodes live in one slice and are addressed by NodeID. A node may have
// several parents, so structurally identical suffixes are stored once. Every
// node carries a reference count (parent edges, plus one for the root), and
// mutation through Merge copies a shared node into a fresh slot first.
package trie

import (
	"slices"

	"github.com/coregx/glrmask/internal/conv"
	"golang.org/x/exp/constraints"
)

// NodeID addresses a node in a Trie's arena.
type NodeID uint32

// Edge is a labeled edge to a child node.
type Edge[E constraints.Integer] struct {
	Label E
	Node  NodeID
}

type node[E constraints.Integer, V any] struct {
	edges []Edge[E] // sorted by Label
	value V
	refs  int
}

// Trie is a rooted DAG with integer edge labels and a value on every node.
type Trie[E constraints.Integer, V any] struct {
	nodes []node[E, V]
	root  NodeID
}

// New returns a trie holding only a root with value v.
func New[E constraints.Integer, V any](v V) *Trie[E, V] {
	t := &Trie[E, V]{}
	t.root = t.alloc(v)
	t.nodes[t.root].refs = 1
	return t
}

func (t *Trie[E, V]) alloc(v V) NodeID {
	id := conv.NextID[NodeID](len(t.nodes))
	t.nodes = append(t.nodes, node[E, V]{value: v})
	return id
}

// Root returns the root node.
func (t *Trie[E, V]) Root() NodeID {
	return t.root
}

// Len returns the number of arena slots, including unreachable ones left
// behind by copy-on-write.
func (t *Trie[E, V]) Len() int {
	return len(t.nodes)
}

// Value returns n's value.
func (t *Trie[E, V]) Value(n NodeID) V {
	return t.nodes[n].value
}

// SetValue replaces n's value. If n is shared the change is visible through
// every parent.
func (t *Trie[E, V]) SetValue(n NodeID, v V) {
	t.nodes[n].value = v
}

// Refs returns n's reference count.
func (t *Trie[E, V]) Refs(n NodeID) int {
	return t.nodes[n].refs
}

// Children returns n's edges in ascending label order. Callers must not
// modify the slice.
func (t *Trie[E, V]) Children(n NodeID) []Edge[E] {
	return t.nodes[n].edges
}

// Child returns the child of n labeled e.
func (t *Trie[E, V]) Child(n NodeID, e E) (NodeID, bool) {
	edges := t.nodes[n].edges
	i, ok := slices.BinarySearchFunc(edges, e, func(x Edge[E], e E) int {
		switch {
		case x.Label < e:
			return -1
		case x.Label > e:
			return 1
		}
		return 0
	})
	if !ok {
		return 0, false
	}
	return edges[i].Node, true
}

// Link points parent's edge e at child, replacing any existing edge with
// that label.
func (t *Trie[E, V]) Link(parent NodeID, e E, child NodeID) {
	t.nodes[child].refs++
	edges := t.nodes[parent].edges
	i, found := slices.BinarySearchFunc(edges, e, func(x Edge[E], e E) int {
		switch {
		case x.Label < e:
			return -1
		case x.Label > e:
			return 1
		}
		return 0
	})
	if found {
		t.nodes[edges[i].Node].refs--
		edges[i].Node = child
		return
	}
	t.nodes[parent].edges = slices.Insert(edges, i, Edge[E]{Label: e, Node: child})
}

// AddChild creates a node with value v and links it under parent as e.
func (t *Trie[E, V]) AddChild(parent NodeID, e E, v V) NodeID {
	id := t.alloc(v)
	t.Link(parent, e, id)
	return id
}

// Each visits every node reachable from the root exactly once, children
// before parents.
func (t *Trie[E, V]) Each(fn func(n NodeID)) {
	seen := make([]bool, len(t.nodes))
	var visit func(n NodeID)
	visit = func(n NodeID) {
		seen[n] = true
		for _, e := range t.nodes[n].edges {
			if !seen[e.Node] {
				visit(e.Node)
			}
		}
		fn(n)
	}
	visit(t.root)
}

// Reachable returns the number of nodes reachable from the root.
func (t *Trie[E, V]) Reachable() int {
	n := 0
	t.Each(func(NodeID) { n++ })
	return n
}

// Walk calls fn for every root-to-node path in depth-first, ascending label
// order. Shared nodes are visited once per path. Returning false from fn
// skips the node's descendants.
func (t *Trie[E, V]) Walk(fn func(path []E, n NodeID) bool) {
	var path []E
	var walk func(n NodeID)
	walk = func(n NodeID) {
		if !fn(path, n) {
			return
		}
		for _, e := range t.nodes[n].edges {
			path = append(path, e.Label)
			walk(e.Node)
			path = path[:len(path)-1]
		}
	}
	walk(t.root)
}

// PathValue is one entry of Paths.
type PathValue[E constraints.Integer, V any] struct {
	Path  []E
	Value V
}

// Paths returns the value at the end of every path in Walk order. Two tries
// with equal Paths have equal content regardless of how nodes are shared.
func (t *Trie[E, V]) Paths() []PathValue[E, V] {
	var out []PathValue[E, V]
	t.Walk(func(path []E, n NodeID) bool {
		out = append(out, PathValue[E, V]{Path: slices.Clone(path), Value: t.nodes[n].value})
		return true
	})
	return out
}
