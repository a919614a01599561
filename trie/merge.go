package trie

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Merge folds src into dst, starting at both roots. Values of nodes reached
// by the same path are combined with combine(dstValue, srcValue); edges only
// in src are imported with their sharing intact.
//
// A dst node referenced more than once is copied before it is changed, so
// other paths through it keep their old content. Each (dst, src) node pair
// is merged at most once, so a DAG stays a DAG. When combine is commutative
// and associative, the Paths of the result do not depend on the order in
// which several sources are merged.
//
// combine must return a new value rather than mutate its arguments.
func Merge[E constraints.Integer, V any](dst, src *Trie[E, V], combine func(dst, src V) V) {
	m := &merger[E, V]{
		dst:      dst,
		src:      src,
		combine:  combine,
		merged:   make(map[[2]NodeID]NodeID),
		imported: make(map[NodeID]NodeID),
	}
	root := m.merge(dst.root, src.root)
	if root != dst.root {
		dst.nodes[root].refs++
		dst.nodes[dst.root].refs--
		dst.root = root
	}
}

type merger[E constraints.Integer, V any] struct {
	dst, src *Trie[E, V]
	combine  func(dst, src V) V
	merged   map[[2]NodeID]NodeID
	imported map[NodeID]NodeID
}

// merge returns the node that replaces d after merging s into it.
func (m *merger[E, V]) merge(d, s NodeID) NodeID {
	key := [2]NodeID{d, s}
	if id, ok := m.merged[key]; ok {
		return id
	}

	target := d
	if m.dst.nodes[d].refs > 1 {
		target = m.copyNode(d)
	}
	m.dst.nodes[target].value = m.combine(m.dst.nodes[target].value, m.src.nodes[s].value)

	for _, e := range m.src.nodes[s].edges {
		if child, ok := m.dst.Child(target, e.Label); ok {
			if next := m.merge(child, e.Node); next != child {
				m.dst.Link(target, e.Label, next)
			}
			continue
		}
		m.dst.Link(target, e.Label, m.importNode(e.Node))
	}

	m.merged[key] = target
	return target
}

// copyNode duplicates d into a fresh slot. The copy starts unreferenced; the
// caller's Link accounts for it.
func (m *merger[E, V]) copyNode(d NodeID) NodeID {
	id := m.dst.alloc(m.dst.nodes[d].value)
	edges := slices.Clone(m.dst.nodes[d].edges)
	for _, e := range edges {
		m.dst.nodes[e.Node].refs++
	}
	m.dst.nodes[id].edges = edges
	return id
}

// importNode copies the src subtree at s into dst, once per src node.
func (m *merger[E, V]) importNode(s NodeID) NodeID {
	if id, ok := m.imported[s]; ok {
		return id
	}
	id := m.dst.alloc(m.src.nodes[s].value)
	for _, e := range m.src.nodes[s].edges {
		m.dst.Link(id, e.Label, m.importNode(e.Node))
	}
	m.imported[s] = id
	return id
}
