// Package conv provides checked integer narrowing for dense automaton and
// parser identifiers.
//
// Dense ids (NFA/DFA states, GSS nodes, trie nodes, table ids) are uint32.
// Exceeding that range means a grammar or vocabulary is far beyond what the
// engine is designed for, so these helpers panic instead of wrapping.
package conv

import "math"

// IntToUint32 converts n to uint32.
// Panics if n < 0 or n > math.MaxUint32.
//
//go:inline
func IntToUint32(n int) uint32 {
	// Compare as uint so 32-bit platforms do not overflow on MaxUint32.
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}

// NextID returns the id the next element appended to a slice of length n
// receives.
//
//go:inline
func NextID[ID ~uint32](n int) ID {
	return ID(IntToUint32(n))
}
