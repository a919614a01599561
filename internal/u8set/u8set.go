// Package u8set provides U8Set, a fixed-size set of bytes.
//
// U8Set is the alphabet primitive of the automaton engine: expression byte
// classes, DFA "bytes that lead toward a group" maps and byte-class boundary
// tracking are all expressed with it. It is a plain value (four machine
// words) and is comparable with ==.
package u8set

import (
	"fmt"
	"math/bits"
	"strings"
)

// U8Set is a set of byte values.
type U8Set struct {
	bits [4]uint64
}

// Of returns the set containing the given bytes.
func Of(bs ...byte) U8Set {
	var s U8Set
	for _, b := range bs {
		s.Insert(b)
	}
	return s
}

// Range returns the set [lo, hi]. Empty if lo > hi.
func Range(lo, hi byte) U8Set {
	var s U8Set
	s.InsertRange(lo, hi)
	return s
}

// All returns the set of all 256 bytes.
func All() U8Set {
	return U8Set{bits: [4]uint64{^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)}}
}

// Insert adds b to the set.
func (s *U8Set) Insert(b byte) {
	s.bits[b>>6] |= 1 << (b & 63)
}

// InsertRange adds every byte in [lo, hi].
func (s *U8Set) InsertRange(lo, hi byte) {
	if lo > hi {
		return
	}
	for b := int(lo); b <= int(hi); b++ {
		s.Insert(byte(b))
	}
}

// Remove deletes b from the set.
func (s *U8Set) Remove(b byte) {
	s.bits[b>>6] &^= 1 << (b & 63)
}

// Contains reports whether b is in the set.
func (s U8Set) Contains(b byte) bool {
	return s.bits[b>>6]&(1<<(b&63)) != 0
}

// Union returns s ∪ o.
func (s U8Set) Union(o U8Set) U8Set {
	for i := range s.bits {
		s.bits[i] |= o.bits[i]
	}
	return s
}

// Intersect returns s ∩ o.
func (s U8Set) Intersect(o U8Set) U8Set {
	for i := range s.bits {
		s.bits[i] &= o.bits[i]
	}
	return s
}

// Difference returns s \ o.
func (s U8Set) Difference(o U8Set) U8Set {
	for i := range s.bits {
		s.bits[i] &^= o.bits[i]
	}
	return s
}

// Complement returns the bytes not in s.
func (s U8Set) Complement() U8Set {
	for i := range s.bits {
		s.bits[i] = ^s.bits[i]
	}
	return s
}

// IsEmpty reports whether the set has no bytes.
func (s U8Set) IsEmpty() bool {
	return s.bits == [4]uint64{}
}

// Len returns the number of bytes in the set.
func (s U8Set) Len() int {
	n := 0
	for _, w := range s.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Bytes returns the members in ascending order.
func (s U8Set) Bytes() []byte {
	out := make([]byte, 0, s.Len())
	for i, w := range s.bits {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, byte(i*64+tz))
			w &= w - 1
		}
	}
	return out
}

// ByteRange is an inclusive run of consecutive bytes.
type ByteRange struct {
	Lo, Hi byte
}

// Ranges returns the maximal runs of consecutive members, ascending.
func (s U8Set) Ranges() []ByteRange {
	var out []ByteRange
	in := false
	var lo byte
	for b := 0; b < 256; b++ {
		has := s.Contains(byte(b))
		switch {
		case has && !in:
			in, lo = true, byte(b)
		case !has && in:
			in = false
			out = append(out, ByteRange{Lo: lo, Hi: byte(b - 1)})
		}
	}
	if in {
		out = append(out, ByteRange{Lo: lo, Hi: 255})
	}
	return out
}

// String renders the set as a bracketed class, e.g. [a-z_].
func (s U8Set) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for _, r := range s.Ranges() {
		sb.WriteString(quote(r.Lo))
		if r.Hi != r.Lo {
			sb.WriteByte('-')
			sb.WriteString(quote(r.Hi))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func quote(b byte) string {
	if b >= 0x21 && b < 0x7f && !strings.ContainsRune(`[]-\`, rune(b)) {
		return string(rune(b))
	}
	return fmt.Sprintf(`\x%02x`, b)
}
