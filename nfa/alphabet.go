package nfa

import "github.com/coregx/glrmask/internal/u8set"

// ByteClasses maps each byte value to its equivalence class.
//
// Two bytes belong to the same class if no NFA transition distinguishes
// them, so every DFA state has identical transitions for them. Subset
// construction only needs to compute one move per class, and DFA transition
// tables are sized by AlphabetLen instead of 256.
//
// Example for the groups "if" and [a-z]+:
//   - Class 0: 0x00-0x60
//   - Class 1: 'a'-'e'
//   - Class 2: 'f'
//   - Class 3: 'g'-'h'
//   - Class 4: 'i'
//   - Class 5: 'j'-'z'
//   - Class 6: 0x7b-0xff
type ByteClasses struct {
	classes [256]byte
}

// SingletonByteClasses puts every byte in its own class.
func SingletonByteClasses() ByteClasses {
	var bc ByteClasses
	for i := 0; i < 256; i++ {
		bc.classes[i] = byte(i)
	}
	return bc
}

// Get returns the class of b.
func (bc *ByteClasses) Get(b byte) byte {
	return bc.classes[b]
}

// AlphabetLen returns the number of classes.
func (bc *ByteClasses) AlphabetLen() int {
	// Classes are assigned in ascending byte order, so the last byte holds
	// the maximum.
	return int(bc.classes[255]) + 1
}

// Representatives returns the smallest byte of each class, ordered by class.
func (bc *ByteClasses) Representatives() []byte {
	reps := make([]byte, 0, bc.AlphabetLen())
	for b := 0; b < 256; b++ {
		if b == 0 || bc.classes[b] != bc.classes[b-1] {
			reps = append(reps, byte(b))
		}
	}
	return reps
}

// Elements returns every byte of the given class.
func (bc *ByteClasses) Elements(class byte) u8set.U8Set {
	var s u8set.U8Set
	for b := 0; b < 256; b++ {
		if bc.classes[b] == class {
			s.Insert(byte(b))
		}
	}
	return s
}

// ByteClassSet tracks class boundaries while the NFA is built.
//
// For every transition range [lo, hi], lo-1 and hi are boundaries: the class
// number increments right after each boundary byte.
type ByteClassSet struct {
	boundaries u8set.U8Set
}

// SetRange marks [lo, hi] as having distinct transitions.
func (bcs *ByteClassSet) SetRange(lo, hi byte) {
	if lo > 0 {
		bcs.boundaries.Insert(lo - 1)
	}
	bcs.boundaries.Insert(hi)
}

// SetSet marks every maximal run of s.
func (bcs *ByteClassSet) SetSet(s u8set.U8Set) {
	for _, r := range s.Ranges() {
		bcs.SetRange(r.Lo, r.Hi)
	}
}

// ByteClasses converts the boundaries into a lookup table.
func (bcs *ByteClassSet) ByteClasses() ByteClasses {
	var bc ByteClasses
	class := byte(0)
	for b := 0; b < 256; b++ {
		bc.classes[b] = class
		if bcs.boundaries.Contains(byte(b)) {
			class++
		}
	}
	return bc
}
