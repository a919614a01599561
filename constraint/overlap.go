package constraint

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/coregx/ahocorasick"
	"github.com/pingcap/errors"
)

// Overlap reports that literal Inner occurs inside literal Outer starting
// at Offset. Where literals overlap the tokenizer finalizes several grammar
// tokens on one input, and the parser sees every split.
type Overlap struct {
	Outer  int
	Inner  int
	Offset int
}

// AnalyzeLiteralOverlaps finds every occurrence of a literal inside another
// literal. A literal matched against itself at offset 0 is not reported;
// an identical duplicate is. Results are sorted by outer literal, offset,
// then inner literal.
func AnalyzeLiteralOverlaps(literals [][]byte) ([]Overlap, error) {
	var patterns [][]byte
	for _, lit := range literals {
		if len(lit) > 0 {
			patterns = append(patterns, lit)
		}
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	builder := ahocorasick.NewBuilder()
	for _, p := range patterns {
		builder.AddPattern(p)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, errors.Annotate(err, "build literal automaton")
	}

	var out []Overlap
	for i, outer := range literals {
		if len(outer) == 0 {
			continue
		}
		// The automaton reports some match at or after at, not necessarily
		// the leftmost-starting one, so every offset up to its start is
		// checked directly.
		for at := 0; at < len(outer); {
			m := auto.Find(outer, at)
			if m == nil {
				break
			}
			for off := at; off <= m.Start; off++ {
				out = appendOverlapsAt(out, literals, i, off)
			}
			at = m.Start + 1
		}
	}
	slices.SortFunc(out, func(a, b Overlap) int {
		return cmp.Or(cmp.Compare(a.Outer, b.Outer), cmp.Compare(a.Offset, b.Offset), cmp.Compare(a.Inner, b.Inner))
	})
	return out, nil
}

// appendOverlapsAt appends every literal that starts at offset off of
// literal outer.
func appendOverlapsAt(out []Overlap, literals [][]byte, outer, off int) []Overlap {
	rest := literals[outer][off:]
	for j, inner := range literals {
		if len(inner) == 0 || !bytes.HasPrefix(rest, inner) {
			continue
		}
		if j == outer && off == 0 {
			continue
		}
		out = append(out, Overlap{Outer: outer, Inner: j, Offset: off})
	}
	return out
}
