package nfa

import (
	"fmt"
	"strings"

	"github.com/coregx/glrmask/internal/u8set"
)

// ExprKind identifies the variant of an Expr node.
type ExprKind uint8

const (
	// KindEpsilon matches the empty string.
	KindEpsilon ExprKind = iota

	// KindBytes matches a literal byte sequence.
	KindBytes

	// KindClass matches one byte from a U8Set.
	KindClass

	// KindQuantifier repeats its single sub-expression.
	KindQuantifier

	// KindChoice matches any one of its sub-expressions.
	KindChoice

	// KindSequence matches its sub-expressions one after another.
	KindSequence
)

// String returns a human-readable representation of the ExprKind
func (k ExprKind) String() string {
	switch k {
	case KindEpsilon:
		return "Epsilon"
	case KindBytes:
		return "Bytes"
	case KindClass:
		return "Class"
	case KindQuantifier:
		return "Quantifier"
	case KindChoice:
		return "Choice"
	case KindSequence:
		return "Sequence"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Quantifier is the repetition operator of a KindQuantifier node.
type Quantifier uint8

const (
	// ZeroOrMore matches the operand any number of times, written *.
	ZeroOrMore Quantifier = iota

	// OneOrMore matches the operand at least once, written +.
	OneOrMore

	// ZeroOrOne matches the operand at most once, written ?.
	ZeroOrOne
)

func (q Quantifier) String() string {
	switch q {
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	case ZeroOrOne:
		return "?"
	default:
		return fmt.Sprintf("Quantifier(%d)", q)
	}
}

// Expr is a byte-level regular expression tree.
//
// Expressions are immutable once constructed and may be shared between
// groups. A nil *Expr is valid input to the compiler and never matches.
type Expr struct {
	kind  ExprKind
	bytes []byte
	class u8set.U8Set
	quant Quantifier
	subs  []*Expr
}

// Epsilon returns an expression matching the empty string.
func Epsilon() *Expr {
	return &Expr{kind: KindEpsilon}
}

// Literal returns an expression matching s byte for byte.
func Literal(s string) *Expr {
	return Bytes([]byte(s))
}

// Bytes returns an expression matching b exactly. b is copied.
func Bytes(b []byte) *Expr {
	return &Expr{kind: KindBytes, bytes: append([]byte(nil), b...)}
}

// Byte returns an expression matching the single byte b.
func Byte(b byte) *Expr {
	return &Expr{kind: KindBytes, bytes: []byte{b}}
}

// Class returns an expression matching one byte from s.
func Class(s u8set.U8Set) *Expr {
	return &Expr{kind: KindClass, class: s}
}

// ByteRange returns an expression matching one byte in [lo, hi].
func ByteRange(lo, hi byte) *Expr {
	return Class(u8set.Range(lo, hi))
}

// AnyByte matches any single byte.
func AnyByte() *Expr {
	return Class(u8set.All())
}

// NotBytes matches any single byte not listed.
func NotBytes(bs ...byte) *Expr {
	return Class(u8set.Of(bs...).Complement())
}

// Star returns e*.
func Star(e *Expr) *Expr {
	return &Expr{kind: KindQuantifier, quant: ZeroOrMore, subs: []*Expr{e}}
}

// Plus returns e+.
func Plus(e *Expr) *Expr {
	return &Expr{kind: KindQuantifier, quant: OneOrMore, subs: []*Expr{e}}
}

// Opt returns e?.
func Opt(e *Expr) *Expr {
	return &Expr{kind: KindQuantifier, quant: ZeroOrOne, subs: []*Expr{e}}
}

// Choice returns an alternation of es. An empty choice never matches.
func Choice(es ...*Expr) *Expr {
	return &Expr{kind: KindChoice, subs: append([]*Expr(nil), es...)}
}

// Seq returns the concatenation of es. An empty sequence matches the empty
// string.
func Seq(es ...*Expr) *Expr {
	return &Expr{kind: KindSequence, subs: append([]*Expr(nil), es...)}
}

// Kind returns the node variant.
func (e *Expr) Kind() ExprKind { return e.kind }

// Literal returns the bytes of a KindBytes node.
func (e *Expr) Literal() []byte { return e.bytes }

// Set returns the byte set of a KindClass node.
func (e *Expr) Set() u8set.U8Set { return e.class }

// Quantifier returns the operator of a KindQuantifier node.
func (e *Expr) Quantifier() Quantifier { return e.quant }

// Subs returns the children of quantifier, choice and sequence nodes.
func (e *Expr) Subs() []*Expr { return e.subs }

// IsLiteral reports whether e matches exactly one non-empty byte string,
// returning it.
func (e *Expr) IsLiteral() ([]byte, bool) {
	if e == nil || e.kind != KindBytes || len(e.bytes) == 0 {
		return nil, false
	}
	return e.bytes, true
}

// String renders e in a canonical regex-like syntax. Two expressions with the
// same rendering match the same language, so the rendering is used as the
// identity of grammar terminals.
func (e *Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e *Expr) write(sb *strings.Builder) {
	if e == nil {
		sb.WriteString("[]")
		return
	}
	switch e.kind {
	case KindEpsilon:
		sb.WriteString("(?:)")
	case KindBytes:
		for _, b := range e.bytes {
			writeLiteralByte(sb, b)
		}
	case KindClass:
		sb.WriteString(e.class.String())
	case KindQuantifier:
		sub := e.subs[0]
		if sub.isAtom() {
			sub.write(sb)
		} else {
			sb.WriteString("(?:")
			sub.write(sb)
			sb.WriteByte(')')
		}
		sb.WriteString(e.quant.String())
	case KindChoice:
		sb.WriteString("(?:")
		for i, sub := range e.subs {
			if i > 0 {
				sb.WriteByte('|')
			}
			sub.write(sb)
		}
		sb.WriteByte(')')
	case KindSequence:
		if len(e.subs) == 0 {
			sb.WriteString("(?:)")
		}
		for _, sub := range e.subs {
			sub.write(sb)
		}
	}
}

// isAtom reports whether a quantifier can apply to e's rendering directly.
func (e *Expr) isAtom() bool {
	if e == nil {
		return true
	}
	switch e.kind {
	case KindClass, KindChoice, KindEpsilon:
		return true
	case KindBytes:
		return len(e.bytes) == 1
	case KindSequence:
		return len(e.subs) == 0
	}
	return false
}

func writeLiteralByte(sb *strings.Builder, b byte) {
	switch {
	case strings.IndexByte(`\.+*?()|[]{}^$`, b) >= 0:
		sb.WriteByte('\\')
		sb.WriteByte(b)
	case b >= 0x20 && b < 0x7f:
		sb.WriteByte(b)
	default:
		fmt.Fprintf(sb, `\x%02x`, b)
	}
}
