package nfa

import (
	"fmt"
)

// Compiler compiles finalizer groups into a multi-group Thompson NFA.
//
// Every fragment is compiled between a start state and an end state. The end
// state is always patchable (ByteRange, Sparse or Epsilon) and is connected
// to the continuation once the enclosing construct is known.
type Compiler struct {
	builder *Builder
}

// NewCompiler creates a new NFA compiler
func NewCompiler() *Compiler {
	return &Compiler{builder: NewBuilder()}
}

// Compile compiles groups into an NFA using a fresh Compiler.
func Compile(groups Groups) (*NFA, error) {
	return NewCompiler().Compile(groups)
}

// MustCompile is like Compile but panics on error.
func MustCompile(groups Groups) *NFA {
	n, err := Compile(groups)
	if err != nil {
		panic(fmt.Sprintf("nfa: MustCompile: %v", err))
	}
	return n
}

// Compile compiles every group and joins them under one start state.
// Group i finalizes in its own Match state carrying GroupID(i).
func (c *Compiler) Compile(groups Groups) (*NFA, error) {
	c.builder = NewBuilder()
	c.builder.Grow(16 * (len(groups) + 1))

	starts := make([]StateID, 0, len(groups))
	for i, g := range groups {
		start, end, err := c.compileExpr(g.Expr)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		match := c.builder.AddMatch(GroupID(i))
		if err := c.builder.Patch(end, match); err != nil {
			return nil, err
		}
		starts = append(starts, start)
	}

	if len(starts) == 0 {
		c.builder.SetStart(c.builder.AddFail())
	} else {
		c.builder.SetStart(c.buildSplitChain(starts))
	}
	return c.builder.Build(groups)
}

// compileExpr recursively compiles an Expr node.
// Returns (start, end) state IDs for the compiled fragment.
func (c *Compiler) compileExpr(e *Expr) (start, end StateID, err error) {
	if e == nil {
		return c.compileNever()
	}
	switch e.kind {
	case KindEpsilon:
		return c.compileEmptyMatch()
	case KindBytes:
		return c.compileLiteral(e.bytes)
	case KindClass:
		return c.compileClass(e)
	case KindQuantifier:
		switch e.quant {
		case ZeroOrMore:
			return c.compileStar(e.subs[0])
		case OneOrMore:
			return c.compilePlus(e.subs[0])
		case ZeroOrOne:
			return c.compileQuest(e.subs[0])
		}
		return InvalidState, InvalidState, fmt.Errorf("unknown quantifier %d", e.quant)
	case KindChoice:
		return c.compileAlternate(e.subs)
	case KindSequence:
		return c.compileConcat(e.subs)
	}
	return InvalidState, InvalidState, fmt.Errorf("unknown expression kind %s", e.kind)
}

// compileLiteral compiles a byte sequence as a chain of single-byte states
func (c *Compiler) compileLiteral(bs []byte) (start, end StateID, err error) {
	if len(bs) == 0 {
		return c.compileEmptyMatch()
	}
	// Built back to front so each state can point at its successor directly.
	next := InvalidState
	for i := len(bs) - 1; i >= 0; i-- {
		id := c.builder.AddByteRange(bs[i], bs[i], next)
		if next == InvalidState {
			end = id
		}
		next = id
	}
	return next, end, nil
}

// compileClass compiles a byte class into a single Sparse state
func (c *Compiler) compileClass(e *Expr) (start, end StateID, err error) {
	ranges := e.class.Ranges()
	if len(ranges) == 1 {
		id := c.builder.AddByteRange(ranges[0].Lo, ranges[0].Hi, InvalidState)
		return id, id, nil
	}
	trans := make([]Transition, len(ranges))
	for i, r := range ranges {
		trans[i] = Transition{Lo: r.Lo, Hi: r.Hi, Next: InvalidState}
	}
	id := c.builder.AddSparse(trans)
	return id, id, nil
}

// compileConcat compiles concatenation
func (c *Compiler) compileConcat(subs []*Expr) (start, end StateID, err error) {
	if len(subs) == 0 {
		return c.compileEmptyMatch()
	}
	start, end, err = c.compileExpr(subs[0])
	if err != nil {
		return InvalidState, InvalidState, err
	}
	for _, sub := range subs[1:] {
		subStart, subEnd, err := c.compileExpr(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		if err := c.builder.Patch(end, subStart); err != nil {
			return InvalidState, InvalidState, err
		}
		end = subEnd
	}
	return start, end, nil
}

// compileAlternate compiles alternation
func (c *Compiler) compileAlternate(subs []*Expr) (start, end StateID, err error) {
	if len(subs) == 0 {
		return c.compileNever()
	}
	starts := make([]StateID, 0, len(subs))
	ends := make([]StateID, 0, len(subs))
	for _, sub := range subs {
		subStart, subEnd, err := c.compileExpr(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		starts = append(starts, subStart)
		ends = append(ends, subEnd)
	}

	end = c.builder.AddEpsilon(InvalidState)
	for _, subEnd := range ends {
		if err := c.builder.Patch(subEnd, end); err != nil {
			return InvalidState, InvalidState, err
		}
	}
	return c.buildSplitChain(starts), end, nil
}

// buildSplitChain builds a chain of split states for alternation
func (c *Compiler) buildSplitChain(targets []StateID) StateID {
	if len(targets) == 1 {
		return targets[0]
	}
	if len(targets) == 2 {
		return c.builder.AddSplit(targets[0], targets[1])
	}

	// Split(alt1, Split(alt2, Split(alt3, ...)))
	right := c.buildSplitChain(targets[1:])
	return c.builder.AddSplit(targets[0], right)
}

// compileStar compiles e* (zero or more)
func (c *Compiler) compileStar(sub *Expr) (start, end StateID, err error) {
	subStart, subEnd, err := c.compileExpr(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}

	// split -> [sub, end]; sub loops back to split
	end = c.builder.AddEpsilon(InvalidState)
	split := c.builder.AddSplit(subStart, end)
	if err := c.builder.Patch(subEnd, split); err != nil {
		return InvalidState, InvalidState, err
	}
	return split, end, nil
}

// compilePlus compiles e+ (one or more)
func (c *Compiler) compilePlus(sub *Expr) (start, end StateID, err error) {
	subStart, subEnd, err := c.compileExpr(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}

	// sub -> split -> [sub, end]
	end = c.builder.AddEpsilon(InvalidState)
	split := c.builder.AddSplit(subStart, end)
	if err := c.builder.Patch(subEnd, split); err != nil {
		return InvalidState, InvalidState, err
	}
	return subStart, end, nil
}

// compileQuest compiles e? (zero or one)
func (c *Compiler) compileQuest(sub *Expr) (start, end StateID, err error) {
	subStart, subEnd, err := c.compileExpr(sub)
	if err != nil {
		return InvalidState, InvalidState, err
	}

	end = c.builder.AddEpsilon(InvalidState)
	if err := c.builder.Patch(subEnd, end); err != nil {
		return InvalidState, InvalidState, err
	}
	return c.builder.AddSplit(subStart, end), end, nil
}

// compileEmptyMatch compiles an epsilon transition (matches without consuming input)
func (c *Compiler) compileEmptyMatch() (start, end StateID, err error) {
	id := c.builder.AddEpsilon(InvalidState)
	return id, id, nil
}

// compileNever compiles a fragment that cannot be traversed.
func (c *Compiler) compileNever() (start, end StateID, err error) {
	fail := c.builder.AddFail()
	end = c.builder.AddEpsilon(InvalidState)
	return fail, end, nil
}
