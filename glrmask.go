// Package glrmask constrains token-by-token text generation to a
// context-free grammar.
//
// A grammar is lowered into a multi-group tokenizer DFA and a GLR parse
// table. Every vocabulary token is tokenized ahead of time from every
// tokenizer state, so at decode time the set of allowed tokens is found by
// walking a small trie while stepping the parser, not by replaying each
// token.
//
// Basic usage:
//
//	rules := []glrmask.Rule{
//	    {Name: "Expr", Expr: glrmask.Choice(
//	        glrmask.Seq(glrmask.Ref("Expr"), glrmask.Lit("+"), glrmask.Ref("Term")),
//	        glrmask.Ref("Term"))},
//	    {Name: "Term", Expr: glrmask.Lit("1")},
//	}
//	c, err := glrmask.Compile("Expr", rules, vocab, glrmask.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for !c.CanEnd() {
//	    id := sample(logits, c.Mask())
//	    if err := c.Commit(id); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// Grammars can also be written in EBNF, see CompileEBNF.
//
// Characteristics:
//   - Ambiguous grammars are fine: the parser is GLR with a merged
//     graph-structured stack
//   - Ambiguous tokenization is fine: a vocabulary token may split into
//     grammar tokens in several ways, and all of them are tracked
//   - Tokenizer matching is byte-oriented; character classes are byte sets
//
// A Constraint is not safe for concurrent use. Clone it for each sequence.
package glrmask

import (
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/coregx/glrmask/constraint"
)

// Config is the build configuration. See constraint.Config.
type Config = constraint.Config

// Rule names a grammar expression.
type Rule = constraint.Rule

// GrammarExpr is a node of a rule body.
type GrammarExpr = constraint.GrammarExpr

// Rule body constructors.
var (
	Term     = constraint.Term
	Lit      = constraint.Lit
	Ref      = constraint.Ref
	Seq      = constraint.Seq
	Choice   = constraint.Choice
	Optional = constraint.Optional
	Repeat   = constraint.Repeat
	Repeat1  = constraint.Repeat1
)

// Errors returned by Commit.
var (
	ErrUnknownToken = constraint.ErrUnknownToken
	ErrRejected     = constraint.ErrRejected
)

// Constraint tracks one generated sequence against a compiled grammar.
//
// Example:
//
//	c := glrmask.MustCompile("S", rules, vocab)
//	if c.Allowed(id) {
//	    _ = c.Commit(id)
//	}
type Constraint struct {
	state *constraint.State
	start string
}

// DefaultConfig returns the default configuration for compilation.
//
// Example:
//
//	config := glrmask.DefaultConfig()
//	config.ExactIncomplete = true
//	c, _ := glrmask.Compile("S", rules, vocab, config)
func DefaultConfig() Config {
	return constraint.DefaultConfig()
}

// LoadConfig reads a TOML configuration file. See constraint.LoadConfig.
func LoadConfig(path string) (Config, error) {
	return constraint.LoadConfig(path)
}

// Compile lowers rules, builds the parse table and indexes vocab.
// Vocabulary ids are indexes into vocab.
//
// Example:
//
//	c, err := glrmask.Compile("List", rules, vocab, glrmask.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(start string, rules []Rule, vocab [][]byte, cfg Config) (*Constraint, error) {
	g, _, tok, err := constraint.FromExprs(start, rules)
	if err != nil {
		return nil, err
	}
	st, err := constraint.NewFromGrammar(tok, g, vocab, cfg)
	if err != nil {
		return nil, err
	}
	return &Constraint{state: st, start: start}, nil
}

// CompileEBNF is like Compile but reads the grammar as EBNF text.
// Productions with lower-case names are tokens. See constraint.FromEBNF.
func CompileEBNF(name string, src io.Reader, start string, vocab [][]byte, cfg Config) (*Constraint, error) {
	g, _, tok, err := constraint.FromEBNF(name, src, start)
	if err != nil {
		return nil, err
	}
	st, err := constraint.NewFromGrammar(tok, g, vocab, cfg)
	if err != nil {
		return nil, err
	}
	return &Constraint{state: st, start: start}, nil
}

// MustCompile is like Compile with the default configuration but panics
// if the grammar cannot be built.
func MustCompile(start string, rules []Rule, vocab [][]byte) *Constraint {
	c, err := Compile(start, rules, vocab, DefaultConfig())
	if err != nil {
		panic("glrmask: Compile(" + start + "): " + err.Error())
	}
	return c
}

// Start returns the start rule name.
func (c *Constraint) Start() string {
	return c.start
}

// State returns the underlying constraint state.
func (c *Constraint) State() *constraint.State {
	return c.state
}

// Mask returns the set of vocabulary ids that may be generated next.
func (c *Constraint) Mask() *bitset.BitSet {
	return c.state.Mask()
}

// AllowedIDs returns the vocabulary ids that may be generated next in
// ascending order.
func (c *Constraint) AllowedIDs() []int {
	mask := c.state.Mask()
	ids := make([]int, 0, mask.Count())
	for i, ok := mask.NextSet(0); ok; i, ok = mask.NextSet(i + 1) {
		ids = append(ids, int(i))
	}
	return ids
}

// Allowed reports whether vocabulary id may be generated next.
func (c *Constraint) Allowed(id int) bool {
	return c.state.Allowed(id)
}

// Commit appends vocabulary token id. Tokens outside the mask return
// ErrRejected and leave c unchanged.
func (c *Constraint) Commit(id int) error {
	return c.state.Commit(id)
}

// CommitString appends arbitrary text, for example a forced prefix.
func (c *Constraint) CommitString(s string) error {
	return c.state.CommitBytes([]byte(s))
}

// CanEnd reports whether the text so far is a complete sentence.
func (c *Constraint) CanEnd() bool {
	return c.state.CanEnd()
}

// IsDead reports whether no continuation can satisfy the grammar.
func (c *Constraint) IsDead() bool {
	return c.state.IsDead()
}

// Clone returns an independent copy of c.
func (c *Constraint) Clone() *Constraint {
	return &Constraint{state: c.state.Clone(), start: c.start}
}
