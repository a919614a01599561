package glrmask_test

import (
	"fmt"
	"strings"

	"github.com/coregx/glrmask"
)

func vocabOf(words ...string) [][]byte {
	out := make([][]byte, len(words))
	for i, w := range words {
		out[i] = []byte(w)
	}
	return out
}

// ExampleCompile demonstrates building a constraint and reading its mask.
func ExampleCompile() {
	rules := []glrmask.Rule{
		{Name: "Expr", Expr: glrmask.Choice(
			glrmask.Seq(glrmask.Ref("Expr"), glrmask.Lit("+"), glrmask.Lit("1")),
			glrmask.Lit("1"))},
	}
	vocab := vocabOf("1", "+", "1+", "+1", "x")

	config := glrmask.DefaultConfig()
	config.ExactIncomplete = true
	c, err := glrmask.Compile("Expr", rules, vocab, config)
	if err != nil {
		panic(err)
	}

	fmt.Println(c.AllowedIDs())
	if err := c.Commit(0); err != nil {
		panic(err)
	}
	fmt.Println(c.AllowedIDs(), c.CanEnd())
	// Output:
	// [0 2]
	// [1 3] true
}

// ExampleMustCompile demonstrates rejecting a token outside the mask.
func ExampleMustCompile() {
	rules := []glrmask.Rule{
		{Name: "S", Expr: glrmask.Seq(glrmask.Lit("a"), glrmask.Repeat(glrmask.Lit("b")))},
	}
	c := glrmask.MustCompile("S", rules, vocabOf("a", "b", "c"))

	fmt.Println(c.Commit(2) == glrmask.ErrRejected)
	fmt.Println(c.Commit(0), c.CanEnd())
	// Output:
	// true
	// <nil> true
}

// ExampleCompileEBNF demonstrates a grammar written in EBNF.
func ExampleCompileEBNF() {
	const src = `
Expr   = Expr "+" Term | Term .
Term   = "(" Expr ")" | number .
number = digit { digit } .
digit  = "0" … "9" .
`
	vocab := vocabOf("1", "2", "+", "(", ")")
	config := glrmask.DefaultConfig()
	config.ExactIncomplete = true
	c, err := glrmask.CompileEBNF("arith.ebnf", strings.NewReader(src), "Expr", vocab, config)
	if err != nil {
		panic(err)
	}

	if err := c.CommitString("1+(2"); err != nil {
		panic(err)
	}
	for _, id := range c.AllowedIDs() {
		fmt.Printf("%q ", vocab[id])
	}
	fmt.Println(c.CanEnd())

	if err := c.CommitString(")"); err != nil {
		panic(err)
	}
	fmt.Println(c.CanEnd())
	// Output:
	// "1" "2" "+" ")" false
	// true
}

// ExampleConstraint_Clone demonstrates exploring two continuations.
func ExampleConstraint_Clone() {
	rules := []glrmask.Rule{
		{Name: "S", Expr: glrmask.Choice(glrmask.Lit("yes"), glrmask.Lit("no"))},
	}
	c := glrmask.MustCompile("S", rules, vocabOf("yes", "no", "y", "es"))

	fork := c.Clone()
	_ = fork.Commit(2)
	_ = fork.Commit(3)
	fmt.Println(fork.CanEnd(), c.CanEnd())
	// Output: true false
}
