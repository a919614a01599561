package constraint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coregx/glrmask/glr/grammar"
	"github.com/coregx/glrmask/nfa"
	"github.com/google/go-cmp/cmp"
	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
)

func listRules() []Rule {
	item := Choice(Lit("x"), Ref("List"))
	return []Rule{
		{Name: "List", Expr: Seq(Lit("["), Optional(Seq(Ref("Item"), Repeat(Seq(Lit(","), Ref("Item"))))), Lit("]"))},
		{Name: "Item", Expr: item},
	}
}

func TestFromExprsLowering(t *testing.T) {
	g, rx, tok, err := FromExprs("List", listRules())
	require.NoError(t, err)
	require.Same(t, rx, tok.Regex())

	want := []grammar.Terminal{`\[`, ",", `\]`, "x"}
	if diff := cmp.Diff(want, tok.Terminals()); diff != "" {
		t.Errorf("terminals mismatch (-want +got):\n%s", diff)
	}
	for i, term := range want {
		gid, ok := tok.Group(term)
		require.True(t, ok)
		require.Equal(t, nfa.GroupID(i), gid)
	}

	require.Len(t, g.ProductionsOf("List"), 1)
	require.Len(t, g.ProductionsOf("Item"), 2)
	// List#0 is the optional body, List#1 the repetition, List#2 its item.
	require.Len(t, g.ProductionsOf("List#0"), 2)
	require.Len(t, g.ProductionsOf("List#1"), 2)
	require.Len(t, g.ProductionsOf("List#2"), 1)
	require.True(t, g.Nullable("List#0"))
	require.True(t, g.Nullable("List#1"))
	require.False(t, g.Nullable("List#2"))
}

func TestFromExprsParses(t *testing.T) {
	words := []string{"[", "]", ",", "x"}
	g, _, tok, err := FromExprs("List", listRules())
	require.NoError(t, err)

	for _, tc := range []struct {
		text string
		ok   bool
	}{
		{"[]", true},
		{"[x,[x],[]]", true},
		{"[[[x]]]", true},
		{"[x,]", false},
		{"[x x]", false},
	} {
		st, err := NewFromGrammar(tok, g, toVocab(words), exactConfig())
		require.NoError(t, err)
		err = st.CommitBytes([]byte(tc.text))
		if tc.ok {
			require.NoError(t, err, tc.text)
			require.True(t, st.CanEnd(), tc.text)
		} else {
			require.ErrorIs(t, err, ErrRejected, tc.text)
		}
	}
}

func TestFromExprsRepeat1(t *testing.T) {
	g, _, tok, err := FromExprs("S", []Rule{
		{Name: "S", Expr: Seq(Repeat1(Lit("a")), Lit("b"))},
	})
	require.NoError(t, err)
	require.Len(t, g.ProductionsOf("S#0"), 2)
	require.False(t, g.Nullable("S#0"))

	st, err := NewFromGrammar(tok, g, toVocab([]string{"a", "b", "ab"}), exactConfig())
	require.NoError(t, err)
	require.Equal(t, sorted("a", "ab"), allowed(st, []string{"a", "b", "ab"}))
	require.NoError(t, st.CommitBytes([]byte("aaab")))
	require.True(t, st.CanEnd())
}

func TestFromExprsErrors(t *testing.T) {
	_, _, _, err := FromExprs("S", []Rule{{Name: "S", Expr: Ref("Missing")}})
	var be *BuildError
	require.ErrorAs(t, err, &be)
	require.Equal(t, StageLower, be.Stage)
	require.Equal(t, ErrUndefinedRule, errors.Cause(err))

	_, _, _, err = FromExprs("S", []Rule{
		{Name: "S", Expr: Lit("a")},
		{Name: "S", Expr: Lit("b")},
	})
	require.ErrorAs(t, err, &be)
	require.Equal(t, StageLower, be.Stage)

	_, _, _, err = FromExprs("Missing", []Rule{{Name: "S", Expr: Lit("a")}})
	require.ErrorAs(t, err, &be)
	require.Equal(t, StageGrammar, be.Stage)
	require.ErrorIs(t, err, grammar.ErrUndefinedStart)
}

func TestNewTokenizerErrors(t *testing.T) {
	_, rx, _, err := FromExprs("S", []Rule{{Name: "S", Expr: Seq(Lit("a"), Lit("b"))}})
	require.NoError(t, err)

	_, err = NewTokenizer(rx, []grammar.Terminal{"a"})
	require.Error(t, err)
	_, err = NewTokenizer(rx, []grammar.Terminal{"a", "a"})
	require.Error(t, err)

	tok, err := NewTokenizer(rx, []grammar.Terminal{"A", "B"})
	require.NoError(t, err)
	require.Equal(t, grammar.Terminal("B"), tok.Terminal(1))
}

func TestGrammarExprString(t *testing.T) {
	e := Seq(Lit("["), Optional(Ref("Item")), Repeat(Choice(Lit("a"), Lit("b"))), Repeat1(Ref("X")))
	require.Equal(t, `(\[ [Item] {(a | b)} X {X})`, e.String())
}

const arithEBNF = `
Expr   = Expr "+" Term | Term .
Term   = "(" Expr ")" | number .
number = digit { digit } .
digit  = "0" … "9" .
`

func TestFromEBNF(t *testing.T) {
	g, _, tok, err := FromEBNF("arith.ebnf", strings.NewReader(arithEBNF), "Expr")
	require.NoError(t, err)
	require.Equal(t, grammar.NonTerminal("Expr"), g.Start())
	require.Len(t, tok.Terminals(), 4)

	st, err := NewFromGrammar(tok, g, toVocab(arithVocab), exactConfig())
	require.NoError(t, err)
	require.Equal(t, sorted("1", "2", "(", "12", "1+", "(("), allowed(st, arithVocab))
	require.NoError(t, st.CommitBytes([]byte("12+(3)")))
	require.True(t, st.CanEnd())
}

func TestFromEBNFErrors(t *testing.T) {
	for name, src := range map[string]string{
		"syntax":    `Expr = "a" `,
		"undefined": `Expr = Term .`,
		"recursive": `Expr = word . word = "a" [ word ] .`,
		"range":     `Expr = word . word = "ab" … "c" .`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := FromEBNF(name+".ebnf", strings.NewReader(src), "Expr")
			var be *BuildError
			require.ErrorAs(t, err, &be)
			require.Equal(t, StageEBNF, be.Stage)
		})
	}
}

func TestAnalyzeLiteralOverlaps(t *testing.T) {
	got, err := AnalyzeLiteralOverlaps([][]byte{
		[]byte("ab"),
		[]byte("b"),
		[]byte("abc"),
		nil,
		[]byte("ab"),
	})
	require.NoError(t, err)
	want := []Overlap{
		{Outer: 0, Inner: 4, Offset: 0},
		{Outer: 0, Inner: 1, Offset: 1},
		{Outer: 2, Inner: 0, Offset: 0},
		{Outer: 2, Inner: 4, Offset: 0},
		{Outer: 2, Inner: 1, Offset: 1},
		{Outer: 4, Inner: 0, Offset: 0},
		{Outer: 4, Inner: 1, Offset: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("overlaps mismatch (-want +got):\n%s", diff)
	}

	// "bc" is matched before "abcd" is seen starting one byte earlier.
	got, err = AnalyzeLiteralOverlaps([][]byte{[]byte("xabcd"), []byte("abcd"), []byte("bc")})
	require.NoError(t, err)
	want = []Overlap{
		{Outer: 0, Inner: 1, Offset: 1},
		{Outer: 0, Inner: 2, Offset: 2},
		{Outer: 1, Inner: 2, Offset: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nested overlaps mismatch (-want +got):\n%s", diff)
	}

	got, err = AnalyzeLiteralOverlaps([][]byte{[]byte("x"), []byte("y")})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	for _, n := range []int{0, -1, 1_000_001} {
		cfg := DefaultConfig()
		cfg.MaxBranches = n
		var ce *ConfigError
		require.ErrorAs(t, cfg.Validate(), &ce)
		require.Equal(t, "MaxBranches", ce.Field)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	cfg, err := LoadConfig(write("full.toml", `
merge_active_states = false
exact_incomplete = true
max_branches = 16
log_level = "warn"
`))
	require.NoError(t, err)
	require.False(t, cfg.MergeActiveStates)
	require.True(t, cfg.ExactIncomplete)
	require.Equal(t, 16, cfg.MaxBranches)
	require.NotNil(t, cfg.Logger)

	cfg, err = LoadConfig(write("empty.toml", ""))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig(write("level.toml", `log_level = "loud"`))
	require.Error(t, err)

	_, err = LoadConfig(write("branches.toml", `max_branches = -3`))
	require.IsType(t, &ConfigError{}, errors.Cause(err))

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}
