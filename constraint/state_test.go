package constraint

import (
	"slices"
	"strconv"
	"testing"

	"github.com/coregx/glrmask/glr/grammar"
	"github.com/coregx/glrmask/glr/parser"
	"github.com/coregx/glrmask/nfa"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var arithVocab = []string{"1", "2", "+", "(", ")", "12", "+1", "1+", ")+", "x", "(("}

func arithRules() []Rule {
	return []Rule{
		{Name: "Expr", Expr: Choice(Seq(Ref("Expr"), Lit("+"), Ref("Term")), Ref("Term"))},
		{Name: "Term", Expr: Choice(Seq(Lit("("), Ref("Expr"), Lit(")")), Term(nfa.Plus(nfa.ByteRange('0', '9'))))},
	}
}

func toVocab(words []string) [][]byte {
	out := make([][]byte, len(words))
	for i, w := range words {
		out[i] = []byte(w)
	}
	return out
}

func newState(t *testing.T, start string, rules []Rule, words []string, cfg Config) *State {
	t.Helper()
	g, _, tok, err := FromExprs(start, rules)
	require.NoError(t, err)
	st, err := NewFromGrammar(tok, g, toVocab(words), cfg)
	require.NoError(t, err)
	return st
}

func allowed(st *State, words []string) []string {
	var out []string
	mask := st.Mask()
	for i, w := range words {
		if mask.Test(uint(i)) {
			out = append(out, w)
		}
	}
	slices.Sort(out)
	return out
}

func sorted(words ...string) []string {
	slices.Sort(words)
	return words
}

func commitWord(t *testing.T, st *State, words []string, w string) {
	t.Helper()
	i := slices.Index(words, w)
	require.GreaterOrEqual(t, i, 0, w)
	require.NoError(t, st.Commit(i), w)
}

func exactConfig() Config {
	cfg := DefaultConfig()
	cfg.ExactIncomplete = true
	return cfg
}

func TestMaskFollowsGrammar(t *testing.T) {
	st := newState(t, "Expr", arithRules(), arithVocab, exactConfig())
	require.Equal(t, sorted("1", "2", "(", "12", "1+", "(("), allowed(st, arithVocab))
	require.False(t, st.CanEnd())

	commitWord(t, st, arithVocab, "1")
	require.Equal(t, sorted("1", "2", "+", "12", "+1", "1+"), allowed(st, arithVocab))
	require.True(t, st.CanEnd())

	commitWord(t, st, arithVocab, "+")
	require.Equal(t, sorted("1", "2", "(", "12", "1+", "(("), allowed(st, arithVocab))
	require.False(t, st.CanEnd())

	commitWord(t, st, arithVocab, "((")
	commitWord(t, st, arithVocab, "2")
	require.Subset(t, allowed(st, arithVocab), []string{")", ")+"})
	require.NotContains(t, allowed(st, arithVocab), "(")
	require.False(t, st.IsDead())

	commitWord(t, st, arithVocab, ")")
	require.False(t, st.CanEnd())
	commitWord(t, st, arithVocab, ")")
	require.True(t, st.CanEnd())
}

// Without ExactIncomplete a token that leaves a grammar token unfinished is
// allowed whatever that token turns out to be.
func TestMaskIncludesIncomplete(t *testing.T) {
	st := newState(t, "Expr", arithRules(), arithVocab, DefaultConfig())
	require.Equal(t, sorted("1", "2", "+", "(", ")", "12", "1+", "(("), allowed(st, arithVocab))

	require.NoError(t, st.Commit(slices.Index(arithVocab, ")")))
	require.False(t, st.IsDead())
	require.True(t, st.Mask().None())
}

func TestCommitRejects(t *testing.T) {
	st := newState(t, "Expr", arithRules(), arithVocab, exactConfig())
	before := allowed(st, arithVocab)

	require.ErrorIs(t, st.Commit(slices.Index(arithVocab, "x")), ErrRejected)
	require.ErrorIs(t, st.Commit(slices.Index(arithVocab, ")")), ErrRejected)
	require.ErrorIs(t, st.Commit(len(arithVocab)), ErrUnknownToken)
	require.ErrorIs(t, st.Commit(-1), ErrUnknownToken)
	require.Equal(t, before, allowed(st, arithVocab))
	require.False(t, st.Allowed(len(arithVocab)))
}

func TestMaskMatchesCommit(t *testing.T) {
	for name, cfg := range map[string]Config{"loose": DefaultConfig(), "exact": exactConfig()} {
		t.Run(name, func(t *testing.T) {
			st := newState(t, "Expr", arithRules(), arithVocab, cfg)
			for _, prefix := range []string{"", "1", "1+", "(", "(1", "(1)"} {
				cur := st.Clone()
				require.NoError(t, cur.CommitBytes([]byte(prefix)))
				mask := cur.Mask()
				for i, w := range arithVocab {
					err := cur.Clone().Commit(i)
					require.Equal(t, mask.Test(uint(i)), err == nil, "%q after %q", w, prefix)
				}
			}
		})
	}
}

func TestCommitBytes(t *testing.T) {
	st := newState(t, "Expr", arithRules(), arithVocab, exactConfig())
	require.NoError(t, st.CommitBytes([]byte("12+(3")))
	require.False(t, st.CanEnd())
	require.ErrorIs(t, st.CommitBytes([]byte("+)")), ErrRejected)
	require.NoError(t, st.CommitBytes([]byte(")")))
	require.True(t, st.CanEnd())
}

func TestCloneIsIndependent(t *testing.T) {
	st := newState(t, "Expr", arithRules(), arithVocab, exactConfig())
	c := st.Clone()
	commitWord(t, c, arithVocab, "1")
	require.True(t, c.CanEnd())
	require.False(t, st.CanEnd())
	require.Contains(t, allowed(st, arithVocab), "(")
	require.NotContains(t, allowed(c, arithVocab), "(")
}

// S = "a" T; T = "b" | "c" "bb". At the start only "a" is acceptable, but
// the token "b" can still grow into "bb".
func exactRules() []Rule {
	return []Rule{
		{Name: "S", Expr: Seq(Lit("a"), Ref("T"))},
		{Name: "T", Expr: Choice(Lit("b"), Seq(Lit("c"), Lit("bb")))},
	}
}

func TestExactIncomplete(t *testing.T) {
	words := []string{"a", "b", "c"}

	loose := newState(t, "S", exactRules(), words, DefaultConfig())
	require.Equal(t, sorted("a", "b", "c"), allowed(loose, words))

	exact := newState(t, "S", exactRules(), words, exactConfig())
	require.Equal(t, []string{"a"}, allowed(exact, words))
	require.ErrorIs(t, exact.Commit(1), ErrRejected)

	commitWord(t, exact, words, "a")
	require.Equal(t, sorted("b", "c"), allowed(exact, words))
	commitWord(t, exact, words, "b")
	require.True(t, exact.CanEnd())
}

func TestOverlapWarnings(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := DefaultConfig()
	cfg.Logger = zap.New(core)
	newState(t, "S", exactRules(), []string{"a", "b"}, cfg)

	warned := logs.FilterMessage("literal terminal occurs inside another").All()
	require.NotEmpty(t, warned)
	fields := warned[0].ContextMap()
	require.Equal(t, "bb", fields["outer"])
	require.Equal(t, "b", fields["inner"])
}

func TestMaxBranches(t *testing.T) {
	// "ab" reads as one token or two, each finished or still pending.
	rules := []Rule{
		{Name: "S", Expr: Choice(Seq(Lit("ab"), Lit("!")), Seq(Lit("a"), Lit("b"), Lit("?")))},
	}
	words := []string{"ab", "!", "?"}

	st := newState(t, "S", rules, words, exactConfig())
	commitWord(t, st, words, "ab")
	require.Equal(t, 4, st.Branches())
	require.Equal(t, sorted("!", "?"), allowed(st, words))

	cfg := exactConfig()
	cfg.MaxBranches = 1
	capped := newState(t, "S", rules, words, cfg)
	commitWord(t, capped, words, "ab")
	require.Equal(t, 1, capped.Branches())
	require.Equal(t, []string{"!"}, allowed(capped, words))
}

func TestNewFromGrammarErrors(t *testing.T) {
	g, _, tok, err := FromExprs("Expr", arithRules())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.MaxBranches = 0
	_, err = NewFromGrammar(tok, g, nil, cfg)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	require.Equal(t, StageConfig, be.Stage)

	empty, _, emptyTok, err := FromExprs("S", []Rule{
		{Name: "S", Expr: Term(nfa.Star(nfa.Byte('a')))},
	})
	require.NoError(t, err)
	_, err = NewFromGrammar(emptyTok, empty, nil, DefaultConfig())
	require.ErrorAs(t, err, &be)
	require.Equal(t, StagePrecompute, be.Stage)
	require.Equal(t, grammar.NonTerminal("S"), empty.Start())
}

func TestCommitGrowthIndependentOfVocabulary(t *testing.T) {
	arena := func(words []string) parser.Mark {
		st := newState(t, "Expr", arithRules(), words, DefaultConfig())
		for range 5 {
			commitWord(t, st, words, "1")
			commitWord(t, st, words, "+")
		}
		require.Positive(t, st.Branches())
		return st.branches[0].parser.Mark()
	}

	small := arena([]string{"1", "+"})
	large := []string{"1", "+"}
	for i := range 200 {
		n := strconv.Itoa(i + 10)
		large = append(large, n, n+"+", "+"+n, "("+n)
	}
	require.Equal(t, small, arena(large))
}
