package grammar

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// exprGrammar is E → E + T | T; T → T * F | F; F → ( E ) | i.
func exprGrammar() []Production {
	return []Production{
		P("E", NT("E"), T("+"), NT("T")),
		P("E", NT("T")),
		P("T", NT("T"), T("*"), NT("F")),
		P("T", NT("F")),
		P("F", T("("), NT("E"), T(")")),
		P("F", T("i")),
	}
}

func TestExpressionGrammarSets(t *testing.T) {
	g, err := New("E", exprGrammar())
	require.NoError(t, err)

	require.Equal(t, []Terminal{"(", ")", "*", "+", "i"}, g.Terminals())
	require.Equal(t, []NonTerminal{"E", "F", "T"}, g.NonTerminals())

	for _, nt := range []NonTerminal{"E", "T", "F"} {
		require.Equal(t, []Terminal{"(", "i"}, g.First(NT(string(nt))), "First(%s)", nt)
		require.False(t, g.Nullable(nt))
	}
	require.Equal(t, []Terminal{"$", ")", "+"}, g.Follow("E"))
	require.Equal(t, []Terminal{"$", ")", "*", "+"}, g.Follow("T"))
	require.Equal(t, []Terminal{"$", ")", "*", "+"}, g.Follow("F"))
	require.Equal(t, []Terminal{"$"}, g.Follow("E'"))

	aug := g.Augmented()
	require.Equal(t, NonTerminal("E'"), aug.LHS)
	require.Equal(t, []Symbol{NT("E")}, aug.RHS)
	require.Len(t, g.ProductionsOf("E'"), 1)
	require.Len(t, g.ProductionsOf("T"), 2)
}

func TestNullableAndFirstOfSequence(t *testing.T) {
	g, err := New("S", []Production{
		P("S", NT("A"), NT("B"), T("c")),
		P("A", T("a")),
		P("A"),
		P("B", T("b")),
		P("B"),
	})
	require.NoError(t, err)
	require.True(t, g.Nullable("A"))
	require.False(t, g.Nullable("S"))

	first, nullable := g.FirstOfSequence([]Symbol{NT("A"), NT("B")})
	require.Equal(t, []Terminal{"a", "b"}, first)
	require.True(t, nullable)

	require.Equal(t, []Terminal{"a", "b", "c"}, g.First(NT("S")))
	if diff := cmp.Diff([]Terminal{"b", "c"}, g.Follow("A")); diff != "" {
		t.Errorf("Follow(A) mismatch (-want +got):\n%s", diff)
	}
}

func TestProductionsDeduplicated(t *testing.T) {
	g, err := New("S", []Production{P("S", T("x")), P("S", T("x"))})
	require.NoError(t, err)
	require.Len(t, g.Productions(), 1)
	require.Equal(t, "S → 'x'", g.Productions()[0].String())
	require.Equal(t, "S → ε", P("S").String())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		start  NonTerminal
		prods  []Production
		want   error
		symbol string
	}{
		{"empty", "S", nil, ErrEmptyGrammar, ""},
		{"undefined start", "X", []Production{P("S", T("a"))}, ErrUndefinedStart, "X"},
		{"undefined nonterminal", "S", []Production{P("S", NT("A"))}, ErrUndefinedNonTerminal, "A"},
		{"unproductive", "S", []Production{P("S", T("a")), P("S", NT("A")), P("A", NT("A"), T("b"))}, ErrUnproductive, "A"},
		{"unreachable", "S", []Production{P("S", T("a")), P("B", T("b"))}, ErrUnreachable, "B"},
		{"cyclic", "S", []Production{P("S", NT("A")), P("A", NT("S")), P("A", T("a"))}, ErrCyclic, "A"},
		{"cyclic through nullable", "S", []Production{P("S", NT("N"), NT("S"), NT("N")), P("S", T("a")), P("N")}, ErrCyclic, "S"},
		{"reserved terminal", "S", []Production{P("S", T("$"))}, ErrReservedName, "$"},
		{"reserved augmented", "S", []Production{P("S", NT("S'")), P("S'", T("a"))}, ErrReservedName, "S'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.prods)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.want)
			var gerr *GrammarError
			require.True(t, errors.As(err, &gerr))
			require.Equal(t, tt.symbol, gerr.Symbol)
		})
	}
}

func TestErrorKindString(t *testing.T) {
	require.Equal(t, "Cyclic", Cyclic.String())
	require.Equal(t, "UnknownErrorKind(99)", ErrorKind(99).String())
	require.False(t, errors.Is(newError(ErrCyclic, "A"), ErrUnreachable))
}

func TestLeftRecursionIsNotCyclic(t *testing.T) {
	_, err := New("L", []Production{P("L", NT("L"), T(",")), P("L", T("x"))})
	require.NoError(t, err)
}
