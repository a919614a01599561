package constraint

import (
	"io"
	"maps"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/glrmask/glr/grammar"
	"github.com/coregx/glrmask/nfa"
	"github.com/coregx/glrmask/regex"
	"github.com/pingcap/errors"
	"golang.org/x/exp/ebnf"
)

// FromEBNF reads a grammar in the EBNF dialect of golang.org/x/exp/ebnf and
// lowers it with FromExprs.
//
// Productions whose names start with a lower-case letter are lexical: a
// reference to one from a syntactic production becomes a single grammar
// token recognized by the production's body. Tokens written directly in
// syntactic productions become literal grammar tokens. Ranges must have
// single-byte bounds.
//
//	Expr   = Expr "+" Term | Term .
//	Term   = "(" Expr ")" | number .
//	number = digit { digit } .
//	digit  = "0" … "9" .
func FromEBNF(filename string, src io.Reader, start string) (*grammar.Grammar, *regex.Regex, *Tokenizer, error) {
	g, err := ebnf.Parse(filename, src)
	if err != nil {
		return nil, nil, nil, buildErr(StageEBNF, errors.Annotate(err, "parse"))
	}
	if err := ebnf.Verify(g, start); err != nil {
		return nil, nil, nil, buildErr(StageEBNF, errors.Annotate(err, "verify"))
	}

	c := &ebnfConverter{grammar: g, lexical: make(map[string]*nfa.Expr)}
	var rules []Rule
	for _, name := range slices.Sorted(maps.Keys(g)) {
		if isLexical(name) {
			continue
		}
		body, err := c.syntactic(g[name].Expr)
		if err != nil {
			return nil, nil, nil, buildErr(StageEBNF, errors.Annotatef(err, "production %s", name))
		}
		rules = append(rules, Rule{Name: name, Expr: body})
	}
	return FromExprs(start, rules)
}

func isLexical(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLower(r)
}

type ebnfConverter struct {
	grammar ebnf.Grammar
	lexical map[string]*nfa.Expr
	active  []string
}

func (c *ebnfConverter) syntactic(e ebnf.Expression) (*GrammarExpr, error) {
	switch e := e.(type) {
	case nil:
		return Seq(), nil
	case *ebnf.Name:
		if isLexical(e.String) {
			body, err := c.lexicalName(e.String)
			if err != nil {
				return nil, err
			}
			return Term(body), nil
		}
		return Ref(e.String), nil
	case *ebnf.Token:
		s, err := tokenValue(e)
		if err != nil {
			return nil, err
		}
		return Lit(s), nil
	case ebnf.Sequence:
		parts := make([]*GrammarExpr, len(e))
		for i, sub := range e {
			part, err := c.syntactic(sub)
			if err != nil {
				return nil, err
			}
			parts[i] = part
		}
		return Seq(parts...), nil
	case ebnf.Alternative:
		alts := make([]*GrammarExpr, len(e))
		for i, sub := range e {
			alt, err := c.syntactic(sub)
			if err != nil {
				return nil, err
			}
			alts[i] = alt
		}
		return Choice(alts...), nil
	case *ebnf.Group:
		return c.syntactic(e.Body)
	case *ebnf.Option:
		body, err := c.syntactic(e.Body)
		if err != nil {
			return nil, err
		}
		return Optional(body), nil
	case *ebnf.Repetition:
		body, err := c.syntactic(e.Body)
		if err != nil {
			return nil, err
		}
		return Repeat(body), nil
	default:
		return nil, errors.Errorf("%v: unsupported expression %T", e.Pos(), e)
	}
}

// lexicalName returns the tokenizer expression of a lexical production.
// Lexical productions may refer to each other but not recursively.
func (c *ebnfConverter) lexicalName(name string) (*nfa.Expr, error) {
	if e, ok := c.lexical[name]; ok {
		return e, nil
	}
	if slices.Contains(c.active, name) {
		return nil, errors.Errorf("lexical production %s is recursive", name)
	}
	prod, ok := c.grammar[name]
	if !ok {
		return nil, errors.Errorf("undefined production %s", name)
	}
	c.active = append(c.active, name)
	e, err := c.lex(prod.Expr)
	c.active = c.active[:len(c.active)-1]
	if err != nil {
		return nil, errors.Annotatef(err, "production %s", name)
	}
	c.lexical[name] = e
	return e, nil
}

func (c *ebnfConverter) lex(e ebnf.Expression) (*nfa.Expr, error) {
	switch e := e.(type) {
	case nil:
		return nfa.Epsilon(), nil
	case *ebnf.Name:
		return c.lexicalName(e.String)
	case *ebnf.Token:
		s, err := tokenValue(e)
		if err != nil {
			return nil, err
		}
		return nfa.Literal(s), nil
	case *ebnf.Range:
		lo, err := rangeBound(e.Begin)
		if err != nil {
			return nil, err
		}
		hi, err := rangeBound(e.End)
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, errors.Errorf("%v: empty range", e.Pos())
		}
		return nfa.ByteRange(lo, hi), nil
	case ebnf.Sequence:
		parts := make([]*nfa.Expr, len(e))
		for i, sub := range e {
			part, err := c.lex(sub)
			if err != nil {
				return nil, err
			}
			parts[i] = part
		}
		return nfa.Seq(parts...), nil
	case ebnf.Alternative:
		alts := make([]*nfa.Expr, len(e))
		for i, sub := range e {
			alt, err := c.lex(sub)
			if err != nil {
				return nil, err
			}
			alts[i] = alt
		}
		return nfa.Choice(alts...), nil
	case *ebnf.Group:
		return c.lex(e.Body)
	case *ebnf.Option:
		body, err := c.lex(e.Body)
		if err != nil {
			return nil, err
		}
		return nfa.Opt(body), nil
	case *ebnf.Repetition:
		body, err := c.lex(e.Body)
		if err != nil {
			return nil, err
		}
		return nfa.Star(body), nil
	default:
		return nil, errors.Errorf("%v: unsupported expression %T", e.Pos(), e)
	}
}

// tokenValue returns a token's unquoted text.
func tokenValue(t *ebnf.Token) (string, error) {
	if t == nil {
		return "", errors.New("missing token")
	}
	return t.String, nil
}

func rangeBound(t *ebnf.Token) (byte, error) {
	s, err := tokenValue(t)
	if err != nil {
		return 0, err
	}
	if len(s) != 1 {
		return 0, errors.Errorf("%v: range bound %q is not a single byte", t.Pos(), s)
	}
	return s[0], nil
}
