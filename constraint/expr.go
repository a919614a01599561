// Package constraint ties a tokenizer, a GLR parser and a precomputed
// vocabulary index into a grammar constraint for token-by-token generation.
//
// Grammars are written as GrammarExpr trees, or as EBNF text, and lowered
// into a context-free grammar over terminals plus a multi-group tokenizer
// that recognizes those terminals. A State then answers, at every step,
// which vocabulary tokens keep the generated text a viable prefix of the
// grammar.
package constraint

import (
	"fmt"

	"github.com/coregx/glrmask/glr/grammar"
	"github.com/coregx/glrmask/nfa"
	"github.com/coregx/glrmask/regex"
	"github.com/pingcap/errors"
)

type exprKind uint8

const (
	exprTerm exprKind = iota
	exprRef
	exprSeq
	exprChoice
	exprOptional
	exprRepeat
	exprRepeat1
)

// GrammarExpr is a node of a grammar rule body.
type GrammarExpr struct {
	kind exprKind
	term *nfa.Expr
	name string
	subs []*GrammarExpr
}

// Term matches one grammar token recognized by e.
func Term(e *nfa.Expr) *GrammarExpr {
	return &GrammarExpr{kind: exprTerm, term: e}
}

// Lit matches one grammar token spelled s.
func Lit(s string) *GrammarExpr {
	return Term(nfa.Literal(s))
}

// Ref refers to another rule by name.
func Ref(name string) *GrammarExpr {
	return &GrammarExpr{kind: exprRef, name: name}
}

// Seq matches its parts in order. Seq() matches the empty string.
func Seq(parts ...*GrammarExpr) *GrammarExpr {
	return &GrammarExpr{kind: exprSeq, subs: parts}
}

// Choice matches any one alternative.
func Choice(alts ...*GrammarExpr) *GrammarExpr {
	return &GrammarExpr{kind: exprChoice, subs: alts}
}

// Optional matches e or nothing.
func Optional(e *GrammarExpr) *GrammarExpr {
	return &GrammarExpr{kind: exprOptional, subs: []*GrammarExpr{e}}
}

// Repeat matches zero or more e.
func Repeat(e *GrammarExpr) *GrammarExpr {
	return &GrammarExpr{kind: exprRepeat, subs: []*GrammarExpr{e}}
}

// Repeat1 matches one or more e.
func Repeat1(e *GrammarExpr) *GrammarExpr {
	return &GrammarExpr{kind: exprRepeat1, subs: []*GrammarExpr{e}}
}

func (e *GrammarExpr) String() string {
	switch e.kind {
	case exprTerm:
		return e.term.String()
	case exprRef:
		return e.name
	case exprOptional:
		return "[" + e.subs[0].String() + "]"
	case exprRepeat:
		return "{" + e.subs[0].String() + "}"
	case exprRepeat1:
		return e.subs[0].String() + " {" + e.subs[0].String() + "}"
	}
	sep := " "
	if e.kind == exprChoice {
		sep = " | "
	}
	s := "("
	for i, sub := range e.subs {
		if i > 0 {
			s += sep
		}
		s += sub.String()
	}
	return s + ")"
}

// Rule names a grammar expression.
type Rule struct {
	Name string
	Expr *GrammarExpr
}

// Tokenizer maps tokenizer groups to grammar terminals. Group i recognizes
// terminal i.
type Tokenizer struct {
	rx        *regex.Regex
	terminals []grammar.Terminal
	groups    map[grammar.Terminal]nfa.GroupID
}

// NewTokenizer pairs a tokenizer with the terminal of each of its groups.
func NewTokenizer(rx *regex.Regex, terminals []grammar.Terminal) (*Tokenizer, error) {
	if n := len(rx.Groups()); n != len(terminals) {
		return nil, errors.Errorf("tokenizer has %d groups but %d terminals", n, len(terminals))
	}
	t := &Tokenizer{
		rx:        rx,
		terminals: terminals,
		groups:    make(map[grammar.Terminal]nfa.GroupID, len(terminals)),
	}
	for i, term := range terminals {
		if _, dup := t.groups[term]; dup {
			return nil, errors.Errorf("terminal %q bound to two groups", term)
		}
		t.groups[term] = nfa.GroupID(i)
	}
	return t, nil
}

// Regex returns the tokenizer automaton.
func (t *Tokenizer) Regex() *regex.Regex { return t.rx }

// Terminal returns the terminal recognized by group g.
func (t *Tokenizer) Terminal(g nfa.GroupID) grammar.Terminal { return t.terminals[g] }

// Group returns the group recognizing term.
func (t *Tokenizer) Group(term grammar.Terminal) (nfa.GroupID, bool) {
	g, ok := t.groups[term]
	return g, ok
}

// Terminals returns the terminal of every group in group order.
func (t *Tokenizer) Terminals() []grammar.Terminal { return t.terminals }

// lowering turns rules into productions and tokenizer groups.
type lowering struct {
	rules     map[string]bool
	prods     []grammar.Production
	groups    nfa.Groups
	terminals []grammar.Terminal
	byKey     map[string]grammar.Terminal
	helpers   map[string]int
}

// FromExprs lowers rules into a grammar and a tokenizer for its terminals.
//
// Every distinct Term becomes one terminal, keyed by its expression's
// canonical string, and one tokenizer group, numbered in order of first
// appearance. Nested choices, optionals and repetitions become helper
// nonterminals named "<rule>#<n>"; repetitions are left-recursive.
func FromExprs(start string, rules []Rule) (*grammar.Grammar, *regex.Regex, *Tokenizer, error) {
	l := &lowering{
		rules:   make(map[string]bool, len(rules)),
		byKey:   make(map[string]grammar.Terminal),
		helpers: make(map[string]int),
	}
	for _, r := range rules {
		if l.rules[r.Name] {
			return nil, nil, nil, buildErr(StageLower, errors.Errorf("rule %q defined twice", r.Name))
		}
		l.rules[r.Name] = true
	}
	for _, r := range rules {
		if err := l.rule(r); err != nil {
			return nil, nil, nil, buildErr(StageLower, err)
		}
	}

	g, err := grammar.New(grammar.NonTerminal(start), l.prods)
	if err != nil {
		return nil, nil, nil, buildErr(StageGrammar, err)
	}
	rx, err := regex.Build(l.groups)
	if err != nil {
		return nil, nil, nil, buildErr(StageTokenizer, err)
	}
	tok, err := NewTokenizer(rx, l.terminals)
	if err != nil {
		return nil, nil, nil, buildErr(StageTokenizer, err)
	}
	return g, rx, tok, nil
}

func (l *lowering) rule(r Rule) error {
	lhs := r.Name
	// A top-level choice becomes one production per alternative.
	if r.Expr != nil && r.Expr.kind == exprChoice {
		for _, alt := range r.Expr.subs {
			rhs, err := l.sequence(r.Name, alt)
			if err != nil {
				return err
			}
			l.prods = append(l.prods, grammar.P(lhs, rhs...))
		}
		return nil
	}
	rhs, err := l.sequence(r.Name, r.Expr)
	if err != nil {
		return err
	}
	l.prods = append(l.prods, grammar.P(lhs, rhs...))
	return nil
}

// sequence lowers e into the symbols of one production body.
func (l *lowering) sequence(rule string, e *GrammarExpr) ([]grammar.Symbol, error) {
	if e == nil {
		return nil, nil
	}
	if e.kind != exprSeq {
		sym, err := l.symbol(rule, e)
		if err != nil {
			return nil, err
		}
		return []grammar.Symbol{sym}, nil
	}
	var out []grammar.Symbol
	for _, sub := range e.subs {
		if sub != nil && sub.kind == exprSeq {
			syms, err := l.sequence(rule, sub)
			if err != nil {
				return nil, err
			}
			out = append(out, syms...)
			continue
		}
		sym, err := l.symbol(rule, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, nil
}

// symbol lowers e into a single symbol, adding a helper nonterminal when e
// is not a term or a reference.
func (l *lowering) symbol(rule string, e *GrammarExpr) (grammar.Symbol, error) {
	if e == nil {
		return grammar.Symbol{}, errors.Errorf("rule %q: nil expression", rule)
	}
	switch e.kind {
	case exprTerm:
		return grammar.T(string(l.terminal(e.term))), nil
	case exprRef:
		if !l.rules[e.name] {
			return grammar.Symbol{}, errors.Annotatef(ErrUndefinedRule, "rule %q refers to %q", rule, e.name)
		}
		return grammar.NT(e.name), nil
	}

	h := l.helper(rule)
	switch e.kind {
	case exprSeq:
		rhs, err := l.sequence(rule, e)
		if err != nil {
			return grammar.Symbol{}, err
		}
		l.prods = append(l.prods, grammar.P(h, rhs...))
	case exprChoice:
		for _, alt := range e.subs {
			rhs, err := l.sequence(rule, alt)
			if err != nil {
				return grammar.Symbol{}, err
			}
			l.prods = append(l.prods, grammar.P(h, rhs...))
		}
	case exprOptional:
		rhs, err := l.sequence(rule, e.subs[0])
		if err != nil {
			return grammar.Symbol{}, err
		}
		l.prods = append(l.prods, grammar.P(h), grammar.P(h, rhs...))
	case exprRepeat, exprRepeat1:
		item, err := l.symbol(rule, e.subs[0])
		if err != nil {
			return grammar.Symbol{}, err
		}
		self := grammar.NT(h)
		if e.kind == exprRepeat {
			l.prods = append(l.prods, grammar.P(h))
		} else {
			l.prods = append(l.prods, grammar.P(h, item))
		}
		l.prods = append(l.prods, grammar.P(h, self, item))
	default:
		return grammar.Symbol{}, errors.Errorf("rule %q: unknown expression kind %d", rule, e.kind)
	}
	return grammar.NT(h), nil
}

func (l *lowering) helper(rule string) string {
	n := l.helpers[rule]
	l.helpers[rule] = n + 1
	return fmt.Sprintf("%s#%d", rule, n)
}

func (l *lowering) terminal(e *nfa.Expr) grammar.Terminal {
	key := e.String()
	if term, ok := l.byKey[key]; ok {
		return term
	}
	term := grammar.Terminal(key)
	l.byKey[key] = term
	l.groups = append(l.groups, nfa.NewGroup(e))
	l.terminals = append(l.terminals, term)
	return term
}
