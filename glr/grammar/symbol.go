package grammar

import "strings"

// Terminal names a grammar token.
type Terminal string

// NonTerminal names a grammar rule.
type NonTerminal string

// EOF is the reserved end-of-input terminal.
const EOF Terminal = "$"

// Symbol is either a Terminal or a NonTerminal.
type Symbol struct {
	name     string
	terminal bool
}

// T returns the terminal symbol name.
func T(name string) Symbol {
	return Symbol{name: name, terminal: true}
}

// NT returns the nonterminal symbol name.
func NT(name string) Symbol {
	return Symbol{name: name}
}

// IsTerminal reports whether s is a terminal.
func (s Symbol) IsTerminal() bool { return s.terminal }

// Name returns the symbol's name.
func (s Symbol) Name() string { return s.name }

// Terminal returns s as a Terminal. Only meaningful if IsTerminal.
func (s Symbol) Terminal() Terminal { return Terminal(s.name) }

// NonTerminal returns s as a NonTerminal. Only meaningful if !IsTerminal.
func (s Symbol) NonTerminal() NonTerminal { return NonTerminal(s.name) }

// String renders terminals quoted and nonterminals bare.
func (s Symbol) String() string {
	if s.terminal {
		return "'" + s.name + "'"
	}
	return s.name
}

// Compare orders symbols: terminals before nonterminals, then by name.
func (s Symbol) Compare(o Symbol) int {
	if s.terminal != o.terminal {
		if s.terminal {
			return -1
		}
		return 1
	}
	return strings.Compare(s.name, o.name)
}

// Production is a rule LHS → RHS. An empty RHS derives the empty string.
type Production struct {
	LHS NonTerminal
	RHS []Symbol
}

// P builds a production.
func P(lhs string, rhs ...Symbol) Production {
	return Production{LHS: NonTerminal(lhs), RHS: rhs}
}

// Compare orders productions by LHS, then RHS lexicographically.
func (p Production) Compare(o Production) int {
	if c := strings.Compare(string(p.LHS), string(o.LHS)); c != 0 {
		return c
	}
	for i := 0; i < len(p.RHS) && i < len(o.RHS); i++ {
		if c := p.RHS[i].Compare(o.RHS[i]); c != 0 {
			return c
		}
	}
	return len(p.RHS) - len(o.RHS)
}

// Equal reports whether p and o are the same rule.
func (p Production) Equal(o Production) bool {
	return p.Compare(o) == 0
}

func (p Production) String() string {
	var sb strings.Builder
	sb.WriteString(string(p.LHS))
	sb.WriteString(" →")
	if len(p.RHS) == 0 {
		sb.WriteString(" ε")
	}
	for _, s := range p.RHS {
		sb.WriteByte(' ')
		sb.WriteString(s.String())
	}
	return sb.String()
}
