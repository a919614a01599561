package nfa

// GroupID identifies a finalizer group. It is the group's index in Groups.
type GroupID uint32

// Group is an expression tagged as one finalizer of a multi-group automaton.
//
// Greedy groups record the last position at which they finalize, non-greedy
// groups keep the first. When several groups finalize in the same automaton
// state only those with the highest Precedence are reported.
type Group struct {
	Expr       *Expr
	Greedy     bool
	Precedence int
}

// NewGroup returns a greedy group with precedence 0.
func NewGroup(e *Expr) Group {
	return Group{Expr: e, Greedy: true}
}

// Lazy returns a non-greedy group with precedence 0.
func Lazy(e *Expr) Group {
	return Group{Expr: e}
}

// WithPrecedence returns a copy of g with the given precedence.
func (g Group) WithPrecedence(p int) Group {
	g.Precedence = p
	return g
}

// Groups is an ordered list of finalizer groups.
type Groups []Group

// GroupsOf wraps each expression in a greedy group, in order.
func GroupsOf(es ...*Expr) Groups {
	gs := make(Groups, len(es))
	for i, e := range es {
		gs[i] = NewGroup(e)
	}
	return gs
}
