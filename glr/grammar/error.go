package grammar

import "fmt"

// ErrorKind classifies grammar validation errors
type ErrorKind uint8

const (
	// EmptyGrammar indicates there are no productions at all
	EmptyGrammar ErrorKind = iota

	// UndefinedStart indicates the start symbol has no productions
	UndefinedStart

	// UndefinedNonTerminal indicates a referenced nonterminal has no productions
	UndefinedNonTerminal

	// Unproductive indicates a nonterminal derives no terminal string
	Unproductive

	// Unreachable indicates a nonterminal cannot be derived from the start
	Unreachable

	// Cyclic indicates a nonterminal derives itself (A ⇒+ A)
	Cyclic

	// ReservedName indicates use of the end marker or the augmented start
	ReservedName
)

// String returns a human-readable error kind name
func (k ErrorKind) String() string {
	switch k {
	case EmptyGrammar:
		return "EmptyGrammar"
	case UndefinedStart:
		return "UndefinedStart"
	case UndefinedNonTerminal:
		return "UndefinedNonTerminal"
	case Unproductive:
		return "Unproductive"
	case Unreachable:
		return "Unreachable"
	case Cyclic:
		return "Cyclic"
	case ReservedName:
		return "ReservedName"
	default:
		return fmt.Sprintf("UnknownErrorKind(%d)", k)
	}
}

// Sentinels for errors.Is. Any *GrammarError of the same Kind matches.
var (
	ErrEmptyGrammar         = &GrammarError{Kind: EmptyGrammar, Message: "grammar has no productions"}
	ErrUndefinedStart       = &GrammarError{Kind: UndefinedStart, Message: "start symbol has no productions"}
	ErrUndefinedNonTerminal = &GrammarError{Kind: UndefinedNonTerminal, Message: "nonterminal has no productions"}
	ErrUnproductive         = &GrammarError{Kind: Unproductive, Message: "nonterminal derives no terminal string"}
	ErrUnreachable          = &GrammarError{Kind: Unreachable, Message: "nonterminal is unreachable from the start symbol"}
	ErrCyclic               = &GrammarError{Kind: Cyclic, Message: "nonterminal derives itself"}
	ErrReservedName         = &GrammarError{Kind: ReservedName, Message: "reserved symbol name"}
)

// GrammarError reports why a grammar was rejected
type GrammarError struct {
	Kind    ErrorKind
	Symbol  string // offending symbol, if any
	Message string
}

// Error implements the error interface
func (e *GrammarError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("grammar: %s: %s", e.Symbol, e.Message)
	}
	return "grammar: " + e.Message
}

// Is matches any *GrammarError with the same Kind
func (e *GrammarError) Is(target error) bool {
	t, ok := target.(*GrammarError)
	return ok && t.Kind == e.Kind
}

func newError(sentinel *GrammarError, symbol string) *GrammarError {
	return &GrammarError{Kind: sentinel.Kind, Symbol: symbol, Message: sentinel.Message}
}
