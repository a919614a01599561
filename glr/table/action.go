package table

import "fmt"

// Dense identifiers assigned by the final stage in canonical order.
type (
	StateID       uint32
	TerminalID    uint32
	NonTerminalID uint32
	ProductionID  uint32
	ReduceID      uint32
	SplitID       uint32
)

// InvalidState marks a missing goto.
const InvalidState StateID = 0xFFFFFFFF

// ActionKind identifies the variant of an Action
type ActionKind uint8

const (
	// ActionNone is the zero Action: no entry in the table
	ActionNone ActionKind = iota

	// ActionShift pushes the target state
	ActionShift

	// ActionReduce pops a right-hand side and follows a goto
	ActionReduce

	// ActionSplit holds an unresolved conflict, explored by forking
	ActionSplit

	// ActionAccept reduces the augmented start production on end of input
	ActionAccept
)

// String returns a human-readable action kind name
func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "None"
	case ActionShift:
		return "Shift"
	case ActionReduce:
		return "Reduce"
	case ActionSplit:
		return "Split"
	case ActionAccept:
		return "Accept"
	default:
		return fmt.Sprintf("UnknownActionKind(%d)", k)
	}
}

// Action is one table entry. It is a small comparable value; its argument is
// a StateID, ReduceID or SplitID depending on Kind.
type Action struct {
	Kind ActionKind
	Arg  uint32
}

// Shift returns a shift to target.
func Shift(target StateID) Action { return Action{Kind: ActionShift, Arg: uint32(target)} }

// ReduceAction returns a reduce by the interned reduction r.
func ReduceAction(r ReduceID) Action { return Action{Kind: ActionReduce, Arg: uint32(r)} }

// SplitAction returns a split on the interned conflict s.
func SplitAction(s SplitID) Action { return Action{Kind: ActionSplit, Arg: uint32(s)} }

// Accept is the accept action.
var Accept = Action{Kind: ActionAccept}

// Target returns the shift target of a Shift action.
func (a Action) Target() StateID { return StateID(a.Arg) }

// ReduceID returns the reduction of a Reduce action.
func (a Action) ReduceID() ReduceID { return ReduceID(a.Arg) }

// SplitID returns the conflict of a Split action.
func (a Action) SplitID() SplitID { return SplitID(a.Arg) }

func (a Action) String() string {
	switch a.Kind {
	case ActionShift:
		return fmt.Sprintf("s%d", a.Arg)
	case ActionReduce:
		return fmt.Sprintf("r%d", a.Arg)
	case ActionSplit:
		return fmt.Sprintf("x%d", a.Arg)
	case ActionAccept:
		return "acc"
	default:
		return ""
	}
}

// Reduce is one reduction: pop Len symbols, then goto on NonTerminal. Every
// production in Productions justifies it; the table cannot tell them apart.
type Reduce struct {
	NonTerminal NonTerminalID
	Len         int
	Productions []ProductionID
}

// Split is a preserved shift/reduce or reduce/reduce conflict.
type Split struct {
	// Shift is the shift target, valid if HasShift.
	Shift    StateID
	HasShift bool

	// Reduces are ordered by (Len, NonTerminal).
	Reduces []ReduceID

	// Accept is set when the augmented start production also completes.
	Accept bool
}

// Conflict locates one Split entry.
type Conflict struct {
	State    StateID
	Terminal TerminalID
	Split    SplitID
}
