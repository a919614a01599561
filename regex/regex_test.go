package regex

import (
	"maps"
	"slices"
	"testing"

	"github.com/coregx/glrmask/dfa"
	"github.com/coregx/glrmask/nfa"
)

func TestExecuteOverlappingGroups(t *testing.T) {
	rx := MustBuild(nfa.GroupsOf(nfa.Byte('a'), nfa.Seq(nfa.Byte('a'), nfa.Byte('a'))))
	s := rx.Init()
	s.Execute([]byte("aa"))
	want := map[nfa.GroupID]int{0: 1, 1: 2}
	if got := s.Matches().Map(); !maps.Equal(got, want) {
		t.Errorf("matches = %v, want %v", got, want)
	}
	if !s.Done() {
		t.Error("state should be done after reaching a dead state")
	}
	if s.Position() != 2 {
		t.Errorf("Position() = %d, want 2", s.Position())
	}
}

func TestExecuteIncremental(t *testing.T) {
	rx := MustBuild(nfa.GroupsOf(nfa.Plus(nfa.ByteRange('0', '9'))))
	s := rx.Init()
	s.Execute([]byte("12"))
	s.Execute([]byte("3"))
	if pos, ok := s.Matches().Get(0); !ok || pos != 3 {
		t.Errorf("Get(0) = %d, %v, want 3, true", pos, ok)
	}
	if s.Done() {
		t.Error("digits can continue")
	}
	s.Execute([]byte("x45"))
	if !s.Done() {
		t.Error("state should be done after a missing transition")
	}
	if pos, _ := s.Matches().Get(0); pos != 3 || s.Position() != 3 {
		t.Errorf("after stop: match %d, position %d, want 3, 3", pos, s.Position())
	}
}

func TestExecuteLazy(t *testing.T) {
	rx := MustBuild(nfa.Groups{nfa.Lazy(nfa.Plus(nfa.Byte('a'))), nfa.NewGroup(nfa.Plus(nfa.Byte('a')))})
	s := rx.Init()
	s.Execute([]byte("aaa"))
	want := map[nfa.GroupID]int{0: 1, 1: 3}
	if got := s.Matches().Map(); !maps.Equal(got, want) {
		t.Errorf("matches = %v, want %v", got, want)
	}
}

func TestZeroWidthGroup(t *testing.T) {
	rx := MustBuild(nfa.GroupsOf(nfa.Epsilon(), nfa.Literal("x")))
	if !rx.MatchesEmpty() {
		t.Error("MatchesEmpty() = false, want true")
	}
	s := rx.Init()
	if pos, ok := s.Matches().Get(0); !ok || pos != 0 {
		t.Errorf("epsilon group at %d, %v, want 0, true", pos, ok)
	}

	if MustBuild(nfa.GroupsOf(nfa.Literal("x"))).MatchesEmpty() {
		t.Error("literal should not match empty")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	rx := MustBuild(nfa.GroupsOf(nfa.Literal("ab"), nfa.Literal("a")))
	s := rx.Init()
	s.Execute([]byte("a"))
	c := s.Clone()
	c.Execute([]byte("b"))
	if s.Matches().Len() != 1 || c.Matches().Len() != 2 {
		t.Errorf("original %v, clone %v", s.Matches(), c.Matches())
	}
	if s.Position() != 1 {
		t.Errorf("original position = %d", s.Position())
	}
}

func TestInitAt(t *testing.T) {
	rx := MustBuild(nfa.GroupsOf(nfa.Literal("a"), nfa.Literal("abc")))
	a, _ := rx.DFA().Next(dfa.StartState, 'a')
	s := rx.InitAt(a)
	if pos, ok := s.Matches().Get(0); !ok || pos != 0 {
		t.Errorf("group 0 at %d, %v, want 0, true", pos, ok)
	}
	s.Execute([]byte("bc"))
	if pos, _ := s.Matches().Get(1); pos != 2 {
		t.Errorf("group 1 at %d, want 2", pos)
	}
}

func TestExecuteAll(t *testing.T) {
	rx := MustBuild(nfa.GroupsOf(nfa.Literal("a"), nfa.Literal("b"), nfa.Literal("ab"), nfa.Literal("abc")))

	res := rx.ExecuteAll(dfa.StartState, []byte("ab"))
	want := []Match{{Group: 0, Position: 1}, {Group: 2, Position: 2}}
	if !slices.Equal(res.Matches, want) {
		t.Errorf("Matches = %v, want %v", res.Matches, want)
	}
	if !res.Complete {
		t.Fatal("ab should be consumed completely")
	}
	if !rx.DFA().State(res.End).CanFinalize(3) {
		t.Error("end state should still admit abc")
	}

	res = rx.ExecuteAll(dfa.StartState, []byte("bc"))
	if res.Complete {
		t.Error("bc should stop at c")
	}
	if !slices.Equal(res.Matches, []Match{{Group: 1, Position: 1}}) {
		t.Errorf("Matches = %v", res.Matches)
	}
}

func TestMatchesString(t *testing.T) {
	var m Matches
	if m.String() != "{}" || m.Len() != 0 {
		t.Errorf("zero Matches = %q", m.String())
	}
	m.record(2, 5, true)
	m.record(1, 3, false)
	m.record(1, 4, false)
	if got := m.String(); got != "{1:3, 2:5}" {
		t.Errorf("String() = %q", got)
	}
}
