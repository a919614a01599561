package dfa

import (
	"maps"
	"math/rand"
	"testing"

	"github.com/coregx/glrmask/internal/u8set"
	"github.com/coregx/glrmask/nfa"
)

// run executes d over input with the same recording rules as NFA simulation.
func run(d *DFA, input []byte) map[nfa.GroupID]int {
	matches := make(map[nfa.GroupID]int)
	record := func(s *State, pos int) {
		for _, g := range s.Finalizers() {
			if _, seen := matches[g]; seen && !d.Groups()[g].Greedy {
				continue
			}
			matches[g] = pos
		}
	}
	cur := d.Start()
	record(cur, 0)
	for i, b := range input {
		next, ok := cur.Transition(b)
		if !ok {
			break
		}
		cur = d.State(next)
		record(cur, i+1)
	}
	return matches
}

func TestBuildBasic(t *testing.T) {
	d := Build(nfa.MustCompile(nfa.GroupsOf(nfa.Byte('a'), nfa.Seq(nfa.Byte('a'), nfa.Byte('a')))))
	if d.Start().ID() != StartState {
		t.Fatalf("start id = %d", d.Start().ID())
	}
	if got := run(d, []byte("aa")); !maps.Equal(got, map[nfa.GroupID]int{0: 1, 1: 2}) {
		t.Errorf("run(aa) = %v", got)
	}

	s1, ok := d.Next(StartState, 'a')
	if !ok {
		t.Fatal("missing transition on 'a'")
	}
	if got := d.State(s1).Finalizers(); len(got) != 1 || got[0] != 0 {
		t.Errorf("finalizers after 'a' = %v, want [0]", got)
	}
	s2, _ := d.Next(s1, 'a')
	if !d.State(s2).IsDead() {
		t.Error("state after 'aa' should be dead")
	}
	if _, ok := d.Next(StartState, 'b'); ok {
		t.Error("unexpected transition on 'b'")
	}
	if d.State(StateID(d.Len())) != nil {
		t.Error("State out of range should be nil")
	}
}

func TestPossibleGroupIDs(t *testing.T) {
	d := Build(nfa.MustCompile(nfa.GroupsOf(nfa.Literal("ab"), nfa.Literal("ac"), nfa.Literal("d"))))
	start := d.Start()
	for g := nfa.GroupID(0); g < 3; g++ {
		if !start.CanFinalize(g) {
			t.Errorf("start should be able to finalize %d", g)
		}
	}
	a, _ := d.Next(StartState, 'a')
	sa := d.State(a)
	if sa.CanFinalize(2) {
		t.Error("after 'a' group 2 should be impossible")
	}
	if got := sa.PossibleGroupIDs().Count(); got != 2 {
		t.Errorf("possible after 'a' = %d groups, want 2", got)
	}

	if got := start.BytesToward(0); got != u8set.Of('a') {
		t.Errorf("BytesToward(0) = %v, want [a]", got)
	}
	if got := start.BytesToward(2); got != u8set.Of('d') {
		t.Errorf("BytesToward(2) = %v, want [d]", got)
	}
	if got := sa.BytesToward(1); got != u8set.Of('c') {
		t.Errorf("after 'a' BytesToward(1) = %v, want [c]", got)
	}
	if _, ok := sa.GroupIDToU8Set()[2]; ok {
		t.Error("group 2 should be absent after 'a'")
	}
}

func TestNeverFinalizes(t *testing.T) {
	d := Build(nfa.MustCompile(nfa.GroupsOf(nfa.Choice())))
	if d.Start().PossibleGroupIDs().Any() {
		t.Error("empty choice should have no possible groups")
	}
	if !d.Start().IsDead() {
		t.Error("start should be dead")
	}
}

func TestPrecedence(t *testing.T) {
	groups := nfa.Groups{
		nfa.NewGroup(nfa.Literal("if")).WithPrecedence(1),
		nfa.NewGroup(nfa.Plus(nfa.ByteRange('a', 'z'))),
	}
	d := Build(nfa.MustCompile(groups))
	s := StartState
	for _, b := range []byte("if") {
		s, _ = d.Next(s, b)
	}
	if got := d.State(s).Finalizers(); len(got) != 1 || got[0] != 0 {
		t.Errorf("finalizers after 'if' = %v, want [0]", got)
	}
	// The identifier can still finalize on a longer word.
	if !d.State(s).CanFinalize(1) {
		t.Error("group 1 should stay possible after 'if'")
	}
}

func TestDeterministicBuild(t *testing.T) {
	groups := nfa.GroupsOf(nfa.Plus(nfa.ByteRange('0', '9')), nfa.Seq(nfa.Literal("0x"), nfa.Plus(nfa.ByteRange('a', 'f'))))
	a := Build(nfa.MustCompile(groups)).String()
	b := Build(nfa.MustCompile(groups)).String()
	if a != b {
		t.Errorf("builds differ:\n%s\n%s", a, b)
	}
}

// randomExpr builds a small expression over the alphabet {a, b, c}.
func randomExpr(r *rand.Rand, depth int) *nfa.Expr {
	if depth == 0 {
		switch r.Intn(3) {
		case 0:
			return nfa.Byte("abc"[r.Intn(3)])
		case 1:
			return nfa.ByteRange('a', "abc"[r.Intn(3)])
		default:
			return nfa.Literal([]string{"ab", "ba", "c", "aa"}[r.Intn(4)])
		}
	}
	switch r.Intn(6) {
	case 0:
		return nfa.Star(randomExpr(r, depth-1))
	case 1:
		return nfa.Plus(randomExpr(r, depth-1))
	case 2:
		return nfa.Opt(randomExpr(r, depth-1))
	case 3:
		return nfa.Choice(randomExpr(r, depth-1), randomExpr(r, depth-1))
	case 4:
		return nfa.Seq(randomExpr(r, depth-1), randomExpr(r, depth-1))
	default:
		return randomExpr(r, 0)
	}
}

func TestDFAMatchesNFASimulation(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for iter := 0; iter < 200; iter++ {
		var groups nfa.Groups
		for i := 0; i < 1+r.Intn(3); i++ {
			g := nfa.NewGroup(randomExpr(r, 3))
			if r.Intn(3) == 0 {
				g.Greedy = false
			}
			g.Precedence = r.Intn(2)
			groups = append(groups, g)
		}
		n := nfa.MustCompile(groups)
		d := Build(n)
		for k := 0; k < 10; k++ {
			input := make([]byte, r.Intn(8))
			for i := range input {
				input[i] = "abcd"[r.Intn(4)]
			}
			want := n.Simulate(input)
			if got := run(d, input); !maps.Equal(got, want) {
				t.Fatalf("iter %d input %q: dfa %v, nfa %v", iter, input, got, want)
			}
		}
	}
}

func TestPossibleIsFixpointSuperset(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for iter := 0; iter < 100; iter++ {
		groups := nfa.GroupsOf(randomExpr(r, 3), randomExpr(r, 3), randomExpr(r, 2))
		d := Build(nfa.MustCompile(groups))
		for id := 0; id < d.Len(); id++ {
			s := d.State(StateID(id))
			for _, g := range s.Finalizers() {
				if !s.CanFinalize(g) {
					t.Fatalf("state %d: finalizer %d not possible", id, g)
				}
			}
			for b := 0; b < 256; b++ {
				next, ok := s.Transition(byte(b))
				if !ok {
					continue
				}
				if !s.PossibleGroupIDs().IsSuperSet(d.State(next).PossibleGroupIDs()) {
					t.Fatalf("state %d -> %d on %q: possible not a superset", id, next, byte(b))
				}
			}
		}
	}
}
