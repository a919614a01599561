package parser

import "github.com/coregx/glrmask/glr/table"

// levelKey identifies a node built by a reduction in the current step.
type levelKey struct {
	state  table.StateID
	reduce table.ReduceID
}

// stepper holds the bookkeeping of one wavefront.
type stepper struct {
	p    *Parser
	term table.TerminalID

	queue   []ParseState
	level   map[levelKey]ParseState
	order   []levelKey
	shifted map[ParseState]bool
	next    []ParseState

	stopped     []Inactive
	stoppedSeen map[Inactive]bool
}

// Step advances every active branch over term. Reductions are applied until
// each branch either shifts term, accepts, or stops; the branches that
// shifted become the new active set.
func (p *Parser) Step(term table.TerminalID) {
	p.stacks.BeginLevel()
	p.actions.BeginLevel()

	s := &stepper{
		p:           p,
		term:        term,
		queue:       append([]ParseState(nil), p.active...),
		level:       make(map[levelKey]ParseState),
		shifted:     make(map[ParseState]bool),
		stoppedSeen: make(map[Inactive]bool),
	}
	for len(s.queue) > 0 {
		st := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		s.process(st)
	}

	p.active = s.next
	if len(s.stopped) > 0 {
		p.history = &inactiveRecord{pos: p.pos, states: s.stopped, prev: p.history}
	}
	p.pos++
	if p.opts.MergeActiveStates {
		p.MergeActiveStates()
	}
}

func (s *stepper) process(st ParseState) {
	tbl := s.p.tbl
	act, ok := tbl.Action(s.p.stacks.Value(st.Stack), s.term)
	if !ok {
		s.stop(st, ActionNotFound)
		return
	}
	switch act.Kind {
	case table.ActionShift:
		s.shift(st, act.Target())
	case table.ActionReduce:
		s.reduce(st, act.ReduceID())
	case table.ActionAccept:
		s.accept(st)
	case table.ActionSplit:
		sp := tbl.Split(act.SplitID())
		if sp.HasShift {
			s.shift(st, sp.Shift)
		}
		for _, r := range sp.Reduces {
			s.reduce(st, r)
		}
		if sp.Accept {
			s.accept(st)
		}
	}
}

func (s *stepper) stop(st ParseState, reason Reason) {
	in := Inactive{ParseState: st, Reason: reason, Terminal: s.term}
	if s.stoppedSeen[in] {
		return
	}
	s.stoppedSeen[in] = true
	s.stopped = append(s.stopped, in)
}

func (s *stepper) shift(st ParseState, target table.StateID) {
	if s.shifted[st] {
		return
	}
	s.shifted[st] = true
	s.next = append(s.next, ParseState{
		Stack:   s.p.stacks.Push(st.Stack, target),
		Actions: s.p.actions.Push(st.Actions, table.Shift(target)),
	})
}

func (s *stepper) accept(st ParseState) {
	s.stop(st, Accepted)
}

// reduce pops the reduction's length from st and pushes the goto state on
// every base. Results with the same goto state and reduction share a node;
// a new edge into a shared node re-enqueues the level, since reductions
// through that node can now reach more bases.
func (s *stepper) reduce(st ParseState, rid table.ReduceID) {
	p := s.p
	r := p.tbl.Reduce(rid)
	grew := false
	for _, base := range p.stacks.PopN(st.Stack, r.Len) {
		g, ok := p.tbl.Goto(p.stacks.Value(base), r.NonTerminal)
		if !ok {
			s.stop(ParseState{Stack: base, Actions: st.Actions}, GotoNotFound)
			continue
		}
		k := levelKey{state: g, reduce: rid}
		ls, exists := s.level[k]
		if !exists {
			ls = ParseState{
				Stack:   p.stacks.Push(base, g),
				Actions: p.actions.Push(st.Actions, table.ReduceAction(rid)),
			}
			s.level[k] = ls
			s.order = append(s.order, k)
			s.queue = append(s.queue, ls)
			continue
		}
		p.actions.AddParent(ls.Actions, st.Actions)
		if p.stacks.AddParent(ls.Stack, base) {
			grew = true
		}
	}
	if grew {
		for _, k := range s.order {
			s.queue = append(s.queue, s.level[k])
		}
	}
}
