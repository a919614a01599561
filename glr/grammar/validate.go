package grammar

// validate rejects grammars the table builder cannot handle. Checks run in
// a fixed order and report the first offending symbol in sorted order.
func (g *Grammar) validate() error {
	if len(g.productions) == 0 {
		return newError(ErrEmptyGrammar, "")
	}

	for _, t := range g.terminals {
		if t == EOF {
			return newError(ErrReservedName, string(t))
		}
	}
	for _, nt := range g.nonTerminals {
		if nt == NonTerminal(EOF) || nt == g.augmented.LHS {
			return newError(ErrReservedName, string(nt))
		}
	}

	if len(g.byLHS[g.start]) == 0 {
		return newError(ErrUndefinedStart, string(g.start))
	}
	for _, nt := range g.nonTerminals {
		if len(g.byLHS[nt]) == 0 {
			return newError(ErrUndefinedNonTerminal, string(nt))
		}
	}

	productive := g.productive()
	for _, nt := range g.nonTerminals {
		if !productive[nt] {
			return newError(ErrUnproductive, string(nt))
		}
	}

	reachable := g.reachable()
	for _, nt := range g.nonTerminals {
		if !reachable[nt] {
			return newError(ErrUnreachable, string(nt))
		}
	}

	g.computeNullable()
	if nt, ok := g.findCycle(); ok {
		return newError(ErrCyclic, string(nt))
	}
	return nil
}

// productive returns the nonterminals that derive some terminal string.
func (g *Grammar) productive() map[NonTerminal]bool {
	productive := make(map[NonTerminal]bool)
	for changed := true; changed; {
		changed = false
		for _, p := range g.productions {
			if productive[p.LHS] {
				continue
			}
			ok := true
			for _, s := range p.RHS {
				if !s.IsTerminal() && !productive[s.NonTerminal()] {
					ok = false
					break
				}
			}
			if ok {
				productive[p.LHS] = true
				changed = true
			}
		}
	}
	return productive
}

// reachable returns the nonterminals derivable from the start symbol.
func (g *Grammar) reachable() map[NonTerminal]bool {
	reachable := map[NonTerminal]bool{g.start: true}
	stack := []NonTerminal{g.start}
	for len(stack) > 0 {
		nt := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.byLHS[nt] {
			for _, s := range p.RHS {
				if s.IsTerminal() || reachable[s.NonTerminal()] {
					continue
				}
				reachable[s.NonTerminal()] = true
				stack = append(stack, s.NonTerminal())
			}
		}
	}
	return reachable
}

// findCycle looks for A ⇒+ A. A derives B in one unit step if some
// production A → α B β has nullable α and β; a cycle in that relation is a
// cyclic derivation.
func (g *Grammar) findCycle() (NonTerminal, bool) {
	unit := make(map[NonTerminal][]NonTerminal)
	for _, p := range g.productions {
		for i, s := range p.RHS {
			if s.IsTerminal() {
				continue
			}
			if g.sequenceNullable(p.RHS[:i]) && g.sequenceNullable(p.RHS[i+1:]) {
				unit[p.LHS] = append(unit[p.LHS], s.NonTerminal())
			}
		}
	}

	const (
		unvisited = iota
		onStack
		finished
	)
	color := make(map[NonTerminal]int)
	var visit func(nt NonTerminal) (NonTerminal, bool)
	visit = func(nt NonTerminal) (NonTerminal, bool) {
		color[nt] = onStack
		for _, next := range unit[nt] {
			switch color[next] {
			case onStack:
				return next, true
			case unvisited:
				if c, ok := visit(next); ok {
					return c, true
				}
			}
		}
		color[nt] = finished
		return "", false
	}
	for _, nt := range g.nonTerminals {
		if color[nt] == unvisited {
			if c, ok := visit(nt); ok {
				return c, true
			}
		}
	}
	return "", false
}
