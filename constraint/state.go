package constraint

import (
	"cmp"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/coregx/glrmask/dfa"
	"github.com/coregx/glrmask/glr/grammar"
	"github.com/coregx/glrmask/glr/parser"
	"github.com/coregx/glrmask/glr/table"
	"github.com/coregx/glrmask/internal/conv"
	"github.com/coregx/glrmask/nfa"
	"github.com/coregx/glrmask/precompute"
	"github.com/coregx/glrmask/trie"
	"go.uber.org/zap"
)

type leafTrie = trie.Trie[nfa.GroupID, *precompute.Leaf]

// binding maps a tokenizer group to the parse table's terminal.
type binding struct {
	term table.TerminalID
	ok   bool
}

// compiled is the immutable part shared by a State and its clones.
type compiled struct {
	cfg      Config
	logger   *zap.Logger
	tok      *Tokenizer
	tbl      *table.Table
	pre      *precompute.Table
	bindings []binding
}

// branch is one way of reading the text so far: the tokenizer state inside
// the current grammar token and the parser over the finished ones.
type branch struct {
	lex    dfa.StateID
	parser *parser.Parser
}

// State is a grammar constraint at one point of generation. It is not safe
// for concurrent use; clones share arenas and must be used from one
// goroutine.
type State struct {
	c        *compiled
	branches []branch
	mask     *bitset.BitSet
}

// NewFromGrammar builds the parse table for g and indexes vocab against the
// tokenizer. Vocabulary ids are the indexes into vocab.
func NewFromGrammar(tok *Tokenizer, g *grammar.Grammar, vocab [][]byte, cfg Config) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, buildErr(StageConfig, err)
	}
	logger := cfg.logger()

	tbl, err := table.Build(g, table.Options{Logger: logger})
	if err != nil {
		return nil, buildErr(StageTable, err)
	}
	bindings := make([]binding, len(tok.Terminals()))
	for i, term := range tok.Terminals() {
		id, ok := tbl.TerminalID(term)
		if !ok {
			logger.Warn("tokenizer group has no grammar terminal", zap.Int("group", i), zap.String("terminal", string(term)))
		}
		bindings[i] = binding{term: id, ok: ok}
	}
	warnOverlaps(logger, tok)

	pre, err := precompute.Build(tok.Regex(), vocab, precompute.Options{Logger: logger})
	if err != nil {
		return nil, buildErr(StagePrecompute, err)
	}

	logger.Info("grammar constraint ready",
		zap.String("start", string(g.Start())),
		zap.Int("terminals", len(g.Terminals())),
		zap.Int("nonTerminals", len(g.NonTerminals())),
		zap.Int("productions", len(g.Productions())),
		zap.Int("states", tbl.NumStates()),
		zap.Int("conflicts", len(tbl.Conflicts())),
		zap.Int("vocabulary", len(vocab)))

	c := &compiled{cfg: cfg, logger: logger, tok: tok, tbl: tbl, pre: pre, bindings: bindings}
	p := parser.New(tbl, parser.Options{MergeActiveStates: cfg.MergeActiveStates})
	return &State{c: c, branches: []branch{{lex: dfa.StartState, parser: p}}}, nil
}

func warnOverlaps(logger *zap.Logger, tok *Tokenizer) {
	groups := tok.Regex().Groups()
	var literals [][]byte
	var owners []int
	for i, g := range groups {
		if lit, ok := g.Expr.IsLiteral(); ok {
			literals = append(literals, lit)
			owners = append(owners, i)
		}
	}
	overlaps, err := AnalyzeLiteralOverlaps(literals)
	if err != nil {
		logger.Warn("literal overlap analysis failed", zap.Error(err))
		return
	}
	for _, o := range overlaps {
		logger.Warn("literal terminal occurs inside another",
			zap.String("outer", string(tok.Terminal(nfa.GroupID(owners[o.Outer])))),
			zap.String("inner", string(tok.Terminal(nfa.GroupID(owners[o.Inner])))),
			zap.Int("offset", o.Offset))
	}
}

// Table returns the parse table.
func (s *State) Table() *table.Table { return s.c.tbl }

// Precomputed returns the vocabulary index.
func (s *State) Precomputed() *precompute.Table { return s.c.pre }

// Tokenizer returns the tokenizer.
func (s *State) Tokenizer() *Tokenizer { return s.c.tok }

// Branches returns the number of live readings of the text so far.
func (s *State) Branches() int { return len(s.branches) }

// IsDead reports whether no continuation can satisfy the grammar.
func (s *State) IsDead() bool { return len(s.branches) == 0 }

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	out := &State{c: s.c, branches: make([]branch, len(s.branches))}
	for i, b := range s.branches {
		out.branches[i] = branch{lex: b.lex, parser: b.parser.Clone()}
	}
	if s.mask != nil {
		out.mask = s.mask.Clone()
	}
	return out
}

// Mask returns the vocabulary tokens that may be generated next. The
// result belongs to the caller.
func (s *State) Mask() *bitset.BitSet {
	if s.mask == nil {
		s.mask = s.computeMask()
	}
	return s.mask.Clone()
}

// Allowed reports whether vocabulary token id may be generated next.
func (s *State) Allowed(id int) bool {
	if id < 0 || id >= s.c.pre.VocabSize() {
		return false
	}
	if s.mask == nil {
		s.mask = s.computeMask()
	}
	return s.mask.Test(uint(id))
}

func (s *State) computeMask() *bitset.BitSet {
	mask := bitset.New(uint(s.c.pre.VocabSize()))
	for _, b := range s.branches {
		tr := s.c.pre.Trie(b.lex)
		s.visit(tr, tr.Root(), b.parser, true, func(leaf *precompute.Leaf, p *parser.Parser) {
			mask.InPlaceUnion(leaf.Complete)
			if !s.c.cfg.ExactIncomplete {
				mask.InPlaceUnion(leaf.Incomplete)
				return
			}
			for _, g := range leaf.Groups() {
				if s.accepts(p, g) {
					mask.InPlaceUnion(leaf.ByGroup[g].Intersection(leaf.Incomplete))
				}
			}
		})
	}
	return mask
}

// visit walks the trie from n, stepping p over each edge's terminal and
// calling fn at every node where the parser survives. With speculative set,
// parser nodes created during the walk are released afterwards.
func (s *State) visit(tr *leafTrie, n trie.NodeID, p *parser.Parser, speculative bool, fn func(*precompute.Leaf, *parser.Parser)) {
	fn(tr.Value(n), p)
	for _, e := range tr.Children(n) {
		bnd := s.c.bindings[e.Label]
		if !bnd.ok {
			continue
		}
		var mark parser.Mark
		if speculative {
			mark = p.Mark()
		}
		next := p.Clone()
		next.Step(bnd.term)
		if next.IsAlive() {
			s.visit(tr, e.Node, next, speculative, fn)
		}
		if speculative {
			p.Release(mark)
		}
	}
}

func (s *State) accepts(p *parser.Parser, g nfa.GroupID) bool {
	bnd := s.c.bindings[g]
	return bnd.ok && p.Accepts(bnd.term)
}

// pendingViable reports whether a grammar token left unfinished in
// tokenizer state lex may still be accepted by p.
func (s *State) pendingViable(lex dfa.StateID, p *parser.Parser) bool {
	if lex == dfa.StartState || !s.c.cfg.ExactIncomplete {
		return true
	}
	possible := s.c.tok.Regex().DFA().State(lex).PossibleGroupIDs()
	for g, ok := possible.NextSet(0); ok; g, ok = possible.NextSet(g + 1) {
		if s.accepts(p, nfa.GroupID(g)) {
			return true
		}
	}
	return false
}

// Commit advances the state over vocabulary token id, walking only the
// splits of that token. A token outside the mask is rejected and the state
// is left unchanged.
func (s *State) Commit(id int) error {
	if id < 0 || id >= s.c.pre.VocabSize() {
		return ErrUnknownToken
	}
	tid := conv.IntToUint32(id)
	rx := s.c.tok.Regex()
	text := s.c.pre.Token(id)
	return s.advance(func(lex dfa.StateID) *leafTrie {
		return precompute.ExecuteAllFromState(rx, text, tid, lex)
	}, tid)
}

// CommitBytes advances the state over arbitrary text, tokenizing it from
// every branch. Text the grammar cannot continue with is rejected and the
// state is left unchanged.
func (s *State) CommitBytes(text []byte) error {
	rx := s.c.tok.Regex()
	return s.advance(func(lex dfa.StateID) *leafTrie {
		return precompute.ExecuteAllFromState(rx, text, 0, lex)
	}, 0)
}

func (s *State) advance(trieOf func(dfa.StateID) *leafTrie, id uint32) error {
	var next []branch
	for _, b := range s.branches {
		tr := trieOf(b.lex)
		s.visit(tr, tr.Root(), b.parser, false, func(leaf *precompute.Leaf, p *parser.Parser) {
			i, found := slices.BinarySearchFunc(leaf.Ends, id, func(e precompute.End, id uint32) int {
				return cmp.Compare(e.Token, id)
			})
			if !found {
				return
			}
			for ; i < len(leaf.Ends) && leaf.Ends[i].Token == id; i++ {
				lex := leaf.Ends[i].State
				if s.pendingViable(lex, p) {
					next = append(next, branch{lex: lex, parser: p.Clone()})
				}
			}
		})
	}
	if len(next) == 0 {
		return ErrRejected
	}
	s.branches = s.compact(next)
	s.mask = nil
	return nil
}

// compact joins branches with the same tokenizer state and parser position
// and enforces MaxBranches.
func (s *State) compact(bs []branch) []branch {
	type key struct {
		lex dfa.StateID
		pos int
	}
	index := make(map[key]int)
	var out []branch
	for _, b := range bs {
		k := key{b.lex, b.parser.Position()}
		if i, ok := index[k]; ok {
			out[i].parser.Absorb(b.parser)
			continue
		}
		index[k] = len(out)
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b branch) int {
		return cmp.Or(cmp.Compare(a.lex, b.lex), cmp.Compare(a.parser.Position(), b.parser.Position()))
	})
	if limit := s.c.cfg.MaxBranches; len(out) > limit {
		s.c.logger.Warn("dropping constraint branches",
			zap.Int("branches", len(out)),
			zap.Int("max", limit))
		out = out[:limit]
	}
	return out
}

// CanEnd reports whether the text so far is a complete sentence, finishing
// a pending grammar token if needed.
func (s *State) CanEnd() bool {
	eof := s.c.tbl.EOF()
	for _, b := range s.branches {
		if b.lex == dfa.StartState {
			if b.parser.Accepts(eof) {
				return true
			}
			continue
		}
		for _, g := range s.c.tok.Regex().DFA().State(b.lex).Finalizers() {
			bnd := s.c.bindings[g]
			if !bnd.ok {
				continue
			}
			mark := b.parser.Mark()
			p := b.parser.Clone()
			p.Step(bnd.term)
			ok := p.IsAlive() && p.Accepts(eof)
			b.parser.Release(mark)
			if ok {
				return true
			}
		}
	}
	return false
}
