// Package precompute indexes a vocabulary of byte strings against a
// tokenizer.
//
// For every tokenizer state and every vocabulary token, the token's bytes
// are run through the tokenizer, recording each way they split into grammar
// tokens. The results for all tokens are merged into one trie per state.
// Each trie node carries bitsets over the vocabulary, so the set of
// vocabulary tokens admissible after a given sequence of grammar tokens is a
// union of precomputed bitsets rather than a replay of the tokenizer.
package precompute

import (
	"errors"
	"time"

	"github.com/coregx/glrmask/dfa"
	"github.com/coregx/glrmask/internal/conv"
	"github.com/coregx/glrmask/nfa"
	"github.com/coregx/glrmask/regex"
	"github.com/coregx/glrmask/trie"
	"go.uber.org/zap"
)

var (
	// ErrEmptyMatch is returned when the tokenizer matches the empty string,
	// which would let one vocabulary token produce unboundedly many grammar
	// tokens.
	ErrEmptyMatch = errors.New("precompute: tokenizer matches the empty string")

	// ErrNilRegex is returned when Build is given no tokenizer.
	ErrNilRegex = errors.New("precompute: nil tokenizer")
)

// Options configures Build.
type Options struct {
	// Logger receives build statistics. Nil means no logging.
	Logger *zap.Logger
}

// Stats summarizes a built Table.
type Stats struct {
	States int
	Tokens int
	Nodes  int
	Ends   int
}

// Table holds one trie per tokenizer state.
type Table struct {
	rx        *regex.Regex
	vocab     [][]byte
	vocabSize int
	tries     []*trie.Trie[nfa.GroupID, *Leaf]
	stats     Stats
}

// Build runs every vocabulary token from every tokenizer state and indexes
// the results. Vocabulary ids are the indexes into vocab.
func Build(rx *regex.Regex, vocab [][]byte, opts Options) (*Table, error) {
	if rx == nil {
		return nil, ErrNilRegex
	}
	if rx.MatchesEmpty() {
		return nil, ErrEmptyMatch
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	began := time.Now()
	d := rx.DFA()
	n := uint(len(vocab))
	t := &Table{
		rx:        rx,
		vocab:     vocab,
		vocabSize: len(vocab),
		tries:     make([]*trie.Trie[nfa.GroupID, *Leaf], d.Len()),
		stats:     Stats{States: d.Len(), Tokens: len(vocab)},
	}
	for s := range t.tries {
		from := dfa.StateID(s)
		acc := trie.New[nfa.GroupID](&Leaf{})
		for id, tok := range vocab {
			one := ExecuteAllFromState(rx, tok, conv.IntToUint32(id), from)
			if len(one.Children(one.Root())) == 0 && len(one.Value(one.Root()).Ends) == 0 {
				continue
			}
			trie.Merge(acc, one, combineLeaves)
		}

		nodes := 0
		acc.Each(func(node trie.NodeID) {
			acc.Value(node).index(d, n)
			nodes++
			t.stats.Ends += len(acc.Value(node).Ends)
		})
		t.stats.Nodes += nodes
		t.tries[s] = acc
		logger.Debug("precomputed tokenizer state",
			zap.Int("state", s),
			zap.Int("nodes", nodes),
			zap.Int("rootEnds", len(acc.Value(acc.Root()).Ends)))
	}

	logger.Info("vocabulary precomputed",
		zap.Int("vocabulary", t.stats.Tokens),
		zap.Int("states", t.stats.States),
		zap.Int("nodes", t.stats.Nodes),
		zap.Int("ends", t.stats.Ends),
		zap.Duration("took", time.Since(began)))
	return t, nil
}

// Regex returns the tokenizer the table was built for.
func (t *Table) Regex() *regex.Regex { return t.rx }

// Trie returns the trie for a tokenizer state.
func (t *Table) Trie(state dfa.StateID) *trie.Trie[nfa.GroupID, *Leaf] {
	return t.tries[state]
}

// States returns the number of tokenizer states indexed.
func (t *Table) States() int { return len(t.tries) }

// VocabSize returns the number of vocabulary tokens.
func (t *Table) VocabSize() int { return t.vocabSize }

// Token returns the bytes of vocabulary token id. The slice is shared with
// the vocabulary passed to Build and must not be modified.
func (t *Table) Token(id int) []byte { return t.vocab[id] }

// Stats returns build statistics.
func (t *Table) Stats() Stats { return t.stats }
