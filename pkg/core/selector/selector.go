// Package selector draws actor pairs that match a requested difficulty.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
	"github.com/sanonone/castchain/pkg/metrics"
)

const (
	// InitialAttempts is the budget for the first round of a session.
	InitialAttempts = 8
	// ReplayAttempts is the budget for "play again".
	ReplayAttempts = 5
)

// Classifier is the oracle as seen by the selector.
type Classifier interface {
	Classify(ctx context.Context, startID, endID int64) (types.Classification, error)
}

// Selection is the outcome of one Select call.
// Matched is false when the budget ran out and Pair is the last pair drawn.
type Selection struct {
	Pair           types.ActorPair      `json:"pair"`
	Classification types.Classification `json:"classification"`
	Attempts       int                  `json:"attempts"`
	Matched        bool                 `json:"matched"`
}

// Selector draws pairs uniformly at random and classifies them one at a time.
type Selector struct {
	oracle Classifier
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a selector using rng for draws. A nil rng selects a randomly seeded one.
func New(oracle Classifier, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{oracle: oracle, rng: rng, logger: slog.Default()}
}

// NewSeeded returns a selector whose draws are fully determined by seed.
func NewSeeded(oracle Classifier, seed uint64) *Selector {
	return New(oracle, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Select draws up to maxAttempts distinct-actor pairs from pool and returns the
// first whose classification d accepts. When none matches, the last drawn pair
// is returned with Matched=false; that is not an error.
//
// A classification error aborts the selection at once: it is never counted as
// a mismatch, so an outage cannot pass for a hard pair.
func (s *Selector) Select(ctx context.Context, pool []types.PoolActor, d types.Difficulty, maxAttempts int) (Selection, error) {
	if _, err := types.ParseDifficulty(string(d)); err != nil {
		return Selection{}, err
	}
	if len(pool) < 2 {
		return Selection{}, errs.InvalidInput(fmt.Sprintf("pool has %d actors, need at least 2", len(pool)))
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var sel Selection
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pair := s.draw(pool)

		c, err := s.oracle.Classify(ctx, pair.Start.ID, pair.End.ID)
		if err != nil {
			return Selection{}, fmt.Errorf("select %s pair, attempt %d: %w", d, attempt, err)
		}

		sel = Selection{Pair: pair, Classification: c, Attempts: attempt, Matched: d.Accepts(c)}
		if sel.Matched {
			break
		}
	}

	metrics.SelectionAttempts.WithLabelValues(string(d), strconv.FormatBool(sel.Matched)).Observe(float64(sel.Attempts))
	if !sel.Matched {
		s.logger.Info("no pair matched difficulty, using last draw",
			"difficulty", d, "attempts", sel.Attempts,
			"start", sel.Pair.Start.ID, "end", sel.Pair.End.ID)
	}
	return sel, nil
}

// draw picks two distinct indexes uniformly.
func (s *Selector) draw(pool []types.PoolActor) types.ActorPair {
	s.mu.Lock()
	i := s.rng.IntN(len(pool))
	j := s.rng.IntN(len(pool) - 1)
	s.mu.Unlock()
	if j >= i {
		j++
	}
	return types.ActorPair{Start: pool[i], End: pool[j]}
}
