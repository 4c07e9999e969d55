// Package chain checks a finished chain of actors and media works and scores it.
package chain

import (
	"context"
	"fmt"

	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
)

// SoftLimit is the number of steps after which the game nudges the player to give up.
const SoftLimit = 10

// MembershipChecker is the move validator.
type MembershipChecker interface {
	IsMember(ctx context.Context, actorID, mediaID int64, category types.Category) (bool, error)
}

// Chain is an alternating sequence actor, media, actor, ..., actor.
type Chain struct {
	Links []types.Link `json:"links"`
}

// Result is the outcome of Verify.
// FailedAt is the index of the first actor link not credited in its neighbouring
// media, or -1 when the chain is valid.
type Result struct {
	Valid    bool   `json:"valid"`
	FailedAt int    `json:"failedAt"`
	Steps    int    `json:"steps"`
	Score    string `json:"score,omitempty"`
}

// Validate checks the shape of the chain: it must start and end with an actor,
// alternate kinds, and carry positive ids and valid media categories.
// start and end are the round's fixed actors; 0 skips the check.
func (c Chain) Validate(start, end int64) error {
	n := len(c.Links)
	if n < 3 || n%2 == 0 {
		return errs.InvalidInput(fmt.Sprintf("chain must have an odd length of at least 3, got %d", n))
	}
	for i, l := range c.Links {
		want := types.LinkActor
		if i%2 == 1 {
			want = types.LinkMedia
		}
		if l.Kind != want {
			return errs.InvalidInput(fmt.Sprintf("link %d: expected %s, got %q", i, want, l.Kind))
		}
		if l.ID <= 0 {
			return errs.InvalidInput(fmt.Sprintf("link %d: invalid id %d", i, l.ID))
		}
		if want == types.LinkMedia && !l.Category.Valid() {
			return errs.InvalidInput(fmt.Sprintf("link %d: unknown media type %q", i, l.Category))
		}
	}
	if start > 0 && c.Links[0].ID != start {
		return errs.InvalidInput(fmt.Sprintf("chain must start with actor %d", start))
	}
	if end > 0 && c.Links[n-1].ID != end {
		return errs.InvalidInput(fmt.Sprintf("chain must end with actor %d", end))
	}
	return nil
}

// Verify checks every actor/media adjacency with the validator, in order.
// Upstream errors are returned as errors, never as an invalid chain.
func (c Chain) Verify(ctx context.Context, v MembershipChecker, start, end int64) (Result, error) {
	if err := c.Validate(start, end); err != nil {
		return Result{}, err
	}

	for i := 1; i < len(c.Links); i += 2 {
		media := c.Links[i]
		for _, ai := range []int{i - 1, i + 1} {
			ok, err := v.IsMember(ctx, c.Links[ai].ID, media.ID, media.Category)
			if err != nil {
				return Result{}, fmt.Errorf("verify link %d: %w", ai, err)
			}
			if !ok {
				return Result{Valid: false, FailedAt: ai, Steps: c.Steps()}, nil
			}
		}
	}

	steps := c.Steps()
	return Result{Valid: true, FailedAt: -1, Steps: steps, Score: ScoreLabel(steps)}, nil
}

// Steps is the number of media works used.
func (c Chain) Steps() int {
	if len(c.Links) == 0 {
		return 0
	}
	return (len(c.Links) - 1) / 2
}

// ScoreLabel grades a completed chain by its step count.
func ScoreLabel(steps int) string {
	switch {
	case steps <= 1:
		return "Incredible!"
	case steps == 2:
		return "Amazing!"
	case steps == 3:
		return "Nice!"
	default:
		return "You got it!"
	}
}
