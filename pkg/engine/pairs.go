package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sanonone/castchain/pkg/core/selector"
	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
)

// Mode selects the attempt budget of a pair selection.
type Mode string

const (
	ModeNew   Mode = "new"
	ModeAgain Mode = "again"
)

// ParseMode accepts "new" and "again"; empty means new.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeNew:
		return ModeNew, nil
	case ModeAgain:
		return ModeAgain, nil
	default:
		return "", errs.InvalidInput(fmt.Sprintf("unknown mode %q", s))
	}
}

func (e *Engine) attempts(m Mode) int {
	if m == ModeAgain {
		return e.opts.ReplayAttempts
	}
	return e.opts.InitialAttempts
}

// SelectPair draws a pair from the pool for difficulty d.
func (e *Engine) SelectPair(ctx context.Context, d types.Difficulty, m Mode) (selector.Selection, error) {
	actors, err := e.pool.Get(ctx)
	if err != nil {
		return selector.Selection{}, err
	}
	return e.selector.Select(ctx, actors, d, e.attempts(m))
}

// DailyPair draws the pair of the day. The draw sequence depends only on the
// calendar date, so the result is stable for a given pool and upstream data.
func (e *Engine) DailyPair(ctx context.Context, date time.Time, d types.Difficulty) (selector.Selection, error) {
	actors, err := e.pool.Get(ctx)
	if err != nil {
		return selector.Selection{}, err
	}
	y, mo, day := date.Date()
	seed := uint64(y)*10000 + uint64(mo)*100 + uint64(day)
	return selector.NewSeeded(e.oracle, seed).Select(ctx, actors, d, e.opts.InitialAttempts)
}

// Today is the engine clock's current date in UTC.
func (e *Engine) Today() time.Time {
	return e.opts.Clock().UTC()
}

// PairCode formats a pair for share links as "startId-endId".
func PairCode(p types.ActorPair) string {
	return fmt.Sprintf("%d-%d", p.Start.ID, p.End.ID)
}

// ParsePairCode is the inverse of PairCode.
func ParsePairCode(code string) (startID, endID int64, err error) {
	a, b, ok := strings.Cut(strings.TrimSpace(code), "-")
	if !ok {
		return 0, 0, errs.InvalidInput(fmt.Sprintf("malformed pair %q", code))
	}
	startID, err1 := strconv.ParseInt(a, 10, 64)
	endID, err2 := strconv.ParseInt(b, 10, 64)
	if err1 != nil || err2 != nil || startID <= 0 || endID <= 0 {
		return 0, 0, errs.InvalidInput(fmt.Sprintf("malformed pair %q", code))
	}
	if startID == endID {
		return 0, 0, errs.InvalidInput("pair actors must differ")
	}
	return startID, endID, nil
}

// ResolvePair turns a share code back into a pair of actors.
func (e *Engine) ResolvePair(ctx context.Context, code string) (types.ActorPair, error) {
	startID, endID, err := ParsePairCode(code)
	if err != nil {
		return types.ActorPair{}, err
	}
	start, err := e.Person(ctx, startID)
	if err != nil {
		return types.ActorPair{}, fmt.Errorf("resolve start actor: %w", err)
	}
	end, err := e.Person(ctx, endID)
	if err != nil {
		return types.ActorPair{}, fmt.Errorf("resolve end actor: %w", err)
	}
	return types.ActorPair{Start: start, End: end}, nil
}
