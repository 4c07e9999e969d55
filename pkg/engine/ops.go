package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sanonone/castchain/pkg/chain"
	"github.com/sanonone/castchain/pkg/core/pool"
	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
)

const (
	MaxMediaResults  = 15
	MaxPeopleResults = 10
)

// --- Lookups ---

// SearchMedia searches films and series in parallel and returns the most
// popular matches first. An empty query returns no results without a network call.
func (e *Engine) SearchMedia(ctx context.Context, query string) ([]types.MediaWork, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.MediaWork{}, nil
	}

	var movies, series []types.MediaHit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		movies, err = e.up.SearchMovies(gctx, query)
		return err
	})
	g.Go(func() (err error) {
		series, err = e.up.SearchSeries(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search media %q: %w", query, err)
	}

	hits := append(movies, series...)
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Popularity > hits[j].Popularity })
	if len(hits) > MaxMediaResults {
		hits = hits[:MaxMediaResults]
	}

	out := make([]types.MediaWork, len(hits))
	for i, h := range hits {
		out[i] = h.MediaWork
	}
	return out, nil
}

// SearchPeople returns actors matching query, dropping people known for
// other departments.
func (e *Engine) SearchPeople(ctx context.Context, query string) ([]types.Actor, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.Actor{}, nil
	}

	people, err := e.up.SearchPeople(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search people %q: %w", query, err)
	}

	out := make([]types.Actor, 0, MaxPeopleResults)
	for _, p := range people {
		if p.Department != pool.ActingDepartment {
			continue
		}
		out = append(out, p.Actor)
		if len(out) == MaxPeopleResults {
			break
		}
	}
	return out, nil
}

// Person resolves an actor, answering from the cached pool when possible.
func (e *Engine) Person(ctx context.Context, id int64) (types.PoolActor, error) {
	if id <= 0 {
		return types.PoolActor{}, errs.InvalidInput(fmt.Sprintf("invalid person id %d", id))
	}
	if a, ok := e.pool.Lookup(id); ok {
		return a, nil
	}

	p, err := e.up.Person(ctx, id)
	if err != nil {
		return types.PoolActor{}, err
	}
	return types.PoolActor{Actor: p.Actor}, nil
}

// CastList returns the cast of a media work.
func (e *Engine) CastList(ctx context.Context, mediaID int64, category types.Category) (types.CastList, error) {
	if mediaID <= 0 {
		return types.CastList{}, errs.InvalidInput(fmt.Sprintf("invalid media id %d", mediaID))
	}
	if !category.Valid() {
		return types.CastList{}, errs.InvalidInput(fmt.Sprintf("unknown media type %q", category))
	}
	return e.up.CastList(ctx, mediaID, category)
}

// VerifyChain checks a finished chain link by link and scores it.
// start and end are the round's fixed actors; 0 skips the endpoint check.
func (e *Engine) VerifyChain(ctx context.Context, c chain.Chain, start, end int64) (chain.Result, error) {
	return c.Verify(ctx, e.validator, start, end)
}
