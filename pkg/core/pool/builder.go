package pool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tidwall/btree"

	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
)

const (
	DefaultTargetSize = 200
	DefaultMaxPages   = 40
)

// PeopleSource is the paged popular-people listing.
type PeopleSource interface {
	PopularPeople(ctx context.Context, page int) (types.PersonPage, error)
}

// Builder pages through PeopleSource and keeps the candidates that pass Rules.
type Builder struct {
	Source     PeopleSource
	TargetSize int
	MaxPages   int
	Rules      []Rule
	Logger     *slog.Logger
}

// NewBuilder returns a builder with the default size limits and rules.
func NewBuilder(src PeopleSource) *Builder {
	return &Builder{
		Source:     src,
		TargetSize: DefaultTargetSize,
		MaxPages:   DefaultMaxPages,
		Rules:      DefaultRules(),
		Logger:     slog.Default(),
	}
}

func actorLess(a, b types.PoolActor) bool { return a.ID < b.ID }

// Build assembles a fresh pool, in listing order.
//
// Paging stops when TargetSize actors are admitted, MaxPages pages are consumed,
// or the listing runs out. A failure on any page fails the whole build: a
// partial pool is never returned.
func (b *Builder) Build(ctx context.Context) ([]types.PoolActor, error) {
	target, maxPages := b.TargetSize, b.MaxPages
	if target <= 0 {
		target = DefaultTargetSize
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	seen := btree.NewBTreeG[types.PoolActor](actorLess)
	actors := make([]types.PoolActor, 0, target)
	rejected := make(map[string]int)

	for page := 1; len(actors) < target && page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, errs.Upstream("pool build cancelled", err)
		}

		res, err := b.Source.PopularPeople(ctx, page)
		if err != nil {
			return nil, errs.Upstream(fmt.Sprintf("pool: popular people page %d", page), err)
		}

		for _, p := range res.People {
			if len(actors) >= target {
				break
			}
			if p.ID <= 0 {
				continue
			}
			key := types.PoolActor{Actor: types.Actor{ID: p.ID}}
			if _, dup := seen.Get(key); dup {
				continue
			}
			ok, failed := Admit(p, b.Rules)
			if !ok {
				rejected[failed]++
				continue
			}
			a := types.PoolActor{Actor: p.Actor, Qualifies: true}
			seen.Set(a)
			actors = append(actors, a)
		}

		if len(res.People) == 0 || (res.TotalPages > 0 && page >= res.TotalPages) {
			break
		}
	}

	logger.Info("actor pool built", "size", len(actors), "target", target, "rejected", rejected)
	return actors, nil
}
