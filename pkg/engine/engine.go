// Package engine provides the high-level interface of castchain.
//
// It wires the actor pool, the connectivity oracle, the move validator and the
// pair selector around one upstream client, and adds the lookups a game front
// end needs (search, person, cast list, daily and shared pairs).
//
// Basic usage:
//
//	eng, err := engine.Open(tmdbCfg, engine.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sel, err := eng.SelectPair(ctx, types.Medium, engine.ModeNew)
package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/sanonone/castchain/pkg/core/oracle"
	"github.com/sanonone/castchain/pkg/core/pool"
	"github.com/sanonone/castchain/pkg/core/selector"
	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/tmdb"
)

// Upstream is everything the engine reads from the filmography provider.
// *tmdb.Client satisfies it.
type Upstream interface {
	pool.PeopleSource
	oracle.CreditSource

	Person(ctx context.Context, id int64) (types.Person, error)
	SearchMovies(ctx context.Context, query string) ([]types.MediaHit, error)
	SearchSeries(ctx context.Context, query string) ([]types.MediaHit, error)
	SearchPeople(ctx context.Context, query string) ([]types.Person, error)
}

// Options configures the Engine.
type Options struct {
	// Pool controls pool size, paging and cache lifetime.
	Pool pool.Config

	// Window is the number of leading credits per actor the oracle expands.
	Window int

	// InitialAttempts and ReplayAttempts are the selector budgets for
	// ModeNew and ModeAgain.
	InitialAttempts int
	ReplayAttempts  int

	Logger *slog.Logger

	// Clock and Rand are injectable for tests. Nil selects time.Now and a
	// randomly seeded generator.
	Clock func() time.Time
	Rand  *rand.Rand
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		Pool:            pool.DefaultConfig(),
		Window:          oracle.DefaultWindow,
		InitialAttempts: selector.InitialAttempts,
		ReplayAttempts:  selector.ReplayAttempts,
	}
}

// Engine is the main entry point. It is safe for concurrent use; the pool
// cache is its only shared mutable state.
type Engine struct {
	up        Upstream
	pool      *pool.Cache
	oracle    *oracle.Oracle
	validator *oracle.Validator
	selector  *selector.Selector

	opts   Options
	logger *slog.Logger
}

// Open builds a provider client from cfg and returns an Engine on top of it.
// A missing or placeholder credential fails here with errs.ErrConfiguration.
func Open(cfg tmdb.Config, opts Options) (*Engine, error) {
	client, err := tmdb.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return New(client, opts), nil
}

// New returns an Engine reading from up.
func New(up Upstream, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.InitialAttempts < 1 {
		opts.InitialAttempts = selector.InitialAttempts
	}
	if opts.ReplayAttempts < 1 {
		opts.ReplayAttempts = selector.ReplayAttempts
	}

	builder := pool.NewBuilder(up)
	if opts.Pool.TargetSize > 0 {
		builder.TargetSize = opts.Pool.TargetSize
	}
	if opts.Pool.MaxPages > 0 {
		builder.MaxPages = opts.Pool.MaxPages
	}
	builder.Logger = opts.Logger

	orc := oracle.New(up, oracle.WithWindow(opts.Window), oracle.WithLogger(opts.Logger))

	return &Engine{
		up:        up,
		pool:      pool.NewCache(builder.Build, opts.Pool.TTL, pool.WithClock(opts.Clock)),
		oracle:    orc,
		validator: oracle.NewValidator(up),
		selector:  selector.New(orc, opts.Rand),
		opts:      opts,
		logger:    opts.Logger,
	}
}

// Pool returns the current actor pool, rebuilding it when expired.
func (e *Engine) Pool(ctx context.Context) ([]types.PoolActor, error) {
	return e.pool.Get(ctx)
}

// PoolAge is the age of the cached pool, 0 when none is cached.
func (e *Engine) PoolAge() time.Duration {
	return e.pool.Age()
}

// RefreshPool drops the cached pool and rebuilds it.
func (e *Engine) RefreshPool(ctx context.Context) ([]types.PoolActor, error) {
	e.pool.Invalidate()
	return e.pool.Get(ctx)
}

// Classify runs the connectivity oracle on two actors.
// A negative result means no two-hop link was found, not that none exists.
func (e *Engine) Classify(ctx context.Context, startID, endID int64) (types.Classification, error) {
	return e.oracle.Classify(ctx, startID, endID)
}

// IsMember reports whether actorID is credited in the media work.
func (e *Engine) IsMember(ctx context.Context, actorID, mediaID int64, category types.Category) (bool, error) {
	return e.validator.IsMember(ctx, actorID, mediaID, category)
}
