// Package oracle decides how closely two actors are linked through shared
// media, and whether an actor is credited in a given media work.
//
// Classification is a bounded, two-hop search over the provider's data. It
// spends at most 2 filmography fetches plus two batches of Window cast-list
// fetches, and stops at the first stage that proves a link.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
	"github.com/sanonone/castchain/pkg/metrics"
)

// DefaultWindow is the number of leading credits per actor whose casts are inspected.
const DefaultWindow = 10

// Stage names reported in Classification.Stage.
const (
	StageEmpty        = "empty-filmography"
	StageSharedCredit = "shared-credit"
	StageStartCasts   = "start-casts"
	StageCoStar       = "co-star"
	StageExhausted    = "exhausted"
)

var tracer = otel.Tracer("github.com/sanonone/castchain/pkg/core/oracle")

// CreditSource is the slice of the provider the oracle reads.
type CreditSource interface {
	CombinedCredits(ctx context.Context, actorID int64) (types.Filmography, error)
	CastList(ctx context.Context, mediaID int64, category types.Category) (types.CastList, error)
}

// Oracle classifies actor pairs. It holds no per-call state and is safe for
// concurrent use.
type Oracle struct {
	src    CreditSource
	window int
	logger *slog.Logger
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithWindow sets how many leading credits per actor are expanded. n < 1 is ignored.
func WithWindow(n int) Option {
	return func(o *Oracle) {
		if n >= 1 {
			o.window = n
		}
	}
}

// WithLogger sets the logger used for per-classification debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(o *Oracle) { o.logger = l }
}

func New(src CreditSource, opts ...Option) *Oracle {
	o := &Oracle{src: src, window: DefaultWindow, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// searchState is shared by the stages of one classification.
type searchState struct {
	startID, endID int64
	start, end     types.Filmography

	// startCasts are the cast lists of the start actor's leading credits (stage start-casts).
	startCasts []types.CastList

	graph *explored
}

// stage inspects the state and returns the hop distance it proved, or HopsNone
// to pass to the next stage.
type stage struct {
	name string
	run  func(ctx context.Context, o *Oracle, st *searchState) (types.Hops, error)
}

var pipeline = []stage{
	{StageSharedCredit, sharedCredit},
	{StageStartCasts, startCasts},
	{StageCoStar, coStar},
}

// Classify reports whether start and end are linked within two hops.
//
// A negative result (Connected=false, MinHops=HopsNone) means the bounded
// search found no proof. It is an under-approximation: the actors may still be
// connected through credits outside the inspected window, or at three hops or
// more. Upstream failures are returned as errors, never as a negative result.
func (o *Oracle) Classify(ctx context.Context, startID, endID int64) (types.Classification, error) {
	if startID <= 0 || endID <= 0 {
		return types.Classification{}, errs.InvalidInput("actor ids must be positive")
	}
	if startID == endID {
		return types.Classification{}, errs.InvalidInput("start and end actors must differ")
	}

	ctx, span := tracer.Start(ctx, "oracle.Classify", trace.WithAttributes(
		attribute.Int64("actor.start", startID),
		attribute.Int64("actor.end", endID),
	))
	defer span.End()

	res, err := o.classify(ctx, startID, endID)
	if err != nil {
		metrics.ClassificationsTotal.WithLabelValues(res.Stage, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		return types.Classification{}, err
	}

	metrics.ClassificationsTotal.WithLabelValues(res.Stage, hopsLabel(res.MinHops)).Inc()
	span.SetAttributes(attribute.String("oracle.stage", res.Stage), attribute.Int("oracle.hops", int(res.MinHops)))
	o.logger.Debug("pair classified", "start", startID, "end", endID,
		"connected", res.Connected, "hops", int(res.MinHops), "stage", res.Stage)
	return res, nil
}

func (o *Oracle) classify(ctx context.Context, startID, endID int64) (types.Classification, error) {
	st := &searchState{startID: startID, endID: endID, graph: newExplored()}

	// 1. Both filmographies, concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := o.src.CombinedCredits(gctx, startID)
		st.start = f
		return filmographyErr(startID, err)
	})
	g.Go(func() error {
		f, err := o.src.CombinedCredits(gctx, endID)
		st.end = f
		return filmographyErr(endID, err)
	})
	if err := g.Wait(); err != nil {
		return types.Classification{Stage: "filmography"}, err
	}
	if len(st.start.Credits) == 0 || len(st.end.Credits) == 0 {
		return types.Classification{Stage: StageEmpty}, nil
	}
	st.graph.addFilmography(st.start)
	st.graph.addFilmography(st.end)

	// 2. Stages in order; the first proof wins.
	for _, s := range pipeline {
		sctx, span := tracer.Start(ctx, "oracle.stage."+s.name)
		hops, err := s.run(sctx, o, st)
		span.End()
		if err != nil {
			return types.Classification{Stage: s.name}, fmt.Errorf("%s: %w", s.name, err)
		}
		if hops != types.HopsNone {
			return types.Classification{
				Connected: true,
				MinHops:   hops,
				Stage:     s.name,
				Witness:   st.graph.witness(startID, endID),
			}, nil
		}
	}
	return types.Classification{Stage: StageExhausted}, nil
}

// --- Stages ---

func sharedCredit(_ context.Context, _ *Oracle, st *searchState) (types.Hops, error) {
	startMedia := st.start.MediaKeys()
	for _, c := range st.end.Credits {
		if _, ok := startMedia[c.Media.Key()]; ok {
			return types.HopsOne, nil
		}
	}
	return types.HopsNone, nil
}

// startCasts catches credits missing from the end actor's own filmography.
func startCasts(ctx context.Context, o *Oracle, st *searchState) (types.Hops, error) {
	casts, err := o.fetchCasts(ctx, st.start.Recent(o.window))
	if err != nil {
		return types.HopsNone, err
	}
	st.startCasts = casts

	found := types.HopsNone
	for _, cl := range casts {
		st.graph.addCast(cl)
		if cl.Contains(st.endID) {
			found = types.HopsOne
		}
	}
	return found, nil
}

// coStar looks for one actor shared between the start side's casts and the
// casts of the end actor's leading credits. The start actor counts as a co-star
// of itself.
func coStar(ctx context.Context, o *Oracle, st *searchState) (types.Hops, error) {
	coStars := make(map[int64]struct{})
	for _, cl := range st.startCasts {
		for _, m := range cl.Cast {
			coStars[m.ID] = struct{}{}
		}
	}

	casts, err := o.fetchCasts(ctx, st.end.Recent(o.window))
	if err != nil {
		return types.HopsNone, err
	}

	found := types.HopsNone
	for _, cl := range casts {
		st.graph.addCast(cl)
		for _, m := range cl.Cast {
			if _, ok := coStars[m.ID]; ok {
				found = types.HopsTwo
			}
		}
	}
	return found, nil
}

// fetchCasts loads the cast list of every credit concurrently, keeping credit order.
// The credit's own category selects the endpoint.
func (o *Oracle) fetchCasts(ctx context.Context, credits []types.Credit) ([]types.CastList, error) {
	out := make([]types.CastList, len(credits))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range credits {
		g.Go(func() error {
			cl, err := o.src.CastList(gctx, c.Media.ID, c.Media.Category)
			if err != nil {
				return fmt.Errorf("cast of %s %d: %w", c.Media.Category, c.Media.ID, err)
			}
			out[i] = cl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func filmographyErr(actorID int64, err error) error {
	if err == nil {
		return nil
	}
	switch errs.KindOf(err) {
	case errs.KindUpstreamUnavailable, errs.KindNotFound:
		return fmt.Errorf("filmography of actor %d: %w", actorID, err)
	default:
		return errs.Upstream(fmt.Sprintf("filmography of actor %d", actorID), err)
	}
}

func hopsLabel(h types.Hops) string {
	if h == types.HopsNone {
		return "none"
	}
	return strconv.Itoa(int(h))
}
