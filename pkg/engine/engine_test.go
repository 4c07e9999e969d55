package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/castchain/pkg/chain"
	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
)

// fakeUpstream is a tiny provider: actors 1..n, each with their own film
// (id 100+i); actors 1 and 2 also share film 500.
type fakeUpstream struct {
	mu     sync.Mutex
	n      int
	calls  map[string]int
	movies []types.MediaHit
	series []types.MediaHit
	people []types.Person
}

func newFakeUpstream(n int) *fakeUpstream {
	return &fakeUpstream{n: n, calls: map[string]int{}}
}

func (f *fakeUpstream) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeUpstream) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func qualifying(id int64) types.Person {
	return types.Person{
		Actor:      types.Actor{ID: id, Name: fmt.Sprintf("Actor %d", id), ProfilePath: "/a.jpg"},
		Department: "Acting",
		KnownFor: []types.Credit{
			{OriginalLanguage: "en", VoteCount: 5000},
			{OriginalLanguage: "en", VoteCount: 5000},
		},
	}
}

func (f *fakeUpstream) PopularPeople(_ context.Context, page int) (types.PersonPage, error) {
	f.count("popular")
	out := types.PersonPage{Page: page, TotalPages: 1}
	for i := 1; i <= f.n; i++ {
		out.People = append(out.People, qualifying(int64(i)))
	}
	return out, nil
}

func (f *fakeUpstream) Person(_ context.Context, id int64) (types.Person, error) {
	f.count("person")
	if id > 1000 {
		return types.Person{}, errs.NotFound("person")
	}
	return types.Person{Actor: types.Actor{ID: id, Name: "Outsider"}}, nil
}

func (f *fakeUpstream) CombinedCredits(_ context.Context, id int64) (types.Filmography, error) {
	f.count("credits")
	fl := types.Filmography{ActorID: id, Credits: []types.Credit{
		{ActorID: id, Media: types.MediaWork{ID: 100 + id, Category: types.Film}},
	}}
	if id == 1 || id == 2 {
		fl.Credits = append(fl.Credits, types.Credit{ActorID: id, Media: types.MediaWork{ID: 500, Category: types.Film}})
	}
	return fl, nil
}

func (f *fakeUpstream) CastList(_ context.Context, id int64, c types.Category) (types.CastList, error) {
	f.count("cast")
	cl := types.CastList{MediaID: id, Category: c}
	switch {
	case id == 500:
		cl.Cast = []types.CastMember{{ID: 1}, {ID: 2}}
	case id > 100:
		cl.Cast = []types.CastMember{{ID: id - 100}}
	}
	return cl, nil
}

func (f *fakeUpstream) SearchMovies(context.Context, string) ([]types.MediaHit, error) {
	f.count("search")
	return f.movies, nil
}

func (f *fakeUpstream) SearchSeries(context.Context, string) ([]types.MediaHit, error) {
	f.count("search")
	return f.series, nil
}

func (f *fakeUpstream) SearchPeople(context.Context, string) ([]types.Person, error) {
	f.count("search")
	return f.people, nil
}

func testEngine(up Upstream) *Engine {
	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewPCG(1, 2))
	opts.Clock = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return New(up, opts)
}

func TestPoolIsCached(t *testing.T) {
	up := newFakeUpstream(5)
	e := testEngine(up)

	p1, err := e.Pool(context.Background())
	require.NoError(t, err)
	p2, err := e.Pool(context.Background())
	require.NoError(t, err)

	assert.Len(t, p1, 5)
	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, up.called("popular"))

	_, err = e.RefreshPool(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, up.called("popular"))
}

func TestSelectPairEasy(t *testing.T) {
	up := newFakeUpstream(2)
	e := testEngine(up)

	sel, err := e.SelectPair(context.Background(), types.Easy, ModeNew)
	require.NoError(t, err)
	assert.True(t, sel.Matched)
	assert.Equal(t, 1, sel.Attempts)
	assert.Equal(t, types.HopsOne, sel.Classification.MinHops)
}

func TestSelectPairFallbackUsesModeBudget(t *testing.T) {
	// No pair in this pool is 2 hops apart.
	up := newFakeUpstream(2)
	e := testEngine(up)

	sel, err := e.SelectPair(context.Background(), types.Medium, ModeAgain)
	require.NoError(t, err)
	assert.False(t, sel.Matched)
	assert.Equal(t, 5, sel.Attempts)

	sel, err = e.SelectPair(context.Background(), types.Medium, ModeNew)
	require.NoError(t, err)
	assert.Equal(t, 8, sel.Attempts)
}

func TestDailyPairIsStable(t *testing.T) {
	up := newFakeUpstream(30)
	e := testEngine(up)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	a, err := e.DailyPair(context.Background(), day, types.Hard)
	require.NoError(t, err)
	b, err := e.DailyPair(context.Background(), day.Add(20*time.Hour), types.Hard)
	require.NoError(t, err)
	assert.Equal(t, PairCode(a.Pair), PairCode(b.Pair))
}

func TestResolvePair(t *testing.T) {
	up := newFakeUpstream(3)
	e := testEngine(up)
	_, err := e.Pool(context.Background())
	require.NoError(t, err)

	pair, err := e.ResolvePair(context.Background(), "2-77")
	require.NoError(t, err)
	assert.True(t, pair.Start.Qualifies)
	assert.Equal(t, "Actor 2", pair.Start.Name)
	assert.False(t, pair.End.Qualifies)
	assert.Equal(t, "Outsider", pair.End.Name)
	assert.Equal(t, 1, up.called("person"))
	assert.Equal(t, "2-77", PairCode(pair))

	_, err = e.ResolvePair(context.Background(), "2-5000")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	for _, bad := range []string{"", "12", "a-b", "3-3", "-1-2", "0-4"} {
		_, err = e.ResolvePair(context.Background(), bad)
		assert.ErrorIs(t, err, errs.ErrInvalidInput, bad)
	}
}

func TestSearchMediaMergesByPopularity(t *testing.T) {
	up := newFakeUpstream(0)
	for i := 0; i < 10; i++ {
		up.movies = append(up.movies, types.MediaHit{
			MediaWork:  types.MediaWork{ID: int64(i + 1), Category: types.Film},
			Popularity: float64(i),
		})
		up.series = append(up.series, types.MediaHit{
			MediaWork:  types.MediaWork{ID: int64(i + 1), Category: types.Series},
			Popularity: float64(i) + 0.5,
		})
	}
	e := testEngine(up)

	res, err := e.SearchMedia(context.Background(), "office")
	require.NoError(t, err)
	require.Len(t, res, MaxMediaResults)
	assert.Equal(t, types.Series, res[0].Category)
	assert.Equal(t, int64(10), res[0].ID)
	assert.Equal(t, types.Film, res[1].Category)

	res, err = e.SearchMedia(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Equal(t, 2, up.called("search"))
}

func TestSearchPeopleKeepsActors(t *testing.T) {
	up := newFakeUpstream(0)
	for i := 1; i <= 14; i++ {
		p := qualifying(int64(i))
		if i%3 == 0 {
			p.Department = "Directing"
		}
		up.people = append(up.people, p)
	}
	e := testEngine(up)

	res, err := e.SearchPeople(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, res, MaxPeopleResults)
	for _, a := range res {
		assert.NotZero(t, a.ID%3)
	}
}

func TestVerifyChain(t *testing.T) {
	up := newFakeUpstream(2)
	e := testEngine(up)

	c := chain.Chain{Links: []types.Link{
		{Kind: types.LinkActor, ID: 1},
		{Kind: types.LinkMedia, ID: 500, Category: types.Film},
		{Kind: types.LinkActor, ID: 2},
	}}
	res, err := e.VerifyChain(context.Background(), c, 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "Incredible!", res.Score)
}

func TestCastListValidatesInput(t *testing.T) {
	up := newFakeUpstream(0)
	e := testEngine(up)

	_, err := e.CastList(context.Background(), 0, types.Film)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = e.CastList(context.Background(), 3, types.Category("x"))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Zero(t, up.called("cast"))
}
