package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
)

func knownFor(lang string, votes ...int) []types.Credit {
	out := make([]types.Credit, len(votes))
	for i, v := range votes {
		out[i] = types.Credit{Media: types.MediaWork{ID: int64(1000 + i)}, OriginalLanguage: lang, VoteCount: v}
	}
	return out
}

func star(id int64) types.Person {
	return types.Person{
		Actor:      types.Actor{ID: id, Name: "Star", ProfilePath: "/p.jpg"},
		Department: ActingDepartment,
		KnownFor:   knownFor("en", 5000, 4000, 100),
	}
}

// fakeSource serves fixed pages and counts calls.
type fakeSource struct {
	pages  [][]types.Person
	failAt int
	calls  int
}

func (f *fakeSource) PopularPeople(_ context.Context, page int) (types.PersonPage, error) {
	f.calls++
	if page == f.failAt {
		return types.PersonPage{}, errs.Upstream("popular", errors.New("503"))
	}
	if page > len(f.pages) {
		return types.PersonPage{Page: page, TotalPages: len(f.pages)}, nil
	}
	return types.PersonPage{Page: page, TotalPages: len(f.pages), People: f.pages[page-1]}, nil
}

func TestRules(t *testing.T) {
	rules := DefaultRules()

	cases := []struct {
		name   string
		mutate func(*types.Person)
		failed string
	}{
		{"qualifies", func(*types.Person) {}, ""},
		{"director", func(p *types.Person) { p.Department = "Directing" }, "acting"},
		{"no portrait", func(p *types.Person) { p.ProfilePath = "" }, "portrait"},
		{"one english credit", func(p *types.Person) { p.KnownFor = knownFor("en", 9000) }, "english_known_for"},
		{"foreign hits", func(p *types.Person) {
			p.KnownFor = append(knownFor("en", 10, 20), knownFor("ko", 9000, 9000)...)
		}, "widely_seen"},
		{"threshold is inclusive", func(p *types.Person) { p.KnownFor = knownFor("en", 3000, 3000) }, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := star(1)
			c.mutate(&p)
			ok, failed := Admit(p, rules)
			assert.Equal(t, c.failed == "", ok)
			assert.Equal(t, c.failed, failed)
		})
	}
}

func TestAddingRuleNeverGrowsPool(t *testing.T) {
	people := []types.Person{star(1), star(2), star(3), star(4)}
	people[1].Name = "Bo"
	people[3].Name = "Bo"

	base := &Builder{Source: &fakeSource{pages: [][]types.Person{people}}, Rules: DefaultRules()}
	strict := &Builder{Source: &fakeSource{pages: [][]types.Person{people}}, Rules: append(DefaultRules(), Rule{
		Name:  "named_bo",
		Check: func(p types.Person) bool { return p.Name == "Bo" },
	})}

	all, err := base.Build(context.Background())
	require.NoError(t, err)
	fewer, err := strict.Build(context.Background())
	require.NoError(t, err)

	assert.Len(t, all, 4)
	assert.Len(t, fewer, 2)
	for _, a := range fewer {
		assert.Contains(t, all, a)
	}
}

func TestBuildStopsAtTarget(t *testing.T) {
	src := &fakeSource{pages: [][]types.Person{
		{star(1), star(2)},
		{star(2), star(3)},
		{star(4), star(5)},
	}}
	b := NewBuilder(src)
	b.TargetSize = 3

	actors, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, actors, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{actors[0].ID, actors[1].ID, actors[2].ID})
	assert.True(t, actors[0].Qualifies)
	assert.Equal(t, 2, src.calls)
}

func TestBuildStopsAtMaxPagesAndListingEnd(t *testing.T) {
	src := &fakeSource{pages: [][]types.Person{{star(1)}, {star(2)}, {star(3)}}}
	b := NewBuilder(src)
	b.MaxPages = 2

	actors, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, actors, 2)
	assert.Equal(t, 2, src.calls)

	src = &fakeSource{pages: [][]types.Person{{star(1)}}}
	actors, err = NewBuilder(src).Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, actors, 1)
	assert.Equal(t, 1, src.calls)
}

func TestBuildFailsOnAnyPage(t *testing.T) {
	src := &fakeSource{pages: [][]types.Person{{star(1)}, {star(2)}}, failAt: 2}

	actors, err := NewBuilder(src).Build(context.Background())
	assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
	assert.Nil(t, actors)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestCacheTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	src := &fakeSource{pages: [][]types.Person{{star(1), star(2)}}}
	builder := NewBuilder(src)
	c := NewCache(builder.Build, 0, WithClock(clock.now))

	got, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, src.calls)

	// Within the TTL: no network.
	clock.t = clock.t.Add(23 * time.Hour)
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 23*time.Hour, c.Age())

	a, ok := c.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, "Star", a.Name)
	_, ok = c.Lookup(99)
	assert.False(t, ok)

	// After expiry the next call rebuilds and reflects the new listing.
	demoted := star(2)
	demoted.KnownFor = knownFor("en", 10, 10)
	src.pages = [][]types.Person{{star(1), demoted}}
	clock.t = clock.t.Add(time.Hour)

	got, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestCacheDoesNotServeExpiredDataOnFailure(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	calls := 0
	fail := false
	fetch := func(context.Context) ([]types.PoolActor, error) {
		calls++
		if fail {
			return nil, errs.Upstream("popular", errors.New("timeout"))
		}
		return []types.PoolActor{{Actor: types.Actor{ID: 7}, Qualifies: true}}, nil
	}
	c := NewCache(fetch, time.Hour, WithClock(clock.now))

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	fail = true
	clock.t = clock.t.Add(2 * time.Hour)
	got, err := c.Get(context.Background())
	assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
	assert.Nil(t, got)
	_, ok := c.Lookup(7)
	assert.False(t, ok)
	assert.Equal(t, 2, calls)
}

func TestCacheInvalidate(t *testing.T) {
	calls := 0
	fetch := func(context.Context) ([]types.PoolActor, error) {
		calls++
		return []types.PoolActor{{Actor: types.Actor{ID: 1}}}, nil
	}
	c := NewCache(fetch, time.Hour)

	got, err := c.Get(context.Background())
	require.NoError(t, err)
	got[0].Name = "mutated"

	again, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again[0].Name)
	assert.Equal(t, 1, calls)

	c.Invalidate()
	assert.Zero(t, c.Age())
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
