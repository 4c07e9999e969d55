package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/"
	cfg.APIKey = "test-key"
	cfg.RetryBackoff = time.Millisecond
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsPlaceholderKey(t *testing.T) {
	for _, key := range []string{"", "  ", PlaceholderAPIKey} {
		cfg := DefaultConfig()
		cfg.APIKey = key
		_, err := NewClient(cfg)
		assert.ErrorIs(t, err, errs.ErrConfiguration, "key %q", key)
	}
}

func TestCombinedCredits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/person/500/combined_credits", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"cast":[
			{"id":10,"media_type":"movie","title":"Top Gun","release_date":"1986-05-16","vote_count":7000,"original_language":"en","character":"Maverick"},
			{"id":20,"media_type":"tv","name":"The Show","first_air_date":"2001-01-01","poster_path":null},
			{"media_type":"movie","title":"No Id"}
		]}`))
	})

	f, err := c.CombinedCredits(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, f.Credits, 2)

	assert.Equal(t, int64(500), f.ActorID)
	assert.Equal(t, types.MediaWork{ID: 10, Title: "Top Gun", Category: types.Film, Year: "1986"}, f.Credits[0].Media)
	assert.Equal(t, 7000, f.Credits[0].VoteCount)
	assert.Equal(t, "en", f.Credits[0].OriginalLanguage)
	assert.Equal(t, "Maverick", f.Credits[0].Character)

	assert.Equal(t, types.Series, f.Credits[1].Media.Category)
	assert.Equal(t, "The Show", f.Credits[1].Media.Title)
	assert.Equal(t, 0, f.Credits[1].VoteCount)
}

func TestCastListUsesCategoryEndpoint(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"cast":[{"id":1,"name":"A","character":"Hero"},{"id":2,"name":"B","roles":[{"character":"Villain"}]}]}`))
	})

	cl, err := c.CastList(context.Background(), 7, types.Film)
	require.NoError(t, err)
	assert.True(t, cl.Contains(1))

	cl, err = c.CastList(context.Background(), 7, types.Series)
	require.NoError(t, err)
	assert.Equal(t, "Villain", cl.Cast[1].Character)

	assert.Equal(t, []string{"/movie/7/credits", "/tv/7/aggregate_credits"}, paths)

	_, err = c.CastList(context.Background(), 7, types.Category("anime"))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestCastListMissingCastIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":7}`))
	})

	cl, err := c.CastList(context.Background(), 7, types.Film)
	require.NoError(t, err)
	assert.Empty(t, cl.Cast)
	assert.False(t, cl.Contains(1))
}

func TestNotFoundAndUpstreamErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/person/404":
			w.WriteHeader(http.StatusNotFound)
		case "/person/401":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key"}`))
		default:
			w.Write([]byte(`{not json`))
		}
	})

	_, err := c.Person(context.Background(), 404)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = c.Person(context.Background(), 401)
	require.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode)
	assert.Equal(t, "Invalid API key", serr.Message)

	_, err = c.Person(context.Background(), 3)
	assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)

	_, err = c.Person(context.Background(), 0)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestRetriesServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"page":1,"total_pages":5,"results":[{"id":1,"name":"A","known_for_department":"Acting"}]}`))
	})

	page, err := c.PopularPeople(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 5, page.TotalPages)
	require.Len(t, page.People, 1)
	assert.Equal(t, "Acting", page.People[0].Department)
}

func TestRetriesExhaustedReportsUpstream(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.PopularPeople(context.Background(), 1)
	assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchSendsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "the office", r.URL.Query().Get("query"))
		assert.Equal(t, "false", r.URL.Query().Get("include_adult"))
		w.Write([]byte(`{"results":[{"id":2316,"name":"The Office","first_air_date":"2005-03-24","popularity":88.5}]}`))
	})

	hits, err := c.SearchSeries(context.Background(), " the office ")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, types.Series, hits[0].Category)
	assert.Equal(t, "2005", hits[0].Year)
	assert.InDelta(t, 88.5, hits[0].Popularity, 1e-9)
}

func TestPersonKnownForDropsMissingIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":9,"name":"Z","profile_path":"/z.jpg","known_for":[{"id":0,"title":"x"},{"id":4,"media_type":"movie","title":"Y"}]}`))
	})

	p, err := c.Person(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "/z.jpg", p.ProfilePath)
	require.Len(t, p.KnownFor, 1)
	assert.Equal(t, int64(4), p.KnownFor[0].Media.ID)
}
