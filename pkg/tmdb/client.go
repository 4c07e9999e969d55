// Package tmdb is a thin client for the TMDb v3 REST API.
//
// It covers exactly the endpoints the engine needs: the popular-people
// listing, person detail, combined credits, movie credits, series aggregate
// credits and the three searches. Responses are decoded leniently: every
// field is optional except media and person identifiers, and entries without
// an identifier are dropped.
//
// Failures are reported with the errs taxonomy: 404 becomes errs.ErrNotFound,
// any other failure errs.ErrUpstreamUnavailable.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yosida95/uritemplate/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/errs"
	"github.com/sanonone/castchain/pkg/metrics"
)

// StatusError is a non-success response from the provider.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

type endpoint struct {
	name string
	path *uritemplate.Template
}

var (
	epPopularPeople      = endpoint{"person_popular", uritemplate.MustNew("/person/popular")}
	epPerson             = endpoint{"person", uritemplate.MustNew("/person/{id}")}
	epCombinedCredits    = endpoint{"person_combined_credits", uritemplate.MustNew("/person/{id}/combined_credits")}
	epMovieCredits       = endpoint{"movie_credits", uritemplate.MustNew("/movie/{id}/credits")}
	epTVAggregateCredits = endpoint{"tv_aggregate_credits", uritemplate.MustNew("/tv/{id}/aggregate_credits")}
	epSearchMovie        = endpoint{"search_movie", uritemplate.MustNew("/search/movie")}
	epSearchTV           = endpoint{"search_tv", uritemplate.MustNew("/search/tv")}
	epSearchPerson       = endpoint{"search_person", uritemplate.MustNew("/search/person")}
)

var tracer = otel.Tracer("github.com/sanonone/castchain/pkg/tmdb")

// Client talks to the provider. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient validates cfg and builds a client with the retrying transport.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &Transport{
				Base:            http.DefaultTransport,
				MaxRetries:      cfg.MaxRetries,
				InitialInterval: cfg.RetryBackoff,
			},
		},
	}, nil
}

// PopularPeople returns one page (1-based) of the popularity-ordered people listing.
func (c *Client) PopularPeople(ctx context.Context, page int) (types.PersonPage, error) {
	if page < 1 {
		return types.PersonPage{}, errs.InvalidInput(fmt.Sprintf("page must be >= 1, got %d", page))
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))

	var resp pagedResponse[personEntry]
	if err := c.get(ctx, epPopularPeople, 0, q, &resp); err != nil {
		return types.PersonPage{}, err
	}

	out := types.PersonPage{Page: resp.Page, TotalPages: resp.TotalPages}
	for _, p := range resp.Results {
		if p.ID <= 0 {
			continue
		}
		out.People = append(out.People, p.toPerson())
	}
	return out, nil
}

// Person looks up one person. Unknown ids yield errs.ErrNotFound.
func (c *Client) Person(ctx context.Context, id int64) (types.Person, error) {
	if id <= 0 {
		return types.Person{}, errs.InvalidInput(fmt.Sprintf("invalid person id %d", id))
	}
	var resp personEntry
	if err := c.get(ctx, epPerson, id, nil, &resp); err != nil {
		return types.Person{}, err
	}
	if resp.ID <= 0 {
		return types.Person{}, errs.Upstream(fmt.Sprintf("person %d: response without id", id), nil)
	}
	return resp.toPerson(), nil
}

// CombinedCredits returns every acting credit of a person, films and series
// mixed, in upstream order.
func (c *Client) CombinedCredits(ctx context.Context, actorID int64) (types.Filmography, error) {
	if actorID <= 0 {
		return types.Filmography{}, errs.InvalidInput(fmt.Sprintf("invalid actor id %d", actorID))
	}
	var resp combinedCreditsResponse
	if err := c.get(ctx, epCombinedCredits, actorID, nil, &resp); err != nil {
		return types.Filmography{}, err
	}

	f := types.Filmography{ActorID: actorID, Credits: make([]types.Credit, 0, len(resp.Cast))}
	for _, m := range resp.Cast {
		if m.ID <= 0 {
			continue
		}
		f.Credits = append(f.Credits, m.toCredit(actorID))
	}
	return f, nil
}

// CastList returns the cast of a media work. Series use the aggregate
// credits endpoint so that every season's cast is included.
func (c *Client) CastList(ctx context.Context, mediaID int64, category types.Category) (types.CastList, error) {
	if mediaID <= 0 {
		return types.CastList{}, errs.InvalidInput(fmt.Sprintf("invalid media id %d", mediaID))
	}
	var ep endpoint
	switch category {
	case types.Film:
		ep = epMovieCredits
	case types.Series:
		ep = epTVAggregateCredits
	default:
		return types.CastList{}, errs.InvalidInput(fmt.Sprintf("unknown media type %q", category))
	}

	var resp castResponse
	if err := c.get(ctx, ep, mediaID, nil, &resp); err != nil {
		return types.CastList{}, err
	}

	cl := types.CastList{MediaID: mediaID, Category: category, Cast: make([]types.CastMember, 0, len(resp.Cast))}
	for _, m := range resp.Cast {
		if m.ID <= 0 {
			continue
		}
		cl.Cast = append(cl.Cast, m.toMember())
	}
	return cl, nil
}

// SearchMovies runs a movie title search.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]types.MediaHit, error) {
	return c.searchMedia(ctx, epSearchMovie, types.Film, query)
}

// SearchSeries runs a series title search.
func (c *Client) SearchSeries(ctx context.Context, query string) ([]types.MediaHit, error) {
	return c.searchMedia(ctx, epSearchTV, types.Series, query)
}

func (c *Client) searchMedia(ctx context.Context, ep endpoint, cat types.Category, query string) ([]types.MediaHit, error) {
	var resp pagedResponse[mediaEntry]
	if err := c.get(ctx, ep, 0, searchQuery(query), &resp); err != nil {
		return nil, err
	}
	hits := make([]types.MediaHit, 0, len(resp.Results))
	for _, m := range resp.Results {
		if m.ID <= 0 {
			continue
		}
		hits = append(hits, types.MediaHit{MediaWork: m.toMedia(cat), Popularity: m.Popularity})
	}
	return hits, nil
}

// SearchPeople runs a person name search.
func (c *Client) SearchPeople(ctx context.Context, query string) ([]types.Person, error) {
	var resp pagedResponse[personEntry]
	if err := c.get(ctx, epSearchPerson, 0, searchQuery(query), &resp); err != nil {
		return nil, err
	}
	people := make([]types.Person, 0, len(resp.Results))
	for _, p := range resp.Results {
		if p.ID <= 0 {
			continue
		}
		people = append(people, p.toPerson())
	}
	return people, nil
}

func searchQuery(query string) url.Values {
	q := url.Values{}
	q.Set("query", strings.TrimSpace(query))
	q.Set("include_adult", "false")
	return q
}

// get performs one GET against ep and decodes the JSON body into out.
// id is expanded into the path template when the template has an {id} variable.
func (c *Client) get(ctx context.Context, ep endpoint, id int64, query url.Values, out any) error {
	vars := uritemplate.Values{}
	vars.Set("id", uritemplate.String(strconv.FormatInt(id, 10)))
	path, err := ep.path.Expand(vars)
	if err != nil {
		return fmt.Errorf("expand %s: %w", ep.name, err)
	}

	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("api_key", c.cfg.APIKey)
	if c.cfg.Language != "" {
		q.Set("language", c.cfg.Language)
	}

	ctx, span := tracer.Start(ctx, "tmdb."+ep.name, trace.WithAttributes(
		attribute.String("tmdb.endpoint", ep.name),
		attribute.Int64("tmdb.id", id),
	))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(ep.name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(ep.name, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return errs.Upstream(ep.name+" request failed", err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequestsTotal.WithLabelValues(ep.name, statusClass(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		drainAndClose(resp)
		return errs.NotFound(fmt.Sprintf("%s: id %d not found", ep.name, id))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{Endpoint: ep.name, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDrain))
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.StatusMessage != "" {
			serr.Message = er.StatusMessage
		}
		span.SetStatus(codes.Error, serr.Error())
		return errs.Upstream("provider error", serr)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return errs.Upstream("failed to decode "+ep.name+" response", err)
	}
	return nil
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
