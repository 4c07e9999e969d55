// Package client provides a Go client for the castchain HTTP API.
//
// It covers every public route:
//   - Game data (pool, cast lists, search, person lookup).
//   - Oracle queries (pair classification, move validation, chain verification).
//   - Pair selection (fresh, daily, share codes and asynchronous tasks).
//
// Errors returned by the server are surfaced as *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sanonone/castchain/pkg/chain"
	"github.com/sanonone/castchain/pkg/core/selector"
	"github.com/sanonone/castchain/pkg/core/types"
)

// --- Custom Errors ---

// APIError represents an error returned by the castchain API (status >= 400).
type APIError struct {
	StatusCode int
	Code       string // error kind, e.g. "invalid_input"
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (status %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// --- JSON Response Structs ---

type poolResponse struct {
	Actors []types.PoolActor `json:"actors"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

type mediaSearchResponse struct {
	Results []types.MediaWork `json:"results"`
}

type peopleSearchResponse struct {
	Results []types.Actor `json:"results"`
}

// Pair is a selected pair as returned by the pair endpoints.
type Pair struct {
	selector.Selection
	Difficulty types.Difficulty `json:"difficulty"`
	ShareCode  string           `json:"shareCode"`
	Date       string           `json:"date,omitempty"`
}

// ResolvedPair is a pair reconstructed from a share code.
type ResolvedPair struct {
	Pair       types.ActorPair  `json:"pair"`
	Difficulty types.Difficulty `json:"difficulty,omitempty"`
	ShareCode  string           `json:"shareCode"`
}

// Task represents an asynchronous pair selection on the server.
type Task struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	ProgressMessage string              `json:"progress_message,omitempty"`
	Error           string              `json:"error,omitempty"`
	Code            string              `json:"code,omitempty"`
	Result          *selector.Selection `json:"result,omitempty"`

	client *Client // Reference to the client for polling.
}

// --- Client ---

// Client is the Go client for a castchain server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// jsonRequest executes a request against the API and decodes the JSON body into out.
func (c *Client) jsonRequest(ctx context.Context, method, endpoint string, query url.Values, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func idQuery(kv ...any) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		key := kv[i].(string)
		switch v := kv[i+1].(type) {
		case int64:
			q.Set(key, strconv.FormatInt(v, 10))
		case string:
			if v != "" {
				q.Set(key, v)
			}
		default:
			q.Set(key, fmt.Sprint(v))
		}
	}
	return q
}

// --- Game Data ---

// Pool returns the current actor pool.
func (c *Client) Pool(ctx context.Context) ([]types.PoolActor, error) {
	var resp poolResponse
	if err := c.jsonRequest(ctx, http.MethodGet, "/api/pool", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Actors, nil
}

// CastList returns the cast of a film or series.
func (c *Client) CastList(ctx context.Context, mediaID int64, category types.Category) (types.CastList, error) {
	var cl types.CastList
	err := c.jsonRequest(ctx, http.MethodGet, "/api/credits", idQuery("id", mediaID, "type", string(category)), nil, &cl)
	return cl, err
}

// SearchMedia searches films and series by title.
func (c *Client) SearchMedia(ctx context.Context, query string) ([]types.MediaWork, error) {
	var resp mediaSearchResponse
	if err := c.jsonRequest(ctx, http.MethodGet, "/api/search", url.Values{"query": {query}}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchPeople searches actors by name.
func (c *Client) SearchPeople(ctx context.Context, query string) ([]types.Actor, error) {
	var resp peopleSearchResponse
	q := url.Values{"query": {query}, "type": {"person"}}
	if err := c.jsonRequest(ctx, http.MethodGet, "/api/search", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Person looks up a single actor.
func (c *Client) Person(ctx context.Context, id int64) (types.PoolActor, error) {
	var a types.PoolActor
	err := c.jsonRequest(ctx, http.MethodGet, "/api/person", idQuery("id", id), nil, &a)
	return a, err
}

// --- Oracle ---

// Classify asks the oracle for the hop distance between two actors.
func (c *Client) Classify(ctx context.Context, startID, endID int64) (types.Classification, error) {
	var cl types.Classification
	err := c.jsonRequest(ctx, http.MethodGet, "/api/classify", idQuery("startId", startID, "endId", endID), nil, &cl)
	return cl, err
}

// Validate reports whether the actor is in the cast of the media work.
func (c *Client) Validate(ctx context.Context, actorID, mediaID int64, category types.Category) (bool, error) {
	var resp validateResponse
	q := idQuery("actorId", actorID, "mediaId", mediaID, "mediaType", string(category))
	if err := c.jsonRequest(ctx, http.MethodGet, "/api/validate", q, nil, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// VerifyChain verifies a finished chain. start and end are the round's actors;
// 0 skips the endpoint check.
func (c *Client) VerifyChain(ctx context.Context, links []types.Link, start, end int64) (chain.Result, error) {
	payload := map[string]any{"start": start, "end": end, "links": links}
	var res chain.Result
	err := c.jsonRequest(ctx, http.MethodPost, "/api/chain/verify", nil, payload, &res)
	return res, err
}

// --- Pairs ---

// Pair draws a pair of the given difficulty. mode is "new" or "again"; empty means new.
func (c *Client) Pair(ctx context.Context, d types.Difficulty, mode string) (Pair, error) {
	var p Pair
	err := c.jsonRequest(ctx, http.MethodGet, "/api/pair", idQuery("difficulty", string(d), "mode", mode), nil, &p)
	return p, err
}

// DailyPair returns the pair of the day. A zero date asks for today.
func (c *Client) DailyPair(ctx context.Context, d types.Difficulty, date time.Time) (Pair, error) {
	q := idQuery("difficulty", string(d))
	if !date.IsZero() {
		q.Set("date", date.Format(time.DateOnly))
	}
	var p Pair
	err := c.jsonRequest(ctx, http.MethodGet, "/api/pair/daily", q, nil, &p)
	return p, err
}

// ResolvePair turns a share code back into a pair.
func (c *Client) ResolvePair(ctx context.Context, code string, d types.Difficulty) (ResolvedPair, error) {
	var r ResolvedPair
	err := c.jsonRequest(ctx, http.MethodGet, "/api/pair/resolve", idQuery("pair", code, "d", string(d)), nil, &r)
	return r, err
}

// StartPairTask starts an asynchronous selection and returns its task.
func (c *Client) StartPairTask(ctx context.Context, d types.Difficulty, mode string) (*Task, error) {
	payload := map[string]string{"difficulty": string(d)}
	if mode != "" {
		payload["mode"] = mode
	}
	var t Task
	if err := c.jsonRequest(ctx, http.MethodPost, "/api/pair/tasks", nil, payload, &t); err != nil {
		return nil, err
	}
	t.client = c
	return &t, nil
}

// GetTaskStatus fetches the current state of a task.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*Task, error) {
	var t Task
	if err := c.jsonRequest(ctx, http.MethodGet, "/api/pair/tasks/"+url.PathEscape(taskID), nil, nil, &t); err != nil {
		return nil, err
	}
	t.client = c
	return &t, nil
}

// Refresh updates the task's status by querying the server.
func (t *Task) Refresh(ctx context.Context) error {
	if t.client == nil {
		return fmt.Errorf("client is not associated with the task")
	}
	updated, err := t.client.GetTaskStatus(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Status = updated.Status
	t.ProgressMessage = updated.ProgressMessage
	t.Error = updated.Error
	t.Code = updated.Code
	t.Result = updated.Result
	return nil
}

// Wait blocks until the task finishes, checking its status at regular intervals.
func (t *Task) Wait(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for task %s: %w", t.ID, ctx.Err())
		case <-ticker.C:
			if err := t.Refresh(ctx); err != nil {
				return err
			}
			switch t.Status {
			case "completed":
				return nil
			case "failed":
				return fmt.Errorf("task %s failed with error: %s", t.ID, t.Error)
			case "running", "started":
				// Continue waiting.
			default:
				return fmt.Errorf("unknown task status: %s", t.Status)
			}
		}
	}
}
