package server

import (
	"github.com/sanonone/castchain/pkg/core/selector"
	"github.com/sanonone/castchain/pkg/core/types"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// PoolResponse lists the current actor pool.
type PoolResponse struct {
	Actors []types.PoolActor `json:"actors"`
}

// ValidateResponse is the verdict of a single move check.
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// SearchResponse wraps media or people search results.
type SearchResponse struct {
	Results any `json:"results"`
}

// PairResponse is a selected pair plus its share code.
type PairResponse struct {
	selector.Selection
	Difficulty types.Difficulty `json:"difficulty"`
	ShareCode  string           `json:"shareCode"`
	Date       string           `json:"date,omitempty"`
}

// ResolveResponse is a pair reconstructed from a share code.
type ResolveResponse struct {
	Pair       types.ActorPair  `json:"pair"`
	Difficulty types.Difficulty `json:"difficulty,omitempty"`
	ShareCode  string           `json:"shareCode"`
}

// PairTaskRequest starts an asynchronous pair selection.
type PairTaskRequest struct {
	Difficulty string `json:"difficulty"`
	Mode       string `json:"mode,omitempty"`
}

// ChainVerifyRequest is a finished chain to verify.
// Start and End are the round's fixed actors; 0 skips the check.
type ChainVerifyRequest struct {
	Start int64        `json:"start"`
	End   int64        `json:"end"`
	Links []types.Link `json:"links"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status         string  `json:"status"`
	PoolAgeSeconds float64 `json:"poolAgeSeconds"`
}
