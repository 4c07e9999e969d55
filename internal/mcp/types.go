package mcp

import (
	"github.com/sanonone/castchain/pkg/core/types"
)

// --- Tool Arguments ---

type GetPoolArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max number of actors to return (default: all)"`
}

type GetPoolResult struct {
	Size   int           `json:"size"`
	Actors []types.Actor `json:"actors"`
}

type ClassifyPairArgs struct {
	StartID int64 `json:"start_id" jsonschema:"TMDb id of the start actor"`
	EndID   int64 `json:"end_id" jsonschema:"TMDb id of the end actor"`
}

type ClassifyPairResult struct {
	Connected bool   `json:"connected"`
	MinHops   int    `json:"min_hops"` // 0 when no proof was found
	Stage     string `json:"stage"`
	Path      string `json:"path,omitempty"` // "A -> Film -> B"
}

type ValidateCreditArgs struct {
	ActorID   int64  `json:"actor_id" jsonschema:"TMDb id of the actor"`
	MediaID   int64  `json:"media_id" jsonschema:"TMDb id of the film or series"`
	MediaType string `json:"media_type" jsonschema:"Either movie or tv"`
}

type ValidateCreditResult struct {
	Valid bool `json:"valid"`
}

type SelectPairArgs struct {
	Difficulty string `json:"difficulty" jsonschema:"One of easy, medium or hard"`
	Mode       string `json:"mode,omitempty" jsonschema:"new (default) for a fresh round or again for a replay"`
	Date       string `json:"date,omitempty" jsonschema:"YYYY-MM-DD. When set the daily pair for that date is returned"`
}

type SelectPairResult struct {
	Start     types.Actor `json:"start"`
	End       types.Actor `json:"end"`
	Matched   bool        `json:"matched"`
	Attempts  int         `json:"attempts"`
	ShareCode string      `json:"share_code"`
}

type SearchMediaArgs struct {
	Query string `json:"query" jsonschema:"Title to search for"`
	Type  string `json:"type,omitempty" jsonschema:"media (default) for films and series or person for actors"`
}

type SearchMediaResult struct {
	Results []string `json:"results"` // Formatted strings for the LLM
}

type VerifyChainArgs struct {
	Links []types.Link `json:"links" jsonschema:"Alternating actor and media links starting and ending with an actor"`
}

type VerifyChainResult struct {
	Valid    bool   `json:"valid"`
	FailedAt int    `json:"failed_at"`
	Steps    int    `json:"steps"`
	Score    string `json:"score,omitempty"`
}
