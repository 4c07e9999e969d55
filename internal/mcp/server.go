package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/castchain/pkg/engine"
)

func NewMCPServer(eng *engine.Engine, version string) *mcp.Server {
	service := NewService(eng)

	s := mcp.NewServer(&mcp.Implementation{
		Name:    "castchain",
		Version: version,
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_pool",
		Description: "List the actors currently eligible as round endpoints.",
	}, service.GetPool)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "classify_pair",
		Description: "Check whether two actors are linked through one or two shared films or series, with a witness path.",
	}, service.ClassifyPair)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "validate_credit",
		Description: "Check whether an actor appears in the cast of a film (movie) or series (tv).",
	}, service.ValidateCredit)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "select_pair",
		Description: "Pick a start and end actor matching a difficulty. Pass a date to get the daily pair.",
	}, service.SelectPair)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "search_media",
		Description: "Search films and series by title, or actors when type is person.",
	}, service.SearchMedia)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "verify_chain",
		Description: "Verify every link of a finished actor/media chain and score it.",
	}, service.VerifyChain)

	return s
}
