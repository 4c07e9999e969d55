package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/castchain/pkg/chain"
	"github.com/sanonone/castchain/pkg/core/selector"
	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/engine"
	"github.com/sanonone/castchain/pkg/errs"
)

type Service struct {
	engine *engine.Engine
}

func NewService(eng *engine.Engine) *Service {
	return &Service{engine: eng}
}

// --- Tool Handlers ---

func (s *Service) GetPool(ctx context.Context, req *mcp.CallToolRequest, args GetPoolArgs) (*mcp.CallToolResult, GetPoolResult, error) {
	pool, err := s.engine.Pool(ctx)
	if err != nil {
		return nil, GetPoolResult{}, err
	}

	n := len(pool)
	if args.Limit > 0 && args.Limit < n {
		n = args.Limit
	}
	actors := make([]types.Actor, n)
	for i := range n {
		actors[i] = pool[i].Actor
	}
	return nil, GetPoolResult{Size: len(pool), Actors: actors}, nil
}

func (s *Service) ClassifyPair(ctx context.Context, req *mcp.CallToolRequest, args ClassifyPairArgs) (*mcp.CallToolResult, ClassifyPairResult, error) {
	c, err := s.engine.Classify(ctx, args.StartID, args.EndID)
	if err != nil {
		return nil, ClassifyPairResult{}, err
	}
	return nil, ClassifyPairResult{
		Connected: c.Connected,
		MinHops:   int(c.MinHops),
		Stage:     c.Stage,
		Path:      describePath(c.Witness),
	}, nil
}

func (s *Service) ValidateCredit(ctx context.Context, req *mcp.CallToolRequest, args ValidateCreditArgs) (*mcp.CallToolResult, ValidateCreditResult, error) {
	category, err := types.ParseCategory(args.MediaType)
	if err != nil {
		return nil, ValidateCreditResult{}, err
	}
	ok, err := s.engine.IsMember(ctx, args.ActorID, args.MediaID, category)
	if err != nil {
		return nil, ValidateCreditResult{}, err
	}
	return nil, ValidateCreditResult{Valid: ok}, nil
}

func (s *Service) SelectPair(ctx context.Context, req *mcp.CallToolRequest, args SelectPairArgs) (*mcp.CallToolResult, SelectPairResult, error) {
	d, err := types.ParseDifficulty(args.Difficulty)
	if err != nil {
		return nil, SelectPairResult{}, err
	}

	var sel selector.Selection
	if args.Date != "" {
		date, perr := time.Parse(time.DateOnly, args.Date)
		if perr != nil {
			return nil, SelectPairResult{}, errs.InvalidInput(fmt.Sprintf("date must be YYYY-MM-DD, got %q", args.Date))
		}
		sel, err = s.engine.DailyPair(ctx, date, d)
	} else {
		mode, merr := engine.ParseMode(args.Mode)
		if merr != nil {
			return nil, SelectPairResult{}, merr
		}
		sel, err = s.engine.SelectPair(ctx, d, mode)
	}
	if err != nil {
		return nil, SelectPairResult{}, err
	}

	return nil, SelectPairResult{
		Start:     sel.Pair.Start.Actor,
		End:       sel.Pair.End.Actor,
		Matched:   sel.Matched,
		Attempts:  sel.Attempts,
		ShareCode: engine.PairCode(sel.Pair),
	}, nil
}

func (s *Service) SearchMedia(ctx context.Context, req *mcp.CallToolRequest, args SearchMediaArgs) (*mcp.CallToolResult, SearchMediaResult, error) {
	var lines []string
	switch args.Type {
	case "", "media":
		works, err := s.engine.SearchMedia(ctx, args.Query)
		if err != nil {
			return nil, SearchMediaResult{}, err
		}
		for _, w := range works {
			lines = append(lines, describeMedia(w))
		}
	case "person":
		actors, err := s.engine.SearchPeople(ctx, args.Query)
		if err != nil {
			return nil, SearchMediaResult{}, err
		}
		for _, a := range actors {
			lines = append(lines, fmt.Sprintf("%s (id %d)", a.Name, a.ID))
		}
	default:
		return nil, SearchMediaResult{}, errs.InvalidInput(fmt.Sprintf("unknown search type %q", args.Type))
	}

	if lines == nil {
		lines = []string{}
	}
	return nil, SearchMediaResult{Results: lines}, nil
}

func (s *Service) VerifyChain(ctx context.Context, req *mcp.CallToolRequest, args VerifyChainArgs) (*mcp.CallToolResult, VerifyChainResult, error) {
	res, err := s.engine.VerifyChain(ctx, chain.Chain{Links: args.Links}, 0, 0)
	if err != nil {
		return nil, VerifyChainResult{}, err
	}
	return nil, VerifyChainResult{
		Valid:    res.Valid,
		FailedAt: res.FailedAt,
		Steps:    res.Steps,
		Score:    res.Score,
	}, nil
}

// --- Formatting ---

func describeMedia(w types.MediaWork) string {
	kind := "film"
	if w.Category == types.Series {
		kind = "series"
	}
	if w.Year != "" {
		return fmt.Sprintf("%s (%s, %s, id %d)", w.Title, w.Year, kind, w.ID)
	}
	return fmt.Sprintf("%s (%s, id %d)", w.Title, kind, w.ID)
}

func describePath(links []types.Link) string {
	if len(links) == 0 {
		return ""
	}
	parts := make([]string, len(links))
	for i, l := range links {
		name := l.Name
		if name == "" {
			name = fmt.Sprintf("%s %d", l.Kind, l.ID)
		}
		parts[i] = name
	}
	return strings.Join(parts, " -> ")
}
