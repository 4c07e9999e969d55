package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sanonone/castchain/pkg/chain"
	"github.com/sanonone/castchain/pkg/core/types"
	"github.com/sanonone/castchain/pkg/engine"
	"github.com/sanonone/castchain/pkg/errs"
)

// pairTaskTimeout bounds one asynchronous selection.
const pairTaskTimeout = 2 * time.Minute

// registerHTTPHandlers sets up the REST API routes.
func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	// --- Game data ---
	mux.HandleFunc("GET /api/pool", s.handlePool)
	mux.HandleFunc("GET /api/credits", s.handleCredits)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/person", s.handlePerson)

	// --- Oracle ---
	mux.HandleFunc("GET /api/classify", s.handleClassify)
	mux.HandleFunc("GET /api/validate", s.handleValidate)
	mux.HandleFunc("POST /api/chain/verify", s.handleChainVerify)

	// --- Pairs ---
	mux.HandleFunc("GET /api/pair", s.handlePair)
	mux.HandleFunc("GET /api/pair/daily", s.handleDailyPair)
	mux.HandleFunc("GET /api/pair/resolve", s.handleResolvePair)
	mux.HandleFunc("POST /api/pair/tasks", s.handlePairTaskStart)
	mux.HandleFunc("GET /api/pair/tasks/{id}", s.handlePairTaskGet)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		PoolAgeSeconds: s.Engine.PoolAge().Seconds(),
	})
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	actors, err := s.Engine.Pool(r.Context())
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, PoolResponse{Actors: actors})
}

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	category, err := types.ParseCategory(r.URL.Query().Get("type"))
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}

	cast, err := s.Engine.CastList(r.Context(), id, category)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, cast)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")

	var (
		results any
		err     error
	)
	switch kind := q.Get("type"); kind {
	case "", "media":
		results, err = s.Engine.SearchMedia(r.Context(), query)
	case "person":
		results, err = s.Engine.SearchPeople(r.Context(), query)
	default:
		err = errs.InvalidInput(fmt.Sprintf("unknown search type %q", kind))
	}
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, SearchResponse{Results: results})
}

func (s *Server) handlePerson(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r, "id")
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	p, err := s.Engine.Person(r.Context(), id)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, p)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	startID, err := queryID(r, "startId")
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	endID, err := queryID(r, "endId")
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}

	c, err := s.Engine.Classify(r.Context(), startID, endID)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, c)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	actorID, err := queryID(r, "actorId")
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	mediaID, err := queryID(r, "mediaId")
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	category, err := types.ParseCategory(r.URL.Query().Get("mediaType"))
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}

	ok, err := s.Engine.IsMember(r.Context(), actorID, mediaID, category)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, ValidateResponse{Valid: ok})
}

func (s *Server) handleChainVerify(w http.ResponseWriter, r *http.Request) {
	var req ChainVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, r, errs.InvalidInput("invalid JSON body"))
		return
	}

	res, err := s.Engine.VerifyChain(r.Context(), chain.Chain{Links: req.Links}, req.Start, req.End)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, res)
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := types.ParseDifficulty(q.Get("difficulty"))
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	mode, err := engine.ParseMode(q.Get("mode"))
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}

	sel, err := s.Engine.SelectPair(r.Context(), d, mode)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, PairResponse{
		Selection:  sel,
		Difficulty: d,
		ShareCode:  engine.PairCode(sel.Pair),
	})
}

func (s *Server) handleDailyPair(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	d, err := types.ParseDifficulty(q.Get("difficulty"))
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}

	date := s.Engine.Today()
	if raw := q.Get("date"); raw != "" {
		date, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			s.writeHTTPError(w, r, errs.InvalidInput(fmt.Sprintf("date must be YYYY-MM-DD, got %q", raw)))
			return
		}
	}

	sel, err := s.Engine.DailyPair(r.Context(), date, d)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, PairResponse{
		Selection:  sel,
		Difficulty: d,
		ShareCode:  engine.PairCode(sel.Pair),
		Date:       date.Format(time.DateOnly),
	})
}

func (s *Server) handleResolvePair(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var d types.Difficulty
	if raw := q.Get("d"); raw != "" {
		var err error
		if d, err = types.ParseDifficulty(raw); err != nil {
			s.writeHTTPError(w, r, err)
			return
		}
	}

	pair, err := s.Engine.ResolvePair(r.Context(), q.Get("pair"))
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, ResolveResponse{Pair: pair, Difficulty: d, ShareCode: engine.PairCode(pair)})
}

// handlePairTaskStart runs a selection in the background and returns the task id.
// Selections can take many upstream round trips; clients poll the task instead
// of holding the request open.
func (s *Server) handlePairTaskStart(w http.ResponseWriter, r *http.Request) {
	var req PairTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, r, errs.InvalidInput("invalid JSON body"))
		return
	}
	d, err := types.ParseDifficulty(req.Difficulty)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}
	mode, err := engine.ParseMode(req.Mode)
	if err != nil {
		s.writeHTTPError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), pairTaskTimeout)
	task := s.taskManager.NewTask(cancel)
	logger := s.logger.With("task_id", task.ID, "request_id", RequestIDFrom(r.Context()))

	go func() {
		defer cancel()
		task.SetStatus(TaskStatusRunning)
		task.SetProgress(fmt.Sprintf("selecting %s pair", d))

		sel, err := s.Engine.SelectPair(ctx, d, mode)
		if err != nil {
			logger.Error("pair task failed", "error", err)
			task.SetError(err)
			return
		}
		task.SetResult(sel)
		logger.Info("pair task completed", "attempts", sel.Attempts, "matched", sel.Matched)
	}()

	s.writeHTTPResponse(w, http.StatusAccepted, task.View())
}

func (s *Server) handlePairTaskGet(w http.ResponseWriter, r *http.Request) {
	task, ok := s.taskManager.GetTask(r.PathValue("id"))
	if !ok {
		s.writeHTTPError(w, r, errs.NotFound("task not found"))
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, task.View())
}

// --- Helpers for HTTP Responses ---

func queryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, errs.InvalidInput(fmt.Sprintf("missing %s", name))
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.InvalidInput(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// writeHTTPError maps the error kind to a status code. Unclassified errors are
// logged and reported as a generic 500.
func (s *Server) writeHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	kind := errs.KindOf(err)
	msg := err.Error()
	if kind == errs.KindUnknown {
		s.logger.Error("unhandled error", "error", err, "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()))
		msg = "Internal Server Error"
	} else if status >= 500 {
		s.logger.Warn("request failed", "error", err, "kind", kind, "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()))
	}
	s.writeHTTPResponse(w, status, ErrorResponse{Error: msg, Code: string(kind)})
}
