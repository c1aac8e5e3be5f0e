package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/jokers-gambit/internal/joker"
	"github.com/MJE43/jokers-gambit/internal/run"
	"github.com/MJE43/jokers-gambit/internal/scan"
	"github.com/MJE43/jokers-gambit/internal/scoring"
	"github.com/MJE43/jokers-gambit/internal/store"
)

// Options configures a Server.
type Options struct {
	DB           store.DB
	Engine       *scoring.Engine
	Logger       *slog.Logger
	ScanTimeout  time.Duration
	ScanMaxRange uint64
}

// Server handles HTTP requests
type Server struct {
	db           store.DB
	engine       *scoring.Engine
	registry     *joker.Registry
	scanner      *scan.Scanner
	errorHandler *ErrorHandler
	logger       *slog.Logger
	scanTimeout  time.Duration
	startTime    time.Time

	mu   sync.Mutex
	runs map[string]*run.Run

	// actions serialises state changes so each persisted play gets its own sequence number.
	actions sync.Mutex
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	eng := opts.Engine
	if eng == nil {
		eng = scoring.New(nil, logger)
	}
	timeout := opts.ScanTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s := &Server{
		db:           opts.DB,
		engine:       eng,
		registry:     eng.Registry(),
		scanner:      scan.NewScanner(eng, scan.WithMaxRange(opts.ScanMaxRange)),
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		scanTimeout:  timeout,
		startTime:    time.Now(),
		runs:         make(map[string]*run.Run),
	}

	logger.Info("api server ready",
		"jokers", len(s.registry.List()),
		"database_enabled", s.db != nil,
		"engine_version", EngineVersion)
	return s
}

// Routes sets up the HTTP routes with middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.CORSMiddleware)

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/live", s.handleLiveness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/jokers", s.handleListJokers)
		r.Post("/classify", s.handleClassify)
		r.Post("/score", s.handleScore)
		r.Post("/deck/shuffle", s.handleShuffle)
		r.Post("/scan", s.handleScan)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Post("/", s.handleCreateRun)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Post("/play", s.handlePlay)
				r.Post("/discard", s.handleDiscard)
				r.Post("/buy", s.handleBuy)
				r.Post("/next", s.handleNextRound)
				r.Get("/plays", s.handleListPlays)
			})
		})
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// decode reads a JSON body, reporting malformed input as a validation error.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return invalid("body", "invalid JSON: %v", err)
	}
	return nil
}

// lookupRun returns the live run for id, restoring it from the store when
// it is not in memory.
func (s *Server) lookupRun(ctx context.Context, id string) (*run.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.runs[id]; ok {
		return r, nil
	}
	if s.db == nil {
		return nil, fmt.Errorf("run %s: %w", id, store.ErrNotFound)
	}

	rec, err := s.db.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	var st run.State
	if err := json.Unmarshal(rec.State, &st); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	r := run.Restore(st, s.engine, s.logger)
	s.runs[id] = r
	s.logger.Debug("run restored", "run", id, "phase", st.Phase)
	return r, nil
}

func record(st run.State, best int) (*store.Run, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode run %s: %w", st.ID, err)
	}
	return &store.Run{
		ID:        st.ID,
		Seed:      st.Seed,
		Seeded:    st.Seeded,
		Phase:     string(st.Phase),
		Ante:      st.Ante,
		Round:     st.Round,
		Money:     st.Money,
		BestScore: best,
		State:     raw,
	}, nil
}

// persist writes the run state and, when given, the action that produced it.
func (s *Server) persist(ctx context.Context, st run.State, play *store.Play) error {
	if s.db == nil {
		return nil
	}

	best := 0
	if prev, err := s.db.GetRun(ctx, st.ID); err == nil {
		best = prev.BestScore
	}
	if play != nil && play.Score > best {
		best = play.Score
	}

	rec, err := record(st, best)
	if err != nil {
		return err
	}
	if err := s.db.UpdateRun(ctx, rec); err != nil {
		return err
	}
	if play != nil {
		play.RunID = st.ID
		play.Seq = st.Actions
		if err := s.db.SavePlay(ctx, play); err != nil {
			return err
		}
	}
	return nil
}
