package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/deck"
	"github.com/MJE43/jokers-gambit/internal/engine"
	"github.com/MJE43/jokers-gambit/internal/hand"
	"github.com/MJE43/jokers-gambit/internal/joker"
	"github.com/MJE43/jokers-gambit/internal/run"
	"github.com/MJE43/jokers-gambit/internal/scan"
	"github.com/MJE43/jokers-gambit/internal/store"
)

func (s *Server) handleListJokers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, JokersResponse{
		Jokers:        s.registry.List(),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decode(r, &req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	played, err := parseSpecs("cards", req.Cards, 1, deck.Size)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ClassifyResponse{
		Result:        hand.Classify(played),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decode(r, &req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	if err := ValidateScoreRequest(&req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	played, err := parseSpecs("played", req.Played, 1, run.MaxSelection)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	held, err := parseSpecs("held", req.Held, 0, deck.Size)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	instances := make([]joker.Instance, 0, len(req.Jokers))
	for i, id := range req.Jokers {
		if !s.registry.Has(id) {
			s.errorHandler.HandleValidationError(w, r, "jokers["+strconv.Itoa(i)+"]", "unknown joker "+id)
			return
		}
		instances = append(instances, joker.NewInstance(id))
	}

	snap := &joker.Snapshot{
		Hand:              append(append([]cards.Card{}, played...), held...),
		Jokers:            instances,
		Money:             req.Money,
		Ante:              max(req.Ante, 1),
		Round:             max(req.Round, 1),
		TargetScore:       req.TargetScore,
		HandsRemaining:    req.HandsRemaining,
		DiscardsRemaining: req.DiscardsRemaining,
	}
	result := hand.Classify(played)
	breakdown := s.engine.Trace(result, snap)

	s.writeJSON(w, http.StatusOK, ScoreResponse{
		Result:        result,
		Score:         breakdown.Score,
		Breakdown:     breakdown,
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	var req ShuffleRequest
	if err := decode(r, &req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	if err := ValidateShuffleRequest(&req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	resp := ShuffleResponse{Mode: req.Mode, EngineVersion: EngineVersion}
	var shuffled []cards.Card
	switch req.Mode {
	case deck.ModeProvablyFair:
		seeds := engine.Seeds{Server: req.ServerSeed, Client: req.ClientSeed}
		shuffled = deck.ShuffleProvablyFair(deck.New(), seeds, req.Nonce)
		resp.ServerSeedHash = seeds.ServerHash()
	default:
		shuffled = deck.Shuffle(deck.New(), req.Seed)
		if resp.Mode == "" {
			resp.Mode = deck.ModeEntropy
			if req.Seed != nil {
				resp.Mode = deck.ModeSeeded
			}
		}
	}

	resp.Cards = make([]string, len(shuffled))
	for i, c := range shuffled {
		resp.Cards[i] = c.Code()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scan.Request
	if err := decode(r, &req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	if err := ValidateScanRequest(&req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	if req.TimeoutMs == 0 {
		req.TimeoutMs = int(s.scanTimeout / time.Millisecond)
	}

	s.logger.Info("scan requested",
		"seed_start", req.SeedStart, "seed_end", req.SeedEnd,
		"jokers", strings.Join(req.Jokers, ","), "target_op", req.TargetOp,
		"target_val", req.TargetVal, "limit", req.Limit, "timeout_ms", req.TimeoutMs)

	result, err := s.scanner.Scan(r.Context(), req)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := decode(r, &req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	for i, id := range req.Jokers {
		if !s.registry.Has(id) {
			s.errorHandler.HandleValidationError(w, r, "jokers["+strconv.Itoa(i)+"]", "unknown joker "+id)
			return
		}
	}
	if len(req.Jokers) > run.MaxJokers {
		s.errorHandler.HandleValidationError(w, r, "jokers", "too many jokers")
		return
	}

	rn := run.New(run.Options{Seed: req.Seed, Jokers: req.Jokers, Engine: s.engine, Logger: s.logger})
	st := rn.State()

	if s.db != nil {
		rec, err := record(st, 0)
		if err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		if err := s.db.SaveRun(r.Context(), rec); err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
	}

	s.mu.Lock()
	s.runs[st.ID] = rn
	s.mu.Unlock()

	s.writeJSON(w, http.StatusCreated, RunResponse{Run: st, EngineVersion: EngineVersion})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeJSON(w, http.StatusOK, store.RunsList{Runs: []store.Run{}, Page: 1})
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))

	list, err := s.db.ListRuns(r.Context(), store.RunsQuery{Phase: q.Get("phase"), Page: page, PerPage: perPage})
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rn, err := s.lookupRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Run: rn.State(), EngineVersion: EngineVersion})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	rn, req, ok := s.actionTarget(w, r)
	if !ok {
		return
	}
	s.actions.Lock()
	defer s.actions.Unlock()

	res, err := rn.Play(req.CardIDs)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	st := rn.State()
	play := &store.Play{
		Kind:     store.KindPlay,
		Cards:    codes(res.Played),
		Category: string(res.Hand.Category),
		Score:    res.Score,
	}
	if res.Payout != nil {
		play.Money = res.Payout.Total
	}
	if err := s.persist(r.Context(), st, play); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PlayResponse{Result: res, Run: st, EngineVersion: EngineVersion})
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	rn, req, ok := s.actionTarget(w, r)
	if !ok {
		return
	}
	s.actions.Lock()
	defer s.actions.Unlock()

	res, err := rn.Discard(req.CardIDs)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	st := rn.State()
	play := &store.Play{Kind: store.KindDiscard, Cards: codes(res.Discarded), Money: res.Money}
	if err := s.persist(r.Context(), st, play); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DiscardResponse{Result: res, Run: st, EngineVersion: EngineVersion})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	rn, err := s.lookupRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	var req BuyRequest
	if err := decode(r, &req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.actions.Lock()
	defer s.actions.Unlock()

	bought, err := rn.Buy(req.Index)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	st := rn.State()
	if err := s.persist(r.Context(), st, nil); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, BuyResponse{Joker: bought, Run: st, EngineVersion: EngineVersion})
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	rn, err := s.lookupRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.actions.Lock()
	defer s.actions.Unlock()

	if err := rn.NextRound(); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	st := rn.State()
	if err := s.persist(r.Context(), st, nil); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Run: st, EngineVersion: EngineVersion})
}

func (s *Server) handleListPlays(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.lookupRun(r.Context(), id); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	plays := []store.Play{}
	if s.db != nil {
		var err error
		if plays, err = s.db.ListPlays(r.Context(), id); err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"run_id":         id,
		"plays":          plays,
		"engine_version": EngineVersion,
	})
}

// actionTarget resolves the run and decodes a card selection for play and
// discard. It writes the error response itself when ok is false.
func (s *Server) actionTarget(w http.ResponseWriter, r *http.Request) (*run.Run, ActionRequest, bool) {
	var req ActionRequest
	rn, err := s.lookupRun(r.Context(), chi.URLParam(r, "id"))
	if err == nil {
		err = decode(r, &req)
	}
	if err == nil {
		err = ValidateActionRequest(&req)
	}
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return nil, req, false
	}
	return rn, req, true
}

func codes(cs []cards.Card) string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Code()
	}
	return strings.Join(out, ",")
}
