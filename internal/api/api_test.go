package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/jokers-gambit/internal/hand"
	"github.com/MJE43/jokers-gambit/internal/run"
	"github.com/MJE43/jokers-gambit/internal/scan"
	"github.com/MJE43/jokers-gambit/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.SQLiteDB) {
	t.Helper()
	db, err := store.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	return NewServer(Options{DB: db}), db
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func royalFlush() []CardSpec {
	return []CardSpec{{Code: "10H"}, {Code: "JH"}, {Code: "QH"}, {Code: "KH"}, {Code: "AH"}}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Routes(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[HealthCheckResponse](t, w)
	assert.Equal(t, HealthStatusHealthy, resp.Status)
	assert.Contains(t, resp.Checks, "database")
	assert.Contains(t, resp.Checks, "jokers")
}

func TestHealthWithoutDatabaseIsDegraded(t *testing.T) {
	s := NewServer(Options{})
	w := do(t, s.Routes(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, HealthStatusDegraded, decodeBody[HealthCheckResponse](t, w).Status)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/score", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	assert.NotContains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Error-Type")

	get := do(t, s.Routes(), http.MethodGet, "/api/v1/version", nil)
	assert.Equal(t, "*", get.Header().Get("Access-Control-Allow-Origin"))
}

func TestJokersEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Routes(), http.MethodGet, "/api/v1/jokers", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[JokersResponse](t, w)
	require.NotEmpty(t, resp.Jokers)
	ids := make([]string, len(resp.Jokers))
	for i, d := range resp.Jokers {
		ids[i] = d.ID
	}
	assert.Contains(t, ids, "j_joker")
	assert.Contains(t, ids, "j_the_duo")
	assert.Equal(t, EngineVersion, resp.EngineVersion)
}

func TestClassifyEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Routes(), http.MethodPost, "/api/v1/classify", ClassifyRequest{Cards: royalFlush()})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[ClassifyResponse](t, w)
	assert.Equal(t, hand.StraightFlush, resp.Result.Category)
	assert.Len(t, resp.Result.ScoringCards, 5)
	assert.Equal(t, 100, resp.Result.BaseChips)
}

func TestClassifyRejectsEmptySelection(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Routes(), http.MethodPost, "/api/v1/classify", ClassifyRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeBody[EngineError](t, w)
	assert.Equal(t, ErrTypeValidation, resp.Type)
	assert.Equal(t, "cards", resp.Context["field"])
	assert.NotEmpty(t, resp.RequestID)
}

func TestClassifyRejectsBadCard(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Routes(), http.MethodPost, "/api/v1/classify", ClassifyRequest{Cards: []CardSpec{{Code: "1X"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s.Routes(), http.MethodPost, "/api/v1/classify",
		ClassifyRequest{Cards: []CardSpec{{Code: "AH", Enhancement: "Plastic"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s.Routes(), http.MethodPost, "/api/v1/score", ScoreRequest{
		Played: royalFlush(),
		Jokers: []string{"j_joker"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[ScoreResponse](t, w)
	assert.Equal(t, 1812, resp.Score)
	assert.Equal(t, resp.Score, resp.Breakdown.Score)
	assert.NotEmpty(t, resp.Breakdown.Steps)

	w = do(t, s.Routes(), http.MethodPost, "/api/v1/score", ScoreRequest{
		Played: []CardSpec{{Code: "2C"}, {Code: "2D"}},
		Held:   []CardSpec{{Code: "9S", Enhancement: "Steel"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 42, decodeBody[ScoreResponse](t, w).Score)
}

func TestScoreRejectsUnknownJoker(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Routes(), http.MethodPost, "/api/v1/score", ScoreRequest{
		Played: royalFlush(),
		Jokers: []string{"j_nope"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "jokers[0]", decodeBody[EngineError](t, w).Context["field"])
}

func TestShuffleEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	seed := uint32(42)

	a := decodeBody[ShuffleResponse](t, do(t, s.Routes(), http.MethodPost, "/api/v1/deck/shuffle", ShuffleRequest{Seed: &seed}))
	b := decodeBody[ShuffleResponse](t, do(t, s.Routes(), http.MethodPost, "/api/v1/deck/shuffle", ShuffleRequest{Seed: &seed}))
	assert.Len(t, a.Cards, 52)
	assert.Equal(t, a.Cards, b.Cards)
	assert.Equal(t, "seeded", string(a.Mode))

	pf := do(t, s.Routes(), http.MethodPost, "/api/v1/deck/shuffle", ShuffleRequest{
		Mode: "provably_fair", ServerSeed: "abc", ClientSeed: "xyz", Nonce: 3,
	})
	require.Equal(t, http.StatusOK, pf.Code)
	resp := decodeBody[ShuffleResponse](t, pf)
	assert.Len(t, resp.Cards, 52)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", resp.ServerSeedHash)

	bad := do(t, s.Routes(), http.MethodPost, "/api/v1/deck/shuffle", ShuffleRequest{Mode: "provably_fair"})
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestScanEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s.Routes(), http.MethodPost, "/api/v1/scan", scan.Request{
		SeedStart: 1, SeedEnd: 200, TargetOp: scan.OpGreaterEqual, Limit: 5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[scan.Result](t, w)
	assert.Len(t, resp.Hits, 5)
	assert.Equal(t, uint64(200), resp.Summary.TotalEvaluated)

	bad := do(t, s.Routes(), http.MethodPost, "/api/v1/scan", scan.Request{SeedStart: 9, SeedEnd: 1, TargetOp: scan.OpEqual})
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	assert.Equal(t, ErrTypeInvalidScan, decodeBody[EngineError](t, bad).Type)
}

func TestRunLifecycle(t *testing.T) {
	s, db := newTestServer(t)
	h := s.Routes()
	seed := uint32(7)

	w := do(t, h, http.MethodPost, "/api/v1/runs", CreateRunRequest{Seed: &seed, Jokers: []string{"j_joker"}})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[RunResponse](t, w).Run
	require.Len(t, created.Hand, run.HandSize)
	assert.Equal(t, run.PhasePlaying, created.Phase)

	w = do(t, h, http.MethodPost, "/api/v1/runs/"+created.ID+"/discard",
		ActionRequest{CardIDs: []string{created.Hand[0].ID, created.Hand[1].ID}})
	require.Equal(t, http.StatusOK, w.Code)
	discarded := decodeBody[DiscardResponse](t, w)
	assert.Equal(t, run.DiscardsPerRound-1, discarded.Run.DiscardsRemaining)

	cur := discarded.Run.Hand
	w = do(t, h, http.MethodPost, "/api/v1/runs/"+created.ID+"/play",
		ActionRequest{CardIDs: []string{cur[0].ID, cur[1].ID, cur[2].ID}})
	require.Equal(t, http.StatusOK, w.Code)
	played := decodeBody[PlayResponse](t, w)
	assert.Positive(t, played.Result.Score)
	assert.Equal(t, run.HandsPerRound-1, played.Run.HandsRemaining)

	w = do(t, h, http.MethodGet, "/api/v1/runs/"+created.ID+"/plays", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plays struct {
		Plays []store.Play `json:"plays"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&plays))
	require.Len(t, plays.Plays, 2)
	assert.Equal(t, store.KindDiscard, plays.Plays[0].Kind)
	assert.Equal(t, store.KindPlay, plays.Plays[1].Kind)
	assert.Equal(t, played.Result.Score, plays.Plays[1].Score)

	rec, err := db.GetRun(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, played.Result.Score, rec.BestScore)

	// A fresh server over the same database resumes the run where it left off.
	resumed := NewServer(Options{DB: db})
	w = do(t, resumed.Routes(), http.MethodGet, "/api/v1/runs/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[RunResponse](t, w).Run
	assert.Equal(t, played.Run.Phase, got.Phase)
	assert.Equal(t, played.Run.RNG, got.RNG)
	assert.Equal(t, played.Run.RoundScore, got.RoundScore)
	assert.Equal(t, played.Run.Actions, got.Actions)
	assert.Equal(t, len(played.Run.Hand), len(got.Hand))

	w = do(t, h, http.MethodGet, "/api/v1/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeBody[store.RunsList](t, w).TotalCount)
}

func TestRunActionErrors(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Routes()

	w := do(t, h, http.MethodGet, "/api/v1/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrTypeNotFound, decodeBody[EngineError](t, w).Type)

	created := decodeBody[RunResponse](t, do(t, h, http.MethodPost, "/api/v1/runs", CreateRunRequest{})).Run

	w = do(t, h, http.MethodPost, "/api/v1/runs/"+created.ID+"/play", ActionRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/runs/"+created.ID+"/play", ActionRequest{CardIDs: []string{"not-a-card"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/runs/"+created.ID+"/buy", BuyRequest{Index: 0})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, ErrTypeRunState, decodeBody[EngineError](t, w).Type)

	w = do(t, h, http.MethodPost, "/api/v1/runs", CreateRunRequest{Jokers: []string{"j_nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
