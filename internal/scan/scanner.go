package scan

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/deck"
	"github.com/MJE43/jokers-gambit/internal/hand"
	"github.com/MJE43/jokers-gambit/internal/joker"
	"github.com/MJE43/jokers-gambit/internal/run"
	"github.com/MJE43/jokers-gambit/internal/scoring"
)

// DefaultMaxRange bounds how many seeds a single request may cover.
const DefaultMaxRange = 1_000_000

// TargetOp represents comparison operations for scanning
type TargetOp string

const (
	OpEqual        TargetOp = "eq"
	OpGreater      TargetOp = "gt"
	OpGreaterEqual TargetOp = "ge"
	OpLess         TargetOp = "lt"
	OpLessEqual    TargetOp = "le"
	OpBetween      TargetOp = "between"
	OpOutside      TargetOp = "outside"
)

// Request describes a scan over run seeds. Each seed deals the opening hand
// of a run with that seed, plays its first PlayCount cards with the given
// jokers and compares the score to the target.
type Request struct {
	SeedStart  uint32        `json:"seed_start"`
	SeedEnd    uint32        `json:"seed_end"`
	PlayCount  int           `json:"play_count,omitempty"`
	Jokers     []string      `json:"jokers,omitempty"`
	Category   hand.Category `json:"category,omitempty"`
	TargetOp   TargetOp      `json:"target_op"`
	TargetVal  float64       `json:"target_val"`
	TargetVal2 float64       `json:"target_val2,omitempty"` // for "between" and "outside"
	Limit      int           `json:"limit,omitempty"`
	TimeoutMs  int           `json:"timeout_ms,omitempty"`
}

// Hit is a seed whose opening play matched.
type Hit struct {
	Seed     uint32        `json:"seed"`
	Score    int           `json:"score"`
	Category hand.Category `json:"category"`
	Cards    []string      `json:"cards"`
}

// Summary contains aggregate statistics over every matching seed.
type Summary struct {
	TotalEvaluated uint64  `json:"total_evaluated"`
	HitsFound      int     `json:"hits_found"`
	MinScore       int     `json:"min_score"`
	MaxScore       int     `json:"max_score"`
	MeanScore      float64 `json:"mean_score"`
	TimedOut       bool    `json:"timed_out,omitempty"`
}

// Result contains the complete scan results
type Result struct {
	Hits    []Hit   `json:"hits"`
	Summary Summary `json:"summary"`
	Echo    Request `json:"echo"`
}

// TargetEvaluator matches integer scores against a target condition
type TargetEvaluator struct {
	op   TargetOp
	val1 float64
	val2 float64
}

// NewTargetEvaluator validates op and returns an evaluator for it.
func NewTargetEvaluator(op TargetOp, val1, val2 float64) (*TargetEvaluator, error) {
	switch op {
	case OpEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
	case OpBetween, OpOutside:
		if val2 < val1 {
			return nil, fmt.Errorf("%w: %s needs target_val <= target_val2", ErrInvalidTarget, op)
		}
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidTarget, op)
	}
	if math.IsNaN(val1) || math.IsNaN(val2) {
		return nil, fmt.Errorf("%w: NaN target", ErrInvalidTarget)
	}
	return &TargetEvaluator{op: op, val1: val1, val2: val2}, nil
}

// Matches checks if a score matches the target criteria
func (te *TargetEvaluator) Matches(score int) bool {
	m := float64(score)
	switch te.op {
	case OpEqual:
		return m == te.val1
	case OpGreater:
		return m > te.val1
	case OpGreaterEqual:
		return m >= te.val1
	case OpLess:
		return m < te.val1
	case OpLessEqual:
		return m <= te.val1
	case OpBetween:
		return m >= te.val1 && m <= te.val2
	case OpOutside:
		return m < te.val1 || m > te.val2
	default:
		return false
	}
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers overrides the worker count (default GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithMaxRange overrides the largest seed range accepted.
func WithMaxRange(n uint64) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxRange = n
		}
	}
}

// Scanner scores opening hands across seed ranges in parallel.
type Scanner struct {
	engine      *scoring.Engine
	workerCount int
	maxRange    uint64
}

// NewScanner creates a scanner scoring with eng.
func NewScanner(eng *scoring.Engine, opts ...Option) *Scanner {
	if eng == nil {
		eng = scoring.New(nil, nil)
	}
	s := &Scanner{
		engine:      eng,
		workerCount: runtime.GOMAXPROCS(0),
		maxRange:    DefaultMaxRange,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type job struct {
	start, end uint64
}

// worker holds per-goroutine scratch state
type worker struct {
	engine    *scoring.Engine
	base      []cards.Card
	jokers    []joker.Instance
	playCount int
	category  hand.Category
	evaluator *TargetEvaluator
	evaluated *atomic.Uint64
}

// Scan performs a parallel scan across [SeedStart, SeedEnd]. A timeout or
// cancelled context returns the hits found so far with Summary.TimedOut set.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	if req.SeedEnd < req.SeedStart {
		return nil, fmt.Errorf("%w: end %d before start %d", ErrInvalidRange, req.SeedEnd, req.SeedStart)
	}
	if span := uint64(req.SeedEnd) - uint64(req.SeedStart) + 1; span > s.maxRange {
		return nil, fmt.Errorf("%w: %d seeds exceeds limit %d", ErrInvalidRange, span, s.maxRange)
	}
	if req.PlayCount == 0 {
		req.PlayCount = run.MaxSelection
	}
	if req.PlayCount < 1 || req.PlayCount > run.MaxSelection {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayCount, req.PlayCount)
	}
	if req.Category != "" && !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}
	evaluator, err := NewTargetEvaluator(req.TargetOp, req.TargetVal, req.TargetVal2)
	if err != nil {
		return nil, err
	}

	registry := s.engine.Registry()
	instances := make([]joker.Instance, 0, len(req.Jokers))
	for _, id := range req.Jokers {
		if !registry.Has(id) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJoker, id)
		}
		instances = append(instances, joker.NewInstance(id))
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	jobs := make(chan job, s.workerCount*2)
	hits := make(chan Hit, 256)
	var evaluated atomic.Uint64
	var wg sync.WaitGroup

	base := deck.New()
	for i := 0; i < s.workerCount; i++ {
		w := &worker{
			engine:    s.engine,
			base:      base,
			jokers:    instances,
			playCount: req.PlayCount,
			category:  req.Category,
			evaluator: evaluator,
			evaluated: &evaluated,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx, jobs, hits)
		}()
	}

	go generateJobs(ctx, jobs, uint64(req.SeedStart), uint64(req.SeedEnd))
	go func() {
		wg.Wait()
		close(hits)
	}()

	collected := make([]Hit, 0, 64)
	for hit := range hits {
		collected = append(collected, hit)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].Seed < collected[j].Seed })
	summary := summarize(collected, evaluated.Load(), ctx.Err() != nil)
	if req.Limit > 0 && len(collected) > req.Limit {
		collected = collected[:req.Limit]
	}

	return &Result{Hits: collected, Summary: summary, Echo: req}, nil
}

// generateJobs creates job batches of consecutive seeds
func generateJobs(ctx context.Context, jobs chan<- job, start, end uint64) {
	defer close(jobs)

	const batchSize = 1024

	for current := start; current <= end; {
		batchEnd := current + batchSize - 1
		if batchEnd > end {
			batchEnd = end
		}
		select {
		case jobs <- job{start: current, end: batchEnd}:
			current = batchEnd + 1
		case <-ctx.Done():
			return
		}
	}
}

func (w *worker) run(ctx context.Context, jobs <-chan job, hits chan<- Hit) {
	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if !w.process(ctx, j, hits) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// process evaluates one batch, returning false once ctx is done.
func (w *worker) process(ctx context.Context, j job, hits chan<- Hit) bool {
	for seed := j.start; seed <= j.end; seed++ {
		if ctx.Err() != nil {
			return false
		}

		hit, ok := w.evaluate(uint32(seed))
		w.evaluated.Add(1)
		if !ok {
			continue
		}
		select {
		case hits <- hit:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// evaluate deals and scores the opening play for one seed.
func (w *worker) evaluate(seed uint32) (Hit, bool) {
	dealt, _ := run.OpeningHand(seed, w.base)
	played := dealt[:w.playCount]

	result := hand.Classify(played)
	if w.category != "" && result.Category != w.category {
		return Hit{}, false
	}

	snap := &joker.Snapshot{
		Hand:              dealt,
		Jokers:            w.jokers,
		Money:             run.StartingMoney,
		Ante:              1,
		Round:             1,
		TargetScore:       run.BlindFor(1, 1).TargetScore,
		HandsRemaining:    run.HandsPerRound,
		DiscardsRemaining: run.DiscardsPerRound,
	}
	score := w.engine.Score(result, snap)
	if !w.evaluator.Matches(score) {
		return Hit{}, false
	}

	codes := make([]string, len(played))
	for i, c := range played {
		codes[i] = c.Code()
	}
	return Hit{Seed: seed, Score: score, Category: result.Category, Cards: codes}, true
}

// summarize computes aggregate statistics
func summarize(hits []Hit, totalEvaluated uint64, timedOut bool) Summary {
	summary := Summary{
		TotalEvaluated: totalEvaluated,
		HitsFound:      len(hits),
		TimedOut:       timedOut,
	}
	if len(hits) == 0 {
		return summary
	}

	summary.MinScore, summary.MaxScore = hits[0].Score, hits[0].Score
	sum := 0.0
	for _, h := range hits {
		summary.MinScore = min(summary.MinScore, h.Score)
		summary.MaxScore = max(summary.MaxScore, h.Score)
		sum += float64(h.Score)
	}
	summary.MeanScore = sum / float64(len(hits))
	return summary
}
