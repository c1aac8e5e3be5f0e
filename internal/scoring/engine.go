package scoring

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/hand"
	"github.com/MJE43/jokers-gambit/internal/joker"
)

// Enhancement deltas applied to scored and held cards.
const (
	bonusChips = 30
	multPlus   = 4
	stoneChips = 50
	glassXMult = 2
	steelXMult = 1.5
)

// Phase names a stage of the accumulation in a Trace.
type Phase string

const (
	PhaseBase   Phase = "base"
	PhaseScored Phase = "scored"
	PhaseHeld   Phase = "held"
	PhaseGlobal Phase = "global"
	PhaseFinal  Phase = "final"
)

// Step records the accumulator after one contribution.
type Step struct {
	Phase  Phase   `json:"phase"`
	Source string  `json:"source"`
	Chips  int     `json:"chips"`
	Mult   float64 `json:"mult"`
}

// Breakdown is a score together with how it was reached.
type Breakdown struct {
	Category hand.Category `json:"category"`
	Chips    int           `json:"chips"`
	Mult     float64       `json:"mult"`
	Score    int           `json:"score"`
	Steps    []Step        `json:"steps"`
}

// Engine turns a classified hand and a game snapshot into a score.
// It only reads its inputs and may be shared between goroutines.
type Engine struct {
	registry *joker.Registry
	logger   *slog.Logger
}

// New creates an engine resolving jokers through registry.
func New(registry *joker.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if registry == nil {
		registry = joker.NewCatalog(logger)
	}
	return &Engine{registry: registry, logger: logger}
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return New(joker.NewCatalog(nil), nil)
})

// Score scores with the built-in joker catalog.
func Score(result hand.Result, snap *joker.Snapshot) int {
	return defaultEngine().Score(result, snap)
}

// Registry returns the registry used to resolve jokers.
func (e *Engine) Registry() *joker.Registry {
	return e.registry
}

// Score returns floor(chips * mult) after all three phases. It is never negative.
func (e *Engine) Score(result hand.Result, snap *joker.Snapshot) int {
	acc := accumulator{chips: result.BaseChips, mult: result.BaseMult}
	e.run(&acc, result, snap)
	return acc.finish()
}

// Trace scores like Score and also returns every intermediate step.
func (e *Engine) Trace(result hand.Result, snap *joker.Snapshot) Breakdown {
	acc := accumulator{chips: result.BaseChips, mult: result.BaseMult, steps: make([]Step, 0, 16)}
	acc.record(PhaseBase, string(result.Category))
	e.run(&acc, result, snap)
	score := acc.finish()
	acc.record(PhaseFinal, "clamp")
	return Breakdown{
		Category: result.Category,
		Chips:    acc.chips,
		Mult:     acc.mult,
		Score:    score,
		Steps:    acc.steps,
	}
}

type boundJoker struct {
	inst joker.Instance
	def  joker.Definition
}

func (e *Engine) run(acc *accumulator, result hand.Result, snap *joker.Snapshot) {
	var held []cards.Card
	var owned []joker.Instance
	if snap != nil {
		held = snap.Hand
		owned = snap.Jokers
	}

	// Resolve once; order follows the snapshot.
	bound := make([]boundJoker, len(owned))
	for i, inst := range owned {
		bound[i] = boundJoker{inst: inst, def: e.registry.Lookup(inst.DefinitionID)}
	}

	// Phase 1: scoring cards left to right.
	for _, c := range result.ScoringCards {
		if c.IsDebuffed {
			continue
		}
		acc.chips += c.BaseChips
		acc.record(PhaseScored, c.String())

		if applyEnhancement(acc, c.Enhancement) {
			acc.record(PhaseScored, c.String()+" "+string(c.Enhancement))
		}

		for _, j := range bound {
			if j.def.Trigger != joker.TriggerOnScore {
				continue
			}
			ctx := joker.Context{Phase: joker.PhaseScore, Cards: []cards.Card{c}}
			e.apply(acc, PhaseScored, j, snap, ctx)
		}
	}

	// Phase 2: every card in hand.
	for _, c := range held {
		if c.IsDebuffed {
			continue
		}
		if c.Enhancement == cards.EnhancementSteel {
			acc.mult *= steelXMult
			acc.record(PhaseHeld, c.String()+" Steel")
		}
		for _, j := range bound {
			if j.def.Trigger != joker.TriggerOnHeld {
				continue
			}
			ctx := joker.Context{Phase: joker.PhaseHeld, Cards: []cards.Card{c}}
			e.apply(acc, PhaseHeld, j, snap, ctx)
		}
	}

	// Phase 3: global jokers once each.
	for _, j := range bound {
		if j.def.Trigger != joker.TriggerIndependent && j.def.Trigger != joker.TriggerPassive {
			continue
		}
		ctx := joker.Context{
			Phase:       joker.PhaseIndependent,
			ScoringHand: result.ScoringCards,
			Category:    result.Category,
		}
		e.apply(acc, PhaseGlobal, j, snap, ctx)
	}
}

// applyEnhancement applies a scored card's enhancement and reports whether it had one.
func applyEnhancement(acc *accumulator, e cards.Enhancement) bool {
	switch e {
	case cards.EnhancementBonus:
		acc.chips += bonusChips
	case cards.EnhancementMult:
		acc.mult += multPlus
	case cards.EnhancementStone:
		acc.chips += stoneChips
	case cards.EnhancementGlass:
		acc.mult *= glassXMult
	default:
		return false
	}
	return true
}

// apply adds chips, then plusMult, then multiplies by xMult.
func (e *Engine) apply(acc *accumulator, phase Phase, j boundJoker, snap *joker.Snapshot, ctx joker.Context) {
	out := e.invoke(j, snap, ctx)
	out.Money = 0 // paid by the round state machine, not scored
	if out.IsZero() {
		return
	}
	if out.Chips != 0 {
		acc.chips += out.Chips
	}
	if out.PlusMult != 0 && isFinite(out.PlusMult) {
		acc.mult += out.PlusMult
	}
	if out.XMult != 0 && isFinite(out.XMult) {
		acc.mult *= out.XMult
	}
	acc.record(phase, j.def.ID)
}

// invoke runs one effect. A panicking effect contributes nothing.
func (e *Engine) invoke(j boundJoker, snap *joker.Snapshot, ctx joker.Context) (out joker.EffectOutput) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("joker effect panicked",
				"joker", j.def.ID, "instance", j.inst.ID, "phase", ctx.Phase, "panic", fmt.Sprint(r))
			out = joker.EffectOutput{}
		}
	}()
	return j.def.Apply(snap, ctx, j.inst)
}

type accumulator struct {
	chips int
	mult  float64
	steps []Step
}

func (a *accumulator) record(phase Phase, source string) {
	if a.steps == nil {
		return
	}
	a.steps = append(a.steps, Step{Phase: phase, Source: source, Chips: a.chips, Mult: a.mult})
}

// finish clamps chips to >= 0 and mult to >= 1 and returns the floored product.
func (a *accumulator) finish() int {
	if a.chips < 0 {
		a.chips = 0
	}
	if a.mult < 1 || math.IsNaN(a.mult) {
		a.mult = 1
	}
	product := math.Floor(float64(a.chips) * a.mult)
	if math.IsNaN(product) {
		return 0
	}
	if product >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(product)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
