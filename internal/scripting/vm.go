package scripting

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/joker"
)

var (
	ErrMissingEffect   = errors.New("script does not define effect()")
	ErrMissingMetadata = errors.New("script does not define a joker object")
)

const (
	scriptInitTimeout = 2 * time.Second
	scriptCallTimeout = 250 * time.Millisecond
)

// VM wraps one goja runtime holding one joker script. Calls are serialised.
type VM struct {
	runtime *goja.Runtime
	effect  goja.Callable
	mu      sync.Mutex
	name    string
	logger  *slog.Logger
	timeout time.Duration
}

// Option adjusts a VM.
type Option func(*VM)

// WithLogger routes script log() output and effect failures to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(vm *VM) {
		if logger != nil {
			vm.logger = logger
		}
	}
}

// WithCallTimeout bounds each effect invocation.
func WithCallTimeout(d time.Duration) Option {
	return func(vm *VM) {
		if d > 0 {
			vm.timeout = d
		}
	}
}

// newVM creates a sandboxed runtime with log() injected.
func newVM(name string, opts ...Option) *VM {
	vm := &VM{
		runtime: goja.New(),
		name:    name,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: scriptCallTimeout,
	}
	for _, opt := range opts {
		opt(vm)
	}
	vm.injectGlobals()
	return vm
}

func (vm *VM) injectGlobals() {
	vm.runtime.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		vm.logger.Debug("joker script log", "script", vm.name, "message", strings.Join(parts, " "))
		return goja.Undefined()
	})

	console := vm.runtime.NewObject()
	console.Set("log", vm.runtime.Get("log"))
	vm.runtime.Set("console", console)

	// Block dangerous globals.
	vm.runtime.Set("require", goja.Undefined())
	vm.runtime.Set("eval", goja.Undefined())
	vm.runtime.Set("Function", goja.Undefined())
}

// Compile evaluates source and builds a joker definition from its joker
// object and effect function.
func Compile(name, source string, opts ...Option) (joker.Definition, error) {
	vm := newVM(name, opts...)

	var def joker.Definition
	err := vm.runWithTimeout(scriptInitTimeout, func() error {
		if _, err := vm.runtime.RunScript(name, source); err != nil {
			return fmt.Errorf("script execution error: %w", err)
		}

		meta := vm.runtime.Get("joker")
		if meta == nil || goja.IsUndefined(meta) || goja.IsNull(meta) {
			return ErrMissingMetadata
		}
		var err error
		def, err = readDefinition(vm.runtime, meta.ToObject(vm.runtime))
		if err != nil {
			return err
		}

		fn := vm.runtime.Get("effect")
		if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
			return ErrMissingEffect
		}
		callable, ok := goja.AssertFunction(fn)
		if !ok {
			return fmt.Errorf("%w: effect is not a function", ErrMissingEffect)
		}
		vm.effect = callable
		return nil
	})
	if err != nil {
		return joker.Definition{}, fmt.Errorf("compile %s: %w", name, err)
	}

	def.Effect = vm.call
	return def, nil
}

func readDefinition(rt *goja.Runtime, obj *goja.Object) (joker.Definition, error) {
	str := func(key string) string {
		v := obj.Get(key)
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			return ""
		}
		return v.String()
	}
	num := func(key string) int {
		v := obj.Get(key)
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			return 0
		}
		return int(v.ToInteger())
	}

	def := joker.Definition{
		ID:          str("id"),
		Name:        str("name"),
		Rarity:      joker.Rarity(str("rarity")),
		Cost:        num("cost"),
		Description: str("description"),
		Trigger:     joker.TriggerType(str("trigger")),
		Payout:      num("payout"),
	}
	if def.ID == "" {
		return def, fmt.Errorf("joker.id is required")
	}
	if !def.Trigger.Valid() {
		return def, fmt.Errorf("joker.trigger %q is not a known trigger", def.Trigger)
	}
	if def.Name == "" {
		def.Name = def.ID
	}
	if def.Rarity == "" {
		def.Rarity = joker.RarityCommon
	}
	return def, nil
}

// call is the joker.EffectFunc backing a scripted definition. Any script
// failure yields an empty output.
func (vm *VM) call(snap *joker.Snapshot, ctx joker.Context, self joker.Instance) joker.EffectOutput {
	var out joker.EffectOutput
	err := vm.runWithTimeout(vm.timeout, func() error {
		rt := vm.runtime
		result, err := vm.effect(goja.Undefined(),
			rt.ToValue(snapshotValue(snap)),
			rt.ToValue(contextValue(ctx)),
			rt.ToValue(instanceValue(self)),
		)
		if err != nil {
			return fmt.Errorf("effect() error: %w", err)
		}
		out = readOutput(rt, result)
		return nil
	})
	if err != nil {
		vm.logger.Warn("joker script failed", "script", vm.name, "phase", ctx.Phase, "error", err)
		return joker.EffectOutput{}
	}
	return out
}

func readOutput(rt *goja.Runtime, v goja.Value) joker.EffectOutput {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return joker.EffectOutput{}
	}
	obj := v.ToObject(rt)
	float := func(key string) float64 {
		f := obj.Get(key)
		if f == nil || goja.IsUndefined(f) || goja.IsNull(f) {
			return 0
		}
		return f.ToFloat()
	}
	return joker.EffectOutput{
		Chips:    int(float("chips")),
		PlusMult: float("plusMult"),
		XMult:    float("xMult"),
		Money:    int(float("money")),
	}
}

// runWithTimeout runs fn on the calling goroutine while holding the runtime.
// The timer starts once the lock is held, so waiting for another caller does
// not count against timeout, and an interrupt only ever lands on this call.
func (vm *VM) runWithTimeout(timeout time.Duration, fn func() error) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.runtime.ClearInterrupt()

	fired := make(chan struct{})
	timer := time.AfterFunc(timeout, func() {
		vm.runtime.Interrupt("script execution timeout")
		close(fired)
	})
	err := fn()
	if !timer.Stop() {
		// The interrupt may have raced a finishing call; wait for it so it
		// cannot leak into the next one.
		<-fired
		vm.runtime.ClearInterrupt()
		if err != nil {
			return fmt.Errorf("script timed out: %w", err)
		}
		return fmt.Errorf("script timed out")
	}
	return err
}

func cardValue(c cards.Card) map[string]any {
	return map[string]any{
		"id":          c.ID,
		"suit":        string(c.Suit),
		"rank":        string(c.Rank),
		"baseChips":   c.BaseChips,
		"edition":     string(c.Edition),
		"enhancement": string(c.Enhancement),
		"seal":        string(c.Seal),
		"isDebuffed":  c.IsDebuffed,
		"isFace":      c.IsFace(),
	}
}

func cardsValue(cs []cards.Card) []any {
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = cardValue(c)
	}
	return out
}

func snapshotValue(s *joker.Snapshot) map[string]any {
	if s == nil {
		return map[string]any{"hand": []any{}, "jokers": []any{}}
	}
	jokers := make([]any, len(s.Jokers))
	for i, j := range s.Jokers {
		jokers[i] = instanceValue(j)
	}
	return map[string]any{
		"hand":              cardsValue(s.Hand),
		"jokers":            jokers,
		"money":             s.Money,
		"ante":              s.Ante,
		"round":             s.Round,
		"targetScore":       s.TargetScore,
		"handsRemaining":    s.HandsRemaining,
		"discardsRemaining": s.DiscardsRemaining,
	}
}

func contextValue(ctx joker.Context) map[string]any {
	v := map[string]any{
		"phase":       string(ctx.Phase),
		"cards":       cardsValue(ctx.Cards),
		"scoringHand": cardsValue(ctx.ScoringHand),
		"category":    string(ctx.Category),
	}
	if c, ok := ctx.Card(); ok {
		v["card"] = cardValue(c)
	}
	return v
}

func instanceValue(i joker.Instance) map[string]any {
	return map[string]any{
		"id":           i.ID,
		"definitionId": i.DefinitionID,
		"edition":      string(i.Edition),
	}
}
