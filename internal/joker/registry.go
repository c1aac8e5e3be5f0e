package joker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/engine"
)

// DefaultID is the definition unknown ids resolve to.
const DefaultID = "j_joker"

var (
	ErrDuplicateJoker = errors.New("joker already registered")
	ErrInvalidJoker   = errors.New("invalid joker definition")
)

// Registry maps definition ids to definitions. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	defs      map[string]Definition
	fallbacks atomic.Uint64
	logger    *slog.Logger
}

// NewRegistry returns a registry holding only the default definition.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Registry{
		defs:   make(map[string]Definition),
		logger: logger,
	}
	r.defs[DefaultID] = plainJoker()
	return r
}

// NewCatalog returns a registry holding every built-in definition.
func NewCatalog(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	for _, d := range builtins() {
		if d.ID == DefaultID {
			continue
		}
		if err := r.Register(d); err != nil {
			panic(fmt.Sprintf("builtin joker %s: %v", d.ID, err))
		}
	}
	return r
}

// Register adds a definition. Ids are unique and the trigger must be known.
func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidJoker)
	}
	if !def.Trigger.Valid() {
		return fmt.Errorf("%w: %s has unknown trigger %q", ErrInvalidJoker, def.ID, def.Trigger)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJoker, def.ID)
	}
	r.defs[def.ID] = def
	return nil
}

// Lookup always returns a definition. Unknown ids resolve to the default
// joker; each such fallback is counted and logged.
func (r *Registry) Lookup(id string) Definition {
	r.mu.RLock()
	def, ok := r.defs[id]
	fallback := r.defs[DefaultID]
	r.mu.RUnlock()

	if ok {
		return def
	}
	n := r.fallbacks.Add(1)
	r.logger.Warn("unknown joker id, using default", "id", id, "default", DefaultID, "fallbacks", n)
	return fallback
}

// Has reports whether id is registered, without counting a fallback.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[id]
	return ok
}

// Fallbacks returns how many lookups have resolved to the default.
func (r *Registry) Fallbacks() uint64 {
	return r.fallbacks.Load()
}

// List returns all definitions sorted by id.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Random picks a definition uniformly from the sorted list.
func (r *Registry) Random(src engine.Source) Definition {
	defs := r.List()
	return defs[src.IntN(len(defs))]
}

// NewInstance creates an owned Base-edition joker for a definition id.
func NewInstance(definitionID string) Instance {
	return Instance{
		ID:           uuid.New().String(),
		DefinitionID: definitionID,
		Edition:      cards.EditionBase,
	}
}
