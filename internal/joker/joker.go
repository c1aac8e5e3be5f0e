package joker

import (
	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/hand"
)

// TriggerType decides which scoring phase invokes a joker.
type TriggerType string

const (
	TriggerOnScore     TriggerType = "on_score"
	TriggerOnDiscard   TriggerType = "on_discard"
	TriggerOnHeld      TriggerType = "on_held"
	TriggerIndependent TriggerType = "independent"
	TriggerPassive     TriggerType = "passive"
)

// Valid reports whether t is one of the known trigger types.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerOnScore, TriggerOnDiscard, TriggerOnHeld, TriggerIndependent, TriggerPassive:
		return true
	default:
		return false
	}
}

// Rarity of a joker in the shop.
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityUncommon  Rarity = "Uncommon"
	RarityRare      Rarity = "Rare"
	RarityLegendary Rarity = "Legendary"
)

// Phase tags the context an effect is invoked with.
type Phase string

const (
	PhaseScore       Phase = "score"
	PhaseDiscard     Phase = "discard"
	PhaseHeld        Phase = "held"
	PhaseIndependent Phase = "independent"
)

// Context carries the cards relevant to one effect invocation.
// Cards holds the single scored or held card, or the discarded cards.
// ScoringHand and Category are only set in the independent phase.
type Context struct {
	Phase       Phase         `json:"phase"`
	Cards       []cards.Card  `json:"cards,omitempty"`
	ScoringHand []cards.Card  `json:"scoring_hand,omitempty"`
	Category    hand.Category `json:"category,omitempty"`
}

// Card returns the first card in the context, if any.
func (c Context) Card() (cards.Card, bool) {
	if len(c.Cards) == 0 {
		return cards.Card{}, false
	}
	return c.Cards[0], true
}

// EffectOutput is what an effect contributes. A zero field contributes
// nothing; in particular XMult == 0 leaves mult unchanged.
type EffectOutput struct {
	Chips    int     `json:"chips,omitempty"`
	PlusMult float64 `json:"plus_mult,omitempty"`
	XMult    float64 `json:"x_mult,omitempty"`
	// Money is interpreted by the round state machine only.
	Money int `json:"money,omitempty"`
}

// IsZero reports whether the output contributes nothing.
func (e EffectOutput) IsZero() bool {
	return e == EffectOutput{}
}

// Instance is an owned joker. Behaviour lives in its Definition.
type Instance struct {
	ID           string        `json:"id"`
	DefinitionID string        `json:"definition_id"`
	Edition      cards.Edition `json:"edition"`
}

// Snapshot is the read-only game state effects may consult.
type Snapshot struct {
	Hand              []cards.Card `json:"hand"`
	Jokers            []Instance   `json:"jokers"`
	Money             int          `json:"money"`
	Ante              int          `json:"ante"`
	Round             int          `json:"round"`
	TargetScore       int          `json:"target_score"`
	HandsRemaining    int          `json:"hands_remaining"`
	DiscardsRemaining int          `json:"discards_remaining"`
}

// EffectFunc computes a joker's contribution. It must not mutate its arguments.
type EffectFunc func(snap *Snapshot, ctx Context, self Instance) EffectOutput

// Definition is the catalog entry behind an Instance.
type Definition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Rarity      Rarity      `json:"rarity"`
	Cost        int         `json:"cost"`
	Description string      `json:"description"`
	Trigger     TriggerType `json:"trigger"`
	// Payout is money granted when a round is cleared.
	Payout int        `json:"payout,omitempty"`
	Effect EffectFunc `json:"-"`
}

// Apply runs the effect, treating a missing effect as no contribution.
func (d Definition) Apply(snap *Snapshot, ctx Context, self Instance) EffectOutput {
	if d.Effect == nil {
		return EffectOutput{}
	}
	return d.Effect(snap, ctx, self)
}
