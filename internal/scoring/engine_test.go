package scoring

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/hand"
	"github.com/MJE43/jokers-gambit/internal/joker"
)

func mustCards(t *testing.T, codes ...string) []cards.Card {
	t.Helper()
	out, err := cards.ParseList(strings.Join(codes, " "))
	require.NoError(t, err)
	return out
}

// registryWith returns a registry holding the default joker plus defs.
func registryWith(t *testing.T, defs ...joker.Definition) *joker.Registry {
	t.Helper()
	r := joker.NewRegistry(nil)
	for _, d := range defs {
		require.NoError(t, r.Register(d))
	}
	return r
}

func fixed(id string, trigger joker.TriggerType, out joker.EffectOutput) joker.Definition {
	return joker.Definition{
		ID:      id,
		Name:    id,
		Cost:    1,
		Trigger: trigger,
		Effect: func(*joker.Snapshot, joker.Context, joker.Instance) joker.EffectOutput {
			return out
		},
	}
}

func TestRoyalFlushWithPlainJoker(t *testing.T) {
	played := mustCards(t, "10H", "JH", "QH", "KH", "AH")
	result := hand.Classify(played)
	require.Equal(t, hand.StraightFlush, result.Category)

	snap := &joker.Snapshot{
		Hand:   played,
		Jokers: []joker.Instance{joker.NewInstance("j_joker")},
	}

	// (100 + 10+10+10+10+11) * (8 + 4)
	assert.Equal(t, 1812, Score(result, snap))
}

func TestPairOfTwos(t *testing.T) {
	played := mustCards(t, "2S", "2H")
	result := hand.Classify(played)

	assert.Equal(t, 28, Score(result, &joker.Snapshot{Hand: played}))
	assert.Equal(t, 28, Score(result, nil))
}

func TestDebuffedCardsContributeNothing(t *testing.T) {
	played := mustCards(t, "2S", "2H")
	played[0].Enhancement = cards.EnhancementGlass
	played[0].IsDebuffed = true
	result := hand.Classify(played)

	// Only the second 2 scores: (10 + 2) * 2
	assert.Equal(t, 24, Score(result, nil))

	played[0].IsDebuffed = false
	result = hand.Classify(played)
	// (10 + 2 + 2) * (2 * 2)
	assert.Equal(t, 56, Score(result, nil))
}

func TestEnhancements(t *testing.T) {
	tests := []struct {
		name        string
		enhancement cards.Enhancement
		want        int
	}{
		{"base", cards.EnhancementBase, 28},
		{"bonus", cards.EnhancementBonus, (14 + 30) * 2},
		{"mult", cards.EnhancementMult, 14 * 6},
		{"glass", cards.EnhancementGlass, 14 * 4},
		{"steel scores plainly", cards.EnhancementSteel, 28},
		{"lucky has no scoring effect", cards.EnhancementLucky, 28},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			played := mustCards(t, "2S", "2H")
			played[1].Enhancement = tt.enhancement
			assert.Equal(t, tt.want, Score(hand.Classify(played), nil))
		})
	}
}

func TestStoneCardAddsChips(t *testing.T) {
	played := mustCards(t, "KS")
	played[0].Enhancement = cards.EnhancementStone
	result := hand.Classify(played)
	require.Equal(t, hand.HighCard, result.Category)

	// (5 + 10 + 50) * 1
	assert.Equal(t, 65, Score(result, nil))
}

func TestSteelHeldCards(t *testing.T) {
	played := mustCards(t, "2S", "2H")
	held := mustCards(t, "KD", "KC", "9S")
	held[0].Enhancement = cards.EnhancementSteel
	held[1].Enhancement = cards.EnhancementSteel
	held[1].IsDebuffed = true

	snap := &joker.Snapshot{Hand: held}
	// 14 * (2 * 1.5); the debuffed steel card is skipped
	assert.Equal(t, 42, Score(hand.Classify(played), snap))
}

func TestEffectFieldOrder(t *testing.T) {
	reg := registryWith(t, fixed("j_both", joker.TriggerIndependent, joker.EffectOutput{PlusMult: 3, XMult: 2}))
	eng := New(reg, nil)

	played := mustCards(t, "2S", "2H")
	snap := &joker.Snapshot{Jokers: []joker.Instance{joker.NewInstance("j_both")}}

	// 14 * ((2 + 3) * 2), never 14 * (2*2 + 3)
	assert.Equal(t, 140, eng.Score(hand.Classify(played), snap))
}

func TestMoneyOnlyEffectIsNotAStep(t *testing.T) {
	reg := registryWith(t, fixed("j_tip", joker.TriggerIndependent, joker.EffectOutput{Money: 3}))
	eng := New(reg, nil)

	played := mustCards(t, "2S", "2H")
	b := eng.Trace(hand.Classify(played), &joker.Snapshot{Jokers: []joker.Instance{joker.NewInstance("j_tip")}})

	assert.Equal(t, 28, b.Score)
	for _, s := range b.Steps {
		assert.NotEqual(t, "j_tip", s.Source)
	}
}

func TestHeldPhaseUsesSameFieldOrder(t *testing.T) {
	reg := registryWith(t, fixed("j_held", joker.TriggerOnHeld, joker.EffectOutput{PlusMult: 1, XMult: 3}))
	eng := New(reg, nil)

	played := mustCards(t, "2S", "2H")
	snap := &joker.Snapshot{
		Hand:   mustCards(t, "9C"),
		Jokers: []joker.Instance{joker.NewInstance("j_held")},
	}

	// 14 * ((2 + 1) * 3)
	assert.Equal(t, 126, eng.Score(hand.Classify(played), snap))
}

func TestJokerOrderMatters(t *testing.T) {
	reg := registryWith(t,
		fixed("j_add", joker.TriggerIndependent, joker.EffectOutput{PlusMult: 4}),
		fixed("j_times", joker.TriggerIndependent, joker.EffectOutput{XMult: 2}),
	)
	eng := New(reg, nil)
	result := hand.Classify(mustCards(t, "2S", "2H"))

	addFirst := &joker.Snapshot{Jokers: []joker.Instance{joker.NewInstance("j_add"), joker.NewInstance("j_times")}}
	timesFirst := &joker.Snapshot{Jokers: []joker.Instance{joker.NewInstance("j_times"), joker.NewInstance("j_add")}}

	assert.Equal(t, 14*12, eng.Score(result, addFirst))
	assert.Equal(t, 14*8, eng.Score(result, timesFirst))
}

func TestOnScoreRunsAfterEnhancementPerCard(t *testing.T) {
	reg := registryWith(t, fixed("j_card", joker.TriggerOnScore, joker.EffectOutput{PlusMult: 1}))
	eng := New(reg, nil)

	played := mustCards(t, "2S", "2H")
	played[0].Enhancement = cards.EnhancementGlass
	snap := &joker.Snapshot{Jokers: []joker.Instance{joker.NewInstance("j_card")}}

	// mult: 2 -> glass 4 -> +1 = 5 -> second card +1 = 6
	assert.Equal(t, 14*6, eng.Score(hand.Classify(played), snap))
}

func TestClamping(t *testing.T) {
	reg := registryWith(t,
		fixed("j_drain", joker.TriggerIndependent, joker.EffectOutput{Chips: -100000, PlusMult: -500}),
		fixed("j_zero", joker.TriggerIndependent, joker.EffectOutput{XMult: -3}),
	)
	eng := New(reg, nil)
	result := hand.Classify(mustCards(t, "AS", "AH"))

	drain := &joker.Snapshot{Jokers: []joker.Instance{joker.NewInstance("j_drain")}}
	assert.Equal(t, 0, eng.Score(result, drain))

	b := eng.Trace(result, drain)
	assert.Equal(t, 0, b.Chips)
	assert.Equal(t, 1.0, b.Mult)

	negMult := &joker.Snapshot{Jokers: []joker.Instance{joker.NewInstance("j_zero")}}
	// chips 32, mult 2 * -3 = -6 clamps to 1
	assert.Equal(t, 32, eng.Score(result, negMult))
}

func TestNonFiniteEffectsAreIgnored(t *testing.T) {
	reg := registryWith(t, fixed("j_nan", joker.TriggerIndependent, joker.EffectOutput{PlusMult: math.NaN(), XMult: math.Inf(1)}))
	eng := New(reg, nil)
	snap := &joker.Snapshot{Jokers: []joker.Instance{joker.NewInstance("j_nan")}}

	assert.Equal(t, 28, eng.Score(hand.Classify(mustCards(t, "2S", "2H")), snap))
}

func TestPanickingEffectContributesNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	reg := registryWith(t, joker.Definition{
		ID:      "j_boom",
		Name:    "Boom",
		Cost:    1,
		Trigger: joker.TriggerIndependent,
		Effect: func(*joker.Snapshot, joker.Context, joker.Instance) joker.EffectOutput {
			panic("boom")
		},
	})
	eng := New(reg, logger)
	snap := &joker.Snapshot{Jokers: []joker.Instance{joker.NewInstance("j_boom")}}

	assert.Equal(t, 28, eng.Score(hand.Classify(mustCards(t, "2S", "2H")), snap))
	assert.Contains(t, buf.String(), "j_boom")
}

func TestUnknownJokerScoresAsDefault(t *testing.T) {
	eng := New(joker.NewCatalog(nil), nil)
	snap := &joker.Snapshot{Jokers: []joker.Instance{{ID: "x", DefinitionID: "j_retired"}}}

	// 14 * (2 + 4)
	assert.Equal(t, 84, eng.Score(hand.Classify(mustCards(t, "2S", "2H")), snap))
	assert.Equal(t, uint64(1), eng.Registry().Fallbacks())
}

func TestCatalogCombinations(t *testing.T) {
	eng := New(joker.NewCatalog(nil), nil)

	t.Run("greedy and duo on a diamond pair", func(t *testing.T) {
		played := mustCards(t, "9D", "9S")
		snap := &joker.Snapshot{
			Hand:   played,
			Jokers: []joker.Instance{joker.NewInstance("j_greedy_joker"), joker.NewInstance("j_the_duo")},
		}
		// chips 10+9+9 = 28; mult (2 + 4) * 2 = 12
		assert.Equal(t, 336, eng.Score(hand.Classify(played), snap))
	})

	t.Run("baron counts held kings", func(t *testing.T) {
		played := mustCards(t, "2S", "2H")
		snap := &joker.Snapshot{
			Hand:   append(mustCards(t, "KD", "KC", "3H"), played...),
			Jokers: []joker.Instance{joker.NewInstance("j_baron")},
		}
		// 14 * 2 * 1.5 * 1.5
		assert.Equal(t, 63, eng.Score(hand.Classify(played), snap))
	})

	t.Run("banner reads discards", func(t *testing.T) {
		played := mustCards(t, "2S", "2H")
		snap := &joker.Snapshot{
			DiscardsRemaining: 3,
			Jokers:            []joker.Instance{joker.NewInstance("j_banner")},
		}
		// (14 + 90) * 2
		assert.Equal(t, 208, eng.Score(hand.Classify(played), snap))
	})

	t.Run("golden and faceless never score", func(t *testing.T) {
		played := mustCards(t, "JS", "QH", "KD")
		snap := &joker.Snapshot{
			Jokers: []joker.Instance{joker.NewInstance("j_golden"), joker.NewInstance("j_faceless")},
		}
		assert.Equal(t, (5+10)*1, eng.Score(hand.Classify(played), snap))
	})
}

func TestTraceMatchesScore(t *testing.T) {
	eng := New(joker.NewCatalog(nil), nil)
	played := mustCards(t, "10H", "JH", "QH", "KH", "AH")
	played[2].Enhancement = cards.EnhancementGlass
	held := mustCards(t, "KS", "4C")
	held[0].Enhancement = cards.EnhancementSteel
	snap := &joker.Snapshot{
		Hand:   held,
		Jokers: []joker.Instance{joker.NewInstance("j_lusty_joker"), joker.NewInstance("j_baron"), joker.NewInstance("j_joker")},
	}
	result := hand.Classify(played)

	b := eng.Trace(result, snap)
	assert.Equal(t, eng.Score(result, snap), b.Score)
	assert.Equal(t, hand.StraightFlush, b.Category)
	require.NotEmpty(t, b.Steps)
	assert.Equal(t, PhaseBase, b.Steps[0].Phase)
	assert.Equal(t, PhaseFinal, b.Steps[len(b.Steps)-1].Phase)

	var phases []Phase
	for _, s := range b.Steps {
		if len(phases) == 0 || phases[len(phases)-1] != s.Phase {
			phases = append(phases, s.Phase)
		}
	}
	assert.Equal(t, []Phase{PhaseBase, PhaseScored, PhaseHeld, PhaseGlobal, PhaseFinal}, phases)
}

func TestScoreDoesNotMutateSnapshot(t *testing.T) {
	played := mustCards(t, "2S", "2H")
	snap := &joker.Snapshot{
		Hand:   append([]cards.Card(nil), played...),
		Jokers: []joker.Instance{joker.NewInstance("j_joker")},
		Money:  7,
	}
	before := *snap
	beforeHand := append([]cards.Card(nil), snap.Hand...)

	_ = Score(hand.Classify(played), snap)

	assert.Equal(t, before.Money, snap.Money)
	assert.Equal(t, before.Jokers, snap.Jokers)
	assert.Equal(t, beforeHand, snap.Hand)
}
