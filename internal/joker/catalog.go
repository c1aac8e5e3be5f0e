package joker

import (
	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/hand"
)

func plainJoker() Definition {
	return Definition{
		ID:          DefaultID,
		Name:        "Joker",
		Rarity:      RarityCommon,
		Cost:        2,
		Description: "+4 Mult",
		Trigger:     TriggerIndependent,
		Effect: func(*Snapshot, Context, Instance) EffectOutput {
			return EffectOutput{PlusMult: 4}
		},
	}
}

// suitJoker gives plusMult for every scored card of suit (Wild included).
func suitJoker(id, name string, cost int, suit cards.Suit, plusMult float64, desc string) Definition {
	return Definition{
		ID:          id,
		Name:        name,
		Rarity:      RarityCommon,
		Cost:        cost,
		Description: desc,
		Trigger:     TriggerOnScore,
		Effect: func(_ *Snapshot, ctx Context, _ Instance) EffectOutput {
			if c, ok := ctx.Card(); ok && c.HasSuit(suit) {
				return EffectOutput{PlusMult: plusMult}
			}
			return EffectOutput{}
		},
	}
}

// categoryJoker multiplies mult when the played category is exactly want.
func categoryJoker(id, name string, want hand.Category, xMult float64, desc string) Definition {
	return Definition{
		ID:          id,
		Name:        name,
		Rarity:      RarityRare,
		Cost:        8,
		Description: desc,
		Trigger:     TriggerIndependent,
		Effect: func(_ *Snapshot, ctx Context, _ Instance) EffectOutput {
			if ctx.Category == want {
				return EffectOutput{XMult: xMult}
			}
			return EffectOutput{}
		},
	}
}

func builtins() []Definition {
	return []Definition{
		plainJoker(),
		suitJoker("j_greedy_joker", "Greedy Joker", 5, cards.Diamonds, 4,
			"Played cards with Diamond suit give +4 Mult when scored"),
		suitJoker("j_lusty_joker", "Lusty Joker", 5, cards.Hearts, 3,
			"Played cards with Heart suit give +3 Mult when scored"),
		suitJoker("j_wrathful_joker", "Wrathful Joker", 5, cards.Spades, 3,
			"Played cards with Spade suit give +3 Mult when scored"),
		suitJoker("j_gluttonous_joker", "Gluttonous Joker", 5, cards.Clubs, 3,
			"Played cards with Club suit give +3 Mult when scored"),
		categoryJoker("j_the_duo", "The Duo", hand.Pair, 2, "X2 Mult if playing a Pair"),
		categoryJoker("j_the_trio", "The Trio", hand.ThreeOfAKind, 3, "X3 Mult if playing a Three of a Kind"),
		{
			ID:          "j_jolly_joker",
			Name:        "Jolly Joker",
			Rarity:      RarityCommon,
			Cost:        3,
			Description: "+8 Mult if played hand contains a Pair",
			Trigger:     TriggerIndependent,
			Effect: func(_ *Snapshot, ctx Context, _ Instance) EffectOutput {
				if ctx.Category.ContainsPair() {
					return EffectOutput{PlusMult: 8}
				}
				return EffectOutput{}
			},
		},
		{
			ID:          "j_scary_face",
			Name:        "Scary Face",
			Rarity:      RarityCommon,
			Cost:        4,
			Description: "Played face cards give +30 Chips when scored",
			Trigger:     TriggerOnScore,
			Effect: func(_ *Snapshot, ctx Context, _ Instance) EffectOutput {
				if c, ok := ctx.Card(); ok && c.IsFace() {
					return EffectOutput{Chips: 30}
				}
				return EffectOutput{}
			},
		},
		{
			ID:          "j_baron",
			Name:        "Baron",
			Rarity:      RarityRare,
			Cost:        8,
			Description: "Each King held in hand gives X1.5 Mult",
			Trigger:     TriggerOnHeld,
			Effect: func(_ *Snapshot, ctx Context, _ Instance) EffectOutput {
				if c, ok := ctx.Card(); ok && c.Rank == cards.King {
					return EffectOutput{XMult: 1.5}
				}
				return EffectOutput{}
			},
		},
		{
			ID:          "j_banner",
			Name:        "Banner",
			Rarity:      RarityCommon,
			Cost:        5,
			Description: "+30 Chips for each remaining discard",
			Trigger:     TriggerPassive,
			Effect: func(snap *Snapshot, _ Context, _ Instance) EffectOutput {
				if snap == nil || snap.DiscardsRemaining <= 0 {
					return EffectOutput{}
				}
				return EffectOutput{Chips: 30 * snap.DiscardsRemaining}
			},
		},
		{
			ID:          "j_golden",
			Name:        "Golden Joker",
			Rarity:      RarityUncommon,
			Cost:        6,
			Description: "Earn $4 at end of round",
			Trigger:     TriggerIndependent,
			Payout:      4,
		},
		{
			ID:          "j_faceless",
			Name:        "Faceless Joker",
			Rarity:      RarityCommon,
			Cost:        4,
			Description: "Earn $5 if 3 or more face cards are discarded at the same time",
			Trigger:     TriggerOnDiscard,
			Effect: func(_ *Snapshot, ctx Context, _ Instance) EffectOutput {
				faces := 0
				for _, c := range ctx.Cards {
					if c.IsFace() {
						faces++
					}
				}
				if faces >= 3 {
					return EffectOutput{Money: 5}
				}
				return EffectOutput{}
			},
		},
	}
}
