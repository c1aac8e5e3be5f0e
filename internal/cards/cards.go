package cards

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Suit is one of the four French suits.
type Suit string

const (
	Hearts   Suit = "Hearts"
	Diamonds Suit = "Diamonds"
	Clubs    Suit = "Clubs"
	Spades   Suit = "Spades"
)

// Rank is a card rank from "2" to "A".
type Rank string

const (
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// Edition is a cosmetic card edition. It carries no scoring effect on its own.
type Edition string

const (
	EditionBase        Edition = "Base"
	EditionFoil        Edition = "Foil"
	EditionHolographic Edition = "Holographic"
	EditionPolychrome  Edition = "Polychrome"
	EditionNegative    Edition = "Negative"
)

// Enhancement changes how a card classifies or scores.
type Enhancement string

const (
	EnhancementBase  Enhancement = "Base"
	EnhancementStone Enhancement = "Stone"
	EnhancementGlass Enhancement = "Glass"
	EnhancementSteel Enhancement = "Steel"
	EnhancementGold  Enhancement = "Gold"
	EnhancementBonus Enhancement = "Bonus"
	EnhancementMult  Enhancement = "Mult"
	EnhancementWild  Enhancement = "Wild"
	EnhancementLucky Enhancement = "Lucky"
)

// Seal is a card seal.
type Seal string

const (
	SealNone   Seal = "None"
	SealGold   Seal = "Gold"
	SealRed    Seal = "Red"
	SealBlue   Seal = "Blue"
	SealPurple Seal = "Purple"
)

// Card is a single playing card. Intrinsic fields are fixed at construction;
// only its location changes during a run, and that is owned by the caller.
type Card struct {
	ID          string      `json:"id"`
	Suit        Suit        `json:"suit"`
	Rank        Rank        `json:"rank"`
	BaseChips   int         `json:"base_chips"`
	Edition     Edition     `json:"edition"`
	Enhancement Enhancement `json:"enhancement"`
	Seal        Seal        `json:"seal"`
	IsDebuffed  bool        `json:"is_debuffed"`
	IsFaceUp    bool        `json:"is_face_up"`
}

// Suits in deck construction order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Ranks in order: 2-10, J, Q, K, A
var Ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

var suitSymbols = map[Suit]string{
	Hearts: "♥", Diamonds: "♦", Clubs: "♣", Spades: "♠",
}

// SuitCodes maps suits to the single-character codes accepted by Parse.
var SuitCodes = map[Suit]string{
	Hearts: "H", Diamonds: "D", Clubs: "C", Spades: "S",
}

// New builds a Base card with a fresh id and chips fixed by rank.
func New(suit Suit, rank Rank) Card {
	return Card{
		ID:          uuid.New().String(),
		Suit:        suit,
		Rank:        rank,
		BaseChips:   BaseChips(rank),
		Edition:     EditionBase,
		Enhancement: EnhancementBase,
		Seal:        SealNone,
		IsFaceUp:    true,
	}
}

// String returns a short representation like "10♥" or "A♠".
func (c Card) String() string {
	return string(c.Rank) + suitSymbols[c.Suit]
}

// Code returns the ASCII form accepted by Parse, e.g. "10H".
func (c Card) Code() string {
	return string(c.Rank) + SuitCodes[c.Suit]
}

// IsFace reports whether the card is a J, Q or K.
func (c Card) IsFace() bool {
	return c.Rank == Jack || c.Rank == Queen || c.Rank == King
}

// IsWild reports whether the card counts as every suit.
func (c Card) IsWild() bool {
	return c.Enhancement == EnhancementWild
}

// IsStone reports whether the card is excluded from hand classification.
func (c Card) IsStone() bool {
	return c.Enhancement == EnhancementStone
}

// HasSuit reports whether the card is of suit s, counting Wild cards as any suit.
func (c Card) HasSuit(s Suit) bool {
	return c.Suit == s || c.IsWild()
}

// BaseChips returns the chip value of a rank.
// 2-10: face value, J/Q/K: 10, A: 11
func BaseChips(rank Rank) int {
	switch rank {
	case Ace:
		return 11
	case Jack, Queen, King:
		return 10
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case Five:
		return 5
	case Six:
		return 6
	case Seven:
		return 7
	case Eight:
		return 8
	case Nine:
		return 9
	case Ten:
		return 10
	default:
		return 0
	}
}

// RankIndex returns the position of a rank in the low-to-high order, or -1.
// 2=0, 3=1, ..., K=11, A=12
func RankIndex(rank Rank) int {
	for i, r := range Ranks {
		if r == rank {
			return i
		}
	}
	return -1
}

// Parse reads a card from text such as "AH", "10s", "T♦" or "q♣".
// The result is a Base card with a fresh id.
func Parse(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}

	suit, rest, ok := parseSuitSuffix(s)
	if !ok {
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}

	rank, ok := parseRank(rest)
	if !ok {
		return Card{}, fmt.Errorf("invalid rank in card %q", s)
	}

	return New(suit, rank), nil
}

// ParseList reads a comma or space separated list of cards.
func ParseList(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := Parse(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseSuitSuffix(s string) (Suit, string, bool) {
	for suit, sym := range suitSymbols {
		if strings.HasSuffix(s, sym) {
			return suit, strings.TrimSuffix(s, sym), true
		}
	}
	last := strings.ToUpper(s[len(s)-1:])
	for suit, code := range SuitCodes {
		if code == last {
			return suit, s[:len(s)-1], true
		}
	}
	return "", "", false
}

func parseRank(s string) (Rank, bool) {
	s = strings.ToUpper(s)
	if s == "T" {
		return Ten, true
	}
	for _, r := range Ranks {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}
