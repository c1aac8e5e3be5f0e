package hand

import "slices"

// Category is a classified poker-hand category.
type Category string

const (
	FlushFive     Category = "Flush Five"
	FlushHouse    Category = "Flush House"
	FiveOfAKind   Category = "Five of a Kind"
	StraightFlush Category = "Straight Flush"
	FourOfAKind   Category = "Four of a Kind"
	FullHouse     Category = "Full House"
	Flush         Category = "Flush"
	Straight      Category = "Straight"
	ThreeOfAKind  Category = "Three of a Kind"
	TwoPair       Category = "Two Pair"
	Pair          Category = "Pair"
	HighCard      Category = "High Card"
)

// Base holds the starting chips and mult of a category.
type Base struct {
	Chips int     `json:"chips"`
	Mult  float64 `json:"mult"`
}

// Categories lists every category from strongest to weakest.
var Categories = []Category{
	FlushFive, FlushHouse, FiveOfAKind, StraightFlush, FourOfAKind, FullHouse,
	Flush, Straight, ThreeOfAKind, TwoPair, Pair, HighCard,
}

var baseTable = map[Category]Base{
	FlushFive:     {Chips: 160, Mult: 16},
	FlushHouse:    {Chips: 140, Mult: 14},
	FiveOfAKind:   {Chips: 120, Mult: 12},
	StraightFlush: {Chips: 100, Mult: 8},
	FourOfAKind:   {Chips: 60, Mult: 7},
	FullHouse:     {Chips: 40, Mult: 4},
	Flush:         {Chips: 35, Mult: 4},
	Straight:      {Chips: 30, Mult: 4},
	ThreeOfAKind:  {Chips: 30, Mult: 3},
	TwoPair:       {Chips: 20, Mult: 2},
	Pair:          {Chips: 10, Mult: 2},
	HighCard:      {Chips: 5, Mult: 1},
}

// BaseFor returns the base chips and mult of c. Unknown categories score as High Card.
func BaseFor(c Category) Base {
	if b, ok := baseTable[c]; ok {
		return b
	}
	return baseTable[HighCard]
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// String returns the display name.
func (c Category) String() string {
	return string(c)
}

// ContainsPair reports whether the category is built on at least two cards of one rank.
func (c Category) ContainsPair() bool {
	switch c {
	case FlushFive, FlushHouse, FiveOfAKind, FourOfAKind, FullHouse, ThreeOfAKind, TwoPair, Pair:
		return true
	default:
		return false
	}
}
