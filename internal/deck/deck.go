package deck

import (
	"crypto/rand"
	"math"
	"math/big"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/engine"
)

// Size is the number of cards in a standard deck.
const Size = 52

// Mode selects how a deck is shuffled.
type Mode string

const (
	// ModeSeeded uses Mulberry32 seeded by the caller; same seed, same order.
	ModeSeeded Mode = "seeded"

	// ModeEntropy uses crypto/rand and is not reproducible.
	ModeEntropy Mode = "entropy"

	// ModeProvablyFair derives the order from HMAC-SHA256 server/client seeds and a nonce.
	ModeProvablyFair Mode = "provably_fair"
)

// New builds the 52 Base cards, suit by suit, 2 through A.
func New() []cards.Card {
	out := make([]cards.Card, 0, Size)
	for _, s := range cards.Suits {
		for _, r := range cards.Ranks {
			out = append(out, cards.New(s, r))
		}
	}
	return out
}

// Shuffle returns a shuffled copy of pile. With a seed the order is fully
// determined by it; without one the shuffle draws from crypto/rand.
func Shuffle(pile []cards.Card, seed *uint32) []cards.Card {
	if seed == nil {
		return shuffleWith(pile, entropyIndex)
	}
	return shuffleWith(pile, engine.NewMulberry32(*seed).IntN)
}

// Seeded is shorthand for Shuffle with a seed.
func Seeded(pile []cards.Card, seed uint32) []cards.Card {
	return Shuffle(pile, &seed)
}

// shuffleWith runs Fisher-Yates from the back: for i = n-1..1, swap i with pick(i+1).
func shuffleWith(pile []cards.Card, pick func(n int) int) []cards.Card {
	out := make([]cards.Card, len(pile))
	copy(out, pile)
	for i := len(out) - 1; i > 0; i-- {
		j := pick(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func entropyIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("deck: crypto/rand unavailable: " + err.Error())
	}
	return int(v.Int64())
}

// ShuffleProvablyFair orders pile by drawing one HMAC float per position and
// selecting from the remaining pool, so anyone holding the revealed seeds can
// replay the deal.
func ShuffleProvablyFair(pile []cards.Card, seeds engine.Seeds, nonce uint64) []cards.Card {
	pool := make([]cards.Card, len(pile))
	copy(pool, pile)

	floats := engine.Floats(seeds, nonce, len(pile))
	out := make([]cards.Card, 0, len(pile))
	for _, f := range floats {
		index := int(math.Floor(f * float64(len(pool))))
		if index >= len(pool) {
			index = len(pool) - 1
		}
		out = append(out, pool[index])
		pool = append(pool[:index], pool[index+1:]...)
	}
	return out
}

// Draw moves up to n cards off the top of pile. Both returned slices are
// freshly allocated; neither aliases pile.
func Draw(pile []cards.Card, n int) (drawn, rest []cards.Card) {
	if n < 0 {
		n = 0
	}
	if n > len(pile) {
		n = len(pile)
	}
	drawn = make([]cards.Card, n)
	copy(drawn, pile[:n])
	rest = make([]cards.Card, len(pile)-n)
	copy(rest, pile[n:])
	return drawn, rest
}
