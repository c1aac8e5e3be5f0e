package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/engine"
)

func ids(pile []cards.Card) []string {
	out := make([]string, len(pile))
	for i, c := range pile {
		out[i] = c.ID
	}
	return out
}

func TestNewDeck(t *testing.T) {
	d := New()
	require.Len(t, d, Size)

	seen := make(map[string]bool)
	perSuit := make(map[cards.Suit]int)
	for _, c := range d {
		key := c.Code()
		assert.False(t, seen[key], "duplicate card %s", key)
		seen[key] = true
		perSuit[c.Suit]++

		assert.Equal(t, cards.BaseChips(c.Rank), c.BaseChips)
		assert.Equal(t, cards.EnhancementBase, c.Enhancement)
		assert.Equal(t, cards.EditionBase, c.Edition)
		assert.Equal(t, cards.SealNone, c.Seal)
		assert.NotEmpty(t, c.ID)
	}
	for _, s := range cards.Suits {
		assert.Equal(t, 13, perSuit[s], "suit %s", s)
	}
}

func TestSeededShuffleIsReproducible(t *testing.T) {
	d := New()

	first := Seeded(d, 1234)
	second := Seeded(d, 1234)
	assert.Equal(t, ids(first), ids(second))

	other := Seeded(d, 1235)
	assert.NotEqual(t, ids(first), ids(other), "different seeds should give different orders")

	assert.ElementsMatch(t, ids(d), ids(first), "shuffle must be a permutation")
	assert.NotEqual(t, ids(d), ids(first))
}

func TestShuffleFollowsMulberryFisherYates(t *testing.T) {
	pile := []cards.Card{
		cards.New(cards.Hearts, cards.Two),
		cards.New(cards.Hearts, cards.Three),
		cards.New(cards.Hearts, cards.Four),
	}

	// Replay the algorithm by hand: i=2 then i=1.
	rng := engine.NewMulberry32(99)
	want := []cards.Card{pile[0], pile[1], pile[2]}
	j := int(rng.Float64() * 3)
	want[2], want[j] = want[j], want[2]
	j = int(rng.Float64() * 2)
	want[1], want[j] = want[j], want[1]

	assert.Equal(t, ids(want), ids(Seeded(pile, 99)))
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	d := New()
	before := ids(d)

	_ = Seeded(d, 5)
	_ = Shuffle(d, nil)
	_ = ShuffleProvablyFair(d, engine.Seeds{Server: "s", Client: "c"}, 1)

	assert.Equal(t, before, ids(d))
}

func TestEntropyShuffleIsPermutation(t *testing.T) {
	d := New()
	got := Shuffle(d, nil)
	assert.ElementsMatch(t, ids(d), ids(got))
}

func TestProvablyFairShuffle(t *testing.T) {
	d := New()
	seeds := engine.Seeds{Server: "server", Client: "client"}

	a := ShuffleProvablyFair(d, seeds, 10)
	b := ShuffleProvablyFair(d, seeds, 10)
	c := ShuffleProvablyFair(d, seeds, 11)

	assert.Equal(t, ids(a), ids(b))
	assert.NotEqual(t, ids(a), ids(c))
	assert.ElementsMatch(t, ids(d), ids(a))
}

func TestDraw(t *testing.T) {
	d := New()

	drawn, rest := Draw(d, 8)
	require.Len(t, drawn, 8)
	require.Len(t, rest, Size-8)
	assert.Equal(t, ids(d[:8]), ids(drawn))
	assert.Equal(t, ids(d[8:]), ids(rest))

	// No aliasing between the results and the source.
	drawn[0].Rank = cards.Ace
	rest[0].Rank = cards.Ace
	assert.Equal(t, cards.Two, d[0].Rank)
	assert.Equal(t, cards.Ten, d[8].Rank)

	all, none := Draw(d[:3], 10)
	assert.Len(t, all, 3)
	assert.Empty(t, none)

	zero, same := Draw(d, -1)
	assert.Empty(t, zero)
	assert.Len(t, same, Size)
}
