package hand

import (
	"sort"

	"github.com/MJE43/jokers-gambit/internal/cards"
)

// Result is the outcome of classifying a played selection.
type Result struct {
	Category     Category     `json:"category"`
	ScoringCards []cards.Card `json:"scoring_cards"`
	BaseChips    int          `json:"base_chips"`
	BaseMult     float64      `json:"base_mult"`
}

// Classify determines the category of a played selection and which of its
// cards score. played must be non-empty; callers reject empty selections.
// Stone cards never shape the category. Wild cards count toward every suit.
func Classify(played []cards.Card) Result {
	valid := make([]cards.Card, 0, len(played))
	for _, c := range played {
		if !c.IsStone() {
			valid = append(valid, c)
		}
	}

	if len(valid) == 0 {
		return newResult(HighCard, played)
	}

	// Rank frequencies in first-seen order
	rankOrder := make([]cards.Rank, 0, len(valid))
	rankCounts := make(map[cards.Rank]int, len(valid))
	for _, c := range valid {
		if rankCounts[c.Rank] == 0 {
			rankOrder = append(rankOrder, c.Rank)
		}
		rankCounts[c.Rank]++
	}

	counts := make([]int, 0, len(rankCounts))
	for _, n := range rankCounts {
		counts = append(counts, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	maxCount := counts[0]
	secondCount := 0
	if len(counts) > 1 {
		secondCount = counts[1]
	}

	flushSuit, hasFlush := findFlushSuit(valid)
	isStraight := hasStraight(valid)

	switch {
	case maxCount >= 5 && hasFlush:
		return newResult(FlushFive, valid)
	case maxCount == 3 && secondCount >= 2 && hasFlush:
		return newResult(FlushHouse, valid)
	case maxCount >= 5:
		return newResult(FiveOfAKind, ofRank(valid, firstRankWithCount(rankOrder, rankCounts, maxCount), 5))
	case isStraight && hasFlush:
		// The straight and the flush are not required to share cards.
		return newResult(StraightFlush, valid)
	case maxCount >= 4:
		return newResult(FourOfAKind, ofRank(valid, firstRankWithCount(rankOrder, rankCounts, maxCount), 4))
	case maxCount == 3 && secondCount >= 2:
		return newResult(FullHouse, valid)
	case hasFlush:
		return newResult(Flush, ofSuit(valid, flushSuit, 5))
	case isStraight:
		return newResult(Straight, valid)
	case maxCount >= 3:
		return newResult(ThreeOfAKind, ofRank(valid, firstRankWithCount(rankOrder, rankCounts, maxCount), 3))
	case maxCount == 2 && secondCount >= 2:
		return newResult(TwoPair, pairedCards(valid, rankCounts, 4))
	case maxCount == 2:
		return newResult(Pair, ofRank(valid, firstRankWithCount(rankOrder, rankCounts, maxCount), 2))
	default:
		return newResult(HighCard, []cards.Card{highestCard(valid)})
	}
}

func newResult(category Category, scoring []cards.Card) Result {
	base := BaseFor(category)
	out := make([]cards.Card, len(scoring))
	copy(out, scoring)
	return Result{
		Category:     category,
		ScoringCards: out,
		BaseChips:    base.Chips,
		BaseMult:     base.Mult,
	}
}

// findFlushSuit returns the first suit, in deck order, with five or more
// cards once Wild cards are counted toward it.
func findFlushSuit(valid []cards.Card) (cards.Suit, bool) {
	for _, s := range cards.Suits {
		n := 0
		for _, c := range valid {
			if c.HasSuit(s) {
				n++
			}
		}
		if n >= 5 {
			return s, true
		}
	}
	return "", false
}

// hasStraight reports five consecutive distinct ranks, or the A-2-3-4-5 wheel.
func hasStraight(valid []cards.Card) bool {
	var present [13]bool
	distinct := 0
	for _, c := range valid {
		idx := cards.RankIndex(c.Rank)
		if idx < 0 || present[idx] {
			continue
		}
		present[idx] = true
		distinct++
	}
	if distinct < 5 {
		return false
	}

	run := 0
	for _, ok := range present {
		if !ok {
			run = 0
			continue
		}
		run++
		if run >= 5 {
			return true
		}
	}

	return present[12] && present[0] && present[1] && present[2] && present[3]
}

func firstRankWithCount(order []cards.Rank, counts map[cards.Rank]int, n int) cards.Rank {
	for _, r := range order {
		if counts[r] == n {
			return r
		}
	}
	return order[0]
}

func ofRank(valid []cards.Card, rank cards.Rank, limit int) []cards.Card {
	out := make([]cards.Card, 0, limit)
	for _, c := range valid {
		if c.Rank == rank {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func ofSuit(valid []cards.Card, suit cards.Suit, limit int) []cards.Card {
	out := make([]cards.Card, 0, limit)
	for _, c := range valid {
		if c.HasSuit(suit) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func pairedCards(valid []cards.Card, counts map[cards.Rank]int, limit int) []cards.Card {
	out := make([]cards.Card, 0, limit)
	for _, c := range valid {
		if counts[c.Rank] >= 2 {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// highestCard picks the top rank; on ties the earliest card wins.
func highestCard(valid []cards.Card) cards.Card {
	best := valid[0]
	bestIdx := cards.RankIndex(best.Rank)
	for _, c := range valid[1:] {
		if idx := cards.RankIndex(c.Rank); idx > bestIdx {
			best, bestIdx = c, idx
		}
	}
	return best
}
