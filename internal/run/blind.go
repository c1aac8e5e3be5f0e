package run

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RoundsPerAnte is the number of blinds in one ante.
const RoundsPerAnte = 3

// Blind is the score threshold of one round and what clearing it pays.
type Blind struct {
	Name        string `json:"name"`
	TargetScore int    `json:"target_score"`
	Reward      int    `json:"reward"`
}

var (
	blindBase   = decimal.NewFromInt(300)
	blindGrowth = decimal.RequireFromString("1.6")
	ten         = decimal.NewFromInt(10)
	hundred     = decimal.NewFromInt(100)
	thousand    = decimal.NewFromInt(1000)
)

var blindSteps = []struct {
	name   string
	mult   decimal.Decimal
	reward int
}{
	{"Small Blind", decimal.NewFromInt(1), 3},
	{"Big Blind", decimal.RequireFromString("1.5"), 4},
	{"Boss Blind", decimal.NewFromInt(2), 5},
}

// BlindFor returns the blind of a round (1-3) within an ante (1+).
// Targets grow by 1.6x per ante and are floored to a multiple of 10,
// or of 100 from 1000 upward.
func BlindFor(ante, round int) Blind {
	if ante < 1 {
		ante = 1
	}
	if round < 1 || round > RoundsPerAnte {
		round = 1
	}
	step := blindSteps[round-1]

	// PowInt32 only fails for a zero base with a negative exponent; the
	// exponent is clamped to >= 0 above.
	growth, err := blindGrowth.PowInt32(int32(ante - 1))
	if err != nil {
		panic(fmt.Sprintf("blind growth for ante %d: %v", ante, err))
	}
	raw := blindBase.Mul(growth).Mul(step.mult)

	unit := ten
	if !raw.LessThan(thousand) {
		unit = hundred
	}
	target := raw.Div(unit).Floor().Mul(unit)

	return Blind{
		Name:        step.name,
		TargetScore: int(target.IntPart()),
		Reward:      step.reward,
	}
}

// Interest is $1 per $5 held, capped at MaxInterest.
func Interest(money int) int {
	if money <= 0 {
		return 0
	}
	i := decimal.NewFromInt(int64(money)).Div(decimal.NewFromInt(5)).Floor()
	return int(decimal.Min(i, decimal.NewFromInt(MaxInterest)).IntPart())
}
