package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/hand"
	"github.com/MJE43/jokers-gambit/internal/joker"
	"github.com/MJE43/jokers-gambit/internal/run"
	"github.com/MJE43/jokers-gambit/internal/scan"
	"github.com/MJE43/jokers-gambit/internal/scoring"
)

func splitIDs(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func cardList(cs []cards.Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func renderBreakdown(b scoring.Breakdown) error {
	data := pterm.TableData{{"Phase", "Source", "Chips", "Mult"}}
	for _, s := range b.Steps {
		data = append(data, []string{string(s.Phase), s.Source, strconv.Itoa(s.Chips), strconv.FormatFloat(s.Mult, 'f', -1, 64)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Success.Printfln("%s: %d chips x %s mult = %d", b.Category, b.Chips,
		strconv.FormatFloat(b.Mult, 'f', -1, 64), b.Score)
	return nil
}

func runClassify(env *cliEnv, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	played, err := cards.ParseList(strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	if len(played) == 0 {
		return run.ErrEmptySelection
	}

	res := hand.Classify(played)
	pterm.Info.Printfln("%s (base %d chips x %s mult)", res.Category, res.BaseChips,
		strconv.FormatFloat(res.BaseMult, 'f', -1, 64))
	pterm.Println("scoring:", cardList(res.ScoringCards))
	return nil
}

func runScore(env *cliEnv, args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	jokers := fs.String("jokers", "", "comma separated joker ids")
	held := fs.String("held", "", "cards held in hand, comma separated")
	money := fs.Int("money", 0, "money at the time of the hand")
	if err := fs.Parse(args); err != nil {
		return err
	}

	played, err := cards.ParseList(strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	if len(played) == 0 {
		return run.ErrEmptySelection
	}
	if len(played) > run.MaxSelection {
		return run.ErrTooManyCards
	}
	heldCards, err := cards.ParseList(*held)
	if err != nil {
		return err
	}

	snap := &joker.Snapshot{
		Hand:  append(append([]cards.Card{}, played...), heldCards...),
		Money: *money,
		Ante:  1,
		Round: 1,
	}
	for _, id := range splitIDs(*jokers) {
		if !env.engine.Registry().Has(id) {
			return fmt.Errorf("%w: %s", joker.ErrInvalidJoker, id)
		}
		snap.Jokers = append(snap.Jokers, joker.NewInstance(id))
	}

	return renderBreakdown(env.engine.Trace(hand.Classify(played), snap))
}

// demoHands are fixed selections that exercise each phase of scoring.
var demoHands = []struct {
	label  string
	played string
	held   string
	jokers string
	steel  bool // held cards are Steel
}{
	{"pair of twos", "2C 2D", "", "", false},
	{"royal flush with Joker", "10H JH QH KH AH", "", "j_joker", false},
	{"flush of hearts with Lusty Joker", "2H 5H 9H JH KH", "", "j_lusty_joker", false},
	{"trips holding a Steel King", "7S 7D 7C", "KS", "j_joker", true},
	{"pair with The Duo", "QS QD 4C", "", "j_the_duo,j_joker", false},
	{"Baron holding two Kings", "AS AD", "KH KC", "j_baron", false},
}

func runDemo(env *cliEnv, args []string) error {
	pterm.DefaultHeader.Println("Joker's Gambit scoring demo")

	data := pterm.TableData{{"Hand", "Played", "Jokers", "Category", "Score"}}
	for _, d := range demoHands {
		played, err := cards.ParseList(d.played)
		if err != nil {
			return err
		}
		held, err := cards.ParseList(d.held)
		if err != nil {
			return err
		}
		if d.steel {
			for i := range held {
				held[i].Enhancement = cards.EnhancementSteel
			}
		}

		snap := &joker.Snapshot{Hand: append(append([]cards.Card{}, played...), held...), Ante: 1, Round: 1}
		for _, id := range splitIDs(d.jokers) {
			snap.Jokers = append(snap.Jokers, joker.NewInstance(id))
		}
		b := env.engine.Trace(hand.Classify(played), snap)
		data = append(data, []string{d.label, d.played, d.jokers, string(b.Category), strconv.Itoa(b.Score)})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

func runScan(env *cliEnv, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	from := fs.Uint("from", 1, "first seed")
	to := fs.Uint("to", 10_000, "last seed (inclusive)")
	op := fs.String("op", string(scan.OpGreaterEqual), "target comparison: eq, gt, ge, lt, le, between, outside")
	target := fs.Float64("target", 300, "target score")
	target2 := fs.Float64("target2", 0, "upper bound for between and outside")
	jokers := fs.String("jokers", "", "comma separated joker ids")
	category := fs.String("category", "", "only count hands of this category, e.g. \"Full House\"")
	plays := fs.Int("plays", run.MaxSelection, "cards taken from the opening hand")
	limit := fs.Int("limit", 20, "maximum hits to show")
	workers := fs.Int("workers", 0, "worker goroutines (0 means GOMAXPROCS)")
	timeout := fs.Duration("timeout", env.cfg.ScanTimeout, "scan timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := []scan.Option{scan.WithMaxRange(env.cfg.ScanMaxRange)}
	if *workers > 0 {
		opts = append(opts, scan.WithWorkers(*workers))
	}
	scanner := scan.NewScanner(env.engine, opts...)

	req := scan.Request{
		SeedStart:  uint32(*from),
		SeedEnd:    uint32(*to),
		PlayCount:  *plays,
		Jokers:     splitIDs(*jokers),
		Category:   hand.Category(*category),
		TargetOp:   scan.TargetOp(*op),
		TargetVal:  *target,
		TargetVal2: *target2,
		Limit:      *limit,
		TimeoutMs:  int(*timeout / time.Millisecond),
	}

	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("scanning seeds %d..%d", req.SeedStart, req.SeedEnd))
	res, err := scanner.Scan(context.Background(), req)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	spinner.Success(fmt.Sprintf("evaluated %d seeds", res.Summary.TotalEvaluated))

	data := pterm.TableData{{"Seed", "Score", "Category", "Cards"}}
	for _, h := range res.Hits {
		data = append(data, []string{strconv.FormatUint(uint64(h.Seed), 10), strconv.Itoa(h.Score), string(h.Category), strings.Join(h.Cards, " ")})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	s := res.Summary
	pterm.Info.Printfln("hits %d  min %d  max %d  mean %.1f", s.HitsFound, s.MinScore, s.MaxScore, s.MeanScore)
	if s.TimedOut {
		pterm.Warning.Println("scan timed out; results are partial")
	}
	return nil
}

func runJokers(env *cliEnv, args []string) error {
	data := pterm.TableData{{"ID", "Name", "Rarity", "Cost", "Trigger", "Description"}}
	for _, d := range env.engine.Registry().List() {
		data = append(data, []string{d.ID, d.Name, string(d.Rarity), strconv.Itoa(d.Cost), string(d.Trigger), d.Description})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
