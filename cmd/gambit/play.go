package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/run"
)

const (
	actionPlay    = "Play selected cards"
	actionDiscard = "Discard selected cards"
	actionQuit    = "Quit"
	shopSkip      = "Next round"
)

func runPlay(env *cliEnv, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	seed := fs.Int64("seed", -1, "deck seed; negative draws one from entropy")
	jokers := fs.String("jokers", "", "comma separated joker ids to start with")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := run.Options{Jokers: splitIDs(*jokers), Engine: env.engine, Logger: env.logger}
	if *seed >= 0 {
		s := uint32(*seed)
		opts.Seed = &s
	}
	rn := run.New(opts)
	pterm.DefaultHeader.Printfln("Run %s  seed %d", rn.State().ID, rn.State().Seed)

	for {
		st := rn.State()
		switch st.Phase {
		case run.PhaseGameOver:
			pterm.Error.Printfln("Game over at ante %d round %d with %d chips scored", st.Ante, st.Round, st.RoundScore)
			return nil
		case run.PhaseShop:
			done, err := shop(rn)
			if err != nil || done {
				return err
			}
		default:
			done, err := turn(rn)
			if err != nil || done {
				return err
			}
		}
	}
}

func showStatus(st run.State) {
	pterm.DefaultSection.Printfln("Ante %d  %s  target %d", st.Ante, st.Blind.Name, st.Blind.TargetScore)
	jokers := make([]string, len(st.Jokers))
	for i, j := range st.Jokers {
		jokers[i] = j.DefinitionID
	}
	pterm.Info.Printfln("score %d/%d  hands %d  discards %d  money $%d  jokers %v",
		st.RoundScore, st.Blind.TargetScore, st.HandsRemaining, st.DiscardsRemaining, st.Money, jokers)
}

// turn asks for a selection and an action. done reports that the player quit.
func turn(rn *run.Run) (done bool, err error) {
	st := rn.State()
	showStatus(st)

	labels := make([]string, len(st.Hand))
	byLabel := make(map[string]cards.Card, len(st.Hand))
	for i, c := range st.Hand {
		labels[i] = fmt.Sprintf("%d. %s", i+1, describe(c))
		byLabel[labels[i]] = c
	}

	picked, err := pterm.DefaultInteractiveMultiselect.
		WithOptions(labels).
		WithMaxHeight(run.HandSize).
		Show("Select up to " + strconv.Itoa(run.MaxSelection) + " cards")
	if err != nil {
		return false, err
	}

	action, err := pterm.DefaultInteractiveSelect.
		WithOptions([]string{actionPlay, actionDiscard, actionQuit}).
		Show()
	if err != nil {
		return false, err
	}
	if action == actionQuit {
		return true, nil
	}

	ids := make([]string, len(picked))
	for i, label := range picked {
		ids[i] = byLabel[label].ID
	}

	if action == actionDiscard {
		res, err := rn.Discard(ids)
		if reportable(err) {
			pterm.Warning.Println(err)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		pterm.Info.Printfln("discarded %s", cardList(res.Discarded))
		return false, nil
	}

	res, err := rn.Play(ids)
	if reportable(err) {
		pterm.Warning.Println(err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := renderBreakdown(res.Breakdown); err != nil {
		return false, err
	}
	if res.Cleared && res.Payout != nil {
		pterm.Success.Printfln("Blind cleared! reward $%d + jokers $%d + interest $%d = $%d",
			res.Payout.Reward, res.Payout.Jokers, res.Payout.Interest, res.Payout.Total)
	}
	return false, nil
}

// shop offers the rolled jokers until the player moves on.
func shop(rn *run.Run) (done bool, err error) {
	st := rn.State()
	showStatus(st)

	options := make([]string, 0, len(st.Shop)+2)
	for i, o := range st.Shop {
		options = append(options, fmt.Sprintf("%d. %s ($%d)", i+1, o.Name, o.Cost))
	}
	options = append(options, shopSkip, actionQuit)

	choice, err := pterm.DefaultInteractiveSelect.WithOptions(options).Show("Shop")
	if err != nil {
		return false, err
	}
	switch choice {
	case actionQuit:
		return true, nil
	case shopSkip:
		return false, rn.NextRound()
	}

	for i := range st.Shop {
		if choice != options[i] {
			continue
		}
		bought, err := rn.Buy(i)
		if reportable(err) {
			pterm.Warning.Println(err)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		pterm.Success.Printfln("bought %s", bought.DefinitionID)
	}
	return false, nil
}

func describe(c cards.Card) string {
	s := c.String()
	if c.Suit == cards.Hearts || c.Suit == cards.Diamonds {
		s = pterm.FgRed.Sprint(s)
	}
	if c.Enhancement != "" && c.Enhancement != cards.EnhancementBase {
		s += " " + string(c.Enhancement)
	}
	if c.Edition != "" && c.Edition != cards.EditionBase {
		s += " " + string(c.Edition)
	}
	return s
}

// reportable reports whether err is a rejected action the player can retry.
func reportable(err error) bool {
	for _, target := range []error{
		run.ErrEmptySelection, run.ErrTooManyCards, run.ErrNoDiscardsLeft,
		run.ErrInsufficientFunds, run.ErrJokerSlotsFull, run.ErrUnknownOffer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
