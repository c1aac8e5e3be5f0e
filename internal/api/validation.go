package api

import (
	"fmt"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/deck"
	"github.com/MJE43/jokers-gambit/internal/run"
	"github.com/MJE43/jokers-gambit/internal/scan"
)

var (
	validEdition = map[cards.Edition]bool{
		cards.EditionBase: true, cards.EditionFoil: true, cards.EditionHolographic: true,
		cards.EditionPolychrome: true, cards.EditionNegative: true,
	}
	validEnhancement = map[cards.Enhancement]bool{
		cards.EnhancementBase: true, cards.EnhancementStone: true, cards.EnhancementGlass: true,
		cards.EnhancementSteel: true, cards.EnhancementGold: true, cards.EnhancementBonus: true,
		cards.EnhancementMult: true, cards.EnhancementWild: true, cards.EnhancementLucky: true,
	}
	validSeal = map[cards.Seal]bool{
		cards.SealNone: true, cards.SealGold: true, cards.SealRed: true,
		cards.SealBlue: true, cards.SealPurple: true,
	}
)

const (
	maxScanLimit     = 100_000
	maxScanTimeoutMs = 300_000
)

// fieldError is a validation failure tied to one request field
type fieldError struct {
	field string
	msg   string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.msg)
}

func invalid(field, format string, args ...any) error {
	return &fieldError{field: field, msg: fmt.Sprintf(format, args...)}
}

// parseSpecs converts card specs, requiring between lo and hi of them.
func parseSpecs(field string, specs []CardSpec, lo, hi int) ([]cards.Card, error) {
	if len(specs) < lo {
		if lo == 1 {
			return nil, invalid(field, "at least one card is required")
		}
		return nil, invalid(field, "at least %d cards are required", lo)
	}
	if len(specs) > hi {
		return nil, invalid(field, "at most %d cards allowed", hi)
	}
	out := make([]cards.Card, 0, len(specs))
	for i, s := range specs {
		c, err := s.Card()
		if err != nil {
			return nil, invalid(fmt.Sprintf("%s[%d]", field, i), "%v", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// ValidateScoreRequest checks card counts and snapshot fields
func ValidateScoreRequest(req *ScoreRequest) error {
	if len(req.Played) == 0 {
		return invalid("played", "at least one card is required")
	}
	if len(req.Played) > run.MaxSelection {
		return invalid("played", "at most %d cards allowed", run.MaxSelection)
	}
	if len(req.Played)+len(req.Held) > deck.Size {
		return invalid("held", "hand larger than a deck")
	}
	if req.Money < 0 {
		return invalid("money", "must be >= 0")
	}
	if req.HandsRemaining < 0 || req.DiscardsRemaining < 0 {
		return invalid("hands_remaining", "counters must be >= 0")
	}
	return nil
}

// ValidateShuffleRequest checks that the mode has what it needs
func ValidateShuffleRequest(req *ShuffleRequest) error {
	switch req.Mode {
	case "", deck.ModeSeeded, deck.ModeEntropy:
	case deck.ModeProvablyFair:
		if req.ServerSeed == "" {
			return invalid("server_seed", "required for provably_fair")
		}
		if req.ClientSeed == "" {
			return invalid("client_seed", "required for provably_fair")
		}
	default:
		return invalid("mode", "must be one of seeded, entropy, provably_fair")
	}
	if req.Mode == deck.ModeSeeded && req.Seed == nil {
		return invalid("seed", "required for seeded mode")
	}
	return nil
}

// ValidateScanRequest checks the limits the scanner itself does not
func ValidateScanRequest(req *scan.Request) error {
	if req.TargetOp == "" {
		return invalid("target_op", "is required")
	}
	if req.Limit < 0 {
		return invalid("limit", "must be >= 0")
	}
	if req.Limit > maxScanLimit {
		return invalid("limit", "too large (max %d)", maxScanLimit)
	}
	if req.TimeoutMs < 0 {
		return invalid("timeout_ms", "must be >= 0")
	}
	if req.TimeoutMs > maxScanTimeoutMs {
		return invalid("timeout_ms", "too large (max %d ms)", maxScanTimeoutMs)
	}
	return nil
}

// ValidateActionRequest rejects empty selections before they reach the run
func ValidateActionRequest(req *ActionRequest) error {
	if len(req.CardIDs) == 0 {
		return invalid("card_ids", "at least one card is required")
	}
	return nil
}
