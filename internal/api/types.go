package api

import (
	"fmt"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/deck"
	"github.com/MJE43/jokers-gambit/internal/hand"
	"github.com/MJE43/jokers-gambit/internal/joker"
	"github.com/MJE43/jokers-gambit/internal/run"
	"github.com/MJE43/jokers-gambit/internal/scoring"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types
const (
	// Input validation errors
	ErrTypeValidation  = "validation_error"
	ErrTypeInvalidCard = "invalid_card"
	ErrTypeInvalidScan = "invalid_scan"

	// Run errors
	ErrTypeNotFound = "not_found"
	ErrTypeRunState = "run_state"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory groups error types for logging
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryRun        ErrorCategory = "run"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeValidation, ErrTypeInvalidCard, ErrTypeInvalidScan:
		return CategoryValidation
	case ErrTypeNotFound, ErrTypeRunState:
		return CategoryRun
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// CardSpec describes a card in a request: a code such as "10H" plus
// optional modifiers.
type CardSpec struct {
	Code        string            `json:"code"`
	Edition     cards.Edition     `json:"edition,omitempty"`
	Enhancement cards.Enhancement `json:"enhancement,omitempty"`
	Seal        cards.Seal        `json:"seal,omitempty"`
	Debuffed    bool              `json:"debuffed,omitempty"`
}

// Card builds the card a spec describes.
func (cs CardSpec) Card() (cards.Card, error) {
	c, err := cards.Parse(cs.Code)
	if err != nil {
		return cards.Card{}, err
	}
	if cs.Edition != "" {
		if !validEdition[cs.Edition] {
			return cards.Card{}, fmt.Errorf("unknown edition %q", cs.Edition)
		}
		c.Edition = cs.Edition
	}
	if cs.Enhancement != "" {
		if !validEnhancement[cs.Enhancement] {
			return cards.Card{}, fmt.Errorf("unknown enhancement %q", cs.Enhancement)
		}
		c.Enhancement = cs.Enhancement
	}
	if cs.Seal != "" {
		if !validSeal[cs.Seal] {
			return cards.Card{}, fmt.Errorf("unknown seal %q", cs.Seal)
		}
		c.Seal = cs.Seal
	}
	c.IsDebuffed = cs.Debuffed
	return c, nil
}

// JokersResponse lists the registered joker definitions
type JokersResponse struct {
	Jokers        []joker.Definition `json:"jokers"`
	EngineVersion string             `json:"engine_version"`
}

// ClassifyRequest asks for the category of a played selection
type ClassifyRequest struct {
	Cards []CardSpec `json:"cards"`
}

// ClassifyResponse is the classification of a played selection
type ClassifyResponse struct {
	Result        hand.Result `json:"result"`
	EngineVersion string      `json:"engine_version"`
}

// ScoreRequest scores a played selection against a game snapshot. Held
// cards are the rest of the hand.
type ScoreRequest struct {
	Played            []CardSpec `json:"played"`
	Held              []CardSpec `json:"held,omitempty"`
	Jokers            []string   `json:"jokers,omitempty"`
	Money             int        `json:"money,omitempty"`
	Ante              int        `json:"ante,omitempty"`
	Round             int        `json:"round,omitempty"`
	TargetScore       int        `json:"target_score,omitempty"`
	HandsRemaining    int        `json:"hands_remaining,omitempty"`
	DiscardsRemaining int        `json:"discards_remaining,omitempty"`
}

// ScoreResponse is a score with its breakdown
type ScoreResponse struct {
	Result        hand.Result       `json:"result"`
	Score         int               `json:"score"`
	Breakdown     scoring.Breakdown `json:"breakdown"`
	EngineVersion string            `json:"engine_version"`
}

// ShuffleRequest asks for a shuffled standard deck
type ShuffleRequest struct {
	Mode       deck.Mode `json:"mode,omitempty"`
	Seed       *uint32   `json:"seed,omitempty"`
	ServerSeed string    `json:"server_seed,omitempty"`
	ClientSeed string    `json:"client_seed,omitempty"`
	Nonce      uint64    `json:"nonce,omitempty"`
}

// ShuffleResponse is a shuffled deck in card codes
type ShuffleResponse struct {
	Mode           deck.Mode `json:"mode"`
	Cards          []string  `json:"cards"`
	ServerSeedHash string    `json:"server_seed_hash,omitempty"`
	EngineVersion  string    `json:"engine_version"`
}

// CreateRunRequest starts a run
type CreateRunRequest struct {
	Seed   *uint32  `json:"seed,omitempty"`
	Jokers []string `json:"jokers,omitempty"`
}

// ActionRequest selects cards from the hand by id
type ActionRequest struct {
	CardIDs []string `json:"card_ids"`
}

// BuyRequest picks a shop offer
type BuyRequest struct {
	Index int `json:"index"`
}

// RunResponse is a run's current state
type RunResponse struct {
	Run           run.State `json:"run"`
	EngineVersion string    `json:"engine_version"`
}

// PlayResponse is the outcome of a played hand
type PlayResponse struct {
	Result        run.PlayResult `json:"result"`
	Run           run.State      `json:"run"`
	EngineVersion string         `json:"engine_version"`
}

// DiscardResponse is the outcome of a discard
type DiscardResponse struct {
	Result        run.DiscardResult `json:"result"`
	Run           run.State         `json:"run"`
	EngineVersion string            `json:"engine_version"`
}

// BuyResponse is the outcome of a purchase
type BuyResponse struct {
	Joker         joker.Instance `json:"joker"`
	Run           run.State      `json:"run"`
	EngineVersion string         `json:"engine_version"`
}
