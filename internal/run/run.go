package run

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/MJE43/jokers-gambit/internal/cards"
	"github.com/MJE43/jokers-gambit/internal/deck"
	"github.com/MJE43/jokers-gambit/internal/engine"
	"github.com/MJE43/jokers-gambit/internal/hand"
	"github.com/MJE43/jokers-gambit/internal/joker"
	"github.com/MJE43/jokers-gambit/internal/scoring"
)

const (
	HandSize         = 8
	MaxSelection     = 5
	HandsPerRound    = 4
	DiscardsPerRound = 3
	StartingMoney    = 4
	MaxJokers        = 5
	MaxInterest      = 5
	ShopSize         = 3
)

var (
	ErrEmptySelection    = errors.New("no cards selected")
	ErrTooManyCards      = errors.New("too many cards selected")
	ErrCardNotInHand     = errors.New("card not in hand")
	ErrDuplicateCard     = errors.New("card selected twice")
	ErrNoHandsLeft       = errors.New("no hands remaining")
	ErrNoDiscardsLeft    = errors.New("no discards remaining")
	ErrGameOver          = errors.New("run is over")
	ErrWrongPhase        = errors.New("action not allowed in this phase")
	ErrInsufficientFunds = errors.New("not enough money")
	ErrJokerSlotsFull    = errors.New("joker slots full")
	ErrUnknownOffer      = errors.New("no such shop offer")
)

// Phase is where the run is in its round cycle.
type Phase string

const (
	PhasePlaying  Phase = "playing"
	PhaseShop     Phase = "shop"
	PhaseGameOver Phase = "game_over"
)

// Offer is a joker for sale in the shop.
type Offer struct {
	Joker joker.Instance `json:"joker"`
	Name  string         `json:"name"`
	Cost  int            `json:"cost"`
}

// State is the full, serialisable state of a run.
type State struct {
	ID                string           `json:"id"`
	Seed              uint32           `json:"seed"`
	Seeded            bool             `json:"seeded"`
	RNG               uint32           `json:"rng"`
	Phase             Phase            `json:"phase"`
	Deck              []cards.Card     `json:"deck"`
	Hand              []cards.Card     `json:"hand"`
	DiscardPile       []cards.Card     `json:"discard_pile"`
	Jokers            []joker.Instance `json:"jokers"`
	Money             int              `json:"money"`
	Ante              int              `json:"ante"`
	Round             int              `json:"round"`
	Blind             Blind            `json:"blind"`
	RoundScore        int              `json:"round_score"`
	HandsRemaining    int              `json:"hands_remaining"`
	DiscardsRemaining int              `json:"discards_remaining"`
	Shop              []Offer          `json:"shop,omitempty"`
	Actions           int              `json:"actions"`
}

func (s State) clone() State {
	out := s
	out.Deck = append([]cards.Card(nil), s.Deck...)
	out.Hand = append([]cards.Card(nil), s.Hand...)
	out.DiscardPile = append([]cards.Card(nil), s.DiscardPile...)
	out.Jokers = append([]joker.Instance(nil), s.Jokers...)
	out.Shop = append([]Offer(nil), s.Shop...)
	return out
}

// Snapshot is the read-only view handed to the scoring engine and joker effects.
func (s State) Snapshot() *joker.Snapshot {
	return &joker.Snapshot{
		Hand:              append([]cards.Card(nil), s.Hand...),
		Jokers:            append([]joker.Instance(nil), s.Jokers...),
		Money:             s.Money,
		Ante:              s.Ante,
		Round:             s.Round,
		TargetScore:       s.Blind.TargetScore,
		HandsRemaining:    s.HandsRemaining,
		DiscardsRemaining: s.DiscardsRemaining,
	}
}

// Payout itemises the money earned by clearing a blind.
type Payout struct {
	Reward   int `json:"reward"`
	Jokers   int `json:"jokers"`
	Interest int `json:"interest"`
	Total    int `json:"total"`
}

// PlayResult describes one played hand.
type PlayResult struct {
	Played     []cards.Card      `json:"played"`
	Hand       hand.Result       `json:"hand"`
	Breakdown  scoring.Breakdown `json:"breakdown"`
	Score      int               `json:"score"`
	RoundScore int               `json:"round_score"`
	Cleared    bool              `json:"cleared"`
	Payout     *Payout           `json:"payout,omitempty"`
	GameOver   bool              `json:"game_over"`
}

// DiscardResult describes one discard.
type DiscardResult struct {
	Discarded []cards.Card `json:"discarded"`
	Money     int          `json:"money"`
}

// Options configures a new run.
type Options struct {
	Seed   *uint32
	Jokers []string
	Money  *int
	Engine *scoring.Engine
	Logger *slog.Logger
}

// Run owns one run's state and applies player actions to it. Every action
// either commits completely or leaves the state untouched.
type Run struct {
	mu       sync.Mutex
	state    State
	engine   *scoring.Engine
	registry *joker.Registry
	logger   *slog.Logger
}

// New starts a run: shuffle, deal, ante 1 round 1.
func New(opts Options) *Run {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	eng := opts.Engine
	if eng == nil {
		eng = scoring.New(nil, logger)
	}

	st := State{
		ID:    uuid.New().String(),
		Money: StartingMoney,
		Ante:  1,
		Round: 1,
	}
	if opts.Seed != nil {
		st.Seed, st.Seeded = *opts.Seed, true
	} else {
		st.Seed = entropySeed()
	}
	if opts.Money != nil {
		st.Money = *opts.Money
	}
	for _, id := range opts.Jokers {
		st.Jokers = append(st.Jokers, joker.NewInstance(id))
	}

	rng := engine.NewMulberry32(st.Seed)
	st.startRound(rng)
	st.RNG = rng.State()

	logger.Info("run started", "run", st.ID, "seed", st.Seed, "seeded", st.Seeded, "target", st.Blind.TargetScore)
	return &Run{state: st, engine: eng, registry: eng.Registry(), logger: logger}
}

// Restore resumes a run from a saved state.
func Restore(st State, eng *scoring.Engine, logger *slog.Logger) *Run {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if eng == nil {
		eng = scoring.New(nil, logger)
	}
	return &Run{state: st.clone(), engine: eng, registry: eng.Registry(), logger: logger}
}

func entropySeed() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("run: crypto/rand unavailable: " + err.Error())
	}
	return binary.LittleEndian.Uint32(b[:])
}

// State returns a copy of the current state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone()
}

// startRound gathers every card, reshuffles, deals a fresh hand and resets
// the per-round counters for the current ante and round.
func (s *State) startRound(rng *engine.Mulberry32) {
	pile := make([]cards.Card, 0, deck.Size)
	pile = append(pile, s.Deck...)
	pile = append(pile, s.Hand...)
	pile = append(pile, s.DiscardPile...)
	if len(pile) == 0 {
		pile = deck.New()
	}

	shuffled := deck.Seeded(pile, rng.Next())
	s.Hand, s.Deck = deck.Draw(shuffled, HandSize)
	s.DiscardPile = nil
	s.Shop = nil
	s.Blind = BlindFor(s.Ante, s.Round)
	s.RoundScore = 0
	s.HandsRemaining = HandsPerRound
	s.DiscardsRemaining = DiscardsPerRound
	s.Phase = PhasePlaying
}

// OpeningHand deals the first hand a run seeded with seed would see from pile.
func OpeningHand(seed uint32, pile []cards.Card) (dealt, rest []cards.Card) {
	shuffled := deck.Seeded(pile, engine.NewMulberry32(seed).Next())
	return deck.Draw(shuffled, HandSize)
}

// selectCards validates ids against the hand and splits it into the
// selection (in the order given) and the cards kept.
func (s *State) selectCards(ids []string) (selected, kept []cards.Card, err error) {
	if len(ids) == 0 {
		return nil, nil, ErrEmptySelection
	}
	if len(ids) > MaxSelection {
		return nil, nil, fmt.Errorf("%w: %d > %d", ErrTooManyCards, len(ids), MaxSelection)
	}

	byID := make(map[string]cards.Card, len(s.Hand))
	for _, c := range s.Hand {
		byID[c.ID] = c
	}
	chosen := make(map[string]bool, len(ids))
	selected = make([]cards.Card, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrCardNotInHand, id)
		}
		if chosen[id] {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateCard, id)
		}
		chosen[id] = true
		selected = append(selected, c)
	}

	kept = make([]cards.Card, 0, len(s.Hand)-len(selected))
	for _, c := range s.Hand {
		if !chosen[c.ID] {
			kept = append(kept, c)
		}
	}
	return selected, kept, nil
}

// refill moves cards from the deck into kept until the hand is full.
func (s *State) refill(kept []cards.Card) {
	drawn, rest := deck.Draw(s.Deck, HandSize-len(kept))
	s.Hand = append(kept, drawn...)
	s.Deck = rest
}

func (s *State) requirePhase(p Phase) error {
	if s.Phase == p {
		return nil
	}
	if s.Phase == PhaseGameOver {
		return ErrGameOver
	}
	return fmt.Errorf("%w: %s", ErrWrongPhase, s.Phase)
}

// Play classifies and scores the selected cards, then moves them to the
// discard pile and refills the hand. Clearing the blind pays out and opens
// the shop; running out of hands ends the run.
func (r *Run) Play(ids []string) (PlayResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.state.requirePhase(PhasePlaying); err != nil {
		return PlayResult{}, err
	}
	if r.state.HandsRemaining <= 0 {
		return PlayResult{}, ErrNoHandsLeft
	}

	next := r.state.clone()
	played, kept, err := next.selectCards(ids)
	if err != nil {
		return PlayResult{}, err
	}

	result := hand.Classify(played)
	breakdown := r.engine.Trace(result, next.Snapshot())

	next.DiscardPile = append(next.DiscardPile, played...)
	next.refill(kept)
	next.HandsRemaining--
	next.RoundScore += breakdown.Score
	next.Actions++

	out := PlayResult{
		Played:     played,
		Hand:       result,
		Breakdown:  breakdown,
		Score:      breakdown.Score,
		RoundScore: next.RoundScore,
	}

	switch {
	case next.RoundScore >= next.Blind.TargetScore:
		p := r.payout(next)
		next.Money += p.Total
		rng := engine.NewMulberry32(next.RNG)
		next.Shop = r.rollShop(rng)
		next.RNG = rng.State()
		next.Phase = PhaseShop
		out.Cleared = true
		out.Payout = &p
	case next.HandsRemaining == 0:
		next.Phase = PhaseGameOver
		out.GameOver = true
	}

	r.state = next
	r.logger.Info("hand played",
		"run", next.ID, "category", result.Category, "score", out.Score,
		"round_score", next.RoundScore, "target", next.Blind.TargetScore, "cleared", out.Cleared)
	return out, nil
}

// payout computes the money for clearing the current blind. Interest is on
// money held before the reward.
func (r *Run) payout(s State) Payout {
	p := Payout{Reward: s.Blind.Reward, Interest: Interest(s.Money)}
	for _, inst := range s.Jokers {
		p.Jokers += r.registry.Lookup(inst.DefinitionID).Payout
	}
	p.Total = p.Reward + p.Jokers + p.Interest
	return p
}

// Discard throws away the selected cards and refills the hand. on_discard
// jokers see the discarded cards and may grant money.
func (r *Run) Discard(ids []string) (DiscardResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.state.requirePhase(PhasePlaying); err != nil {
		return DiscardResult{}, err
	}
	if r.state.DiscardsRemaining <= 0 {
		return DiscardResult{}, ErrNoDiscardsLeft
	}

	next := r.state.clone()
	discarded, kept, err := next.selectCards(ids)
	if err != nil {
		return DiscardResult{}, err
	}

	snap := next.Snapshot()
	ctx := joker.Context{Phase: joker.PhaseDiscard, Cards: discarded}
	money := 0
	for _, inst := range next.Jokers {
		def := r.registry.Lookup(inst.DefinitionID)
		if def.Trigger != joker.TriggerOnDiscard {
			continue
		}
		out := def.Apply(snap, ctx, inst)
		if out.IsZero() {
			continue
		}
		money += out.Money
	}

	next.DiscardPile = append(next.DiscardPile, discarded...)
	next.refill(kept)
	next.DiscardsRemaining--
	next.Money += money
	next.Actions++

	r.state = next
	r.logger.Info("cards discarded", "run", next.ID, "count", len(discarded), "money", money)
	return DiscardResult{Discarded: discarded, Money: money}, nil
}

// rollShop offers ShopSize random jokers.
func (r *Run) rollShop(rng *engine.Mulberry32) []Offer {
	offers := make([]Offer, 0, ShopSize)
	for i := 0; i < ShopSize; i++ {
		def := r.registry.Random(rng)
		offers = append(offers, Offer{
			Joker: joker.NewInstance(def.ID),
			Name:  def.Name,
			Cost:  def.Cost,
		})
	}
	return offers
}

// Buy purchases the shop offer at index.
func (r *Run) Buy(index int) (joker.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.state.requirePhase(PhaseShop); err != nil {
		return joker.Instance{}, err
	}
	if index < 0 || index >= len(r.state.Shop) {
		return joker.Instance{}, fmt.Errorf("%w: %d", ErrUnknownOffer, index)
	}
	offer := r.state.Shop[index]
	if r.state.Money < offer.Cost {
		return joker.Instance{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, offer.Cost, r.state.Money)
	}
	if len(r.state.Jokers) >= MaxJokers {
		return joker.Instance{}, ErrJokerSlotsFull
	}

	next := r.state.clone()
	next.Money -= offer.Cost
	next.Jokers = append(next.Jokers, offer.Joker)
	next.Shop = append(next.Shop[:index], next.Shop[index+1:]...)
	next.Actions++
	r.state = next

	r.logger.Info("joker bought", "run", next.ID, "joker", offer.Joker.DefinitionID, "cost", offer.Cost)
	return offer.Joker, nil
}

// NextRound leaves the shop and deals the next blind, moving to the next
// ante after the boss blind.
func (r *Run) NextRound() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.state.requirePhase(PhaseShop); err != nil {
		return err
	}

	next := r.state.clone()
	next.Round++
	if next.Round > RoundsPerAnte {
		next.Round = 1
		next.Ante++
	}
	rng := engine.NewMulberry32(next.RNG)
	next.startRound(rng)
	next.RNG = rng.State()
	next.Actions++
	r.state = next

	r.logger.Info("round started", "run", next.ID, "ante", next.Ante, "round", next.Round, "target", next.Blind.TargetScore)
	return nil
}
