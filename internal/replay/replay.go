// Package replay reconstructs the state of a poker table at any point of a
// parsed hand. Every call replays the hand from its first event; nothing is
// cached between calls.
package replay

import (
	"maps"
	"slices"

	"github.com/AkatukiSora/hh-replayer/internal/parser"
)

// NoCursor selects the empty state, as if no hand were loaded.
const NoCursor = -1

// PlayerState is the per-player view of a TableState.
type PlayerState struct {
	Folded            bool
	HasHoleCards      bool
	IsShowingCards    bool
	CurrentStreetBet  float64
	HasChecked        bool // only for a check exactly at the cursor
	CurrentChips      float64
	IsAllIn           bool
	ShouldRevealCards bool
	IsActive          bool
	IsWinner          bool
}

// TableState is the table as it stands after the event at Cursor.
type TableState struct {
	Cursor       int
	Street       parser.Street
	VisibleBoard []parser.Card
	TotalPot     float64
	CenterPot    float64
	BigBlind     float64
	Showdown     bool
	Winner       string

	empty   bool
	dealt   bool
	folded  map[string]bool
	showing map[string]bool
	checks  map[string]bool
	bets    map[string]float64
	chips   map[string]float64
}

// Empty reports whether s is the state of no hand at all.
func (s *TableState) Empty() bool { return s.empty }

// Player projects the accumulated state onto one player.
func (s *TableState) Player(p parser.Player) PlayerState {
	hasCards := p.HoleCards != nil
	if s.empty {
		return PlayerState{
			HasHoleCards:      hasCards,
			CurrentChips:      p.StartingChips,
			ShouldRevealCards: hasCards,
		}
	}

	folded := s.folded[p.Name]
	showing := s.showing[p.Name]
	chips, ok := s.chips[p.Name]
	if !ok {
		chips = p.StartingChips
	}
	return PlayerState{
		Folded:            folded,
		HasHoleCards:      hasCards,
		IsShowingCards:    showing,
		CurrentStreetBet:  s.bets[p.Name],
		HasChecked:        s.checks[p.Name],
		CurrentChips:      chips,
		IsAllIn:           chips == 0 && !folded,
		ShouldRevealCards: (p.IsHero && hasCards) || showing,
		IsActive:          s.dealt && !folded,
		IsWinner:          s.Winner != "" && s.Winner == p.Name,
	}
}

// PendingBets returns the sum of the bets still in front of the players.
func (s *TableState) PendingBets() float64 {
	return sumBets(s.bets)
}

func emptyState() *TableState {
	return &TableState{
		Cursor:   NoCursor,
		BigBlind: 1,
		empty:    true,
	}
}

// Compute replays h from its first event through cursor. A nil hand or a
// negative cursor yields the empty state; a cursor past the last event is
// clamped to it.
func Compute(h *parser.Hand, cursor int) *TableState {
	if h == nil || cursor < 0 {
		return emptyState()
	}
	if last := len(h.Events) - 1; cursor > last {
		cursor = last
	}

	r := newReplayer(h, cursor)
	for i := 0; i <= cursor; i++ {
		r.apply(h.Events[i], i)
	}
	return r.finish()
}

// replayer holds the accumulators of a single Compute call.
type replayer struct {
	hand   *parser.Hand
	cursor int

	board    []parser.Card
	pot      float64
	center   float64
	street   parser.Street
	showdown bool
	dealt    bool
	winner   string

	folded  map[string]bool
	showing map[string]bool
	checks  map[string]bool
	bets    map[string]float64
	chips   map[string]float64
}

func newReplayer(h *parser.Hand, cursor int) *replayer {
	r := &replayer{
		hand:    h,
		cursor:  cursor,
		street:  parser.StreetPreFlop,
		folded:  make(map[string]bool),
		showing: make(map[string]bool),
		checks:  make(map[string]bool),
		bets:    make(map[string]float64),
		chips:   make(map[string]float64, len(h.Players)),
	}
	for _, p := range h.Players {
		r.chips[p.Name] = p.StartingChips
	}
	for name, ante := range h.Antes {
		r.chips[name] = floor0(r.chips[name] - ante)
	}
	for name, blind := range h.Blinds {
		r.bets[name] = blind
		r.chips[name] = floor0(r.chips[name] - blind)
	}
	return r
}

func (r *replayer) apply(e parser.Event, i int) {
	atCursor := i == r.cursor

	if e.Kind == parser.EventStreetMarker {
		r.changeStreet(e.Street)
	}
	if e.Kind == parser.EventCardsDealt {
		r.dealt = true
	}
	if e.Kind == parser.EventCardsShown && e.Player != "" {
		r.showing[e.Player] = true
	}
	if e.ActionType == parser.ActionFold && e.Player != "" {
		r.folded[e.Player] = true
	}

	if e.Kind == parser.EventWinCollected && e.Player != "" && e.Amount != 0 {
		r.chips[e.Player] += e.Amount
		r.winner = e.Player
		if atCursor {
			r.sweep()
		}
	}

	if e.Kind == parser.EventPlayerAction && e.Player != "" {
		r.playerAction(e, atCursor)
	}

	if e.Kind == parser.EventStreetMarker && len(e.Cards) > 0 {
		room := 5 - len(r.board)
		cards := e.Cards
		if len(cards) > room {
			cards = cards[:max(room, 0)]
		}
		r.board = append(r.board, cards...)
	}

	// The recorded pot overrides a sweep at the same event.
	if atCursor {
		r.pot = e.PotAfter
	}
}

func (r *replayer) changeStreet(street parser.Street) {
	if street != parser.StreetPreFlop && street != r.street {
		r.center += sumBets(r.bets)
		for name := range r.bets {
			r.bets[name] = 0
		}
	}
	r.street = street
	if street == parser.StreetShowdown {
		r.showdown = true
	}
}

func (r *replayer) sweep() {
	r.pot = 0
	r.center = 0
	for name := range r.bets {
		r.bets[name] = 0
	}
}

func (r *replayer) playerAction(e parser.Event, atCursor bool) {
	if atCursor {
		clear(r.checks)
	}

	switch e.ActionType {
	case parser.ActionCall, parser.ActionBet, parser.ActionRaise:
		amount := e.BetAmount
		if amount == 0 {
			amount = parser.ExtractBetAmount(e.ActionType, e.Text)
		}
		if amount <= 0 {
			return
		}
		prev := r.bets[e.Player]
		var added float64
		if e.ActionType == parser.ActionCall {
			r.bets[e.Player] = prev + amount
			added = amount
		} else {
			r.bets[e.Player] = amount
			added = amount - prev
		}
		r.chips[e.Player] = floor0(r.chips[e.Player] - added)
	case parser.ActionCheck:
		if atCursor {
			r.checks[e.Player] = true
		}
	}
}

func (r *replayer) finish() *TableState {
	// The running center total only matters while streets fold in; the
	// final value is whatever part of the pot is not in front of a player.
	r.center = floor0(r.pot - sumBets(r.bets))

	return &TableState{
		Cursor:       r.cursor,
		Street:       r.street,
		VisibleBoard: r.board,
		TotalPot:     r.pot,
		CenterPot:    r.center,
		BigBlind:     BigBlind(r.hand),
		Showdown:     r.showdown,
		Winner:       r.winner,
		dealt:        r.dealt,
		folded:       r.folded,
		showing:      r.showing,
		checks:       r.checks,
		bets:         r.bets,
		chips:        r.chips,
	}
}

// BigBlind is the largest posted blind of h, or 1 when nobody posted one.
func BigBlind(h *parser.Hand) float64 {
	bb := 0.0
	for _, v := range h.Blinds {
		if v > bb {
			bb = v
		}
	}
	if bb == 0 {
		return 1
	}
	return bb
}

// sumBets adds bets in name order so float rounding does not depend on map
// iteration order.
func sumBets(bets map[string]float64) float64 {
	var total float64
	for _, name := range slices.Sorted(maps.Keys(bets)) {
		total += bets[name]
	}
	return total
}

func floor0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
