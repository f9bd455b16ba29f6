package parser

import (
	"fmt"
	"strings"
)

// Card is a two-character card value such as "Ah" or "Td".
type Card string

var rankAliases = map[string]string{
	"a":  "A",
	"k":  "K",
	"q":  "Q",
	"j":  "J",
	"t":  "T",
	"10": "T",
	"9":  "9",
	"8":  "8",
	"7":  "7",
	"6":  "6",
	"5":  "5",
	"4":  "4",
	"3":  "3",
	"2":  "2",
}

// NormalizeCard converts loose card notation ("10h", "ah", "KD") into the
// canonical rank+suit form. Unknown ranks are kept upper-cased.
func NormalizeCard(s string) Card {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card(s)
	}
	lowered := strings.ToLower(s)
	suit := lowered[len(lowered)-1:]
	rank, ok := rankAliases[lowered[:len(lowered)-1]]
	if !ok {
		rank = strings.ToUpper(lowered[:len(lowered)-1])
	}
	return Card(rank + suit)
}

// Rank returns the rank character ("A", "T", "2", ...).
func (c Card) Rank() string {
	if len(c) < 2 {
		return ""
	}
	return string(c[:len(c)-1])
}

// Suit returns the suit character ("h", "d", "c", "s").
func (c Card) Suit() string {
	if len(c) < 2 {
		return ""
	}
	return string(c[len(c)-1:])
}

// Valid reports whether c is a well-formed card.
func (c Card) Valid() bool {
	if len(c) != 2 {
		return false
	}
	return strings.Contains("23456789TJQKA", c.Rank()) && strings.Contains("hdcs", c.Suit())
}

func (c Card) String() string { return string(c) }

// Street represents the betting round
type Street int

const (
	StreetPreFlop Street = iota
	StreetFlop
	StreetTurn
	StreetRiver
	StreetShowdown
)

var streetNames = []string{"preflop", "flop", "turn", "river", "showdown"}

func (s Street) String() string {
	if s < 0 || int(s) >= len(streetNames) {
		return "unknown"
	}
	return streetNames[s]
}

func (s Street) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Street) UnmarshalText(b []byte) error {
	v, err := lookupName(streetNames, string(b), "street")
	if err != nil {
		return err
	}
	*s = Street(v)
	return nil
}

// EventKind tags what an Event records.
type EventKind int

const (
	EventStreetMarker EventKind = iota
	EventPlayerAction
	EventCardsDealt
	EventCardsShown
	EventWinCollected
)

var eventKindNames = []string{"streetMarker", "playerAction", "cardsDealt", "cardsShown", "winCollected"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return "unknown"
	}
	return eventKindNames[k]
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	v, err := lookupName(eventKindNames, string(b), "event kind")
	if err != nil {
		return err
	}
	*k = EventKind(v)
	return nil
}

// ActionType represents a player action. ActionNone is used by events that
// are not player actions.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionFold
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
)

var actionTypeNames = []string{"", "fold", "check", "call", "bet", "raise"}

func (a ActionType) String() string {
	if a < 0 || int(a) >= len(actionTypeNames) {
		return "unknown"
	}
	return actionTypeNames[a]
}

func (a ActionType) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *ActionType) UnmarshalText(b []byte) error {
	v, err := lookupName(actionTypeNames, string(b), "action type")
	if err != nil {
		return err
	}
	*a = ActionType(v)
	return nil
}

// IsBetting reports whether the action puts chips in front of the player.
func (a ActionType) IsBetting() bool {
	return a == ActionCall || a == ActionBet || a == ActionRaise
}

// actionTypeFromVerb maps the verb used in hand histories ("folds", "raises")
// to an ActionType.
func actionTypeFromVerb(verb string) ActionType {
	switch strings.ToLower(verb) {
	case "folds":
		return ActionFold
	case "checks":
		return ActionCheck
	case "calls":
		return ActionCall
	case "bets":
		return ActionBet
	case "raises":
		return ActionRaise
	default:
		return ActionNone
	}
}

func lookupName(names []string, s, what string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, s)
}

// Player is one seated player of a hand.
type Player struct {
	Seat          int     `json:"seat"`
	Name          string  `json:"name"`
	StartingChips float64 `json:"startingChips"`
	Bounty        string  `json:"bounty,omitempty"`
	HoleCards     []Card  `json:"holeCards"` // nil until revealed
	IsDealer      bool    `json:"isDealer"`
	IsHero        bool    `json:"isHero"`
}

// Event is one entry of a hand's chronological log.
type Event struct {
	Index      int        `json:"index"`
	Street     Street     `json:"street"`
	Kind       EventKind  `json:"kind"`
	Player     string     `json:"player,omitempty"`
	Text       string     `json:"text"`
	ActionType ActionType `json:"actionType,omitempty"`
	PotAfter   float64    `json:"potAfter"`
	Amount     float64    `json:"amount,omitempty"`
	BetAmount  float64    `json:"betAmount,omitempty"`
	Cards      []Card     `json:"cards,omitempty"`
}

// Hand is a fully parsed hand. It is not modified after Parse returns it.
type Hand struct {
	ID         int    `json:"id"`
	HandNumber string `json:"handNumber"`
	Date       string `json:"date"`
	Stakes     string `json:"stakes"`
	TableInfo  string `json:"tableInfo"`

	Players []Player `json:"players"` // hero first, then table order
	Events  []Event  `json:"events"`
	Board   []Card   `json:"board"`

	TotalPot float64            `json:"totalPot"`
	Blinds   map[string]float64 `json:"blinds"`
	Winnings map[string]float64 `json:"winnings"`

	// Antes and BlindPostings stay nil when the hand has none.
	Antes         map[string]float64 `json:"antes,omitempty"`
	BlindPostings map[string]float64 `json:"blindPostings,omitempty"`
}

// Player returns the player with the given name, or nil.
func (h *Hand) Player(name string) *Player {
	if h == nil {
		return nil
	}
	for i := range h.Players {
		if h.Players[i].Name == name {
			return &h.Players[i]
		}
	}
	return nil
}

// Hero returns the hero, or nil if no hole cards were dealt to anyone.
func (h *Hand) Hero() *Player {
	if h == nil {
		return nil
	}
	for i := range h.Players {
		if h.Players[i].IsHero {
			return &h.Players[i]
		}
	}
	return nil
}

func (h *Hand) playerBySeat(seat int) *Player {
	for i := range h.Players {
		if h.Players[i].Seat == seat {
			return &h.Players[i]
		}
	}
	return nil
}
