package parser

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseWinamaxTournament(t *testing.T) {
	hands := Parse(loadFixture(t, "winamax_tournament.txt"))
	if len(hands) != 1 {
		t.Fatalf("expected 1 hand, got %d", len(hands))
	}
	h := hands[0]

	if h.ID != 0 {
		t.Errorf("ID: got %d, want 0", h.ID)
	}
	if !strings.Contains(h.HandNumber, "HandId: #1234-1-1700000000") {
		t.Errorf("HandNumber: got %q", h.HandNumber)
	}
	if h.Stakes != "0.90€ + 0.10€" {
		t.Errorf("Stakes: got %q", h.Stakes)
	}
	if h.Date != "2024/01/15 20:00:00 UTC" {
		t.Errorf("Date: got %q", h.Date)
	}
	if !strings.HasPrefix(h.TableInfo, "Table: 'Freeroll(123)#001'") {
		t.Errorf("TableInfo: got %q", h.TableInfo)
	}

	wantOrder := []string{"Carol", "Alice", "Bob"}
	if len(h.Players) != len(wantOrder) {
		t.Fatalf("expected %d players, got %d", len(wantOrder), len(h.Players))
	}
	for i, name := range wantOrder {
		if h.Players[i].Name != name {
			t.Errorf("player %d: got %s, want %s", i, h.Players[i].Name, name)
		}
	}

	carol := h.Player("Carol")
	if !carol.IsHero || !reflect.DeepEqual(carol.HoleCards, []Card{"Ah", "Kd"}) {
		t.Errorf("Carol: hero=%v cards=%v", carol.IsHero, carol.HoleCards)
	}
	alice := h.Player("Alice")
	if !alice.IsDealer {
		t.Error("Alice should hold the button")
	}
	if alice.Bounty != "0.45€ bounty" || alice.StartingChips != 1500 {
		t.Errorf("Alice: chips=%v bounty=%q", alice.StartingChips, alice.Bounty)
	}
	if alice.HoleCards != nil {
		t.Errorf("Alice cards should stay unknown, got %v", alice.HoleCards)
	}
	bob := h.Player("Bob")
	if !reflect.DeepEqual(bob.HoleCards, []Card{"7c", "7s"}) {
		t.Errorf("Bob cards: got %v", bob.HoleCards)
	}

	if len(h.Events) != 19 {
		t.Fatalf("expected 19 events, got %d", len(h.Events))
	}
	if !reflect.DeepEqual(h.Board, []Card{"Ac", "7d", "2c", "5s", "9h"}) {
		t.Errorf("Board: got %v", h.Board)
	}
	if h.TotalPot != 720 {
		t.Errorf("TotalPot: got %v", h.TotalPot)
	}
	if h.Blinds["Bob"] != 10 || h.Blinds["Carol"] != 20 {
		t.Errorf("Blinds: got %v", h.Blinds)
	}
	if h.Winnings["Bob"] != 720 || len(h.Winnings) != 1 {
		t.Errorf("Winnings: got %v", h.Winnings)
	}
	if h.Antes != nil {
		t.Errorf("Antes should be nil, got %v", h.Antes)
	}

	wantPots := map[int]float64{0: 30, 2: 40, 4: 40, 6: 80, 7: 120, 11: 120, 12: 220, 13: 520, 14: 720, 18: 720}
	for idx, want := range wantPots {
		if got := h.Events[idx].PotAfter; got != want {
			t.Errorf("event %d PotAfter: got %v, want %v", idx, got, want)
		}
	}

	raise := h.Events[13]
	if raise.ActionType != ActionRaise || raise.BetAmount != 300 || raise.Text != "Relance à 300" {
		t.Errorf("raise event: %+v", raise)
	}
	flop := h.Events[4]
	if flop.Kind != EventStreetMarker || flop.Street != StreetFlop || flop.Text != "Flop: Ac 7d 2c" {
		t.Errorf("flop event: %+v", flop)
	}
	show := h.Events[16]
	if show.Kind != EventCardsShown || show.Text != "Montre Ah Kd (One pair : Aces)" {
		t.Errorf("show event: %+v", show)
	}
	win := h.Events[18]
	if win.Kind != EventWinCollected || win.Player != "Bob" || win.Amount != 720 || win.Text != "Remporte 720" {
		t.Errorf("win event: %+v", win)
	}
}

func TestParsePokerStarsCash(t *testing.T) {
	hands := Parse(loadFixture(t, "pokerstars_cash.txt"))
	if len(hands) != 1 {
		t.Fatalf("expected 1 hand, got %d", len(hands))
	}
	h := hands[0]

	if h.Stakes != "$0.01/$0.02 USD" {
		t.Errorf("Stakes: got %q", h.Stakes)
	}
	if h.Date != "2024/02/01 18:30:00 ET" {
		t.Errorf("Date: got %q", h.Date)
	}
	if len(h.Players) != 3 || h.Players[0].Name != "Hero" {
		t.Fatalf("unexpected players: %+v", h.Players)
	}
	if !h.Player("Villain One").IsDealer {
		t.Error("Villain One should hold the button")
	}
	if !almostEqual(h.Player("Villain Two").StartingChips, 3.10) {
		t.Errorf("Villain Two chips: got %v", h.Player("Villain Two").StartingChips)
	}
	if len(h.Events) != 9 {
		t.Fatalf("expected 9 events, got %d", len(h.Events))
	}
	if e := h.Events[1]; e.Player != "Villain One" || e.ActionType != ActionRaise || !almostEqual(e.BetAmount, 0.06) {
		t.Errorf("first raise: %+v", e)
	}
	if !almostEqual(h.Events[7].PotAfter, 0.59) {
		t.Errorf("pot after the flop fold: got %v", h.Events[7].PotAfter)
	}
	if !almostEqual(h.TotalPot, 0.39) {
		t.Errorf("TotalPot: got %v", h.TotalPot)
	}
	if !almostEqual(h.Winnings["Hero"], 0.37) {
		t.Errorf("Winnings: got %v", h.Winnings)
	}
	for _, e := range h.Events {
		if strings.Contains(e.Text, "Uncalled") {
			t.Errorf("uncalled bet line should be ignored, got event %+v", e)
		}
	}
}

func TestSeatAndButton(t *testing.T) {
	hands := Parse("Seat 1: Alice (1500)\nSeat 2: Bob (1500)\nSeat #1 is the button\n")
	if len(hands) != 1 {
		t.Fatalf("expected 1 hand, got %d", len(hands))
	}
	alice := hands[0].Player("Alice")
	if alice == nil {
		t.Fatal("Alice not parsed")
	}
	if alice.Seat != 1 || alice.StartingChips != 1500 || !alice.IsDealer {
		t.Errorf("Alice: %+v", *alice)
	}
	if hands[0].Player("Bob").IsDealer {
		t.Error("Bob should not be dealer")
	}
}

func TestRaiseToAmountAddedToPot(t *testing.T) {
	const text = `Seat 1: Alice (1000)
Seat 2: Bob (1000)
Alice posts small blind 10
Bob posts big blind 20
Bob raises to 100`
	hands := Parse(text)
	if len(hands) != 1 || len(hands[0].Events) != 1 {
		t.Fatalf("unexpected parse result: %+v", hands)
	}
	e := hands[0].Events[0]
	if e.ActionType != ActionRaise || e.BetAmount != 100 || e.PotAfter != 130 {
		t.Errorf("raise event: %+v", e)
	}
}

// The pot grows by the full raise-to total of every raise, even when the
// raiser already had chips in front. Stored hands depend on this arithmetic.
func TestReRaisePotArithmeticPinned(t *testing.T) {
	const text = `Seat 1: Alice (1000)
Seat 2: Bob (1000)
Alice posts small blind 10
Bob posts big blind 20
Alice raises 20 to 40
Bob raises 60 to 100
Alice calls 60`
	h := Parse(text)[0]
	wantPots := []float64{70, 170, 230}
	for i, want := range wantPots {
		if got := h.Events[i].PotAfter; got != want {
			t.Errorf("event %d PotAfter: got %v, want %v", i, got, want)
		}
	}
}

func TestGarbageBlocksDropped(t *testing.T) {
	for _, text := range []string{
		"",
		"\n\n\n",
		"Welcome to the poker room!\nHave fun.",
		"*****\n\n*****",
	} {
		if hands := Parse(text); len(hands) != 0 {
			t.Errorf("Parse(%q): expected no hands, got %d", text, len(hands))
		}
	}
}

func TestMultipleHandsAndIDs(t *testing.T) {
	winamax := loadFixture(t, "winamax_tournament.txt")
	stars := loadFixture(t, "pokerstars_cash.txt")
	text := winamax + "\n\nsome banner text\n\n" + stars

	hands := Parse(text)
	if len(hands) != 2 {
		t.Fatalf("expected 2 hands, got %d", len(hands))
	}
	// The dropped banner block still consumes id 1.
	if hands[0].ID != 0 || hands[1].ID != 2 {
		t.Errorf("ids: got %d, %d", hands[0].ID, hands[1].ID)
	}

	p := NewParser()
	first := p.Parse(winamax)
	second := p.Parse(stars)
	if first[0].ID != 0 || second[0].ID != 1 {
		t.Errorf("ids across calls: got %d, %d", first[0].ID, second[0].ID)
	}
}

func TestAsteriskSeparatorAndCRLF(t *testing.T) {
	text := strings.ReplaceAll(loadFixture(t, "pokerstars_cash.txt"), "\n", "\r\n")
	hands := Parse(text + "\r\n*****\r\n" + text)
	if len(hands) != 2 {
		t.Fatalf("expected 2 hands, got %d", len(hands))
	}
	if len(hands[1].Events) != 9 {
		t.Errorf("second hand events: got %d", len(hands[1].Events))
	}
}

func TestParseIsIdempotent(t *testing.T) {
	text := loadFixture(t, "winamax_tournament.txt") + "\n\n" + loadFixture(t, "pokerstars_cash.txt")
	if !reflect.DeepEqual(Parse(text), Parse(text)) {
		t.Error("two parses of the same text differ")
	}
}

func TestParsedHandInvariants(t *testing.T) {
	text := loadFixture(t, "winamax_tournament.txt") + "\n\n" + loadFixture(t, "pokerstars_cash.txt")
	for _, h := range Parse(text) {
		heroes := 0
		dealt := false
		for _, p := range h.Players {
			if p.IsHero {
				heroes++
			}
		}
		lastPot := -1.0
		for i, e := range h.Events {
			if e.Index != i {
				t.Errorf("hand %d: event %d has index %d", h.ID, i, e.Index)
			}
			if e.Kind == EventCardsDealt {
				dealt = true
			}
			if e.Kind == EventStreetMarker {
				lastPot = e.PotAfter
				continue
			}
			if e.PotAfter < lastPot {
				t.Errorf("hand %d: pot decreased at event %d", h.ID, i)
			}
			lastPot = e.PotAfter
		}
		if heroes > 1 || (dealt && heroes != 1) {
			t.Errorf("hand %d: %d heroes", h.ID, heroes)
		}
		if len(h.Board) > 5 {
			t.Errorf("hand %d: board has %d cards", h.ID, len(h.Board))
		}
	}
}

func TestHeroRotation(t *testing.T) {
	const text = `Seat 5: Eve (100)
Seat 1: Ann (100)
Seat 3: Cid (100)
Dealt to Cid [Th 9h]`
	h := Parse(text)[0]
	got := []string{h.Players[0].Name, h.Players[1].Name, h.Players[2].Name}
	want := []string{"Cid", "Eve", "Ann"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order: got %v, want %v", got, want)
	}
}

func TestNoHeroKeepsInsertionOrder(t *testing.T) {
	h := Parse("Seat 5: Eve (100)\nSeat 1: Ann (100)")[0]
	if h.Players[0].Name != "Eve" || h.Players[1].Name != "Ann" {
		t.Errorf("order changed: %+v", h.Players)
	}
	if h.Hero() != nil {
		t.Error("no hero expected")
	}
}

func TestAntesAndBlindPostings(t *testing.T) {
	const text = `Seat 1: Ann (1000)
Seat 2: Ben (1000)
Ann: posts the ante 5
Ben posts ante 5
Ann posts small blind 10
Ben posts big blind 20
Ben posts small blind 10`
	h := Parse(text)[0]
	if h.Antes["Ann"] != 5 || h.Antes["Ben"] != 5 {
		t.Errorf("Antes: got %v", h.Antes)
	}
	if h.Blinds["Ben"] != 10 {
		t.Errorf("Blinds keep the last posting: got %v", h.Blinds["Ben"])
	}
	if h.BlindPostings["Ben"] != 30 {
		t.Errorf("BlindPostings sum: got %v", h.BlindPostings["Ben"])
	}
	if len(h.Events) != 0 {
		t.Errorf("antes and blinds emit no events, got %d", len(h.Events))
	}
}

func TestSummaryLinesNotDoubleCounted(t *testing.T) {
	const text = `Seat 1: Ann (1000)
Seat 2: Ben (1000)
Ann bets 50
Ben folds
Ann collected 50 from pot
*** SUMMARY ***
Total pot 50
Total pot 999
Seat 1: Ann collected (50)
Seat 2: Ben folds
Seat 2: Ben (big blind) showed [Kh Kc] and lost
Seat 1: Ann (small blind) showed [Ah Ad]`
	h := Parse(text)[0]
	if len(h.Events) != 3 {
		t.Errorf("expected 3 events, got %d", len(h.Events))
	}
	if h.Winnings["Ann"] != 50 {
		t.Errorf("Winnings: got %v", h.Winnings)
	}
	if h.TotalPot != 50 {
		t.Errorf("first Total pot line wins: got %v", h.TotalPot)
	}
	if h.Player("Ben").HoleCards != nil {
		t.Errorf("summary line with an action keyword revealed cards: %v", h.Player("Ben").HoleCards)
	}
	if !reflect.DeepEqual(h.Player("Ann").HoleCards, []Card{"Ah", "Ad"}) {
		t.Errorf("plain summary show should reveal cards, got %v", h.Player("Ann").HoleCards)
	}
}

func TestParseReader(t *testing.T) {
	hands, err := ParseReader(strings.NewReader(loadFixture(t, "pokerstars_cash.txt")))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(hands) != 1 {
		t.Fatalf("expected 1 hand, got %d", len(hands))
	}
}

func TestCloneHandIsIndependent(t *testing.T) {
	h := Parse(loadFixture(t, "winamax_tournament.txt"))[0]
	c := CloneHand(h)
	if !reflect.DeepEqual(h, c) {
		t.Fatal("clone differs from original")
	}
	c.Players[0].HoleCards[0] = "2c"
	c.Events[4].Cards[0] = "2c"
	c.Winnings["Bob"] = 0
	c.Board[0] = "2c"
	if h.Players[0].HoleCards[0] != "Ah" || h.Events[4].Cards[0] != "Ac" || h.Winnings["Bob"] != 720 || h.Board[0] != "Ac" {
		t.Error("mutating the clone changed the original")
	}
}

func TestCompleteBlocksEnd(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"partial hand", "Hand #1\nSeat 1: A (100)\n", 0},
		{"one complete", "Hand #1\n\nHand #2\nSeat", 9},
		{"crlf blank line", "Hand #1\r\n\r\nHand #2", 11},
		{"asterisks", "Hand #1\n*****\nHand #2", 13},
		{"trailing separator", "Hand #1\n\n", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompleteBlocksEnd(tt.text); got != tt.want {
				t.Fatalf("CompleteBlocksEnd(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}
