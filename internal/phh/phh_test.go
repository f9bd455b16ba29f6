package phh_test

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/AkatukiSora/hh-replayer/internal/parser"
	"github.com/AkatukiSora/hh-replayer/internal/phh"
)

func parseFixture(t *testing.T, name string) *parser.Hand {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "parser", "testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	hands := parser.Parse(string(data))
	if len(hands) != 1 {
		t.Fatalf("fixture %s: got %d hands want 1", name, len(hands))
	}
	return hands[0]
}

func TestFromHandWinamax(t *testing.T) {
	hh := phh.FromHand(parseFixture(t, "winamax_tournament.txt"))

	if hh.Variant != "NT" || hh.HandID != "1234-1-1700000000" {
		t.Fatalf("variant/hand = %q/%q", hh.Variant, hh.HandID)
	}
	if !slices.Equal(hh.Players, []string{"Alice", "Bob", "Carol"}) {
		t.Fatalf("players = %v", hh.Players)
	}
	if !slices.Equal(hh.Seats, []int{1, 2, 3}) || hh.SeatCount != 3 {
		t.Fatalf("seats = %v count %d", hh.Seats, hh.SeatCount)
	}
	if !slices.Equal(hh.BlindsOrStraddles, []float64{0, 10, 20}) || hh.MinBet != 20 {
		t.Fatalf("blinds = %v min bet %v", hh.BlindsOrStraddles, hh.MinBet)
	}
	if !slices.Equal(hh.StartingStacks, []float64{1500, 1500, 1500}) {
		t.Fatalf("starting stacks = %v", hh.StartingStacks)
	}
	if !slices.Equal(hh.FinishingStacks, []float64{1500, 1860, 1140}) {
		t.Fatalf("finishing stacks = %v", hh.FinishingStacks)
	}
	if !slices.Equal(hh.Winnings, []float64{0, 720, 0}) {
		t.Fatalf("winnings = %v", hh.Winnings)
	}

	want := []string{
		"d dh p1 ????",
		"d dh p2 7c7s",
		"d dh p3 AhKd",
		"p1 f",
		"p2 cc",
		"p3 cc",
		"d db Ac7d2c",
		"p2 cc",
		"p3 cbr 40",
		"p2 cc",
		"d db 5s",
		"p2 cc",
		"p3 cc",
		"d db 9h",
		"p2 cbr 100",
		"p3 cbr 300",
		"p2 cc",
		"p3 sm AhKd",
		"p2 sm 7c7s",
	}
	if !slices.Equal(hh.Actions, want) {
		t.Fatalf("actions:\n got %q\nwant %q", hh.Actions, want)
	}

	if hh.Year != 2024 || hh.Month != 1 || hh.Day != 15 || hh.Time != "20:00:00" || hh.TimeZoneAbbrev != "UTC" {
		t.Fatalf("date fields = %d-%d-%d %s %s", hh.Year, hh.Month, hh.Day, hh.Time, hh.TimeZoneAbbrev)
	}
}

func TestFromHandPokerStarsCash(t *testing.T) {
	hh := phh.FromHand(parseFixture(t, "pokerstars_cash.txt"))

	if hh.HandID != "230000000001" {
		t.Fatalf("hand id = %q", hh.HandID)
	}
	if !slices.Equal(hh.Players, []string{"Hero", "Villain One", "Villain Two"}) {
		t.Fatalf("players = %v", hh.Players)
	}
	if !slices.Equal(hh.BlindsOrStraddles, []float64{0.02, 0, 0.01}) {
		t.Fatalf("blinds = %v", hh.BlindsOrStraddles)
	}
	if hh.Actions[0] != "d dh p1 QsQh" || hh.Actions[1] != "d dh p2 ????" {
		t.Fatalf("deal actions = %v", hh.Actions[:3])
	}
	if !slices.Contains(hh.Actions, "p2 cbr 0.06") || !slices.Contains(hh.Actions, "p1 cbr 0.18") {
		t.Fatalf("raise actions missing: %v", hh.Actions)
	}
	if hh.Metadata["stakes"] != "$0.01/$0.02 USD" {
		t.Fatalf("metadata = %v", hh.Metadata)
	}
}

func TestFormatActionSkipsUnknownPlayers(t *testing.T) {
	index := map[string]int{"Alice": 1}
	tests := []struct {
		name string
		ev   parser.Event
		want string
		ok   bool
	}{
		{"fold", parser.Event{Kind: parser.EventPlayerAction, Player: "Alice", ActionType: parser.ActionFold}, "p1 f", true},
		{"check", parser.Event{Kind: parser.EventPlayerAction, Player: "Alice", ActionType: parser.ActionCheck}, "p1 cc", true},
		{"bet", parser.Event{Kind: parser.EventPlayerAction, Player: "Alice", ActionType: parser.ActionBet, BetAmount: 2.5}, "p1 cbr 2.5", true},
		{"zero bet", parser.Event{Kind: parser.EventPlayerAction, Player: "Alice", ActionType: parser.ActionBet}, "", false},
		{"unknown player", parser.Event{Kind: parser.EventPlayerAction, Player: "Zed", ActionType: parser.ActionFold}, "", false},
		{"win", parser.Event{Kind: parser.EventWinCollected, Player: "Alice", Amount: 10}, "", false},
		{"showdown marker", parser.Event{Kind: parser.EventStreetMarker, Text: "Showdown"}, "", false},
	}
	for _, tt := range tests {
		got, ok := phh.FormatAction(tt.ev, index)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("%s: got %q,%v want %q,%v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	hh := phh.FromHand(parseFixture(t, "winamax_tournament.txt"))

	var buf bytes.Buffer
	if err := phh.Encode(&buf, hh); err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := buf.String()
	if !strings.Contains(text, `variant = "NT"`) || !strings.Contains(text, `hand = "1234-1-1700000000"`) {
		t.Fatalf("unexpected encoding:\n%s", text)
	}

	var decoded phh.HandHistory
	if _, err := toml.Decode(text, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !slices.Equal(decoded.Actions, hh.Actions) || !slices.Equal(decoded.FinishingStacks, hh.FinishingStacks) {
		t.Fatalf("decoded record differs: %+v", decoded)
	}

	if err := phh.Encode(&bytes.Buffer{}, nil); err == nil {
		t.Fatalf("expected error for nil hand")
	}
}

func TestEncodeAllNumbersHands(t *testing.T) {
	hands := []*phh.HandHistory{
		phh.FromHand(parseFixture(t, "winamax_tournament.txt")),
		phh.FromHand(parseFixture(t, "pokerstars_cash.txt")),
	}

	var buf bytes.Buffer
	if err := phh.EncodeAll(&buf, hands); err != nil {
		t.Fatalf("encode all: %v", err)
	}

	var decoded map[string]phh.HandHistory
	if _, err := toml.Decode(buf.String(), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if len(decoded) != 2 || decoded["1"].HandID != "1234-1-1700000000" || decoded["2"].HandID != "230000000001" {
		t.Fatalf("decoded tables = %+v", decoded)
	}
}
