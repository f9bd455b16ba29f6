package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/AkatukiSora/hh-replayer/internal/format"
	"github.com/AkatukiSora/hh-replayer/internal/parser"
	"github.com/AkatukiSora/hh-replayer/internal/replay"
)

func winamaxHand(t *testing.T) *parser.Hand {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "parser", "testdata", "winamax_tournament.txt"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	hands := parser.Parse(string(data))
	if len(hands) != 1 {
		t.Fatalf("got %d hands want 1", len(hands))
	}
	return hands[0]
}

func plainOptions(showInBB bool) Options {
	return Writer(&bytes.Buffer{}, showInBB, format.New(language.English))
}

func lineFor(t *testing.T, out, name string) string {
	t.Helper()
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, name) {
			return l
		}
	}
	t.Fatalf("no line for %s in:\n%s", name, out)
	return ""
}

func expectContains(t *testing.T, s string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(s, w) {
			t.Errorf("missing %q in:\n%s", w, s)
		}
	}
}

func TestTableViewOnRiverRaise(t *testing.T) {
	h := winamaxHand(t)
	out := TableView(h, replay.Compute(h, 13), plainOptions(false))

	expectContains(t, out, "River", "A♣ 7♦ 2♣ 5♠ 9♥", "Pot 520  Centre 120", "Carol: Relance à 300")
	expectContains(t, lineFor(t, out, "Carol"), "1,140", "bet 300", "[A♥ K♦]")
	expectContains(t, lineFor(t, out, "Bob"), "1,340", "[?? ??]", "· Mise 100")

	alice := lineFor(t, out, "Alice")
	if !strings.HasPrefix(alice, "D") {
		t.Errorf("dealer marker missing: %q", alice)
	}
	expectContains(t, alice, "(folded)", "· Se couche")
	if strings.Contains(alice, "??") {
		t.Errorf("folded player shows hidden cards: %q", alice)
	}
}

func TestTableViewInBigBlinds(t *testing.T) {
	h := winamaxHand(t)
	out := TableView(h, replay.Compute(h, 13), plainOptions(true))

	expectContains(t, lineFor(t, out, "Carol"), "57BB")
	expectContains(t, out, "Pot 26BB")
}

func TestTableViewWinnerAndShowdown(t *testing.T) {
	h := winamaxHand(t)
	out := TableView(h, replay.Compute(h, len(h.Events)-1), plainOptions(false))

	expectContains(t, out, "Showdown", "Pot 720  Centre 720")
	expectContains(t, lineFor(t, out, "Bob"), "1,860", "[7♣ 7♠]", "winner")
}

func TestTableViewEmptyState(t *testing.T) {
	h := winamaxHand(t)
	out := TableView(h, replay.Compute(h, replay.NoCursor), plainOptions(false))

	expectContains(t, out, "Waiting")
	expectContains(t, lineFor(t, out, "Alice"), "1,500")
	for _, unwanted := range []string{"Relance", "·"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("empty table shows %q:\n%s", unwanted, out)
		}
	}
}
