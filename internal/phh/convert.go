package phh

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/AkatukiSora/hh-replayer/internal/parser"
	"github.com/AkatukiSora/hh-replayer/internal/replay"
)

const unknownHoleCards = "????"

var reHandID = regexp.MustCompile(`#\s*([\w-]+)`)

var dateLayouts = []string{"2006/01/02 15:04:05", "2006/01/02", "2006-01-02 15:04:05", "2006-01-02"}

// FromHand converts a parsed hand into a no-limit hold'em PHH record.
// Finishing stacks come from replaying the hand to its last event.
func FromHand(h *parser.Hand) *HandHistory {
	players := slices.Clone(h.Players)
	slices.SortFunc(players, func(a, b parser.Player) int { return a.Seat - b.Seat })

	index := make(map[string]int, len(players))
	hh := &HandHistory{
		Variant:           "NT",
		Table:             h.TableInfo,
		Antes:             make([]float64, len(players)),
		BlindsOrStraddles: make([]float64, len(players)),
		MinBet:            replay.BigBlind(h),
		StartingStacks:    make([]float64, len(players)),
		FinishingStacks:   make([]float64, len(players)),
		Winnings:          make([]float64, len(players)),
		Actions:           make([]string, 0, len(h.Events)+len(players)),
		Players:           make([]string, len(players)),
		HandID:            handID(h),
	}

	final := replay.Compute(h, len(h.Events)-1)
	for i, p := range players {
		index[p.Name] = i + 1
		hh.Seats = append(hh.Seats, p.Seat)
		if p.Seat > hh.SeatCount {
			hh.SeatCount = p.Seat
		}
		hh.Players[i] = p.Name
		hh.Antes[i] = h.Antes[p.Name]
		hh.BlindsOrStraddles[i] = blindPosted(h, p.Name)
		hh.StartingStacks[i] = p.StartingChips
		hh.Winnings[i] = h.Winnings[p.Name]
		if final.Empty() {
			hh.FinishingStacks[i] = p.StartingChips
		} else {
			hh.FinishingStacks[i] = final.Player(p).CurrentChips
		}
	}

	for i, p := range players {
		cards := unknownHoleCards
		if len(p.HoleCards) > 0 {
			cards = concatCards(p.HoleCards)
		}
		hh.Actions = append(hh.Actions, fmt.Sprintf("d dh p%d %s", i+1, cards))
	}

	for _, e := range h.Events {
		if a, ok := FormatAction(e, index); ok {
			hh.Actions = append(hh.Actions, a)
		}
	}

	applyDate(hh, h.Date)

	meta := map[string]any{}
	if h.Stakes != "" {
		meta["stakes"] = h.Stakes
	}
	if h.HandNumber != "" {
		meta["header"] = h.HandNumber
	}
	if h.TotalPot > 0 {
		meta["total_pot"] = h.TotalPot
	}
	if len(meta) > 0 {
		hh.Metadata = meta
	}
	return hh
}

// FormatAction converts an event into a PHH action string. It returns false
// for events PHH records elsewhere (hole cards, winnings) or cannot express.
func FormatAction(e parser.Event, index map[string]int) (string, bool) {
	switch e.Kind {
	case parser.EventStreetMarker:
		if len(e.Cards) == 0 {
			return "", false
		}
		return "d db " + concatCards(e.Cards), true
	case parser.EventCardsShown:
		n, ok := index[e.Player]
		if !ok || len(e.Cards) == 0 {
			return "", false
		}
		return fmt.Sprintf("p%d sm %s", n, concatCards(e.Cards)), true
	case parser.EventPlayerAction:
		n, ok := index[e.Player]
		if !ok {
			return "", false
		}
		player := "p" + strconv.Itoa(n)
		switch e.ActionType {
		case parser.ActionFold:
			return player + " f", true
		case parser.ActionCheck, parser.ActionCall:
			return player + " cc", true
		case parser.ActionBet, parser.ActionRaise:
			if e.BetAmount <= 0 {
				return "", false
			}
			return player + " cbr " + parser.FormatNumber(e.BetAmount), true
		}
	}
	return "", false
}

func blindPosted(h *parser.Hand, name string) float64 {
	if v, ok := h.BlindPostings[name]; ok {
		return v
	}
	return h.Blinds[name]
}

func concatCards(cards []parser.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(string(c))
	}
	return b.String()
}

func handID(h *parser.Hand) string {
	if m := reHandID.FindStringSubmatch(h.HandNumber); m != nil {
		return m[1]
	}
	return strconv.Itoa(h.ID)
}

// applyDate fills the PHH date fields from a "2006/01/02 15:04:05 TZ" style
// date. Unparseable dates are left out.
func applyDate(hh *HandHistory, date string) {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return
	}
	value := fields[0]
	if len(fields) > 1 && strings.Contains(fields[1], ":") {
		value += " " + fields[1]
		if len(fields) > 2 {
			hh.TimeZoneAbbrev = fields[2]
		}
	}
	for _, layout := range dateLayouts {
		ts, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		hh.Year, hh.Month, hh.Day = ts.Year(), int(ts.Month()), ts.Day()
		if strings.Contains(layout, " ") {
			hh.Time = ts.Format("15:04:05")
		}
		return
	}
}
