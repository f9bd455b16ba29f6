package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reHandBuyIn    = regexp.MustCompile(`buyIn:\s*([\d.]+€\s*\+\s*[\d.]+€)`)
	reHandFee      = regexp.MustCompile(`([€$][\d.]+\+[€$][\d.]+)`)
	reHandBlinds   = regexp.MustCompile(`\(([^()]*\d[^()]*/[^()]*)\)`)
	reHandDate     = regexp.MustCompile(`\d{4}/\d{2}/\d{2}(?: \d{2}:\d{2}:\d{2})?(?: [A-Z]{2,4}\b)?`)
	reDateLine     = regexp.MustCompile(`^\d{4}[/-]\d{2}[/-]\d{2}`)
	reSeat         = regexp.MustCompile(`^Seat (\d+): (.+?) \((.+)\)`)
	reSeatBounty   = regexp.MustCompile(`^(.+?),\s*(.+?\s+bounty)$`)
	reButton       = regexp.MustCompile(`Seat #(\d+) is the button`)
	reStreet       = regexp.MustCompile(`^\*\*\* (HOLE CARDS|PRE-FLOP|FLOP|TURN|RIVER|SHOW ?DOWN) \*\*\*(.*)$`)
	reFirstBracket = regexp.MustCompile(`\[([^\]]+)\]`)
	reTurnCard     = regexp.MustCompile(`\[([^\]]+)\]\s*\[([^\]]+)\]`)
	reRiverCard    = regexp.MustCompile(`\]\s*\[([^\]]+)\]$`)
	reAnte         = regexp.MustCompile(`(?i)^(.+?):? posts (?:the )?ante (.+)$`)
	reBlind        = regexp.MustCompile(`(?i)^(.+?):? posts (small|big) blind (.+)$`)
	reDealt        = regexp.MustCompile(`^Dealt to (.+?) \[([^\]]+)\]`)
	reAction       = regexp.MustCompile(`(?i)^(.+?):? (folds|calls|raises|bets|checks)(.*)$`)
	reShow         = regexp.MustCompile(`(?i)^(.+?):? shows \[([^\]]+)\](.*)$`)
	reWin          = regexp.MustCompile(`(?i)^(.+?):? (collected|wins|won) (.+?)(?: from| \||$)`)
	reTotalPot     = regexp.MustCompile(`Total pot (.+?)(?: \||$)`)
	reSummaryShow  = regexp.MustCompile(`(?i)Seat \d+: (.+?)(?: \(.+?\))? showed \[([^\]]+)\]`)
)

// Summary lines echo what already happened during the hand. Any of these
// keywords marks a line that must not be counted twice.
var summaryKeywords = []string{
	"posts", "folds", "calls", "raises", "bets", "checks",
	"collected", "wins", "won", "and won", "and lost",
}

// parseContext is the per-hand state threaded through the classifiers.
// Classifiers receive it by value and return the updated copy.
type parseContext struct {
	street    Street
	pot       float64
	inSummary bool
	nextIndex int

	seenSeat   bool // header section ends at the first seat line
	buttonSeat int  // button announced before its seat was known
	potSeen    bool
}

// emit appends e to the hand with the next index, the current street and
// the running pot.
func (c parseContext) emit(h *Hand, e Event) parseContext {
	e.Index = c.nextIndex
	e.Street = c.street
	e.PotAfter = c.pot
	h.Events = append(h.Events, e)
	c.nextIndex++
	return c
}

// classifyFunc recognises one category of line. It reports whether the line
// was consumed; when it was, h and the returned context carry the effect.
type classifyFunc func(line string, h *Hand, ctx parseContext) (parseContext, bool)

type classifier struct {
	name string
	fn   classifyFunc
}

// classifiers are tried in order; the first match wins.
var classifiers = []classifier{
	{"hand-info", classifyHandInfo},
	{"seat", classifySeat},
	{"dealer", classifyDealer},
	{"street", classifyStreet},
	{"ante", classifyAnte},
	{"blind", classifyBlind},
	{"dealt", classifyDealt},
	{"action", classifyAction},
	{"show", classifyShow},
	{"win", classifyWin},
	{"pot", classifyPot},
	{"summary-show", classifySummaryShow},
}

func classifyHandInfo(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	if strings.Contains(line, "Hand #") || strings.Contains(line, "Hand ID") || strings.Contains(line, "Winamax Poker") {
		h.HandNumber = line
		if h.Stakes == "" {
			h.Stakes = extractStakes(line)
		}
		if h.Date == "" {
			h.Date = reHandDate.FindString(line)
		}
		return ctx, true
	}

	// Loose header lines only exist before the seat list.
	if ctx.seenSeat || ctx.inSummary || reSeat.MatchString(line) {
		return ctx, false
	}
	switch {
	case reDateLine.MatchString(line):
		h.Date = line
		return ctx, true
	case strings.Contains(line, "Table") || strings.Contains(line, "table"):
		h.TableInfo = line
		if m := reButton.FindStringSubmatch(line); m != nil {
			ctx.buttonSeat, _ = strconv.Atoi(m[1])
		}
		return ctx, true
	case strings.Contains(line, "€") || strings.Contains(line, "$") || strings.Contains(line, "Blinds"):
		if h.Stakes == "" {
			h.Stakes = line
		}
		return ctx, true
	}
	return ctx, false
}

func extractStakes(line string) string {
	if m := reHandBuyIn.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := reHandFee.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := reHandBlinds.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

func classifySeat(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	if ctx.inSummary {
		return ctx, false
	}
	m := reSeat.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	ctx.seenSeat = true

	seat, err := strconv.Atoi(m[1])
	if err != nil || seat <= 0 {
		return ctx, true
	}
	name := strings.TrimSpace(m[2])
	if h.playerBySeat(seat) != nil || h.Player(name) != nil {
		return ctx, true
	}

	chips, bounty := m[3], ""
	if bm := reSeatBounty.FindStringSubmatch(chips); bm != nil {
		chips, bounty = bm[1], strings.TrimSpace(bm[2])
	}
	h.Players = append(h.Players, Player{
		Seat:          seat,
		Name:          name,
		StartingChips: ParseAmount(chips),
		Bounty:        bounty,
	})
	return ctx, true
}

func classifyDealer(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	m := reButton.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	seat, _ := strconv.Atoi(m[1])
	if p := h.playerBySeat(seat); p != nil {
		p.IsDealer = true
	} else {
		ctx.buttonSeat = seat
	}
	return ctx, true
}

func classifyStreet(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	m := reStreet.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	rest := m[2]

	switch m[1] {
	case "HOLE CARDS", "PRE-FLOP":
		ctx.street = StreetPreFlop
	case "FLOP":
		ctx.street = StreetFlop
		bm := reFirstBracket.FindStringSubmatch(rest)
		if bm == nil {
			ctx = ctx.emit(h, Event{Kind: EventStreetMarker, Text: "Flop"})
			break
		}
		cards := h.appendBoard(parseCards(bm[1]))
		ctx = ctx.emit(h, Event{Kind: EventStreetMarker, Text: "Flop: " + joinCards(cards), Cards: cards})
	case "TURN":
		ctx.street = StreetTurn
		if tm := reTurnCard.FindStringSubmatch(rest); tm != nil {
			cards := h.appendBoard(parseCards(tm[2]))
			ctx = ctx.emit(h, Event{Kind: EventStreetMarker, Text: "Turn: " + joinCards(cards), Cards: cards})
		}
	case "RIVER":
		ctx.street = StreetRiver
		if rm := reRiverCard.FindStringSubmatch(rest); rm != nil {
			cards := h.appendBoard(parseCards(rm[1]))
			ctx = ctx.emit(h, Event{Kind: EventStreetMarker, Text: "River: " + joinCards(cards), Cards: cards})
		}
	default:
		ctx.street = StreetShowdown
		ctx = ctx.emit(h, Event{Kind: EventStreetMarker, Text: "Showdown"})
	}
	return ctx, true
}

func classifyAnte(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	m := reAnte.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	amount := ParseAmount(m[2])
	if h.Antes == nil {
		h.Antes = make(map[string]float64)
	}
	h.Antes[m[1]] += amount
	ctx.pot += amount
	return ctx, true
}

func classifyBlind(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	m := reBlind.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	amount := ParseAmount(m[3])
	h.Blinds[m[1]] = amount
	if h.BlindPostings == nil {
		h.BlindPostings = make(map[string]float64)
	}
	h.BlindPostings[m[1]] += amount
	ctx.pot += amount
	return ctx, true
}

func classifyDealt(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	m := reDealt.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	name := m[1]
	cards := parseCards(m[2])
	if p := h.Player(name); p != nil && len(cards) == 2 {
		p.HoleCards = cards
		if h.Hero() == nil {
			p.IsHero = true
		}
	}
	ctx = ctx.emit(h, Event{
		Kind:   EventCardsDealt,
		Player: name,
		Text:   "Reçoit: " + joinCards(cards),
		Cards:  cards,
	})
	return ctx, true
}

func classifyAction(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	m := reAction.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	action := actionTypeFromVerb(m[2])
	amount := ExtractBetAmount(action, strings.TrimSpace(m[3]))
	// The raise "to" total is added as-is, not the increment.
	ctx.pot += amount

	e := Event{
		Kind:       EventPlayerAction,
		Player:     m[1],
		ActionType: action,
		Text:       actionText(action, amount),
	}
	if amount > 0 {
		e.BetAmount = amount
	}
	ctx = ctx.emit(h, e)
	return ctx, true
}

func actionText(action ActionType, amount float64) string {
	switch action {
	case ActionFold:
		return "Se couche"
	case ActionCheck:
		return "Parole"
	case ActionCall:
		return withAmount("Suit", amount)
	case ActionBet:
		return withAmount("Mise", amount)
	case ActionRaise:
		if amount > 0 {
			return "Relance à " + FormatNumber(amount)
		}
		return "Relance"
	}
	return ""
}

func withAmount(label string, amount float64) string {
	if amount > 0 {
		return label + " " + FormatNumber(amount)
	}
	return label
}

func classifyShow(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	m := reShow.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	name := m[1]
	cards := parseCards(m[2])
	h.revealCards(name, cards)
	ctx = ctx.emit(h, Event{
		Kind:   EventCardsShown,
		Player: name,
		Text:   strings.TrimSpace("Montre " + joinCards(cards) + " " + strings.TrimSpace(m[3])),
		Cards:  cards,
	})
	return ctx, true
}

func classifyWin(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	m := reWin.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	name := m[1]
	amountStr := strings.TrimSpace(m[3])
	amount := ParseAmount(amountStr)
	h.Winnings[name] += amount
	ctx = ctx.emit(h, Event{
		Kind:   EventWinCollected,
		Player: name,
		Text:   "Remporte " + amountStr,
		Amount: amount,
	})
	return ctx, true
}

func classifyPot(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	m := reTotalPot.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	if !ctx.potSeen {
		h.TotalPot = ParseAmount(m[1])
		ctx.potSeen = true
	}
	return ctx, true
}

func classifySummaryShow(line string, h *Hand, ctx parseContext) (parseContext, bool) {
	if !ctx.inSummary {
		return ctx, false
	}
	m := reSummaryShow.FindStringSubmatch(line)
	if m == nil {
		return ctx, false
	}
	h.revealCards(strings.TrimSpace(m[1]), parseCards(m[2]))
	return ctx, true
}

// parseCards splits a space separated card list, dropping anything that is
// not a card once normalised.
func parseCards(s string) []Card {
	var cards []Card
	for _, f := range strings.Fields(s) {
		if c := NormalizeCard(f); c.Valid() {
			cards = append(cards, c)
		}
	}
	return cards
}

func joinCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = string(c)
	}
	return strings.Join(parts, " ")
}

// appendBoard adds cards to the board without exceeding five and returns
// the cards that were actually added.
func (h *Hand) appendBoard(cards []Card) []Card {
	room := 5 - len(h.Board)
	if room <= 0 {
		return nil
	}
	if len(cards) > room {
		cards = cards[:room]
	}
	h.Board = append(h.Board, cards...)
	return cards
}

// revealCards attaches hole cards to a player whose cards are still unknown.
func (h *Hand) revealCards(name string, cards []Card) {
	p := h.Player(name)
	if p == nil || p.HoleCards != nil || len(cards) != 2 {
		return
	}
	p.HoleCards = cards
}
