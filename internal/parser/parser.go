package parser

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// Hand blocks are separated by one or more blank lines or by a run of five
// asterisks.
var reBlockSeparator = regexp.MustCompile(`\n(?:[ \t]*\n)+|\*{5,}`)

// reRawBlockSeparator matches the same separators before line endings are
// normalised.
var reRawBlockSeparator = regexp.MustCompile(`\r?\n(?:[ \t\r]*\n)+|\*{5,}`)

// Parser converts raw hand-history text into hands. It never fails: lines
// that match no classifier are skipped and hands are built from whatever
// could be extracted.
type Parser struct {
	nextID int
}

func NewParser() *Parser {
	return &Parser{}
}

// Parse splits text into hand blocks and parses each one. Hand ids continue
// from the previous call on the same Parser. A block yielding neither a
// player nor an event is dropped, but still consumes an id.
func (p *Parser) Parse(text string) []*Hand {
	var hands []*Hand
	for _, block := range SplitBlocks(text) {
		id := p.nextID
		p.nextID++
		if h := parseBlock(id, block); h != nil {
			hands = append(hands, h)
		}
	}
	return hands
}

// Parse parses text with a fresh Parser, so ids start at 0.
func Parse(text string) []*Hand {
	return NewParser().Parse(text)
}

// ParseReader reads r to the end and parses its content.
func ParseReader(r io.Reader) ([]*Hand, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read hand history: %w", err)
	}
	return Parse(string(data)), nil
}

// SplitBlocks normalises line endings and returns the non-empty hand blocks
// of text in order.
func SplitBlocks(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var blocks []string
	for _, b := range reBlockSeparator.Split(text, -1) {
		if strings.TrimSpace(b) == "" {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// CompleteBlocksEnd returns the byte offset just past the last block
// separator in text, or 0 when text holds no complete block yet. Text after
// the offset may be a hand that is still being written.
func CompleteBlocksEnd(text string) int {
	locs := reRawBlockSeparator.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return 0
	}
	return locs[len(locs)-1][1]
}

func parseBlock(id int, block string) *Hand {
	h := &Hand{
		ID:       id,
		Blinds:   make(map[string]float64),
		Winnings: make(map[string]float64),
	}
	ctx := parseContext{street: StreetPreFlop}
	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		ctx = processLine(line, h, ctx)
	}
	if len(h.Players) == 0 && len(h.Events) == 0 {
		return nil
	}
	finalizeHand(h, ctx)
	return h
}

func processLine(line string, h *Hand, ctx parseContext) parseContext {
	if strings.Contains(line, "*** SUMMARY ***") {
		ctx.inSummary = true
		return ctx
	}
	if ctx.inSummary && hasSummaryKeyword(line) {
		return ctx
	}
	for _, c := range classifiers {
		if next, ok := c.fn(line, h, ctx); ok {
			return next
		}
	}
	return ctx
}

func hasSummaryKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range summaryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func finalizeHand(h *Hand, ctx parseContext) {
	if ctx.buttonSeat > 0 && !hasDealer(h) {
		if p := h.playerBySeat(ctx.buttonSeat); p != nil {
			p.IsDealer = true
		}
	}
	reorderHeroFirst(h)
}

func hasDealer(h *Hand) bool {
	for _, p := range h.Players {
		if p.IsDealer {
			return true
		}
	}
	return false
}

// reorderHeroFirst sorts players by seat and rotates the list so the hero
// leads while table order is kept. Without a hero the order is untouched.
func reorderHeroFirst(h *Hand) {
	if h.Hero() == nil {
		return
	}
	sort.SliceStable(h.Players, func(i, j int) bool {
		return h.Players[i].Seat < h.Players[j].Seat
	})
	hero := 0
	for i, p := range h.Players {
		if p.IsHero {
			hero = i
			break
		}
	}
	rotated := make([]Player, 0, len(h.Players))
	rotated = append(rotated, h.Players[hero:]...)
	rotated = append(rotated, h.Players[:hero]...)
	h.Players = rotated
}
