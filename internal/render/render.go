// Package render draws a replayed table as styled terminal text.
package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AkatukiSora/hh-replayer/internal/format"
	"github.com/AkatukiSora/hh-replayer/internal/parser"
	"github.com/AkatukiSora/hh-replayer/internal/replay"
)

const hiddenCard = "??"

// Styles contains the styling of a table view.
type Styles struct {
	Header    lipgloss.Style
	SubHeader lipgloss.Style
	Street    lipgloss.Style
	Pot       lipgloss.Style
	Player    lipgloss.Style
	Hero      lipgloss.Style
	Folded    lipgloss.Style
	Winner    lipgloss.Style
	Flag      lipgloss.Style
	Action    lipgloss.Style
	Separator lipgloss.Style
	Cards     map[string]lipgloss.Style // keyed by parser.Card.SuitColor
}

// NewStyles builds the styles for output written through r.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header: r.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		SubHeader: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Street: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Pot: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")),
		Player: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
		Hero: r.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Folded: r.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Faint(true),
		Winner: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Flag: r.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")),
		Action: r.NewStyle().
			Foreground(lipgloss.Color("#74B9FF")),
		Separator: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Cards: map[string]lipgloss.Style{
			"red":   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
			"blue":  r.NewStyle().Foreground(lipgloss.Color("#5DADE2")).Bold(true),
			"green": r.NewStyle().Foreground(lipgloss.Color("#2ECC71")).Bold(true),
			"black": r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FAFAFA"}).Bold(true),
		},
	}
}

// Options controls how amounts are shown.
type Options struct {
	ShowInBB bool
	// Formatter defaults to the package-level default locale.
	Formatter *format.Formatter
	Styles    *Styles
}

// Writer returns Options whose styles match the colour support of w.
func Writer(w io.Writer, showInBB bool, f *format.Formatter) Options {
	return Options{ShowInBB: showInBB, Formatter: f, Styles: NewStyles(lipgloss.NewRenderer(w))}
}

type view struct {
	opts  Options
	st    *Styles
	state *replay.TableState
}

func (v view) amount(a float64) string {
	if v.opts.Formatter != nil {
		return v.opts.Formatter.FormatAmount(a, v.opts.ShowInBB, v.state.BigBlind)
	}
	return format.FormatAmount(a, v.opts.ShowInBB, v.state.BigBlind)
}

func (v view) card(c parser.Card) string {
	if style, ok := v.st.Cards[c.SuitColor()]; ok {
		return style.Render(c.Pretty())
	}
	return c.Pretty()
}

func (v view) cards(cs []parser.Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = v.card(c)
	}
	return strings.Join(parts, " ")
}

// TableView renders h as it stands in state: header, board, pots, one line
// per player with its last action and the text of the event at the cursor.
func TableView(h *parser.Hand, state *replay.TableState, opts Options) string {
	st := opts.Styles
	if st == nil {
		st = NewStyles(lipgloss.DefaultRenderer())
	}
	v := view{opts: opts, st: st, state: state}

	var lines []string
	title := strings.TrimSpace(h.HandNumber)
	if title == "" {
		title = "Hand"
	}
	lines = append(lines, st.Header.Render(title))
	if sub := strings.TrimSpace(strings.Join(nonEmpty(h.Stakes, h.TableInfo, h.Date), " | ")); sub != "" {
		lines = append(lines, st.SubHeader.Render(sub))
	}

	streetLine := st.Street.Render(streetLabel(state))
	if len(state.VisibleBoard) > 0 {
		streetLine += "  " + v.cards(state.VisibleBoard)
	}
	lines = append(lines, streetLine)
	lines = append(lines, st.Pot.Render("Pot "+v.amount(state.TotalPot)+"  Centre "+v.amount(state.CenterPot)))
	lines = append(lines, st.Separator.Render(strings.Repeat("─", 40)))

	nameWidth := 0
	for _, p := range h.Players {
		nameWidth = max(nameWidth, lipgloss.Width(p.Name))
	}
	var played []parser.Event
	if !state.Empty() && state.Cursor >= 0 {
		played = h.Events[:min(state.Cursor+1, len(h.Events))]
	}
	for _, p := range h.Players {
		line := v.playerLine(p, state.Player(p), nameWidth)
		if e, ok := parser.LastPlayerEvent(played, p.Name); ok && e.Kind == parser.EventPlayerAction {
			line += "  " + st.Action.Render("· "+e.FormattedText())
		}
		lines = append(lines, line)
	}

	if !state.Empty() && state.Cursor >= 0 && state.Cursor < len(h.Events) {
		e := h.Events[state.Cursor]
		text := e.FormattedText()
		if e.Player != "" {
			text = e.Player + ": " + text
		}
		lines = append(lines, st.Separator.Render(strings.Repeat("─", 40)))
		lines = append(lines, st.Action.Render(text))
	}
	return strings.Join(lines, "\n")
}

func (v view) playerLine(p parser.Player, ps replay.PlayerState, nameWidth int) string {
	marker := " "
	if p.IsDealer {
		marker = "D"
	}

	nameStyle := v.st.Player
	switch {
	case ps.IsWinner:
		nameStyle = v.st.Winner
	case ps.Folded:
		nameStyle = v.st.Folded
	case p.IsHero:
		nameStyle = v.st.Hero
	}
	name := nameStyle.Width(nameWidth).Render(p.Name)

	parts := []string{v.st.Flag.Render(marker), name, v.amount(ps.CurrentChips)}
	if ps.CurrentStreetBet > 0 {
		parts = append(parts, "bet "+v.amount(ps.CurrentStreetBet))
	}
	switch {
	case ps.ShouldRevealCards && len(p.HoleCards) > 0:
		parts = append(parts, "["+v.cards(p.HoleCards)+"]")
	case ps.HasHoleCards && !ps.Folded:
		parts = append(parts, "["+hiddenCard+" "+hiddenCard+"]")
	}

	var flags []string
	if ps.Folded {
		flags = append(flags, "folded")
	}
	if ps.IsAllIn {
		flags = append(flags, "all-in")
	}
	if ps.HasChecked {
		flags = append(flags, "checks")
	}
	if ps.IsWinner {
		flags = append(flags, "winner")
	}
	if len(flags) > 0 {
		parts = append(parts, v.st.Flag.Render("("+strings.Join(flags, ", ")+")"))
	}
	return strings.Join(parts, "  ")
}

func streetLabel(state *replay.TableState) string {
	if state.Empty() {
		return "Waiting"
	}
	if state.Showdown {
		return "Showdown"
	}
	switch state.Street {
	case parser.StreetFlop:
		return "Flop"
	case parser.StreetTurn:
		return "Turn"
	case parser.StreetRiver:
		return "River"
	case parser.StreetShowdown:
		return "Showdown"
	}
	return "Pre-flop"
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
