package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AkatukiSora/hh-replayer/internal/format"
	"github.com/AkatukiSora/hh-replayer/internal/parser"
	"github.com/AkatukiSora/hh-replayer/internal/replay"
)

// ParseCmd prints what the parser extracted from a file.
type ParseCmd struct {
	File string `arg:"" name:"file" help:"Hand-history file, or - for stdin"`
	JSON bool   `name:"json" help:"Print the parsed hands as JSON"`
}

func (cmd ParseCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	hands, err := readHands(cmd.File)
	if err != nil {
		return err
	}

	out := g.stdout()
	if cmd.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hands)
	}

	f := g.formatter(cfg)
	for _, h := range hands {
		printHandLine(out, f, cfg.Display.ShowInBB, h)
	}
	fmt.Fprintf(out, "%d hands\n", len(hands))
	return nil
}

func printHandLine(w io.Writer, f *format.Formatter, showInBB bool, h *parser.Hand) {
	hero := "-"
	if p := h.Hero(); p != nil {
		hero = p.Name
		if len(p.HoleCards) > 0 {
			hero += " [" + prettyCards(p.HoleCards) + "]"
		}
	}
	fmt.Fprintf(w, "#%d  %s\n    players %d  events %d  pot %s  hero %s\n",
		h.ID, h.HandNumber, len(h.Players), len(h.Events),
		f.FormatAmount(h.TotalPot, showInBB, replay.BigBlind(h)), hero)
}

func prettyCards(cards []parser.Card) string {
	s := ""
	for i, c := range cards {
		if i > 0 {
			s += " "
		}
		s += c.Pretty()
	}
	return s
}

// readHands parses path, or stdin when path is "-".
func readHands(path string) ([]*parser.Hand, error) {
	if path == "-" {
		return parser.ParseReader(os.Stdin)
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parser.ParseReader(f)
}
