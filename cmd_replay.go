package main

import (
	"fmt"
	"io"

	"github.com/AkatukiSora/hh-replayer/internal/parser"
	"github.com/AkatukiSora/hh-replayer/internal/render"
	"github.com/AkatukiSora/hh-replayer/internal/replay"
)

// ReplayCmd renders a hand of a file at one event, or at every event.
type ReplayCmd struct {
	File   string `arg:"" name:"file" help:"Hand-history file, or - for stdin"`
	Hand   int    `help:"Index of the hand in the file (0 = first)" default:"0"`
	Cursor int    `help:"Event index to stop at; negative values count from the end" default:"-1"`
	All    bool   `help:"Render the table before the first event and after every event"`
}

func (cmd ReplayCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	hands, err := readHands(cmd.File)
	if err != nil {
		return err
	}
	if cmd.Hand < 0 || cmd.Hand >= len(hands) {
		return fmt.Errorf("hand %d out of range: %s has %d hands", cmd.Hand, cmd.File, len(hands))
	}
	h := hands[cmd.Hand]
	opts := g.renderOptions(cfg)

	if cmd.All {
		for c := replay.NoCursor; c < len(h.Events); c++ {
			writeView(g.stdout(), h, replay.Compute(h, c), opts)
		}
		return nil
	}
	writeView(g.stdout(), h, replay.Compute(h, resolveCursor(cmd.Cursor, len(h.Events))), opts)
	return nil
}

func writeView(w io.Writer, h *parser.Hand, state *replay.TableState, opts render.Options) {
	fmt.Fprintln(w, render.TableView(h, state, opts))
	fmt.Fprintln(w)
}

// resolveCursor maps negative cursors to positions counted from the last
// event (-1 is the last event).
func resolveCursor(cursor, events int) int {
	if cursor >= 0 {
		return cursor
	}
	cursor += events
	if cursor < 0 {
		return replay.NoCursor
	}
	return cursor
}
