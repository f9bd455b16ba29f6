package main

import (
	"context"

	"github.com/AkatukiSora/hh-replayer/internal/replay"
)

// ShowCmd renders a stored hand.
type ShowCmd struct {
	UID    string `arg:"" name:"uid" help:"Hand UID as printed by list"`
	Cursor int    `help:"Event index to stop at; negative values count from the end" default:"-1"`
	All    bool   `help:"Render the table before the first event and after every event"`
}

func (cmd ShowCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	svc, err := g.openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	h, state, err := svc.Replay(context.Background(), cmd.UID, cmd.Cursor)
	if err != nil {
		return err
	}
	opts := g.renderOptions(cfg)
	if cmd.All {
		for c := replay.NoCursor; c < len(h.Events); c++ {
			writeView(g.stdout(), h, replay.Compute(h, c), opts)
		}
		return nil
	}
	if cmd.Cursor < 0 {
		state = replay.Compute(h, resolveCursor(cmd.Cursor, len(h.Events)))
	}
	writeView(g.stdout(), h, state, opts)
	return nil
}
