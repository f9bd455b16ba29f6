package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AkatukiSora/hh-replayer/internal/application"
)

// WatchCmd tails a hand-history file until interrupted.
type WatchCmd struct {
	File string `arg:"" name:"file" help:"Hand-history file being written by the poker client" type:"path"`
}

func (cmd WatchCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	svc, err := g.openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := g.stdout()
	fmt.Fprintf(out, "watching %s (Ctrl+C to stop)\n", cmd.File)
	return svc.Watch(ctx, cmd.File, func(res application.ImportResult) {
		fmt.Fprintf(out, "%s: %d hands (%d new, %d updated)\n", res.Source, res.Hands, res.Inserted, res.Updated)
	})
}
