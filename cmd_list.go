package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/AkatukiSora/hh-replayer/internal/persistence"
)

// ListCmd prints stored hand summaries.
type ListCmd struct {
	Hero   string `help:"Only hands whose hero has this name"`
	Player string `help:"Only hands in which this player was seated"`
	Source string `help:"Only hands imported from this file" type:"path"`
	Limit  int    `help:"Maximum number of hands (0 = all)" default:"20"`
	Offset int    `help:"Number of hands to skip"`
}

func (cmd ListCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	svc, err := g.openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	summaries, total, err := svc.ListHands(context.Background(), persistence.HandFilter{
		SourcePath: cmd.Source,
		HeroName:   cmd.Hero,
		PlayerName: cmd.Player,
		Limit:      cmd.Limit,
		Offset:     cmd.Offset,
	})
	if err != nil {
		return err
	}

	f := g.formatter(cfg)
	tw := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UID\tHAND\tPLAYERS\tPOT\tHERO\tCARDS\tWON\tBOARD")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			s.HandUID, truncate(s.HandNumber, 48), s.NumPlayers,
			f.FormatAmount(s.TotalPot, false, 0), s.HeroName, s.HeroCards,
			f.FormatAmount(s.HeroWon, false, 0), s.Board)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "%d of %d hands\n", len(summaries), total)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
