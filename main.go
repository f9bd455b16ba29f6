package main

import (
	"github.com/alecthomas/kong"
)

var (
	version   = "dev"
	commit    = "local"
	buildDate = "unknown"
)

type CLI struct {
	Globals

	Version   kong.VersionFlag `short:"v" help:"Show version"`
	Parse     ParseCmd         `cmd:"" help:"Parse a hand-history file and summarise its hands"`
	Replay    ReplayCmd        `cmd:"" help:"Render the table of a parsed hand at a given event"`
	Import    ImportCmd        `cmd:"" help:"Import hand-history files or directories into the store"`
	List      ListCmd          `cmd:"" help:"List stored hands"`
	Show      ShowCmd          `cmd:"" help:"Render a stored hand at a given event"`
	Watch     WatchCmd         `cmd:"" help:"Tail a hand-history file and import hands as they complete"`
	ExportPHH ExportPHHCmd     `cmd:"export-phh" help:"Write every hand of a file as PHH (TOML)"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("hh-replayer"),
		kong.Description("Poker hand-history parser and table replayer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version + " (" + commit + ", " + buildDate + ")",
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
