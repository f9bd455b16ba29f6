package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/AkatukiSora/hh-replayer/internal/application"
	"github.com/AkatukiSora/hh-replayer/internal/applog"
	"github.com/AkatukiSora/hh-replayer/internal/config"
	"github.com/AkatukiSora/hh-replayer/internal/format"
	"github.com/AkatukiSora/hh-replayer/internal/persistence"
	"github.com/AkatukiSora/hh-replayer/internal/render"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config string `help:"HCL configuration file" default:"hh-replayer.hcl" type:"path"`
	Debug  bool   `help:"Enable debug logging"`
	DB     string `name:"db" help:"SQLite database path (overrides the config file)" type:"path"`
	Memory bool   `help:"Keep hands in memory only"`
	BB     bool   `name:"bb" help:"Show amounts in big blinds"`
	Locale string `help:"Locale for amounts, e.g. fr-FR or en-US (overrides the config file)"`

	out    io.Writer `kong:"-"`
	logOut io.Writer `kong:"-"`
}

func (g *Globals) stdout() io.Writer {
	if g.out != nil {
		return g.out
	}
	return os.Stdout
}

// load reads the config file, applies flag overrides and initialises logging.
func (g *Globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.Debug {
		cfg.LogDebug = true
	}
	if g.DB != "" {
		cfg.DatabasePath = g.DB
	}
	if g.BB {
		cfg.Display.ShowInBB = true
	}
	if g.Locale != "" {
		cfg.Display.Locale = g.Locale
	}

	if g.logOut != nil {
		applog.InitWriter(g.logOut, cfg.LogDebug)
	} else {
		applog.Init(cfg.LogDebug)
	}
	return cfg, nil
}

func (g *Globals) openService(cfg *config.Config) (application.AppService, error) {
	opts := []application.Option{application.WithPollInterval(cfg.PollInterval())}
	if g.Memory {
		return application.NewService(persistence.NewMemoryRepository(), opts...), nil
	}
	repo, err := persistence.NewSQLiteRepository(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open hand store %s: %w", cfg.DatabasePath, err)
	}
	slog.Debug("hand store opened", "path", cfg.DatabasePath)
	return application.NewService(repo, opts...), nil
}

func (g *Globals) formatter(cfg *config.Config) *format.Formatter {
	return format.NewFromString(cfg.Display.Locale)
}

func (g *Globals) renderOptions(cfg *config.Config) render.Options {
	return render.Writer(g.stdout(), cfg.Display.ShowInBB, g.formatter(cfg))
}
