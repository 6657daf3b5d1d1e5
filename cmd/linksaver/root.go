package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/linksaver/internal/bookmarks"
	"github.com/nikbrunner/linksaver/internal/config"
	"github.com/nikbrunner/linksaver/internal/exporter"
	"github.com/nikbrunner/linksaver/internal/messaging"
	"github.com/nikbrunner/linksaver/internal/settings"
	"github.com/nikbrunner/linksaver/internal/storage"
)

// app carries what every command needs once flags are parsed.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string

	cfg config.Config
	log *slog.Logger

	handle    *storage.Handle
	bookmarks *bookmarks.Service
	settings  *settings.Service
	hub       *messaging.Hub
	router    *messaging.Router
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "linksaver",
		Short: "Manage your bookmarks from the command line",
		Long: `linksaver keeps a browser-style bookmark tree (folders and links under
"Bookmarks Bar" and "Other Bookmarks"), serves a snapshot of it to the
dashboard and syncs it to the companion server.

Data lives in ~/.config/linksaver unless configured otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/linksaver/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(a),
		newSyncCmd(a),
		newTreeCmd(a),
		newListCmd(a),
		newRecentCmd(a),
		newFoldersCmd(a),
		newSitesCmd(a),
		newSearchCmd(a),
		newFindCmd(a),
		newAddCmd(a),
		newMkdirCmd(a),
		newEditCmd(a),
		newMvCmd(a),
		newRmCmd(a),
		newCopyCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newSettingsCmd(a),
		newCheckCmd(a),
		newConfigCmd(a),
	)

	return root
}

// setup loads configuration and builds the logger. Storage is opened on
// demand since serve does not need it.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		a.log = slog.New(slog.NewJSONHandler(a.errOut, opts))
	} else {
		a.log = slog.New(slog.NewTextHandler(a.errOut, opts))
	}
	return nil
}

// open opens the bookmark store and writes default settings on first use.
func (a *app) open(ctx context.Context) error {
	if a.handle != nil {
		return nil
	}

	h, err := storage.Open(storage.Options{
		Backend:      a.cfg.Backend,
		SQLitePath:   a.cfg.DBPath,
		JSONPath:     a.cfg.JSONPath,
		SettingsPath: a.cfg.SettingsPath,
	})
	if err != nil {
		return err
	}
	a.handle = h
	a.bookmarks = bookmarks.NewService(h.Bookmarks)
	a.settings = settings.NewService(h.Settings, a.log)

	// Store changes go out on the hub like the extension's broadcasts.
	a.hub = messaging.NewHub(a.log)
	a.router = messaging.NewRouter(a.bookmarks, a.settings, a.log)
	h.Bookmarks.OnChange(messaging.Forward(a.hub))
	a.hub.Subscribe(func(msg messaging.Message) error {
		a.log.Debug("bookmark event", "type", msg.Type, "payload", string(msg.Payload))
		return nil
	})

	if err := a.settings.Install(ctx); err != nil {
		a.log.Warn("writing default settings", "error", err)
	}
	return nil
}

func (a *app) close() error {
	if a.handle == nil {
		return nil
	}
	err := a.handle.Close()
	a.handle = nil
	return err
}

func (a *app) htmlOptions() exporter.HTMLOptions {
	return exporter.HTMLOptions{Escape: a.cfg.EscapeHTML}
}

// withStore wraps a command body that needs the bookmark store.
func (a *app) withStore(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd.Context()); err != nil {
			return err
		}
		return fn(cmd, args)
	}
}
