package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msalah0e/lombard/internal/config"
	"github.com/msalah0e/lombard/internal/engine"
	"github.com/msalah0e/lombard/internal/graph"
	"github.com/msalah0e/lombard/internal/layout"
	"github.com/msalah0e/lombard/internal/logger"
	"github.com/msalah0e/lombard/internal/logger/console"
	"github.com/msalah0e/lombard/internal/ui"
)

var version = "0.3.0"

var (
	networkFile string
	configFile  string
	verbose     bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lombard",
	Short: "lombard: relationship networks drawn in the Lombardi manner",
	Long: ui.Brand.Sprint(ui.Mark+" lombard") + ": map people, companies and money as curved-arc networks\n" +
		ui.Subtle.Sprint("Edit a network snapshot, lay it out seven ways, render it to SVG"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			c, err := config.LoadFrom(configFile)
			if err != nil {
				return err
			}
			cfg = c
		} else {
			cfg = config.Load()
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger.Init(console.New(console.Params{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate("lombard {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVarP(&networkFile, "file", "f", "network.json", "Network snapshot to work on")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/lombard/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		newCmd(),
		addCmd(),
		relateCmd(),
		unrelateCmd(),
		removeCmd(),
		listCmd(),
		showCmd(),
		searchCmd(),
		ingestCmd(),
		loadCmd(),
		layoutCmd(),
		renderCmd(),
		exportCmd(),
		galleryCmd(),
		watchCmd(),
		schemaCmd(),
		historyCmd(),
		undoCmd(),
		redoCmd(),
		suggestCmd(),
		configCmd(),
		completionCmd(),
	)
}

// Execute runs the root command. Errors are printed in red.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.Bad.Fprintf(os.Stderr, "lombard: %v\n", err)
	}
	return err
}

// newEngine builds an engine from the loaded config around store, or an
// empty network if store is nil.
func newEngine(layoutName string, store *graph.Store) (*engine.Engine, error) {
	if layoutName == "" {
		layoutName = cfg.Layout.Default
	}
	return engine.New(engine.Options{
		Width:     cfg.Canvas.Width,
		Height:    cfg.Canvas.Height,
		Curvature: cfg.Render.Curvature,
		ShowDates: cfg.Render.ShowDates,
		Layout:    layoutName,
		Solver:    cfg.Solver.Options(),
		Store:     store,
	})
}

// openNetwork loads the snapshot at networkFile into a new engine and
// applies the configured default layout. A missing file gives an empty
// network. The engine starts with an empty undo history.
func openNetwork() (*engine.Engine, error) {
	store := graph.New()
	data, err := os.ReadFile(networkFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		rep, err := store.LoadJSON(data)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", networkFile, err)
		}
		logger.Debug("network loaded", "file", networkFile, "nodes", rep.Nodes, "links", rep.Links)
	}
	e, err := newEngine(string(layout.Force), store)
	if err != nil {
		return nil, err
	}
	if err := e.SetLayout(cfg.Layout.Default); err != nil {
		logger.Warn("default layout does not apply", "layout", cfg.Layout.Default, "error", err)
	}
	return e, nil
}

// mustOpen is openNetwork for commands that cannot continue without it.
func mustOpen() *engine.Engine {
	e, err := openNetwork()
	if err != nil {
		ui.Bad.Printf("  Failed to open network: %v\n", err)
		os.Exit(1)
	}
	return e
}

// openOrEmpty is mustOpen for commands that replace the network. An
// unreadable snapshot is replaced by an empty network.
func openOrEmpty() *engine.Engine {
	e, err := openNetwork()
	if err == nil {
		return e
	}
	logger.Warn("replacing unreadable network", "file", networkFile, "error", err)
	e, err = newEngine(string(layout.Force), nil)
	if err != nil {
		ui.Bad.Printf("  %v\n", err)
		os.Exit(1)
	}
	return e
}

// saveNetwork writes the engine's snapshot to networkFile, replacing it
// atomically.
func saveNetwork(e *engine.Engine) error {
	var data []byte
	var err error
	e.View(func(s *graph.Store) { data, err = s.ExportJSON() })
	if err != nil {
		return err
	}
	return writeAtomic(networkFile, data)
}

func mustSave(e *engine.Engine) {
	if err := saveNetwork(e); err != nil {
		ui.Bad.Printf("  Failed to save network: %v\n", err)
		os.Exit(1)
	}
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
