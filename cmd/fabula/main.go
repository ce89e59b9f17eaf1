// Fabula is a deterministic, module-driven runtime for text adventures.
// Usage: fabula [--version] [--plain] [--script <file>] [--trace] [--lib <dir>] <game_directory>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"

	"github.com/nathoo/fabula/baselib"
	"github.com/nathoo/fabula/cli"
	"github.com/nathoo/fabula/config"
	"github.com/nathoo/fabula/engine"
	"github.com/nathoo/fabula/loader"
	"github.com/nathoo/fabula/storage"
	"github.com/nathoo/fabula/tui"
)

// Tier numbers for the three module layers. Lower wins dispatch.
const (
	tierGame = 1
	tierLib  = 2
	tierCore = 3
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	trace := false
	var gameDir string
	var libDir string
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("fabula %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		case "--lib":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--lib requires a directory\n")
				os.Exit(1)
			}
			i++
			libDir = args[i]
		default:
			if gameDir == "" {
				gameDir = args[i]
			}
		}
	}

	if gameDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: fabula [--version] [--plain] [--script <file>] [--trace] [--lib <dir>] <game_directory>\n")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, closeTrace, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeTrace()

	store, err := buildStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	eng := engine.New(logger)
	if err := eng.LoadModule(baselib.New(), tierCore); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading baselib: %v\n", err)
		os.Exit(1)
	}
	if libDir != "" {
		if err := loadTier(eng, libDir, tierLib); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading library modules: %v\n", err)
			os.Exit(1)
		}
	}
	if err := loadTier(eng, gameDir, tierGame); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game modules: %v\n", err)
		os.Exit(1)
	}

	wd, err := loader.LoadWorld(filepath.Join(gameDir, "world.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading world: %v\n", err)
		os.Exit(1)
	}
	for _, ent := range wd.Entities {
		if err := eng.AddEntity(ent); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading world: %v\n", err)
			os.Exit(1)
		}
	}
	eng.World.SetPlayer(wd.Player)

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(eng, store)
		c.Intro = wd.Intro
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run()
		return
	}

	// Use the plain CLI if --plain or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(eng, store)
		c.Intro = wd.Intro
		c.Trace = trace
		c.Run()
		return
	}

	if err := tui.Run(eng, store, wd.Intro); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildLogger returns a text logger on stderr, fanned out to a JSON trace
// file when one is configured.
func buildLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	text := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if cfg.TraceFile == "" {
		return slog.New(text), func() {}, nil
	}

	f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening trace file: %w", err)
	}
	jsonTrace := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(slogmulti.Fanout(text, jsonTrace))
	return logger, func() { _ = f.Close() }, nil
}

func buildStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.RedisAddr != "" {
		return storage.NewRedisStore(context.Background(), cfg.RedisAddr, logger)
	}
	return storage.NewFileStore(cfg.SaveDir)
}

// loadTier loads every module in a directory at one tier.
func loadTier(eng *engine.Engine, dir string, tier int) error {
	mods, err := loader.LoadDir(dir)
	if err != nil {
		return err
	}
	for _, m := range mods {
		if err := eng.LoadModule(m, tier); err != nil {
			return err
		}
	}
	return nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
