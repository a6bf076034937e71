package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattjoyce/witnessgen/internal/config"
	"github.com/mattjoyce/witnessgen/internal/history"
	"github.com/mattjoyce/witnessgen/internal/report"
)

func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	limit := fs.Int("limit", 20, "Maximum number of runs to list")
	id := fs.String("id", "", "Show a single run in detail")
	jsonOut := fs.Bool("json", false, "Output runs as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if !cfg.History.Enabled {
		fmt.Fprintln(os.Stderr, "History is disabled in config")
		return 1
	}

	ctx := context.Background()
	ledger, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer closeLedger()

	theme := report.NewDefaultTheme()
	if *id != "" {
		run, err := ledger.Get(ctx, *id)
		if err != nil {
			if errors.Is(err, history.ErrRunNotFound) {
				fmt.Fprintf(os.Stderr, "Run not found: %s\n", *id)
			} else {
				fmt.Fprintf(os.Stderr, "Failed to read run: %v\n", err)
			}
			return 1
		}
		if *jsonOut {
			return printJSON(run)
		}
		fmt.Print(report.RunDetail(theme, run))
		return 0
	}

	runs, err := ledger.List(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		return 1
	}
	if *jsonOut {
		return printJSON(runs)
	}
	fmt.Println(report.HistoryTable(theme, runs))
	return 0
}

func runConfigNoun(args []string) int {
	if len(args) < 1 || hasHelpFlag(args[:1]) {
		fmt.Fprintln(os.Stderr, "Usage: witnessgen config lock --config <path>")
		return 1
	}
	switch args[0] {
	case "lock":
		return runConfigLock(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return 1
	}
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("config lock", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: witnessgen config lock --config <path>")
		return 1
	}

	path := *configPath
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "config.yaml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
		return 1
	}
	// Refuse to lock a file that would not load.
	if _, err := config.Parse(data); err != nil {
		fmt.Fprintf(os.Stderr, "Config is invalid, not locking: %v\n", err)
		return 1
	}

	hash, err := config.Lock(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}
	fmt.Printf("WROTE .checksums: %s\n", hash)
	return 0
}
