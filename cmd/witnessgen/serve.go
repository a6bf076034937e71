package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattjoyce/witnessgen/internal/log"
	"github.com/mattjoyce/witnessgen/internal/oracle"
	"github.com/mattjoyce/witnessgen/internal/preimage"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	dir := fs.String("dir", "", "Preimage directory to serve")
	listen := fs.String("listen", "", "Override oracle.listen from config")
	runID := fs.String("run-id", "", "Run id to report alongside the preimage summary")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Usage: witnessgen serve --dir <path> [--listen addr] [--config path]")
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Oracle.Listen = *listen
	}

	store, err := preimage.Load(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load preimages: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := oracle.New(oracle.Config{Listen: cfg.Oracle.Listen, RunID: *runID}, store, log.WithComponent("oracle"))
	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Oracle server failed: %v\n", err)
		return 1
	}
	return 0
}
