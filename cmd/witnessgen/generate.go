package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattjoyce/witnessgen/internal/host"
	"github.com/mattjoyce/witnessgen/internal/log"
	"github.com/mattjoyce/witnessgen/internal/preimage"
	"github.com/mattjoyce/witnessgen/internal/report"
	"github.com/mattjoyce/witnessgen/internal/witness"
)

type witnessOutput struct {
	RunID             string  `json:"run_id,omitempty"`
	DataDir           string  `json:"data_dir"`
	GenerationSeconds float64 `json:"generation_seconds"`
	Preimages         int     `json:"preimages"`
	Fingerprint       string  `json:"fingerprint"`
}

func runGenerate(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")

	var l1Head, l2Head, l2OutputRoot, l2Claim hashFlag
	fs.Var(&l1Head, "l1-head", "L1 head block hash (0x-prefixed)")
	fs.Var(&l2Head, "l2-head", "Agreed L2 head block hash")
	fs.Var(&l2OutputRoot, "l2-output-root", "Agreed L2 output root")
	fs.Var(&l2Claim, "l2-claim", "Claimed L2 output root")
	blockNumber := fs.Uint64("l2-block-number", 0, "Claimed L2 block number")
	chainID := fs.Uint64("l2-chain-id", 0, "L2 chain id")
	l2Node := fs.String("l2-node-address", "", "L2 execution node RPC address")
	l1Node := fs.String("l1-node-address", "", "L1 execution node RPC address")
	l1Beacon := fs.String("l1-beacon-address", "", "L1 beacon node address")
	dataDir := fs.String("data-dir", "", "Preimage directory (default <preimages.root>/<chain>/<block>)")
	execPath := fs.String("exec", "", "Path to the client program the host should run")
	server := fs.Bool("server", false, "Run the host in server mode")
	timeout := fs.Duration("timeout", 0, "Override host.timeout from config")
	useCache := fs.Bool("use-cache", false, "Reuse preimages already on disk instead of running the host")
	jsonOut := fs.Bool("json", false, "Output the result as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	required := []struct {
		name string
		h    *hashFlag
	}{
		{"--l1-head", &l1Head},
		{"--l2-head", &l2Head},
		{"--l2-output-root", &l2OutputRoot},
		{"--l2-claim", &l2Claim},
	}
	for _, r := range required {
		if !r.h.set {
			fmt.Fprintf(os.Stderr, "Missing required flag %s\n", r.name)
			return 1
		}
	}
	if *chainID == 0 {
		fmt.Fprintln(os.Stderr, "Missing required flag --l2-chain-id")
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *timeout > 0 {
		cfg.Host.Timeout = *timeout
	}
	if *dataDir == "" {
		*dataDir = cfg.Preimages.DataDirFor(*chainID, *blockNumber)
	}

	req := host.Request{
		L1Head:          l1Head.hash,
		L2Head:          l2Head.hash,
		L2OutputRoot:    l2OutputRoot.hash,
		L2Claim:         l2Claim.hash,
		L2BlockNumber:   *blockNumber,
		L2ChainID:       *chainID,
		L2NodeAddress:   *l2Node,
		L1NodeAddress:   *l1Node,
		L1BeaconAddress: *l1Beacon,
		DataDir:         *dataDir,
		Exec:            *execPath,
		Server:          *server,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, closeLedger, err := openLedger(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer closeLedger()

	opts := witness.Options{
		Runner: host.New(host.Config{
			Binary:     cfg.Host.Binary,
			Locator:    newLocator(cfg.Host),
			Env:        cfg.Host.Env,
			KillByName: cfg.Host.KillByName,
			// Keep stdout for the result.
			Stdout: os.Stderr,
		}),
		LockDir: cfg.Host.LockDir,
		Timeout: cfg.Host.Timeout,
	}
	if ledger != nil {
		opts.Recorder = ledger
	}
	gen, err := witness.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid generator settings: %v\n", err)
		return 1
	}

	mode := witness.DeleteCache
	if *useCache {
		mode = witness.KeepCache
	}

	w, err := gen.Generate(ctx, req, mode)
	if err != nil {
		log.WithComponent("main").Error("witness generation failed", "error", err)
		fmt.Fprintf(os.Stderr, "Witness generation failed: %v\n", err)
		return exitCodeFor(err)
	}

	out := witnessOutput{
		RunID:             w.RunID,
		DataDir:           req.DataDir,
		GenerationSeconds: w.GenerationTime.Seconds(),
		Preimages:         w.Store.Len(),
		Fingerprint:       w.Store.Fingerprint(),
	}
	if *jsonOut {
		return printJSON(out)
	}
	fmt.Println(report.WitnessSummary(report.NewDefaultTheme(), w.RunID, w.GenerationTime, out.Preimages, out.Fingerprint))
	return 0
}

// exitCodeFor follows timeout(1): 124 for a timeout, 130 for interruption.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, host.ErrTimeout):
		return 124
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

func runLoad(args []string) int {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	dir := fs.String("dir", "", "Preimage directory to load")
	get := fs.String("get", "", "Write the value of this hex key to stdout")
	listKeys := fs.Bool("keys", false, "List every key in sorted order")
	jsonOut := fs.Bool("json", false, "Output the summary as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Usage: witnessgen load --dir <path> [--keys] [--get <key>] [--json]")
		return 1
	}
	log.SetupWriter("warn", "json", os.Stderr)

	start := time.Now()
	store, err := preimage.Load(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load preimages: %v\n", err)
		return 1
	}
	elapsed := time.Since(start)

	if *get != "" {
		k, err := preimage.ParseKey(*get)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid key: %v\n", err)
			return 1
		}
		value, ok := store.Get(k)
		if !ok {
			fmt.Fprintf(os.Stderr, "Preimage not found: %s\n", k)
			return 1
		}
		_, _ = os.Stdout.Write(value)
		return 0
	}

	if *listKeys {
		for _, k := range store.Keys() {
			fmt.Println(k.String())
		}
		return 0
	}

	var size int64
	store.Range(func(_ preimage.Key, v []byte) bool {
		size += int64(len(v))
		return true
	})

	if *jsonOut {
		return printJSON(struct {
			DataDir     string  `json:"data_dir"`
			Preimages   int     `json:"preimages"`
			Bytes       int64   `json:"bytes"`
			Fingerprint string  `json:"fingerprint"`
			LoadSeconds float64 `json:"load_seconds"`
		}{*dir, store.Len(), size, store.Fingerprint(), elapsed.Seconds()})
	}
	fmt.Printf("preimages:   %d\n", store.Len())
	fmt.Printf("bytes:       %d\n", size)
	fmt.Printf("fingerprint: %s\n", store.Fingerprint())
	fmt.Printf("loaded in:   %s\n", elapsed.Round(time.Millisecond))
	return 0
}

func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}
