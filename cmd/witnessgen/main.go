package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mattjoyce/witnessgen/internal/config"
	"github.com/mattjoyce/witnessgen/internal/history"
	"github.com/mattjoyce/witnessgen/internal/host"
	"github.com/mattjoyce/witnessgen/internal/log"
	"github.com/mattjoyce/witnessgen/internal/storage"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "run":
		return runGenerate(args)
	case "load":
		return runLoad(args)
	case "serve":
		return runServe(args)
	case "history":
		return runHistory(args)
	case "config":
		return runConfigNoun(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: witnessgen <command> [flags]

Commands:
  run       Run the native host for one claim and load the preimages it wrote
  load      Load a preimage directory and print its summary
  serve     Serve a preimage directory over HTTP (read-only)
  history   List recorded native host runs
  config    Configuration utilities (lock)
  version   Print version information
  help      Show this help

Run 'witnessgen <command> --help' for command flags.
`)
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: witnessgen version [--json]")
		return 1
	}

	info := currentVersionInfo()
	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("witnessgen %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if commit != "" {
		if len(commit) > 12 {
			commit = commit[:12]
		}
		info.Commit = commit
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

// loadConfig reads the config at path, or returns Defaults when path is empty.
// It also initializes logging from the result.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Defaults()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	log.SetupWriter(cfg.Service.LogLevel, cfg.Service.LogFormat, os.Stderr)
	return cfg, nil
}

func newLocator(hc config.HostConfig) host.Locator {
	if hc.TargetDir != "" {
		return host.DirLocator(hc.TargetDir)
	}
	return host.CargoLocator{ManifestDir: hc.ManifestDir, Profile: hc.Profile}
}

// openLedger returns nil without error when history is disabled.
func openLedger(ctx context.Context, cfg *config.Config) (*history.Ledger, func(), error) {
	if !cfg.History.Enabled {
		return nil, func() {}, nil
	}
	db, err := storage.OpenSQLite(ctx, cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open history database: %w", err)
	}
	return history.New(db), func() { _ = db.Close() }, nil
}

// hashFlag is a flag.Value for 0x-prefixed 32-byte hashes.
type hashFlag struct {
	hash common.Hash
	set  bool
}

func (h *hashFlag) String() string {
	if h == nil || !h.set {
		return ""
	}
	return h.hash.Hex()
}

func (h *hashFlag) Set(s string) error {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return err
	}
	if len(raw) != common.HashLength {
		return fmt.Errorf("want %d bytes, got %d", common.HashLength, len(raw))
	}
	h.hash = common.BytesToHash(raw)
	h.set = true
	return nil
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" || arg == "help" {
			return true
		}
	}
	return false
}
