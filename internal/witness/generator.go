package witness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattjoyce/witnessgen/internal/history"
	"github.com/mattjoyce/witnessgen/internal/host"
	"github.com/mattjoyce/witnessgen/internal/lock"
	"github.com/mattjoyce/witnessgen/internal/log"
	"github.com/mattjoyce/witnessgen/internal/preimage"
)

// ErrForeignDataDir is returned when clearing the data dir would remove
// anything other than preimage files.
var ErrForeignDataDir = errors.New("data dir holds non-preimage entries")

// CacheMode selects whether an existing preimage directory is reused.
type CacheMode string

const (
	// KeepCache loads the preimages already on disk without running the host.
	KeepCache CacheMode = "keep"
	// DeleteCache clears the data dir and regenerates it with the host.
	DeleteCache CacheMode = "delete"
)

// Witness is the result of a successful generation.
type Witness struct {
	RunID string
	Store *preimage.Store
	// GenerationTime is how long the native host ran; zero for KeepCache.
	GenerationTime time.Duration
}

// Options configures a Generator.
type Options struct {
	Runner HostRunner
	// Recorder is optional.
	Recorder Recorder
	// LockDir holds per-binary lock files. Empty disables locking.
	LockDir string
	Timeout time.Duration
}

// Generator sequences a native host run strictly before loading the
// preimages it wrote.
type Generator struct {
	runner   HostRunner
	recorder Recorder
	lockDir  string
	timeout  time.Duration
	logger   *slog.Logger
}

func New(opts Options) (*Generator, error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}
	return &Generator{
		runner:   opts.Runner,
		recorder: opts.Recorder,
		lockDir:  opts.LockDir,
		timeout:  opts.Timeout,
		logger:   log.WithComponent("witness"),
	}, nil
}

// Generate produces the preimage store for req. With DeleteCache the host
// runs first and must exit zero; with KeepCache the existing directory is
// loaded as is.
func (g *Generator) Generate(ctx context.Context, req host.Request, mode CacheMode) (*Witness, error) {
	if req.DataDir == "" {
		return nil, fmt.Errorf("request has no data dir")
	}
	switch mode {
	case KeepCache:
		return g.loadCached(ctx, req)
	case DeleteCache:
		return g.regenerate(ctx, req)
	default:
		return nil, fmt.Errorf("unknown cache mode %q", mode)
	}
}

func (g *Generator) loadCached(ctx context.Context, req host.Request) (*Witness, error) {
	runID := g.begin(ctx, req, KeepCache)
	logger := log.WithRun("witness", runID).With("data_dir", req.DataDir)

	store, err := preimage.Load(req.DataDir)
	if err != nil {
		g.finish(ctx, runID, history.Outcome{Status: history.StatusFailed, Err: err})
		if errors.Is(err, preimage.ErrDirectoryUnreadable) {
			return nil, fmt.Errorf("no cached preimages, run without the cache: %w", err)
		}
		return nil, err
	}

	g.finish(ctx, runID, loadedOutcome(history.StatusCached, host.Result{}, store))
	logger.Info("loaded cached preimages", "count", store.Len(), "fingerprint", store.Fingerprint())
	return &Witness{RunID: runID, Store: store}, nil
}

func (g *Generator) regenerate(ctx context.Context, req host.Request) (*Witness, error) {
	if g.lockDir != "" {
		l, err := lock.ForBinary(g.lockDir, g.runner.Binary())
		if err != nil {
			return nil, fmt.Errorf("acquire host lock: %w", err)
		}
		defer func() { _ = l.Release() }()
	}

	if err := checkClearable(req.DataDir); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(req.DataDir); err != nil {
		return nil, fmt.Errorf("clear data dir: %w", err)
	}
	if err := os.MkdirAll(req.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	runID := g.begin(ctx, req, DeleteCache)
	logger := log.WithRun("witness", runID).With("data_dir", req.DataDir)
	logger.Info("generating witness",
		"l2_chain_id", req.L2ChainID,
		"l2_block_number", req.L2BlockNumber,
		"timeout", g.timeout,
	)

	res, err := g.runner.Run(ctx, req, g.timeout)
	if err != nil {
		g.finish(ctx, runID, runOutcome(res, err))
		return nil, err
	}
	if exitErr := res.Err(); exitErr != nil {
		g.finish(ctx, runID, runOutcome(res, exitErr))
		return nil, exitErr
	}

	store, err := preimage.Load(req.DataDir)
	if err != nil {
		out := runOutcome(res, nil)
		out.Status = history.StatusFailed
		out.Err = err
		g.finish(ctx, runID, out)
		return nil, err
	}

	g.finish(ctx, runID, loadedOutcome(history.StatusSucceeded, res, store))
	logger.Info("witness generated",
		"elapsed", res.Elapsed,
		"preimages", store.Len(),
		"fingerprint", store.Fingerprint(),
	)
	return &Witness{RunID: runID, Store: store, GenerationTime: res.Elapsed}, nil
}

// runOutcome maps a host result and error onto a ledger outcome.
func runOutcome(res host.Result, err error) history.Outcome {
	out := history.Outcome{
		PID:     res.PID,
		Signal:  res.Signal,
		Elapsed: res.Elapsed,
		Err:     err,
	}
	if res.State == host.StateCompleted {
		code := res.ExitCode
		out.ExitCode = &code
	}

	switch {
	case err == nil:
		out.Status = history.StatusSucceeded
	case errors.Is(err, host.ErrTimeout):
		out.Status = history.StatusTimedOut
	case errors.Is(err, host.ErrSpawnFailed):
		out.Status = history.StatusSpawnFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Status = history.StatusCancelled
	default:
		out.Status = history.StatusFailed
	}
	return out
}

func loadedOutcome(status history.Status, res host.Result, store *preimage.Store) history.Outcome {
	out := runOutcome(res, nil)
	out.Status = status
	count := store.Len()
	out.PreimageCount = &count
	out.Fingerprint = store.Fingerprint()
	return out
}

func (g *Generator) begin(ctx context.Context, req host.Request, mode CacheMode) string {
	if g.recorder == nil {
		return ""
	}
	id, err := g.recorder.Begin(ctx, history.BeginRequest{
		Binary:    g.runner.Binary(),
		Request:   req,
		CacheMode: string(mode),
	})
	if err != nil {
		g.logger.Warn("failed to record run start", "error", err)
		return ""
	}
	return id
}

func (g *Generator) finish(ctx context.Context, id string, out history.Outcome) {
	if g.recorder == nil || id == "" {
		return
	}
	// Record even when the run was cancelled through ctx.
	if err := g.recorder.Finish(context.WithoutCancel(ctx), id, out); err != nil {
		g.logger.Warn("failed to record run outcome", "run_id", id, "error", err)
	}
}

// checkClearable refuses data dirs holding subdirectories, links or files
// whose names are not preimage keys. A missing dir is fine.
func checkClearable(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect data dir: %w", err)
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !e.Type().IsRegular() {
			return fmt.Errorf("%w: %s is not a regular file", ErrForeignDataDir, path)
		}
		if _, err := preimage.KeyFromFileName(e.Name()); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrForeignDataDir, path, err)
		}
	}
	return nil
}
