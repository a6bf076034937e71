package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/mattjoyce/witnessgen/internal/log"
)

const (
	// DefaultBinary is the executable name of the native host.
	DefaultBinary = "native_host_runner"

	// waitDelay bounds how long Wait blocks on output pipes held open by
	// processes that escaped the group kill.
	waitDelay = 2 * time.Second
)

// Config configures a Supervisor.
type Config struct {
	// Binary is the executable name inside the located directory.
	Binary  string
	Locator Locator
	// Env is added on top of the parent environment. Defaults to RUST_LOG=info.
	Env map[string]string
	// KillByName additionally runs pkill on timeout against every command
	// line whose program or argument is a path ending in Binary. It reaches
	// runs started by other supervisors, so only one run per Binary may be
	// in flight.
	KillByName bool
	// Stdout and Stderr default to the parent's streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Supervisor spawns and bounds native host processes.
type Supervisor struct {
	binary     string
	locator    Locator
	env        []string
	killByName bool
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger
}

// New creates a Supervisor from cfg, filling defaults.
func New(cfg Config) *Supervisor {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Locator == nil {
		cfg.Locator = CargoLocator{}
	}
	if cfg.Env == nil {
		cfg.Env = map[string]string{"RUST_LOG": "info"}
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	return &Supervisor{
		binary:     cfg.Binary,
		locator:    cfg.Locator,
		env:        env,
		killByName: cfg.KillByName,
		stdout:     cfg.Stdout,
		stderr:     cfg.Stderr,
		logger:     log.WithComponent("host"),
	}
}

// Binary returns the executable name this supervisor runs.
func (s *Supervisor) Binary() string { return s.binary }

// Run executes the native host for req and waits for it to exit, for the
// timeout to elapse, or for ctx to be cancelled, whichever comes first.
//
// A process that exits on its own yields a completed Result and a nil error
// whatever its exit status. On timeout the process group is killed and a
// *TimeoutError is returned. If ctx is cancelled the process is killed the
// same way and ctx.Err() is returned.
func (s *Supervisor) Run(ctx context.Context, req Request, timeout time.Duration) (Result, error) {
	res := Result{State: StateIdle}
	if timeout <= 0 {
		return res, fmt.Errorf("host: timeout must be positive, got %v", timeout)
	}
	logger := s.logger.With("binary", s.binary)

	res.State = StateSpawning
	dir, err := s.locator.Locate(ctx)
	if err != nil {
		res.State = StateSpawnFailed
		return res, &SpawnError{Binary: s.binary, Err: fmt.Errorf("locate binary: %w", err)}
	}
	path := filepath.Join(dir, s.binary)

	// Not CommandContext: termination is handled below so it can target the group.
	cmd := exec.Command(path, req.Args()...)
	cmd.Env = append(os.Environ(), s.env...)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	logger.Debug("spawning native host", "path", path, "args", cmd.Args[1:], "timeout", timeout)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		res.State = StateSpawnFailed
		logger.Error("failed to spawn native host", "path", path, "error", err)
		return res, &SpawnError{Binary: s.binary, Err: err}
	}
	res.State = StateRunning
	res.PID = cmd.Process.Pid

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	select {
	case err := <-waitErr:
		res.Elapsed = time.Since(start)
		return s.complete(res, err, logger)

	case <-timer.C:
		s.terminate(cmd, logger)
		<-waitErr
		res.Elapsed = time.Since(start)
		res.State = StateTimedOut
		logger.Error("native host timed out", "timeout", timeout, "elapsed", res.Elapsed)
		return res, &TimeoutError{Binary: s.binary, Timeout: timeout, Elapsed: res.Elapsed}

	case <-ctx.Done():
		s.terminate(cmd, logger)
		<-waitErr
		res.Elapsed = time.Since(start)
		res.State = StateCancelled
		logger.Warn("native host cancelled", "elapsed", res.Elapsed)
		return res, ctx.Err()
	}
}

func (s *Supervisor) complete(res Result, err error, logger *slog.Logger) (Result, error) {
	res.State = StateCompleted
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("wait for native host: %w", err)
		}
		res.ExitCode = exitErr.ExitCode()
		res.Signal = exitSignal(exitErr.ProcessState)
		logger.Warn("native host exited abnormally", "exit_code", res.ExitCode, "signal", res.Signal, "elapsed", res.Elapsed)
		return res, nil
	}
	logger.Info("native host completed", "elapsed", res.Elapsed)
	return res, nil
}

// terminate kills the child's process group, then optionally every process
// sharing the binary name.
func (s *Supervisor) terminate(cmd *exec.Cmd, logger *slog.Logger) {
	if err := killGroup(cmd.Process); err != nil {
		logger.Error("failed to kill native host process group", "pid", cmd.Process.Pid, "error", err)
	}
	if !s.killByName {
		return
	}
	// pkill exits 1 when nothing matched, which is the normal case here.
	out, err := exec.Command("pkill", "-KILL", "-f", namePattern(s.binary)).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return
		}
		logger.Error("pkill fallback failed", "error", err, "output", string(out))
		return
	}
	logger.Warn("pkill fallback terminated processes by name", "name", s.binary)
}

// namePattern matches the binary as a whole path component, so
// "native_host_runner.log" or "native_host_runner_v2" do not match.
func namePattern(binary string) string {
	return "(^|/)" + regexp.QuoteMeta(binary) + "( |$)"
}
