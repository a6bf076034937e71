package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattjoyce/witnessgen/internal/log"
	"github.com/mattjoyce/witnessgen/internal/preimage"
)

func TestMain(m *testing.M) {
	log.SetupWriter("ERROR", "json", io.Discard)
	os.Exit(m.Run())
}

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func captureCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return captureOutputWithExitCode(t, func() int { return runCLI(args) })
}

func writeTestPreimages(t *testing.T, dir string, values ...string) []preimage.Key {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	keys := make([]preimage.Key, 0, len(values))
	for _, v := range values {
		k := preimage.Key(sha256.Sum256([]byte(v)))
		if err := os.WriteFile(filepath.Join(dir, k.String()+".bin"), []byte(v), 0o644); err != nil {
			t.Fatal(err)
		}
		keys = append(keys, k)
	}
	return keys
}

func TestRunCLI_Usage(t *testing.T) {
	code, _, stderr := captureCLI(t)
	if code != 1 || !strings.Contains(stderr, "Usage: witnessgen") {
		t.Fatalf("no-arg code = %d, stderr = %s", code, stderr)
	}

	code, _, stderr = captureCLI(t, "help")
	if code != 0 || !strings.Contains(stderr, "Commands:") {
		t.Fatalf("help code = %d, stderr = %s", code, stderr)
	}

	code, _, stderr = captureCLI(t, "frobnicate")
	if code != 1 || !strings.Contains(stderr, "Unknown command: frobnicate") {
		t.Fatalf("unknown code = %d, stderr = %s", code, stderr)
	}
}

func TestRunVersion_JSON(t *testing.T) {
	code, stdout, stderr := captureCLI(t, "version", "--json")
	if code != 0 {
		t.Fatalf("version code = %d, stderr = %s", code, stderr)
	}
	var info versionInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("version output is not JSON: %v\n%s", err, stdout)
	}
	if info.Version != version {
		t.Errorf("version = %q, want %q", info.Version, version)
	}
}

func TestRunLoad(t *testing.T) {
	dir := t.TempDir()
	keys := writeTestPreimages(t, dir, "alpha", "beta", "gamma")

	store, err := preimage.Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := captureCLI(t, "load", "--dir", dir)
	if code != 0 {
		t.Fatalf("load code = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, "preimages:   3") || !strings.Contains(stdout, store.Fingerprint()) {
		t.Errorf("unexpected load output:\n%s", stdout)
	}

	code, stdout, stderr = captureCLI(t, "load", "--dir", dir, "--get", keys[1].String())
	if code != 0 || stdout != "beta" {
		t.Errorf("get code = %d, stdout = %q, stderr = %s", code, stdout, stderr)
	}

	code, stdout, _ = captureCLI(t, "load", "--dir", dir, "--keys")
	listed := strings.Fields(stdout)
	if code != 0 || len(listed) != 3 {
		t.Fatalf("keys code = %d, stdout = %s", code, stdout)
	}
	// Every listed key must be accepted back by --get.
	for _, k := range listed {
		code, _, stderr = captureCLI(t, "load", "--dir", dir, "--get", k)
		if code != 0 {
			t.Errorf("get %s code = %d, stderr = %s", k, code, stderr)
		}
	}

	code, stdout, _ = captureCLI(t, "load", "--dir", dir, "--json")
	var summary struct {
		Preimages int   `json:"preimages"`
		Bytes     int64 `json:"bytes"`
	}
	if code != 0 || json.Unmarshal([]byte(stdout), &summary) != nil {
		t.Fatalf("json code = %d, stdout = %s", code, stdout)
	}
	if summary.Preimages != 3 || summary.Bytes != int64(len("alpha")+len("beta")+len("gamma")) {
		t.Errorf("unexpected summary %+v", summary)
	}

	missing := sha256.Sum256([]byte("missing"))
	code, _, stderr = captureCLI(t, "load", "--dir", dir, "--get", hex.EncodeToString(missing[:]))
	if code != 1 || !strings.Contains(stderr, "Preimage not found") {
		t.Errorf("missing get code = %d, stderr = %s", code, stderr)
	}
}

func TestRunLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeTestPreimages(t, dir, "ok")
	if err := os.WriteFile(filepath.Join(dir, "junk.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := captureCLI(t, "load", "--dir", dir)
	if code != 1 {
		t.Fatalf("load code = %d, stdout = %s", code, stdout)
	}
	if !strings.Contains(stderr, "junk.bin") {
		t.Errorf("stderr does not name the bad file: %s", stderr)
	}
}

func TestRunGenerate_MissingFlags(t *testing.T) {
	// The first missing flag in declaration order is always the one reported.
	for i := 0; i < 5; i++ {
		code, _, stderr := captureCLI(t, "run", "--l2-chain-id", "10")
		if code != 1 || !strings.Contains(stderr, "Missing required flag --l1-head\n") {
			t.Fatalf("code = %d, stderr = %s", code, stderr)
		}
	}

	code, _, stderr := captureCLI(t, "run",
		"--l1-head", "0x"+strings.Repeat("11", 32),
		"--l2-head", "0x"+strings.Repeat("22", 32),
		"--l2-chain-id", "10")
	if code != 1 || !strings.Contains(stderr, "Missing required flag --l2-output-root") {
		t.Fatalf("code = %d, stderr = %s", code, stderr)
	}

	code, _, stderr = captureCLI(t, "run", "--l1-head", "0x1234")
	if code != 1 || !strings.Contains(stderr, "want 32 bytes") {
		t.Fatalf("short hash code = %d, stderr = %s", code, stderr)
	}
}

func TestRunConfigLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("host:\n  timeout: 5m\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := captureCLI(t, "config", "lock", "--config", dir)
	if code != 0 || !strings.Contains(stdout, "WROTE .checksums:") {
		t.Fatalf("lock code = %d, stdout = %s, stderr = %s", code, stdout, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, ".checksums")); err != nil {
		t.Fatalf(".checksums not written: %v", err)
	}

	if err := os.WriteFile(path, []byte("host:\n  timeout: -5m\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr = captureCLI(t, "config", "lock", "--config", path)
	if code != 1 || !strings.Contains(stderr, "not locking") {
		t.Fatalf("invalid lock code = %d, stderr = %s", code, stderr)
	}
}
