package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
)

// Locator resolves the directory that holds the native host binary.
type Locator interface {
	Locate(ctx context.Context) (string, error)
}

// DirLocator returns a fixed directory.
type DirLocator string

func (d DirLocator) Locate(context.Context) (string, error) {
	if d == "" {
		return "", fmt.Errorf("binary directory is empty")
	}
	return string(d), nil
}

// CargoLocator asks cargo for the workspace target directory and appends
// the build profile, e.g. <target>/release.
type CargoLocator struct {
	// ManifestDir is the directory cargo runs in. Empty means the current directory.
	ManifestDir string
	// Profile defaults to "release".
	Profile string
	// Cargo is the cargo executable. Defaults to "cargo".
	Cargo string
}

type cargoMetadata struct {
	TargetDirectory string `json:"target_directory"`
}

func (c CargoLocator) Locate(ctx context.Context) (string, error) {
	cargo := c.Cargo
	if cargo == "" {
		cargo = "cargo"
	}
	profile := c.Profile
	if profile == "" {
		profile = "release"
	}

	cmd := exec.CommandContext(ctx, cargo, "metadata", "--format-version", "1", "--no-deps")
	cmd.Dir = c.ManifestDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("cargo metadata: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	var meta cargoMetadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return "", fmt.Errorf("decode cargo metadata: %w", err)
	}
	if meta.TargetDirectory == "" {
		return "", fmt.Errorf("cargo metadata has no target_directory")
	}
	return filepath.Join(meta.TargetDirectory, profile), nil
}
