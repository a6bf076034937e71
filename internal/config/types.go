package config

import (
	"path/filepath"
	"strconv"
	"time"
)

// Config represents the complete witnessgen configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Host      HostConfig      `yaml:"host"`
	Preimages PreimagesConfig `yaml:"preimages"`
	History   HistoryConfig   `yaml:"history"`
	Oracle    OracleConfig    `yaml:"oracle"`
}

// ServiceConfig defines process-wide settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// HostConfig defines how the native host binary is found and supervised.
type HostConfig struct {
	Binary string `yaml:"binary"`
	// TargetDir, when set, is the directory holding Binary and skips the
	// cargo metadata lookup.
	TargetDir   string            `yaml:"target_dir,omitempty"`
	ManifestDir string            `yaml:"manifest_dir,omitempty"`
	Profile     string            `yaml:"profile"`
	Timeout     time.Duration     `yaml:"timeout"`
	Env         map[string]string `yaml:"env,omitempty"`
	KillByName  bool              `yaml:"kill_by_name"`
	LockDir     string            `yaml:"lock_dir"`
}

// PreimagesConfig defines where preimage directories live.
type PreimagesConfig struct {
	// Root is the parent of per-block data dirs.
	Root string `yaml:"root"`
}

// DataDirFor returns the default data dir for one claimed block:
// <root>/<chain_id>/<block_number>.
func (p PreimagesConfig) DataDirFor(chainID, blockNumber uint64) string {
	return filepath.Join(p.Root, strconv.FormatUint(chainID, 10), strconv.FormatUint(blockNumber, 10))
}

// HistoryConfig defines the run ledger database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OracleConfig defines the read-only preimage HTTP server.
type OracleConfig struct {
	Listen string `yaml:"listen"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "witnessgen",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Host: HostConfig{
			Binary:  "native_host_runner",
			Profile: "release",
			Timeout: 40 * time.Minute,
			Env:     map[string]string{"RUST_LOG": "info"},
			LockDir: "./data/locks",
		},
		Preimages: PreimagesConfig{
			Root: "./data",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./data/history.db",
		},
		Oracle: OracleConfig{
			Listen: "127.0.0.1:8090",
		},
	}
}
