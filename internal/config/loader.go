package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a YAML file, layering it over
// Defaults. ${VAR} references are expanded from the environment before
// parsing. When a .checksums manifest sits next to the file, the file's
// BLAKE3 hash must match it.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", absPath, err)
	}

	if err := verifyIfLocked(absPath); err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", absPath, err)
	}
	resolveRelativePaths(cfg, filepath.Dir(absPath))
	return cfg, nil
}

// Parse decodes YAML bytes over Defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	expanded := interpolateEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Left in place so validation can name the missing variable.
		return match
	})
}

func applyDefaults(cfg *Config) {
	def := Defaults()
	if cfg.Host.Binary == "" {
		cfg.Host.Binary = def.Host.Binary
	}
	if cfg.Host.Profile == "" {
		cfg.Host.Profile = def.Host.Profile
	}
	if cfg.Host.Env == nil {
		cfg.Host.Env = def.Host.Env
	}
	if cfg.Host.LockDir == "" {
		cfg.Host.LockDir = def.Host.LockDir
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = def.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = def.Service.LogFormat
	}
}

// resolveRelativePaths anchors relative paths at the config file's directory.
func resolveRelativePaths(cfg *Config, base string) {
	for _, p := range []*string{
		&cfg.Host.TargetDir,
		&cfg.Host.ManifestDir,
		&cfg.Host.LockDir,
		&cfg.Preimages.Root,
		&cfg.History.Path,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Host.Timeout <= 0 {
		return fmt.Errorf("host.timeout must be positive")
	}
	if strings.ContainsRune(cfg.Host.Binary, '/') {
		return fmt.Errorf("host.binary must be a file name, got %q", cfg.Host.Binary)
	}
	switch strings.ToLower(cfg.Service.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("service.log_format must be json or text, got %q", cfg.Service.LogFormat)
	}
	for k, v := range cfg.Host.Env {
		if k == "" || strings.ContainsRune(k, '=') {
			return fmt.Errorf("host.env: invalid variable name %q", k)
		}
		if m := envVarPattern.FindStringSubmatch(v); m != nil {
			return fmt.Errorf("host.env.%s: environment variable ${%s} is not set", k, m[1])
		}
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}
	return nil
}
