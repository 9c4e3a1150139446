// Package config loads the optional per-root configuration file that
// selects a hasher and lists extra ignore patterns, falling back to sane
// defaults whenever the file is absent or incomplete.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/arklib/ark/internal/arkerr"
)

const fileName = "config.yaml"

const fileHeader = "# ark index configuration\n# hasher: blake3 (default) or crc32\n\n"

// Config is the optional configuration document at <root>/.ark/config.yaml.
type Config struct {
	Hasher         string   `yaml:"hasher,omitempty"`
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`
}

// DefaultConfig is used when no config file exists.
func DefaultConfig() Config {
	return Config{Hasher: "blake3"}
}

// path returns the on-disk location of the config file for root.
func path(root, arkDir string) string {
	return filepath.Join(root, arkDir, fileName)
}

// Load reads <root>/<arkDir>/config.yaml. A missing file is not an error:
// it returns DefaultConfig().
func Load(root, arkDir string) (Config, error) {
	raw, err := os.ReadFile(path(root, arkDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, arkerr.Io(path(root, arkDir), err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, arkerr.Parse(path(root, arkDir), err)
	}
	if cfg.Hasher == "" {
		cfg.Hasher = "blake3"
	}
	return cfg, nil
}

// Save writes cfg to <root>/<arkDir>/config.yaml, creating the directory
// if needed.
func Save(root, arkDir string, cfg Config) error {
	dir := filepath.Join(root, arkDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return arkerr.Io(dir, err)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return arkerr.Parse(path(root, arkDir), err)
	}
	content := append([]byte(fileHeader), out...)
	if err := os.WriteFile(path(root, arkDir), content, 0o644); err != nil {
		return arkerr.Io(path(root, arkDir), err)
	}
	return nil
}
