// Package config defines the on-disk layout of the .ward control directory
// and the repository configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIntervalDays  = 30
	DefaultRetentionDays = 90
)

// Config is the persisted shape of .ward/config.yaml.
type Config struct {
	General GeneralConfig `yaml:"general"`
	Verify  VerifyConfig  `yaml:"verify"`
	Prune   PruneConfig   `yaml:"prune"`
}

type GeneralConfig struct {
	Verbose bool `yaml:"verbose"`
}

type VerifyConfig struct {
	// Days between automatic checksum verification of a tracked file.
	IntervalDays int `yaml:"interval_days"`
}

type PruneConfig struct {
	// Days a history entry is kept before it becomes eligible for pruning.
	RetentionDays int `yaml:"retention_days"`
}

// Settings is the resolved, per-invocation view consumed by the engines.
// Engines never read the config file themselves.
type Settings struct {
	IntervalDays  int
	RetentionDays int
	Verbose       bool
}

func Default() Config {
	return Config{
		Verify: VerifyConfig{IntervalDays: DefaultIntervalDays},
		Prune:  PruneConfig{RetentionDays: DefaultRetentionDays},
	}
}

// Load reads the config file under root, writing the defaults first if the
// file does not exist yet.
func Load(root string) (Config, error) {
	path := ConfigPath(root)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if err := Save(root, cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg.Verify.IntervalDays < 0 {
		return Config{}, fmt.Errorf("config %q: verify.interval_days must not be negative", path)
	}
	if cfg.Prune.RetentionDays < 0 {
		return Config{}, fmt.Errorf("config %q: prune.retention_days must not be negative", path)
	}
	return cfg, nil
}

// Save writes cfg to .ward/config.yaml under root.
func Save(root string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(ControlDir(root), 0o755); err != nil {
		return fmt.Errorf("create control dir: %w", err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Resolve flattens cfg into the per-invocation settings bundle.
func (c Config) Resolve() Settings {
	return Settings{
		IntervalDays:  c.Verify.IntervalDays,
		RetentionDays: c.Prune.RetentionDays,
		Verbose:       c.General.Verbose,
	}
}
