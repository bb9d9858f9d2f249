// Package config loads search settings from flags, environment and an
// optional YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LOOKAHEAD_DB.
const EnvPrefix = "LOOKAHEAD"

// Keys.
const (
	KeyDB                 = "db"
	KeyCheckpointInterval = "checkpoint_interval"
	KeyStableCheckpoints  = "stable_checkpoints"
	KeyPVDepth            = "pv_depth"
	KeySettled            = "terminate_on_settled_children"
	KeyFormat             = "format"
	KeyVerbose            = "verbose"
)

// Defaults.
const (
	DefaultDB                 = "lookahead.db"
	DefaultCheckpointInterval = 1000
	DefaultPVDepth            = 8
	DefaultFormat             = "text"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config holds the resolved settings.
type Config struct {
	DB                         string `mapstructure:"db"`
	CheckpointInterval         int    `mapstructure:"checkpoint_interval"`
	StableCheckpoints          int    `mapstructure:"stable_checkpoints"`
	PVDepth                    int    `mapstructure:"pv_depth"`
	TerminateOnSettledChildren bool   `mapstructure:"terminate_on_settled_children"`
	Format                     string `mapstructure:"format"`
	Verbose                    bool   `mapstructure:"verbose"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDB, DefaultDB)
	v.SetDefault(KeyCheckpointInterval, DefaultCheckpointInterval)
	v.SetDefault(KeyStableCheckpoints, 0)
	v.SetDefault(KeyPVDepth, DefaultPVDepth)
	v.SetDefault(KeySettled, false)
	v.SetDefault(KeyFormat, DefaultFormat)
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges a YAML config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load resolves v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("%s must not be empty", KeyDB)
	}
	if c.CheckpointInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyCheckpointInterval, c.CheckpointInterval)
	}
	if c.StableCheckpoints < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyStableCheckpoints, c.StableCheckpoints)
	}
	if c.PVDepth < 0 {
		return fmt.Errorf("%s must not be negative, got %d", KeyPVDepth, c.PVDepth)
	}
	if !lo.Contains(ValidFormats, c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, ValidFormats)
	}
	return nil
}
