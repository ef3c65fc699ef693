package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tinytelemetry/logmine/internal/miner"
	"github.com/tinytelemetry/logmine/internal/model"
	"github.com/tinytelemetry/logmine/internal/pattern"
	"github.com/tinytelemetry/logmine/internal/report"
)

const (
	defaultMaxDistance = 0.6
	defaultMinMembers  = 2
	defaultFormat      = string(report.FormatText)
	defaultColor       = colorAuto
	defaultLogLevel    = "warn"
	defaultLogFormat   = "text"

	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	MaxDistance    float64 `mapstructure:"max-distance"`
	MinMembers     int     `mapstructure:"min-members"`
	Jobs           int     `mapstructure:"jobs"`
	Split          string  `mapstructure:"split"`
	ChunkSize      int     `mapstructure:"chunk-size"`
	RefillAttempts int     `mapstructure:"refill-attempts"`
	Format         string  `mapstructure:"format"`
	Sort           bool    `mapstructure:"sort"`
	Color          string  `mapstructure:"color"`
	Progress       bool    `mapstructure:"progress"`
	DBPath         string  `mapstructure:"db"`
	Addr           string  `mapstructure:"addr"`
	LogLevel       string  `mapstructure:"log-level"`
	LogFormat      string  `mapstructure:"log-format"`
	ConfigPath     string  `mapstructure:"-"` // not from config file
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max-distance", defaultMaxDistance)
	v.SetDefault("min-members", defaultMinMembers)
	v.SetDefault("jobs", 0)
	v.SetDefault("split", pattern.DefaultSeparator)
	v.SetDefault("chunk-size", miner.DefaultChunkSize)
	v.SetDefault("refill-attempts", miner.DefaultRefillAttempts)
	v.SetDefault("format", defaultFormat)
	v.SetDefault("sort", false)
	v.SetDefault("color", defaultColor)
	v.SetDefault("progress", true)
	v.SetDefault("db", "")
	v.SetDefault("addr", model.DefaultServeAddr)
	v.SetDefault("log-level", defaultLogLevel)
	v.SetDefault("log-format", defaultLogFormat)
}

// mustBindPFlag binds a viper key to a cobra flag and panics if the binding
// fails, which only happens for a nil flag.
func mustBindPFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

// loadConfig resolves the command's configuration from flags, LOGMINE_*
// environment variables, the config file and defaults, in that order.
func loadConfig(cmd *cobra.Command) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetEnvPrefix("LOGMINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	setDefaults(v)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" {
			return
		}
		mustBindPFlag(v, f.Name, f)
	})

	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("finding home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "logmine", "config.yml")
	}
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &configFileNotFound) || os.IsNotExist(err)
		if !missing || explicit {
			return cfg, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	return cfg, nil
}

// validate rejects settings that would fail or misbehave once input is read.
func (c appConfig) validate() error {
	if c.MaxDistance < 0 || c.MaxDistance > 1 {
		return fmt.Errorf("invalid max-distance: %v (want 0..1)", c.MaxDistance)
	}
	if c.MinMembers < 1 {
		return fmt.Errorf("invalid min-members: %d (want >= 1)", c.MinMembers)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("invalid jobs: %d (want >= 0, 0 = one per core)", c.Jobs)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("invalid chunk-size: %d (want >= 1)", c.ChunkSize)
	}
	if c.RefillAttempts < 0 {
		return fmt.Errorf("invalid refill-attempts: %d (want >= 0)", c.RefillAttempts)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	switch c.Color {
	case colorAuto, colorAlways, colorNever:
	default:
		return fmt.Errorf("invalid color: %q (want auto, always or never)", c.Color)
	}
	if _, err := pattern.NewTokenizer(c.Split); err != nil {
		return err
	}
	return nil
}

// expandHome resolves a leading "~/" in a path.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "logmine", "logmine.duckdb"), nil
}
