// Package config resolves xhist settings from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/rcliao/xhist/internal/model"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvDataDir     = "XONSH_DATA_DIR"
	EnvHistControl = "HISTCONTROL"
	EnvLogLevel    = "XHIST_LOG_LEVEL"
)

var validLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Config is the resolved xhist configuration.
type Config struct {
	DataDir     string   `toml:"data_dir"`
	HistControl []string `toml:"histcontrol"`
	LogLevel    string   `toml:"log_level"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		DataDir:  defaultDataDir(),
		LogLevel: "info",
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "xonsh")
	}
	return filepath.Join("~", ".local", "share", "xonsh")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "xhist", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "xhist", "config.toml")
}

// Load reads a TOML config file over Defaults. With an empty path it uses
// DefaultPath and tolerates the file being absent. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s (possible typos?)", path, strings.Join(keys, ", "))
	}

	return &cfg, nil
}

// ApplyEnv overrides file values with non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := getenv(EnvHistControl); v != "" {
		c.HistControl = SplitHistControl(v)
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// SplitHistControl splits a comma separated HISTCONTROL value.
func SplitHistControl(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports every problem found, joined together.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, fmt.Errorf("data_dir must not be empty"))
	}
	for _, raw := range c.HistControl {
		if _, err := model.ParseControl(raw); err != nil {
			errs = append(errs, fmt.Errorf("histcontrol: %w", err))
		}
	}
	if _, ok := validLevels[strings.ToLower(c.LogLevel)]; !ok {
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error (got %q)", c.LogLevel))
	}

	return errors.Join(errs...)
}

// Controls returns the recognized history controls, without duplicates.
// Call Validate first; unknown values are dropped here.
func (c *Config) Controls() []model.Control {
	seen := map[model.Control]bool{}
	var out []model.Control
	for _, raw := range c.HistControl {
		ctl, err := model.ParseControl(raw)
		if err != nil || seen[ctl] {
			continue
		}
		seen[ctl] = true
		out = append(out, ctl)
	}
	return out
}

// ResolvedDataDir expands a leading ~ and makes the data dir absolute.
func (c *Config) ResolvedDataDir() (string, error) {
	dir := c.DataDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: expand %s: %w", dir, err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	dir = os.ExpandEnv(dir)
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	return abs, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	if lvl, ok := validLevels[strings.ToLower(c.LogLevel)]; ok {
		return lvl
	}
	return slog.LevelInfo
}
