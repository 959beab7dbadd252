// Package cli implements the xhist CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/rcliao/xhist/internal/config"
	"github.com/rcliao/xhist/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	dataDir     string
	histControl []string
	logLevel    string
	formatFlag  string
)

var validFormats = []string{"text", "json"}

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "xhist",
	Short: "Persistent shell command history",
	Long: "Records executed shell commands in xonsh-history.sqlite and replays them oldest first.\n" +
		"Settings come from flags, then $XONSH_DATA_DIR / $HISTCONTROL, then the config file.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !slices.Contains(validFormats, formatFlag) {
			return fmt.Errorf("invalid format %q: must be one of %v", formatFlag, validFormats)
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $XDG_CONFIG_HOME/xhist/config.toml)")
	RootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory holding xonsh-history.sqlite")
	RootCmd.PersistentFlags().StringSliceVar(&histControl, "histcontrol", nil, "History controls: ignoredups, ignoreerr")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

// loadConfig layers flags over the environment over the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if len(histControl) > 0 {
		cfg.HistControl = histControl
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore() (*store.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dir, err := cfg.ResolvedDataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return store.NewSQLiteStore(store.Options{
		DataDir:  dir,
		Controls: cfg.Controls(),
		Logger:   logger,
	})
}

func jsonOutput() bool {
	return formatFlag == "json"
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
