package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sunhs/consult.code/internal/config"
	"github.com/sunhs/consult.code/internal/log"
)

// Command groups.
const (
	groupPickers = "pickers"
	groupSetup   = "setup"
)

var (
	configFile string
	cacheDir   string
	debug      bool
	activeFile string
)

var rootCmd = &cobra.Command{
	Use:   "consult",
	Short: "fuzzy pickers for files, projects and search results",
	Long: `consult - fuzzy pickers for files, projects and search results
  - browse directories and open files
  - jump between projects and their most used files
  - search a project with ripgrep as you type`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyColorMode()
	},
}

// Execute runs the root command. SIGTERM cancels a running picker.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupPickers, Title: "Pickers:"},
		&cobra.Group{ID: groupSetup, Title: "Setup:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/consult/config.yaml)")
	flags.StringVar(&cacheDir, "cache-dir", "", "cache directory (default: ~/.consult)")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.StringVar(&activeFile, "file", "", "document treated as focused (default: current directory)")
	flags.StringVar(&colorMode, "color", "auto", "color output: auto, always, or never")

	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(grepCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// configPath returns the --config file or the default location.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.DefaultPaths().ConfigFile()
}

// loadConfig reads the config file and applies the command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger opens the log file so the picker owns the terminal. The returned
// closer releases the file.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	path := cfg.Log.File
	if path == "" {
		path = config.DefaultPaths().LogFile()
	}
	f, err := log.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(&log.Config{Output: f, Level: level, Debug: os.Getenv(log.EnvDebug) == "1"})
	return logger, f, nil
}

// openApp loads the config and builds an App. The returned function saves
// the caches and releases the log file.
func openApp(cmd *cobra.Command) (*App, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, logFile, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	active := activeFile
	if active == "" {
		active, _ = os.Getwd()
	}
	if active != "" {
		if abs, err := filepath.Abs(active); err == nil {
			active = abs
		}
	}

	app, err := NewApp(Options{
		Config:     cfg,
		ConfigFile: configPath(),
		Logger:     logger,
		Out:        cmd.ErrOrStderr(),
		Active:     active,
	})
	if err != nil {
		_ = logFile.Close()
		return nil, nil, err
	}
	closer := func() error {
		defer logFile.Close()
		return app.Close()
	}
	return app, closer, nil
}
