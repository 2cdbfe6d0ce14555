package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Defantinis/n8n-ultimate-sub007/internal/config"
)

var version = "dev"

type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "n8n-gen",
		Short:         "Generate n8n workflow graphs from natural-language requirements",
		Long:          "n8n-gen turns a free-text automation request into a validated, laid-out workflow document ready for the n8n execution engine.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to config file (YAML)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newGenerateCmd(flags))
	cmd.AddCommand(newTemplatesCmd(flags))

	return cmd
}

// loadConfig resolves the effective configuration and installs the logger.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	loader := config.NewLoader(config.NewValidator())

	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = loader.Load(flags.configPath)
	} else {
		cfg, err = loader.LoadWithDefaults(defaultConfigPath())
	}
	if err != nil {
		return nil, err
	}

	setupLogging(cfg, flags.verbose)
	return cfg, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "n8n-gen.yaml"
	}
	return home + "/.n8n-gen/config.yaml"
}

func setupLogging(cfg *config.Config, verbose bool) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
