package cmd

import (
	"fmt"
	"os"

	"moodtune/config"
	"moodtune/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "moodtune",
	Short:        "moodtune is a mood-based music streaming service.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime loads configuration and starts the global logger for the
// commands that touch backing services.
func loadRuntime() (*config.Config, error) {
	cfg := config.Load()
	err := logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
