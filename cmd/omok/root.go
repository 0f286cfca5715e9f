package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/YongminGwon/omok-server/internal/config"
)

// NewRootCmd creates the root command for the omok CLI.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "omok",
		Short: "Omok game server",
		Long: `Omok game server: player accounts, session tokens and match history
over a JSON HTTP API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(newServeCmd(&configFile))
	cmd.AddCommand(newMigrateCmd(&configFile))
	cmd.AddCommand(newHashPasswordCmd())

	return cmd
}

// newLogger builds the process logger from log.level and log.format.
//
// Log levels (from least to most severe): Debug → Info → Warn → Error.
func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
