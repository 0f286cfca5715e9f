package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YongminGwon/omok-server/internal/config"
	"github.com/YongminGwon/omok-server/internal/server"
)

func newServeCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server. Settings come from defaults, the --config
file, OMOK_* environment variables and the flags below, in that order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.Options{File: *configFile, Flags: cmd.Flags()})
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.Log, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			// Cancelled on Ctrl+C or SIGTERM; Start then shuts down gracefully.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := server.OpenStore(ctx, cfg.Store, logger)
			if err != nil {
				logger.Error("failed to open store",
					slog.String("driver", cfg.Store.Driver),
					slog.String("error", err.Error()),
				)
				return err
			}

			srv, err := server.New(cfg, store, logger)
			if err != nil {
				_ = store.Close()
				logger.Error("failed to create server", slog.String("error", err.Error()))
				return err
			}

			return srv.Start(ctx)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}
