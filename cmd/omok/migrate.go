package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/YongminGwon/omok-server/internal/config"
	"github.com/YongminGwon/omok-server/internal/repository/postgres"
)

// newMigrateCmd creates the migrate command group. Only the postgres
// backend has versioned migrations; sqlite creates its schema on open and
// redis has none.
func newMigrateCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.PersistentFlags().String("postgres-url", "", "postgres connection URL (default store.postgresURL)")

	var confirmed bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert every migration (drops all data)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops every table; rerun with --yes")
			}
			return withMigrator(cmd, *configFile, func(m *postgres.Migrator) error {
				if err := m.Down(); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "down").Wrap(err)
				}
				cmd.Println("All migrations reverted")
				return nil
			})
		},
	}
	down.Flags().BoolVar(&confirmed, "yes", false, "confirm dropping all data")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, *configFile, func(m *postgres.Migrator) error {
					cmd.Println("Running migrations...")
					if err := m.Up(); err != nil {
						return oops.Code("MIGRATION_FAILED").With("operation", "up").Wrap(err)
					}
					cmd.Println("Migrations completed successfully")
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, *configFile, func(m *postgres.Migrator) error {
					v, dirty, err := m.Version()
					if err != nil {
						return oops.Code("MIGRATION_FAILED").With("operation", "version").Wrap(err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func withMigrator(cmd *cobra.Command, configFile string, fn func(*postgres.Migrator) error) error {
	// Read, not Load: migrating needs no JWT secret.
	cfg, err := config.Read(config.Options{File: configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	if cfg.Store.PostgresURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("a postgres URL is required (--postgres-url or OMOK_STORE_POSTGRESURL)")
	}

	m, err := postgres.NewMigrator(cfg.Store.PostgresURL)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}
