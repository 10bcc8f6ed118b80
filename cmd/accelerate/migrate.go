// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accelerateai/accelerate/internal/config"
	"github.com/accelerateai/accelerate/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its actions.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back, and inspect database schema migrations.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator, _ []string) error {
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations (destroys all data)",
			RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator, _ []string) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("migrations rolled back")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if dirty {
					cmd.Printf("version: %d (dirty)\n", version)
				} else {
					cmd.Printf("version: %d\n", version)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the migration version without running migrations",
			Long: `Set the migration version without running migrations. Use only to
recover from a dirty state after fixing the database by hand.`,
			Args: cobra.ExactArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return oops.Code("INVALID_VERSION").
						With("value", args[0]).
						Errorf("version must be an integer")
				}
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("forced version to %d\n", version)
				return nil
			}),
		},
	)

	return cmd
}

// withMigrator loads the configuration, opens a migrator, and guarantees it is
// closed after the action runs.
func withMigrator(fn func(cmd *cobra.Command, m *store.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, nil)
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return oops.Code("CONFIG_INVALID").
				Errorf("database URL is required (set database.url or DATABASE_URL)")
		}

		migrator, err := store.NewMigrator(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() { _ = migrator.Close() }()

		return fn(cmd, migrator, args)
	}
}
