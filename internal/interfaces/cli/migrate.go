package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reubenai/dealsense/internal/bootstrap"
	"github.com/reubenai/dealsense/internal/infrastructure/database/postgres"
)

// newMigrateCmd groups schema-migration subcommands.
func newMigrateCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}
	cmd.AddCommand(
		newMigrateUpCmd(opts),
		newMigrateDownCmd(opts),
		newMigrateStatusCmd(opts),
	)
	return cmd
}

func newMigrateUpCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := bootstrap.RunMigrations(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd(opts *RootOptions) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll the schema back by N steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			dsn := postgres.BuildDSN(cfg.Database)
			if err := postgres.RollbackMigration(dsn, bootstrap.MigrationSourceURL(cfg), steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d step(s)\n", steps)
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migration steps to roll back")
	return cmd
}

func newMigrateStatusCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			dsn := postgres.BuildDSN(cfg.Database)
			version, dirty, err := postgres.MigrationStatus(dsn, bootstrap.MigrationSourceURL(cfg))
			if err != nil {
				return err
			}
			return printResult(cmd, opts, map[string]interface{}{
				"version": version,
				"dirty":   dirty,
			})
		},
	}
}
