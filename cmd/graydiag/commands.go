package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-diagnostics/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-diagnostics/migrations"
)

// newRootCmd builds the graydiag command tree. With no subcommand it runs
// the service until the context is cancelled.
func newRootCmd() *cobra.Command {
	var configFlag string

	root := &cobra.Command{
		Use:           "graydiag",
		Short:         "Reboot and factory reset dispatcher for OIC resources",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), resolveConfigPath(configFlag))
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		"config file (default $GRAYDIAG_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(newVersionCmd(), newMigrateCmd(&configFlag))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "graydiag %s\n", version)
	if commit != "unknown" {
		fmt.Fprintf(w, "Commit: %s\n", commit)
	}
	if date != "unknown" {
		fmt.Fprintf(w, "Built: %s\n", date)
	}
}

// newMigrateCmd manages the journal schema without starting the service.
func newMigrateCmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the request journal schema",
	}

	withDB := func(fn func(ctx context.Context, db *database.DB, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolveConfigPath(*configFlag))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			db, err := database.Open(database.Config{
				Path:        cfg.Database.Path,
				WALMode:     cfg.Database.WALMode,
				BusyTimeout: cfg.Database.BusyTimeout,
			})
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close() //nolint:errcheck // Read-mostly command; nothing to recover
			return fn(c.Context(), db, c.OutOrStdout())
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			Args:  cobra.NoArgs,
			RunE:  withDB(migrateStatus),
		},
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, db *database.DB, out io.Writer) error {
				if err := db.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: up to date\n", db.Path())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, db *database.DB, out io.Writer) error {
				if err := db.MigrateDown(ctx, migrations.FS, migrations.Dir); err != nil {
					return err
				}
				return migrateStatus(ctx, db, out)
			}),
		},
	)
	return cmd
}

func migrateStatus(ctx context.Context, db *database.DB, out io.Writer) error {
	applied, pending, err := db.MigrationStatus(ctx, migrations.FS, migrations.Dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "database: %s\n", db.Path())
	for _, r := range applied {
		fmt.Fprintf(out, "applied  %s  %s\n", r.Version, r.AppliedAt.Format(time.RFC3339))
	}
	for _, m := range pending {
		fmt.Fprintf(out, "pending  %s  %s\n", m.Version, m.Name)
	}
	return nil
}

// resolveConfigPath prefers the --config flag over the environment.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	return getConfigPath()
}
