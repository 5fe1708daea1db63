package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/commerce-import/internal/storage/postgres"
	"github.com/vladislavdragonenkov/commerce-import/internal/version"
)

const (
	defaultTimeout = 30 * time.Second
	dsnEnv         = "IMPORT_POSTGRES_DSN"
)

var errDSNRequired = errors.New(dsnEnv + " (or --dsn) is required")

type migrateOptions struct {
	dsn       string
	upSteps   int
	downSteps int
	timeout   time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts migrateOptions

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply schema migrations of the commerce import store",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "PostgreSQL DSN (fallback: "+dsnEnv+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "timeout of the whole migration run")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *postgres.Store) error {
				if err := store.MigrateUp(ctx, opts.upSteps); err != nil {
					return fmt.Errorf("migrate up failed: %w", err)
				}
				return printStatus(ctx, cmd.OutOrStdout(), store, "migrate up ok")
			})
		},
	}
	up.Flags().IntVar(&opts.upSteps, "steps", 0, "number of migrations to apply (0 = all)")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *postgres.Store) error {
				if err := store.MigrateDown(ctx, opts.downSteps); err != nil {
					return fmt.Errorf("migrate down failed: %w", err)
				}
				return printStatus(ctx, cmd.OutOrStdout(), store, "migrate down ok")
			})
		},
	}
	down.Flags().IntVar(&opts.downSteps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *postgres.Store) error {
				if err := printStatus(ctx, cmd.OutOrStdout(), store, "migration status"); err != nil {
					return err
				}
				infos, err := store.Migrations(ctx)
				if err != nil {
					return fmt.Errorf("list migrations failed: %w", err)
				}
				printMigrations(cmd.OutOrStdout(), infos)
				return nil
			})
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	root.AddCommand(up, down, status, versionCmd)
	return root
}

func resolveDSN(flagValue string) (string, error) {
	dsn := strings.TrimSpace(flagValue)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv(dsnEnv))
	}
	if dsn == "" {
		return "", errDSNRequired
	}
	return dsn, nil
}

func withStore(cmd *cobra.Command, opts migrateOptions, fn func(context.Context, *postgres.Store) error) error {
	dsn, err := resolveDSN(opts.dsn)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn, postgres.WithMaxOpenConns(2))
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer store.Close()

	return fn(ctx, store)
}

func printStatus(ctx context.Context, out io.Writer, store *postgres.Store, prefix string) error {
	current, count, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "%s: version=%d applied=%d\n", prefix, current, count)
	return nil
}

func printMigrations(out io.Writer, infos []postgres.MigrationInfo) {
	for _, info := range infos {
		state := "pending"
		if info.Applied {
			state = "applied"
		}
		_, _ = fmt.Fprintf(out, "%04d_%s\t%s\n", info.Version, info.Name, state)
	}
}
