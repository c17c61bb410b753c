package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/osse101/CatchLog_Go/internal/bootstrap"
	"github.com/osse101/CatchLog_Go/internal/config"
	"github.com/osse101/CatchLog_Go/internal/database"
)

type migrationStatus struct {
	Version int64 `json:"version"`
}

// NewMigrateCommand creates the migrate command and its up, down and status subcommands
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				if err := database.Migrate(ctx, pool); err != nil {
					return err
				}
				return printVersion(ctx, opts, cmd.OutOrStdout(), pool)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down <version>",
		Short: "Roll back to the given schema version (0 drops everything)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || version < 0 {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid version %q", args[0]), err)
			}
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				if err := database.Rollback(ctx, pool, version); err != nil {
					return err
				}
				return printVersion(ctx, opts, cmd.OutOrStdout(), pool)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				return printVersion(ctx, opts, cmd.OutOrStdout(), pool)
			})
		},
	})

	return cmd
}

func withPool(ctx context.Context, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return WrapExitError(ExitCommandError, "migrations need STORE=postgres", nil)
	}

	pool, err := bootstrap.NewDatabasePool(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "database unreachable", err)
	}
	defer pool.Close()

	return fn(ctx, pool)
}

func printVersion(ctx context.Context, opts *RootOptions, w io.Writer, pool *pgxpool.Pool) error {
	version, err := database.SchemaVersion(ctx, pool)
	if err != nil {
		return err
	}
	return output(opts, w, migrationStatus{Version: version}, func(w io.Writer) {
		fmt.Fprintf(w, "schema version: %d\n", version)
	})
}
