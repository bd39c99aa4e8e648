package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"coin-feed/internal/storage/migrations"
	pgstore "coin-feed/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded PostgreSQL and ClickHouse migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.PostgresDSN == "" {
			return errors.New("postgres DSN is required")
		}

		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "postgres: applied %s\n", name)
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "postgres: up to date")
		}

		if cfg.ClickhouseDSN == "" {
			return nil
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return err
		}
		defer conn.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "clickhouse: schema applied")
		return nil
	},
}
