package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"coin-feed/internal/bootstrap"
	"coin-feed/internal/event"
	pgstore "coin-feed/internal/storage/postgres"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the latest new coin, buy and sell",
	Long: `Print the bootstrap snapshot a freshly connected subscriber receives:
the latest new coin, the latest buy and the latest sell.`,
	Args: cobra.NoArgs,
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

		envs, err := bootstrap.NewService(pgstore.NewContentStore(pool)).Snapshot(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if envs == nil {
				envs = []event.Envelope{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(envs)
		}

		if len(envs) == 0 {
			fmt.Fprintln(out, "no activity yet")
			return nil
		}
		for _, env := range envs {
			fmt.Fprintln(out, describe(env))
		}
		return nil
	},
}
