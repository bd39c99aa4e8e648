// Command feedctl inspects and operates a coin feed deployment.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"coin-feed/internal/config"
	"coin-feed/internal/observability"
)

var (
	configPath string
	jsonOutput bool

	cfg    config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "feedctl",
	Short:         "Operate and inspect the coin feed",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := config.Resolve(configPath)
		if err != nil {
			return err
		}

		// flags override file and environment, but only when given
		flags := cmd.Flags()
		if flags.Changed("postgres-dsn") {
			resolved.PostgresDSN, _ = flags.GetString("postgres-dsn")
		}
		if flags.Changed("clickhouse-dsn") {
			resolved.ClickhouseDSN, _ = flags.GetString("clickhouse-dsn")
		}
		if flags.Changed("nats-url") {
			resolved.NATSURL, _ = flags.GetString("nats-url")
		}
		if flags.Changed("log-level") {
			resolved.LogLevel, _ = flags.GetString("log-level")
		}
		cfg = resolved

		logger, err = observability.NewLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger.SetOutput(os.Stderr)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "TOML config file (default $COINFEED_CONFIG)")
	pf.BoolVar(&jsonOutput, "json", false, "output as JSON")
	pf.String("postgres-dsn", "", "PostgreSQL connection string (default $POSTGRES_DSN)")
	pf.String("clickhouse-dsn", "", "ClickHouse connection string (default $CLICKHOUSE_DSN)")
	pf.String("nats-url", "", "NATS server URL (default $NATS_URL)")
	pf.String("log-level", "info", "log level")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
