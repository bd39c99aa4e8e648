package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"coin-feed/internal/event"
	"coin-feed/internal/feed"
	"coin-feed/internal/publish"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream envelopes from NATS or a server's websocket feed",
	Long: `Stream envelopes as they are published.

With --ws the command connects to a server's /ws endpoint and receives the
bootstrap snapshot first. Otherwise it subscribes to NATS.
--coin adds per-coin updates; full broadcasts are always shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wsURL, _ := cmd.Flags().GetString("ws")
		coins, _ := cmd.Flags().GetStringSlice("coin")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if wsURL != "" {
			return watchWS(ctx, cmd.OutOrStdout(), wsURL, coins)
		}
		if cfg.NATSURL == "" {
			return errors.New("either --ws or a NATS URL is required")
		}
		return watchNATS(ctx, cmd.OutOrStdout(), cfg.NATSURL, coins)
	},
}

func init() {
	watchCmd.Flags().String("ws", "", "websocket feed URL, e.g. ws://localhost:8080/ws")
	watchCmd.Flags().StringSlice("coin", nil, "coin IDs to receive per-coin updates for")
}

func watchWS(ctx context.Context, out io.Writer, url string, coins []string) error {
	client, err := feed.NewClient(ctx, url, nil, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	for _, id := range coins {
		if err := client.Subscribe(id); err != nil {
			return fmt.Errorf("subscribe %s: %w", id, err)
		}
	}

	return printLoop(ctx, out, client.Envelopes())
}

func watchNATS(ctx context.Context, out io.Writer, url string, coins []string) error {
	sub, err := publish.NewNATSSubscriber(url,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.WithError(err).Warn("nats: disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats: reconnected")
		}),
	)
	if err != nil {
		return err
	}
	defer sub.Close()

	subjects := []string{publish.SubjectAll}
	for _, id := range coins {
		subjects = append(subjects, publish.SubjectCoinPrefix+id)
	}

	merged := make(chan event.Envelope, 64)
	for _, subject := range subjects {
		ch, cancel, err := sub.Subscribe(subject)
		if err != nil {
			return err
		}
		defer cancel()

		go func() {
			for env := range ch {
				select {
				case merged <- env:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return printLoop(ctx, out, merged)
}

func printLoop(ctx context.Context, out io.Writer, ch <-chan event.Envelope) error {
	enc := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-ch:
			if !ok {
				return nil
			}
			if jsonOutput {
				if err := enc.Encode(env); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintln(out, describe(env))
		}
	}
}
