package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AoWangg/chat-json/internal/aggregator"
	"github.com/AoWangg/chat-json/internal/config"
	"github.com/AoWangg/chat-json/internal/stream"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [url]",
	Short: "Aggregate a live server-sent event stream",
	Long: `Connect to a chat stream, print each group as it is finalized, and print
the counters when the stream ends.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		formatter, err := newFormatter(loadedCfg)
		if err != nil {
			return err
		}

		url := loadedCfg.Stream.URL
		if len(args) == 1 {
			url = args[0]
		}
		delay, err := config.DurationOrDefault(loadedCfg.Stream.Delay, config.DefaultStreamDelay)
		if err != nil {
			return fmt.Errorf("parse stream delay: %w", err)
		}

		out := cmd.OutOrStdout()
		printer := aggregator.ObserverFuncs{
			Group: func(g aggregator.Group) {
				text, err := formatter.FormatGroup(&g)
				if err != nil {
					slog.Error("Failed to format group", "group_id", g.ID, "error", err)
					return
				}
				fmt.Fprintln(out, text)
			},
		}

		agg, err := newAggregation(loadedCfg, url, printer)
		if err != nil {
			return err
		}
		defer agg.Close()

		client, err := stream.NewClient(&loadedCfg.Stream)
		if err != nil {
			return err
		}

		sig := NewSignalHandler(cmd.Context())
		sig.Start()
		defer sig.Stop()

		res, err := client.Stream(sig.Context(), url, delay, agg.session)
		slog.Info("Stream closed", "events", res.Events, "dropped", res.Dropped, "groups", res.Groups)
		if err != nil && !interrupted(sig.Context(), err) {
			return err
		}

		stats, err := formatter.FormatStats(agg.session.Stats())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, stats)
		return nil
	},
}

// interrupted reports whether err only reflects the watch being stopped.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("stream.url", config.DefaultStreamURL, "stream endpoint")
	watchCmd.Flags().String("stream.delay", config.DefaultStreamDelay, "pacing requested from the server")
}
