package main

import (
	"fmt"
	"log/slog"

	"github.com/AoWangg/chat-json/internal/aggregator"
	"github.com/AoWangg/chat-json/internal/event"

	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <events.json>",
	Short: "Aggregate a recorded event file",
	Long: `Feed every event of a JSON array file through the aggregator and print the
finalized groups and counters. A file without an end event is finalized at its end.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		formatter, err := newFormatter(loadedCfg)
		if err != nil {
			return err
		}

		events, err := event.LoadFile(args[0])
		if err != nil {
			return err
		}

		agg, err := newAggregation(loadedCfg, args[0])
		if err != nil {
			return err
		}
		defer agg.Close()

		dropped := replayEvents(agg.session, events)
		slog.Info("Replay finished",
			"file", args[0],
			"events", len(events),
			"dropped", dropped,
			"groups", len(agg.session.Groups()))

		return printReport(cmd.OutOrStdout(), formatter, agg.session)
	},
}

// replayEvents applies events in order and finalizes a trailing round left
// open by a missing end event. It returns the number of dropped events.
func replayEvents(s *aggregator.Session, events []event.Event) int {
	dropped := 0
	s.StartSession()
	for i, evt := range events {
		if err := s.HandleEvent(evt); err != nil {
			dropped++
			slog.Debug("Dropping event", "index", i, "kind", evt.Kind, "error", err)
		}
	}
	if len(s.Live()) > 0 {
		s.Finish()
	}
	return dropped
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
