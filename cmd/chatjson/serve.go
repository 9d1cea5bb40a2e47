package main

import (
	"context"
	"fmt"

	"github.com/AoWangg/chat-json/internal/config"
	"github.com/AoWangg/chat-json/internal/event"
	"github.com/AoWangg/chat-json/internal/stream"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <events.json>",
	Short: "Replay an event file as a server-sent event stream",
	Long: `Serve the events of a JSON array file at /api/chat-stream, one frame per
event followed by a [DONE] frame. The delay query parameter (ms) paces frames.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		events, err := event.LoadFile(args[0])
		if err != nil {
			return err
		}

		srv, err := stream.NewServer(&loadedCfg.Server, events)
		if err != nil {
			return err
		}

		sig := NewSignalHandler(cmd.Context())
		sig.Start()
		defer sig.Stop()

		if err := srv.Start(sig.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Streaming %d events at http://%s%s\n", len(events), srv.Addr(), stream.StreamPath)

		<-sig.Context().Done()
		return srv.Stop(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("server.port", config.DefaultServerPort, "port to listen on")
	serveCmd.Flags().String("server.replay_delay", config.DefaultServerReplayDelay, "default pacing between frames")
}
