package main

import (
	"fmt"
	"os"

	"github.com/AoWangg/chat-json/internal/config"
	chaterrors "github.com/AoWangg/chat-json/internal/errors"
	"github.com/AoWangg/chat-json/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chatjson",
	Short: "Aggregate multi-agent chat event streams",
	Long: `chatjson reassembles a chunked multi-agent chat stream (reasoning, tool calls
and response fragments) into live messages and finalized conversation groups.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", exitCategory(err), err)
		os.Exit(1)
	}
}

func exitCategory(err error) string {
	if chaterrors.IsRetryable(err) {
		return "stream failed (retry may succeed)"
	}
	switch chaterrors.Category(err) {
	case "ErrInvalidInput":
		return "invalid input"
	case "ErrNotFound":
		return "not found"
	case "ErrConflict":
		return "conflict"
	case "Canceled":
		return "canceled"
	default:
		return "error"
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chatjson/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("output.format", "o", config.DefaultOutputFormat, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().Bool("aggregator.split_tool_phases", config.DefaultAggregatorSplitPhases, "keep tool call start and end as separate entities")
	rootCmd.PersistentFlags().Bool("aggregator.keep_thinking_only", config.DefaultAggregatorKeepThinking, "emit a group for rounds that produced no response")
	rootCmd.PersistentFlags().Bool("archive.enabled", config.DefaultArchiveEnabled, "archive finalized groups")
	rootCmd.PersistentFlags().String("archive.path", "", "archive directory (default is $HOME/.chatjson/archive)")
}
