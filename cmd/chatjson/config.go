package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AoWangg/chat-json/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed templates/config.yaml
var embeddedDefaultConfig []byte

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the chatjson configuration file.`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Dump fully resolved configuration",
	Long:  `Display current configuration with all defaults applied and environment variables resolved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(configView(loadedCfg)); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return enc.Close()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration",
	Long:  `Create a default configuration file at $HOME/.chatjson/config.yaml if it doesn't exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := config.HomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
		}

		out := cmd.OutOrStdout()
		configPath := filepath.Join(configDir, "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(out, "Config already exists at %s\n", configPath)
			fmt.Fprintln(out, "Use 'chatjson config view' to see current configuration.")
			fmt.Fprintln(out, "To reinitialize, remove the existing config file first.")
			return nil
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to check config file: %w", err)
		}

		defaultConfig := strings.TrimSpace(string(embeddedDefaultConfig)) + "\n"
		if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("failed to write config to %s: %w", configPath, err)
		}

		fmt.Fprintf(out, "✓ Initialized config at %s\n", configPath)
		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "1. Run 'chatjson serve <events.json>' to replay a recorded stream")
		fmt.Fprintln(out, "2. Run 'chatjson watch' in another terminal to aggregate it")
		fmt.Fprintln(out, "3. Run 'chatjson config view' to verify your configuration")
		return nil
	},
}

// configView mirrors the config file layout. Config itself carries only koanf
// tags, so encoding it directly would produce lowercased Go field names.
func configView(c *config.Config) map[string]any {
	return map[string]any{
		"server": map[string]any{
			"port":             c.Server.Port,
			"log_level":        c.Server.LogLevel,
			"replay_delay":     c.Server.ReplayDelay,
			"read_timeout":     c.Server.ReadTimeout,
			"write_timeout":    c.Server.WriteTimeout,
			"idle_timeout":     c.Server.IdleTimeout,
			"shutdown_timeout": c.Server.ShutdownTimeout,
		},
		"stream": map[string]any{
			"url":             c.Stream.URL,
			"delay":           c.Stream.Delay,
			"max_frame_bytes": c.Stream.MaxFrameBytes,
			"connect_timeout": c.Stream.ConnectTimeout,
		},
		"aggregator": map[string]any{
			"split_tool_phases":  c.Aggregator.SplitToolPhases,
			"keep_thinking_only": c.Aggregator.KeepThinkingOnly,
		},
		"archive": map[string]any{
			"enabled":        c.Archive.Enabled,
			"path":           c.Archive.Path,
			"lock_timeout":   c.Archive.LockTimeout,
			"lock_retry":     c.Archive.LockRetry,
			"lock_max_retry": c.Archive.LockMaxRetry,
		},
		"output": map[string]any{
			"format": c.Output.Format,
		},
	}
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
