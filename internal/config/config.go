package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Stream     StreamConfig     `koanf:"stream"`
	Aggregator AggregatorConfig `koanf:"aggregator"`
	Archive    ArchiveConfig    `koanf:"archive"`
	Output     OutputConfig     `koanf:"output"`
}

// ServerConfig configures the SSE replay server.
type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ReplayDelay     string `koanf:"replay_delay"`
	ReadTimeout     string `koanf:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout"`
	IdleTimeout     string `koanf:"idle_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

// StreamConfig configures the SSE client used by watch.
type StreamConfig struct {
	URL            string `koanf:"url"`
	Delay          string `koanf:"delay"`
	MaxFrameBytes  int    `koanf:"max_frame_bytes"`
	ConnectTimeout string `koanf:"connect_timeout"`
}

type AggregatorConfig struct {
	SplitToolPhases  bool `koanf:"split_tool_phases"`
	KeepThinkingOnly bool `koanf:"keep_thinking_only"`
}

type ArchiveConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Path         string `koanf:"path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

type OutputConfig struct {
	Format string `koanf:"format"`
}

const (
	DefaultServerPort             = 3000
	DefaultServerLogLevel         = "info"
	DefaultServerReplayDelay      = "100ms"
	DefaultServerReadTimeout      = "10s"
	DefaultServerWriteTimeout     = "0s" // SSE responses outlive any fixed write deadline
	DefaultServerIdleTimeout      = "60s"
	DefaultServerShutdownTimeout  = "5s"
	DefaultStreamURL              = "http://localhost:3000/api/chat-stream"
	DefaultStreamDelay            = "30ms"
	DefaultStreamMaxFrameBytes    = 1024 * 1024
	DefaultStreamConnectTimeout   = "10s"
	DefaultAggregatorSplitPhases  = false
	DefaultAggregatorKeepThinking = false
	DefaultArchiveEnabled         = false
	DefaultArchiveLockTimeout     = "10s"
	DefaultArchiveLockRetry       = "100ms"
	DefaultArchiveLockMaxRetry    = 100
	DefaultOutputFormat           = "table"
	EnvPrefix                     = "CHATJSON_"
)

// HomeDir is the per-user directory holding config.yaml and the archive.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chatjson"), nil
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	archivePath := ""
	if dir, err := HomeDir(); err == nil {
		archivePath = filepath.Join(dir, "archive")
	}

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.port":                   DefaultServerPort,
		"server.log_level":              DefaultServerLogLevel,
		"server.replay_delay":           DefaultServerReplayDelay,
		"server.read_timeout":           DefaultServerReadTimeout,
		"server.write_timeout":          DefaultServerWriteTimeout,
		"server.idle_timeout":           DefaultServerIdleTimeout,
		"server.shutdown_timeout":       DefaultServerShutdownTimeout,
		"stream.url":                    DefaultStreamURL,
		"stream.delay":                  DefaultStreamDelay,
		"stream.max_frame_bytes":        DefaultStreamMaxFrameBytes,
		"stream.connect_timeout":        DefaultStreamConnectTimeout,
		"aggregator.split_tool_phases":  DefaultAggregatorSplitPhases,
		"aggregator.keep_thinking_only": DefaultAggregatorKeepThinking,
		"archive.enabled":               DefaultArchiveEnabled,
		"archive.path":                  archivePath,
		"archive.lock_timeout":          DefaultArchiveLockTimeout,
		"archive.lock_retry":            DefaultArchiveLockRetry,
		"archive.lock_max_retry":        DefaultArchiveLockMaxRetry,
		"output.format":                 DefaultOutputFormat,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else if dir, err := HomeDir(); err == nil {
		globalPath := filepath.Join(dir, "config.yaml")
		if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
			slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
		}
	}

	// Environment Variables
	k.Load(env.Provider(EnvPrefix, ".", envKey), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps CHATJSON_ARCHIVE__LOCK_TIMEOUT to archive.lock_timeout: a double
// underscore separates sections, a single one stays part of the key.
func envKey(s string) string {
	trimmed := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(trimmed, "__", ".")
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	archivePath, err := ExpandPath(cfg.Archive.Path)
	if err != nil {
		return err
	}
	if archivePath != "" {
		cfg.Archive.Path = archivePath
	}
	return nil
}
