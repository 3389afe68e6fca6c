package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	LibrarySources []string `koanf:"library_sources"` // paths to scan for music
	DatabasePath   string   `koanf:"database_path"`   // empty means the XDG data dir

	Playback PlaybackConfig `koanf:"playback"`
}

// PlaybackConfig holds session startup settings.
type PlaybackConfig struct {
	SeedQueueSize int  `koanf:"seed_queue_size"` // tracks queued on startup (1-500, default: 25)
	Shuffle       bool `koanf:"shuffle"`         // start with shuffle enabled
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	for i, src := range cfg.LibrarySources {
		cfg.LibrarySources[i] = expandPath(src)
	}
	if cfg.DatabasePath != "" {
		cfg.DatabasePath = expandPath(cfg.DatabasePath)
	}

	return cfg, nil
}

func configPaths() []string {
	paths := []string{
		filepath.Join(xdg.ConfigHome, "cadenza", "config.toml"),
	}

	// ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	if cfg.SeedQueueSize <= 0 || cfg.SeedQueueSize > 500 {
		cfg.SeedQueueSize = 25
	}

	return cfg
}
