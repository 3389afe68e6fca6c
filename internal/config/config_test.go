package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
library_sources = ["/music", "~/more-music"]
database_path = "/tmp/cadenza-test.db"

[playback]
seed_queue_size = 40
shuffle = true
`)
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.LibrarySources) != 2 || cfg.LibrarySources[0] != "/music" {
		t.Errorf("LibrarySources = %v", cfg.LibrarySources)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "more-music"); cfg.LibrarySources[1] != want {
		t.Errorf("LibrarySources[1] = %q, want %q (tilde expanded)", cfg.LibrarySources[1], want)
	}
	if cfg.DatabasePath != "/tmp/cadenza-test.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}

	pb := cfg.GetPlaybackConfig()
	if pb.SeedQueueSize != 40 {
		t.Errorf("SeedQueueSize = %d, want 40", pb.SeedQueueSize)
	}
	if !pb.Shuffle {
		t.Error("Shuffle = false, want true")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.LibrarySources) != 0 {
		t.Errorf("LibrarySources = %v, want empty", cfg.LibrarySources)
	}

	pb := cfg.GetPlaybackConfig()
	if pb.SeedQueueSize != 25 {
		t.Errorf("SeedQueueSize = %d, want default 25", pb.SeedQueueSize)
	}
}

func TestGetPlaybackConfigClampsSeedSize(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 25},
		{-3, 25},
		{501, 25},
		{1, 1},
		{500, 500},
	}
	for _, tc := range cases {
		cfg := &Config{Playback: PlaybackConfig{SeedQueueSize: tc.in}}
		if got := cfg.GetPlaybackConfig().SeedQueueSize; got != tc.want {
			t.Errorf("SeedQueueSize(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
