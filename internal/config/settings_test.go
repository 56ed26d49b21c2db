package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handiism/audiobook-downloader/internal/audio"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.OutputTemplate != "{title}" || s.MaxConcurrentDownloads != 8 {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "output_format: m4b\ncombine: true\nstall_timeout: 5\ntag_actions:\n  comment: empty\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Format() != "m4b" || !s.Combine {
		t.Errorf("format/combine not loaded: %+v", s)
	}
	if s.UserAgent != "AudiobookDownloader" {
		t.Error("unset fields should keep defaults")
	}
	if got := s.ToHTTPOptions().StallTimeout; got != 5*time.Second {
		t.Errorf("StallTimeout = %v", got)
	}

	cfg, err := s.ToTagConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Actions["comment"] != audio.TagEmpty {
		t.Errorf("comment action = %v", cfg.Actions["comment"])
	}
}

func TestSaveAndLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	s := DefaultSettings()
	s.OutputTemplate = "/books/{author}/{title}"
	s.CreatePlaylist = true

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.OutputTemplate != s.OutputTemplate || !loaded.CreatePlaylist {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestToTagConfig_InvalidAction(t *testing.T) {
	s := DefaultSettings()
	s.TagActions = map[string]string{"genre": "maybe"}
	if _, err := s.ToTagConfig(); err == nil {
		t.Error("expected error for invalid tag action")
	}
}

func TestFormat(t *testing.T) {
	s := DefaultSettings()
	s.OutputFormat = " .M4B "
	if s.Format() != "m4b" {
		t.Errorf("Format() = %q", s.Format())
	}
	s.OutputFormat = ""
	if s.Format() != "mp3" {
		t.Errorf("Format() = %q", s.Format())
	}
}
