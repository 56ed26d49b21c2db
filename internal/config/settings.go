package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/audiobook-downloader/internal/audio"
	"github.com/handiism/audiobook-downloader/internal/http"
	"gopkg.in/yaml.v2"
)

// Settings holds all configuration options.
type Settings struct {
	// Output settings
	OutputTemplate string `json:"output_template" yaml:"output_template"`
	OutputFormat   string `json:"output_format" yaml:"output_format"`
	Combine        bool   `json:"combine" yaml:"combine"`

	// Download settings
	MaxConcurrentDownloads int     `json:"max_concurrent_downloads" yaml:"max_concurrent_downloads"` // 0 = no limit
	ConnectTimeout         float64 `json:"connect_timeout" yaml:"connect_timeout"`                   // seconds
	ResponseHeaderTimeout  float64 `json:"response_header_timeout" yaml:"response_header_timeout"`   // seconds
	StallTimeout           float64 `json:"stall_timeout" yaml:"stall_timeout"`                       // seconds, 0 = disabled
	UserAgent              string  `json:"user_agent" yaml:"user_agent"`

	// External tools
	FFmpegPath  string `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath string `json:"ffprobe_path" yaml:"ffprobe_path"`

	// Cover art settings
	CoverArtInTagsResize  bool `json:"cover_art_in_tags_resize" yaml:"cover_art_in_tags_resize"`
	CoverArtInTagsMaxSize int  `json:"cover_art_in_tags_max_size" yaml:"cover_art_in_tags_max_size"`
	ConvertCoverArtToJPG  bool `json:"convert_cover_art_to_jpg" yaml:"convert_cover_art_to_jpg"`

	// Playlist settings (directory output only)
	CreatePlaylist bool   `json:"create_playlist" yaml:"create_playlist"`
	PlaylistFormat string `json:"playlist_format" yaml:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `json:"m3u_extended" yaml:"m3u_extended"`

	// Tag settings
	ModifyTags bool              `json:"modify_tags" yaml:"modify_tags"`
	TagActions map[string]string `json:"tag_actions" yaml:"tag_actions"` // tag name -> modify, empty, keep
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		OutputTemplate: "{title}",
		OutputFormat:   "mp3",
		Combine:        false,

		MaxConcurrentDownloads: 8,
		ConnectTimeout:         15,
		ResponseHeaderTimeout:  30,
		StallTimeout:           60,
		UserAgent:              "AudiobookDownloader",

		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",

		CoverArtInTagsResize:  false,
		CoverArtInTagsMaxSize: 1000,
		ConvertCoverArtToJPG:  false,

		CreatePlaylist: false,
		PlaylistFormat: "m3u",
		M3UExtended:    true,

		ModifyTags: true,
		TagActions: map[string]string{},
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads settings from a JSON or YAML file, chosen by extension.
// A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// ToHTTPOptions converts settings to http.Options.
func (s *Settings) ToHTTPOptions() http.Options {
	opts := http.DefaultOptions()
	if s.UserAgent != "" {
		opts.UserAgent = s.UserAgent
	}
	if s.ConnectTimeout > 0 {
		opts.ConnectTimeout = seconds(s.ConnectTimeout)
		opts.TLSHandshakeTimeout = seconds(s.ConnectTimeout)
	}
	if s.ResponseHeaderTimeout > 0 {
		opts.ResponseHeaderTimeout = seconds(s.ResponseHeaderTimeout)
	}
	opts.StallTimeout = seconds(s.StallTimeout)
	return opts
}

// ToTagConfig converts settings to audio.TagConfig.
func (s *Settings) ToTagConfig() (*audio.TagConfig, error) {
	cfg := audio.DefaultTagConfig()
	cfg.ModifyTags = s.ModifyTags
	for name, value := range s.TagActions {
		action, err := audio.ParseTagEditAction(value)
		if err != nil {
			return nil, err
		}
		cfg.Actions[strings.ToLower(name)] = action
	}
	return cfg, nil
}

// Format returns the output audio container format without the dot.
func (s *Settings) Format() string {
	f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s.OutputFormat)), ".")
	if f == "" {
		return "mp3"
	}
	return f
}
