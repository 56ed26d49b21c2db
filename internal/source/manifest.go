package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/handiism/audiobook-downloader/internal/http"
	"github.com/handiism/audiobook-downloader/internal/model"
	"gopkg.in/yaml.v2"
)

var (
	// ErrNoTitle is returned when a manifest has no title.
	ErrNoTitle = errors.New("manifest has no title")

	// ErrNoFiles is returned when a manifest lists no files.
	ErrNoFiles = errors.New("manifest lists no files")
)

// Manifest is the on-disk description of an audiobook. JSON manifests
// are read by the same decoder since JSON is valid YAML.
type Manifest struct {
	Title    string            `yaml:"title"`
	Files    []ManifestFile    `yaml:"files"`
	Metadata yaml.MapSlice     `yaml:"metadata"`
	Cover    *ManifestCover    `yaml:"cover"`
	Chapters []ManifestChapter `yaml:"chapters"`
}

// ManifestFile is one downloadable part.
type ManifestFile struct {
	URL     string            `yaml:"url"`
	Ext     string            `yaml:"ext"`
	Title   string            `yaml:"title"`
	Headers map[string]string `yaml:"headers"`
}

// ManifestCover points at the cover image by URL or local path.
type ManifestCover struct {
	URL       string `yaml:"url"`
	Path      string `yaml:"path"`
	Extension string `yaml:"extension"`
}

// ManifestChapter is one chapter marker.
type ManifestChapter struct {
	Start Offset `yaml:"start"`
	Title string `yaml:"title"`
}

// Offset is a position in the audio. It decodes from a Go duration
// string ("1h2m3s"), a clock string ("01:02:03.5") or a number of seconds.
type Offset time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Offset) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var seconds float64
	if err := unmarshal(&seconds); err == nil {
		*o = Offset(seconds * float64(time.Second))
		return nil
	}

	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	d, err := ParseOffset(s)
	if err != nil {
		return err
	}
	*o = Offset(d)
	return nil
}

// ParseOffset parses a Go duration, a [hh:]mm:ss[.fff] clock value or
// a plain number of seconds.
func ParseOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty offset")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if !strings.Contains(s, ":") {
		seconds, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	var total float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
		total = total*60 + v
	}
	return time.Duration(total * float64(time.Second)), nil
}

// ManifestSource serves a Manifest file through the Source interface.
type ManifestSource struct {
	path     string
	client   *http.Client
	manifest *Manifest
}

// NewManifestSource creates a source reading the manifest at path.
// client is used to fetch a cover given by URL.
func NewManifestSource(path string, client *http.Client) *ManifestSource {
	return &ManifestSource{
		path:   path,
		client: client,
	}
}

// Before loads and validates the manifest.
func (s *ManifestSource) Before(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return fmt.Errorf("parse manifest %s: %w", s.path, err)
	}
	s.manifest = m
	return nil
}

// ParseManifest decodes and validates manifest data.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return nil, ErrNoTitle
	}
	if len(m.Files) == 0 {
		return nil, ErrNoFiles
	}
	for i, f := range m.Files {
		if strings.TrimSpace(f.URL) == "" {
			return nil, fmt.Errorf("file %d has no url", i+1)
		}
	}
	return &m, nil
}

func (s *ManifestSource) loaded() (*Manifest, error) {
	if s.manifest == nil {
		return nil, errors.New("manifest not loaded")
	}
	return s.manifest, nil
}

// Title returns the book title.
func (s *ManifestSource) Title(ctx context.Context) (string, error) {
	m, err := s.loaded()
	if err != nil {
		return "", err
	}
	return m.Title, nil
}

// Files returns the parts in manifest order.
func (s *ManifestSource) Files(ctx context.Context) ([]model.FileEntry, error) {
	m, err := s.loaded()
	if err != nil {
		return nil, err
	}

	entries := make([]model.FileEntry, len(m.Files))
	for i, f := range m.Files {
		entries[i] = model.FileEntry{
			URL:     strings.TrimSpace(f.URL),
			Ext:     f.Ext,
			Title:   f.Title,
			Headers: f.Headers,
		}
	}
	return entries, nil
}

// Metadata returns the manifest tags in the order they were written.
// The title tag is added when the manifest does not set one.
func (s *ManifestSource) Metadata(ctx context.Context) (model.Tags, error) {
	m, err := s.loaded()
	if err != nil {
		return nil, err
	}
	if len(m.Metadata) == 0 {
		return nil, nil
	}

	tags := make(model.Tags, 0, len(m.Metadata)+1)
	for _, item := range m.Metadata {
		if item.Value == nil {
			continue
		}
		tags = append(tags, model.Tag{
			Name:  strings.ToLower(fmt.Sprint(item.Key)),
			Value: fmt.Sprint(item.Value),
		})
	}
	if _, ok := tags.Title(); !ok {
		tags = append(model.Tags{{Name: model.TagTitle, Value: m.Title}}, tags...)
	}
	return tags, nil
}

// Cover returns the cover image bytes, or nil when the manifest has none.
func (s *ManifestSource) Cover(ctx context.Context) ([]byte, error) {
	m, err := s.loaded()
	if err != nil {
		return nil, err
	}
	if m.Cover == nil {
		return nil, nil
	}

	switch {
	case m.Cover.URL != "":
		if s.client == nil {
			return nil, errors.New("no http client for cover url")
		}
		return s.client.Get(ctx, m.Cover.URL, nil)
	case m.Cover.Path != "":
		return os.ReadFile(s.coverPath(m.Cover.Path))
	}
	return nil, nil
}

// coverPath resolves relative cover paths against the manifest directory.
func (s *ManifestSource) coverPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(s.path), p)
}

// CoverExtension returns the cover file extension without the dot.
func (s *ManifestSource) CoverExtension() string {
	if s.manifest == nil || s.manifest.Cover == nil {
		return "jpg"
	}
	c := s.manifest.Cover
	if c.Extension != "" {
		return strings.TrimPrefix(strings.ToLower(c.Extension), ".")
	}

	ref := c.Path
	if c.URL != "" {
		ref = c.URL
		if i := strings.IndexAny(ref, "?#"); i >= 0 {
			ref = ref[:i]
		}
	}
	if ext := strings.TrimPrefix(filepath.Ext(ref), "."); ext != "" && len(ext) <= 4 {
		return strings.ToLower(ext)
	}
	return "jpg"
}

// Chapters returns the chapter markers, or nil when there are none.
func (s *ManifestSource) Chapters(ctx context.Context) ([]model.Chapter, error) {
	m, err := s.loaded()
	if err != nil {
		return nil, err
	}
	if len(m.Chapters) == 0 {
		return nil, nil
	}

	chapters := make([]model.Chapter, len(m.Chapters))
	for i, c := range m.Chapters {
		chapters[i] = model.Chapter{Start: time.Duration(c.Start), Title: c.Title}
	}
	return chapters, nil
}
