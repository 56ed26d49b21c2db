package audio

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/handiism/audiobook-downloader/internal/model"
)

// ErrUnsupportedFormat is returned when no writer can handle a file.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// TagEditAction defines how to handle an individual tag.
type TagEditAction int

const (
	// TagModify updates the tag with the value from the source.
	TagModify TagEditAction = iota

	// TagEmpty clears the tag in the file.
	TagEmpty

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// ParseTagEditAction converts a settings value ("modify", "empty",
// "keep") into a TagEditAction.
func ParseTagEditAction(s string) (TagEditAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "modify":
		return TagModify, nil
	case "empty", "clear":
		return TagEmpty, nil
	case "keep", "donotmodify", "do_not_modify":
		return TagDoNotModify, nil
	}
	return TagModify, fmt.Errorf("unknown tag action %q", s)
}

// TagConfig holds tagging configuration.
//
// Example:
//
//	cfg := &TagConfig{
//	    ModifyTags: true,
//	    Actions: map[string]TagEditAction{
//	        "comment": TagEmpty,       // clear any existing comments
//	        "genre":   TagDoNotModify, // keep the file's genre
//	    },
//	}
type TagConfig struct {
	// ModifyTags is a master switch. If false, AddTags writes nothing.
	ModifyTags bool

	// Actions overrides the action per tag name. Tags not listed are modified.
	Actions map[string]TagEditAction
}

// DefaultTagConfig returns the default tag configuration: every tag
// supplied by the source is written.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags: true,
		Actions:    map[string]TagEditAction{},
	}
}

func (c *TagConfig) action(name string) TagEditAction {
	for k, v := range c.Actions {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return TagModify
}

// plan splits tags into the ones to write and the names to clear.
func (c *TagConfig) plan(tags model.Tags) (set model.Tags, clear []string) {
	if !c.ModifyTags {
		return nil, nil
	}
	for _, tag := range tags {
		if c.action(tag.Name) == TagModify {
			set = append(set, tag)
		}
	}
	for name, action := range c.Actions {
		if action == TagEmpty {
			clear = append(clear, strings.ToLower(name))
		}
	}
	return set, clear
}

// Tagger writes tags, cover art and chapter markers into audio files.
//
// Tagger picks a writer by file extension: ID3v2 for MP3, iTunes atoms
// for the MP4 family, and an ffmpeg remux for everything else. Each
// method applies to a single file and either fully succeeds or returns
// an error.
type Tagger struct {
	config *TagConfig
	ffmpeg *FFmpeg
}

// NewTagger creates a new Tagger.
//
// If config is nil, DefaultTagConfig() is used. ffmpeg is used for
// chapters on non-MP3 files, tags on files without a native writer and
// for probing durations; it may be nil, in which case those operations
// return ErrUnsupportedFormat.
func NewTagger(config *TagConfig, ffmpeg *FFmpeg) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config, ffmpeg: ffmpeg}
}

type container int

const (
	containerOther container = iota
	containerMP3
	containerMP4
)

func containerOf(path string) container {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return containerMP3
	case ".m4a", ".m4b", ".mp4", ".aac", ".m4p":
		return containerMP4
	}
	return containerOther
}

// AddTags writes tags into the file at path.
func (t *Tagger) AddTags(ctx context.Context, path string, tags model.Tags) error {
	set, clear := t.config.plan(tags)
	if len(set) == 0 && len(clear) == 0 {
		return nil
	}

	switch containerOf(path) {
	case containerMP3:
		return writeID3Tags(path, set, clear)
	case containerMP4:
		return writeMP4Tags(path, set, clear)
	}
	if t.ffmpeg == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return t.ffmpeg.WriteTags(ctx, path, set, clear)
}

// EmbedCover replaces the front cover of the file at path.
func (t *Tagger) EmbedCover(ctx context.Context, path string, cover []byte) error {
	if len(cover) == 0 {
		return nil
	}
	switch containerOf(path) {
	case containerMP3:
		return writeID3Cover(path, cover)
	case containerMP4:
		return writeMP4Cover(path, cover)
	}
	return fmt.Errorf("%w: cannot embed cover into %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// AddChapters replaces the chapter markers of the file at path.
func (t *Tagger) AddChapters(ctx context.Context, path string, chapters []model.Chapter) error {
	if len(chapters) == 0 {
		return nil
	}
	if containerOf(path) == containerMP3 {
		var total = chapters[len(chapters)-1].Start
		if t.ffmpeg != nil {
			// Without a duration the last chapter ends where it starts.
			if d, err := t.ffmpeg.Duration(ctx, path); err == nil {
				total = d
			}
		}
		return writeID3Chapters(path, chapters, total)
	}
	if t.ffmpeg == nil {
		return fmt.Errorf("%w: chapters for %s need ffmpeg", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return t.ffmpeg.WriteChapters(ctx, path, chapters)
}
