package model

import (
	"strings"
	"time"
)

// Common tag names understood by the tag writers.
const (
	TagTitle       = "title"
	TagAuthor      = "author"
	TagNarrator    = "narrator"
	TagAlbum       = "album"
	TagAlbumArtist = "album_artist"
	TagSeries      = "series"
	TagGenre       = "genre"
	TagYear        = "year"
	TagDate        = "date"
	TagDescription = "description"
	TagComment     = "comment"
	TagPublisher   = "publisher"
	TagCopyright   = "copyright"
	TagLanguage    = "language"
	TagISBN        = "isbn"
)

// Tag is a single tag-name/value pair.
type Tag struct {
	Name  string
	Value string
}

// Tags is an ordered mapping of tag names to values.
//
// Order is preserved as supplied by the source. Names are matched
// case-insensitively; the first occurrence of a name wins.
type Tags []Tag

// Get returns the value for name and whether it is present.
func (t Tags) Get(name string) (string, bool) {
	for _, tag := range t {
		if strings.EqualFold(tag.Name, name) {
			return tag.Value, true
		}
	}
	return "", false
}

// Title returns the title tag, if any.
func (t Tags) Title() (string, bool) {
	return t.Get(TagTitle)
}

// With returns a copy of t with name set to value. An existing entry
// keeps its position; a new one is appended.
func (t Tags) With(name, value string) Tags {
	out := make(Tags, 0, len(t)+1)
	found := false
	for _, tag := range t {
		if strings.EqualFold(tag.Name, name) {
			if found {
				continue
			}
			found = true
			tag.Value = value
		}
		out = append(out, tag)
	}
	if !found {
		out = append(out, Tag{Name: name, Value: value})
	}
	return out
}

// Chapter marks the start of a chapter within an audio file.
type Chapter struct {
	Start time.Duration
	Title string
}

// Cover is a cover image together with the file extension to use when
// it is written as a standalone file.
type Cover struct {
	Data      []byte
	Extension string
}

// Metadata is everything embedded into a finished artifact.
//
// Metadata is read-only once built: embedding adds to the artifact,
// never to this structure. A nil Tags means the source supplied no
// metadata; a nil Cover or Chapters means none was supplied.
type Metadata struct {
	Tags     Tags
	Cover    *Cover
	Chapters []Chapter
}

// HasCover reports whether a non-empty cover image is present.
func (m Metadata) HasCover() bool {
	return m.Cover != nil && len(m.Cover.Data) > 0
}
