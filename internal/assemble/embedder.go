package assemble

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/audiobook-downloader/internal/io"
	"github.com/handiism/audiobook-downloader/internal/model"
)

// TagWriter is the tag-writing primitive applied to single files.
type TagWriter interface {
	AddTags(ctx context.Context, path string, tags model.Tags) error
	EmbedCover(ctx context.Context, path string, cover []byte) error
	AddChapters(ctx context.Context, path string, chapters []model.Chapter) error
}

// CoverPreparer transforms cover bytes before they are embedded into
// a file's artwork slot (resize, JPEG conversion).
type CoverPreparer func(ctx context.Context, cover []byte) ([]byte, error)

// Embedder sequences tag, cover and chapter writes into finished files.
type Embedder struct {
	tagger       TagWriter
	report       Reporter
	prepareCover CoverPreparer
}

// NewEmbedder creates an Embedder writing through tagger.
func NewEmbedder(tagger TagWriter, report Reporter) *Embedder {
	if report == nil {
		report = nopReporter{}
	}
	return &Embedder{
		tagger: tagger,
		report: report,
	}
}

// WithCoverPreparer sets the function applied to the cover before it is
// embedded into a single file. Standalone cover files keep the source bytes.
func (e *Embedder) WithCoverPreparer(fn CoverPreparer) *Embedder {
	e.prepareCover = fn
	return e
}

// EmbedFile writes meta into one file: tags, then cover, then chapters.
// Each step runs only when meta carries that kind of data. The first
// failing step aborts the rest.
func (e *Embedder) EmbedFile(ctx context.Context, path string, meta model.Metadata) error {
	if meta.Tags != nil {
		if err := e.tagger.AddTags(ctx, path, meta.Tags); err != nil {
			return fmt.Errorf("add tags to %s: %w", path, err)
		}
	}

	if meta.HasCover() {
		e.report.Info("Embedding cover")
		cover := meta.Cover.Data
		if e.prepareCover != nil {
			prepared, err := e.prepareCover(ctx, cover)
			if err != nil {
				return fmt.Errorf("prepare cover: %w", err)
			}
			cover = prepared
		}
		if err := e.tagger.EmbedCover(ctx, path, cover); err != nil {
			return fmt.Errorf("embed cover in %s: %w", path, err)
		}
	}

	if meta.Chapters != nil {
		e.report.Info("Adding chapters")
		if err := e.tagger.AddChapters(ctx, path, meta.Chapters); err != nil {
			return fmt.Errorf("add chapters to %s: %w", path, err)
		}
	}

	return nil
}

// EmbedDirectory writes the same tags into every file in dir and, when
// meta carries a cover, writes it once as cover.<ext>. partTitles, when
// non-nil, is parallel to filenames; a non-empty entry keeps that file's
// own title instead of the book title.
//
// Returns the path of the written cover file, or "" when none was written.
func (e *Embedder) EmbedDirectory(ctx context.Context, dir string, filenames, partTitles []string, meta model.Metadata) (string, error) {
	if meta.Tags != nil {
		e.report.Info("Tagging files")
		for i, name := range filenames {
			tags := meta.Tags
			if i < len(partTitles) && partTitles[i] != "" {
				tags = tags.With(model.TagTitle, partTitles[i])
			}
			path := filepath.Join(dir, name)
			if err := e.tagger.AddTags(ctx, path, tags); err != nil {
				return "", fmt.Errorf("add tags to %s: %w", path, err)
			}
		}
	}

	if !meta.HasCover() {
		return "", nil
	}

	e.report.Info("Writing cover")
	coverPath := filepath.Join(dir, "cover."+coverExtension(meta.Cover.Extension))
	if err := ioutils.WriteFile(ctx, coverPath, meta.Cover.Data); err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}
	return coverPath, nil
}

func coverExtension(ext string) string {
	ext = ioutils.SanitizeFileName(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return "jpg"
	}
	return strings.ToLower(ext)
}
