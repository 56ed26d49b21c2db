package source

import (
	"context"

	"github.com/handiism/audiobook-downloader/internal/model"
)

// Source supplies everything the pipeline needs about one audiobook.
//
// Before is called once, before any other method. A nil result from
// Metadata, Cover or Chapters means the source has none of that kind.
type Source interface {
	Before(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	Files(ctx context.Context) ([]model.FileEntry, error)
	Metadata(ctx context.Context) (model.Tags, error)
	Cover(ctx context.Context) ([]byte, error)
	CoverExtension() string
	Chapters(ctx context.Context) ([]model.Chapter, error)
}

// FileDownloader is implemented by sources that transfer their own
// files. It returns the local filenames relative to outputDir, in order.
type FileDownloader interface {
	DownloadFiles(ctx context.Context, files []model.FileEntry, outputDir string) ([]string, error)
}
