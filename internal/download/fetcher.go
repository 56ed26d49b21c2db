package download

import (
	"context"
	"fmt"

	"github.com/handiism/audiobook-downloader/internal/http"
	"github.com/handiism/audiobook-downloader/internal/model"
)

// TagWriter writes a set of tags into a single file.
type TagWriter interface {
	AddTags(ctx context.Context, path string, tags model.Tags) error
}

// Fetcher downloads one remote file to its local path.
type Fetcher struct {
	client   *http.Client
	progress *TransferProgress
	tagger   TagWriter
}

// NewFetcher creates a Fetcher advancing progress as bytes are written.
// tagger may be nil, in which case per-file titles are not written.
func NewFetcher(client *http.Client, progress *TransferProgress, tagger TagWriter) *Fetcher {
	return &Fetcher{
		client:   client,
		progress: progress,
		tagger:   tagger,
	}
}

// Fetch streams file.URL to file.Path and, when the file carries a
// title fragment, writes that single tag into the result. A response
// without Content-Length has its size looked up with a HEAD request so
// the advisory total still covers it.
//
// Any connection or I/O failure is returned; the caller decides what
// happens to sibling transfers.
func (f *Fetcher) Fetch(ctx context.Context, file *model.RemoteFile) error {
	_, err := f.client.DownloadFile(ctx, file.URL, file.Path, file.Headers,
		func(n int) {
			f.progress.Advance(int64(n))
		},
		func(declared int64) {
			if declared < 0 {
				// Chunked responses carry no length; HEAD may still know it.
				if size, err := f.client.GetFileSize(ctx, file.URL, file.Headers); err == nil {
					declared = size
				}
			}
			file.SetDeclaredLength(declared)
			f.progress.Declare(declared)
		},
	)
	if err != nil {
		return err
	}

	if title, ok := file.Tags.Title(); ok && f.tagger != nil {
		if err := f.tagger.AddTags(ctx, file.Path, model.Tags{{Name: model.TagTitle, Value: title}}); err != nil {
			return fmt.Errorf("tag title: %w", err)
		}
	}

	f.progress.FileDone()
	return nil
}
