package download

import (
	"context"
	"errors"
	"fmt"

	ioutils "github.com/handiism/audiobook-downloader/internal/io"
	"github.com/handiism/audiobook-downloader/internal/model"
	"golang.org/x/sync/errgroup"
)

// Coordinator runs one Fetcher per file and waits for all of them.
type Coordinator struct {
	fetcher  *Fetcher
	progress *TransferProgress
	limit    int
	report   Reporter
}

// NewCoordinator creates a Coordinator running at most limit transfers
// at once. A limit of zero or less runs every transfer at once.
func NewCoordinator(fetcher *Fetcher, progress *TransferProgress, limit int, report Reporter) *Coordinator {
	if report == nil {
		report = EventReporter(nil)
	}
	return &Coordinator{
		fetcher:  fetcher,
		progress: progress,
		limit:    limit,
		report:   report,
	}
}

// DownloadFiles downloads every entry into outputDir and returns the
// local filenames (relative to outputDir) in entry order.
//
// The first failure cancels the transfers still running. The returned
// error joins the failure of every file that failed on its own; files
// aborted only because a sibling failed are not listed. Partially
// written files are left in place.
func (c *Coordinator) DownloadFiles(ctx context.Context, entries []model.FileEntry, outputDir string) ([]string, error) {
	if err := ioutils.EnsureDir(outputDir); err != nil {
		return nil, err
	}

	files := make([]*model.RemoteFile, len(entries))
	for i, entry := range entries {
		files[i] = model.NewRemoteFile(entry, outputDir, i, len(entries))
	}
	c.progress.AddFiles(len(files))
	c.report.Info(fmt.Sprintf("Downloading %d file(s)", len(files)))

	g, gctx := errgroup.WithContext(ctx)
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}

	errs := make([]error, len(files))
	for i, file := range files {
		g.Go(func() error {
			if err := c.fetcher.Fetch(gctx, file); err != nil {
				if siblingCancelled(ctx, gctx, err) {
					return err
				}
				errs[i] = fmt.Errorf("download %s: %w", file.Name(), err)
				return errs[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if joined := errors.Join(errs...); joined != nil {
			return nil, joined
		}
		return nil, err
	}

	names := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Name()
	}
	return names, nil
}

// siblingCancelled reports whether err only means the transfer was cut
// short because another one failed. Failures with a cause of their own
// (a bad status, a full disk) are never hidden, even when they happen
// after the group was cancelled.
func siblingCancelled(parent, group context.Context, err error) bool {
	return parent.Err() == nil && group.Err() != nil && errors.Is(err, context.Canceled)
}
