package download

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/handiism/audiobook-downloader/internal/assemble"
	"github.com/handiism/audiobook-downloader/internal/audio"
	"github.com/handiism/audiobook-downloader/internal/config"
	"github.com/handiism/audiobook-downloader/internal/http"
	ioutils "github.com/handiism/audiobook-downloader/internal/io"
	"github.com/handiism/audiobook-downloader/internal/model"
	"github.com/handiism/audiobook-downloader/internal/source"
)

// ErrCombinerUnavailable is returned before any transfer starts when
// several files must be combined and the combiner's binary is missing.
var ErrCombinerUnavailable = errors.New("ffmpeg not found; it is needed to combine files")

// availability is implemented by combiners that depend on an external
// binary, such as audio.FFmpeg.
type availability interface {
	Available() bool
}

// Manager runs one audiobook through the whole pipeline:
// source, transfer, assembly and embedding.
type Manager struct {
	settings     *config.Settings
	source       source.Source
	httpClient   *http.Client
	tagger       assemble.TagWriter
	combiner     assemble.Combiner
	prober       assemble.DurationProber
	playlist     *audio.PlaylistCreator
	imageService *ioutils.ImageService
	transfer     *TransferProgress

	title      string
	onProgress func(ProgressEvent)
	mu         sync.RWMutex
}

// NewManager creates a Manager for src. Files are tagged with the
// native ID3 / MP4 writers and combined with ffmpeg. When playlists are
// enabled and ffprobe is on hand, playlist entries carry durations.
//
// onProgress may be nil. It is called from the transfer goroutines as
// well as from Run's, so it must be safe for concurrent use.
//
// Returns an error if settings.TagActions holds an unknown action.
func NewManager(settings *config.Settings, src source.Source, onProgress func(ProgressEvent)) (*Manager, error) {
	tagConfig, err := settings.ToTagConfig()
	if err != nil {
		return nil, err
	}

	ffmpeg := audio.NewFFmpeg(settings.FFmpegPath, settings.FFprobePath)

	m := &Manager{
		settings:     settings,
		source:       src,
		httpClient:   http.NewClient(settings.ToHTTPOptions()),
		tagger:       audio.NewTagger(tagConfig, ffmpeg),
		combiner:     ffmpeg,
		imageService: ioutils.NewImageService(),
		transfer:     &TransferProgress{},
		onProgress:   onProgress,
	}
	if settings.CreatePlaylist {
		m.playlist = audio.NewPlaylistCreator(audio.ParsePlaylistFormat(settings.PlaylistFormat), settings.M3UExtended)
		if ffmpeg.ProbeAvailable() {
			m.prober = ffmpeg
		}
	}
	return m, nil
}

// WithTagger replaces the tag writer.
func (m *Manager) WithTagger(t assemble.TagWriter) *Manager {
	m.tagger = t
	return m
}

// WithCombiner replaces the audio combiner.
func (m *Manager) WithCombiner(c assemble.Combiner) *Manager {
	m.combiner = c
	return m
}

// Run downloads and assembles the audiobook and returns the artifact.
//
// The steps are:
//  1. Read title, files and metadata from the source
//  2. Resolve the output directory from settings.OutputTemplate
//  3. Download every file (or let the source do it)
//  4. Read cover and chapters
//  5. Combine into one file or keep a tagged directory
//
// Errors from the source, the transfers or the assembler are returned
// as they are; the caller decides whether to exit. Downloaded files are
// left on disk when a step fails. ErrCombinerUnavailable is returned
// before anything is downloaded when combining is impossible.
//
// Example:
//
//	artifact, err := manager.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println("Saved", artifact.Kind, artifact.Path)
func (m *Manager) Run(ctx context.Context) (*assemble.Artifact, error) {
	report := EventReporter(m.onProgress)

	if err := m.source.Before(ctx); err != nil {
		return nil, fmt.Errorf("prepare source: %w", err)
	}

	title, err := m.source.Title(ctx)
	if err != nil {
		return nil, fmt.Errorf("get title: %w", err)
	}
	m.mu.Lock()
	m.title = title
	m.mu.Unlock()

	entries, err := m.source.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("get files: %w", err)
	}
	if len(entries) == 0 {
		return nil, assemble.ErrNoFiles
	}
	if m.settings.Combine && len(entries) > 1 {
		if c, ok := m.combiner.(availability); ok && !c.Available() {
			report.Fatal("ffmpeg not found")
			return nil, ErrCombinerUnavailable
		}
	}

	tags, err := m.source.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}

	outputDir := model.OutputLocation(m.settings.OutputTemplate, title, tags)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Found audiobook: %s (%d files)", title, len(entries)), Level: LevelInfo})
	m.progress(ProgressEvent{Message: fmt.Sprintf("Output: %s", outputDir), Level: LevelVerbose})

	filenames, err := m.downloadFiles(ctx, entries, outputDir)
	if err != nil {
		return nil, err
	}
	received, _, _, _ := m.transfer.Snapshot()
	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded %d file(s), %s", len(filenames), humanize.Bytes(uint64(received))), Level: LevelInfo})

	meta, err := m.metadata(ctx, tags)
	if err != nil {
		return nil, err
	}

	partTitles := make([]string, len(entries))
	for i, e := range entries {
		partTitles[i] = e.Title
	}

	embedder := assemble.NewEmbedder(m.tagger, report).WithCoverPreparer(m.prepareCover)
	assembler := assemble.NewAssembler(m.combiner, embedder, report)
	if m.playlist != nil {
		assembler.WithPlaylist(m.playlist)
	}
	if m.prober != nil {
		assembler.WithDurations(m.prober)
	}

	artifact, err := assembler.Assemble(ctx, assemble.Request{
		Title:      title,
		Filenames:  filenames,
		PartTitles: partTitles,
		OutputDir:  outputDir,
		Combine:    m.settings.Combine,
		Format:     m.settings.Format(),
		Metadata:   meta,
	})
	if err != nil {
		return nil, err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Finished: %s", artifact.Path), Level: LevelSuccess})
	return artifact, nil
}

func (m *Manager) downloadFiles(ctx context.Context, entries []model.FileEntry, outputDir string) ([]string, error) {
	if d, ok := m.source.(source.FileDownloader); ok {
		m.progress(ProgressEvent{Message: "Source downloads its own files", Level: LevelVerbose})
		if err := ioutils.EnsureDir(outputDir); err != nil {
			return nil, err
		}
		return d.DownloadFiles(ctx, entries, outputDir)
	}

	fetcher := NewFetcher(m.httpClient, m.transfer, m.tagger)
	coordinator := NewCoordinator(fetcher, m.transfer, m.settings.MaxConcurrentDownloads, EventReporter(m.onProgress))
	return coordinator.DownloadFiles(ctx, entries, outputDir)
}

func (m *Manager) metadata(ctx context.Context, tags model.Tags) (model.Metadata, error) {
	meta := model.Metadata{Tags: tags}

	cover, err := m.source.Cover(ctx)
	if err != nil {
		return meta, fmt.Errorf("get cover: %w", err)
	}
	if cover != nil {
		meta.Cover = &model.Cover{Data: cover, Extension: m.source.CoverExtension()}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded cover (%s)", humanize.Bytes(uint64(len(cover)))), Level: LevelVerbose})
	}

	chapters, err := m.source.Chapters(ctx)
	if err != nil {
		return meta, fmt.Errorf("get chapters: %w", err)
	}
	meta.Chapters = chapters

	return meta, nil
}

// prepareCover resizes and converts the cover for tags as configured.
// A cover that cannot be decoded is embedded as it is.
func (m *Manager) prepareCover(ctx context.Context, cover []byte) ([]byte, error) {
	opts := ioutils.CoverOptions{JPEG: m.settings.ConvertCoverArtToJPG}
	if m.settings.CoverArtInTagsResize {
		opts.MaxSize = m.settings.CoverArtInTagsMaxSize
	}

	prepared, errs := m.imageService.PrepareCover(ctx, cover, opts)
	for _, err := range errs {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not prepare cover: %v", err), Level: LevelWarning})
	}
	return prepared, nil
}

// GetProgress returns current download progress.
func (m *Manager) GetProgress() (received, total int64, filesReceived, filesTotal int32) {
	return m.transfer.Snapshot()
}

// Title returns the audiobook title once Run has read it.
func (m *Manager) Title() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return strings.TrimSpace(m.title)
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
