package assemble

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/handiism/audiobook-downloader/internal/audio"
	ioutils "github.com/handiism/audiobook-downloader/internal/io"
	"github.com/handiism/audiobook-downloader/internal/model"
)

var (
	// ErrCombinedFileMissing is returned when the combiner reports
	// success but the combined file is not on disk.
	ErrCombinedFileMissing = errors.New("could not combine audio files")

	// ErrNoFiles is returned when there is nothing to assemble.
	ErrNoFiles = errors.New("no files to assemble")

	// ErrOutputInsideDir is returned when the single output file would
	// land inside the download directory it replaces.
	ErrOutputInsideDir = errors.New("output file would be inside the download directory")
)

// Reporter receives user-facing messages. Fatal reports an error the
// pipeline is about to return; it must not exit the process.
type Reporter interface {
	Info(message string)
	Fatal(message string)
}

type nopReporter struct{}

func (nopReporter) Info(string)  {}
func (nopReporter) Fatal(string) {}

// Combiner merges the named files in inputDir into outputFile.
type Combiner interface {
	Combine(ctx context.Context, filenames []string, inputDir, outputFile string) error
}

// DurationProber reports the playing time of an audio file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// ArtifactKind is the shape of the assembled output.
type ArtifactKind int

const (
	// ArtifactFile is a single audio file.
	ArtifactFile ArtifactKind = iota
	// ArtifactDirectory is a directory of tagged audio files.
	ArtifactDirectory
)

// String returns the kind name.
func (k ArtifactKind) String() string {
	if k == ArtifactDirectory {
		return "directory"
	}
	return "file"
}

// Artifact is the finished output of one run.
type Artifact struct {
	Kind ArtifactKind

	// Path is the audio file or the output directory.
	Path string

	// Files are the tagged files inside Path (directory artifacts only).
	Files []string

	// CoverPath is the standalone cover file, if one was written.
	CoverPath string

	// PlaylistPath is the playlist file, if one was written.
	PlaylistPath string
}

// Request describes what to assemble.
type Request struct {
	// Title is the book title, used for playlists.
	Title string

	// Filenames are the downloaded files, relative to OutputDir, in order.
	Filenames []string

	// PartTitles are optional per-file titles parallel to Filenames.
	PartTitles []string

	// OutputDir is the directory the files were downloaded into.
	OutputDir string

	// Combine requests a single file even when several were downloaded.
	Combine bool

	// Format is the target container extension without the dot.
	// Empty means the extension of the first file.
	Format string

	Metadata model.Metadata
}

// Assembler turns a directory of downloaded files into the final artifact.
type Assembler struct {
	combiner Combiner
	embedder *Embedder
	report   Reporter
	playlist *audio.PlaylistCreator
	prober   DurationProber
}

// NewAssembler creates an Assembler.
func NewAssembler(combiner Combiner, embedder *Embedder, report Reporter) *Assembler {
	if report == nil {
		report = nopReporter{}
	}
	return &Assembler{
		combiner: combiner,
		embedder: embedder,
		report:   report,
	}
}

// WithPlaylist makes directory artifacts include a playlist.
func (a *Assembler) WithPlaylist(creator *audio.PlaylistCreator) *Assembler {
	a.playlist = creator
	return a
}

// WithDurations makes playlist entries carry the duration reported by
// prober. Files it cannot probe are listed with an unknown duration.
func (a *Assembler) WithDurations(prober DurationProber) *Assembler {
	a.prober = prober
	return a
}

// Assemble produces a single file when req.Combine is set or exactly one
// file was downloaded, and a tagged directory otherwise.
//
// On the single-file path the output file is written next to the
// download directory, never inside it. The downloaded parts are removed
// only after the final file is confirmed on disk and embedding
// succeeded, and the directory itself only when nothing else is left in
// it. Any failure leaves the directory in place.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*Artifact, error) {
	if len(req.Filenames) == 0 {
		return nil, ErrNoFiles
	}

	if req.Combine || len(req.Filenames) == 1 {
		return a.assembleFile(ctx, req)
	}
	return a.assembleDirectory(ctx, req)
}

func (a *Assembler) assembleFile(ctx context.Context, req Request) (*Artifact, error) {
	outputDir := filepath.Clean(req.OutputDir)
	format := req.Format
	if format == "" {
		format = extensionOf(req.Filenames[0])
	}

	outputFile := outputDir + "." + format
	if len(req.Filenames) == 1 {
		outputFile = singleFilePath(outputDir, req.Filenames[0], format)
	}
	if ioutils.IsWithin(outputDir, filepath.Dir(outputFile)) {
		a.report.Fatal(fmt.Sprintf("Refusing to write %s inside %s", outputFile, outputDir))
		return nil, fmt.Errorf("%w: %s", ErrOutputInsideDir, outputFile)
	}

	if len(req.Filenames) > 1 {
		a.report.Info("Combining files")
		if err := a.combiner.Combine(ctx, req.Filenames, outputDir, outputFile); err != nil {
			a.report.Fatal("Could not combine audio files")
			return nil, fmt.Errorf("combine: %w", err)
		}
	} else {
		if err := ioutils.MoveFile(ctx, filepath.Join(outputDir, req.Filenames[0]), outputFile); err != nil {
			return nil, fmt.Errorf("move %s: %w", req.Filenames[0], err)
		}
	}

	if !ioutils.Exists(outputFile) {
		a.report.Fatal("Could not combine audio files")
		return nil, fmt.Errorf("%w: %s", ErrCombinedFileMissing, outputFile)
	}

	if err := a.embedder.EmbedFile(ctx, outputFile, req.Metadata); err != nil {
		return nil, err
	}

	removed, err := ioutils.RemoveDownloadDir(outputDir, req.Filenames)
	if err != nil {
		return nil, fmt.Errorf("remove %s: %w", outputDir, err)
	}
	if !removed {
		a.report.Info(fmt.Sprintf("Kept %s: it holds other files", outputDir))
	}

	return &Artifact{Kind: ArtifactFile, Path: outputFile}, nil
}

func (a *Assembler) assembleDirectory(ctx context.Context, req Request) (*Artifact, error) {
	coverPath, err := a.embedder.EmbedDirectory(ctx, req.OutputDir, req.Filenames, req.PartTitles, req.Metadata)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Kind:      ArtifactDirectory,
		Path:      req.OutputDir,
		Files:     req.Filenames,
		CoverPath: coverPath,
	}

	if a.playlist != nil {
		path, err := a.writePlaylist(ctx, req)
		if err != nil {
			return nil, err
		}
		artifact.PlaylistPath = path
	}

	return artifact, nil
}

func (a *Assembler) writePlaylist(ctx context.Context, req Request) (string, error) {
	pl := &audio.Playlist{Title: req.Title}
	if author, ok := req.Metadata.Tags.Get(model.TagAuthor); ok {
		pl.Author = author
	}
	for i, name := range req.Filenames {
		title := strings.TrimSuffix(name, filepath.Ext(name))
		if i < len(req.PartTitles) && req.PartTitles[i] != "" {
			title = req.PartTitles[i]
		}
		item := audio.PlaylistItem{File: name, Title: title}
		if a.prober != nil {
			if d, err := a.prober.Duration(ctx, filepath.Join(req.OutputDir, name)); err == nil {
				item.Duration = d
			}
		}
		pl.Items = append(pl.Items, item)
	}

	name := ioutils.SanitizeFileName(req.Title)
	if name == "" {
		name = "playlist"
	}
	path := filepath.Join(req.OutputDir, name+a.playlist.Format().Extension())

	a.report.Info("Writing playlist")
	if err := ioutils.WriteFile(ctx, path, []byte(a.playlist.CreatePlaylist(pl))); err != nil {
		return "", fmt.Errorf("write playlist: %w", err)
	}
	return path, nil
}

// singleFilePath is where a lone downloaded file ends up: the output
// directory path plus the target format, unless the file is in another
// container, in which case it keeps its own extension.
func singleFilePath(outputDir, filename, format string) string {
	ext := extensionOf(filename)
	if ext == "" || strings.EqualFold(ext, format) {
		return outputDir + "." + format
	}
	return outputDir + "." + ext
}

func extensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
