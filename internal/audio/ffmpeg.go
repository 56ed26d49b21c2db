package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/handiism/audiobook-downloader/internal/model"
)

// FFmpeg drives the ffmpeg and ffprobe binaries.
//
// It combines parts with the concat demuxer and rewrites files in
// place (tags, chapters) by remuxing into a temporary sibling file that
// then replaces the original.
type FFmpeg struct {
	bin   string
	probe string
}

// NewFFmpeg creates an FFmpeg using the given binaries. Empty values
// default to "ffmpeg" and "ffprobe" looked up on PATH.
func NewFFmpeg(bin, probe string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	if probe == "" {
		probe = "ffprobe"
	}
	return &FFmpeg{bin: bin, probe: probe}
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.bin)
	return err == nil
}

// ProbeAvailable reports whether the ffprobe binary can be found.
func (f *FFmpeg) ProbeAvailable() bool {
	_, err := exec.LookPath(f.probe)
	return err == nil
}

// Combine concatenates filenames (relative to inputDir) into outputFile.
//
// Streams are copied when every input already has the output's
// extension; otherwise ffmpeg transcodes to the codec implied by the
// output extension. Combine does not check that outputFile exists
// afterwards; callers must.
func (f *FFmpeg) Combine(ctx context.Context, filenames []string, inputDir, outputFile string) error {
	if len(filenames) == 0 {
		return errors.New("missing input")
	}

	listPath := filepath.Join(inputDir, ".concat-"+uuid.NewString()+".txt")
	if err := os.WriteFile(listPath, []byte(ConcatList(filenames)), 0644); err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vn",
	}
	if sameExtension(filenames, outputFile) {
		args = append(args, "-c", "copy")
	}
	args = append(args, outputFile)

	return f.run(ctx, args...)
}

// WriteChapters replaces the chapter list of path.
func (f *FFmpeg) WriteChapters(ctx context.Context, path string, chapters []model.Chapter) error {
	total, err := f.Duration(ctx, path)
	if err != nil {
		total = 0
	}

	metaPath := filepath.Join(filepath.Dir(path), ".chapters-"+uuid.NewString()+".txt")
	if err := os.WriteFile(metaPath, []byte(FFMetadata(chapters, total)), 0644); err != nil {
		return err
	}
	defer os.Remove(metaPath)

	return f.remux(ctx, path,
		"-i", metaPath,
		"-map", "0",
		"-map_metadata", "0",
		"-map_chapters", "1",
		"-c", "copy",
	)
}

// WriteTags sets tags on path and clears the names listed in clear.
func (f *FFmpeg) WriteTags(ctx context.Context, path string, set model.Tags, clear []string) error {
	args := []string{
		"-map", "0",
		"-map_metadata", "0",
		"-c", "copy",
	}
	for _, name := range clear {
		args = append(args, "-metadata", strings.ToLower(name)+"=")
	}
	for _, tag := range set {
		args = append(args, "-metadata", strings.ToLower(tag.Name)+"="+tag.Value)
	}
	return f.remux(ctx, path, args...)
}

// Duration returns the duration of the media at path via ffprobe.
func (f *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.probe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, commandError(f.probe, err, stderr.String())
	}
	return parseSeconds(stdout.String())
}

// remux rewrites path through ffmpeg with path as input 0 and args
// appended, then replaces path with the result.
func (f *FFmpeg) remux(ctx context.Context, path string, args ...string) error {
	tmp := filepath.Join(filepath.Dir(path), "."+uuid.NewString()+filepath.Ext(path))
	full := append([]string{"-i", path}, args...)
	full = append(full, tmp)

	if err := f.run(ctx, full...); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	params := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-y",
	}
	params = append(params, args...)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.bin, params...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return commandError(f.bin, err, stderr.String())
	}
	return nil
}

func commandError(bin string, err error, output string) error {
	output = strings.TrimSpace(output)
	if output == "" {
		return fmt.Errorf("%s: %w", filepath.Base(bin), err)
	}
	return fmt.Errorf("%s: %w: %s", filepath.Base(bin), err, output)
}

func parseSeconds(s string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(s), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func sameExtension(filenames []string, output string) bool {
	want := strings.ToLower(filepath.Ext(output))
	for _, name := range filenames {
		if strings.ToLower(filepath.Ext(name)) != want {
			return false
		}
	}
	return true
}
