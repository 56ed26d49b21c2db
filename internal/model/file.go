package model

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
)

// FileEntry describes one downloadable unit as returned by a source.
type FileEntry struct {
	// URL is the location to download the part from.
	URL string

	// Ext is the audio container extension without the dot (e.g. "mp3").
	// Empty means the extension is taken from the URL path.
	Ext string

	// Title is an optional per-part title written to the part after download.
	Title string

	// Headers are extra request headers the source needs (cookies, auth).
	Headers map[string]string
}

// Extension returns the entry's extension without the dot.
// Falls back to the URL path extension, then "mp3".
func (e FileEntry) Extension() string {
	if e.Ext != "" {
		return strings.TrimPrefix(strings.ToLower(e.Ext), ".")
	}
	u := e.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if ext := strings.TrimPrefix(filepath.Ext(u), "."); ext != "" && len(ext) <= 5 {
		return strings.ToLower(ext)
	}
	return "mp3"
}

// RemoteFile is the transfer-time descriptor of one unit.
//
// It is created by the transfer coordinator for each FileEntry and
// owned by a single fetcher for the duration of the transfer. No two
// RemoteFiles share a Path.
type RemoteFile struct {
	// Path is the local destination path.
	Path string

	// URL is the source location.
	URL string

	// Tags is the per-file metadata fragment (optionally a title).
	Tags Tags

	// Headers are extra request headers.
	Headers map[string]string

	// declared is the Content-Length reported when the transfer starts.
	declared atomic.Int64
}

// NewRemoteFile builds the descriptor for entry, the index-th of total
// parts, destined for outputDir.
func NewRemoteFile(entry FileEntry, outputDir string, index, total int) *RemoteFile {
	f := &RemoteFile{
		Path:    filepath.Join(outputDir, PartFileName(index, total, entry.Extension())),
		URL:     entry.URL,
		Headers: entry.Headers,
	}
	if entry.Title != "" {
		f.Tags = Tags{{Name: TagTitle, Value: entry.Title}}
	}
	return f
}

// Name returns the base filename of the destination.
func (f *RemoteFile) Name() string {
	return filepath.Base(f.Path)
}

// SetDeclaredLength records the advisory Content-Length.
func (f *RemoteFile) SetDeclaredLength(n int64) {
	f.declared.Store(n)
}

// DeclaredLength returns the advisory Content-Length, or -1 if unknown.
func (f *RemoteFile) DeclaredLength() int64 {
	return f.declared.Load()
}

// PartFileName returns the local filename of the index-th (0-based) of
// total parts, zero-padded to the width of total (at least two digits).
//
// Example:
//
//	PartFileName(0, 12, "mp3") // "Part 01.mp3"
//	PartFileName(9, 120, "m4a") // "Part 010.m4a"
func PartFileName(index, total int, ext string) string {
	width := len(strconv.Itoa(total))
	if width < 2 {
		width = 2
	}
	return fmt.Sprintf("Part %0*d.%s", width, index+1, ext)
}
