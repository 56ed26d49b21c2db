package download

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/handiism/audiobook-downloader/internal/assemble"
	"github.com/handiism/audiobook-downloader/internal/config"
	"github.com/handiism/audiobook-downloader/internal/model"
)

type fakeSource struct {
	title    string
	files    []model.FileEntry
	tags     model.Tags
	cover    []byte
	chapters []model.Chapter

	beforeCalled bool
}

func (s *fakeSource) Before(ctx context.Context) error {
	s.beforeCalled = true
	return nil
}
func (s *fakeSource) Title(ctx context.Context) (string, error)            { return s.title, nil }
func (s *fakeSource) Files(ctx context.Context) ([]model.FileEntry, error) { return s.files, nil }
func (s *fakeSource) Metadata(ctx context.Context) (model.Tags, error)     { return s.tags, nil }
func (s *fakeSource) Cover(ctx context.Context) ([]byte, error)            { return s.cover, nil }
func (s *fakeSource) CoverExtension() string                               { return "jpg" }
func (s *fakeSource) Chapters(ctx context.Context) ([]model.Chapter, error) {
	return s.chapters, nil
}

// selfDownloadingSource writes its parts without HTTP.
type selfDownloadingSource struct {
	fakeSource
}

func (s *selfDownloadingSource) DownloadFiles(ctx context.Context, files []model.FileEntry, outputDir string) ([]string, error) {
	names := make([]string, len(files))
	for i := range files {
		names[i] = model.PartFileName(i, len(files), "mp3")
		if err := os.WriteFile(filepath.Join(outputDir, names[i]), []byte("local"), 0644); err != nil {
			return nil, err
		}
	}
	return names, nil
}

type fileCombiner struct {
	produce bool
}

func (c fileCombiner) Combine(ctx context.Context, filenames []string, inputDir, outputFile string) error {
	if !c.produce {
		return nil
	}
	var all []byte
	for _, name := range filenames {
		data, err := os.ReadFile(filepath.Join(inputDir, name))
		if err != nil {
			return err
		}
		all = append(all, data...)
	}
	return os.WriteFile(outputFile, all, 0644)
}

type recordingTagger struct {
	mu       sync.Mutex
	ops      []string
	chapters int
}

func (r *recordingTagger) add(op, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op+":"+filepath.Base(path))
}

func (r *recordingTagger) AddTags(ctx context.Context, path string, tags model.Tags) error {
	r.add("tags", path)
	return nil
}

func (r *recordingTagger) EmbedCover(ctx context.Context, path string, cover []byte) error {
	r.add("cover", path)
	return nil
}

func (r *recordingTagger) AddChapters(ctx context.Context, path string, chapters []model.Chapter) error {
	r.add("chapters", path)
	r.chapters = len(chapters)
	return nil
}

func testSettings(t *testing.T) *config.Settings {
	settings := config.DefaultSettings()
	settings.OutputTemplate = filepath.Join(t.TempDir(), "{title}")
	settings.StallTimeout = 5
	return settings
}

func TestManager_RunCombined(t *testing.T) {
	server := newPartServer(t, map[string]string{
		"/1.mp3": "one-",
		"/2.mp3": "two-",
		"/3.mp3": "three",
	})

	src := &fakeSource{
		title: "My Book",
		files: []model.FileEntry{
			{URL: server.URL + "/1.mp3"},
			{URL: server.URL + "/2.mp3"},
			{URL: server.URL + "/3.mp3"},
		},
		tags:     model.Tags{{Name: "title", Value: "My Book"}, {Name: "author", Value: "Jane"}},
		cover:    []byte("not-an-image"),
		chapters: []model.Chapter{{Start: 0, Title: "One"}, {Start: time.Minute, Title: "Two"}},
	}

	settings := testSettings(t)
	settings.Combine = true
	settings.OutputFormat = "m4b"
	settings.CoverArtInTagsResize = true

	var mu sync.Mutex
	var events []ProgressEvent
	manager, err := NewManager(settings, src, func(e ProgressEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	tagger := &recordingTagger{}
	manager.WithTagger(tagger).WithCombiner(fileCombiner{produce: true})

	artifact, err := manager.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !src.beforeCalled {
		t.Error("Before was not called")
	}
	if manager.Title() != "My Book" {
		t.Errorf("Title() = %q", manager.Title())
	}

	outputDir := strings.TrimSuffix(settings.OutputTemplate, "{title}") + "My Book"
	if artifact.Kind != assemble.ArtifactFile || artifact.Path != outputDir+".m4b" {
		t.Fatalf("artifact = %+v", artifact)
	}
	data, err := os.ReadFile(artifact.Path)
	if err != nil || string(data) != "one-two-three" {
		t.Errorf("combined content = %q, %v", data, err)
	}
	if _, err := os.Stat(outputDir); !os.IsNotExist(err) {
		t.Error("output directory should be removed")
	}

	want := "tags:My Book.m4b,cover:My Book.m4b,chapters:My Book.m4b"
	if got := strings.Join(tagger.ops, ","); got != want {
		t.Errorf("ops = %s, want %s", got, want)
	}
	if tagger.chapters != 2 {
		t.Errorf("chapters = %d", tagger.chapters)
	}

	received, _, done, total := manager.GetProgress()
	if received != int64(len("one-two-three")) || done != 3 || total != 3 {
		t.Errorf("progress = %d bytes, %d/%d files", received, done, total)
	}

	var sawWarning, sawSuccess bool
	for _, e := range events {
		if e.Level == LevelWarning && strings.Contains(e.Message, "resize cover") {
			sawWarning = true
		}
		if e.Level == LevelSuccess {
			sawSuccess = true
		}
	}
	if !sawWarning {
		t.Error("undecodable cover should produce a warning")
	}
	if !sawSuccess {
		t.Error("missing success event")
	}
}

func TestManager_RunCombinedFileMissing(t *testing.T) {
	server := newPartServer(t, map[string]string{"/1.mp3": "a", "/2.mp3": "b"})
	src := &fakeSource{
		title: "My Book",
		files: []model.FileEntry{{URL: server.URL + "/1.mp3"}, {URL: server.URL + "/2.mp3"}},
		tags:  model.Tags{{Name: "title", Value: "My Book"}},
	}
	settings := testSettings(t)
	settings.Combine = true

	var fatals []string
	manager, err := NewManager(settings, src, func(e ProgressEvent) {
		if e.Level == LevelError {
			fatals = append(fatals, e.Message)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	tagger := &recordingTagger{}
	manager.WithTagger(tagger).WithCombiner(fileCombiner{produce: false})

	_, err = manager.Run(context.Background())
	if !errors.Is(err, assemble.ErrCombinedFileMissing) {
		t.Fatalf("error = %v, want ErrCombinedFileMissing", err)
	}

	outputDir := strings.TrimSuffix(settings.OutputTemplate, "{title}") + "My Book"
	if _, err := os.Stat(filepath.Join(outputDir, "Part 01.mp3")); err != nil {
		t.Error("intermediate files must be kept")
	}
	if len(tagger.ops) != 0 {
		t.Errorf("embedding ran: %v", tagger.ops)
	}
	if len(fatals) != 1 || fatals[0] != "Could not combine audio files" {
		t.Errorf("fatals = %v", fatals)
	}
}

func TestManager_RunDirectoryWithOwnDownloader(t *testing.T) {
	src := &selfDownloadingSource{fakeSource{
		title: "Two Parts",
		files: []model.FileEntry{{URL: "local://1", Title: "First"}, {URL: "local://2"}},
		tags:  model.Tags{{Name: "title", Value: "Two Parts"}},
		cover: []byte("cover"),
	}}
	settings := testSettings(t)
	settings.CreatePlaylist = true

	manager, err := NewManager(settings, src, nil)
	if err != nil {
		t.Fatal(err)
	}
	tagger := &recordingTagger{}
	manager.WithTagger(tagger).WithCombiner(fileCombiner{produce: true})

	artifact, err := manager.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if artifact.Kind != assemble.ArtifactDirectory {
		t.Fatalf("artifact = %+v", artifact)
	}
	for _, name := range []string{"Part 01.mp3", "Part 02.mp3", "cover.jpg", "Two Parts.m3u"} {
		if _, err := os.Stat(filepath.Join(artifact.Path, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	if _, err := os.Stat(artifact.Path + ".mp3"); !os.IsNotExist(err) {
		t.Error("no combined file expected")
	}
	if got := strings.Join(tagger.ops, ","); got != "tags:Part 01.mp3,tags:Part 02.mp3" {
		t.Errorf("ops = %s", got)
	}
}

func TestManager_RunNoFiles(t *testing.T) {
	manager, err := NewManager(testSettings(t), &fakeSource{title: "Empty"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Run(context.Background()); !errors.Is(err, assemble.ErrNoFiles) {
		t.Errorf("error = %v, want ErrNoFiles", err)
	}
}

func TestNewManager_InvalidTagAction(t *testing.T) {
	settings := testSettings(t)
	settings.TagActions = map[string]string{"title": "sometimes"}
	if _, err := NewManager(settings, &fakeSource{}, nil); err == nil {
		t.Error("expected error")
	}
}

func TestManager_RunOutputPaths(t *testing.T) {
	tests := []struct {
		name     string
		template string
		title    string
		want     string
	}{
		{"trailing separator", "{title}/", "My Book", "My Book.mp3"},
		{"empty title", "{author}/{title}", "...", "Jane/audiobook.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			other := filepath.Join(root, "Jane", "Other Book.m4b")
			if err := os.MkdirAll(filepath.Dir(other), 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(other, []byte("other"), 0644); err != nil {
				t.Fatal(err)
			}

			src := &selfDownloadingSource{fakeSource{
				title: tt.title,
				files: []model.FileEntry{{URL: "local://1"}, {URL: "local://2"}},
				tags:  model.Tags{{Name: "title", Value: tt.title}, {Name: "author", Value: "Jane"}},
			}}
			settings := testSettings(t)
			settings.OutputTemplate = root + "/" + tt.template
			settings.Combine = true

			manager, err := NewManager(settings, src, nil)
			if err != nil {
				t.Fatal(err)
			}
			manager.WithTagger(&recordingTagger{}).WithCombiner(fileCombiner{produce: true})

			artifact, err := manager.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if want := filepath.Join(root, filepath.FromSlash(tt.want)); artifact.Path != want {
				t.Errorf("Path = %s, want %s", artifact.Path, want)
			}
			data, err := os.ReadFile(artifact.Path)
			if err != nil || string(data) != "locallocal" {
				t.Errorf("combined content = %q, %v", data, err)
			}
			if _, err := os.Stat(other); err != nil {
				t.Errorf("unrelated book removed: %v", err)
			}
		})
	}
}

type missingBinaryCombiner struct {
	fileCombiner
}

func (missingBinaryCombiner) Available() bool { return false }

func TestManager_RunFailsEarlyWithoutCombiner(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits.Add(1)
		w.Write([]byte("x"))
	}))
	defer server.Close()

	src := &fakeSource{
		title: "My Book",
		files: []model.FileEntry{{URL: server.URL + "/1.mp3"}, {URL: server.URL + "/2.mp3"}},
	}
	settings := testSettings(t)
	settings.Combine = true

	var fatals []string
	manager, err := NewManager(settings, src, func(e ProgressEvent) {
		if e.Level == LevelError {
			fatals = append(fatals, e.Message)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	manager.WithCombiner(missingBinaryCombiner{})

	if _, err := manager.Run(context.Background()); !errors.Is(err, ErrCombinerUnavailable) {
		t.Fatalf("error = %v, want ErrCombinerUnavailable", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("%d requests made before failing", n)
	}
	if len(fatals) != 1 {
		t.Errorf("fatals = %v", fatals)
	}
}

func TestNewManager_FFmpegFromSettings(t *testing.T) {
	settings := testSettings(t)
	settings.FFmpegPath = filepath.Join(t.TempDir(), "no-ffmpeg")
	settings.Combine = true

	manager, err := NewManager(settings, &fakeSource{
		title: "My Book",
		files: []model.FileEntry{{URL: "http://127.0.0.1:1/1.mp3"}, {URL: "http://127.0.0.1:1/2.mp3"}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Run(context.Background()); !errors.Is(err, ErrCombinerUnavailable) {
		t.Errorf("error = %v, want ErrCombinerUnavailable", err)
	}
}
