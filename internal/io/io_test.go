package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Song: Part 1/2", "Song_ Part 1_2"},
		{"Track...", "Track"},
		{"Name   with  spaces", "Name with spaces"},
		{"jpg", "jpg"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.input); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMoveFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "a", "Part 01.mp3")
	dst := filepath.Join(dir, "a.mp3")

	if err := EnsureDir(filepath.Dir(src)); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(ctx, src, []byte("audio")); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(ctx, src, dst); err != nil {
		t.Fatalf("MoveFile() error = %v", err)
	}
	if Exists(src) {
		t.Error("source should be gone after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "audio" {
		t.Errorf("destination content = %q, %v", data, err)
	}
}

func TestExistsAndDirExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Error("Exists() should be false for a directory")
	}
	if !DirExists(dir) {
		t.Error("DirExists() should be true for a directory")
	}
	if Exists(filepath.Join(dir, "missing")) {
		t.Error("Exists() should be false for a missing file")
	}
}

func TestRemoveDownloadDir(t *testing.T) {
	write := func(t *testing.T, dir string, names ...string) {
		t.Helper()
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
				t.Fatal(err)
			}
		}
	}
	parts := []string{"Part 01.mp3", "Part 02.mp3"}

	tests := []struct {
		name        string
		files       []string
		wantRemoved bool
		wantLeft    []string
	}{
		{"only parts", parts, true, nil},
		{"part already moved", parts[:1], true, nil},
		{"foreign file kept", append([]string{"Other Book.m4b"}, parts...), false, []string{"Other Book.m4b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "My Book")
			write(t, dir, tt.files...)

			removed, err := RemoveDownloadDir(dir, parts)
			if err != nil {
				t.Fatalf("RemoveDownloadDir() error = %v", err)
			}
			if removed != tt.wantRemoved {
				t.Errorf("RemoveDownloadDir() = %v, want %v", removed, tt.wantRemoved)
			}
			if DirExists(dir) == tt.wantRemoved {
				t.Errorf("DirExists() = %v after removal = %v", DirExists(dir), removed)
			}
			for _, name := range tt.wantLeft {
				if !Exists(filepath.Join(dir, name)) {
					t.Errorf("%s should have been kept", name)
				}
			}
			for _, name := range parts {
				if Exists(filepath.Join(dir, name)) {
					t.Errorf("%s should have been removed", name)
				}
			}
		})
	}

	t.Run("missing dir", func(t *testing.T) {
		removed, err := RemoveDownloadDir(filepath.Join(t.TempDir(), "missing"), parts)
		if removed || err != nil {
			t.Errorf("RemoveDownloadDir() = %v, %v", removed, err)
		}
	})
}

func TestIsWithin(t *testing.T) {
	tests := []struct {
		dir, path string
		want      bool
	}{
		{"/books/My Book", "/books/My Book", true},
		{"/books/My Book", "/books/My Book/sub", true},
		{"/books/My Book/", "/books/My Book", true},
		{"/books/My Book", "/books", false},
		{"/books/My Book", "/books/My Book 2", false},
		{"/books/My Book", "/books/..My Book", false},
	}

	for _, tt := range tests {
		dir, path := filepath.FromSlash(tt.dir), filepath.FromSlash(tt.path)
		if got := IsWithin(dir, path); got != tt.want {
			t.Errorf("IsWithin(%q, %q) = %v, want %v", dir, path, got, tt.want)
		}
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageService_ConvertToJPEG(t *testing.T) {
	svc := NewImageService()
	data := testPNG(t, 20, 10)
	if !IsPNG(data) {
		t.Fatal("test image should be PNG")
	}

	out, err := svc.ConvertToJPEG(context.Background(), data)
	if err != nil {
		t.Fatalf("ConvertToJPEG() error = %v", err)
	}
	if !IsJPEG(out) {
		t.Error("output should be JPEG")
	}

	again, err := svc.ConvertToJPEG(context.Background(), out)
	if err != nil || !bytes.Equal(again, out) {
		t.Error("JPEG input should be returned unchanged")
	}
}

func TestImageService_ResizeImage(t *testing.T) {
	svc := NewImageService()
	out, err := svc.ResizeImage(context.Background(), testPNG(t, 150, 100), 100, 100)
	if err != nil {
		t.Fatalf("ResizeImage() error = %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode resized image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 66 {
		t.Errorf("resized bounds = %dx%d, want 100x66", b.Dx(), b.Dy())
	}

	if _, err := svc.ResizeImage(context.Background(), []byte("not an image"), 10, 10); err == nil {
		t.Error("expected error for invalid image data")
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{1500, 1000, 1000, 1000, 1000, 666},
		{1000, 1500, 1000, 1000, 666, 1000},
		{500, 400, 1000, 1000, 500, 400},
		{2000, 500, 1000, 1000, 1000, 250},
	}

	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fitWithin(%d, %d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.maxW, tt.maxH, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestImageService_PrepareCover(t *testing.T) {
	svc := NewImageService()
	ctx := context.Background()

	out, errs := svc.PrepareCover(ctx, testPNG(t, 40, 20), CoverOptions{MaxSize: 10, JPEG: true})
	if len(errs) != 0 {
		t.Fatalf("PrepareCover() errors = %v", errs)
	}
	if !IsJPEG(out) {
		t.Error("prepared cover should be JPEG")
	}

	raw := []byte("not an image")
	out, errs = svc.PrepareCover(ctx, raw, CoverOptions{MaxSize: 10, JPEG: true})
	if len(errs) != 2 {
		t.Errorf("got %d errors, want 2", len(errs))
	}
	if !bytes.Equal(out, raw) {
		t.Error("undecodable cover should be returned unchanged")
	}

	out, errs = svc.PrepareCover(ctx, raw, CoverOptions{})
	if len(errs) != 0 || !bytes.Equal(out, raw) {
		t.Error("no options should be a no-op")
	}
}
