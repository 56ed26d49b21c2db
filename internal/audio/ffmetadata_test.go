package audio

import (
	"strings"
	"testing"
	"time"

	"github.com/handiism/audiobook-downloader/internal/model"
)

func TestFFMetadata(t *testing.T) {
	chapters := []model.Chapter{
		{Start: 0, Title: "Opening"},
		{Start: 90 * time.Second, Title: "Part=Two; #2"},
	}

	got := FFMetadata(chapters, 5*time.Minute)

	if !strings.HasPrefix(got, ";FFMETADATA1\n") {
		t.Fatal("missing FFMETADATA1 header")
	}
	if strings.Count(got, "[CHAPTER]") != 2 {
		t.Errorf("expected 2 chapters, got:\n%s", got)
	}
	for _, want := range []string{
		"START=0\nEND=90000\ntitle=Opening\n",
		"START=90000\nEND=300000\n",
		`title=Part\=Two\; \#2`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFFMetadata_UnknownDuration(t *testing.T) {
	got := FFMetadata([]model.Chapter{{Start: time.Minute, Title: "Only"}}, 0)
	if !strings.Contains(got, "START=60000\nEND=60000\n") {
		t.Errorf("last chapter should end at its start when total is unknown:\n%s", got)
	}
}

func TestConcatList(t *testing.T) {
	got := ConcatList([]string{"Part 01.mp3", "It's.mp3"})
	want := "file 'Part 01.mp3'\nfile 'It'\\''s.mp3'\n"
	if got != want {
		t.Errorf("ConcatList() = %q, want %q", got, want)
	}
}

func TestSameExtension(t *testing.T) {
	if !sameExtension([]string{"a.MP3", "b.mp3"}, "/x/out.mp3") {
		t.Error("same extensions should allow stream copy")
	}
	if sameExtension([]string{"a.mp3"}, "/x/out.m4b") {
		t.Error("different extensions need transcoding")
	}
}

func TestParseSeconds(t *testing.T) {
	d, err := parseSeconds("12.500000\n")
	if err != nil || d != 12500*time.Millisecond {
		t.Errorf("parseSeconds() = %v, %v", d, err)
	}
	if _, err := parseSeconds("N/A"); err == nil {
		t.Error("expected error for N/A")
	}
}
