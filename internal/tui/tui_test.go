package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/handiism/audiobook-downloader/internal/assemble"
	"github.com/handiism/audiobook-downloader/internal/config"
	"github.com/handiism/audiobook-downloader/internal/download"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_ToggleOptions(t *testing.T) {
	m := NewModel(config.DefaultSettings())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c"), Alt: true})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p"), Alt: true})
	if !m.combine || !m.playlist || m.verbose {
		t.Errorf("combine=%v playlist=%v verbose=%v", m.combine, m.playlist, m.verbose)
	}
	if m.textInput.Value() != "" {
		t.Errorf("toggles should not type into the input, got %q", m.textInput.Value())
	}

	view := m.View()
	if !strings.Contains(view, "[×] Combine") {
		t.Error("view does not show combine checked")
	}
}

func TestModel_TypingDoesNotToggle(t *testing.T) {
	m := NewModel(nil)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if m.combine {
		t.Error("plain c should be typed, not toggle combine")
	}
	if m.textInput.Value() != "c" {
		t.Errorf("input = %q", m.textInput.Value())
	}
}

func TestTransfer_Percent(t *testing.T) {
	tr := transfer{files: 4, filesDone: 1}
	if got := tr.percent(); got != 0.25 {
		t.Errorf("file percent = %v", got)
	}

	tr.total, tr.received = 200, 150
	if got := tr.percent(); got != 0.75 {
		t.Errorf("byte percent = %v", got)
	}

	// More bytes than declared falls back to file counts.
	tr.received = 300
	if got := tr.percent(); got != 0.25 {
		t.Errorf("fallback percent = %v", got)
	}
}

func TestModel_DownloadDone(t *testing.T) {
	m := NewModel(nil)
	m.state = StateDownloading

	done := update(t, m, DownloadDoneMsg{
		Artifact: &assemble.Artifact{Kind: assemble.ArtifactFile, Path: "/books/My Book.m4b"},
		Received: 2048,
		Files:    3,
		TotalF:   3,
	})
	if done.state != StateComplete {
		t.Fatalf("state = %v", done.state)
	}
	if !strings.Contains(done.View(), "/books/My Book.m4b") {
		t.Error("complete view should show the artifact path")
	}

	failed := update(t, m, DownloadDoneMsg{Err: errors.New("boom")})
	if failed.state != StateError || failed.err == nil {
		t.Errorf("state = %v, err = %v", failed.state, failed.err)
	}
}

func TestModel_VerboseFilter(t *testing.T) {
	m := NewModel(nil)
	m.state = StateDownloading

	m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "hidden", Level: download.LevelVerbose}})
	m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "shown", Level: download.LevelInfo}})
	if len(m.logs) != 1 || m.logs[0].Message != "shown" {
		t.Errorf("logs = %+v", m.logs)
	}
}
