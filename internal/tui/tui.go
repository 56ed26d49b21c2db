// Package tui provides a Bubble Tea terminal user interface for audiobook-downloader.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/audiobook-downloader/internal/assemble"
	"github.com/handiism/audiobook-downloader/internal/config"
	"github.com/handiism/audiobook-downloader/internal/download"
	"github.com/handiism/audiobook-downloader/internal/http"
	"github.com/handiism/audiobook-downloader/internal/source"
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateAssembling
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// maxLogs is how many recent log lines stay on screen.
const maxLogs = 10

// transfer is one reading of the manager's progress counters.
type transfer struct {
	received, total  int64
	filesDone, files int32
}

func readTransfer(manager *download.Manager) transfer {
	var t transfer
	t.received, t.total, t.filesDone, t.files = manager.GetProgress()
	return t
}

// percent is the byte ratio when every part declared its length,
// the file ratio otherwise.
func (t transfer) percent() float64 {
	if t.total > 0 && t.received <= t.total {
		return float64(t.received) / float64(t.total)
	}
	if t.files > 0 {
		return float64(t.filesDone) / float64(t.files)
	}
	return 0
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	title     string
	artifact  *assemble.Artifact
	err       error

	// Run context, replaced on every new download
	ctx    context.Context
	cancel context.CancelFunc

	manager  *download.Manager
	events   chan download.ProgressEvent
	transfer transfer

	// Options
	combine  bool
	playlist bool
	verbose  bool
}

// NewModel creates a new TUI model using settings as the base
// configuration for every download.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "/path/to/book.yaml"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	m := Model{
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		combine:   settings.Combine,
		playlist:  settings.CreatePlaylist,
	}
	return m.reset()
}

// reset returns the model ready for a new manifest, keeping options.
func (m Model) reset() Model {
	m.state = StateInput
	m.logs = nil
	m.title = ""
	m.artifact = nil
	m.err = nil
	m.manager = nil
	m.events = nil
	m.transfer = transfer{}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg is sent for every pipeline event.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// StartedMsg is sent once the manager is created.
	StartedMsg struct {
		Manager *download.Manager
		Events  chan download.ProgressEvent
		Err     error
	}

	// DownloadDoneMsg is sent when the pipeline finishes.
	DownloadDoneMsg struct {
		Artifact *assemble.Artifact
		Received int64
		Total    int64
		Files    int32
		TotalF   int32
		Err      error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if m.manager != nil && m.title == "" {
			m.title = m.manager.Title()
		}
		m.addLog(msg.Event)
		cmds = append(cmds, waitForEvent(m.events))

	case StartedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.manager = msg.Manager
		m.events = msg.Events
		cmds = append(cmds, waitForEvent(m.events), m.runManager(), m.tickProgress())

	case DownloadDoneMsg:
		m.transfer = transfer{received: msg.Received, total: msg.Total, filesDone: msg.Files, files: msg.TotalF}
		m.artifact = msg.Artifact
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.running() {
			m.transfer = readTransfer(m.manager)
			switch {
			case m.transfer.files > 0 && m.transfer.filesDone == m.transfer.files:
				m.state = StateAssembling
			case m.transfer.files > 0:
				m.state = StateDownloading
			}
			cmds = append(cmds, m.progress.SetPercent(m.transfer.percent()), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes keys that control the UI. Keys it does not
// handle fall through to the text input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	finished := m.state == StateComplete || m.state == StateError

	switch key := msg.String(); {
	case key == "ctrl+c":
		m.cancel()
		return m, tea.Quit, true

	case key == "esc" && m.state == StateInput:
		return m, tea.Quit, true

	case key == "esc" && m.running():
		m.cancel()
		m.state = StateError
		m.err = fmt.Errorf("cancelled by user")
		return m, nil, true

	case key == "enter" && m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "":
		m.state = StateInitializing
		return m, tea.Batch(m.startDownload(), m.spinner.Tick), true

	case key == "alt+c" && m.state == StateInput:
		m.combine = !m.combine
		return m, nil, true

	case key == "alt+p" && m.state == StateInput:
		m.playlist = !m.playlist
		return m, nil, true

	case key == "alt+v" && m.state == StateInput:
		m.verbose = !m.verbose
		return m, nil, true

	case key == "q" && finished:
		return m, tea.Quit, true

	case key == "r" && finished:
		return m.reset(), nil, true
	}
	return m, nil, false
}

// addLog keeps the event for display unless it is verbose and verbose
// output is off.
func (m *Model) addLog(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) running() bool {
	return m.state == StateInitializing || m.state == StateDownloading || m.state == StateAssembling
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent delivers the next pipeline event as a ProgressMsg.
func waitForEvent(events chan download.ProgressEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

// startDownload creates the manager for the entered manifest.
func (m Model) startDownload() tea.Cmd {
	path := strings.TrimSpace(m.textInput.Value())

	// Apply options
	settings := *m.settings
	settings.Combine = m.combine
	settings.CreatePlaylist = m.playlist

	return func() tea.Msg {
		events := make(chan download.ProgressEvent, 64)
		src := source.NewManifestSource(path, http.NewClient(settings.ToHTTPOptions()))

		manager, err := download.NewManager(&settings, src, func(event download.ProgressEvent) {
			select {
			case events <- event:
			default:
				// UI is behind; drop the event.
			}
		})
		if err != nil {
			return StartedMsg{Err: err}
		}

		return StartedMsg{Manager: manager, Events: events}
	}
}

// runManager runs the pipeline in background.
func (m Model) runManager() tea.Cmd {
	ctx, manager, events := m.ctx, m.manager, m.events
	return func() tea.Msg {
		artifact, err := manager.Run(ctx)
		received, total, files, totalFiles := manager.GetProgress()
		close(events)

		return DownloadDoneMsg{
			Artifact: artifact,
			Received: received,
			Total:    total,
			Files:    files,
			TotalF:   totalFiles,
			Err:      err,
		}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
