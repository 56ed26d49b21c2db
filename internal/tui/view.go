package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/handiism/audiobook-downloader/internal/download"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8DADC"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
	bookStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F8B500"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// logMarks pairs each event level with its bullet and style.
var logMarks = map[download.ProgressLevel]struct {
	bullet string
	style  lipgloss.Style
}{
	download.LevelError:   {"✗", errorStyle},
	download.LevelWarning: {"!", warningStyle},
	download.LevelSuccess: {"✓", successStyle},
	download.LevelInfo:    {"›", infoStyle},
}

// View renders the UI.
func (m Model) View() string {
	var body string
	switch m.state {
	case StateInput:
		body = m.viewInput()
	case StateInitializing:
		body = m.viewInitializing()
	case StateDownloading, StateAssembling:
		body = m.viewDownloading()
	case StateComplete:
		body = m.viewComplete()
	case StateError:
		body = m.viewError()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("🎧 Audiobook Downloader"),
		dimStyle.Render("Download and assemble audiobooks"),
		"",
		body,
		dimStyle.Render(m.getHelpText()),
	)
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	options := []string{
		fmt.Sprintf("  %s Combine into one %s file (alt+c)", checkbox(m.combine), m.settings.Format()),
		fmt.Sprintf("  %s Create playlist (alt+p)", checkbox(m.playlist)),
		fmt.Sprintf("  %s Verbose/debug output (alt+v)", checkbox(m.verbose)),
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		subtitleStyle.Render("Enter manifest path:"),
		"",
		m.textInput.View(),
		"",
		infoStyle.Render("Options:"),
		strings.Join(options, "\n"),
		"",
		dimStyle.Render("Output: "+m.settings.OutputTemplate),
		"",
	)
}

func (m Model) viewInitializing() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.spinner.View()+" "+subtitleStyle.Render("Reading manifest..."),
		"",
		m.renderLogs(),
	)
}

func (m Model) viewDownloading() string {
	var lines []string
	if m.title != "" {
		lines = append(lines, bookStyle.Render("  ♪ "+m.title), "")
	}

	size := humanize.Bytes(uint64(m.transfer.received))
	if m.transfer.total > 0 {
		size += " / " + humanize.Bytes(uint64(m.transfer.total))
	}
	lines = append(lines,
		m.progress.ViewAs(m.transfer.percent()),
		infoStyle.Render(fmt.Sprintf("Files: %d/%d | Downloaded: %s", m.transfer.filesDone, m.transfer.files, size)),
	)

	if m.state == StateAssembling {
		lines = append(lines, m.spinner.View()+" "+subtitleStyle.Render("Assembling..."))
	}

	lines = append(lines, "", m.renderLogs())
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewComplete() string {
	summary := []string{
		"✨ Download Complete!",
		"",
		"Book: " + m.title,
		fmt.Sprintf("Files: %d", m.transfer.filesDone),
		"Size: " + humanize.Bytes(uint64(m.transfer.received)),
	}
	if m.artifact != nil {
		summary = append(summary, fmt.Sprintf("Output (%s): %s", m.artifact.Kind, m.artifact.Path))
	}
	return boxStyle.Render(strings.Join(summary, "\n")) + "\n"
}

func (m Model) viewError() string {
	message := ""
	if m.err != nil {
		message = "  " + m.err.Error()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render("❌ Error occurred:"),
		"",
		message,
		"",
		m.renderLogs(),
	)
}

func (m Model) renderLogs() string {
	var b strings.Builder
	for _, log := range m.logs {
		mark, ok := logMarks[log.Level]
		if !ok {
			mark.bullet, mark.style = "•", dimStyle
		}
		b.WriteString(mark.style.Render(mark.bullet + " " + log.Message))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • alt+c: combine • alt+p: playlist • alt+v: verbose • esc: quit"
	case StateInitializing, StateDownloading, StateAssembling:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}
