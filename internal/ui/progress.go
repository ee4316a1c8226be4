package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lakshaymaurya-felt/cleanml/internal/core"
	"github.com/lakshaymaurya-felt/cleanml/internal/worker"
)

// maxErrors caps the failures listed under the progress line.
const maxErrors = 5

// ─── Messages ────────────────────────────────────────────────────────────────

// EventMsg carries one worker event into the program.
type EventMsg worker.Event

// DoneMsg ends the program with the pass outcome.
type DoneMsg struct {
	Totals worker.Totals
	Err    error
}

var quitKeys = key.NewBinding(
	key.WithKeys("q", "esc", "ctrl+c"),
	key.WithHelp("q", "stop"),
)

// ─── Model ───────────────────────────────────────────────────────────────────

// ProgressModel is the bubbletea Model shown during a pass.
type ProgressModel struct {
	Really bool
	Result DoneMsg

	spinner  spinner.Model
	bar      progress.Model
	current  string
	fraction float64
	partial  bool
	totals   worker.Totals
	errors   []string
	width    int
	stop     func()
	stopping bool
	done     bool
}

// NewProgressModel creates the model. stop is called once when the user
// asks to quit; the program ends when DoneMsg arrives.
func NewProgressModel(really bool, stop func()) ProgressModel {
	return ProgressModel{
		Really:  really,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(ColorPrimary))),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		width:   80,
		stop:    stop,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, quitKeys) && !m.stopping {
			m.stopping = true
			if m.stop != nil {
				m.stop()
			}
		}
		return m, nil

	case EventMsg:
		m.totals = msg.Totals
		if msg.Err != nil {
			if len(m.errors) < maxErrors {
				m.errors = append(m.errors, msg.Err.Error())
			}
			return m, nil
		}
		m.current = strings.TrimSpace(msg.Result.Label + " " + msg.Result.Path)
		m.partial = msg.Result.Partial
		m.fraction = msg.Result.Progress
		return m, nil

	case DoneMsg:
		m.Result = msg
		m.totals = msg.Totals
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.done {
		return ""
	}
	var s strings.Builder

	verb := "Previewing"
	if m.Really {
		verb = "Cleaning"
	}
	if m.stopping {
		verb = "Stopping"
	}
	s.WriteString(m.spinner.View() + " " + TitleStyle().Render(verb))
	s.WriteString(MutedStyle().Render(fmt.Sprintf("  %s items, %s", core.FormatCount(m.totals.Deleted+m.totals.Special), core.FormatSize(m.totals.Size))))
	s.WriteString("\n")

	if m.partial {
		s.WriteString("  " + m.bar.ViewAs(m.fraction) + "\n")
	}
	if m.current != "" {
		s.WriteString(MutedStyle().Render("  "+IconPipe+" ") + truncate(m.current, m.width-6) + "\n")
	}
	for _, e := range m.errors {
		s.WriteString(ErrorStyle().Render("  "+IconError+" "+truncate(e, m.width-6)) + "\n")
	}
	s.WriteString(MutedStyle().Render("  " + quitKeys.Help().Key + " " + quitKeys.Help().Desc))
	return s.String()
}

func truncate(s string, width int) string {
	if width < 8 {
		width = 8
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// RenderSummary formats the totals of a finished pass.
func RenderSummary(really bool, t worker.Totals) string {
	var s strings.Builder
	freed := "Disk space to be recovered:"
	removed := "Files to be deleted:"
	if really {
		freed = "Disk space recovered:"
		removed = "Files deleted:"
	}
	row := func(label, value string) {
		s.WriteString(fmt.Sprintf("%-28s %s\n", label, value))
	}
	row(freed, FormatSize(t.Size))
	row(removed, core.FormatCount(t.Deleted))
	if t.Special > 0 {
		row("Special operations:", core.FormatCount(t.Special))
	}
	if t.Errors > 0 {
		row("Errors:", ErrorStyle().Render(core.FormatCount(t.Errors)))
	}
	return s.String()
}
