package dialog

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/modoterra/bugreport/pkg/core"
	"github.com/modoterra/bugreport/pkg/report"
)

// Pane identifies which dialog pane is focused.
type Pane int

const (
	PaneReport Pane = iota
	PaneLogs
)

// Mode identifies the current interaction mode.
type Mode int

const (
	ModeEdit Mode = iota
	ModeConfirmClose
)

const maxLogLines = 500

// Model is the Bubble Tea model of the report dialog.
type Model struct {
	report  report.Report
	initial string
	editor  textarea.Model

	// Live log pane
	logs      <-chan core.LogLine
	logLines  []core.LogLine
	lastSeq   uint64 // highest Seq seen; older lines are duplicates
	logPaused bool

	// UI
	activePane Pane
	mode       Mode
	width      int
	height     int
	copied     bool
	statusMsg  string

	copy func(string) error
}

// New creates a dialog showing r. logs, when non-nil, feeds the live log
// pane until it is closed.
func New(r report.Report, logs <-chan core.LogLine) Model {
	ta := textarea.New()
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false
	ta.SetValue(r.Text)
	ta.Focus()

	return Model{
		report:     r,
		initial:    ta.Value(),
		editor:     ta,
		logs:       logs,
		activePane: PaneReport,
		mode:       ModeEdit,
		copy:       clipboard.WriteAll,
	}
}

// WithHistory seeds the log pane with lines recorded before the dialog opened.
func (m Model) WithHistory(lines []core.LogLine) Model {
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	m.logLines = append([]core.LogLine(nil), lines...)
	if len(lines) > 0 {
		m.lastSeq = max(m.lastSeq, lines[len(lines)-1].Seq)
	}
	return m
}

// Edited reports whether the user changed the report text.
func (m Model) Edited() bool {
	return m.editor.Value() != m.initial
}

// Text returns the report as it would be copied: the composed text when
// unedited, the editor contents otherwise.
func (m Model) Text() string {
	if !m.Edited() {
		return m.report.Text
	}
	return m.editor.Value()
}

// Copied reports whether the report reached the clipboard.
func (m Model) Copied() bool { return m.copied }

func (m Model) title() string {
	if m.report.Kind == report.KindCrash {
		return "Crash report"
	}
	return "Bug report"
}

// Init starts cursor blinking and the log feed.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		tea.SetWindowTitle(m.title()),
		waitForLog(m.logs),
	)
}

// logLineMsg carries a line recorded while the dialog is open.
type logLineMsg core.LogLine

// copiedMsg carries the result of a clipboard write.
type copiedMsg struct {
	size int
	err  error
}

func waitForLog(ch <-chan core.LogLine) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return nil
		}
		return logLineMsg(line)
	}
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{size: len(text), err: write(text)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case logLineMsg:
		if msg.Seq != 0 && msg.Seq <= m.lastSeq {
			return m, waitForLog(m.logs)
		}
		m.lastSeq = max(m.lastSeq, msg.Seq)
		if !m.logPaused {
			m.logLines = append(m.logLines, core.LogLine(msg))
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
		}
		return m, waitForLog(m.logs)

	case copiedMsg:
		if msg.err != nil {
			m.statusMsg = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.copied = true
		m.statusMsg = fmt.Sprintf("copied %s to clipboard", humanize.Bytes(uint64(msg.size)))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Close confirmation mode
	if m.mode == ModeConfirmClose {
		switch msg.String() {
		case "y", "Y":
			return m, tea.Quit
		default:
			m.mode = ModeEdit
			m.statusMsg = "close cancelled"
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.needsConfirm() {
			m.mode = ModeConfirmClose
			m.statusMsg = "Close without copying the report? (y/n)"
			return m, nil
		}
		return m, tea.Quit

	case "ctrl+y":
		return m, copyCmd(m.copy, m.Text())

	case "ctrl+r":
		m.editor.SetValue(m.report.Text)
		m.initial = m.editor.Value()
		m.statusMsg = "report restored"
		return m, nil

	case "tab":
		if m.activePane == PaneReport {
			m.activePane = PaneLogs
			m.editor.Blur()
			return m, nil
		}
		m.activePane = PaneReport
		return m, m.editor.Focus()
	}

	if m.activePane == PaneLogs {
		if msg.String() == " " {
			m.logPaused = !m.logPaused
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// needsConfirm guards against losing a report nobody copied. Crash reports
// are worth sending even when unchanged.
func (m Model) needsConfirm() bool {
	return !m.copied && (m.Edited() || m.report.SendIfUnchanged)
}
