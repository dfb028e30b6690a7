package dialog

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/modoterra/bugreport/pkg/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	crashTitleStyle = titleStyle.
			Foreground(lipgloss.Color("196"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	activePaneStyle = paneStyle.
			BorderForeground(lipgloss.Color("205"))

	linkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the dialog.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	header := m.renderHeader()
	editorH, logH := m.layout()

	reportPane := m.paneBox(PaneReport, " Report ", m.editor.View(), m.width-4, editorH)
	logPane := m.paneBox(PaneLogs, m.logTitle(), m.renderLogs(m.width-4, logH), m.width-4, logH)

	return lipgloss.JoinVertical(lipgloss.Left, header, reportPane, logPane, m.renderStatusBar())
}

func (m Model) renderHeader() string {
	style := titleStyle
	if m.report.Kind == report.KindCrash {
		style = crashTitleStyle
	}
	var b strings.Builder
	b.WriteString(style.Render(" "+m.title()+" ") + "\n")
	b.WriteString(lipgloss.NewStyle().Width(max(m.width-2, 20)).Render(m.report.Prompt) + "\n")
	if c := m.report.Contact; c.IssuesURL != "" {
		b.WriteString(dimStyle.Render("Report issues at: ") + linkStyle.Render(c.IssuesURL) + "\n")
	}
	if c := m.report.Contact; c.ReportEmail != "" {
		b.WriteString(dimStyle.Render("Otherwise, send the text below to: ") + linkStyle.Render(c.ReportEmail))
	}
	return b.String()
}

// layout splits the height left under the header between the report editor
// and the log pane.
func (m Model) layout() (editorH, logH int) {
	const statusBarH, borders = 1, 4
	logH = max(m.height/5, 3)
	editorH = max(m.height-lipgloss.Height(m.renderHeader())-logH-statusBarH-borders, 3)
	return editorH, logH
}

func (m *Model) resize() {
	editorH, _ := m.layout()
	m.editor.SetWidth(max(m.width-6, 10))
	m.editor.SetHeight(editorH)
}

func (m Model) paneBox(pane Pane, title, content string, w, h int) string {
	style := paneStyle
	if m.activePane == pane {
		style = activePaneStyle
	}
	return style.Width(w).Height(h).Render(
		titleStyle.Render(title) + "\n" + content,
	)
}

func (m Model) renderLogs(w, h int) string {
	if len(m.logLines) == 0 {
		return dimStyle.Render("no log output")
	}

	start := 0
	if len(m.logLines) > h-1 {
		start = len(m.logLines) - h + 1
	}

	var b strings.Builder
	for i := start; i < len(m.logLines); i++ {
		b.WriteString(truncate(m.logLines[i].String(), w) + "\n")
	}
	return b.String()
}

func (m Model) logTitle() string {
	title := " Logs "
	if m.logPaused {
		title += dimStyle.Render("[PAUSED]") + " "
	}
	return title
}

func (m Model) renderStatusBar() string {
	text := m.Text()
	left := fmt.Sprintf("%s, %d lines", humanize.Bytes(uint64(len(text))), strings.Count(text, "\n"))
	if m.Edited() {
		left += " (edited)"
	}
	if m.statusMsg != "" {
		left += " | " + m.statusMsg
	}

	right := "ctrl+y:copy ctrl+r:restore tab:pane esc:close"
	if m.activePane == PaneLogs {
		right = "space:pause tab:pane esc:close"
	}
	if m.mode == ModeConfirmClose {
		right = "y:close n:keep editing"
	}

	gap := m.width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return helpStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
