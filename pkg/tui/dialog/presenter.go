package dialog

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/bugreport/pkg/logbuf"
	"github.com/modoterra/bugreport/pkg/report"
)

var _ report.Presenter = Presenter{}

// Presenter shows reports in an interactive terminal dialog.
type Presenter struct {
	// Logs, when set, feeds the live log pane.
	Logs *logbuf.Buffer

	AltScreen bool
	Options   []tea.ProgramOption
}

// Present runs the dialog until the user closes it.
func (p Presenter) Present(r report.Report) error {
	m, done := p.model(r)
	defer done()

	opts := p.Options
	if p.AltScreen {
		opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	}
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run report dialog: %w", err)
	}
	return nil
}

// model builds the dialog for r. The subscription is taken before the
// snapshot so no line falls between the two; the model drops the overlap by
// sequence number.
func (p Presenter) model(r report.Report) (Model, func()) {
	if p.Logs == nil {
		return New(r, nil), func() {}
	}
	ch := p.Logs.Subscribe()
	m := New(r, ch).WithHistory(p.Logs.Snapshot())
	return m, func() { p.Logs.Unsubscribe(ch) }
}
