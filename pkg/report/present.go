package report

import (
	"fmt"
	"io"

	"github.com/modoterra/bugreport/pkg/core"
)

// Default contact points shown next to a report. The report is never sent
// automatically; the user copies it to one of these.
const (
	DefaultIssuesURL   = "https://github.com/modoterra/bugreport/issues/new"
	DefaultReportEmail = "bugreport-bugs@lists.modoterra.dev"
)

// Prompts shown above the report text.
const (
	ManualPrompt = "You can report a bug by filling in and submitting the form below. " +
		"You can also report bugs and include attachments on the project web site."
	CrashPrompt = "Please include a short description about what you were doing when the exception occurred."
)

// Kind tells manual reports from crash reports.
type Kind string

const (
	KindManual Kind = "manual"
	KindCrash  Kind = "crash"
)

// Contact holds the two places a user can send a report to.
type Contact struct {
	IssuesURL   string
	ReportEmail string
}

// MailtoURL returns the mailto: link for ReportEmail.
func (c Contact) MailtoURL() string {
	return "mailto:" + c.ReportEmail
}

// DefaultContact returns the built-in contact points.
func DefaultContact() Contact {
	return Contact{IssuesURL: DefaultIssuesURL, ReportEmail: DefaultReportEmail}
}

// Report is a composed report together with what a presenter needs to show it.
type Report struct {
	Kind    Kind
	Prompt  string
	Text    string
	Contact Contact

	// SendIfUnchanged is set for crash reports: even an unedited report is
	// worth sending because the trace alone is useful.
	SendIfUnchanged bool
}

// Manual composes a manual report. Pass DefaultManualTemplate for the
// standard questionnaire.
func (c *Composer) Manual(template string, contact Contact) Report {
	return Report{
		Kind:    KindManual,
		Prompt:  ManualPrompt,
		Text:    c.ManualReport(template),
		Contact: contact,
	}
}

// Crash composes a crash report for err on thread.
func (c *Composer) Crash(err error, thread core.ThreadDescriptor, contact Contact) Report {
	return Report{
		Kind:            KindCrash,
		Prompt:          CrashPrompt,
		Text:            c.CrashReport(err, thread),
		Contact:         contact,
		SendIfUnchanged: true,
	}
}

// Presenter shows a finished report to the user.
type Presenter interface {
	Present(r Report) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(r Report) error

func (f PresenterFunc) Present(r Report) error { return f(r) }

// WriterPresenter prints reports as plain text, for terminals without a TUI
// and as the fallback when a richer presenter fails.
type WriterPresenter struct {
	W io.Writer
}

// Present writes the prompt, the contact points and the report text.
func (p WriterPresenter) Present(r Report) error {
	_, err := fmt.Fprintf(p.W, "%s\n\nReport issues at: %s\nOtherwise, send the text below to: %s\n\n%s",
		r.Prompt, r.Contact.IssuesURL, r.Contact.ReportEmail, r.Text)
	return err
}
