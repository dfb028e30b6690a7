package report

import (
	"io"
	"log/slog"
	"os"

	"github.com/modoterra/bugreport/pkg/core"
)

// Guard turns uncaught panics into crash reports.
//
//	g := report.NewGuard(composer, presenter, contact, logger)
//	defer g.Recover()
type Guard struct {
	composer  *Composer
	presenter Presenter
	contact   Contact
	logger    *slog.Logger
	fallback  io.Writer

	// Repanic re-raises the panic after the report has been presented, so
	// the process still dies with Go's own crash output.
	Repanic bool
}

// NewGuard creates a guard. presenter may be nil, in which case reports are
// written to stderr.
func NewGuard(composer *Composer, presenter Presenter, contact Contact, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		composer:  composer,
		presenter: presenter,
		contact:   contact,
		logger:    logger,
		fallback:  os.Stderr,
	}
}

// Recover must be deferred directly: defer g.Recover().
func (g *Guard) Recover() {
	v := recover()
	if v == nil {
		return
	}
	perr := NewPanicError(v)
	g.Report(perr, CurrentGoroutine())
	if g.Repanic {
		panic(v)
	}
}

// Go runs fn on a new goroutine with the guard installed.
func (g *Guard) Go(fn func()) {
	go func() {
		defer g.Recover()
		fn()
	}()
}

// Report logs err, composes a crash report and presents it. When the
// presenter fails the report is written to the fallback writer instead, so
// the text is never lost.
func (g *Guard) Report(err error, thread core.ThreadDescriptor) Report {
	g.logger.Error("uncaught failure", "err", err, "thread", describe(thread))

	r := g.composer.Crash(err, thread, g.contact)
	if g.presenter == nil {
		g.writeFallback(r)
		return r
	}
	if perr := g.presenter.Present(r); perr != nil {
		g.logger.Warn("presenting crash report failed", "err", perr)
		g.writeFallback(r)
	}
	return r
}

func (g *Guard) writeFallback(r Report) {
	if err := (WriterPresenter{W: g.fallback}).Present(r); err != nil {
		g.logger.Error("writing crash report failed", "err", err)
	}
}

func describe(t core.ThreadDescriptor) string {
	if isNil(t) {
		return "unspecified"
	}
	return t.String()
}
