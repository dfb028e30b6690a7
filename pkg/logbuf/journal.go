package logbuf

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/coreos/go-systemd/v22/journal"

	"github.com/modoterra/bugreport/pkg/core"
)

// JournalSink mirrors buffered lines into the systemd journal so they outlive
// the process. It is optional; the buffer works without it.
type JournalSink struct {
	identifier string
	logger     *slog.Logger
	send       func(message string, priority journal.Priority, vars map[string]string) error
}

// NewJournalSink creates a sink that tags entries with SYSLOG_IDENTIFIER=identifier.
func NewJournalSink(identifier string, logger *slog.Logger) *JournalSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalSink{identifier: identifier, logger: logger, send: journal.Send}
}

// Available reports whether a journal socket is reachable.
func (s *JournalSink) Available() bool {
	return journal.Enabled()
}

// Run forwards every line recorded into buf until ctx is cancelled.
// Send failures are counted and dropped; the sink never affects the caller.
func (s *JournalSink) Run(ctx context.Context, buf *Buffer) {
	ch := buf.Subscribe()
	defer buf.Unsubscribe(ch)

	var failures int
	for {
		select {
		case <-ctx.Done():
			if failures > 0 {
				s.logger.Debug("journal sink stopped", "failures", failures)
			}
			return
		case line, ok := <-ch:
			if !ok {
				return
			}
			if err := s.Write(line); err != nil {
				failures++
			}
		}
	}
}

// Write sends a single line to the journal.
func (s *JournalSink) Write(line core.LogLine) error {
	vars := map[string]string{
		"SYSLOG_IDENTIFIER": s.identifier,
		"BUGREPORT_SEQ":     strconv.FormatUint(line.Seq, 10),
	}
	if line.Source != "" {
		vars["BUGREPORT_SOURCE"] = line.Source
	}
	return s.send(line.Message, journalPriority(line.Level), vars)
}

func journalPriority(l core.Level) journal.Priority {
	switch l {
	case core.LevelDebug:
		return journal.PriDebug
	case core.LevelWarn:
		return journal.PriWarning
	case core.LevelError:
		return journal.PriErr
	default:
		return journal.PriInfo
	}
}
