package logbuf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modoterra/bugreport/pkg/core"
)

// SourceKey is the attribute whose value becomes a LogLine's Source.
const SourceKey = "component"

// Handler is a slog.Handler that records every enabled record into a Buffer
// and then passes it on to an optional downstream handler.
//
//	logger := slog.New(logbuf.NewHandler(buf, slog.NewTextHandler(os.Stderr, nil), nil))
type Handler struct {
	buf    *Buffer
	next   slog.Handler
	level  slog.Leveler
	source string
	prefix string // group prefix for attribute keys
	attrs  string // preformatted attributes from WithAttrs
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Level is the minimum level recorded into the buffer. Defaults to
	// slog.LevelDebug so the buffer sees more than the console does.
	Level slog.Leveler
}

// NewHandler returns a handler that records into buf and forwards to next.
// next may be nil.
func NewHandler(buf *Buffer, next slog.Handler, opts *HandlerOptions) *Handler {
	h := &Handler{buf: buf, next: next, level: slog.LevelDebug}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled reports whether either the buffer or the downstream handler wants
// records at lvl.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	if lvl >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, lvl)
}

// Handle records r and forwards it downstream.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level.Level() {
		h.buf.Record(h.lineFor(r))
	}
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

// WithAttrs returns a handler whose records carry attrs.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		if a.Key == SourceKey && h.prefix == "" {
			nh.source = a.Value.String()
			continue
		}
		appendAttr(&sb, h.prefix, a)
	}
	nh.attrs = sb.String()
	if h.next != nil {
		nh.next = h.next.WithAttrs(attrs)
	}
	return &nh
}

// WithGroup returns a handler that qualifies later attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	if h.next != nil {
		nh.next = h.next.WithGroup(name)
	}
	return &nh
}

func (h *Handler) lineFor(r slog.Record) core.LogLine {
	source := h.source
	var sb strings.Builder
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == SourceKey && h.prefix == "" {
			source = a.Value.String()
			return true
		}
		appendAttr(&sb, h.prefix, a)
		return true
	})
	return core.LogLine{
		Time:    r.Time,
		Level:   LevelFromSlog(r.Level),
		Source:  source,
		Message: sb.String(),
	}
}

func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(sb, p, ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\r\n\"=") {
		val = fmt.Sprintf("%q", val)
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	sb.WriteString(val)
}

// LevelFromSlog maps a slog level onto the four report levels.
func LevelFromSlog(l slog.Level) core.Level {
	switch {
	case l < slog.LevelInfo:
		return core.LevelDebug
	case l < slog.LevelWarn:
		return core.LevelInfo
	case l < slog.LevelError:
		return core.LevelWarn
	default:
		return core.LevelError
	}
}

// SlogLevel maps a report level onto slog.
func SlogLevel(l core.Level) slog.Level {
	switch l {
	case core.LevelDebug:
		return slog.LevelDebug
	case core.LevelWarn:
		return slog.LevelWarn
	case core.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
