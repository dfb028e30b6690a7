package logbuf

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/modoterra/bugreport/pkg/core"
)

func TestHandlerRecordsIntoBuffer(t *testing.T) {
	buf := New(10)
	logger := slog.New(NewHandler(buf, nil, nil))

	logger.Info("file opened", "path", "/tmp/rocket.ork", "bytes", 1024)
	logger.With(SourceKey, "simulation").Warn("step clamped", "dt", 0.01)
	logger.Error("load failed", "err", errors.New("bad header"))

	snap := buf.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(snap))
	}

	tests := []struct {
		level   core.Level
		source  string
		message string
	}{
		{core.LevelInfo, "", "file opened path=/tmp/rocket.ork bytes=1024"},
		{core.LevelWarn, "simulation", "step clamped dt=0.01"},
		{core.LevelError, "", `load failed err="bad header"`},
	}
	for i, tt := range tests {
		got := snap[i]
		if got.Level != tt.level {
			t.Errorf("line %d level: got %v, want %v", i, got.Level, tt.level)
		}
		if got.Source != tt.source {
			t.Errorf("line %d source: got %q, want %q", i, got.Source, tt.source)
		}
		if got.Message != tt.message {
			t.Errorf("line %d message: got %q, want %q", i, got.Message, tt.message)
		}
		if got.Time.IsZero() {
			t.Errorf("line %d has zero time", i)
		}
	}
}

func TestHandlerSourceFromRecordAttr(t *testing.T) {
	buf := New(2)
	logger := slog.New(NewHandler(buf, nil, nil))
	logger.Info("hello", SourceKey, "ui")

	snap := buf.Snapshot()
	if snap[0].Source != "ui" || snap[0].Message != "hello" {
		t.Errorf("unexpected line: %+v", snap[0])
	}
}

func TestHandlerGroups(t *testing.T) {
	buf := New(2)
	logger := slog.New(NewHandler(buf, nil, nil)).WithGroup("req").With("id", 7)
	logger.Info("served", slog.Group("resp", "code", 200))

	got := buf.Snapshot()[0].Message
	want := "served req.id=7 req.resp.code=200"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHandlerMinimumLevel(t *testing.T) {
	buf := New(4)
	logger := slog.New(NewHandler(buf, nil, &HandlerOptions{Level: slog.LevelWarn}))
	logger.Debug("noise")
	logger.Info("still noise")
	logger.Warn("kept")

	snap := buf.Snapshot()
	if len(snap) != 1 || snap[0].Message != "kept" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestHandlerForwardsDownstream(t *testing.T) {
	buf := New(4)
	var out bytes.Buffer
	next := slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(NewHandler(buf, next, nil))

	logger.Debug("buffer only")
	logger.Info("both", SourceKey, "cli")

	if buf.Len() != 2 {
		t.Errorf("buffer len: got %d, want 2", buf.Len())
	}
	text := out.String()
	if strings.Contains(text, "buffer only") {
		t.Errorf("debug line leaked downstream: %s", text)
	}
	if !strings.Contains(text, "msg=both") || !strings.Contains(text, "component=cli") {
		t.Errorf("downstream missing line: %s", text)
	}
}

func TestLevelFromSlog(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want core.Level
	}{
		{slog.LevelDebug - 4, core.LevelDebug},
		{slog.LevelDebug, core.LevelDebug},
		{slog.LevelInfo, core.LevelInfo},
		{slog.LevelInfo + 2, core.LevelInfo},
		{slog.LevelWarn, core.LevelWarn},
		{slog.LevelError, core.LevelError},
		{slog.LevelError + 8, core.LevelError},
	}
	for _, tt := range tests {
		if got := LevelFromSlog(tt.in); got != tt.want {
			t.Errorf("LevelFromSlog(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, l := range []core.Level{core.LevelDebug, core.LevelInfo, core.LevelWarn, core.LevelError} {
		if got := LevelFromSlog(SlogLevel(l)); got != l {
			t.Errorf("round trip %v -> %v", l, got)
		}
	}
}
