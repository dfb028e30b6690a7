package core

import (
	"fmt"
	"time"
)

// LogLine is a single captured log event. A LogLine is a value; once recorded
// into a buffer it is never modified.
type LogLine struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Source  string    `json:"source,omitempty"`
	Message string    `json:"message"`
}

// String renders the line as it appears in a report's error log:
// sequence number, UTC time of day, level, optional source, message.
func (l LogLine) String() string {
	ts := l.Time.UTC().Format("15:04:05.000")
	if l.Source == "" {
		return fmt.Sprintf("%4d %s %-5s %s", l.Seq, ts, l.Level, l.Message)
	}
	return fmt.Sprintf("%4d %s %-5s %s: %s", l.Seq, ts, l.Level, l.Source, l.Message)
}
