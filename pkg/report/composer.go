// Package report assembles bug reports: a user-editable narrative followed by
// the exception trace (for crashes), system information and the recent error
// log, in a fixed order of delimited sections.
package report

import (
	"reflect"
	"strings"

	"github.com/modoterra/bugreport/pkg/core"
)

// Section delimiters. Every report contains them in this order; the crash
// sections appear only in crash reports.
const (
	HeaderBugReport  = "---------- Bug report ----------"
	HeaderStackTrace = "---------- Exception stack trace ----------"
	HeaderThread     = "---------- Thread information ----------"
	HeaderSystemInfo = "---------- System information ----------"
	HeaderErrorLog   = "---------- Error log ----------"
	FooterEnd        = "---------- End of bug report ----------"

	DoNotModifyLine = "(Do not modify anything below this line.)"
	NoThreadLine    = "Thread is not specified."
)

// DefaultManualTemplate is the questionnaire shown for a manually filed report.
const DefaultManualTemplate = `Include detailed steps on how to trigger the bug:

1. 
2. 
3. 

What does the software do and what in your opinion should it do in the case described above:



Include your email address (optional; it helps if we can contact you in case we need additional information):



`

// CrashTemplate is the questionnaire shown above an exception trace.
const CrashTemplate = `Please include a description about what actions you were performing when the exception occurred:




Include your email address (optional; it helps if we can contact you in case we need additional information):




`

// SystemInfo renders the system information block.
type SystemInfo interface {
	Collect() string
}

// LogSource supplies the recent log lines, oldest first.
type LogSource interface {
	Snapshot() []core.LogLine
}

// Composer builds report text. It holds no state between calls; every report
// is rebuilt from the live system information and log buffer.
type Composer struct {
	info SystemInfo
	logs LogSource
}

// NewComposer creates a composer. Either argument may be nil, in which case
// the corresponding section is emitted empty.
func NewComposer(info SystemInfo, logs LogSource) *Composer {
	return &Composer{info: info, logs: logs}
}

// ManualReport returns a report whose leading section is template.
func (c *Composer) ManualReport(template string) string {
	var sb strings.Builder
	c.writeLead(&sb, template)
	c.writeTrailer(&sb)
	return sb.String()
}

// CrashReport returns a report for err, which originated on thread (nil when
// unknown). err must not be nil.
func (c *Composer) CrashReport(err error, thread core.ThreadDescriptor) string {
	if err == nil {
		panic("report: CrashReport called with nil error")
	}

	var sb strings.Builder
	c.writeLead(&sb, CrashTemplate)

	sb.WriteString(HeaderStackTrace + "\n")
	writeBlock(&sb, RenderTrace(err))

	sb.WriteString(HeaderThread + "\n")
	if isNil(thread) {
		writeBlock(&sb, NoThreadLine)
	} else {
		writeBlock(&sb, thread.String())
	}

	c.writeTrailer(&sb)
	return sb.String()
}

func (c *Composer) writeLead(sb *strings.Builder, template string) {
	sb.WriteString(HeaderBugReport + "\n\n")
	if template != "" {
		writeBlock(sb, template)
	}
	sb.WriteString(DoNotModifyLine + "\n")
}

func (c *Composer) writeTrailer(sb *strings.Builder) {
	sb.WriteString(HeaderSystemInfo + "\n")
	if c.info != nil {
		writeBlock(sb, c.info.Collect())
	} else {
		sb.WriteString("\n")
	}

	sb.WriteString(HeaderErrorLog + "\n")
	if c.logs != nil {
		for _, l := range c.logs.Snapshot() {
			sb.WriteString(l.String())
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("\n")

	sb.WriteString(FooterEnd + "\n\n")
}

// writeBlock writes body followed by whatever is needed to end it with a
// blank line. Blank lines already at the end of body are kept.
func writeBlock(sb *strings.Builder, body string) {
	sb.WriteString(body)
	switch {
	case strings.HasSuffix(body, "\n\n"):
	case strings.HasSuffix(body, "\n"):
		sb.WriteString("\n")
	default:
		sb.WriteString("\n\n")
	}
}

// isNil also catches typed nils, whose String method would dereference nil.
func isNil(t core.ThreadDescriptor) bool {
	if t == nil {
		return true
	}
	switch v := reflect.ValueOf(t); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}
