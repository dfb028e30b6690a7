// Package sysinfo renders build identity and environment properties into the
// "System information" block of a bug report. Output is deterministic: the
// same inputs always produce the same text, byte for byte.
package sysinfo

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/modoterra/bugreport/pkg/core"
)

// Collector produces the system information block.
type Collector struct {
	appName string
	build   core.BuildInfoProvider
	props   core.PropertySource

	// Escape decides which property values are written as \uXXXX escapes.
	// Defaults to DefaultEscape.
	Escape EscapeFunc

	goVersion string
}

// New creates a collector. build and props may be nil; missing information is
// rendered as a placeholder.
func New(appName string, build core.BuildInfoProvider, props core.PropertySource) *Collector {
	if appName == "" {
		appName = "Application"
	}
	return &Collector{
		appName:   appName,
		build:     build,
		props:     props,
		Escape:    DefaultEscape,
		goVersion: runtime.Version(),
	}
}

// Collect returns the build identity header followed by every property in
// sorted key order.
func (c *Collector) Collect() string {
	var sb strings.Builder

	id, err := c.buildIdentity()
	if err != nil {
		ph := placeholder(err)
		id = core.BuildIdentity{Version: ph, Source: ph, Location: ph}
	}
	fmt.Fprintf(&sb, "%s version: %s\n", c.appName, orUnknown(id.Version))
	fmt.Fprintf(&sb, "%s source: %s\n", c.appName, orUnknown(id.Source))
	fmt.Fprintf(&sb, "%s location: %s\n", c.appName, orUnknown(id.Location))
	fmt.Fprintf(&sb, "Go version: %s\n", c.goVersion)
	fmt.Fprintf(&sb, "Current default locale: %s\n", c.locale())
	sb.WriteString("System properties:\n")
	sb.WriteString(c.Properties())
	return sb.String()
}

// Properties returns only the "  key=value" lines, sorted by key.
func (c *Collector) Properties() string {
	if c.props == nil {
		return "  " + placeholder(errNoSource) + "\n"
	}
	props, err := c.props.Properties()
	if err != nil {
		return "  " + placeholder(err) + "\n"
	}
	return FormatProperties(props, c.escape())
}

// FormatProperties renders props as sorted "  key=value\n" lines. Values for
// which escape returns true are written with EscapeValue, as are keys holding
// a line break.
func FormatProperties(props map[string]string, escape EscapeFunc) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		v := props[k]
		sb.WriteString("  ")
		if containsLineBreak(k) {
			sb.WriteString(EscapeValue(k))
		} else {
			sb.WriteString(k)
		}
		sb.WriteByte('=')
		if escape != nil && escape(k, v) {
			sb.WriteString(EscapeValue(v))
		} else {
			sb.WriteString(v)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (c *Collector) buildIdentity() (core.BuildIdentity, error) {
	if c.build == nil {
		return core.BuildIdentity{}, errNoBuildInfo
	}
	return c.build.BuildInfo()
}

func (c *Collector) locale() string {
	if c.props == nil {
		return placeholder(errNoSource)
	}
	loc, err := c.props.Locale()
	if err != nil {
		return placeholder(err)
	}
	return orUnknown(loc)
}

func (c *Collector) escape() EscapeFunc {
	if c.Escape == nil {
		return DefaultEscape
	}
	return c.Escape
}

type collectError string

func (e collectError) Error() string { return string(e) }

const (
	errNoSource    collectError = "no property source"
	errNoBuildInfo collectError = "no build information"
)

// placeholder is the text substituted for information that could not be read.
func placeholder(err error) string {
	return "<unavailable: " + strings.ReplaceAll(err.Error(), "\n", " ") + ">"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
