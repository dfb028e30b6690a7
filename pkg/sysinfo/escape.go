package sysinfo

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// LineSeparatorKey is the property holding the platform line separator.
const LineSeparatorKey = "line.separator"

// EscapeFunc reports whether the value of property key should be escaped.
type EscapeFunc func(key, value string) bool

// DefaultEscape escapes the line separator property and any value that holds
// a raw line break.
func DefaultEscape(key, value string) bool {
	return key == LineSeparatorKey || containsLineBreak(value)
}

// EscapeKeys returns an EscapeFunc matching exactly the given keys, plus any
// value holding a line break when newlines is true.
func EscapeKeys(keys []string, newlines bool) EscapeFunc {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return func(key, value string) bool {
		if _, ok := set[key]; ok {
			return true
		}
		return newlines && containsLineBreak(value)
	}
}

// EscapeValue writes every UTF-16 code unit of s as a lower-case \uXXXX token.
func EscapeValue(s string) string {
	var sb strings.Builder
	for _, u := range utf16.Encode([]rune(s)) {
		fmt.Fprintf(&sb, `\u%04x`, u)
	}
	return sb.String()
}

func containsLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n\u0085\u2028\u2029")
}
