package sysinfo

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/modoterra/bugreport/pkg/core"
)

type fakeBuild struct {
	id  core.BuildIdentity
	err error
}

func (f fakeBuild) BuildInfo() (core.BuildIdentity, error) { return f.id, f.err }

func TestPropertiesTwoKeyScenario(t *testing.T) {
	c := New("Test", nil, MapSource{Props: map[string]string{
		"os.name":        "Test",
		"line.separator": "\n",
	}})
	got := c.Properties()
	want := "  line.separator=\\u000a\n  os.name=Test\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if n := strings.Count(got, "\n"); n != 2 {
		t.Errorf("expected exactly 2 lines, got %d", n)
	}
}

func TestPropertiesEscapesKeysWithLineBreaks(t *testing.T) {
	got := FormatProperties(map[string]string{
		"bad\nkey": "v",
		"os.name":  "Test",
	}, DefaultEscape)
	want := "  " + EscapeValue("bad\nkey") + "=v\n  os.name=Test\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if n := strings.Count(got, "\n"); n != 2 {
		t.Errorf("expected exactly 2 lines, got %d", n)
	}
	if !strings.HasPrefix(got, `  \u0062\u0061\u0064\u000a`) {
		t.Errorf("key not escaped: %q", got)
	}
}

func TestCollectHeader(t *testing.T) {
	c := New("OpenRocket", fakeBuild{id: core.BuildIdentity{
		Version:  "23.09",
		Source:   "git 1a2b3c4",
		Location: "/opt/openrocket/bin/openrocket",
	}}, MapSource{Props: map[string]string{"a": "1"}, LocaleName: "fi_FI"})
	c.goVersion = "go1.25.7"

	want := "OpenRocket version: 23.09\n" +
		"OpenRocket source: git 1a2b3c4\n" +
		"OpenRocket location: /opt/openrocket/bin/openrocket\n" +
		"Go version: go1.25.7\n" +
		"Current default locale: fi_FI\n" +
		"System properties:\n" +
		"  a=1\n"
	if got := c.Collect(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestCollectDegradesToPlaceholders(t *testing.T) {
	tests := []struct {
		name  string
		build core.BuildInfoProvider
		props core.PropertySource
		want  []string
	}{
		{
			name:  "build error",
			build: fakeBuild{err: errors.New("no manifest")},
			props: MapSource{Props: map[string]string{"k": "v"}, LocaleName: "en_US"},
			want:  []string{"App version: <unavailable: no manifest>", "  k=v"},
		},
		{
			name:  "property error",
			build: fakeBuild{id: core.BuildIdentity{Version: "1"}},
			props: MapSource{Err: errors.New("permission denied")},
			want: []string{
				"App version: 1",
				"App source: unknown",
				"Current default locale: <unavailable: permission denied>",
				"System properties:\n  <unavailable: permission denied>\n",
			},
		},
		{
			name: "nothing provided",
			want: []string{
				"App version: <unavailable: no build information>",
				"  <unavailable: no property source>",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New("App", tt.build, tt.props).Collect()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
			if !strings.HasSuffix(got, "\n") {
				t.Error("output must end with a newline")
			}
		})
	}
}

func TestCollectIsDeterministic(t *testing.T) {
	c := New("App", fakeBuild{id: core.BuildIdentity{Version: "1"}}, NewEnvSource())
	first := c.Collect()
	second := c.Collect()
	if first != second {
		t.Error("two collections with no environment change differ")
	}
}

func TestPropertiesSortedByKey(t *testing.T) {
	props := map[string]string{
		"zeta": "1", "Alpha": "2", "alpha": "3", "beta.x": "4", "beta": "5", "_u": "6", "10": "7",
	}
	out := FormatProperties(props, DefaultEscape)
	var keys []string
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		k, _, ok := strings.Cut(strings.TrimPrefix(line, "  "), "=")
		if !ok {
			t.Fatalf("malformed line %q", line)
		}
		keys = append(keys, k)
	}
	if len(keys) != len(props) {
		t.Fatalf("got %d lines, want %d", len(keys), len(props))
	}
	if !sort.StringsAreSorted(keys) {
		t.Errorf("keys not sorted: %v", keys)
	}
}

func TestEnvSourceProperties(t *testing.T) {
	s := &EnvSource{
		environ: func() []string {
			return []string{"HOME=/home/ada", "EMPTY=", "=C:=C:\\", "PAIR=a=b", "os.name=spoofed"}
		},
		getenv: func(string) string { return "" },
	}
	props, err := s.Properties()
	if err != nil {
		t.Fatal(err)
	}
	if props["HOME"] != "/home/ada" {
		t.Errorf("HOME: got %q", props["HOME"])
	}
	if v, ok := props["EMPTY"]; !ok || v != "" {
		t.Errorf("EMPTY: got %q, present=%v", v, ok)
	}
	if props["PAIR"] != "a=b" {
		t.Errorf("PAIR: got %q", props["PAIR"])
	}
	if _, ok := props[""]; ok {
		t.Error("empty key must be skipped")
	}
	if props["os.name"] == "spoofed" {
		t.Error("runtime property should override environment")
	}
	if props[LineSeparatorKey] == "" {
		t.Error("line.separator missing")
	}
}

func TestEnvSourceLocale(t *testing.T) {
	tests := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"LANG": "en_US.UTF-8"}, "en_US"},
		{map[string]string{"LANG": "en_US.UTF-8", "LC_ALL": "de_DE@euro"}, "de_DE"},
		{map[string]string{"LC_MESSAGES": "fi_FI", "LANG": "en_GB"}, "fi_FI"},
		{map[string]string{}, "C"},
	}
	for _, tt := range tests {
		s := &EnvSource{getenv: func(k string) string { return tt.env[k] }}
		got, err := s.Locale()
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("env %v: got %q, want %q", tt.env, got, tt.want)
		}
	}
}
