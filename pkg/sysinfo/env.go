package sysinfo

import (
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// EnvSource reads properties from the live process: every environment
// variable plus a set of runtime properties named after their JVM-style
// counterparts (os.name, user.dir, line.separator, ...).
type EnvSource struct {
	environ func() []string
	getenv  func(string) string
}

// NewEnvSource returns a source backed by the real process environment.
func NewEnvSource() *EnvSource {
	return &EnvSource{environ: os.Environ, getenv: os.Getenv}
}

// Properties returns environment variables merged with runtime properties.
// Runtime properties win on key collision.
func (s *EnvSource) Properties() (map[string]string, error) {
	props := make(map[string]string)
	for _, kv := range s.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			// Windows keeps per-drive cwd entries like "=C:=C:\\".
			continue
		}
		props[k] = v
	}
	maps.Copy(props, runtimeProperties())
	return props, nil
}

// Locale returns the POSIX locale from LC_ALL, LC_MESSAGES or LANG, without
// the codeset and modifier ("en_US.UTF-8" becomes "en_US"). Unset means "C".
func (s *EnvSource) Locale() (string, error) {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := strings.TrimSpace(s.getenv(key)); v != "" {
			return normalizeLocale(v), nil
		}
	}
	return "C", nil
}

func normalizeLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	return v
}

func runtimeProperties() map[string]string {
	props := map[string]string{
		"go.version":     runtime.Version(),
		"os.name":        runtime.GOOS,
		"os.arch":        runtime.GOARCH,
		"num.cpu":        strconv.Itoa(runtime.NumCPU()),
		"pid":            strconv.Itoa(os.Getpid()),
		"file.separator": string(filepath.Separator),
		"path.separator": string(filepath.ListSeparator),
		LineSeparatorKey: lineSeparator(),
	}
	if wd, err := os.Getwd(); err == nil {
		props["user.dir"] = wd
	}
	if home, err := os.UserHomeDir(); err == nil {
		props["user.home"] = home
	}
	if u, err := user.Current(); err == nil {
		props["user.name"] = u.Username
	}
	if exe, err := os.Executable(); err == nil {
		props["exe.path"] = exe
	}
	return props
}

func lineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// MapSource is a fixed PropertySource, mostly useful in tests.
type MapSource struct {
	Props      map[string]string
	LocaleName string
	Err        error
}

// Properties returns a copy of the fixed map, or Err when set.
func (m MapSource) Properties() (map[string]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return maps.Clone(m.Props), nil
}

// Locale returns LocaleName, or Err when set.
func (m MapSource) Locale() (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.LocaleName, nil
}
