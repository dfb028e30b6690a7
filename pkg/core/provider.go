package core

import "fmt"

// BuildIdentity describes the running program's build.
type BuildIdentity struct {
	Version  string // release version, e.g. "1.4.0"
	Source   string // where the build came from, e.g. "git a1b2c3d (2026-01-02)"
	Location string // path of the running executable
}

// BuildInfoProvider supplies the program's build identity.
type BuildInfoProvider interface {
	BuildInfo() (BuildIdentity, error)
}

// PropertySource supplies the environment/system properties of the running
// process and its default locale.
type PropertySource interface {
	// Properties returns the full current set of name/value pairs.
	// The returned map is owned by the caller.
	Properties() (map[string]string, error)

	// Locale returns the current default locale, e.g. "en_US".
	Locale() (string, error)
}

// ThreadDescriptor identifies the goroutine (or other execution context) on
// which a failure originated.
type ThreadDescriptor = fmt.Stringer
