// Package buildinfo holds the build identity stamped in at link time:
//
//	go build -ldflags "-X github.com/modoterra/bugreport/internal/buildinfo.Version=v1.2.0 ..."
package buildinfo

import (
	"errors"
	"os"
	"runtime/debug"

	"github.com/modoterra/bugreport/pkg/core"
)

// Set via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Provider answers core.BuildInfoProvider from the ldflags variables,
// falling back to the VCS stamp the go tool embeds in the binary.
type Provider struct {
	read       func() (*debug.BuildInfo, bool)
	executable func() (string, error)
}

var _ core.BuildInfoProvider = Provider{}

// New returns a provider for the running binary.
func New() Provider {
	return Provider{read: debug.ReadBuildInfo, executable: os.Executable}
}

// BuildInfo returns version, source revision and binary location.
func (p Provider) BuildInfo() (core.BuildIdentity, error) {
	id := core.BuildIdentity{Version: Version}
	if Commit != "none" {
		id.Source = Commit
	}

	info, ok := p.read()
	if ok {
		if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			id.Version = info.Main.Version
		}
		if id.Source == "" {
			id.Source = vcsSource(info)
		}
	}

	exe, err := p.executable()
	if err == nil {
		id.Location = exe
	}
	if !ok && err != nil {
		return id, errors.New("build information not embedded and executable path unknown")
	}
	return id, nil
}

// vcsSource renders "path@revision", marked dirty when the tree had local
// modifications.
func vcsSource(info *debug.BuildInfo) string {
	var rev, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}
	if rev == "" {
		return info.Main.Path
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	src := info.Main.Path + "@" + rev
	if modified == "true" {
		src += "+dirty"
	}
	return src
}

// String formats the identity the way `bugreport version` prints it.
func String() string {
	return Version + " (" + Commit + ") built " + Date
}
