// Package version reports how the qnes binary was built.
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X qnes/internal/version.Version=..."
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the build description of the running binary.
type Info struct {
	Version   string
	Commit    string
	Modified  bool
	BuildTime string
	GoVersion string
	Platform  string
}

// Get merges the linker-provided values with the VCS stamps recorded by the
// Go toolchain. Linker values win.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// String is the one line form used in window titles and logs.
func (i Info) String() string {
	s := "qnes " + i.Version
	if i.Commit != "" {
		s += " (" + shortCommit(i.Commit)
		if i.Modified {
			s += "+dirty"
		}
		s += ")"
	}
	return s
}

// GetVersion returns the version, with the commit appended for dev builds.
func GetVersion() string {
	info := Get()
	if info.Version == "dev" && info.Commit != "" {
		return "dev-" + shortCommit(info.Commit)
	}
	return info.Version
}

// PrintBuildInfo writes the build description to w.
func PrintBuildInfo(w io.Writer) {
	info := Get()
	fmt.Fprintln(w, info)
	if info.BuildTime != "" {
		fmt.Fprintf(w, "built:    %s\n", info.BuildTime)
	}
	fmt.Fprintf(w, "go:       %s\n", info.GoVersion)
	fmt.Fprintf(w, "platform: %s\n", info.Platform)
}
