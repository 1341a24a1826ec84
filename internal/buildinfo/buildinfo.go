// Package buildinfo carries version metadata stamped at link time:
//
//	go build -ldflags "-X github.com/simonvc/bistroledger/internal/buildinfo.Version=v1.2.0 \
//	  -X github.com/simonvc/bistroledger/internal/buildinfo.Commit=$(git rev-parse --short HEAD)"
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String renders the version line printed by `bistroledger version`.
func String() string {
	commit := Commit
	if commit == "" {
		commit = vcsRevision()
	}
	if commit == "" {
		commit = "unknown"
	}
	s := fmt.Sprintf("bistroledger %s (commit %s", Version, commit)
	if Date != "" {
		s += ", built " + Date
	}
	return s + ", " + runtime.Version() + ")"
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			if len(s.Value) > 7 {
				return s.Value[:7]
			}
			return s.Value
		}
	}
	return ""
}
