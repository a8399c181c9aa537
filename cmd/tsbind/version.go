package main

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var embeddedVersion string

// Version returns the module version when installed with go install, and
// otherwise "devel-<VERSION>" with the VCS revision and a dirty marker when
// the build recorded them.
func Version() string {
	info, _ := debug.ReadBuildInfo()
	return version(strings.TrimSpace(embeddedVersion), info)
}

func version(base string, info *debug.BuildInfo) string {
	if info == nil {
		return base
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	v := "devel-" + base
	if len(rev) >= 7 {
		v += "+" + rev[:7]
		if dirty {
			v += ".dirty"
		}
	}
	return v
}
