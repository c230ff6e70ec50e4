// Package common has build information shared by the CLI and the bot.
package common

import "runtime/debug"

// version can be set at build time:
//
//	go build -ldflags "-X github.com/xf8b/xf8bot/common.version=v1.2.3"
var version string

// Version returns the version set at build time, the module version, or the VCS revision, in that order.
func Version() string {
	if version != "" {
		return version
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	rev, dirty := "", false
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "devel"
	}

	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
