package api

import "runtime/debug"

// Build metadata, overridden with -ldflags "-X .../internal/api.GitCommit=...".
var (
	EngineVersion = "dev"
	GitCommit     = ""
	BuildTime     = ""
)

func init() {
	if GitCommit != "" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			GitCommit = s.Value
		case "vcs.time":
			if BuildTime == "" {
				BuildTime = s.Value
			}
		}
	}
}

// GetVersionInfo reports the running engine build.
func GetVersionInfo() VersionInfo {
	return VersionInfo{EngineVersion: EngineVersion, GitCommit: GitCommit, BuildTime: BuildTime}
}
