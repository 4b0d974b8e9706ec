package version

import "fmt"

// These variables are set at build time via ldflags
var (
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the build identity reported by /healthz.
type Info struct {
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
}

// Current returns the build identity with the abbreviated commit.
func Current() Info {
	return Info{Commit: shortCommit(), BuildTime: BuildTime}
}

// String returns the human readable version line.
func String() string {
	info := Current()
	return fmt.Sprintf("vital dev (commit: %s, built: %s)", info.Commit, info.BuildTime)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
