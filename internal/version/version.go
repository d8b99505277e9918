package version

import "fmt"

// Set at build time with -ldflags "-X github.com/openclaw/openclaw/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type Info struct {
	Version string
	Commit  string
	Date    string
}

func Get() Info {
	return Info{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("OpenClaw %s (commit: %s, built: %s)", i.Version, i.Commit, i.Date)
}

// UserAgent is sent on every outbound API call (GitHub rejects requests without one).
func UserAgent() string {
	return "openclaw-agent/" + Version
}
