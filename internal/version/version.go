package version

import (
	"runtime"
	"time"
)

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()               // go version
)

// UserAgent identifies outgoing requests.
func UserAgent() string {
	return "seatwatch/" + Version + " (" + Commit + ")"
}

// String is the one-line build summary printed by the version command.
func String() string {
	return "seatwatch " + Version + " (commit " + Commit + ", built " + BuildDate + ", " + GoVersion + ")"
}
