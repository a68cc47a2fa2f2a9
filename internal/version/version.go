package version

import "fmt"

// Version is the current version of the axon client.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/axon-client/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// GetVersion returns the current version of the client.
func GetVersion() string {
	return Version
}

// UserAgent returns the User-Agent sent on control-surface requests.
func UserAgent() string {
	return fmt.Sprintf("axon-client/%s", Version)
}
