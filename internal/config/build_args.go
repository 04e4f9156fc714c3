package config

import "fmt"

// ModuleName is the name of the go module, exposed as the root command name.
const ModuleName = "gas-relay"

// Build arguments, substituted at compile time via -ldflags.
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// GetFormattedBuildArgs returns "<module> @ <commit> (<build date>)".
func GetFormattedBuildArgs() string {
	return fmt.Sprintf("%v @ %v (%v)", ModuleName, Commit, BuildDate)
}
