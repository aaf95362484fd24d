// Package boardrecipe provides public constants for external tools
// integrating with the boardrecipe CLI.
package boardrecipe

// Exit codes returned by the boardrecipe CLI.
// These constants allow build scripts to check exit codes symbolically
// rather than using magic numbers.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure (unreadable file, I/O error, etc.).
	ExitFailure = 1

	// ExitConfigError indicates a configuration error: a bad FQBN, an invalid
	// arduino-sdk.yaml, an unresolved property or an empty recipe.
	ExitConfigError = 2

	// ExitEnvError indicates an environment error: the platform is not
	// installed, a property file is missing or a tool is not in the index.
	ExitEnvError = 3
)
