// Package exitcodes defines the exit codes used by farmsync.
package exitcodes

// Exit code constants used by farmsync:
//
// * Success (0): every step reconciled, or warnings were tolerated
// * Warnings (1): some step degraded to a warning and --fail-on-warning is set
// * RuntimeErr (2): configuration, credential or report sink failures
const (
	Success    = 0
	Warnings   = 1
	RuntimeErr = 2
)
