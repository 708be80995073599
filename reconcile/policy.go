package reconcile

import "github.com/ethereum-optimism/infra/farmsync/types"

// DesiredStatus derives the remote status a verdict should produce.
// A passing test stays running until its teardown phase completes it;
// a genuine failure in any phase is an error.
func DesiredStatus(v types.Verdict) types.SessionStatus {
	switch {
	case !v.LocallyPassed():
		return types.SessionStatusError
	case v.Phase.IsTeardown():
		return types.SessionStatusCompleted
	default:
		return types.SessionStatusRunning
	}
}

// ShouldWrite reports whether remote must be overwritten with desired.
// An error recorded remotely is never replaced.
func ShouldWrite(remote, desired types.SessionStatus) bool {
	if remote.IsTerminalFailure() {
		return false
	}
	return remote != desired
}
