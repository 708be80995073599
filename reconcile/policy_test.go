package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/farmsync/types"
)

var (
	allStatuses = []types.SessionStatus{types.SessionStatusRunning, types.SessionStatusCompleted, types.SessionStatusError}
	allPhases   = []types.Phase{types.PhaseSetup, types.PhaseCall, types.PhaseTeardown, "TEARDOWN", "rerun"}
)

func allVerdicts() []types.Verdict {
	var verdicts []types.Verdict
	for _, phase := range allPhases {
		for _, passed := range []bool{true, false} {
			for _, xfail := range []bool{true, false} {
				verdicts = append(verdicts, types.Verdict{Passed: passed, WasExpectedFailure: xfail, Phase: phase})
			}
		}
	}
	return verdicts
}

func TestDesiredStatus(t *testing.T) {
	for _, v := range allVerdicts() {
		got := DesiredStatus(v)
		switch {
		case v.LocallyPassed() && !v.Phase.IsTeardown():
			assert.Equal(t, types.SessionStatusRunning, got, v.String())
		case v.LocallyPassed() && v.Phase.IsTeardown():
			assert.Equal(t, types.SessionStatusCompleted, got, v.String())
		default:
			assert.Equal(t, types.SessionStatusError, got, v.String())
		}
	}
}

func TestDesiredStatusExamples(t *testing.T) {
	tests := []struct {
		name    string
		verdict types.Verdict
		want    types.SessionStatus
	}{
		{"passed call", types.Verdict{Passed: true, Phase: types.PhaseCall}, types.SessionStatusRunning},
		{"passed teardown", types.Verdict{Passed: true, Phase: types.PhaseTeardown}, types.SessionStatusCompleted},
		{"failed setup", types.Verdict{Phase: types.PhaseSetup}, types.SessionStatusError},
		{"failed teardown", types.Verdict{Phase: types.PhaseTeardown}, types.SessionStatusError},
		{"expected failure call", types.Verdict{WasExpectedFailure: true, Phase: types.PhaseCall}, types.SessionStatusRunning},
		{"expected failure teardown", types.Verdict{WasExpectedFailure: true, Phase: types.PhaseTeardown}, types.SessionStatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DesiredStatus(tt.verdict))
		})
	}
}

func TestShouldWrite(t *testing.T) {
	for _, remote := range allStatuses {
		for _, desired := range allStatuses {
			got := ShouldWrite(remote, desired)
			switch {
			case remote == types.SessionStatusError:
				assert.False(t, got, "error is never overwritten (desired %s)", desired)
			case remote == desired:
				assert.False(t, got, "%s already set", remote)
			default:
				assert.True(t, got, "%s -> %s", remote, desired)
			}
		}
	}
}
