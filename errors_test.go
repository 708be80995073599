package farmsync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/farmsync/exitcodes"
	"github.com/ethereum-optimism/infra/farmsync/types"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcodes.Success},
		{"warnings", NewWarningsError([]string{"WARNING: x"}), exitcodes.Warnings},
		{"wrapped warnings", fmt.Errorf("report: %w", NewWarningsError(nil)), exitcodes.Warnings},
		{"runtime", NewRuntimeError(errors.New("bad config")), exitcodes.RuntimeErr},
		{"missing credential", types.NewMissingCredentialError("BrowserStack", "key", []string{"K"}), exitcodes.RuntimeErr},
		{"plain", errors.New("boom"), exitcodes.RuntimeErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestRuntimeError(t *testing.T) {
	inner := errors.New("no such file")
	err := fmt.Errorf("wrapped: %w", NewRuntimeError(inner))
	assert.True(t, IsRuntimeError(err))
	assert.ErrorIs(t, err, inner)
	assert.False(t, IsRuntimeError(inner))
	assert.Equal(t, "runtime error: no such file", NewRuntimeError(inner).Error())
}

func TestWarningsError(t *testing.T) {
	err := NewWarningsError([]string{"a", "b"})
	assert.Equal(t, "reconciliation finished with 2 warning(s)", err.Error())
	assert.False(t, IsWarningsError(nil))
}
