package types

import (
	"fmt"
	"strings"
)

// SessionStatus represents the lifecycle state the device farm records for a remote session
type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusError     SessionStatus = "error"
)

// ParseSessionStatus maps a raw status string onto the three known values.
// Anything else is rejected rather than passed through.
func ParseSessionStatus(s string) (SessionStatus, error) {
	switch status := SessionStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case SessionStatusRunning, SessionStatusCompleted, SessionStatusError:
		return status, nil
	default:
		return "", fmt.Errorf("unknown session status %q", s)
	}
}

// IsTerminalFailure reports whether the remote has already given up on the session
func (s SessionStatus) IsTerminalFailure() bool {
	return s == SessionStatusError
}

func (s SessionStatus) String() string {
	return string(s)
}

// Phase is the test lifecycle phase a report was produced in
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseCall     Phase = "call"
	PhaseTeardown Phase = "teardown"
)

// IsTeardown reports whether this is the final phase of a test.
// Unknown phases are never teardown.
func (p Phase) IsTeardown() bool {
	return strings.EqualFold(string(p), string(PhaseTeardown))
}

// Verdict is the test framework's own determination for one test phase
type Verdict struct {
	Passed             bool
	WasExpectedFailure bool // the test failed but was marked as expected to fail
	Phase              Phase
}

// LocallyPassed folds the expected-failure flag into the pass result
func (v Verdict) LocallyPassed() bool {
	return v.Passed || v.WasExpectedFailure
}

func (v Verdict) String() string {
	result := "failed"
	switch {
	case v.Passed:
		result = "passed"
	case v.WasExpectedFailure:
		result = "xfailed"
	}
	return fmt.Sprintf("%s (%s)", result, v.Phase)
}

// SessionInfo is the subset of the remote automation_session payload this module consumes
type SessionInfo struct {
	BrowserURL string
	Status     SessionStatus
}

// Fragment is a rendered piece of report markup tied to a single session.
// It is rendered once and shared by every sink.
type Fragment struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Markup    string `json:"markup"`
}

// Outcome is everything one reconciliation produced for a single test
type Outcome struct {
	SessionID     string        `json:"session_id"`
	RemoteStatus  SessionStatus `json:"remote_status,omitempty"`  // empty when the status fetch failed
	DesiredStatus SessionStatus `json:"desired_status,omitempty"` // empty when the status fetch failed
	StatusWritten bool          `json:"status_written"`
	JobURL        string        `json:"job_url,omitempty"`
	VideoURL      string        `json:"video_url,omitempty"`
	Video         *Fragment     `json:"video,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// ReportedStatus returns the status this reconciliation pushed to the remote, if any
func (o *Outcome) ReportedStatus() (SessionStatus, bool) {
	if o == nil || !o.StatusWritten {
		return "", false
	}
	return o.DesiredStatus, true
}

// AddWarning appends a human readable warning line
func (o *Outcome) AddWarning(format string, args ...any) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

// HasWarnings reports whether any step degraded to a warning
func (o *Outcome) HasWarnings() bool {
	return o != nil && len(o.Warnings) > 0
}
