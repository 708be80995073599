// Package farmsync reconciles remote device farm sessions with local test results.
package farmsync

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/farmsync/provider"
	"github.com/ethereum-optimism/infra/farmsync/reconcile"
	"github.com/ethereum-optimism/infra/farmsync/reporting"
	"github.com/ethereum-optimism/infra/farmsync/session"
	"github.com/ethereum-optimism/infra/farmsync/types"
)

// TestItem identifies the finished test being reported
type TestItem struct {
	Name      string
	Driver    string // driver the test ran with, compared against the provider
	SessionID string
}

// HookConfig configures a Hook
type HookConfig struct {
	Provider    *provider.Provider
	Timeout     time.Duration
	HTTPClient  session.HTTPClient       // optional
	Attachments reporting.AttachmentSink // optional
	Log         log.Logger
}

// Hook is called once per finished test phase. It holds no per-test state and
// may be invoked concurrently for different tests.
type Hook struct {
	provider    *provider.Provider
	timeout     time.Duration
	httpClient  session.HTTPClient
	attachments reporting.AttachmentSink
	log         log.Logger
}

// NewHook creates a hook for one provider
func NewHook(cfg HookConfig) (*Hook, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &Hook{
		provider:    cfg.Provider,
		timeout:     cfg.Timeout,
		httpClient:  cfg.HTTPClient,
		attachments: cfg.Attachments,
		log:         cfg.Log,
	}, nil
}

// Provider returns the provider the hook reports to
func (h *Hook) Provider() *provider.Provider {
	return h.provider
}

// OnTestReport reconciles the test's remote session and appends what it found
// to summary, extra and the attachment sink. A nil summary or extra is skipped.
//
// Tests run with another driver are ignored without any network call and a nil
// outcome is returned. The only error is a missing credential; every remote
// failure is reported as a warning line instead.
func (h *Hook) OnTestReport(ctx context.Context, item TestItem, verdict types.Verdict, summary *[]string, extra *[]reporting.Extra) (*types.Outcome, error) {
	if !h.provider.UsesDriver(item.Driver) {
		return nil, nil
	}
	name := h.provider.Name()

	auth, err := h.provider.Auth()
	if err != nil {
		return nil, err
	}
	client, err := session.NewClient(h.provider, session.Config{
		Auth:       auth,
		Timeout:    h.timeout,
		HTTPClient: h.httpClient,
		Log:        h.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session client: %w", err)
	}

	outcome := reconcile.New(name, client, h.log).Reconcile(ctx, item.SessionID, verdict)

	if outcome.Video != nil && h.attachments != nil {
		if err := h.attachments.Attach(item.Name, outcome.Video); err != nil {
			outcome.AddWarning("WARNING: Failed to attach %s video: %v", name, err)
			h.log.Warn("Failed to attach video", "test", item.Name, "err", err)
		}
	}

	if summary != nil {
		*summary = append(*summary, SummaryLines(name, outcome)...)
	}
	if extra != nil {
		*extra = append(*extra, Extras(name, outcome)...)
	}
	return outcome, nil
}

// SummaryLines lists the job link, the warnings in step order and the video link
func SummaryLines(provider string, outcome *types.Outcome) []string {
	var lines []string
	if outcome.JobURL != "" {
		lines = append(lines, fmt.Sprintf("%s Job: %s", provider, outcome.JobURL))
	}
	lines = append(lines, outcome.Warnings...)
	if outcome.Video != nil {
		lines = append(lines, fmt.Sprintf("%s Video: %s", provider, outcome.VideoURL))
	}
	return lines
}

// Extras lists the HTML report entries for an outcome. The video fragment is shared, not re-rendered.
func Extras(provider string, outcome *types.Outcome) []reporting.Extra {
	var extras []reporting.Extra
	if outcome.JobURL != "" {
		extras = append(extras, reporting.URL(outcome.JobURL, provider+" Job"))
	}
	if outcome.Video != nil {
		extras = append(extras, reporting.HTML(outcome.Video))
	}
	return extras
}

// SessionRequest builds the remote session request for a test about to start
func (h *Hook) SessionRequest(testName string, caps *provider.Capabilities) (*provider.SessionRequest, error) {
	return h.provider.BuildSessionRequest(testName, caps)
}
