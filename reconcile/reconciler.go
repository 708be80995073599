// Package reconcile brings a remote session in line with the local test verdict.
package reconcile

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/farmsync/metrics"
	"github.com/ethereum-optimism/infra/farmsync/reporting"
	"github.com/ethereum-optimism/infra/farmsync/types"
)

// Remote is the session API the reconciler talks to. *session.Client implements it.
type Remote interface {
	Session(ctx context.Context, sessionID string) (types.SessionInfo, error)
	UpdateStatus(ctx context.Context, sessionID string, status types.SessionStatus) error
	VideoURL(ctx context.Context, sessionID string) (string, error)
}

// Reconciler runs the status and artifact steps for one provider.
// It keeps no state between calls.
type Reconciler struct {
	provider string
	remote   Remote
	log      log.Logger
	tracer   trace.Tracer
}

// New creates a reconciler
func New(provider string, remote Remote, logger log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New()
	}
	return &Reconciler{
		provider: provider,
		remote:   remote,
		log:      logger.New("provider", provider),
		tracer:   otel.Tracer("reconciler"),
	}
}

// Reconcile fetches the remote status, writes the desired one if needed and
// fetches the replay video. Every failure becomes a warning on the outcome;
// it never returns an error and never panics.
func (r *Reconciler) Reconcile(ctx context.Context, sessionID string, verdict types.Verdict) *types.Outcome {
	ctx, span := r.tracer.Start(ctx, "reconcile")
	defer span.End()
	span.SetAttributes(
		attribute.String("provider", r.provider),
		attribute.String("session", sessionID),
		attribute.String("verdict", verdict.String()),
	)

	outcome := &types.Outcome{SessionID: sessionID}
	log := r.log.New("session", sessionID, "phase", verdict.Phase)

	if info, ok := r.fetchStatus(ctx, sessionID, outcome, log); ok {
		r.syncStatus(ctx, sessionID, info.Status, verdict, outcome, log)
	}
	r.fetchVideo(ctx, sessionID, outcome, log)

	if outcome.HasWarnings() {
		span.SetStatus(codes.Error, fmt.Sprintf("%d warnings", len(outcome.Warnings)))
	}
	return outcome
}

func (r *Reconciler) fetchStatus(ctx context.Context, sessionID string, outcome *types.Outcome, log log.Logger) (info types.SessionInfo, ok bool) {
	ctx, span := r.tracer.Start(ctx, "status fetch")
	defer span.End()
	defer r.recoverStep(metrics.StepStatusFetch, "WARNING: Failed to determine %s job URL: %v", outcome, span)

	info, err := r.remote.Session(ctx, sessionID)
	if err != nil {
		r.warn(outcome, span, metrics.StepStatusFetch, "WARNING: Failed to determine %s job URL: %v", err)
		log.Warn("Failed to fetch session status", "err", err)
		return types.SessionInfo{}, false
	}
	outcome.JobURL = info.BrowserURL
	outcome.RemoteStatus = info.Status
	span.SetAttributes(attribute.String("remote_status", string(info.Status)))
	return info, true
}

func (r *Reconciler) syncStatus(ctx context.Context, sessionID string, remote types.SessionStatus, verdict types.Verdict, outcome *types.Outcome, log log.Logger) {
	ctx, span := r.tracer.Start(ctx, "status write")
	defer span.End()
	defer r.recoverStep(metrics.StepStatusWrite, "WARNING: Failed to update %s job status: %v", outcome, span)

	desired := DesiredStatus(verdict)
	outcome.DesiredStatus = desired
	metrics.RecordReconciliation(r.provider, verdict.Phase, desired)
	span.SetAttributes(attribute.String("desired_status", string(desired)))

	if !ShouldWrite(remote, desired) {
		log.Debug("Session status already settled", "remote", remote, "desired", desired)
		metrics.RecordStatusWrite(r.provider, desired, false)
		return
	}
	if err := r.remote.UpdateStatus(ctx, sessionID, desired); err != nil {
		r.warn(outcome, span, metrics.StepStatusWrite, "WARNING: Failed to update %s job status: %v", err)
		log.Warn("Failed to update session status", "status", desired, "err", err)
		return
	}
	outcome.StatusWritten = true
	metrics.RecordStatusWrite(r.provider, desired, true)
	log.Info("Updated session status", "from", remote, "to", desired)
}

func (r *Reconciler) fetchVideo(ctx context.Context, sessionID string, outcome *types.Outcome, log log.Logger) {
	ctx, span := r.tracer.Start(ctx, "job fetch")
	defer span.End()
	defer r.recoverStep(metrics.StepJobFetch, "WARNING: Failed to fetch %s video: %v", outcome, span)

	videoURL, err := r.remote.VideoURL(ctx, sessionID)
	if err != nil {
		r.warn(outcome, span, metrics.StepJobFetch, "WARNING: Failed to fetch %s video: %v", err)
		log.Warn("Failed to fetch session video", "err", err)
		return
	}
	if videoURL == "" {
		metrics.RecordVideo(r.provider, false)
		return
	}
	outcome.VideoURL = videoURL
	outcome.Video = reporting.RenderVideo(videoURL, sessionID)
	metrics.RecordVideo(r.provider, outcome.Video != nil)
}

func (r *Reconciler) warn(outcome *types.Outcome, span trace.Span, step string, format string, err error) {
	outcome.AddWarning(format, r.provider, err)
	metrics.RecordWarning(r.provider, step)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// recoverStep turns a panic inside a step into the step's warning
func (r *Reconciler) recoverStep(step string, format string, outcome *types.Outcome, span trace.Span) {
	p := recover()
	if p == nil {
		return
	}
	r.warn(outcome, span, step, format, fmt.Errorf("panic: %v", p))
	r.log.Error("Recovered from panic", "step", step, "panic", p)
}
