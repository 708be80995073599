package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/farmsync/types"
)

const (
	MetricsNamespace = "farmsync"
)

// Reconciliation steps used as the "step" label
const (
	StepStatusFetch = "status_fetch"
	StepStatusWrite = "status_write"
	StepJobFetch    = "job_fetch"
)

var (
	Debug                bool = false
	validStatuses             = []types.SessionStatus{types.SessionStatusRunning, types.SessionStatusCompleted, types.SessionStatusError}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "reconciliations_total",
		Help:      "Count of reconciliations by desired remote status",
	}, []string{
		"provider",
		"phase",
		"desired",
	})

	statusWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "status_writes_total",
		Help:      "Count of remote status writes, by whether the write was issued or skipped",
	}, []string{
		"provider",
		"status",
		"outcome",
	})

	warningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "warnings_total",
		Help:      "Count of reconciliation steps that degraded to a warning",
	}, []string{
		"provider",
		"step",
	})

	videosTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "videos_total",
		Help:      "Count of job lookups by whether a replay video was available",
	}, []string{
		"provider",
		"available",
	})

	remoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "remote_request_duration_seconds",
		Help:      "Latency of device farm API calls",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{
		"method",
		"endpoint",
		"code",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordReconciliation(provider string, phase types.Phase, desired types.SessionStatus) {
	if !isValidStatus(desired) {
		log.Error("RecordReconciliation - invalid status", "status", desired)
		return
	}
	reconciliationsTotal.WithLabelValues(provider, string(phase), string(desired)).Inc()
}

// RecordStatusWrite counts a status write decision. written=false means the write was gated off.
func RecordStatusWrite(provider string, status types.SessionStatus, written bool) {
	outcome := "skipped"
	if written {
		outcome = "written"
	}
	if Debug {
		log.Debug("metric inc",
			"m", "status_writes_total",
			"provider", provider,
			"status", status,
			"outcome", outcome)
	}
	statusWritesTotal.WithLabelValues(provider, string(status), outcome).Inc()
}

func RecordWarning(provider string, step string) {
	warningsTotal.WithLabelValues(provider, step).Inc()
}

func RecordVideo(provider string, available bool) {
	videosTotal.WithLabelValues(provider, strconv.FormatBool(available)).Inc()
}

// RecordRemoteRequest observes one API call. code is 0 when no response was received.
func RecordRemoteRequest(method string, endpoint string, code int, duration time.Duration) {
	codeLabel := "none"
	if code > 0 {
		codeLabel = strconv.Itoa(code)
	}
	remoteRequestDuration.WithLabelValues(method, endpoint, codeLabel).Observe(duration.Seconds())
}

// WriteTextfile dumps every registered metric in the text exposition format,
// for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func isValidStatus(status types.SessionStatus) bool {
	return slices.Contains(validStatuses, status)
}
