package farmsync

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/farmsync/reporting"
	"github.com/ethereum-optimism/infra/farmsync/types"
)

// OutcomeReporter hands a reconciliation outcome to the configured report sinks
type OutcomeReporter interface {
	ReportOutcome(test string, outcome *types.Outcome, summary []string, extras []reporting.Extra) error
}

// SinkReporter prints the outcome to the console and writes the optional file sinks
type SinkReporter struct {
	out     io.Writer
	table   *reporting.OutcomeTable
	html    *reporting.HTMLReportSink // nil when no HTML report is configured
	summary *reporting.SummarySink    // nil when no summary file is configured
	log     log.Logger
}

// NewSinkReporter creates a reporter. Empty htmlDir or summaryFile disable that sink.
func NewSinkReporter(providerName string, out io.Writer, htmlDir, summaryFile string, colored bool, logger log.Logger) (*SinkReporter, error) {
	r := &SinkReporter{
		out:   out,
		table: reporting.NewOutcomeTable(providerName, colored),
		log:   logger,
	}
	if htmlDir != "" {
		sink, err := reporting.NewHTMLReportSink(htmlDir, nil)
		if err != nil {
			return nil, err
		}
		r.html = sink
	}
	if summaryFile != "" {
		r.summary = reporting.NewSummarySink(summaryFile)
	}
	return r, nil
}

// ReportOutcome prints the summary and table, then writes each configured sink
func (r *SinkReporter) ReportOutcome(test string, outcome *types.Outcome, summary []string, extras []reporting.Extra) error {
	for _, line := range summary {
		if _, err := fmt.Fprintln(r.out, line); err != nil {
			return err
		}
	}
	r.table.Render(r.out, test, outcome)

	if r.summary != nil {
		if err := r.summary.Consume(test, summary); err != nil {
			return err
		}
		r.log.Debug("Wrote summary", "path", r.summary.Path())
	}
	if r.html != nil {
		if err := r.html.Consume(test, extras); err != nil {
			return err
		}
		path, err := r.html.Complete(outcome.SessionID)
		if err != nil {
			return err
		}
		r.log.Info("Wrote HTML report", "path", path)
	}
	return nil
}
