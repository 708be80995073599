package reporting

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

const extrasTemplate = "templates/extras.html.tmpl"

// ExtrasFilename is the page written by HTMLReportSink
const ExtrasFilename = "extras.html"

// HTMLReportSink renders collected extras into a standalone page
type HTMLReportSink struct {
	template  *template.Template
	baseDir   string
	collector *ExtrasCollector
	now       func() time.Time
}

// NewHTMLReportSink creates a sink writing under baseDir. A nil collector gets a fresh one.
func NewHTMLReportSink(baseDir string, collector *ExtrasCollector) (*HTMLReportSink, error) {
	tmpl, err := template.New("extras.html.tmpl").Funcs(template.FuncMap{
		// fragments are rendered by RenderVideo, never taken from user input
		"markup": func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(templateFS, extrasTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	if collector == nil {
		collector = NewExtrasCollector()
	}
	return &HTMLReportSink{
		template:  tmpl,
		baseDir:   baseDir,
		collector: collector,
		now:       time.Now,
	}, nil
}

// Collector returns the collector the sink renders from
func (s *HTMLReportSink) Collector() *ExtrasCollector {
	return s.collector
}

// Consume records extras for a test
func (s *HTMLReportSink) Consume(test string, extras []Extra) error {
	s.collector.Add(test, extras...)
	return nil
}

// Complete writes the page to <baseDir>/farmsync-<runID>/extras.html and returns its path
func (s *HTMLReportSink) Complete(runID string) (string, error) {
	outputDir := filepath.Join(s.baseDir, "farmsync-"+runID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	data := struct {
		Title string
		Time  string
		Tests []TestExtras
	}{
		Title: "Remote session results (" + runID + ")",
		Time:  s.now().UTC().Format(time.RFC3339),
		Tests: s.collector.Tests(),
	}

	var buf bytes.Buffer
	if err := s.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute HTML template: %w", err)
	}

	htmlFile := filepath.Join(outputDir, ExtrasFilename)
	if err := os.WriteFile(htmlFile, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write HTML file: %w", err)
	}
	return htmlFile, nil
}
