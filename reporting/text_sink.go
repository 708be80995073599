package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
)

// SummarySink appends summary lines to a plain text file
type SummarySink struct {
	path string
	mu   sync.Mutex
}

// NewSummarySink creates a sink writing to path. The file is created on first use.
func NewSummarySink(path string) *SummarySink {
	return &SummarySink{path: path}
}

// Path returns the file the sink writes to
func (s *SummarySink) Path() string {
	return s.path
}

// Consume appends the lines for one test, stripped of terminal escape codes
func (s *SummarySink) Consume(test string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open summary file %s: %w", s.path, err)
	}
	defer f.Close()

	var b strings.Builder
	if test != "" {
		fmt.Fprintf(&b, "%s\n", stripansi.Strip(test))
	}
	for _, line := range lines {
		fmt.Fprintf(&b, "  %s\n", stripansi.Strip(line))
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}
