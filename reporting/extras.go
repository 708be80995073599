package reporting

import (
	"sync"

	"github.com/ethereum-optimism/infra/farmsync/types"
)

// ExtraKind says how an Extra is displayed in the HTML report
type ExtraKind string

const (
	ExtraKindURL  ExtraKind = "url"
	ExtraKindHTML ExtraKind = "html"
)

// Extra is one entry attached to a test in the HTML report
type Extra struct {
	Kind    ExtraKind `json:"kind"`
	Name    string    `json:"name,omitempty"`
	Content string    `json:"content"`
}

// URL builds a link extra
func URL(target, name string) Extra {
	return Extra{Kind: ExtraKindURL, Name: name, Content: target}
}

// HTML builds a raw markup extra from a rendered fragment
func HTML(fragment *types.Fragment) Extra {
	return Extra{Kind: ExtraKindHTML, Name: fragment.Name, Content: fragment.Markup}
}

// TestExtras is the set of extras attached to a single test
type TestExtras struct {
	Test   string
	Extras []Extra
}

// ExtrasCollector gathers extras for many tests, in the order they are reported.
// It is safe for concurrent use.
type ExtrasCollector struct {
	mu    sync.Mutex
	order []string
	tests map[string][]Extra
}

// NewExtrasCollector creates an empty collector
func NewExtrasCollector() *ExtrasCollector {
	return &ExtrasCollector{tests: make(map[string][]Extra)}
}

// Add appends extras for a test
func (c *ExtrasCollector) Add(test string, extras ...Extra) {
	if len(extras) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tests[test]; !ok {
		c.order = append(c.order, test)
	}
	c.tests[test] = append(c.tests[test], extras...)
}

// Tests returns a snapshot of everything collected so far
func (c *ExtrasCollector) Tests() []TestExtras {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TestExtras, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, TestExtras{
			Test:   name,
			Extras: append([]Extra(nil), c.tests[name]...),
		})
	}
	return out
}

// Len returns the number of extras collected across all tests
func (c *ExtrasCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, extras := range c.tests {
		n += len(extras)
	}
	return n
}
