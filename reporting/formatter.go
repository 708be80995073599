package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/farmsync/types"
)

// OutcomeTable renders reconciliation outcomes for the console
type OutcomeTable struct {
	provider string
	colored  bool
}

// NewOutcomeTable creates a table formatter for a provider
func NewOutcomeTable(provider string, colored bool) *OutcomeTable {
	return &OutcomeTable{provider: provider, colored: colored}
}

// Render writes one row per outcome to w
func (f *OutcomeTable) Render(w io.Writer, test string, outcomes ...*types.Outcome) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s session results (%s)", f.provider, test))

	t.AppendHeader(table.Row{"Session", "Remote", "Desired", "Written", "Video", "Warnings"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Session", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Warnings", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Written", Align: text.AlignCenter},
	})

	warnings := 0
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		warnings += len(o.Warnings)
		t.AppendRow(table.Row{
			o.SessionID,
			orDash(string(o.RemoteStatus)),
			orDash(string(o.DesiredStatus)),
			yesNo(o.StatusWritten),
			yesNo(o.Video != nil),
			strings.Join(o.Warnings, "\n"),
		})
	}
	t.AppendFooter(table.Row{"TOTAL", "", "", "", "", warnings})

	if f.colored {
		if warnings == 0 {
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		} else {
			t.SetStyle(table.StyleColoredBlackOnYellowWhite)
		}
	} else {
		t.SetStyle(table.StyleLight)
	}
	t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
