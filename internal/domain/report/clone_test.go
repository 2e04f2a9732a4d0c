package report_test

import (
	"testing"
	"time"

	"github.com/ganot/report-results/internal/domain/report"
	"github.com/stretchr/testify/require"
)

func TestReport_CloneIsDeep(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := &report.Report{
		Name:    "Vendor and Guest OS",
		Title:   "Vendor and Guest OS",
		Cols:    []string{"vendor", "os"},
		Headers: []string{"Vendor", "OS"},
		Extras:  map[string]any{"nested": map[string]any{"k": "v"}},
		Table: &report.Table{
			Columns: []string{"vendor", "os"},
			Rows:    [][]report.Cell{{report.StringCell("vmware"), report.TimeCell(when)}},
		},
	}

	clone := orig.Clone()
	require.Equal(t, orig, clone)

	clone.Cols[0] = "changed"
	clone.Extras["nested"].(map[string]any)["k"] = "changed"
	clone.Table.Rows[0][0] = report.StringCell("changed")
	*clone.Table.Rows[0][1].Time = when.Add(time.Hour)

	require.Equal(t, "vendor", orig.Cols[0])
	require.Equal(t, "v", orig.Extras["nested"].(map[string]any)["k"])
	require.Equal(t, "vmware", orig.Table.Rows[0][0].String)
	require.True(t, orig.Table.Rows[0][1].Time.Equal(when))
}

func TestCell_Text(t *testing.T) {
	require.Equal(t, "42", report.IntCell(42).Text())
	require.Equal(t, "1.5", report.FloatCell(1.5).Text())
	require.Equal(t, "true", report.BoolCell(true).Text())
	require.Equal(t, "", report.NullCell().Text())
	require.Equal(t, "2024-03-01T12:00:00Z", report.TimeCell(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)).Text())
}

func TestReport_DisplayHeaders(t *testing.T) {
	rpt := &report.Report{
		Headers: []string{"Name"},
		Table:   &report.Table{Columns: []string{"name", "vendor"}},
	}
	require.Equal(t, []string{"name", "vendor"}, rpt.DisplayHeaders())

	rpt.Headers = []string{"Name", "Vendor"}
	require.Equal(t, []string{"Name", "Vendor"}, rpt.DisplayHeaders())
}
