package functional_test

import "github.com/ganot/report-results/internal/domain/report"

func snapshot(title string) *report.Report {
	return &report.Report{
		Name:    "VMs based on Disk Type",
		Title:   title,
		Cols:    []string{"name"},
		Headers: []string{"Name"},
		Table: &report.Table{
			Columns: []string{"name"},
			Rows:    [][]report.Cell{{report.StringCell("vm1")}, {report.StringCell("vm2")}},
		},
	}
}
