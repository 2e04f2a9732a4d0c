package payload

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ganot/report-results/internal/domain/report"
)

// TextFormat selects how a structured report is flattened to text.
type TextFormat string

const (
	FormatCSV TextFormat = "csv"
	FormatTXT TextFormat = "txt"
)

// ParseTextFormat validates a user-supplied format name.
func ParseTextFormat(s string) (TextFormat, error) {
	switch TextFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatTXT, "text":
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("unknown text format %q", s)
	}
}

// RenderText flattens the report's table into the requested text format.
func RenderText(r *report.Report, format TextFormat) (string, error) {
	if r == nil {
		return "", fmt.Errorf("render text: nil report")
	}
	headers := r.DisplayHeaders()
	var rows [][]string
	if r.Table != nil {
		rows = make([][]string, len(r.Table.Rows))
		for i, row := range r.Table.Rows {
			cells := make([]string, len(row))
			for j, cell := range row {
				cells[j] = cell.Text()
			}
			rows[i] = cells
		}
	}

	switch format {
	case FormatCSV:
		return CSV(append([][]string{headers}, rows...))
	case FormatTXT:
		return PlainTable(r.Title, headers, rows), nil
	default:
		return "", fmt.Errorf("render text: unknown format %q", format)
	}
}

// CSV writes rows as comma-delimited text.
func CSV(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("writing csv: %w", err)
	}
	return buf.String(), nil
}

// PlainTable renders a boxed fixed-width table:
//
//	+--------------+
//	|  Foo Report  |
//	+--------------+
//	| Foo  | Bar   |
//	+--------------+
//	| baz  | qux   |
//	+--------------+
func PlainTable(title string, headers []string, rows [][]string) string {
	cols := len(headers)
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	// Each column renders as "| cell " and the row closes with "|".
	inner := -1
	for _, w := range widths {
		inner += w + 3
	}
	titleWidth := utf8.RuneCountInString(title) + 4
	switch {
	case cols == 0:
		inner = titleWidth
	case titleWidth > inner:
		widths[cols-1] += titleWidth - inner
		inner = titleWidth
	}

	var b strings.Builder
	rule := "+" + strings.Repeat("-", inner) + "+\n"
	line := func(row []string) {
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString("| ")
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", w-utf8.RuneCountInString(cell)+1))
		}
		b.WriteString("|\n")
	}

	b.WriteString(rule)
	if title != "" {
		pad := inner - utf8.RuneCountInString(title)
		left := pad / 2
		b.WriteString("|" + strings.Repeat(" ", left) + title + strings.Repeat(" ", pad-left) + "|\n")
		b.WriteString(rule)
	}
	if cols > 0 {
		line(headers)
		b.WriteString(rule)
		for _, row := range rows {
			line(row)
		}
		if len(rows) > 0 {
			b.WriteString(rule)
		}
	}
	return b.String()
}
