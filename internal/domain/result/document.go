package result

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ganot/report-results/internal/domain/report"
)

// DocumentStylesheet is the stylesheet the renderer applies to result
// documents.
const DocumentStylesheet = "pdf_report.css"

const reportDateLayout = "2006-01-02 15:04:05 MST"

// DocumentMarkup builds the page markup for a result document. The title
// and date are placed inside single-quoted CSS strings and are escaped
// for that context.
func DocumentMarkup(title string, reportDate *time.Time, snapshot *report.Report) (string, error) {
	escapedTitle, err := escapeCSSString(title)
	if err != nil {
		return "", err
	}
	date := ""
	if reportDate != nil {
		date = reportDate.UTC().Format(reportDateLayout)
	}
	escapedDate, err := escapeCSSString(date)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<head><style>")
	b.WriteString("@page{size: a4 landscape}")
	b.WriteString("@page{margin: 40pt 30pt 40pt 30pt}")
	fmt.Fprintf(&b, "@page{@top{content: '%s';color:blue}}", escapedTitle)
	fmt.Fprintf(&b, "@page{@bottom-center{font-size: 75%%;content: 'Report date: %s'}}", escapedDate)
	b.WriteString("@page{@bottom-right{font-size: 75%;content: 'Page  ' counter(page) ' of  ' counter(pages)}}")
	b.WriteString("</style></head>")
	writeTable(&b, snapshot)
	return b.String(), nil
}

func writeTable(b *strings.Builder, snapshot *report.Report) {
	b.WriteString(`<table class="table table-striped table-bordered "><thead><tr>`)
	if snapshot != nil && snapshot.Table != nil {
		for _, h := range snapshot.DisplayHeaders() {
			b.WriteString("<th>" + html.EscapeString(h) + "</th>")
		}
	}
	b.WriteString("</tr></thead><tbody>")
	if snapshot != nil && snapshot.Table != nil {
		for _, row := range snapshot.Table.Rows {
			b.WriteString("<tr>")
			for _, cell := range row {
				b.WriteString("<td>" + html.EscapeString(cell.Text()) + "</td>")
			}
			b.WriteString("</tr>")
		}
	}
	b.WriteString("</tbody></table>")
}

// escapeCSSString escapes s for a single-quoted CSS string inside a
// <style> element. Characters that cannot appear there are rejected
// rather than dropped.
func escapeCSSString(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrUnescapableTitle)
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\'':
			b.WriteString(`\'`)
		case r == '<':
			// Keeps "</style>" in a title from closing the element.
			b.WriteString(`\3c `)
		case r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			return "", fmt.Errorf("%w: control character %U", ErrUnescapableTitle, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}
