package report

import (
	"fmt"
	"strconv"
	"time"
)

// Clone returns a deep copy of the report, including the transient
// grouping cache. Mutating the copy never affects r.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	out := &Report{
		Name:      r.Name,
		Title:     r.Title,
		Cols:      cloneStrings(r.Cols),
		ColOrder:  cloneStrings(r.ColOrder),
		Headers:   cloneStrings(r.Headers),
		SortOrder: r.SortOrder,
		Extras:    cloneMap(r.Extras),
		Grouping:  cloneMap(r.Grouping),
	}
	if r.Table != nil {
		out.Table = &Table{
			Columns: cloneStrings(r.Table.Columns),
			Rows:    make([][]Cell, len(r.Table.Rows)),
		}
		for i, row := range r.Table.Rows {
			cells := make([]Cell, len(row))
			for j, cell := range row {
				cells[j] = cell
				if cell.Time != nil {
					t := *cell.Time
					cells[j].Time = &t
				}
			}
			out.Table.Rows[i] = cells
		}
	}
	return out
}

// Text renders the cell the way it appears in delimited and plain-text
// output.
func (c Cell) Text() string {
	switch c.Kind {
	case KindString:
		return c.String
	case KindInt:
		return strconv.FormatInt(c.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(c.Float, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(c.Bool)
	case KindTime:
		if c.Time == nil {
			return ""
		}
		return c.Time.Format(time.RFC3339)
	case KindNull, "":
		return ""
	default:
		return fmt.Sprintf("<%s>", c.Kind)
	}
}

// DisplayHeaders returns the header labels for the table columns, falling
// back to the column names when the definition carries no labels.
func (r *Report) DisplayHeaders() []string {
	if r == nil || r.Table == nil {
		return nil
	}
	if len(r.Headers) == len(r.Table.Columns) {
		return cloneStrings(r.Headers)
	}
	return cloneStrings(r.Table.Columns)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
