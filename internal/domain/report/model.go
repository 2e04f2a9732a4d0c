package report

import "time"

// Report is a report definition frozen together with the table the report
// engine generated from it.
//
// Extras holds auxiliary data produced during generation. Values must be
// JSON-compatible: string, bool, int64, float64, nil, []any or
// map[string]any.
//
// The slice and map fields keep the nil/empty distinction through storage:
// an empty Cols comes back empty, a nil one comes back nil.
type Report struct {
	Name      string         `json:"name"`
	Title     string         `json:"title"`
	Cols      []string       `json:"cols"`
	ColOrder  []string       `json:"col_order"`
	Headers   []string       `json:"headers"`
	SortOrder string         `json:"sort_order,omitempty"`
	Extras    map[string]any `json:"extras"`
	Table     *Table         `json:"table,omitempty"`

	// Grouping is a display-only aggregation cache. It is never
	// serialized: a stored report always comes back without it.
	Grouping map[string]any `json:"-"`
}

// Table is the generated data: ordered columns and ordered rows of typed
// cells.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// CellKind identifies which value field of a Cell is populated.
type CellKind string

const (
	KindNull   CellKind = "null"
	KindString CellKind = "string"
	KindInt    CellKind = "int"
	KindFloat  CellKind = "float"
	KindBool   CellKind = "bool"
	KindTime   CellKind = "time"
)

// Cell is one typed table value.
type Cell struct {
	Kind   CellKind   `json:"kind"`
	String string     `json:"s,omitempty"`
	Int    int64      `json:"i,omitempty"`
	Float  float64    `json:"f,omitempty"`
	Bool   bool       `json:"b,omitempty"`
	Time   *time.Time `json:"t,omitempty"`
}

func StringCell(v string) Cell { return Cell{Kind: KindString, String: v} }
func IntCell(v int64) Cell     { return Cell{Kind: KindInt, Int: v} }
func FloatCell(v float64) Cell { return Cell{Kind: KindFloat, Float: v} }
func BoolCell(v bool) Cell     { return Cell{Kind: KindBool, Bool: v} }
func NullCell() Cell           { return Cell{Kind: KindNull} }

func TimeCell(v time.Time) Cell {
	t := v.UTC()
	return Cell{Kind: KindTime, Time: &t}
}
