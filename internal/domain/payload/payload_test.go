package payload_test

import (
	"testing"
	"time"

	"github.com/ganot/report-results/internal/domain/payload"
	"github.com/ganot/report-results/internal/domain/report"
	"github.com/stretchr/testify/require"
)

func sampleReport() *report.Report {
	return &report.Report{
		Name:      "VMs based on Disk Type",
		Title:     "VMs using thin provisioned disks",
		Cols:      []string{"name", "vendor"},
		ColOrder:  []string{"name", "vendor"},
		Headers:   []string{"Name", "Vendor"},
		SortOrder: "Ascending",
		Extras: map[string]any{
			"total_rows": int64(2),
			"db":         "VmInfra",
			"ratio":      0.25,
			"tags":       []any{"thin", int64(3)},
			"nested":     map[string]any{"enabled": true},
		},
		Table: &report.Table{
			Columns: []string{"name", "vendor"},
			Rows: [][]report.Cell{
				{report.StringCell("vm1"), report.StringCell("vmware")},
				{report.StringCell("vm2"), report.NullCell()},
				{report.IntCell(-7), report.FloatCell(1.5)},
				{report.BoolCell(true), report.BoolCell(false)},
			},
		},
	}
}

func TestStoreLoad_ObjectRoundTrip(t *testing.T) {
	orig := sampleReport()

	data, enc, err := payload.Store(payload.FromReport(orig))
	require.NoError(t, err)
	require.Equal(t, payload.EncodingObject, enc)

	loaded, err := payload.Load(data, enc)
	require.NoError(t, err)
	require.Equal(t, payload.EncodingObject, loaded.Encoding)
	require.Equal(t, orig, loaded.Report)
}

func TestStoreLoad_TransientGroupingDropped(t *testing.T) {
	orig := sampleReport()
	orig.Grouping = map[string]any{"extra data": "not saved"}

	data, enc, err := payload.Store(payload.FromReport(orig))
	require.NoError(t, err)

	loaded, err := payload.Load(data, enc)
	require.NoError(t, err)
	require.Nil(t, loaded.Report.Grouping)

	expected := orig.Clone()
	expected.Grouping = nil
	require.Equal(t, expected, loaded.Report)

	// The caller's in-memory value keeps its cache.
	require.Equal(t, map[string]any{"extra data": "not saved"}, orig.Grouping)
}

func TestStoreLoad_EmptyAndNilFieldsKept(t *testing.T) {
	empty := &report.Report{
		Name:     "empty",
		Cols:     []string{},
		ColOrder: []string{},
		Headers:  []string{},
		Extras:   map[string]any{},
	}
	data, enc, err := payload.Store(payload.FromReport(empty))
	require.NoError(t, err)
	loaded, err := payload.Load(data, enc)
	require.NoError(t, err)
	require.Equal(t, empty, loaded.Report)
	require.NotNil(t, loaded.Report.Cols)
	require.NotNil(t, loaded.Report.Extras)

	bare := &report.Report{Name: "bare"}
	data, enc, err = payload.Store(payload.FromReport(bare))
	require.NoError(t, err)
	loaded, err = payload.Load(data, enc)
	require.NoError(t, err)
	require.Nil(t, loaded.Report.Cols)
	require.Nil(t, loaded.Report.Extras)
}

func TestStoreLoad_TimeCell(t *testing.T) {
	when := time.Date(2023, 11, 5, 8, 30, 15, 250, time.UTC)
	orig := &report.Report{
		Name:  "Provisioning",
		Title: "Provisioning",
		Table: &report.Table{
			Columns: []string{"created_on"},
			Rows:    [][]report.Cell{{report.TimeCell(when)}},
		},
	}

	data, enc, err := payload.Store(payload.FromReport(orig))
	require.NoError(t, err)
	loaded, err := payload.Load(data, enc)
	require.NoError(t, err)

	cell := loaded.Report.Table.Rows[0][0]
	require.Equal(t, report.KindTime, cell.Kind)
	require.NotNil(t, cell.Time)
	require.True(t, cell.Time.Equal(when))
}

func TestStoreLoad_TextPassthrough(t *testing.T) {
	csvText, err := payload.CSV([][]string{{"foo", "bar"}, {"baz", "qux"}})
	require.NoError(t, err)

	plain := "+--------------+\n" +
		"|  Foo Report  |\n" +
		"+--------------+\n" +
		"| Foo  | Bar   |\n" +
		"+--------------+\n" +
		"| baz  | qux   |\n" +
		"| quux | corge |\n" +
		"+--------------+\n"

	for _, text := range []string{csvText, plain, "", "multi\nline\r\nwith \"quotes\", commas"} {
		data, enc, err := payload.Store(payload.FromText(text))
		require.NoError(t, err)
		require.Equal(t, payload.EncodingText, enc)
		require.Equal(t, []byte(text), data)

		loaded, err := payload.Load(data, enc)
		require.NoError(t, err)
		require.Equal(t, payload.EncodingText, loaded.Encoding)
		require.Equal(t, text, loaded.Text)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	_, err := payload.Load([]byte("foo,bar\n"), payload.Encoding("yaml"))
	require.ErrorIs(t, err, payload.ErrCorruptPayload)

	_, err = payload.Load([]byte("foo,bar\nbaz,qux\n"), payload.EncodingObject)
	require.ErrorIs(t, err, payload.ErrCorruptPayload)

	_, err = payload.Load(nil, payload.EncodingObject)
	require.ErrorIs(t, err, payload.ErrCorruptPayload)

	data, _, err := payload.Store(payload.FromReport(sampleReport()))
	require.NoError(t, err)
	_, err = payload.Load(data[:len(data)/2], payload.EncodingObject)
	require.ErrorIs(t, err, payload.ErrCorruptPayload)
}

func TestTextPayload_KeepsNonUTF8Bytes(t *testing.T) {
	text := "caf\xe9;1\n"
	data, enc, err := payload.Store(payload.FromText(text))
	require.NoError(t, err)
	require.Equal(t, []byte{'c', 'a', 'f', 0xe9, ';', '1', '\n'}, data)

	loaded, err := payload.Load(data, enc)
	require.NoError(t, err)
	require.Equal(t, text, loaded.Text)
}

func TestStore_RejectsUnknownEncoding(t *testing.T) {
	_, _, err := payload.Store(payload.Payload{Encoding: "xml"})
	require.Error(t, err)

	_, _, err = payload.Store(payload.Payload{Encoding: payload.EncodingObject})
	require.Error(t, err)
}

func TestPlainTable(t *testing.T) {
	got := payload.PlainTable("Foo Report",
		[]string{"Foo", "Bar"},
		[][]string{{"baz", "qux"}, {"quux", "corge"}},
	)
	want := "+--------------+\n" +
		"|  Foo Report  |\n" +
		"+--------------+\n" +
		"| Foo  | Bar   |\n" +
		"+--------------+\n" +
		"| baz  | qux   |\n" +
		"| quux | corge |\n" +
		"+--------------+\n"
	require.Equal(t, want, got)
}

func TestPlainTable_WideTitle(t *testing.T) {
	got := payload.PlainTable("A much longer title", []string{"a"}, [][]string{{"b"}})
	want := "+-----------------------+\n" +
		"|  A much longer title  |\n" +
		"+-----------------------+\n" +
		"| a                     |\n" +
		"+-----------------------+\n" +
		"| b                     |\n" +
		"+-----------------------+\n"
	require.Equal(t, want, got)
}

func TestRenderText(t *testing.T) {
	rpt := sampleReport()

	csvText, err := payload.RenderText(rpt, payload.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "Name,Vendor\nvm1,vmware\nvm2,\n-7,1.5\ntrue,false\n", csvText)

	txt, err := payload.RenderText(rpt, payload.FormatTXT)
	require.NoError(t, err)
	require.Contains(t, txt, "VMs using thin provisioned disks")
	require.Contains(t, txt, "| vm1  | vmware ")

	_, err = payload.ParseTextFormat("pdf")
	require.Error(t, err)
	format, err := payload.ParseTextFormat("TXT")
	require.NoError(t, err)
	require.Equal(t, payload.FormatTXT, format)
}
