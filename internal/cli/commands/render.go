package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/romaninsh/vantage/pkg/dataset"
	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/value"
)

// renderEntries writes entries in the configured output format.
func renderEntries(w io.Writer, entries []dataset.Entry[record.Record], format string) error {
	cols := columnsOf(entries)
	switch format {
	case "json":
		return renderJSON(w, entries)
	case "csv":
		return renderCSV(w, cols, entries)
	default:
		return renderTable(w, cols, entries)
	}
}

// columnsOf returns "id" followed by every field name in first-seen order.
func columnsOf(entries []dataset.Entry[record.Record]) []string {
	cols := []string{"id"}
	seen := map[string]struct{}{"id": {}}
	for _, e := range entries {
		for _, k := range e.Entity.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return cols
}

func cell(e dataset.Entry[record.Record], col string) string {
	if col == "id" {
		return e.ID.String()
	}
	v, err := e.Entity.Get(col)
	if err != nil {
		return ""
	}
	return displayValue(v)
}

// displayValue renders a value for humans: strings bare, the rest in
// the debug form.
func displayValue(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return ""
	case value.KindString:
		s, _ := v.AsString()
		return s
	default:
		return v.String()
	}
}

func renderTable(w io.Writer, cols []string, entries []dataset.Entry[record.Record]) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, e := range entries {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = cell(e, col)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(entries))
	return nil
}

func renderJSON(w io.Writer, entries []dataset.Entry[record.Record]) error {
	results := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		row := map[string]any{"id": e.ID.String()}
		for _, p := range e.Entity.Pairs() {
			row[p.Name] = jsonValue(p.Value)
		}
		results = append(results, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// jsonValue converts a value into what encoding/json expects.
func jsonValue(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindInt:
		n, _ := v.AsInt()
		return n
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindArray:
		items, _ := v.Items()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = jsonValue(it)
		}
		return out
	case value.KindObject:
		fields, _ := v.Fields()
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			out[f.Name] = jsonValue(f.Value)
		}
		return out
	default:
		return nil
	}
}

func renderCSV(w io.Writer, cols []string, entries []dataset.Entry[record.Record]) error {
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))
	for _, e := range entries {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = escapeCSV(cell(e, col))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
