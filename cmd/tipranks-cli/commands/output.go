package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// printResult writes a decoded response as indented json, or as a table when asTable is set.
func printResult(w io.Writer, res any, asTable bool) error {
	if asTable {
		if rows, ok := tableRows(res); ok {
			renderRows(w, rows)
			return nil
		}
		if object, ok := res.(map[string]any); ok {
			renderObject(w, object)
			return nil
		}
	}

	encoded, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}

func objectList(value any) ([]map[string]any, bool) {
	list, ok := value.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	rows := make([]map[string]any, len(list))
	for i, item := range list {
		object, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		rows[i] = object
	}
	return rows, true
}

// tableRows finds the list of objects in a response, either the response itself
// or the first field (by name) of an object holding one.
func tableRows(res any) ([]map[string]any, bool) {
	if rows, ok := objectList(res); ok {
		return rows, true
	}
	object, ok := res.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range sortedKeys(object) {
		if rows, ok := objectList(object[key]); ok {
			return rows, true
		}
	}
	return nil, false
}

func sortedKeys(object map[string]any) []string {
	keys := make([]string, 0, len(object))
	for k := range object {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatCell(value any) any {
	switch value.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	default:
		return value
	}
}

func renderRows(w io.Writer, rows []map[string]any) {
	columnSet := map[string]any{}
	for _, row := range rows {
		for k := range row {
			columnSet[k] = nil
		}
	}
	columns := sortedKeys(columnSet)

	t := newTable(w)
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, row := range rows {
		out := make(table.Row, len(columns))
		for i, c := range columns {
			out[i] = formatCell(row[c])
		}
		t.AppendRow(out)
	}
	t.Render()
}

func renderObject(w io.Writer, object map[string]any) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, key := range sortedKeys(object) {
		t.AppendRow(table.Row{key, formatCell(object[key])})
	}
	t.Render()
}
