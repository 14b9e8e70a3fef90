// Package render turns TabularStructures into self-contained HTML table
// strings. Escaping comes from html/template, so model-controlled cell
// content cannot inject markup into the hosting page.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/joseph-ayodele/cim-tables/internal/tabular"
)

var tableTmpl = template.Must(template.New("table").Parse(`<table class="financial-table">
<caption>{{.Name}}</caption>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>`))

type tableData struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// HTMLTable renders one accepted table as a self-contained <table> string:
// a caption, a header row of column names, and one row per data row, both in
// original order. Deterministic: the same structure yields identical bytes.
func HTMLTable(name string, ts *tabular.TabularStructure) (string, error) {
	data := tableData{
		Name:    name,
		Columns: ts.Columns(),
		Rows:    make([][]string, 0, ts.RowCount()),
	}
	for _, row := range ts.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = CellString(v)
		}
		data.Rows = append(data.Rows, cells)
	}

	var b strings.Builder
	if err := tableTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render table %q: %w", name, err)
	}
	return b.String(), nil
}

// CellString formats a scalar cell for display. Numbers keep the literal the
// model produced (json.Number), null becomes the empty string.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
