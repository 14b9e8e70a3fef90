// Package tabular validates model-extracted tables and reshapes them into
// the column-keyed structure both renderers consume.
package tabular

import (
	"log/slog"

	"github.com/joseph-ayodele/cim-tables/internal/llm"
)

// TabularStructure is an ordered column-name → value-list mapping derived
// from one accepted table. Column order is preserved as given; the structure
// is never mutated after creation.
type TabularStructure struct {
	columns []string
	values  map[string][]any
	rows    int
}

// Columns returns the column names in input order.
func (t *TabularStructure) Columns() []string { return t.columns }

// RowCount returns the common column length.
func (t *TabularStructure) RowCount() int { return t.rows }

// Column returns the value list for a column name, nil when unknown.
func (t *TabularStructure) Column(name string) []any { return t.values[name] }

// Rows returns the deterministic row-major view: one slice per data row,
// cells in column order. Same structure always yields the same view.
func (t *TabularStructure) Rows() [][]any {
	out := make([][]any, t.rows)
	for i := 0; i < t.rows; i++ {
		row := make([]any, len(t.columns))
		for j, name := range t.columns {
			row[j] = t.values[name][i]
		}
		out[i] = row
	}
	return out
}

// AcceptedTable pairs a table name with its normalized structure.
type AcceptedTable struct {
	Name      string
	Structure *TabularStructure
}

// SkippedTable records a table dropped during validation, with the reason.
type SkippedTable struct {
	Name   string
	Reason string
}

const (
	ReasonNoColumns      = "table has no columns"
	ReasonLengthMismatch = "column value lists differ in length"
	ReasonDuplicateCol   = "duplicate column name"
)

// Normalize filters an ExtractionResult into accepted (tableName, structure)
// pairs. A table whose columns disagree in value-list length is skipped with
// a warning rather than failing the whole request; the same goes for tables
// with zero columns or duplicate column names (the mapping keys must be
// unique). No error is ever raised for per-table skips.
func Normalize(result *llm.ExtractionResult, logger *slog.Logger) ([]AcceptedTable, []SkippedTable) {
	if logger == nil {
		logger = slog.Default()
	}

	accepted := make([]AcceptedTable, 0, len(result.Tables))
	var skipped []SkippedTable

	skip := func(name, reason string) {
		logger.Warn("tabular.table_skipped", "table", name, "reason", reason)
		skipped = append(skipped, SkippedTable{Name: name, Reason: reason})
	}

	for _, tbl := range result.Tables {
		if len(tbl.Columns) == 0 {
			skip(tbl.Name, ReasonNoColumns)
			continue
		}

		rows := len(tbl.Columns[0].Values)
		mismatch := false
		for _, col := range tbl.Columns[1:] {
			if len(col.Values) != rows {
				mismatch = true
				break
			}
		}
		if mismatch {
			skip(tbl.Name, ReasonLengthMismatch)
			continue
		}

		ts := &TabularStructure{
			columns: make([]string, 0, len(tbl.Columns)),
			values:  make(map[string][]any, len(tbl.Columns)),
			rows:    rows,
		}
		dup := false
		for _, col := range tbl.Columns {
			if _, exists := ts.values[col.Name]; exists {
				dup = true
				break
			}
			ts.columns = append(ts.columns, col.Name)
			ts.values[col.Name] = col.Values
		}
		if dup {
			skip(tbl.Name, ReasonDuplicateCol)
			continue
		}

		accepted = append(accepted, AcceptedTable{Name: tbl.Name, Structure: ts})
	}

	return accepted, skipped
}
