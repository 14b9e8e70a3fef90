package tabular

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cim-tables/internal/llm"
)

func col(name string, values ...any) llm.Column {
	return llm.Column{Name: name, Values: values}
}

func TestNormalize(t *testing.T) {
	t.Run("accepts tables with equal-length columns", func(t *testing.T) {
		result := &llm.ExtractionResult{Tables: []llm.ExtractedTable{
			{Name: "Revenue", Columns: []llm.Column{
				col("Year", "2023", "2024"),
				col("USD", json.Number("100"), json.Number("120")),
			}},
		}}

		accepted, skipped := Normalize(result, nil)

		require.Len(t, accepted, 1)
		assert.Empty(t, skipped)
		assert.Equal(t, "Revenue", accepted[0].Name)

		ts := accepted[0].Structure
		assert.Equal(t, []string{"Year", "USD"}, ts.Columns())
		assert.Equal(t, 2, ts.RowCount())
	})

	t.Run("skips only the table with mismatched lengths", func(t *testing.T) {
		result := &llm.ExtractionResult{Tables: []llm.ExtractedTable{
			{Name: "Good", Columns: []llm.Column{
				col("A", "1", "2"),
				col("B", "x", "y"),
			}},
			{Name: "Ragged", Columns: []llm.Column{
				col("A", "1", "2", "3"),
				col("B", "x", "y"),
			}},
			{Name: "AlsoGood", Columns: []llm.Column{
				col("A", "1"),
			}},
		}}

		accepted, skipped := Normalize(result, nil)

		require.Len(t, accepted, 2)
		assert.Equal(t, "Good", accepted[0].Name)
		assert.Equal(t, "AlsoGood", accepted[1].Name)

		require.Len(t, skipped, 1)
		assert.Equal(t, "Ragged", skipped[0].Name)
		assert.Equal(t, ReasonLengthMismatch, skipped[0].Reason)
	})

	t.Run("skips tables with zero columns", func(t *testing.T) {
		result := &llm.ExtractionResult{Tables: []llm.ExtractedTable{
			{Name: "Empty"},
		}}

		accepted, skipped := Normalize(result, nil)

		assert.Empty(t, accepted)
		require.Len(t, skipped, 1)
		assert.Equal(t, ReasonNoColumns, skipped[0].Reason)
	})

	t.Run("skips tables with duplicate column names", func(t *testing.T) {
		result := &llm.ExtractionResult{Tables: []llm.ExtractedTable{
			{Name: "Dup", Columns: []llm.Column{
				col("Year", "2023"),
				col("Year", "2024"),
			}},
		}}

		accepted, skipped := Normalize(result, nil)

		assert.Empty(t, accepted)
		require.Len(t, skipped, 1)
		assert.Equal(t, ReasonDuplicateCol, skipped[0].Reason)
	})

	t.Run("accepts zero-row tables", func(t *testing.T) {
		result := &llm.ExtractionResult{Tables: []llm.ExtractedTable{
			{Name: "Headers only", Columns: []llm.Column{
				col("A"),
				col("B"),
			}},
		}}

		accepted, skipped := Normalize(result, nil)

		require.Len(t, accepted, 1)
		assert.Empty(t, skipped)
		assert.Equal(t, 0, accepted[0].Structure.RowCount())
		assert.Empty(t, accepted[0].Structure.Rows())
	})
}

func TestTabularStructure_Rows(t *testing.T) {
	result := &llm.ExtractionResult{Tables: []llm.ExtractedTable{
		{Name: "Revenue", Columns: []llm.Column{
			col("Year", "2023", "2024"),
			col("USD", json.Number("100"), json.Number("120")),
			col("Note", nil, "restated"),
		}},
	}}
	accepted, _ := Normalize(result, nil)
	require.Len(t, accepted, 1)
	ts := accepted[0].Structure

	t.Run("row-major view preserves column and row order", func(t *testing.T) {
		rows := ts.Rows()
		require.Len(t, rows, 2)
		assert.Equal(t, []any{"2023", json.Number("100"), nil}, rows[0])
		assert.Equal(t, []any{"2024", json.Number("120"), "restated"}, rows[1])
	})

	t.Run("deterministic: repeated calls yield the same view", func(t *testing.T) {
		assert.Equal(t, ts.Rows(), ts.Rows())
	})

	t.Run("column lookup", func(t *testing.T) {
		assert.Equal(t, []any{"2023", "2024"}, ts.Column("Year"))
		assert.Nil(t, ts.Column("Missing"))
	})
}
