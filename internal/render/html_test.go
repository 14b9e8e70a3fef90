package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cim-tables/internal/llm"
	"github.com/joseph-ayodele/cim-tables/internal/tabular"
)

func structureFor(t *testing.T, tbl llm.ExtractedTable) *tabular.TabularStructure {
	t.Helper()
	accepted, skipped := tabular.Normalize(&llm.ExtractionResult{Tables: []llm.ExtractedTable{tbl}}, nil)
	require.Empty(t, skipped)
	require.Len(t, accepted, 1)
	return accepted[0].Structure
}

func TestHTMLTable(t *testing.T) {
	revenue := llm.ExtractedTable{Name: "Revenue", Columns: []llm.Column{
		{Name: "Year", Values: []any{"2023", "2024"}},
		{Name: "USD", Values: []any{json.Number("100"), json.Number("120")}},
	}}

	t.Run("renders header and data rows in order", func(t *testing.T) {
		ts := structureFor(t, revenue)
		html, err := HTMLTable("Revenue", ts)
		require.NoError(t, err)

		assert.Contains(t, html, "<caption>Revenue</caption>")
		assert.Contains(t, html, "<tr><th>Year</th><th>USD</th></tr>")
		assert.Contains(t, html, "<tr><td>2023</td><td>100</td></tr>")
		assert.Contains(t, html, "<tr><td>2024</td><td>120</td></tr>")

		// Row order must match input order.
		assert.Less(t,
			strings.Index(html, "<td>2023</td>"),
			strings.Index(html, "<td>2024</td>"))
	})

	t.Run("escapes cell content", func(t *testing.T) {
		tbl := llm.ExtractedTable{Name: "<script>alert(1)</script>", Columns: []llm.Column{
			{Name: "<b>Col</b>", Values: []any{`<img src=x onerror=alert(1)>`}},
		}}
		ts := structureFor(t, tbl)
		html, err := HTMLTable(tbl.Name, ts)
		require.NoError(t, err)

		assert.NotContains(t, html, "<script>")
		assert.NotContains(t, html, "<img")
		assert.Contains(t, html, "&lt;script&gt;")
		assert.Contains(t, html, "&lt;b&gt;Col&lt;/b&gt;")
	})

	t.Run("null cells render empty", func(t *testing.T) {
		tbl := llm.ExtractedTable{Name: "Sparse", Columns: []llm.Column{
			{Name: "A", Values: []any{nil, "x"}},
		}}
		ts := structureFor(t, tbl)
		html, err := HTMLTable("Sparse", ts)
		require.NoError(t, err)
		assert.Contains(t, html, "<tr><td></td></tr>")
	})

	t.Run("deterministic output", func(t *testing.T) {
		ts := structureFor(t, revenue)
		first, err := HTMLTable("Revenue", ts)
		require.NoError(t, err)
		second, err := HTMLTable("Revenue", ts)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", CellString(nil))
	assert.Equal(t, "hello", CellString("hello"))
	assert.Equal(t, "120", CellString(json.Number("120")))
	assert.Equal(t, "120.50", CellString(json.Number("120.50")))
}
