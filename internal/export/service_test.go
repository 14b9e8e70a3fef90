package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cim-tables/internal/llm"
	"github.com/joseph-ayodele/cim-tables/internal/tabular"
)

func acceptedFrom(t *testing.T, tables ...llm.ExtractedTable) []tabular.AcceptedTable {
	t.Helper()
	accepted, skipped := tabular.Normalize(&llm.ExtractionResult{Tables: tables}, nil)
	require.Empty(t, skipped)
	return accepted
}

func TestWriteWorkbook(t *testing.T) {
	t.Run("one sheet per table with headers and values", func(t *testing.T) {
		dir := t.TempDir()
		svc := NewService(dir, nil)

		accepted := acceptedFrom(t, llm.ExtractedTable{
			Name: "Revenue",
			Columns: []llm.Column{
				{Name: "Year", Values: []any{"2023", "2024"}},
				{Name: "USD", Values: []any{json.Number("100"), json.Number("120")}},
			},
		})

		name, err := svc.WriteWorkbook(accepted, "deck.pdf")
		require.NoError(t, err)
		require.NotEmpty(t, name)
		assert.True(t, strings.HasPrefix(name, "deck-"))
		assert.True(t, strings.HasSuffix(name, ".xlsx"))

		f, err := excelize.OpenFile(filepath.Join(dir, name))
		require.NoError(t, err)
		defer f.Close()

		require.Equal(t, []string{"Revenue"}, f.GetSheetList())

		get := func(cell string) string {
			v, err := f.GetCellValue("Revenue", cell)
			require.NoError(t, err)
			return v
		}
		assert.Equal(t, "Year", get("A1"))
		assert.Equal(t, "USD", get("B1"))
		assert.Equal(t, "2023", get("A2"))
		assert.Equal(t, "100", get("B2"))
		assert.Equal(t, "2024", get("A3"))
		assert.Equal(t, "120", get("B3"))
	})

	t.Run("duplicate table names become distinct sheets", func(t *testing.T) {
		dir := t.TempDir()
		svc := NewService(dir, nil)

		tbl := llm.ExtractedTable{
			Name: "Revenue",
			Columns: []llm.Column{
				{Name: "Year", Values: []any{"2023"}},
			},
		}
		accepted := acceptedFrom(t, tbl, tbl)

		name, err := svc.WriteWorkbook(accepted, "deck.pdf")
		require.NoError(t, err)

		f, err := excelize.OpenFile(filepath.Join(dir, name))
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"Revenue", "Revenue 2"}, f.GetSheetList())
	})

	t.Run("empty input produces no file", func(t *testing.T) {
		dir := t.TempDir()
		svc := NewService(dir, nil)

		name, err := svc.WriteWorkbook(nil, "deck.pdf")
		require.NoError(t, err)
		assert.Empty(t, name)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("file names are unique per request", func(t *testing.T) {
		dir := t.TempDir()
		svc := NewService(dir, nil)
		accepted := acceptedFrom(t, llm.ExtractedTable{
			Name:    "T",
			Columns: []llm.Column{{Name: "A", Values: []any{"1"}}},
		})

		first, err := svc.WriteWorkbook(accepted, "deck.pdf")
		require.NoError(t, err)
		second, err := svc.WriteWorkbook(accepted, "deck.pdf")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("only the finished workbook remains in the export dir", func(t *testing.T) {
		dir := t.TempDir()
		svc := NewService(dir, nil)
		accepted := acceptedFrom(t, llm.ExtractedTable{
			Name:    "T",
			Columns: []llm.Column{{Name: "A", Values: []any{"1"}}},
		})
		name, err := svc.WriteWorkbook(accepted, "deck.pdf")
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1, "temp file left behind")
		assert.Equal(t, name, entries[0].Name())
	})
}

func TestWorkbookFileName(t *testing.T) {
	t.Run("sanitizes the source stem", func(t *testing.T) {
		name := workbookFileName("../we ird/Näme (final).pdf")
		assert.Regexp(t, `^[A-Za-z0-9._-]+\.xlsx$`, name)
	})

	t.Run("empty stem falls back", func(t *testing.T) {
		name := workbookFileName("...")
		assert.True(t, strings.HasPrefix(name, "tables-"))
	})
}
