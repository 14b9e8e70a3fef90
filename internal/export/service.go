// Package export renders accepted tables into a single XLSX workbook, one
// sheet per table, and places the file under a caller-servable directory.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cim-tables/internal/tabular"
)

// Service writes XLSX workbooks for extraction results.
type Service struct {
	dir    string
	logger *slog.Logger
}

func NewService(dir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{dir: dir, logger: logger}
}

// Dir returns the directory workbooks are written to.
func (s *Service) Dir() string { return s.dir }

// WriteWorkbook builds one workbook containing one sheet per accepted table
// and returns the generated file name (relative to Dir). The caller exposes
// it for download. An empty input produces no file and returns "", which is
// absence, not an error. The workbook is written to a temp file and renamed into
// place so a failed write never exposes a partial file.
func (s *Service) WriteWorkbook(accepted []tabular.AcceptedTable, sourceName string) (string, error) {
	if len(accepted) == 0 {
		return "", nil
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()

	namer := NewUniqueSheetNamer()
	for i, tbl := range accepted {
		sheet := namer.Name(tbl.Name)
		if i == 0 {
			// excelize seeds every workbook with "Sheet1"; reuse it.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return "", fmt.Errorf("new sheet %q: %w", sheet, err)
			}
		}
		if err := writeSheet(f, sheet, tbl.Structure); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}
	name := workbookFileName(sourceName)
	path := filepath.Join(s.dir, name)

	// The temp name deliberately lacks the .xlsx suffix so a stray temp can
	// never be served as a workbook; excelize.Write does not inspect the name.
	tmp, err := os.CreateTemp(s.dir, ".wip-*")
	if err != nil {
		return "", fmt.Errorf("export temp file: %w", err)
	}
	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("xlsx write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("xlsx flush: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("xlsx place: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"file", name,
		"sheets", len(accepted),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return name, nil
}

// writeSheet lays out header row + data rows, preserving column and row
// order. JSON numbers become numeric cells; null cells stay empty.
func writeSheet(f *excelize.File, sheet string, ts *tabular.TabularStructure) error {
	for i, col := range ts.Columns() {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("set header %q: %w", col, err)
		}
	}

	for r, row := range ts.Rows() {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	// Widen columns a little so headers stay readable.
	if n := len(ts.Columns()); n > 0 {
		last, err := excelize.ColumnNumberToName(n)
		if err == nil {
			_ = f.SetColWidth(sheet, "A", last, 18)
		}
	}
	return nil
}

// cellValue maps a decoded scalar onto the value handed to excelize.
// json.Number becomes int64/float64 so spreadsheets treat it as numeric.
func cellValue(v any) any {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}

var unsafeFileRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// workbookFileName derives a per-request unique file name from the source
// document's name: sanitized stem + a UUID, so concurrent requests never
// collide in the shared export directory.
func workbookFileName(sourceName string) string {
	stem := strings.TrimSuffix(filepath.Base(sourceName), filepath.Ext(sourceName))
	stem = unsafeFileRe.ReplaceAllString(stem, "_")
	stem = strings.Trim(stem, "._-")
	if stem == "" {
		stem = "tables"
	}
	if len(stem) > 64 {
		stem = stem[:64]
	}
	return stem + "-" + uuid.New().String() + ".xlsx"
}
