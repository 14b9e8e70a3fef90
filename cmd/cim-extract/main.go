// cim-extract runs the extraction pipeline once against a local PDF and
// writes the rendered HTML plus the workbook next to it. Debug tool; the
// daemon in cmd/cimd is the real ingress.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/cim-tables/internal/common"
	"github.com/joseph-ayodele/cim-tables/internal/export"
	"github.com/joseph-ayodele/cim-tables/internal/llm/openai"
	"github.com/joseph-ayodele/cim-tables/internal/pipeline"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: cim-extract <document.pdf> [out_dir]")
		os.Exit(2)
	}
	path := os.Args[1]
	outDir := "."
	if len(os.Args) >= 3 {
		outDir = os.Args[2]
	}

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		logger.Error("OPENAI_API_KEY env var is required")
		os.Exit(2)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read document", "path", path, "error", err)
		os.Exit(1)
	}

	extractor := openai.NewClient(openai.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Timeout:         cfg.LLM.Timeout,
	}, logger)
	exporter := export.NewService(outDir, logger)
	pipe := pipeline.New(pipeline.Config{}, extractor, exporter, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := pipe.Process(ctx, filepath.Base(path), content)
	if err != nil {
		logger.Error("extract failed", "path", path, "error", err)
		os.Exit(1)
	}

	var b strings.Builder
	for _, tbl := range result.Tables {
		b.WriteString(tbl.HTML)
		b.WriteString("\n")
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	htmlOut := filepath.Join(outDir, stem+".tables.html")
	if err := os.WriteFile(htmlOut, []byte(b.String()), 0o644); err != nil {
		logger.Error("write html", "path", htmlOut, "error", err)
		os.Exit(1)
	}

	logger.Info("extract done",
		"tables", len(result.Tables),
		"skipped", len(result.Skipped),
		"html", htmlOut,
		"workbook", result.WorkbookFile,
	)
}
