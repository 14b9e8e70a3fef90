// Package pipeline runs one extraction request end to end: recognize the
// document, call the model, validate and normalize the tables, render HTML,
// and write the workbook. Everything is request-scoped; nothing is shared
// between requests beyond the export directory.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/cim-tables/internal/common"
	"github.com/joseph-ayodele/cim-tables/internal/export"
	"github.com/joseph-ayodele/cim-tables/internal/ingest"
	"github.com/joseph-ayodele/cim-tables/internal/llm"
	"github.com/joseph-ayodele/cim-tables/internal/render"
	"github.com/joseph-ayodele/cim-tables/internal/tabular"
)

// RenderedTable pairs a table name with its rendered HTML string.
type RenderedTable struct {
	Name string `json:"name"`
	HTML string `json:"html"`
}

// Result is what one successful request produces. WorkbookFile is empty when
// zero tables were accepted; that is absence, not an error.
type Result struct {
	JobID        uuid.UUID
	Tables       []RenderedTable
	Skipped      []tabular.SkippedTable
	WorkbookFile string
	PageCount    int
}

// JobRecorder is the optional extraction-history sink. Recording is
// best-effort: a recorder failure never fails the request.
type JobRecorder interface {
	Create(ctx context.Context, filename string) (uuid.UUID, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	MarkExtracted(ctx context.Context, id uuid.UUID, accepted, skipped int, workbookFile string) error
}

// Config holds pipeline policy knobs.
type Config struct {
	// RequireTables fails the request when zero tables survive validation.
	RequireTables bool
}

// Pipeline wires the extractor, renderers, and job history together.
type Pipeline struct {
	cfg       Config
	extractor llm.TableExtractor
	exporter  *export.Service
	jobs      JobRecorder
	logger    *slog.Logger
}

func New(cfg Config, extractor llm.TableExtractor, exporter *export.Service, jobs JobRecorder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		exporter:  exporter,
		jobs:      jobs,
		logger:    logger,
	}
}

// Process runs the whole chain for one uploaded document. Error categories:
// INPUT_REJECTED for bad documents and model refusals (detected before or at
// the model boundary, no partial output), SCHEMA_VIOLATION / UPSTREAM_FAILURE /
// RENDER_FAILURE for processing failures. Per-table row-length mismatches are
// not errors; those tables are skipped and reported in Result.Skipped.
func (p *Pipeline) Process(ctx context.Context, filename string, content []byte) (*Result, error) {
	start := time.Now()
	p.logger.Info("extract.start", "filename", filename, "bytes", len(content))

	// Document recognition happens before the model call so malformed input
	// never spends an API request.
	info, err := ingest.RecognizePDF(content)
	if err != nil {
		p.logger.Warn("extract.rejected", "filename", filename, "error", err)
		return nil, err
	}

	jobID := p.recordCreate(ctx, filename)

	result, err := p.run(ctx, jobID, filename, content, info)
	if err != nil {
		p.recordFailed(ctx, jobID, err)
		return nil, err
	}
	result.JobID = jobID
	p.recordExtracted(ctx, jobID, result)

	p.logger.Info("extract.ok",
		"filename", filename,
		"job_id", jobID,
		"tables", len(result.Tables),
		"skipped", len(result.Skipped),
		"workbook", result.WorkbookFile,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, jobID uuid.UUID, filename string, content []byte, info *ingest.DocumentInfo) (*Result, error) {
	p.recordRunning(ctx, jobID)

	extraction, _, err := p.extractor.ExtractTables(ctx, llm.Document{Filename: filename, Content: content})
	if err != nil {
		return nil, mapExtractorError(err)
	}

	accepted, skipped := tabular.Normalize(extraction, p.logger)
	if len(accepted) == 0 && p.cfg.RequireTables {
		return nil, common.NewAppError(common.CodeSchemaViolation,
			"no valid tables in document", common.ErrSchemaViolation)
	}

	tables := make([]RenderedTable, 0, len(accepted))
	for _, tbl := range accepted {
		html, err := render.HTMLTable(tbl.Name, tbl.Structure)
		if err != nil {
			return nil, common.NewAppError(common.CodeRenderFailure,
				fmt.Sprintf("render table %q", tbl.Name), fmt.Errorf("%w: %w", common.ErrRenderFailure, err))
		}
		tables = append(tables, RenderedTable{Name: tbl.Name, HTML: html})
	}

	workbook := ""
	if len(accepted) > 0 {
		workbook, err = p.exporter.WriteWorkbook(accepted, filename)
		if err != nil {
			return nil, common.NewAppError(common.CodeRenderFailure,
				"write workbook", fmt.Errorf("%w: %w", common.ErrRenderFailure, err))
		}
	}

	return &Result{
		Tables:       tables,
		Skipped:      skipped,
		WorkbookFile: workbook,
		PageCount:    info.PageCount,
	}, nil
}

// mapExtractorError translates AIError kinds onto the caller-facing taxonomy:
// refusals are rejections; malformed responses are schema violations; wire
// failures are upstream failures. None of them are retried here.
func mapExtractorError(err error) error {
	switch llm.KindOf(err) {
	case llm.AIRefused:
		return common.NewAppError(common.CodeInputRejected, "model declined to process document",
			fmt.Errorf("%w: %w", common.ErrInputRejected, err))
	case llm.AIMalformed:
		return common.NewAppError(common.CodeSchemaViolation, "model response violates extraction schema",
			fmt.Errorf("%w: %w", common.ErrSchemaViolation, err))
	case llm.AITransport:
		return common.NewAppError(common.CodeUpstreamFailure, "model service unavailable",
			fmt.Errorf("%w: %w", common.ErrUpstream, err))
	default:
		return common.NewAppError(common.CodeInternal, "extraction failed", err)
	}
}

// --- best-effort job history

func (p *Pipeline) recordCreate(ctx context.Context, filename string) uuid.UUID {
	if p.jobs == nil {
		return uuid.Nil
	}
	id, err := p.jobs.Create(ctx, filename)
	if err != nil {
		p.logger.Warn("jobs.record_create_failed", "error", err)
		return uuid.Nil
	}
	return id
}

func (p *Pipeline) recordRunning(ctx context.Context, id uuid.UUID) {
	if p.jobs == nil || id == uuid.Nil {
		return
	}
	if err := p.jobs.MarkRunning(ctx, id); err != nil {
		p.logger.Warn("jobs.record_running_failed", "error", err)
	}
}

func (p *Pipeline) recordFailed(ctx context.Context, id uuid.UUID, cause error) {
	if p.jobs == nil || id == uuid.Nil {
		return
	}
	if err := p.jobs.MarkFailed(ctx, id, cause.Error()); err != nil {
		p.logger.Warn("jobs.record_failed_failed", "error", err)
	}
}

func (p *Pipeline) recordExtracted(ctx context.Context, id uuid.UUID, r *Result) {
	if p.jobs == nil || id == uuid.Nil {
		return
	}
	if err := p.jobs.MarkExtracted(ctx, id, len(r.Tables), len(r.Skipped), r.WorkbookFile); err != nil {
		p.logger.Warn("jobs.record_extracted_failed", "error", err)
	}
}
