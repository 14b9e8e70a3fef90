// Package server exposes the extraction pipeline over HTTP: a static upload
// page, the extraction endpoint, workbook downloads, and job history.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/cim-tables/constants"
	"github.com/joseph-ayodele/cim-tables/internal/common"
	"github.com/joseph-ayodele/cim-tables/internal/pipeline"
	"github.com/joseph-ayodele/cim-tables/internal/repository"
)

//go:embed static
var staticFS embed.FS

// Processor is the request pipeline the server drives.
type Processor interface {
	Process(ctx context.Context, filename string, content []byte) (*pipeline.Result, error)
}

// JobLister exposes extraction history. Optional.
type JobLister interface {
	ListRecent(ctx context.Context, limit int) ([]*repository.ExtractJob, error)
}

// Server holds the HTTP handlers.
type Server struct {
	proc        Processor
	jobs        JobLister
	exportDir   string
	maxUploadMB int
	logger      *slog.Logger
}

func New(proc Processor, jobs JobLister, exportDir string, maxUploadMB int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadMB <= 0 {
		maxUploadMB = constants.MaxUploadMBDefault
	}
	return &Server{
		proc:        proc,
		jobs:        jobs,
		exportDir:   exportDir,
		maxUploadMB: maxUploadMB,
		logger:      logger,
	}
}

// Router builds the chi router for the service.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Post("/extract_financials", s.handleExtract)
	r.Get("/downloads/{name}", s.handleDownload)
	r.Get("/jobs", s.handleJobs)
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		s.logger.Error("server.index_missing", "error", err)
		http.Error(w, "frontend file not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// extractResponse is the ingress payload: an ordered list of rendered HTML
// tables plus an optional workbook locator (absent when no tables survived).
type extractResponse struct {
	JobID       string                   `json:"job_id,omitempty"`
	PageCount   int                      `json:"page_count"`
	Tables      []pipeline.RenderedTable `json:"tables"`
	Skipped     []skippedEntry           `json:"skipped,omitempty"`
	WorkbookURL string                   `json:"workbook_url,omitempty"`
}

type skippedEntry struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, int64(s.maxUploadMB)<<20)
	if err := r.ParseMultipartForm(int64(s.maxUploadMB) << 20); err != nil {
		s.writeError(w, common.Rejected("multipart form too large or malformed", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, common.Rejected("missing file field", err))
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warn("server.upload_close_error", "error", err)
		}
	}()

	// Extension and content-type are checked up front as cheap gates; the
	// pipeline still sniffs the bytes before any model call. A missing
	// extension is only a missing hint and falls through to the sniff.
	rejectMsg := "unsupported file type, accepted: " + strings.Join(constants.FileTypes, ", ")
	if ext := constants.NormalizeExt(filepath.Ext(header.Filename)); ext != "" {
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			s.logger.Warn("server.invalid_extension", "ext", ext, "filename", header.Filename)
			s.writeError(w, common.Rejected(rejectMsg, nil))
			return
		}
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != constants.PDFContentType {
		s.logger.Warn("server.invalid_content_type", "content_type", ct, "filename", header.Filename)
		s.writeError(w, common.Rejected(rejectMsg, nil))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, common.NewAppError(common.CodeInternal, "read upload", err))
		return
	}

	result, err := s.proc.Process(r.Context(), header.Filename, content)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := extractResponse{
		PageCount: result.PageCount,
		Tables:    result.Tables,
	}
	if result.JobID != uuid.Nil {
		resp.JobID = result.JobID.String()
	}
	for _, sk := range result.Skipped {
		resp.Skipped = append(resp.Skipped, skippedEntry{Name: sk.Name, Reason: sk.Reason})
	}
	if result.Tables == nil {
		resp.Tables = []pipeline.RenderedTable{}
	}
	if result.WorkbookFile != "" {
		resp.WorkbookURL = "/downloads/" + result.WorkbookFile
	}

	s.logger.Info("server.extract.ok",
		"filename", header.Filename,
		"tables", len(resp.Tables),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, resp)
}

var downloadNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+\.xlsx$`)

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !downloadNameRe.MatchString(name) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, filepath.Join(s.exportDir, name))
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeJSON(w, http.StatusOK, map[string]any{"jobs": []any{}})
		return
	}
	jobs, err := s.jobs.ListRecent(r.Context(), 50)
	if err != nil {
		s.writeError(w, common.NewAppError(common.CodeInternal, "list jobs", err))
		return
	}
	type jobEntry struct {
		ID             string `json:"id"`
		Filename       string `json:"filename"`
		Status         string `json:"status"`
		TablesAccepted int    `json:"tables_accepted"`
		TablesSkipped  int    `json:"tables_skipped"`
		WorkbookFile   string `json:"workbook_file,omitempty"`
		Error          string `json:"error,omitempty"`
		CreatedAt      string `json:"created_at"`
	}
	out := make([]jobEntry, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobEntry{
			ID:             j.ID.String(),
			Filename:       j.Filename,
			Status:         string(j.Status),
			TablesAccepted: j.TablesAccepted,
			TablesSkipped:  j.TablesSkipped,
			WorkbookFile:   j.WorkbookFile,
			Error:          j.Error,
			CreatedAt:      j.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
}

// writeError maps the error taxonomy onto HTTP: rejections are 4xx, upstream
// transport failures are 502, everything else is 500. The stable code rides
// along so clients can distinguish categories without parsing messages.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := common.CodeOf(err)
	status := http.StatusInternalServerError
	switch {
	case common.IsRejection(err):
		status = http.StatusBadRequest
	case code == common.CodeUpstreamFailure:
		status = http.StatusBadGateway
	}

	msg := "processing failed"
	var ae *common.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	s.logger.Error("server.request_failed", "code", code, "status", status, "error", err)
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
