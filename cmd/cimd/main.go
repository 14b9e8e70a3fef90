package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/cim-tables/internal/common"
	"github.com/joseph-ayodele/cim-tables/internal/export"
	"github.com/joseph-ayodele/cim-tables/internal/llm/openai"
	"github.com/joseph-ayodele/cim-tables/internal/pipeline"
	"github.com/joseph-ayodele/cim-tables/internal/repository"
	"github.com/joseph-ayodele/cim-tables/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	// Job history is best-effort: the extractor still works without it.
	var jobs *repository.JobRepository
	if cfg.Jobs.DBPath != "" {
		var err error
		jobs, err = repository.Open(cfg.Jobs.DBPath, logger)
		if err != nil {
			logger.Warn("jobs store unavailable, continuing without history", "error", err)
			jobs = nil
		} else {
			defer func() {
				if err := jobs.Close(); err != nil {
					logger.Warn("jobs store close error", "error", err)
				}
			}()
		}
	}

	extractor := openai.NewClient(openai.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Timeout:         cfg.LLM.Timeout,
	}, logger)

	exporter := export.NewService(cfg.Export.Dir, logger)

	var recorder pipeline.JobRecorder
	if jobs != nil {
		recorder = jobs
	}
	pipe := pipeline.New(pipeline.Config{RequireTables: cfg.LLM.RequireTables},
		extractor, exporter, recorder, logger)

	var lister server.JobLister
	if jobs != nil {
		lister = jobs
	}
	srv := server.New(pipe, lister, cfg.Export.Dir, cfg.Server.MaxUploadMB, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", cfg.Server.Addr, "export_dir", cfg.Export.Dir)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("server.shutdown", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Error("server.shutdown_error", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server.failed", "error", err)
			os.Exit(1)
		}
	}
}
