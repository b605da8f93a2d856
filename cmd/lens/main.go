// File path: cmd/lens/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/activitylens/lens/internal/api"
	"github.com/activitylens/lens/internal/cache"
	"github.com/activitylens/lens/internal/capture"
	"github.com/activitylens/lens/internal/catalog"
	"github.com/activitylens/lens/internal/common"
	"github.com/activitylens/lens/internal/config"
	"github.com/activitylens/lens/internal/governor"
	"github.com/activitylens/lens/internal/ocr"
	"github.com/activitylens/lens/internal/pipeline"
	"github.com/activitylens/lens/internal/summarizer"
)

func main() {
	logger := common.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logger.Warn("lens: .env file not loaded", "error", err)
	} else {
		logger.Info("lens: environment loaded from .env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("lens: config load failed", "error", err)
		fmt.Println("config error:", err)
		os.Exit(1)
	}

	recordsPath := flag.String("records", cfg.RecordFile, "path to the capture record file")
	capturesDir := flag.String("captures", cfg.CaptureDir, "directory holding capture artifacts")
	cachePath := flag.String("cache", cfg.CacheFile, "path to the summary cache file")
	catalogPath := flag.String("catalog", cfg.CatalogPath, "path to the SQLite run catalog (empty disables run history)")
	addr := flag.String("addr", cfg.APIAddr, "status API listen address (empty disables the API)")
	workers := flag.Int("workers", cfg.OCRWorkers, "extraction worker count")
	batch := flag.Int("batch", cfg.BatchSize, "units per batch")
	flag.Parse()

	if trimmed := strings.TrimSpace(*recordsPath); trimmed != "" {
		cfg.RecordFile = trimmed
	}
	if trimmed := strings.TrimSpace(*capturesDir); trimmed != "" {
		cfg.CaptureDir = trimmed
	}
	if trimmed := strings.TrimSpace(*cachePath); trimmed != "" {
		cfg.CacheFile = trimmed
	}
	cfg.CatalogPath = strings.TrimSpace(*catalogPath)
	cfg.APIAddr = strings.TrimSpace(*addr)
	if *workers > 0 {
		cfg.OCRWorkers = *workers
	}
	if *batch > 0 {
		cfg.BatchSize = *batch
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("lens: invalid configuration", "error", err)
		fmt.Println("config error:", err)
		os.Exit(1)
	}

	logger.Info("lens: startup initiated",
		"records", cfg.RecordFile, "captures", cfg.CaptureDir,
		"workers", cfg.OCRWorkers, "batch", cfg.BatchSize)

	store, err := capture.NewStore(cfg.RecordFile)
	if err != nil {
		logger.Error("lens: record store init failed", "error", err)
		fmt.Println("store error:", err)
		os.Exit(1)
	}
	summaryCache, err := cache.New(cfg.CacheFile)
	if err != nil {
		logger.Error("lens: summary cache init failed", "error", err)
		fmt.Println("cache error:", err)
		os.Exit(1)
	}

	engine := ocr.NewTesseract(cfg.TesseractBin, cfg.OCRPageSegMode, cfg.OCREngineMode, cfg.OCRDPI)
	provider := summarizer.NewProvider(cfg)
	logger.Info("lens: summarizer provider ready", "provider", provider.Name())

	var runCatalog *catalog.Store
	if cfg.CatalogPath != "" {
		runCatalog, err = catalog.Open(cfg.CatalogPath)
		if err != nil {
			logger.Warn("lens: run catalog unavailable", "path", cfg.CatalogPath, "error", err)
			runCatalog = nil
		} else {
			defer runCatalog.Close()
		}
	}

	pipe, err := pipeline.New(cfg, pipeline.Deps{
		Store:    store,
		Cache:    summaryCache,
		Engine:   engine,
		Provider: provider,
		Governor: governor.New(),
	})
	if err != nil {
		logger.Error("lens: pipeline init failed", "error", err)
		fmt.Println("pipeline error:", err)
		os.Exit(1)
	}

	if cfg.APIAddr != "" {
		server := api.NewServer(store, pipe.Progress().Snapshot, runCatalog)
		httpServer := &http.Server{Addr: cfg.APIAddr, Handler: server}
		go func() {
			logger.Info("lens: status api listening", "addr", cfg.APIAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("lens: status api failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DiscoveryTimeout)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
	}

	report, runErr := pipe.Run(ctx)
	if runCatalog != nil {
		failures := make([]catalog.Failure, 0, len(report.Failures))
		for _, failure := range report.Failures {
			failures = append(failures, catalog.Failure{
				Stage:    failure.Stage,
				Artifact: failure.Artifact,
				Message:  failure.Message,
			})
		}
		run := catalog.Run{
			StartedAt:            report.Started,
			FinishedAt:           report.Finished,
			ExtractionsAttempted: report.ExtractionsAttempted,
			ExtractionsCompleted: report.ExtractionsCompleted,
			SummariesAttempted:   report.SummariesAttempted,
			SummariesCompleted:   report.SummariesCompleted,
		}
		if _, err := runCatalog.RecordRun(context.Background(), run, failures); err != nil {
			logger.Warn("lens: run history not recorded", "error", err)
		}
	}
	if runErr != nil {
		logger.Error("lens: pipeline run failed", "error", runErr)
		fmt.Println("pipeline error:", runErr)
		os.Exit(1)
	}

	logger.Info("lens: run complete",
		"extractions", fmt.Sprintf("%d/%d", report.ExtractionsCompleted, report.ExtractionsAttempted),
		"summaries", fmt.Sprintf("%d/%d", report.SummariesCompleted, report.SummariesAttempted),
		"failures", len(report.Failures))
}
