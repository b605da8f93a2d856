// File path: internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/activitylens/lens/internal/capture"
	"github.com/activitylens/lens/internal/cache"
	"github.com/activitylens/lens/internal/common"
	"github.com/activitylens/lens/internal/common/telemetry"
	"github.com/activitylens/lens/internal/config"
	"github.com/activitylens/lens/internal/governor"
	"github.com/activitylens/lens/internal/ocr"
	"github.com/activitylens/lens/internal/retry"
	"github.com/activitylens/lens/internal/summarizer"
)

const (
	stageExtraction = "extraction"
	stageSummary    = "summary"
)

// Deps are the collaborators a pipeline is wired with.
type Deps struct {
	Store    *capture.Store
	Cache    *cache.Cache
	Engine   ocr.Engine
	Provider summarizer.Provider
	Governor *governor.Governor
}

// Pipeline drives the two enrichment stages over the record store. All
// shared state (the summarization semaphore, the retry policy, the progress
// counters) lives here rather than in package globals, so pipelines are
// instantiable in isolation.
type Pipeline struct {
	cfg      config.Config
	store    *capture.Store
	cache    *cache.Cache
	engine   ocr.Engine
	provider summarizer.Provider
	governor *governor.Governor
	logger   *slog.Logger

	retry    retry.Policy
	sem      chan struct{}
	template string
	progress *Progress
}

// UnitFailure describes one record's stage failure after retries; failures
// never abort a batch or the run.
type UnitFailure struct {
	Stage    string
	Artifact string
	Message  string
}

// Report summarizes one pipeline run.
type Report struct {
	Started  time.Time
	Finished time.Time

	ExtractionsAttempted int
	ExtractionsCompleted int
	SummariesAttempted   int
	SummariesCompleted   int

	Failures []UnitFailure
}

func New(cfg config.Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Store == nil {
		return nil, errors.New("record store required")
	}
	if deps.Cache == nil {
		return nil, errors.New("summary cache required")
	}
	if deps.Engine == nil {
		return nil, errors.New("extraction engine required")
	}
	return &Pipeline{
		cfg:      cfg,
		store:    deps.Store,
		cache:    deps.Cache,
		engine:   deps.Engine,
		provider: deps.Provider,
		governor: deps.Governor,
		logger:   common.Logger(),
		retry:    retry.Policy{Attempts: cfg.RetryAttempts, Base: cfg.RetryBase},
		sem:      make(chan struct{}, cfg.SummaryWorkers()),
		template: summarizer.LoadTemplate(cfg.PromptFile),
		progress: newProgress(),
	}, nil
}

// Progress exposes the live counters for the status API.
func (p *Pipeline) Progress() *Progress {
	return p.progress
}

// Run computes the pending work for each stage and drives it through the
// worker pools. Extraction batches fully drain before summarization begins,
// so a freshly extracted record becomes summarization-eligible on the next
// run. The returned error is non-nil only for startup failures; per-unit
// failures are contained and reported.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report := Report{Started: time.Now()}

	records, err := p.store.Load()
	if err != nil {
		return report, err
	}
	p.logger.Info("pipeline: summary cache loaded", "entries", p.cache.Size())

	var needExtraction, needSummary []capture.Record
	for _, rec := range records {
		if rec.NeedsExtraction() {
			needExtraction = append(needExtraction, rec)
		}
		if rec.NeedsSummary() {
			needSummary = append(needSummary, rec)
		}
	}
	if len(needExtraction) == 0 && len(needSummary) == 0 {
		p.logger.Info("pipeline: nothing to do", "records", len(records))
		report.Finished = time.Now()
		return report, nil
	}
	p.logger.Info("pipeline: pending work computed",
		"records", len(records),
		"extractions", len(needExtraction),
		"summaries", len(needSummary),
		"ocr_workers", p.cfg.OCRWorkers,
		"summary_workers", p.cfg.SummaryWorkers(),
		"batch_size", p.cfg.BatchSize,
	)

	// One-time model discovery; a missing model disables summarization for
	// this run, never extraction.
	model := ""
	if len(needSummary) > 0 && p.provider != nil {
		model, err = p.provider.Discover(ctx)
		if err != nil {
			p.logger.Warn("pipeline: model discovery failed", "error", err)
			model = ""
		}
	}
	if len(needSummary) > 0 && model == "" {
		p.logger.Warn("pipeline: no summarization model available, stage disabled for this run")
	}

	p.progress.begin(len(needExtraction), len(needSummary))

	if len(needExtraction) > 0 {
		report.ExtractionsAttempted = len(needExtraction)
		report.ExtractionsCompleted = p.runStage(ctx, &report, stageExtraction, needExtraction, p.cfg.OCRWorkers, p.cfg.ExtractionCooldown, p.processExtraction)
	}
	if model != "" && len(needSummary) > 0 {
		report.SummariesAttempted = len(needSummary)
		report.SummariesCompleted = p.runStage(ctx, &report, stageSummary, needSummary, p.cfg.SummaryWorkers(), p.cfg.SummaryCooldown, p.processSummary)
	}

	report.Finished = time.Now()
	p.logger.Info("pipeline: run complete",
		"duration", report.Finished.Sub(report.Started),
		"extracted", report.ExtractionsCompleted, "of", report.ExtractionsAttempted,
		"summarized", report.SummariesCompleted, "attempted", report.SummariesAttempted,
		"failures", len(report.Failures),
	)
	return report, nil
}

type stageFunc func(context.Context, capture.Record) (capture.Record, bool, error)

func (p *Pipeline) runStage(ctx context.Context, report *Report, stage string, units []capture.Record, workers int, cooldown time.Duration, fn stageFunc) int {
	completed := 0
	batchSize := p.cfg.BatchSize
	batches := (len(units) + batchSize - 1) / batchSize
	for start := 0; start < len(units); start += batchSize {
		end := start + batchSize
		if end > len(units) {
			end = len(units)
		}
		batch := units[start:end]
		p.logger.Info("pipeline: starting batch", "stage", stage, "batch", start/batchSize+1, "of", batches, "units", len(batch))
		if !p.governor.Healthy() {
			p.logger.Warn("pipeline: memory pressure, pausing before batch", "stage", stage)
			sleepCtx(ctx, p.cfg.UnhealthyPause)
		}
		completed += p.runBatch(ctx, report, stage, batch, workers, fn)
		if end < len(units) {
			sleepCtx(ctx, cooldown)
		}
	}
	return completed
}

type unitResult struct {
	record capture.Record
	ok     bool
	err    error
}

// runBatch submits a batch to a bounded worker pool and consumes results in
// completion order. Every finished unit, successful or not, is checkpointed
// immediately so a crash loses at most the in-flight units.
func (p *Pipeline) runBatch(ctx context.Context, report *Report, stage string, batch []capture.Record, workers int, fn stageFunc) int {
	if workers > len(batch) {
		workers = len(batch)
	}
	jobCh := make(chan capture.Record)
	results := make(chan unitResult, len(batch))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobCh {
				select {
				case <-ctx.Done():
					results <- unitResult{record: rec, err: ctx.Err()}
					continue
				default:
				}
				updated, ok, err := fn(ctx, rec)
				results <- unitResult{record: updated, ok: ok, err: err}
			}
		}()
	}
	go func() {
		for _, rec := range batch {
			jobCh <- rec
		}
		close(jobCh)
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		if err := p.store.Checkpoint(res.record); err != nil {
			p.logger.Warn("pipeline: checkpoint failed, progress may not survive a restart", "error", err)
		}
		switch {
		case res.err != nil:
			p.logger.Warn("pipeline: unit failed", "stage", stage, "artifact", res.record.DisplayName(), "error", res.err)
			report.Failures = append(report.Failures, UnitFailure{Stage: stage, Artifact: res.record.DisplayName(), Message: res.err.Error()})
		case !res.ok:
			p.logger.Info("pipeline: unit skipped", "stage", stage, "artifact", res.record.DisplayName())
		default:
			completed++
		}
		if stage == stageExtraction {
			telemetry.RecordExtraction(res.err == nil)
		} else {
			telemetry.RecordSummary(res.err == nil)
		}
	}
	return completed
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
