// File path: internal/pipeline/stages.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/activitylens/lens/internal/capture"
	"github.com/activitylens/lens/internal/common/telemetry"
	"github.com/activitylens/lens/internal/retry"
	"github.com/activitylens/lens/internal/summarizer"
)

// processExtraction runs the OCR stage for one raw record. A false result
// with a nil error means the unit was skipped and stays eligible for a later
// run.
func (p *Pipeline) processExtraction(ctx context.Context, rec capture.Record) (capture.Record, bool, error) {
	imagePath := filepath.Join(p.cfg.CaptureDir, rec.ImageFile)
	if _, err := os.Stat(imagePath); err != nil {
		p.logger.Warn("pipeline: image artifact missing, skipping", "image", rec.ImageFile)
		return rec, false, nil
	}
	if !p.governor.Healthy() {
		p.logger.Warn("pipeline: skipping extraction under memory pressure", "image", rec.ImageFile)
		return rec, false, nil
	}

	text, err := retry.Do(ctx, p.retry, func() (string, error) {
		return p.engine.Extract(ctx, imagePath)
	})
	if err != nil {
		return rec, false, fmt.Errorf("extract %s: %w", rec.ImageFile, err)
	}
	text = strings.TrimSpace(text)

	textFile := textArtifactName(rec.ImageFile)
	textPath := filepath.Join(p.cfg.CaptureDir, textFile)
	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		return rec, false, fmt.Errorf("write text artifact %s: %w", textFile, err)
	}
	p.logger.Info("pipeline: extraction completed", "image", rec.ImageFile, "chars", len(text), "text", textFile)

	rec.TextFile = textFile
	p.progress.extractionDone(p.logger)
	return rec, true, nil
}

// textArtifactName substitutes the image extension with .txt to name the
// sibling text artifact.
func textArtifactName(imageFile string) string {
	return strings.TrimSuffix(imageFile, filepath.Ext(imageFile)) + ".txt"
}

// truncateRunes caps the text at max characters, never splitting a rune.
func truncateRunes(text string, max int) string {
	count := 0
	for i := range text {
		if count == max {
			return text[:i]
		}
		count++
	}
	return text
}

// processSummary runs the summarization stage for one extracted record.
// Concurrency is bounded by the counting semaphore independently of the pool
// size; the model service is the real bottleneck.
func (p *Pipeline) processSummary(ctx context.Context, rec capture.Record) (capture.Record, bool, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return rec, false, ctx.Err()
	}
	defer func() { <-p.sem }()

	textPath := filepath.Join(p.cfg.CaptureDir, rec.TextFile)
	if _, err := os.Stat(textPath); err != nil {
		p.logger.Warn("pipeline: text artifact missing, skipping", "text", rec.TextFile)
		return rec, false, nil
	}
	if !p.governor.Healthy() {
		p.logger.Warn("pipeline: skipping summarization under memory pressure", "text", rec.TextFile)
		return rec, false, nil
	}

	content, err := retry.Do(ctx, p.retry, func() (string, error) {
		data, readErr := os.ReadFile(textPath)
		if readErr != nil {
			return "", readErr
		}
		return strings.TrimSpace(string(data)), nil
	})
	if err != nil {
		return rec, false, fmt.Errorf("read text artifact %s: %w", rec.TextFile, err)
	}
	if content == "" {
		p.logger.Warn("pipeline: text artifact empty, skipping", "text", rec.TextFile)
		return rec, false, nil
	}
	if chars := utf8.RuneCountInString(content); chars > p.cfg.MaxTextChars {
		p.logger.Warn("pipeline: text too long, truncating", "text", rec.TextFile, "chars", chars, "cap", p.cfg.MaxTextChars)
		content = truncateRunes(content, p.cfg.MaxTextChars)
	}

	summary, err := p.summarize(ctx, content, rec.AppName, rec.WindowTitle)
	if err != nil {
		return rec, false, fmt.Errorf("summarize %s: %w", rec.TextFile, err)
	}
	if summary == "" {
		// Short or unsummarizable content: the cache remembers the decision
		// but the record stays formally pending.
		return rec, false, nil
	}

	rec.Summary = summary
	p.logger.Info("pipeline: summary completed", "text", rec.TextFile)
	p.progress.summaryDone(p.logger)
	return rec, true, nil
}

// summarize resolves a summary for the capped content: cache first, then the
// short-content shortcut, then the external model under the retry policy.
func (p *Pipeline) summarize(ctx context.Context, content, appName, windowTitle string) (string, error) {
	if cached, ok := p.cache.Get(content); ok {
		telemetry.RecordCacheLookup(true)
		p.logger.Debug("pipeline: using cached summary")
		return cached, nil
	}
	telemetry.RecordCacheLookup(false)

	if chars := utf8.RuneCountInString(content); chars < p.cfg.MinSummaryChars {
		telemetry.RecordShortCircuit()
		p.logger.Debug("pipeline: content too short to summarize", "chars", chars)
		if err := p.cache.Put(content, ""); err != nil {
			p.logger.Warn("pipeline: could not cache short-content decision", "error", err)
		}
		return "", nil
	}

	prompt := summarizer.BuildPrompt(p.template, appName, windowTitle, content)
	summary, err := retry.Do(ctx, p.retry, func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
		defer cancel()
		return p.provider.Summarize(callCtx, prompt)
	})
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if err := p.cache.Put(content, summary); err != nil {
		p.logger.Warn("pipeline: could not cache summary", "error", err)
	}
	return summary, nil
}
