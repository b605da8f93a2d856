// File path: internal/pipeline/progress.go
package pipeline

import (
	"log/slog"
	"sync"
	"time"
)

// Progress tracks completed units for reporting. The counters carry no
// correctness weight; they exist for logs and the status API.
type Progress struct {
	mu sync.Mutex

	started         time.Time
	extractionTotal int
	extractionCount int
	summaryTotal    int
	summaryCount    int
}

// ProgressSnapshot is the JSON shape served by the status API.
type ProgressSnapshot struct {
	Started         time.Time `json:"started"`
	ExtractionTotal int       `json:"extraction_total"`
	ExtractionDone  int       `json:"extraction_done"`
	SummaryTotal    int       `json:"summary_total"`
	SummaryDone     int       `json:"summary_done"`
}

func newProgress() *Progress {
	return &Progress{}
}

func (p *Progress) begin(extractionTotal, summaryTotal int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = time.Now()
	p.extractionTotal = extractionTotal
	p.summaryTotal = summaryTotal
	p.extractionCount = 0
	p.summaryCount = 0
}

func (p *Progress) extractionDone(logger *slog.Logger) {
	p.mu.Lock()
	p.extractionCount++
	done, total, rate, eta := p.rateLocked(p.extractionCount, p.extractionTotal)
	p.mu.Unlock()
	logger.Info("pipeline: extraction progress", "done", done, "total", total, "rate_per_s", rate, "eta", eta)
}

func (p *Progress) summaryDone(logger *slog.Logger) {
	p.mu.Lock()
	p.summaryCount++
	done, total, rate, eta := p.rateLocked(p.summaryCount, p.summaryTotal)
	p.mu.Unlock()
	logger.Info("pipeline: summary progress", "done", done, "total", total, "rate_per_s", rate, "eta", eta)
}

func (p *Progress) rateLocked(done, total int) (int, int, float64, time.Duration) {
	elapsed := time.Since(p.started)
	if elapsed <= 0 || done == 0 {
		return done, total, 0, 0
	}
	rate := float64(done) / elapsed.Seconds()
	eta := time.Duration(float64(total-done) / rate * float64(time.Second))
	return done, total, rate, eta
}

// Snapshot returns a copy of the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProgressSnapshot{
		Started:         p.started,
		ExtractionTotal: p.extractionTotal,
		ExtractionDone:  p.extractionCount,
		SummaryTotal:    p.summaryTotal,
		SummaryDone:     p.summaryCount,
	}
}
