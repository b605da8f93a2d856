// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"expvar"
	"sync"
)

var (
	initOnce sync.Once

	extractionsTotal   *expvar.Int
	extractionFailures *expvar.Int
	summariesTotal     *expvar.Int
	summaryFailures    *expvar.Int

	cacheHits        *expvar.Int
	cacheMisses      *expvar.Int
	shortCircuits    *expvar.Int
	retriesTotal     *expvar.Int
	checkpointsTotal *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		extractionsTotal = expvar.NewInt("lens_extractions_total")
		extractionFailures = expvar.NewInt("lens_extraction_failures_total")
		summariesTotal = expvar.NewInt("lens_summaries_total")
		summaryFailures = expvar.NewInt("lens_summary_failures_total")

		cacheHits = expvar.NewInt("lens_summary_cache_hits_total")
		cacheMisses = expvar.NewInt("lens_summary_cache_misses_total")
		shortCircuits = expvar.NewInt("lens_summary_short_circuits_total")
		retriesTotal = expvar.NewInt("lens_retries_total")
		checkpointsTotal = expvar.NewInt("lens_checkpoints_total")
	})
}

// RecordExtraction counts one finished extraction unit.
func RecordExtraction(ok bool) {
	ensureInit()
	extractionsTotal.Add(1)
	if !ok {
		extractionFailures.Add(1)
	}
}

// RecordSummary counts one finished summarization unit.
func RecordSummary(ok bool) {
	ensureInit()
	summariesTotal.Add(1)
	if !ok {
		summaryFailures.Add(1)
	}
}

// RecordCacheLookup counts a summary cache probe.
func RecordCacheLookup(hit bool) {
	ensureInit()
	if hit {
		cacheHits.Add(1)
	} else {
		cacheMisses.Add(1)
	}
}

// RecordShortCircuit counts a summarization skipped by the short-content
// policy.
func RecordShortCircuit() {
	ensureInit()
	shortCircuits.Add(1)
}

// RecordRetry counts one re-invocation performed by the retry policy.
func RecordRetry() {
	ensureInit()
	retriesTotal.Add(1)
}

// RecordCheckpoint counts one durable record-store write.
func RecordCheckpoint() {
	ensureInit()
	checkpointsTotal.Add(1)
}
