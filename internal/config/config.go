// File path: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config controls a pipeline run. Values come from defaults, then the
// environment, then command-line flags.
type Config struct {
	// CaptureDir holds the screenshot images and their text artifacts.
	CaptureDir string
	// RecordFile is the durable JSON collection of capture records.
	RecordFile string
	// CacheFile is the durable fingerprint -> summary map.
	CacheFile string
	// PromptFile is the summarization prompt template; a built-in template
	// is used when the file is absent.
	PromptFile string
	// CatalogPath is the SQLite run-history database; empty disables it.
	CatalogPath string
	// APIAddr is the status server listen address; empty disables it.
	APIAddr string

	// OCRWorkers bounds the extraction pool. Summarization workers are
	// derived from it, see SummaryWorkers.
	OCRWorkers int
	// BatchSize is the number of units driven through a pool at once.
	BatchSize int

	TesseractBin   string
	OCRPageSegMode int
	OCREngineMode  int
	OCRDPI         int

	OllamaURL        string
	RequestTimeout   time.Duration
	DiscoveryTimeout time.Duration
	NumCtx           int
	NumPredict       int

	// MaxTextChars caps the text submitted to the model; longer content is
	// truncated to bound prompt size.
	MaxTextChars int
	// MinSummaryChars is the short-content threshold: anything below it is
	// cached as an empty summary without a model call.
	MinSummaryChars int

	RetryAttempts int
	RetryBase     time.Duration

	// UnhealthyPause is how long the scheduler waits between batches when
	// the governor reports memory pressure.
	UnhealthyPause     time.Duration
	ExtractionCooldown time.Duration
	SummaryCooldown    time.Duration
}

// DefaultConfig returns the baseline configuration used when no overrides
// are supplied.
func DefaultConfig() Config {
	dataDir := defaultDataDir()
	return Config{
		CaptureDir:  filepath.Join(dataDir, "screen-captures"),
		RecordFile:  filepath.Join(dataDir, "screen_captures_ocr.json"),
		CacheFile:   filepath.Join(dataDir, "summary_cache.json"),
		PromptFile:  filepath.Join(dataDir, "summarize_screen_text_prompt.txt"),
		CatalogPath: filepath.Join(dataDir, "runs.db"),

		OCRWorkers: defaultOCRWorkers(),
		BatchSize:  10,

		TesseractBin:   "tesseract",
		OCRPageSegMode: 6,
		OCREngineMode:  3,
		OCRDPI:         600,

		OllamaURL:        "http://localhost:11434",
		RequestTimeout:   60 * time.Second,
		DiscoveryTimeout: 5 * time.Second,
		NumCtx:           16384,
		NumPredict:       100,

		MaxTextChars:    15000,
		MinSummaryChars: 100,

		RetryAttempts: 3,
		RetryBase:     time.Second,

		UnhealthyPause:     5 * time.Second,
		ExtractionCooldown: time.Second,
		SummaryCooldown:    2 * time.Second,
	}
}

func defaultDataDir() string {
	if root, err := os.UserCacheDir(); err == nil && root != "" {
		return filepath.Join(root, "activity-lens")
	}
	return filepath.Join("data", "activity-lens")
}

func defaultOCRWorkers() int {
	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// SummaryWorkers derives the summarization pool size: roughly half the
// extraction pool, minimum one, because the model service is the real
// bottleneck.
func (c Config) SummaryWorkers() int {
	workers := c.OCRWorkers / 2
	if workers < 1 {
		workers = 1
	}
	return workers
}

// LoadConfig builds a Config from defaults and LENS_* environment variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if value := strings.TrimSpace(os.Getenv("LENS_CAPTURE_DIR")); value != "" {
		cfg.CaptureDir = value
	}
	if value := strings.TrimSpace(os.Getenv("LENS_RECORDS")); value != "" {
		cfg.RecordFile = value
	}
	if value := strings.TrimSpace(os.Getenv("LENS_CACHE_FILE")); value != "" {
		cfg.CacheFile = value
	}
	if value := strings.TrimSpace(os.Getenv("LENS_PROMPT_FILE")); value != "" {
		cfg.PromptFile = value
	}
	if value, ok := os.LookupEnv("LENS_CATALOG"); ok {
		cfg.CatalogPath = strings.TrimSpace(value)
	}
	if value := strings.TrimSpace(os.Getenv("LENS_API_ADDR")); value != "" {
		cfg.APIAddr = value
	}
	if value := strings.TrimSpace(os.Getenv("LENS_OCR_WORKERS")); value != "" {
		workers, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse LENS_OCR_WORKERS: %w", err)
		}
		cfg.OCRWorkers = workers
	}
	if value := strings.TrimSpace(os.Getenv("LENS_BATCH_SIZE")); value != "" {
		size, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse LENS_BATCH_SIZE: %w", err)
		}
		cfg.BatchSize = size
	}
	if value := strings.TrimSpace(os.Getenv("LENS_TESSERACT")); value != "" {
		cfg.TesseractBin = value
	}
	if value := strings.TrimSpace(os.Getenv("LENS_OLLAMA_URL")); value != "" {
		cfg.OllamaURL = value
	}
	if value := strings.TrimSpace(os.Getenv("LENS_REQUEST_TIMEOUT")); value != "" {
		dur, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse LENS_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = dur
	}
	return applyDefaults(cfg), nil
}

func applyDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.CaptureDir) == "" {
		cfg.CaptureDir = defaults.CaptureDir
	}
	if strings.TrimSpace(cfg.RecordFile) == "" {
		cfg.RecordFile = defaults.RecordFile
	}
	if strings.TrimSpace(cfg.CacheFile) == "" {
		cfg.CacheFile = defaults.CacheFile
	}
	if cfg.OCRWorkers <= 0 {
		cfg.OCRWorkers = defaults.OCRWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if strings.TrimSpace(cfg.TesseractBin) == "" {
		cfg.TesseractBin = defaults.TesseractBin
	}
	if strings.TrimSpace(cfg.OllamaURL) == "" {
		cfg.OllamaURL = defaults.OllamaURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.DiscoveryTimeout <= 0 {
		cfg.DiscoveryTimeout = defaults.DiscoveryTimeout
	}
	if cfg.NumCtx <= 0 {
		cfg.NumCtx = defaults.NumCtx
	}
	if cfg.NumPredict <= 0 {
		cfg.NumPredict = defaults.NumPredict
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = defaults.MaxTextChars
	}
	if cfg.MinSummaryChars <= 0 {
		cfg.MinSummaryChars = defaults.MinSummaryChars
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaults.RetryAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = defaults.RetryBase
	}
	if cfg.UnhealthyPause <= 0 {
		cfg.UnhealthyPause = defaults.UnhealthyPause
	}
	return cfg
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.RecordFile) == "" {
		return fmt.Errorf("record file required")
	}
	if strings.TrimSpace(c.CaptureDir) == "" {
		return fmt.Errorf("capture dir required")
	}
	if strings.TrimSpace(c.CacheFile) == "" {
		return fmt.Errorf("cache file required")
	}
	if c.OCRWorkers <= 0 {
		return fmt.Errorf("ocr workers must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("retry attempts must be positive")
	}
	if c.MaxTextChars < c.MinSummaryChars {
		return fmt.Errorf("max text chars must be at least the short-content threshold")
	}
	return nil
}
