// File path: internal/capture/record.go
package capture

import "time"

// Record is one observed window/app snapshot. Field presence encodes the
// enrichment stage: a raw capture carries only the image filename, extraction
// adds the text filename, summarization adds the summary. The pipeline only
// ever adds fields; removal is the reset tooling's job.
type Record struct {
	AppName     string    `json:"app_name"`
	Timestamp   time.Time `json:"timestamp"`
	WindowTitle string    `json:"window_title,omitempty"`
	ImageFile   string    `json:"screen_capture_filename,omitempty"`
	TextFile    string    `json:"screen_text_filename,omitempty"`
	Summary     string    `json:"summary,omitempty"`
}

// NeedsExtraction reports whether the record still requires the OCR stage.
func (r Record) NeedsExtraction() bool {
	return r.ImageFile != "" && r.TextFile == ""
}

// NeedsSummary reports whether the record still requires the summarization
// stage.
func (r Record) NeedsSummary() bool {
	return r.TextFile != "" && r.Summary == ""
}

// MatchKey is the value records are joined on across stages. The capture
// format carries no stable identifier, so the image filename (or the text
// filename for records captured without a screenshot) is the only join key;
// two records sharing a filename collide silently.
func (r Record) MatchKey() string {
	if r.ImageFile != "" {
		return r.ImageFile
	}
	return r.TextFile
}

// DisplayName returns the most specific artifact name for log output.
func (r Record) DisplayName() string {
	if key := r.MatchKey(); key != "" {
		return key
	}
	return r.AppName
}
