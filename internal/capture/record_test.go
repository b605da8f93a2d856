// File path: internal/capture/record_test.go
package capture

import "testing"

func TestRecordStagePredicates(t *testing.T) {
	raw := Record{AppName: "editor", ImageFile: "shot.png"}
	if !raw.NeedsExtraction() || raw.NeedsSummary() {
		t.Fatalf("raw record predicates wrong: extraction=%v summary=%v", raw.NeedsExtraction(), raw.NeedsSummary())
	}
	extracted := raw
	extracted.TextFile = "shot.txt"
	if extracted.NeedsExtraction() || !extracted.NeedsSummary() {
		t.Fatalf("extracted record predicates wrong: extraction=%v summary=%v", extracted.NeedsExtraction(), extracted.NeedsSummary())
	}
	summarized := extracted
	summarized.Summary = "Editing code."
	if summarized.NeedsExtraction() || summarized.NeedsSummary() {
		t.Fatal("summarized record should be fully enriched")
	}
	textOnly := Record{AppName: "terminal", TextFile: "session.txt"}
	if textOnly.NeedsExtraction() {
		t.Fatal("record without an image never needs extraction")
	}
	if textOnly.MatchKey() != "session.txt" {
		t.Fatalf("match key: got %q", textOnly.MatchKey())
	}
	if raw.MatchKey() != "shot.png" {
		t.Fatalf("match key: got %q", raw.MatchKey())
	}
}
