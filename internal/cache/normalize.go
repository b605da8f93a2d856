// File path: internal/cache/normalize.go
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
)

// The normalization intentionally conflates near-duplicate captures (same
// content re-rendered with a different clock time or transient overlay) into
// a single cache key. It is a fuzzy-dedup policy, not a loss bug.
//
// Clock and date patterns are removed before punctuation stripping; stripping
// first would dissolve the ":" and "/" separators the patterns depend on.
var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	clockRE      = regexp.MustCompile(`\d{1,2}:\d{2}(:\d{2})?( ?[ap]m\b)?`)
	slashDateRE  = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`)
	isoDateRE    = regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`)
	punctRE      = regexp.MustCompile(`[^\w\s]`)
	uiTokenRE    = regexp.MustCompile(`\b(close|minimize|maximize|window|button|tab)\b`)
	systemTextRE = regexp.MustCompile(`\b(loading|saving|processing|please wait)\b`)
)

// Normalize lowercases the text, collapses whitespace, removes clock and date
// patterns, strips punctuation, then removes transient UI vocabulary.
func Normalize(text string) string {
	normalized := strings.ToLower(text)
	normalized = whitespaceRE.ReplaceAllString(normalized, " ")
	normalized = clockRE.ReplaceAllString(normalized, "")
	normalized = slashDateRE.ReplaceAllString(normalized, "")
	normalized = isoDateRE.ReplaceAllString(normalized, "")
	normalized = punctRE.ReplaceAllString(normalized, "")
	normalized = uiTokenRE.ReplaceAllString(normalized, "")
	normalized = systemTextRE.ReplaceAllString(normalized, "")
	normalized = whitespaceRE.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// Fingerprint returns the 128-bit hex digest of the normalized text. MD5
// keeps existing cache files valid; it is a cache key, not an integrity
// check.
func Fingerprint(text string) string {
	sum := md5.Sum([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}
