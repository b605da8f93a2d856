// File path: internal/ocr/engine.go
package ocr

import "context"

// Engine converts an image on disk into extracted text. The extraction
// backend is an external collaborator; the pipeline only sees this boundary.
type Engine interface {
	Extract(ctx context.Context, imagePath string) (string, error)
}
