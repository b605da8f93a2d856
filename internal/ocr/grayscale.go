// File path: internal/ocr/grayscale.go
package ocr

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"

	_ "image/jpeg"
)

// prepareGrayscale returns a path to a single-channel rendition of the image
// and a cleanup function. When the source already decodes as grayscale the
// original path is returned and cleanup is a no-op; otherwise a converted
// copy is written to a temporary file.
func prepareGrayscale(imagePath string) (string, func(), error) {
	noop := func() {}
	file, err := os.Open(imagePath)
	if err != nil {
		return "", noop, fmt.Errorf("open image: %w", err)
	}
	img, _, err := image.Decode(file)
	file.Close()
	if err != nil {
		return "", noop, fmt.Errorf("decode image: %w", err)
	}
	if _, ok := img.(*image.Gray); ok {
		return imagePath, noop, nil
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	tmp, err := os.CreateTemp("", "lens-gray-*.png")
	if err != nil {
		return "", noop, fmt.Errorf("create grayscale temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }
	if err := png.Encode(tmp, gray); err != nil {
		tmp.Close()
		cleanup()
		return "", noop, fmt.Errorf("encode grayscale: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("close grayscale temp: %w", err)
	}
	return tmpName, cleanup, nil
}
