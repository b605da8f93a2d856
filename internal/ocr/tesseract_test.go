// File path: internal/ocr/tesseract_test.go
package ocr

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode image: %v", err)
	}
}

func TestPrepareGrayscaleConvertsColorImages(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "color.png")
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			rgba.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	writePNG(t, src, rgba)

	grayPath, cleanup, err := prepareGrayscale(src)
	if err != nil {
		t.Fatalf("prepare grayscale: %v", err)
	}
	defer cleanup()
	if grayPath == src {
		t.Fatal("color image should be converted to a new file")
	}
	file, err := os.Open(grayPath)
	if err != nil {
		t.Fatalf("open converted image: %v", err)
	}
	defer file.Close()
	decoded, _, err := image.Decode(file)
	if err != nil {
		t.Fatalf("decode converted image: %v", err)
	}
	if _, ok := decoded.(*image.Gray); !ok {
		t.Fatalf("converted image is %T, want *image.Gray", decoded)
	}

	cleanup()
	if _, err := os.Stat(grayPath); !os.IsNotExist(err) {
		t.Fatalf("cleanup left the temp file: %v", err)
	}
}

func TestPrepareGrayscalePassesThroughGrayImages(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "gray.png")
	writePNG(t, src, image.NewGray(image.Rect(0, 0, 4, 4)))

	grayPath, cleanup, err := prepareGrayscale(src)
	if err != nil {
		t.Fatalf("prepare grayscale: %v", err)
	}
	defer cleanup()
	if grayPath != src {
		t.Fatalf("grayscale image should pass through unchanged, got %q", grayPath)
	}
}

func TestPrepareGrayscaleRejectsMissingAndMalformed(t *testing.T) {
	if _, _, err := prepareGrayscale(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing image")
	}
	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write bad image: %v", err)
	}
	if _, _, err := prepareGrayscale(bad); err == nil {
		t.Fatal("expected error for malformed image")
	}
}

func TestExtractPassesAccuracyFlags(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "shot.png")
	writePNG(t, src, image.NewGray(image.Rect(0, 0, 2, 2)))

	// echo stands in for tesseract and prints the argument vector.
	engine := NewTesseract("echo", 6, 3, 600)
	out, err := engine.Extract(context.Background(), src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, fragment := range []string{src, "stdout", "--psm 6", "--oem 3", "--dpi 600"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("argument vector missing %q: %q", fragment, out)
		}
	}
}

func TestExtractReportsBinaryFailure(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "shot.png")
	writePNG(t, src, image.NewGray(image.Rect(0, 0, 2, 2)))

	engine := NewTesseract("false", 6, 3, 600)
	if _, err := engine.Extract(context.Background(), src); err == nil {
		t.Fatal("expected error from failing binary")
	}
}

func TestNewTesseractDefaultsBinary(t *testing.T) {
	engine := NewTesseract("", 6, 3, 600)
	if engine.Binary != "tesseract" {
		t.Fatalf("binary: %q", engine.Binary)
	}
}
