// File path: internal/ocr/tesseract.go
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/activitylens/lens/internal/common"
)

// Tesseract shells out to the tesseract binary with accuracy-oriented
// settings. The numeric settings are configuration, not contract; the
// defaults favor accuracy over speed.
type Tesseract struct {
	Binary      string
	PageSegMode int
	EngineMode  int
	DPI         int
}

func NewTesseract(binary string, psm, oem, dpi int) *Tesseract {
	if binary == "" {
		binary = "tesseract"
	}
	return &Tesseract{Binary: binary, PageSegMode: psm, EngineMode: oem, DPI: dpi}
}

func (t *Tesseract) Extract(ctx context.Context, imagePath string) (string, error) {
	grayPath, cleanup, err := prepareGrayscale(imagePath)
	if err != nil {
		return "", err
	}
	defer cleanup()

	args := []string{grayPath, "stdout",
		"--psm", strconv.Itoa(t.PageSegMode),
		"--oem", strconv.Itoa(t.EngineMode),
		"--dpi", strconv.Itoa(t.DPI),
	}
	cmd := exec.CommandContext(ctx, t.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	common.Logger().Debug("ocr: running tesseract", "image", imagePath, "args", strings.Join(args[1:], " "))
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("tesseract failed: %w: %s", err, detail)
		}
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return stdout.String(), nil
}
