// Package ocr extracts text from captured screen frames.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Result is the recognized text of one frame.
type Result struct {
	Text       string
	Confidence float64
}

// Engine recognizes text on a base64-encoded image.
type Engine interface {
	ExtractText(ctx context.Context, imageBase64 string) (Result, error)
}

// TesseractEngine shells out to the tesseract binary. Frames arrive as PNG;
// data-URL prefixes from browser captures are tolerated.
type TesseractEngine struct {
	// Language is the tesseract language pack, defaulting to "eng".
	Language string
}

// NewTesseractEngine verifies the binary is installed.
func NewTesseractEngine(language string) (*TesseractEngine, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return nil, fmt.Errorf("tesseract is required for screen analysis: %w", err)
	}
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{Language: language}, nil
}

// ExtractText runs OCR over the frame and returns the recognized text.
func (e *TesseractEngine) ExtractText(ctx context.Context, imageBase64 string) (Result, error) {
	raw, err := decodeImage(imageBase64)
	if err != nil {
		return Result{}, err
	}

	tmp, err := os.CreateTemp("", "viva-frame-*.png")
	if err != nil {
		return Result{}, fmt.Errorf("stage frame: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("stage frame: %w", err)
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, "tesseract", tmp.Name(), "stdout", "-l", e.Language)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("run tesseract: %w", err)
	}

	return Result{Text: strings.TrimSpace(out.String())}, nil
}

// decodeImage accepts plain base64 or a data URL ("data:image/png;base64,...").
func decodeImage(imageBase64 string) ([]byte, error) {
	if idx := strings.Index(imageBase64, ","); idx >= 0 && strings.HasPrefix(imageBase64, "data:") {
		imageBase64 = imageBase64[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return raw, nil
}
