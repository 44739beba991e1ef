package extraction

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractExtractor implements OCRExtractor using the Tesseract engine.
type TesseractExtractor struct {
	language string
}

// NewTesseractExtractor creates the production OCR extractor. language
// is a Tesseract language code such as "eng".
func NewTesseractExtractor(language string) *TesseractExtractor {
	if language == "" {
		language = "eng"
	}
	return &TesseractExtractor{language: language}
}

// Ensure TesseractExtractor implements OCRExtractor
var _ OCRExtractor = (*TesseractExtractor)(nil)

// Recognize implements OCRExtractor. A fresh client is used per call;
// gosseract clients are not safe for concurrent use.
func (x *TesseractExtractor) Recognize(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(x.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}

	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("failed to load image for OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR recognition failed: %w", err)
	}

	return text, nil
}
