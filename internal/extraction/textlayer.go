package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextLayerExtractor implements NativeExtractor by reading the document
// format's own text representation. PDFs go through their embedded text
// layer; plain-text formats pass through directly; image formats carry
// no text layer and yield an empty result so the engine falls back to
// OCR.
type TextLayerExtractor struct{}

// NewTextLayerExtractor creates the production native extractor.
func NewTextLayerExtractor() *TextLayerExtractor {
	return &TextLayerExtractor{}
}

// Ensure TextLayerExtractor implements NativeExtractor
var _ NativeExtractor = (*TextLayerExtractor)(nil)

// ExtractText implements NativeExtractor.
func (x *TextLayerExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDFTextLayer(path)
	case ".txt", ".text", ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read document: %w", err)
		}
		return string(data), nil
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		// Images have no text layer; let the OCR tier handle them.
		return "", nil
	default:
		return "", fmt.Errorf("unsupported document format: %q", filepath.Ext(path))
	}
}

// extractPDFTextLayer pulls the machine-readable text layer out of a
// PDF. Scanned PDFs parse fine but produce little or no text here.
func extractPDFTextLayer(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}
	defer func() { _ = file.Close() }()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text layer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("failed to read PDF text layer: %w", err)
	}

	return buf.String(), nil
}
