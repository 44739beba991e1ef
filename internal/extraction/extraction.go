// Package extraction turns stored documents into normalized text.
//
// Extraction is two-tiered: a native text-layer pass first, then an OCR
// fallback when the native pass finds too little text. Many real-world
// documents are scans with no machine-readable text layer; skipping OCR
// would silently produce empty summaries for them.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/docsum-api/internal/config"
	"github.com/phrazzld/docsum-api/internal/platform/logger"
)

// NativeExtractor reads a document's internal structure (e.g. a PDF text
// layer) and returns its raw text. An empty result means the document
// has no text layer, not that extraction failed.
type NativeExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// OCRExtractor recognizes text from a document's rendered image.
type OCRExtractor interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Common constructor errors
var (
	ErrNilNativeExtractor = errors.New("native extractor cannot be nil")
	ErrNilOCRExtractor    = errors.New("OCR extractor cannot be nil")
)

// Engine runs the two-tier extraction pipeline over a stored document.
type Engine struct {
	native        NativeExtractor
	ocr           OCRExtractor
	minTextLength int
	logger        *slog.Logger
}

// NewEngine creates an extraction engine from its two extractor tiers.
// If logger is nil, a default logger will be used.
func NewEngine(native NativeExtractor, ocr OCRExtractor, cfg config.ExtractionConfig, logger *slog.Logger) (*Engine, error) {
	if native == nil {
		return nil, ErrNilNativeExtractor
	}
	if ocr == nil {
		return nil, ErrNilOCRExtractor
	}
	if logger == nil {
		logger = slog.Default()
	}

	minLen := cfg.MinTextLength
	if minLen < 1 {
		minLen = 1
	}

	return &Engine{
		native:        native,
		ocr:           ocr,
		minTextLength: minLen,
		logger:        logger.With(slog.String("component", "extraction")),
	}, nil
}

// Extract produces normalized text for the document at path.
//
// The native text layer is attempted first. If its normalized output is
// shorter than the configured threshold the document is treated as a
// scan and handed to OCR. If both tiers fall short, ErrNoReadableText is
// returned. A parse failure in either tier returns ErrExtractionFailed
// with the cause; the stored document is never modified.
func (e *Engine) Extract(ctx context.Context, path string) (string, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	raw, err := e.native.ExtractText(ctx, path)
	if err != nil {
		log.Warn("native extraction failed",
			slog.String("error", err.Error()),
			slog.String("path", path))
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	text := Normalize(raw)
	if e.readable(text) {
		log.Debug("native extraction succeeded",
			slog.String("path", path),
			slog.Int("text_length", len(text)))
		return text, nil
	}

	// No usable text layer; fall back to OCR over the rendered image.
	log.Info("text layer below threshold, falling back to OCR",
		slog.String("path", path),
		slog.Int("text_length", len(text)),
		slog.Int("min_text_length", e.minTextLength))

	raw, err = e.ocr.Recognize(ctx, path)
	if err != nil {
		log.Warn("OCR extraction failed",
			slog.String("error", err.Error()),
			slog.String("path", path))
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	text = Normalize(raw)
	if e.readable(text) {
		log.Debug("OCR extraction succeeded",
			slog.String("path", path),
			slog.Int("text_length", len(text)))
		return text, nil
	}

	return "", ErrNoReadableText
}

// readable reports whether normalized text meets the minimum-length
// threshold, measured in characters.
func (e *Engine) readable(text string) bool {
	return len([]rune(text)) >= e.minTextLength
}
