package extraction

import "errors"

// Extraction failures recorded into the owning task; neither is retried
// automatically because transient and permanent causes are
// indistinguishable at this layer.
var (
	// ErrExtractionFailed is returned when a document cannot be parsed
	// by the native extractor or the OCR engine. The underlying cause is
	// included in the error message.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrNoReadableText is returned when both the native text layer and
	// the OCR fallback yield text below the minimum-length threshold.
	ErrNoReadableText = errors.New("no readable text found")
)
