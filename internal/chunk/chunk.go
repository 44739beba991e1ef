// Package chunk splits extracted document text into bounded segments.
// The remote summarization capability has a practical input-size and
// latency ceiling; chunking bounds per-call cost and keeps failure
// isolated to a sub-range of the document.
package chunk

import "errors"

// ErrInvalidChunkSize is returned when the requested chunk size is not positive.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// Split splits text into contiguous, non-overlapping segments of at most
// maxSize characters, preserving left-to-right document order. The final
// chunk may be shorter. Concatenating the returned chunks in order
// reproduces text exactly.
//
// Sizes are measured in characters (runes), not bytes, so multi-byte
// text never gets cut mid-character.
func Split(text string, maxSize int) ([]string, error) {
	if maxSize < 1 {
		return nil, ErrInvalidChunkSize
	}

	if text == "" {
		return []string{}, nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+maxSize-1)/maxSize)
	for start := 0; start < len(runes); start += maxSize {
		end := start + maxSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks, nil
}
