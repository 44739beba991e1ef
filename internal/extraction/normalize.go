package extraction

import "strings"

// Normalize collapses runs of whitespace to single spaces, trims leading
// and trailing whitespace, and drops page-marker artifacts (form feeds,
// NUL bytes) that PDF text layers and OCR output tend to carry.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inSpace := false
	for _, r := range text {
		switch r {
		case '\x00':
			// NULs from broken encodings are dropped outright.
			continue
		case ' ', '\t', '\n', '\r', '\v', '\f':
			inSpace = true
			continue
		}

		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}

	return b.String()
}
