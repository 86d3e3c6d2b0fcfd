// Package chunk partitions content strings into contiguous slices for
// per-chunk model evaluation. Sizing is decided from a token measurement but
// slicing is character-based; a boundary may land inside an HTML tag or CSS
// rule. That approximation is intentional.
package chunk

import "math"

// Split partitions text into exactly numChunks contiguous, non-overlapping
// substrings whose concatenation equals text. Chunk length is the ceiling of
// len(text)/numChunks, so the final chunks may be shorter, or empty when
// numChunks over-estimates how many slices the text can fill.
func Split(text string, numChunks int) []string {
	if numChunks < 1 {
		numChunks = 1
	}
	size := int(math.Ceil(float64(len(text)) / float64(numChunks)))
	chunks := make([]string, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := i * size
		if start > len(text) {
			start = len(text)
		}
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}

// Count computes how many chunks a payload of tokenCount tokens needs under
// the given per-chunk budget. Zero or negative inputs need a single chunk.
func Count(tokenCount, budget int) int {
	if tokenCount <= 0 || budget <= 0 || tokenCount <= budget {
		return 1
	}
	return int(math.Ceil(float64(tokenCount) / float64(budget)))
}
