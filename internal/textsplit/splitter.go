// Package textsplit segments raw document text into bounded, overlapping
// chunks suitable for embedding.
package textsplit

import (
	"fmt"
	"strings"
)

const (
	// DefaultChunkSize keeps each chunk safely under embedding token limits.
	DefaultChunkSize = 800

	// DefaultChunkOverlap preserves context across chunk boundaries.
	DefaultChunkOverlap = 150

	// MinChunkChars is the minimum trimmed length for a chunk to be kept.
	// Anything at or below this is treated as noise, not an informative unit.
	MinChunkChars = 50
)

// separators are tried coarsest first: paragraph breaks, line breaks,
// sentence-ending punctuation, clause breaks, word breaks, then arbitrary
// character boundaries.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", ", ", " ", ""}

// Splitter performs recursive boundary-preferring splitting. It has no state
// beyond its configuration; Split is a pure function of its input.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter validates the configuration: size must be positive and strictly
// greater than overlap, overlap must be non-negative.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be non-negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split segments text into chunks no larger than the configured size, with
// adjacent chunks overlapping by up to the configured overlap. Pieces whose
// trimmed length is at or below MinChunkChars are discarded. An empty input
// yields an empty result; so does an input made entirely of such noise, which
// callers must treat as an empty document.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	pieces := s.split(text, separators)

	chunks := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if len(strings.TrimSpace(piece)) > MinChunkChars {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}

// split chooses the coarsest separator present in text and recurses on pieces
// that are still too large with the remaining, finer separators.
func (s *Splitter) split(text string, seps []string) []string {
	if len(text) <= s.size {
		return []string{text}
	}

	separator := ""
	rest := seps
	for i, sep := range seps {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			rest = seps[i+1:]
			break
		}
	}

	// No natural boundary left: fall back to overlapping character windows.
	if separator == "" {
		return s.windows(text)
	}

	parts := strings.SplitAfter(text, separator)

	var out []string
	var pending []string
	for _, part := range parts {
		if len(part) <= s.size {
			pending = append(pending, part)
			continue
		}
		out = append(out, s.merge(pending)...)
		pending = nil
		out = append(out, s.split(part, rest)...)
	}
	return append(out, s.merge(pending)...)
}

// merge greedily packs adjacent pieces into chunks of at most size
// characters, carrying up to overlap trailing characters into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current []string
	curLen := 0

	flush := func() {
		chunk := strings.TrimSpace(strings.Join(current, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		if curLen+len(piece) > s.size && curLen > 0 {
			flush()
			for curLen > s.overlap || (curLen+len(piece) > s.size && curLen > 0) {
				curLen -= len(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		curLen += len(piece)
	}
	if curLen > 0 {
		flush()
	}
	return chunks
}

// windows cuts text into size-length rune windows advancing by size-overlap,
// so consecutive windows share exactly overlap characters. Cutting on rune
// boundaries keeps every chunk valid UTF-8 regardless of the input encoding
// width.
func (s *Splitter) windows(text string) []string {
	runes := []rune(text)
	step := s.size - s.overlap
	var out []string
	for start := 0; ; start += step {
		end := min(start+s.size, len(runes))
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
