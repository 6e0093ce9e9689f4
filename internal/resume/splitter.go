package resume

import "strings"

const (
	// DefaultChunkSize is the target chunk length in runes.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of runes repeated between adjacent
	// chunks so retrieval does not lose context at boundaries.
	DefaultChunkOverlap = 200
)

// separators is the split cascade, coarsest first. A chunk is cut at the
// coarsest boundary that keeps it under the size limit.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter cuts resume text into overlapping chunks for embedding.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewSplitter returns a splitter with the default size and overlap.
func NewSplitter() Splitter {
	return Splitter{ChunkSize: DefaultChunkSize, ChunkOverlap: DefaultChunkOverlap}
}

// Split breaks text into chunks of at most ChunkSize runes, preferring
// paragraph, line, sentence and then word boundaries, with ChunkOverlap
// runes carried between neighbors.
func (s Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := s.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := findCut(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// findCut looks backwards from end for the coarsest separator inside the
// window, falling back to a hard cut when the window is a single word.
func findCut(runes []rune, start, end int) int {
	window := string(runes[start:end])

	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return start + len([]rune(window[:idx+len(sep)]))
		}
	}

	return end
}
