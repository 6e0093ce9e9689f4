package store

import (
	"math"
	"sort"
)

// rankBySimilarity orders chunks by cosine similarity to the query embedding,
// descending, and returns at most k of them. Non-positive k yields nothing.
func rankBySimilarity(chunks []Chunk, query []float32, k int) []Chunk {
	if k <= 0 {
		return nil
	}

	type scored struct {
		chunk Chunk
		score float64
	}

	ranked := make([]scored, 0, len(chunks))
	for _, chunk := range chunks {
		ranked = append(ranked, scored{chunk: chunk, score: cosineSimilarity(chunk.Embedding, query)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]Chunk, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, r.chunk)
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
