package store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// EmbeddingDimension is the fixed vector width (spec.md §3: 384-dim).
const EmbeddingDimension = 384

// Embedder is the external embedding-model collaborator spec.md §1
// scopes out of the core: embed(text) → []float32. Continues
// agents/rag/embedder.go's Embedder, generalized from one Voyage-AI
// HTTP client into an injectable interface so real backends stay
// external and swappable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HashEmbedder is a deterministic, offline fallback: it stretches a
// SHA-256 digest of the text into a unit vector. Used in tests and
// whenever no real embedding backend is configured, continuing the
// teacher's "falls back to a simple hash-based approach" comment in
// agents/rag/embedder.go.
type HashEmbedder struct {
	Dimension int
}

// NewHashEmbedder returns a HashEmbedder at the standard dimension.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{Dimension: EmbeddingDimension}
}

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	dim := h.Dimension
	if dim <= 0 {
		dim = EmbeddingDimension
	}
	out := make([]float32, dim)
	seed := []byte(text)
	block := sha256.Sum256(seed)
	for i := 0; i < dim; i++ {
		if i > 0 && i%32 == 0 {
			block = sha256.Sum256(block[:])
		}
		chunk := block[(i%32)*1 : (i%32)*1+1]
		u := binary.BigEndian.Uint16([]byte{0, chunk[0]})
		out[i] = float32(u)
	}
	normalize(out)
	return out, nil
}

func normalize(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range v {
		v[i] /= norm
	}
}
