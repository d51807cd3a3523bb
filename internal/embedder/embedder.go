// Package embedder defines the narrow interface semdesk uses to turn text
// into vectors, plus a deterministic default implementation. Real embedding
// models (sentence-transformers, MLX, etc.) are external black boxes per
// the system's scope and can be plugged in behind the same interface.
package embedder

import "context"

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	// Embed returns the vector for a single piece of text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds multiple texts in one call. Implementations that
	// wrap a batching model should prefer this over repeated Embed calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the fixed vector length this embedder produces.
	Dimensions() int
}
