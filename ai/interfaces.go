package ai

import "context"

// Embedder turns article text into vectors for the semantic index.
// Implementations must be safe for concurrent use; the pipeline embeds
// from several worker goroutines at once.
type Embedder interface {
	// EmbedText returns the embedding of a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds a batch of texts in one call. The result has one
	// vector per input, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
