// Package mock provides a test double for ai.Embedder.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{1, 0, 0}, nil
//	}
//	count := embedder.CallCount()
//
// # Default Behavior
//
// Without injected functions MockEmbedder returns deterministic vectors derived
// from a hash of the text, so identical text always embeds identically.
package mock
