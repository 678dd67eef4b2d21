package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/newswire/ai"
	"github.com/poiesic/newswire/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embeddingServer answers OpenAI-style embedding requests with one
// two-dimensional vector per input.
func embeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{float32(i + 1), 1}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestEmbedder(t *testing.T, host string) ai.Embedder {
	t.Helper()
	embedder, err := NewEmbedder(ai.NewConfig(
		ai.WithEmbeddingHost(host),
		ai.WithEmbeddingModel("test-embedding"),
	))
	require.NoError(t, err)
	return embedder
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	_, err := NewEmbedder(&ai.Config{})
	assert.Error(t, err)
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	server := embeddingServer(t)
	embedder := newTestEmbedder(t, server.URL)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"Acme names CEO", "Globex earnings"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 1}, vectors[0])
	assert.Equal(t, []float32{2, 1}, vectors[1])
}

func TestEmbedder_EmbedText(t *testing.T) {
	server := embeddingServer(t)
	embedder := newTestEmbedder(t, server.URL)

	vector, err := embedder.EmbedText(context.Background(), "Acme names CEO")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1}, vector)
}

func TestEmbedder_BlankInput(t *testing.T) {
	// No server: blank input must never reach the network.
	embedder := newTestEmbedder(t, "http://127.0.0.1:1")

	_, err := embedder.EmbedText(context.Background(), "   ")
	assert.ErrorIs(t, err, ai.ErrEmptyText)
	assert.False(t, retry.IsTransient(err))

	vectors, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedder_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
		fatal     bool
	}{
		{"unauthorized", http.StatusUnauthorized, false, true},
		{"rate limited", http.StatusTooManyRequests, true, false},
		{"unavailable", http.StatusServiceUnavailable, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"rejected"}}`))
			}))
			defer server.Close()
			embedder := newTestEmbedder(t, server.URL)

			_, err := embedder.EmbedText(context.Background(), "Acme names CEO")
			require.Error(t, err)

			var statusErr *ai.StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode())
			assert.Equal(t, tt.transient, retry.IsTransient(err))
			assert.Equal(t, tt.fatal, retry.IsFatal(err))
		})
	}
}

func TestClassify_NoStatus(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	assert.Same(t, err, classify(err))
	assert.True(t, retry.IsTransient(classify(err)))
}
