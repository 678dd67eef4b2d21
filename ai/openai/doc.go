// Package openai provides the embedding service using OpenAI-compatible APIs.
//
// The embedder uses the langchaingo library to talk to OpenAI or to an
// OpenAI-compatible server (Ollama, LocalAI, vLLM).
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithEmbeddingModel("nomic-embed-text"),
//	)
//	embedder, err := openai.NewEmbedder(config)
package openai
