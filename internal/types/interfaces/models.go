package interfaces

import "context"

// Embedder turns text into dense vectors using a knowledge base's
// configured embedding model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelID() string
}

// ChatMessage is one turn in a chat completion request.
type ChatMessage struct {
	Role    string // system, user, assistant
	Content string
}

// ChatOptions tunes a single Chat call. Zero-value TopP means "let the
// provider default", since 0 is not a meaningful nucleus-sampling cutoff.
type ChatOptions struct {
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// Chat generates a completion from a configured chat model.
type Chat interface {
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
	ModelID() string
}

// RankResult is one reranked document with its relevance score.
type RankResult struct {
	Index float64
	Score float64
}

// Reranker reorders candidate documents by relevance to a query.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string) ([]RankResult, error)
	ModelID() string
}
