// Package embedding implements the Embedder client, an OpenAI-compatible
// wire protocol wrapper generalized to whichever embedding model a
// knowledge base is configured with.
package embedding

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/types/interfaces"
	openai "github.com/sashabaranov/go-openai"
)

// Config describes one configured embedding model.
type Config struct {
	BaseURL    string
	APIKey     string
	ModelName  string
	ModelID    string
	Dimensions int
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	modelName  string
	modelID    string
	dimensions int
}

func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("embedding model name is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		modelName:  cfg.ModelName,
		modelID:    cfg.ModelID,
		dimensions: cfg.Dimensions,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.modelName),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }
func (e *OpenAIEmbedder) ModelID() string { return e.modelID }

var _ interfaces.Embedder = (*OpenAIEmbedder)(nil)
