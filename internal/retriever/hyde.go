package retriever

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

const hydePromptTemplate = "Write a short hypothetical passage that would directly answer this question:\n\n%s"

// hyDERetriever implements Hypothetical Document Embeddings (spec.md §4.3):
// ask an LLM for num_queries hypothetical answers, embed each, run the base
// retriever once per hypothetical vector (plus the original query if
// include_original), and merge everything via reciprocal rank fusion.
type hyDERetriever struct {
	base            interfaces.Retriever
	chat            interfaces.Chat
	resolveEmbedder func(modelID string) (interfaces.Embedder, error)
	numQueries      int
	includeOriginal bool
	k               int
}

func newHyDERetriever(r *Registry, chat interfaces.Chat, resolveEmbedder func(string) (interfaces.Embedder, error), params map[string]any) (*hyDERetriever, error) {
	baseName := stringParam(params, "base_retriever", "dense")
	base, err := r.Build(baseName, nil)
	if err != nil {
		return nil, fmt.Errorf("hyde: resolve base retriever: %w", err)
	}
	return &hyDERetriever{
		base:            base,
		chat:            chat,
		resolveEmbedder: resolveEmbedder,
		numQueries:      intParam(params, "num_queries", 3),
		includeOriginal: boolParam(params, "include_original", true),
		k:               intParam(params, "rrf_k", rrfDefaultK),
	}, nil
}

func (h *hyDERetriever) Name() string { return "hyde" }

func (h *hyDERetriever) Retrieve(ctx context.Context, params types.RetrieveParams) ([]types.Hit, error) {
	if h.chat == nil || h.resolveEmbedder == nil {
		return nil, fmt.Errorf("hyde retriever: chat model and embedder are required")
	}
	embedder, err := h.resolveEmbedder(params.EmbeddingModelID)
	if err != nil {
		return nil, fmt.Errorf("hyde: resolve embedder: %w", err)
	}

	hypotheticals := make([]string, 0, h.numQueries)
	for i := 0; i < h.numQueries; i++ {
		text, err := h.chat.Chat(ctx, []interfaces.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(hydePromptTemplate, params.Query)},
		}, interfaces.ChatOptions{Temperature: 0.7, MaxTokens: 256})
		if err != nil {
			continue
		}
		hypotheticals = append(hypotheticals, text)
	}

	lists := make([][]types.Hit, 0, len(hypotheticals)+1)
	for _, hypothesis := range hypotheticals {
		vector, err := embedder.Embed(ctx, hypothesis)
		if err != nil {
			continue
		}
		variantParams := params
		variantParams.QueryVector = vector
		hits, err := h.base.Retrieve(ctx, variantParams)
		if err != nil {
			continue
		}
		lists = append(lists, annotateHyDE(hits, hypotheticals))
	}

	if h.includeOriginal {
		originalParams := params
		originalParams.QueryVector = nil
		hits, err := h.base.Retrieve(ctx, originalParams)
		if err == nil {
			lists = append(lists, annotateHyDE(hits, hypotheticals))
		}
	}

	if len(lists) == 0 {
		return nil, fmt.Errorf("hyde retriever: no hypothetical or original query produced results")
	}

	fused := reciprocalRankFusion(h.k, lists...)
	for i := range fused {
		fused[i].Match = types.MatchHyDE
	}
	return truncate(fused, params.TopK), nil
}

func annotateHyDE(hits []types.Hit, hypotheticals []string) []types.Hit {
	out := make([]types.Hit, len(hits))
	for i, h := range hits {
		h.Metadata = withDiagnostic(h.Metadata, "hyde_queries", hypotheticals)
		out[i] = h
	}
	return out
}

func withDiagnostic(meta map[string]any, key string, value any) map[string]any {
	out := map[string]any{}
	for k, v := range meta {
		out[k] = v
	}
	out[key] = value
	return out
}

var _ interfaces.Retriever = (*hyDERetriever)(nil)
