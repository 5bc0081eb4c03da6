package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

const multiQueryPromptTemplate = "Generate %d alternative phrasings of the following search query, one per line, no numbering:\n\n%s"

// multiQueryRetriever asks an LLM for query variants, runs the base
// retriever on each variant text, and merges via reciprocal rank fusion
// (spec.md §4.3). Diagnostics carry every variant tried on each hit.
type multiQueryRetriever struct {
	base       interfaces.Retriever
	chat       interfaces.Chat
	numQueries int
	k          int
}

func newMultiQueryRetriever(r *Registry, chat interfaces.Chat, params map[string]any) (*multiQueryRetriever, error) {
	baseName := stringParam(params, "base_retriever", "dense")
	base, err := r.Build(baseName, nil)
	if err != nil {
		return nil, fmt.Errorf("multi_query: resolve base retriever: %w", err)
	}
	return &multiQueryRetriever{
		base:       base,
		chat:       chat,
		numQueries: intParam(params, "num_queries", 3),
		k:          intParam(params, "rrf_k", rrfDefaultK),
	}, nil
}

func (m *multiQueryRetriever) Name() string { return "multi_query" }

func (m *multiQueryRetriever) Retrieve(ctx context.Context, params types.RetrieveParams) ([]types.Hit, error) {
	if m.chat == nil {
		return nil, fmt.Errorf("multi_query retriever: chat model is required")
	}

	text, err := m.chat.Chat(ctx, []interfaces.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(multiQueryPromptTemplate, m.numQueries, params.Query)},
	}, interfaces.ChatOptions{Temperature: 0.7, MaxTokens: 256})
	variants := []string{params.Query}
	if err == nil {
		variants = append(variants, splitVariants(text, m.numQueries)...)
	}

	lists := make([][]types.Hit, 0, len(variants))
	for _, variant := range variants {
		variantParams := params
		variantParams.Query = variant
		variantParams.QueryVector = nil
		hits, err := m.base.Retrieve(ctx, variantParams)
		if err != nil {
			continue
		}
		for i := range hits {
			hits[i].Metadata = withDiagnostic(hits[i].Metadata, "query_variants", variants)
		}
		lists = append(lists, hits)
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("multi_query retriever: every query variant failed")
	}

	fused := reciprocalRankFusion(m.k, lists...)
	for i := range fused {
		fused[i].Match = types.MatchMultiExpn
	}
	return truncate(fused, params.TopK), nil
}

func splitVariants(text string, limit int) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, limit)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) >= limit {
			break
		}
	}
	return out
}

var _ interfaces.Retriever = (*multiQueryRetriever)(nil)
