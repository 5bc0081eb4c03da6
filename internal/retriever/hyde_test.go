package retriever

import (
	"context"
	"testing"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
	"github.com/stretchr/testify/require"
)

func TestHyDEMergesHypotheticalsWithOriginal(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("dense", func(map[string]any) (interfaces.Retriever, error) {
		return newDenseRetriever(&fakeDenseStore{hits: []types.Hit{
			{ChunkID: "a", Score: 0.9}, {ChunkID: "b", Score: 0.5},
		}}, nil), nil
	})

	chat := &fakeChat{response: "a hypothetical answer"}
	resolveEmbedder := func(string) (interfaces.Embedder, error) { return fakeEmbedder{}, nil }

	h, err := newHyDERetriever(r, chat, resolveEmbedder, map[string]any{"num_queries": 2})
	require.NoError(t, err)

	hits, err := h.Retrieve(context.Background(), types.RetrieveParams{Query: "what is fox", TopK: 10})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, hit := range hits {
		require.Equal(t, types.MatchHyDE, hit.Match)
		require.Contains(t, hit.Metadata, "hyde_queries")
	}
}

func TestHyDERequiresChatAndEmbedder(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("dense", func(map[string]any) (interfaces.Retriever, error) {
		return newDenseRetriever(&fakeDenseStore{}, nil), nil
	})

	h, err := newHyDERetriever(r, nil, nil, nil)
	require.NoError(t, err)

	_, err = h.Retrieve(context.Background(), types.RetrieveParams{Query: "q", TopK: 10})
	require.Error(t, err)
}
