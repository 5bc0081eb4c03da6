package retriever

import (
	"testing"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/stretchr/testify/require"
)

func TestMinMaxNormalizeAllEqualPositive(t *testing.T) {
	hits := []types.Hit{{ChunkID: "a", Score: 5}, {ChunkID: "b", Score: 5}}
	out := minMaxNormalize(hits)
	for _, h := range out {
		require.Equal(t, 1.0, h.Score)
	}
}

func TestMinMaxNormalizeAllZero(t *testing.T) {
	hits := []types.Hit{{ChunkID: "a", Score: 0}, {ChunkID: "b", Score: 0}}
	out := minMaxNormalize(hits)
	for _, h := range out {
		require.Equal(t, 0.0, h.Score)
	}
}

func TestMinMaxNormalizeRange(t *testing.T) {
	hits := []types.Hit{{ChunkID: "a", Score: 2}, {ChunkID: "b", Score: 6}, {ChunkID: "c", Score: 4}}
	out := minMaxNormalize(hits)
	require.Equal(t, 0.0, out[0].Score)
	require.Equal(t, 1.0, out[1].Score)
	require.Equal(t, 0.5, out[2].Score)
}

func TestReciprocalRankFusionIdempotent(t *testing.T) {
	list := []types.Hit{
		{ChunkID: "a", Score: 0.9},
		{ChunkID: "b", Score: 0.8},
		{ChunkID: "c", Score: 0.7},
	}
	first := reciprocalRankFusion(60, list)
	second := reciprocalRankFusion(60, first)

	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Equal(t, first[i].ChunkID, second[i].ChunkID)
	}
}

func TestReciprocalRankFusionCombinesAcrossLists(t *testing.T) {
	listA := []types.Hit{{ChunkID: "a"}, {ChunkID: "b"}}
	listB := []types.Hit{{ChunkID: "b"}, {ChunkID: "a"}}

	fused := reciprocalRankFusion(60, listA, listB)
	require.Len(t, fused, 2)
	// a: rank0 in A (1/61) + rank1 in B (1/62); b: rank1 in A (1/62) + rank0 in B (1/61)
	// symmetric, so scores tie and chunk_id ascending breaks the tie.
	require.Equal(t, "a", fused[0].ChunkID)
	require.Equal(t, "b", fused[1].ChunkID)
}

func TestSortHitsTieBreaksBySourceThenChunkID(t *testing.T) {
	hits := []types.Hit{
		{ChunkID: "z", Score: 1, Source: types.SourceBM25},
		{ChunkID: "a", Score: 1, Source: types.SourceDense},
		{ChunkID: "m", Score: 1, Source: types.SourceDense},
	}
	sortHits(hits)
	require.Equal(t, []string{"a", "m", "z"}, []string{hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID})
}

func TestDedupeKeepHighest(t *testing.T) {
	hits := []types.Hit{
		{ChunkID: "a", Score: 0.3},
		{ChunkID: "a", Score: 0.8},
		{ChunkID: "b", Score: 0.5},
	}
	out := dedupeKeepHighest(hits)
	require.Len(t, out, 2)
	for _, h := range out {
		if h.ChunkID == "a" {
			require.Equal(t, 0.8, h.Score)
		}
	}
}
