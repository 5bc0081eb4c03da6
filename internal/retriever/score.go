package retriever

import (
	"sort"

	"github.com/kbvault/kbvault/internal/types"
)

// sourcePriority breaks score ties deterministically (spec.md §4.3): lower
// number sorts first. Sources not listed fall back to the lowest priority.
var sourcePriority = map[types.SourceType]int{
	types.SourceDense:  0,
	types.SourceBM25:   1,
	types.SourceHybrid: 2,
}

func priorityOf(s types.SourceType) int {
	if p, ok := sourcePriority[s]; ok {
		return p
	}
	return len(sourcePriority)
}

// sortHits orders hits by descending score, breaking ties by
// (source priority, ascending chunk_id) so output is fully deterministic.
func sortHits(hits []types.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		pi, pj := priorityOf(hits[i].Source), priorityOf(hits[j].Source)
		if pi != pj {
			return pi < pj
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}

// minMaxNormalize rescales scores to [0,1] per spec.md §4.3's bm25/hybrid
// normalization rule: if every score is equal and positive, all outputs are
// 1.0; if every score is zero, all outputs are 0.0.
func minMaxNormalize(hits []types.Hit) []types.Hit {
	if len(hits) == 0 {
		return hits
	}
	min, max := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < min {
			min = h.Score
		}
		if h.Score > max {
			max = h.Score
		}
	}

	out := make([]types.Hit, len(hits))
	copy(out, hits)
	switch {
	case max == min && max > 0:
		for i := range out {
			out[i].Score = 1.0
		}
	case max == min:
		for i := range out {
			out[i].Score = 0.0
		}
	default:
		span := max - min
		for i := range out {
			out[i].Score = (out[i].Score - min) / span
		}
	}
	return out
}

// rrfDefaultK is reciprocal-rank-fusion's default smoothing constant
// (spec.md §4.3): score = Σ 1/(k + rank_i), ranks 1-based.
const rrfDefaultK = 60

// reciprocalRankFusion merges several already-ranked hit lists into one,
// summing 1/(k+rank) contributions per chunk_id across every list the chunk
// appears in. Deterministic given deterministic inputs, so running it twice
// on the same ranked lists in the same order reproduces the same ordering
// (spec.md §8's RRF idempotence property).
func reciprocalRankFusion(k int, lists ...[]types.Hit) []types.Hit {
	if k <= 0 {
		k = rrfDefaultK
	}

	type accum struct {
		hit   types.Hit
		score float64
	}
	byChunk := map[string]*accum{}
	order := make([]string, 0)

	for _, list := range lists {
		for rank, h := range list {
			contribution := 1.0 / float64(k+rank+1)
			if a, ok := byChunk[h.ChunkID]; ok {
				a.score += contribution
			} else {
				hCopy := h
				hCopy.Source = types.SourceHybrid
				byChunk[h.ChunkID] = &accum{hit: hCopy, score: contribution}
				order = append(order, h.ChunkID)
			}
		}
	}

	out := make([]types.Hit, 0, len(order))
	for _, id := range order {
		a := byChunk[id]
		a.hit.Score = a.score
		out = append(out, a.hit)
	}
	sortHits(out)
	return out
}

// dedupeKeepHighest keeps only the highest-scoring hit per chunk_id,
// preserving first-seen metadata otherwise.
func dedupeKeepHighest(hits []types.Hit) []types.Hit {
	byChunk := map[string]types.Hit{}
	order := make([]string, 0, len(hits))
	for _, h := range hits {
		existing, ok := byChunk[h.ChunkID]
		if !ok {
			byChunk[h.ChunkID] = h
			order = append(order, h.ChunkID)
			continue
		}
		if h.Score > existing.Score {
			byChunk[h.ChunkID] = h
		}
	}
	out := make([]types.Hit, len(order))
	for i, id := range order {
		out[i] = byChunk[id]
	}
	return out
}

func truncate(hits []types.Hit, topK int) []types.Hit {
	if topK <= 0 || len(hits) <= topK {
		return hits
	}
	return hits[:topK]
}
