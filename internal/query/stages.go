package query

import (
	"context"

	"github.com/kbvault/kbvault/internal/logger"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// dedupeStage drops hits that repeat a chunk-id already seen, keeping the
// first (highest-ranked, since retrievers return hits score-sorted)
// occurrence. Fusion already dedupes across its own sub-retrievers, but a
// single-engine retriever or a caller-supplied override does not.
func dedupeStage() stage {
	return func(ctx context.Context, st *pipelineState, next func(context.Context, *pipelineState) error) error {
		seen := make(map[string]bool, len(st.hits))
		deduped := st.hits[:0]
		for _, h := range st.hits {
			if seen[h.ChunkID] {
				continue
			}
			seen[h.ChunkID] = true
			deduped = append(deduped, h)
		}
		st.hits = deduped
		return next(ctx, st)
	}
}

// parentExpandStage replaces a child chunk's hit with its parent chunk's
// text when the knowledge base's chunker produced parent/child pairs,
// same expansion spec.md's parent_child retriever variant names but made
// generic here so it applies regardless of which retriever ran.
func parentExpandStage(chunks interfaces.ChunkRepository) stage {
	return func(ctx context.Context, st *pipelineState, next func(context.Context, *pipelineState) error) error {
		for i, h := range st.hits {
			chunk, err := chunks.GetByID(ctx, h.ChunkID)
			if err != nil || !chunk.HasParent() {
				continue
			}
			parent, err := chunks.GetByID(ctx, chunk.ParentChunkID)
			if err != nil {
				logger.Warnf(ctx, "query: parent expand chunk %s: %v", h.ChunkID, err)
				continue
			}
			st.hits[i].ChunkID = parent.ID
			st.hits[i].Text = parent.Text
			st.hits[i].Metadata = map[string]any(parent.Metadata)
		}
		return next(ctx, st)
	}
}

// rerankStage reorders hits by a cross-encoder-style reranker call
// (truncation to st.topK is left to truncateStage), distinct from any rerank a retriever (e.g.
// fusion) already performs internally on its own sub-results.
func rerankStage(reranker interfaces.Reranker) stage {
	return func(ctx context.Context, st *pipelineState, next func(context.Context, *pipelineState) error) error {
		if reranker == nil || len(st.hits) == 0 {
			return next(ctx, st)
		}

		docs := make([]string, len(st.hits))
		for i, h := range st.hits {
			docs[i] = h.Text
		}

		ranked, err := reranker.Rerank(ctx, st.query, docs)
		if err != nil {
			logger.Warnf(ctx, "query: rerank failed, keeping retriever order: %v", err)
			return next(ctx, st)
		}

		reordered := make([]types.Hit, 0, len(ranked))
		for _, r := range ranked {
			idx := int(r.Index)
			if idx < 0 || idx >= len(st.hits) {
				continue
			}
			h := st.hits[idx]
			h.Score = r.Score
			reordered = append(reordered, h)
		}
		st.hits = reordered
		return next(ctx, st)
	}
}

// truncateStage caps the final hit count at st.topK, applied last so
// rerank and parent-expansion see the full candidate set first.
func truncateStage() stage {
	return func(ctx context.Context, st *pipelineState, next func(context.Context, *pipelineState) error) error {
		if st.topK > 0 && len(st.hits) > st.topK {
			st.hits = st.hits[:st.topK]
		}
		return next(ctx, st)
	}
}
