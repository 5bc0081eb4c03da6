package retriever

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
	"golang.org/x/sync/errgroup"
)

// fusionRetriever fans out to several configured sub-retrievers and merges
// their ranked lists by reciprocal rank fusion or, if weights are supplied,
// weighted normalized-score fusion. An optional rerank stage replaces the
// fused scores of its top-N hits with a cross-encoder's relevance scores
// (spec.md §4.3).
type fusionRetriever struct {
	subRetrievers []interfaces.Retriever
	weights       []float64 // nil => pure RRF
	k             int
	reranker      interfaces.Reranker
	rerankTopN    int
}

func newFusionRetriever(r *Registry, reranker interfaces.Reranker, params map[string]any) (*fusionRetriever, error) {
	names := stringSliceParam(params, "retrievers", []string{"dense", "bm25"})
	if len(names) == 0 {
		return nil, fmt.Errorf("fusion: at least one sub-retriever is required")
	}

	subs := make([]interfaces.Retriever, len(names))
	for i, name := range names {
		sub, err := r.Build(name, nil)
		if err != nil {
			return nil, fmt.Errorf("fusion: resolve sub-retriever %q: %w", name, err)
		}
		subs[i] = sub
	}

	var weights []float64
	if raw, ok := params["weights"]; ok {
		parsed := make([]float64, 0, len(names))
		switch vs := raw.(type) {
		case []float64:
			parsed = vs
		case []any:
			for _, v := range vs {
				switch n := v.(type) {
				case float64:
					parsed = append(parsed, n)
				case int:
					parsed = append(parsed, float64(n))
				}
			}
		}
		if len(parsed) == len(names) {
			weights = parsed
		}
	}

	return &fusionRetriever{
		subRetrievers: subs,
		weights:       weights,
		k:             intParam(params, "rrf_k", rrfDefaultK),
		reranker:      reranker,
		rerankTopN:    intParam(params, "rerank_top_n", 0),
	}, nil
}

func (f *fusionRetriever) Name() string { return "fusion" }

func (f *fusionRetriever) Retrieve(ctx context.Context, params types.RetrieveParams) ([]types.Hit, error) {
	results := make([][]types.Hit, len(f.subRetrievers))
	errs := make([]error, len(f.subRetrievers))

	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range f.subRetrievers {
		i, sub := i, sub
		g.Go(func() error {
			hits, err := sub.Retrieve(gctx, params)
			results[i] = hits
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()

	survivors := make([][]types.Hit, 0, len(results))
	failures := 0
	for i, hits := range results {
		if errs[i] != nil {
			failures++
			continue
		}
		survivors = append(survivors, hits)
	}
	if failures == len(f.subRetrievers) {
		return nil, errors.NewUpstreamUnavailableError("fusion retriever: every sub-retriever failed")
	}

	var fused []types.Hit
	if f.weights != nil {
		fused = f.weightedFusion(survivors)
	} else {
		fused = reciprocalRankFusion(f.k, survivors...)
	}

	if f.reranker != nil && len(fused) > 0 {
		reranked, err := f.rerank(ctx, params.Query, fused)
		if err == nil {
			fused = reranked
		}
	}

	return truncate(fused, params.TopK), nil
}

// weightedFusion combines each sub-retriever's per-source min-max
// normalized scores by the configured weights, summing per chunk_id.
func (f *fusionRetriever) weightedFusion(lists [][]types.Hit) []types.Hit {
	byChunk := map[string]*types.Hit{}
	order := make([]string, 0)

	for i, list := range lists {
		weight := 1.0
		if i < len(f.weights) {
			weight = f.weights[i]
		}
		normalized := minMaxNormalize(list)
		for _, hit := range normalized {
			contribution := weight * hit.Score
			if existing, ok := byChunk[hit.ChunkID]; ok {
				existing.Score += contribution
				continue
			}
			h2 := hit
			h2.Score = contribution
			h2.Source = types.SourceHybrid
			byChunk[hit.ChunkID] = &h2
			order = append(order, hit.ChunkID)
		}
	}

	out := make([]types.Hit, len(order))
	for i, id := range order {
		out[i] = *byChunk[id]
	}
	sortHits(out)
	return out
}

// rerank replaces the fused scores of the top rerankTopN hits (or all, if
// rerankTopN is unset) with the reranker's relevance scores and re-sorts.
func (f *fusionRetriever) rerank(ctx context.Context, query string, hits []types.Hit) ([]types.Hit, error) {
	n := len(hits)
	if f.rerankTopN > 0 && f.rerankTopN < n {
		n = f.rerankTopN
	}
	head := hits[:n]
	tail := hits[n:]

	texts := make([]string, len(head))
	for i, h := range head {
		texts[i] = h.Text
	}

	results, err := f.reranker.Rerank(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("fusion rerank: %w", err)
	}

	reranked := make([]types.Hit, len(head))
	for _, res := range results {
		idx := int(res.Index)
		if idx < 0 || idx >= len(head) {
			continue
		}
		hit := head[idx]
		hit.Score = res.Score
		reranked[idx] = hit
	}

	out := append(reranked, tail...)
	sortHits(out)
	return out, nil
}

var _ interfaces.Retriever = (*fusionRetriever)(nil)
