package retriever

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
	"golang.org/x/sync/errgroup"
)

// hybridRetriever runs dense and sparse in parallel and combines their
// per-source min-max normalized scores by a weighted sum (spec.md §4.3).
type hybridRetriever struct {
	dense  interfaces.Retriever
	sparse interfaces.Retriever
	denseW float64
	sparseW float64
}

func newHybridRetriever(r *Registry, params map[string]any) (*hybridRetriever, error) {
	denseName := stringParam(params, "dense_retriever", "dense")
	sparseName := stringParam(params, "sparse_retriever", "bm25")

	dense, err := r.Build(denseName, nil)
	if err != nil {
		return nil, fmt.Errorf("hybrid: resolve dense sub-retriever: %w", err)
	}
	sparse, err := r.Build(sparseName, nil)
	if err != nil {
		return nil, fmt.Errorf("hybrid: resolve sparse sub-retriever: %w", err)
	}

	return &hybridRetriever{
		dense:   dense,
		sparse:  sparse,
		denseW:  floatParam(params, "dense_weight", 0.5),
		sparseW: floatParam(params, "sparse_weight", 0.5),
	}, nil
}

func (h *hybridRetriever) Name() string { return "hybrid" }

func (h *hybridRetriever) Retrieve(ctx context.Context, params types.RetrieveParams) ([]types.Hit, error) {
	var denseHits, sparseHits []types.Hit
	var denseErr, sparseErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		denseHits, denseErr = h.dense.Retrieve(gctx, params)
		return nil
	})
	g.Go(func() error {
		sparseHits, sparseErr = h.sparse.Retrieve(gctx, params)
		return nil
	})
	_ = g.Wait()

	if denseErr != nil && sparseErr != nil {
		return nil, errors.NewUpstreamUnavailableError(
			fmt.Sprintf("hybrid retriever: both sub-retrievers failed: dense=%v sparse=%v", denseErr, sparseErr))
	}

	denseHits = minMaxNormalize(denseHits)
	sparseHits = minMaxNormalize(sparseHits)

	byChunk := map[string]*types.Hit{}
	order := make([]string, 0, len(denseHits)+len(sparseHits))
	for _, hit := range denseHits {
		h2 := hit
		h2.Score = h.denseW * hit.Score
		byChunk[hit.ChunkID] = &h2
		order = append(order, hit.ChunkID)
	}
	for _, hit := range sparseHits {
		contribution := h.sparseW * hit.Score
		if existing, ok := byChunk[hit.ChunkID]; ok {
			existing.Score += contribution
			continue
		}
		h2 := hit
		h2.Score = contribution
		byChunk[hit.ChunkID] = &h2
		order = append(order, hit.ChunkID)
	}

	out := make([]types.Hit, 0, len(order))
	for _, id := range order {
		hit := *byChunk[id]
		hit.Source = types.SourceHybrid
		out = append(out, hit)
	}
	sortHits(out)
	return truncate(out, params.TopK), nil
}

var _ interfaces.Retriever = (*hybridRetriever)(nil)
