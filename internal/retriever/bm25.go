package retriever

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// bm25Retriever runs a keyword search against the sparse store and
// normalizes its raw per-batch scores to [0,1] (spec.md §4.3).
type bm25Retriever struct {
	store interfaces.SparseStore
}

func newBM25Retriever(store interfaces.SparseStore) *bm25Retriever {
	return &bm25Retriever{store: store}
}

func (b *bm25Retriever) Name() string { return "bm25" }

func (b *bm25Retriever) Retrieve(ctx context.Context, params types.RetrieveParams) ([]types.Hit, error) {
	filter := storeFilterFor(params)
	hits, err := b.store.Search(ctx, params.Query, params.TopK, filter)
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}
	for i := range hits {
		hits[i].Source = types.SourceBM25
		hits[i].Match = types.MatchDirect
	}
	hits = minMaxNormalize(hits)
	sortHits(hits)
	return truncate(hits, params.TopK), nil
}

var _ interfaces.Retriever = (*bm25Retriever)(nil)
