package retriever

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/acl"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// denseRetriever embeds the query (unless a vector is already precomputed,
// as hyde/multi_query do for their hypotheticals/variants) and runs a
// vector similarity search with tenant/kb/ACL filter push-down.
type denseRetriever struct {
	store           interfaces.DenseStore
	resolveEmbedder func(modelID string) (interfaces.Embedder, error)
}

func newDenseRetriever(store interfaces.DenseStore, resolveEmbedder func(string) (interfaces.Embedder, error)) *denseRetriever {
	return &denseRetriever{store: store, resolveEmbedder: resolveEmbedder}
}

func (d *denseRetriever) Name() string { return "dense" }

func (d *denseRetriever) Retrieve(ctx context.Context, params types.RetrieveParams) ([]types.Hit, error) {
	vector := params.QueryVector
	if len(vector) == 0 {
		if d.resolveEmbedder == nil {
			return nil, fmt.Errorf("dense retriever: no embedder resolver configured")
		}
		embedder, err := d.resolveEmbedder(params.EmbeddingModelID)
		if err != nil {
			return nil, fmt.Errorf("resolve embedder: %w", err)
		}
		vector, err = embedder.Embed(ctx, params.Query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
	}

	filter := storeFilterFor(params)
	hits, err := d.store.Search(ctx, vector, params.TopK, filter)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}
	for i := range hits {
		hits[i].Source = types.SourceDense
		hits[i].Match = types.MatchDirect
	}
	sortHits(hits)
	return truncate(hits, params.TopK), nil
}

// storeFilterFor builds the push-down filter for a single retrieve call,
// reusing internal/acl's construction so dense and sparse retrievers apply
// the exact predicate internal/acl.Trim re-checks as defense in depth.
func storeFilterFor(params types.RetrieveParams) interfaces.StoreFilter {
	if !params.HasIdentity {
		return interfaces.StoreFilter{
			TenantID:         params.TenantID,
			KnowledgeBaseIDs: params.KnowledgeBaseIDs,
			ChildOnly:        params.ChildOnly,
		}
	}
	filter := acl.StoreFilter(params.TenantID, params.KnowledgeBaseIDs, params.Identity)
	filter.ChildOnly = params.ChildOnly
	return filter
}

var _ interfaces.Retriever = (*denseRetriever)(nil)
