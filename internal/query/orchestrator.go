// Package query implements the Query Orchestrator: validate scope,
// select and run a retriever, post-process, and apply the final ACL
// trim (spec.md §4.6).
package query

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/acl"
	"github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/retriever"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

const defaultTopK = 10

// Orchestrator implements interfaces.QueryEngine.
type Orchestrator struct {
	kbs        interfaces.KnowledgeBaseRepository
	chunks     interfaces.ChunkRepository
	retrievers *retriever.Registry
	reranker   interfaces.Reranker
}

func NewOrchestrator(
	kbs interfaces.KnowledgeBaseRepository,
	chunks interfaces.ChunkRepository,
	retrievers *retriever.Registry,
	reranker interfaces.Reranker,
) *Orchestrator {
	return &Orchestrator{kbs: kbs, chunks: chunks, retrievers: retrievers, reranker: reranker}
}

var _ interfaces.QueryEngine = (*Orchestrator)(nil)

// Retrieve runs the six-step algorithm from spec.md §4.6.
func (o *Orchestrator) Retrieve(ctx context.Context, req interfaces.RetrieveRequest) (*types.QueryResult, error) {
	kbs, err := o.resolveScopedKBs(ctx, req)
	if err != nil {
		return nil, err
	}

	embeddingModelID, err := compatibleEmbeddingModel(kbs)
	if err != nil {
		return nil, err
	}

	retrieverName, params := o.chooseRetriever(req, kbs)
	ret, err := o.retrievers.Build(retrieverName, params)
	if err != nil {
		return nil, errors.NewInternalServerError(fmt.Sprintf("resolve retriever %q: %v", retrieverName, err))
	}

	topK := req.TopK
	if topK <= 0 {
		topK = kbs[0].Retriever().TopK
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	hits, err := ret.Retrieve(ctx, types.RetrieveParams{
		TenantID:         req.RequestCtx.TenantID,
		KnowledgeBaseIDs: req.KnowledgeBaseIDs,
		Query:            req.Query,
		TopK:             topK,
		Identity:         req.RequestCtx.Identity,
		HasIdentity:      true,
		EmbeddingModelID: embeddingModelID,
	})
	if err != nil {
		return nil, err
	}
	totalCandidates := len(hits)

	st := &pipelineState{query: req.Query, hits: hits, topK: topK}
	stages := []stage{dedupeStage(), parentExpandStage(o.chunks), rerankStage(o.reranker), truncateStage()}
	if err := runChain(ctx, stages, st); err != nil {
		return nil, err
	}

	isAdmin := req.RequestCtx.IsAdmin()
	trimmed := acl.Trim(st.hits, req.RequestCtx.Identity, isAdmin)
	if totalCandidates > 0 && len(trimmed) == 0 {
		return nil, errors.NewNoPermissionError("retrieval produced candidates but none are visible to this identity")
	}

	info := types.RetrievalInfo{
		Retriever: retrieverName,
		Embedding: types.ModelInfo{ID: embeddingModelID, Kind: "embedding"},
	}
	if o.reranker != nil {
		info.Rerank = &types.ModelInfo{ID: o.reranker.ModelID(), Kind: "rerank"}
	}

	return &types.QueryResult{Hits: trimmed, TotalCandidates: totalCandidates, Retrieval: info}, nil
}

// resolveScopedKBs validates that every requested kb_id belongs to the
// caller's tenant and, if the api-key carries a scope whitelist, is
// within it. Cross-tenant kb_ids are reported as NotFound, never a
// distinguishable PermissionDenied, so a caller cannot probe for the
// existence of another tenant's knowledge base.
func (o *Orchestrator) resolveScopedKBs(ctx context.Context, req interfaces.RetrieveRequest) ([]*types.KnowledgeBase, error) {
	if len(req.KnowledgeBaseIDs) == 0 {
		return nil, errors.NewValidationError("at least one knowledge_base_id is required")
	}

	kbs := make([]*types.KnowledgeBase, 0, len(req.KnowledgeBaseIDs))
	for _, id := range req.KnowledgeBaseIDs {
		kb, err := o.kbs.GetByID(ctx, id)
		if err != nil || kb.TenantID != req.RequestCtx.TenantID {
			return nil, errors.NewNotFoundError(fmt.Sprintf("knowledge base %q not found", id))
		}
		if !req.RequestCtx.InScope(id) {
			return nil, errors.NewPermissionDeniedError(fmt.Sprintf("knowledge base %q is outside this api key's scope", id))
		}
		kbs = append(kbs, kb)
	}
	return kbs, nil
}

// compatibleEmbeddingModel returns the shared embedding model id across
// every scoped KB, failing with ConfigMismatch if they diverge (spec.md
// §4.6 step 3) since a single retrieval call embeds the query once.
func compatibleEmbeddingModel(kbs []*types.KnowledgeBase) (string, error) {
	first := kbs[0].Embedding()
	for _, kb := range kbs[1:] {
		cfg := kb.Embedding()
		if cfg.ModelID != first.ModelID || cfg.Dimensions != first.Dimensions {
			return "", errors.NewConfigMismatchError("knowledge bases in this request use different embedding configs")
		}
	}
	return first.ModelID, nil
}

// chooseRetriever applies spec.md §4.6 step 2: an explicit override wins
// over every KB's own configured retriever. When kb_ids mix configs
// without an override, the first KB's config is used; heterogeneous
// cross-KB scopes are expected to pass an override.
func (o *Orchestrator) chooseRetriever(req interfaces.RetrieveRequest, kbs []*types.KnowledgeBase) (string, map[string]any) {
	if req.RetrieverOverride != "" {
		return req.RetrieverOverride, nil
	}
	return retrieverSelection(kbs[0].Retriever())
}
