package retriever

import (
	"context"
	"fmt"

	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// parentChildRetriever runs its base retriever restricted to child-type
// chunks, then expands each matched child to its parent (spec.md §4.3): in
// "replace" mode (the default) the parent substitutes for the matched
// children, carrying a matched_children diagnostic; in "attach" mode the
// parent is appended alongside the children rather than replacing them.
type parentChildRetriever struct {
	base      interfaces.Retriever
	chunkRepo interfaces.ChunkRepository
	attach    bool
}

func newParentChildRetriever(r *Registry, chunkRepo interfaces.ChunkRepository, params map[string]any) (*parentChildRetriever, error) {
	baseName := stringParam(params, "base_retriever", "dense")
	base, err := r.Build(baseName, nil)
	if err != nil {
		return nil, fmt.Errorf("parent_child: resolve base retriever: %w", err)
	}
	return &parentChildRetriever{
		base:      base,
		chunkRepo: chunkRepo,
		attach:    stringParam(params, "mode", "replace") == "attach",
	}, nil
}

func (p *parentChildRetriever) Name() string { return "parent_child" }

func (p *parentChildRetriever) Retrieve(ctx context.Context, params types.RetrieveParams) ([]types.Hit, error) {
	childParams := params
	childParams.ChildOnly = true
	children, err := p.base.Retrieve(ctx, childParams)
	if err != nil {
		return nil, fmt.Errorf("parent_child: base retrieve: %w", err)
	}
	if len(children) == 0 || p.chunkRepo == nil {
		return children, nil
	}

	type parentAccum struct {
		hit            types.Hit
		matchedChildren []string
	}
	parents := map[string]*parentAccum{}
	parentOrder := make([]string, 0)

	out := make([]types.Hit, 0, len(children))
	for _, child := range children {
		parentID, _ := child.Metadata["parent_id"].(string)
		if parentID == "" {
			out = append(out, child)
			continue
		}
		if p.attach {
			out = append(out, child)
		}

		if acc, ok := parents[parentID]; ok {
			acc.matchedChildren = append(acc.matchedChildren, child.ChunkID)
			if child.Score > acc.hit.Score {
				acc.hit.Score = child.Score
			}
			continue
		}

		parentChunk, err := p.chunkRepo.GetByID(ctx, parentID)
		if err != nil {
			// Parent missing (deleted, race with re-ingest): keep the child
			// as-is rather than dropping the hit.
			out = append(out, child)
			continue
		}
		parentHit := types.Hit{
			ChunkID:    parentChunk.ID,
			DocumentID: parentChunk.DocumentID,
			Text:       parentChunk.Text,
			Score:      child.Score,
			Source:     child.Source,
			Match:      child.Match,
			DocACL:     child.DocACL,
			Metadata:   map[string]any{},
		}
		parents[parentID] = &parentAccum{hit: parentHit, matchedChildren: []string{child.ChunkID}}
		parentOrder = append(parentOrder, parentID)
	}

	for _, id := range parentOrder {
		acc := parents[id]
		acc.hit.Metadata = withDiagnostic(acc.hit.Metadata, "matched_children", acc.matchedChildren)
		out = append(out, acc.hit)
	}

	sortHits(out)
	return truncate(out, params.TopK), nil
}

var _ interfaces.Retriever = (*parentChildRetriever)(nil)
