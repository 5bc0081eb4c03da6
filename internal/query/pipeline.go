package query

import (
	"context"

	"github.com/kbvault/kbvault/internal/types"
)

// pipelineState is threaded through the post-processing chain, same role
// as the teacher's ChatManage object threaded through its plugin chain.
type pipelineState struct {
	query string
	hits  []types.Hit
	topK  int
}

// stage is one link in the post-processing chain: do its own work, then
// call next to continue. Mirrors the teacher's
// Plugin.OnEvent(ctx, eventType, chatManage, next) shape, collapsed to a
// single fixed chain since this orchestrator only ever runs dedupe ->
// parent-expand -> rerank -> truncate in that order, never a dispatch table keyed by
// event type.
type stage func(ctx context.Context, st *pipelineState, next func(context.Context, *pipelineState) error) error

// runChain composes stages into one callable via the same nested-closure
// construction as the teacher's EventManager.buildHandler.
func runChain(ctx context.Context, stages []stage, st *pipelineState) error {
	next := func(context.Context, *pipelineState) error { return nil }
	for i := len(stages) - 1; i >= 0; i-- {
		current := stages[i]
		prevNext := next
		next = func(ctx context.Context, st *pipelineState) error {
			return current(ctx, st, prevNext)
		}
	}
	return next(ctx, st)
}
