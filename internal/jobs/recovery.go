// Package jobs drives asynq-based background work: the stale-pending-chunk
// recovery scan described in spec.md §5, registered and run the way the
// teacher wires task handlers in internal/common/asyncq.go.
package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/kbvault/kbvault/internal/logger"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// TaskTypeRecoverStaleChunks is the asynq task type the scheduler enqueues
// on its cron schedule.
const TaskTypeRecoverStaleChunks = "chunk:recover_stale"

// RecoveryHandler re-drives documents whose chunks are stuck in pending
// longer than Config.StaleAfterSeconds, e.g. after a process crashed
// mid-ingest. Re-ingesting is safe: the Ingestion Orchestrator always
// deletes-then-reingests.
type RecoveryHandler struct {
	cfg    Config
	chunks interfaces.ChunkRepository
	ingest interfaces.Ingestor
}

func NewRecoveryHandler(cfg Config, chunks interfaces.ChunkRepository, ingest interfaces.Ingestor) *RecoveryHandler {
	return &RecoveryHandler{cfg: cfg.withDefaults(), chunks: chunks, ingest: ingest}
}

var _ asynq.Handler = (*RecoveryHandler)(nil)

// ProcessTask implements asynq.Handler.
func (h *RecoveryHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	stale, err := h.chunks.ListStalePending(ctx, h.cfg.StaleAfterSeconds, h.cfg.ScanBatchSize)
	if err != nil {
		return fmt.Errorf("list stale pending chunks: %w", err)
	}

	seenDocs := make(map[string]bool, len(stale))
	for _, c := range stale {
		if seenDocs[c.DocumentID] {
			continue
		}
		seenDocs[c.DocumentID] = true

		if _, err := h.ingest.Ingest(ctx, interfaces.IngestRequest{DocumentID: c.DocumentID}); err != nil {
			logger.Errorf(ctx, "recovery: re-ingest document %s: %v", c.DocumentID, err)
		}
	}
	return nil
}
