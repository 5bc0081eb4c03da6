// Package ingest drives a document through chunk -> persist -> embed ->
// index, the flow spec.md §4.4 names the Ingestion Orchestrator.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/kbvault/kbvault/internal/acl"
	"github.com/kbvault/kbvault/internal/chunkers"
	"github.com/kbvault/kbvault/internal/errors"
	"github.com/kbvault/kbvault/internal/logger"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// Config tunes the orchestrator's batching and embedding-retry behavior.
type Config struct {
	EmbedTimeout       time.Duration // per-call timeout for one BatchEmbed call
	EmbedMaxTries      uint          // bounded attempt count, including the first try
	EmbedBatchSize     int           // chunk texts per BatchEmbed call
	MaxFailureFraction float64       // share of a document's chunks allowed to fail before the document itself is reported failed
}

func (c Config) withDefaults() Config {
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = 30 * time.Second
	}
	if c.EmbedMaxTries == 0 {
		c.EmbedMaxTries = 5
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = 32
	}
	if c.MaxFailureFraction <= 0 {
		c.MaxFailureFraction = 0.2
	}
	return c
}

// Orchestrator implements interfaces.Ingestor.
type Orchestrator struct {
	cfg Config

	docs    interfaces.DocumentRepository
	kbs     interfaces.KnowledgeBaseRepository
	tenants interfaces.TenantRepository
	chunks  interfaces.ChunkRepository

	chunkerReg *chunkers.Registry
	dense      interfaces.DenseStore
	sparse     interfaces.SparseStore

	resolveEmbedder func(modelID string) (interfaces.Embedder, error)

	locks *lockPool
}

func NewOrchestrator(
	cfg Config,
	docs interfaces.DocumentRepository,
	kbs interfaces.KnowledgeBaseRepository,
	tenants interfaces.TenantRepository,
	chunkRepo interfaces.ChunkRepository,
	chunkerReg *chunkers.Registry,
	dense interfaces.DenseStore,
	sparse interfaces.SparseStore,
	resolveEmbedder func(modelID string) (interfaces.Embedder, error),
) *Orchestrator {
	return &Orchestrator{
		cfg:             cfg.withDefaults(),
		docs:            docs,
		kbs:             kbs,
		tenants:         tenants,
		chunks:          chunkRepo,
		chunkerReg:      chunkerReg,
		dense:           dense,
		sparse:          sparse,
		resolveEmbedder: resolveEmbedder,
		locks:           newLockPool(),
	}
}

var _ interfaces.Ingestor = (*Orchestrator)(nil)

// Ingest runs the seven-step pipeline from spec.md §4.4 against the
// document named by req.DocumentID. At most one Ingest call runs per
// document at a time; a concurrent call for the same document blocks on
// the keyed lock rather than racing the relational/store writes.
func (o *Orchestrator) Ingest(ctx context.Context, req interfaces.IngestRequest) (*types.ChunkingResult, error) {
	unlock := o.locks.lock(req.DocumentID)
	defer unlock()

	doc, err := o.docs.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	kb, err := o.kbs.GetByID(ctx, doc.KnowledgeBaseID)
	if err != nil {
		return nil, err
	}

	// Re-ingestion is delete-then-reingest: wipe whatever the previous
	// run left in both stores and in relational storage, keyed by
	// document-id, before building the new chunk set.
	if err := o.deleteExisting(ctx, doc.ID); err != nil {
		return nil, err
	}

	chunkerCfg := kb.Chunker()
	chunker, err := o.chunkerReg.Build(chunkerCfg.Type, map[string]any{
		"chunk_size":    chunkerCfg.ChunkSize,
		"chunk_overlap": chunkerCfg.ChunkOverlap,
		"parent_size":   chunkerCfg.ParentSize,
		"language":      chunkerCfg.Language,
		"separator":     chunkerCfg.Separator,
		"parent_mode":   chunkerCfg.ParentMode,
	})
	if err != nil {
		return nil, errors.NewInternalServerError(fmt.Sprintf("resolve chunker %q: %v", chunkerCfg.Type, err))
	}

	result, err := chunker.Chunk(doc.Content, nil)
	if err != nil {
		return nil, errors.NewInternalServerError(fmt.Sprintf("chunk document: %v", err))
	}

	rows := buildChunkRows(doc, result.Pieces)
	if len(rows) == 0 {
		return result, nil
	}

	if err := o.enforceQuota(ctx, doc, rows); err != nil {
		return nil, err
	}

	if err := o.chunks.BatchCreate(ctx, rows); err != nil {
		return nil, errors.NewInternalServerError(fmt.Sprintf("persist chunks: %v", err))
	}

	embedder, err := o.resolveEmbedder(kb.Embedding().ModelID)
	if err != nil {
		o.failAll(ctx, rows, err)
		return result, nil
	}

	if indexErr := o.embedAndIndex(ctx, embedder, rows); indexErr != nil {
		logger.Warnf(ctx, "ingest: document %s partially indexed: %v", doc.ID, indexErr)
	}

	return result, nil
}

func (o *Orchestrator) deleteExisting(ctx context.Context, documentID string) error {
	if err := o.dense.DeleteByDocumentID(ctx, documentID); err != nil {
		return errors.NewUpstreamUnavailableError(fmt.Sprintf("delete existing dense entries: %v", err))
	}
	if err := o.sparse.DeleteByDocumentID(ctx, documentID); err != nil {
		return errors.NewUpstreamUnavailableError(fmt.Sprintf("delete existing sparse entries: %v", err))
	}
	if err := o.chunks.DeleteByDocumentID(ctx, documentID); err != nil {
		return errors.NewInternalServerError(fmt.Sprintf("delete existing chunk rows: %v", err))
	}
	return nil
}

// buildChunkRows assigns each piece a chunk-id, resolves parent/child
// linkage by ordinal, and inherits ACL metadata from the document (spec.md
// §4.4 step 3, §4.5's metadata_for_chunk).
func buildChunkRows(doc *types.Document, pieces []types.ChunkPiece) []types.Chunk {
	docACL := acl.MetadataForDocument(doc)

	ids := make(map[int]string, len(pieces))
	for _, p := range pieces {
		ids[p.Ordinal] = uuid.New().String()
	}

	now := time.Now()
	rows := make([]types.Chunk, 0, len(pieces))
	for _, p := range pieces {
		meta := make(map[string]any, len(p.Metadata)+8)
		for k, v := range p.Metadata {
			meta[k] = v
		}
		meta["text"] = p.Text
		meta["tenant_id"] = doc.TenantID
		meta["kb_id"] = doc.KnowledgeBaseID
		meta["doc_id"] = doc.ID
		meta["sensitivity_level"] = int(docACL.Sensitivity)
		meta["acl_allow_users"] = docACL.AllowUsers
		meta["acl_allow_roles"] = docACL.AllowRoles
		meta["acl_allow_groups"] = docACL.AllowGroups

		chunkType := p.Type
		if chunkType == "" {
			chunkType = types.ChunkTypeStandard
		}

		var parentID string
		switch chunkType {
		case types.ChunkTypeChild:
			if p.ParentOrdinal >= 0 {
				parentID = ids[p.ParentOrdinal]
				meta["parent_id"] = parentID
			}
			meta["child"] = true
		case types.ChunkTypeParent:
			meta["child"] = false
			meta["chunk_id"] = ids[p.Ordinal]
		}

		rows = append(rows, types.Chunk{
			ID:              ids[p.Ordinal],
			TenantID:        doc.TenantID,
			KnowledgeBaseID: doc.KnowledgeBaseID,
			DocumentID:      doc.ID,
			Ordinal:         p.Ordinal,
			Type:            chunkType,
			ParentChunkID:   parentID,
			Text:            p.Text,
			Metadata:        types.JSON(meta),
			IndexingStatus:  types.IndexingPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return rows
}

// enforceQuota rejects ingestion that would push the tenant's storage
// usage past its quota (spec.md's Tenant invariant; −1 quota = unlimited),
// otherwise records the added usage.
func (o *Orchestrator) enforceQuota(ctx context.Context, doc *types.Document, rows []types.Chunk) error {
	tenant, err := o.tenants.GetByID(ctx, doc.TenantID)
	if err != nil {
		return err
	}

	var totalBytes int64
	for _, r := range rows {
		totalBytes += int64(len(r.Text))
	}
	deltaMB := totalBytes / (1024 * 1024)
	if deltaMB == 0 && totalBytes > 0 {
		deltaMB = 1
	}

	if tenant.QuotaExceeded(deltaMB) {
		return errors.NewQuotaExceededError("storage quota exceeded for tenant")
	}
	tenant.StorageUsed += deltaMB
	return o.tenants.Update(ctx, tenant)
}

// embedAndIndex embeds and indexes rows in cfg.EmbedBatchSize-sized
// groups (spec.md §4.4 steps 4-6). An embedding failure in one batch
// marks only that batch's chunks failed; chunks from batches that embed
// successfully are still upserted into the dense/sparse stores and
// marked indexed. A dense/sparse upsert failure marks that batch's chunks
// failed, since the store adapters only report
// success/failure for the whole batched call. Returns an error only when
// more than cfg.MaxFailureFraction of the document's chunks failed, so
// the document itself can be reported failed without ever erroring
// chunks that actually indexed.
func (o *Orchestrator) embedAndIndex(ctx context.Context, embedder interfaces.Embedder, rows []types.Chunk) error {
	var indexed []types.Chunk
	failedCount := 0

	for start := 0; start < len(rows); start += o.cfg.EmbedBatchSize {
		end := start + o.cfg.EmbedBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = r.Text
		}

		vectors, err := o.embedBatchWithRetry(ctx, embedder, texts)
		if err != nil {
			o.failAll(ctx, batch, fmt.Errorf("embed chunks %d-%d: %w", start, end, err))
			failedCount += len(batch)
			continue
		}

		chunkIDs := make([]string, len(batch))
		metas := make([]map[string]any, len(batch))
		sparseTexts := make([]string, len(batch))
		for i, r := range batch {
			chunkIDs[i] = r.ID
			metas[i] = map[string]any(r.Metadata)
			sparseTexts[i] = r.Text
		}

		if err := o.dense.BatchUpsert(ctx, chunkIDs, vectors, metas); err != nil {
			o.failAll(ctx, batch, errors.NewUpstreamUnavailableError(fmt.Sprintf("dense upsert: %v", err)))
			failedCount += len(batch)
			continue
		}
		if err := o.sparse.BatchUpsert(ctx, chunkIDs, sparseTexts, metas); err != nil {
			o.failAll(ctx, batch, errors.NewUpstreamUnavailableError(fmt.Sprintf("sparse upsert: %v", err)))
			failedCount += len(batch)
			continue
		}

		indexed = append(indexed, batch...)
	}

	for _, r := range indexed {
		if err := o.chunks.UpdateStatus(ctx, r.ID, types.IndexingIndexed, ""); err != nil {
			logger.Errorf(ctx, "ingest: mark chunk %s indexed: %v", r.ID, err)
		}
	}

	if len(rows) > 0 && float64(failedCount)/float64(len(rows)) > o.cfg.MaxFailureFraction {
		return fmt.Errorf("%d/%d chunks failed to index, exceeding the configured failure fraction", failedCount, len(rows))
	}
	return nil
}

// embedBatchWithRetry embeds one batch, bounded by cfg.EmbedTimeout and
// retried with exponential backoff up to cfg.EmbedMaxTries attempts
// (spec.md §4.4 step 4).
func (o *Orchestrator) embedBatchWithRetry(ctx context.Context, embedder interfaces.Embedder, texts []string) ([][]float32, error) {
	return backoff.Retry(ctx, func() ([][]float32, error) {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.EmbedTimeout)
		defer cancel()
		return embedder.BatchEmbed(callCtx, texts)
	}, backoff.WithMaxTries(o.cfg.EmbedMaxTries), backoff.WithBackOff(backoff.NewExponentialBackOff()))
}

func (o *Orchestrator) failAll(ctx context.Context, rows []types.Chunk, cause error) {
	msg := cause.Error()
	for _, r := range rows {
		if err := o.chunks.UpdateStatus(ctx, r.ID, types.IndexingFailed, msg); err != nil {
			logger.Errorf(ctx, "ingest: mark chunk %s failed: %v", r.ID, err)
		}
	}
}
