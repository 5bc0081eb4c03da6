package types

import (
	"time"

	"gorm.io/gorm"
)

// ChunkType distinguishes ordinary retrievable chunks from parent chunks
// kept only for context expansion.
type ChunkType string

const (
	ChunkTypeStandard ChunkType = "standard"
	ChunkTypeParent   ChunkType = "parent"
	ChunkTypeChild    ChunkType = "child"
)

// Chunk is the indivisible unit of retrieval: a span of a Document's text,
// plus whatever vector/keyword index state the store adapters track for it.
type Chunk struct {
	ID              string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID        string         `json:"tenant_id" gorm:"index"`
	KnowledgeBaseID string         `json:"knowledge_base_id" gorm:"index"`
	DocumentID      string         `json:"document_id" gorm:"index"`
	Ordinal         int            `json:"ordinal"`
	Type            ChunkType      `json:"type" gorm:"type:varchar(10);default:'standard'"`
	ParentChunkID   string         `json:"parent_chunk_id" gorm:"index"`
	Text            string         `json:"text" gorm:"type:text"`
	Metadata        JSON           `json:"metadata" gorm:"type:json"`
	IndexingStatus  IndexingStatus `json:"indexing_status" gorm:"type:varchar(10);default:'pending'"`
	IndexingError   string         `json:"indexing_error"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// HasParent reports whether this chunk should be expanded to its parent
// during post-processing.
func (c *Chunk) HasParent() bool {
	return c.Type == ChunkTypeChild && c.ParentChunkID != ""
}

// ChunkPiece is the raw output of a Chunker, before persistence assigns it
// an ID, tenant, or knowledge-base reference.
type ChunkPiece struct {
	Ordinal       int
	Type          ChunkType
	ParentOrdinal int // only meaningful when Type == ChunkTypeChild; -1 if none
	Text          string
	Metadata      map[string]any
}

// ChunkingResult is what a Chunker.Chunk call returns: every piece
// produced from one document's text.
type ChunkingResult struct {
	Pieces []ChunkPiece
}
