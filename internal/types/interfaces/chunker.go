// Package interfaces collects the contracts components depend on, mirroring
// the teacher's types/interfaces split between data shapes and behavior.
package interfaces

import "github.com/kbvault/kbvault/internal/types"

// Chunker splits a document's text into ChunkPieces. Implementations must
// be deterministic: the same text and params always produce the same
// ordinal sequence.
type Chunker interface {
	Chunk(text string, params map[string]any) (*types.ChunkingResult, error)
	Name() string
}

// ChunkerFactory builds a Chunker from knowledge-base-supplied params.
// Registered factories are looked up by the chunker type name.
type ChunkerFactory func(params map[string]any) (Chunker, error)
