package chunkers

import "github.com/kbvault/kbvault/internal/types"

// SlidingWindowChunker produces fixed-size pieces that overlap by a
// configurable number of runes, preserving more cross-boundary context
// than SimpleChunker at the cost of redundant storage.
type SlidingWindowChunker struct {
	chunkSize, overlap int
}

func NewSlidingWindowChunker(params map[string]any) *SlidingWindowChunker {
	return &SlidingWindowChunker{
		chunkSize: intParam(params, "chunk_size", 512),
		overlap:   intParam(params, "chunk_overlap", 64),
	}
}

func (c *SlidingWindowChunker) Name() string { return "sliding_window" }

func (c *SlidingWindowChunker) Chunk(text string, params map[string]any) (*types.ChunkingResult, error) {
	size := c.chunkSize
	if v := intParam(params, "chunk_size", 0); v > 0 {
		size = v
	}
	overlap := c.overlap
	if v, ok := params["chunk_overlap"]; ok {
		_ = v
		overlap = intParam(params, "chunk_overlap", overlap)
	}
	if size <= 0 {
		size = 512
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 8
	}
	step := size - overlap

	runes := []rune(text)
	result := &types.ChunkingResult{}
	ordinal := 0
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		result.Pieces = append(result.Pieces, types.ChunkPiece{
			Ordinal:       ordinal,
			Type:          types.ChunkTypeStandard,
			ParentOrdinal: -1,
			Text:          string(runes[start:end]),
		})
		ordinal++
		if end == len(runes) {
			break
		}
	}
	return result, nil
}
