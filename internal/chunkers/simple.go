package chunkers

import (
	"strings"

	"github.com/kbvault/kbvault/internal/types"
)

// SimpleChunker splits text on a configured separator (default double
// newline, i.e. paragraphs) and only falls back to a fixed-size rune-count
// split for segments that still exceed chunk_size.
type SimpleChunker struct {
	chunkSize int
	separator string
}

func NewSimpleChunker(params map[string]any) *SimpleChunker {
	return &SimpleChunker{
		chunkSize: intParam(params, "chunk_size", 512),
		separator: strParam(params, "separator", "\n\n"),
	}
}

func (c *SimpleChunker) Name() string { return "simple" }

func (c *SimpleChunker) Chunk(text string, params map[string]any) (*types.ChunkingResult, error) {
	size := c.chunkSize
	if v := intParam(params, "chunk_size", 0); v > 0 {
		size = v
	}
	if size <= 0 {
		size = 512
	}
	sep := c.separator
	if v := strParam(params, "separator", ""); v != "" {
		sep = v
	}
	if sep == "" {
		sep = "\n\n"
	}

	result := &types.ChunkingResult{}
	ordinal := 0
	for _, segment := range strings.Split(text, sep) {
		if segment == "" {
			continue
		}
		for _, part := range chunkBySize(segment, size) {
			result.Pieces = append(result.Pieces, types.ChunkPiece{
				Ordinal:       ordinal,
				Type:          types.ChunkTypeStandard,
				ParentOrdinal: -1,
				Text:          part,
			})
			ordinal++
		}
	}
	return result, nil
}
