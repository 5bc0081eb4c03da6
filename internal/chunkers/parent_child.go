package chunkers

import (
	"strings"

	"github.com/kbvault/kbvault/internal/types"
)

// ParentChildChunker produces a large "parent" piece per window (stored
// for context expansion but never matched directly) followed by the
// smaller "child" pieces within it that are actually retrievable,
// matching the teacher's Chunk.ParentChunkID relationship. parent_mode
// selects how parent windows are built: "fixed" (default) slices the
// document into fixed-size rune windows; "paragraph" instead groups
// whole paragraphs together up to parent_size, so a parent never cuts a
// paragraph in half unless that paragraph alone exceeds parent_size.
type ParentChildChunker struct {
	parentSize, childSize, childOverlap int
	parentMode                          string
}

func NewParentChildChunker(params map[string]any) *ParentChildChunker {
	return &ParentChildChunker{
		parentSize:   intParam(params, "parent_size", 2048),
		childSize:    intParam(params, "chunk_size", 512),
		childOverlap: intParam(params, "chunk_overlap", 64),
		parentMode:   strParam(params, "parent_mode", "fixed"),
	}
}

func (c *ParentChildChunker) Name() string { return "parent_child" }

func (c *ParentChildChunker) Chunk(text string, params map[string]any) (*types.ChunkingResult, error) {
	parentSize := c.parentSize
	if v := intParam(params, "parent_size", 0); v > 0 {
		parentSize = v
	}
	childSize := c.childSize
	if v := intParam(params, "chunk_size", 0); v > 0 {
		childSize = v
	}
	childOverlap := intParam(params, "chunk_overlap", c.childOverlap)
	mode := strParam(params, "parent_mode", c.parentMode)
	if mode == "" {
		mode = "fixed"
	}
	if parentSize <= 0 {
		parentSize = 2048
	}
	if childSize <= 0 || childSize >= parentSize {
		childSize = parentSize / 4
	}

	parents := buildParents(text, mode, parentSize)

	result := &types.ChunkingResult{}
	ordinal := 0
	for _, parentText := range parents {
		parentOrdinal := ordinal
		result.Pieces = append(result.Pieces, types.ChunkPiece{
			Ordinal:       parentOrdinal,
			Type:          types.ChunkTypeParent,
			ParentOrdinal: -1,
			Text:          parentText,
			Metadata:      map[string]any{"parent_mode": mode},
		})
		ordinal++

		step := childSize - childOverlap
		if step <= 0 {
			step = childSize
		}
		runes := []rune(parentText)
		childIndex := 0
		for cStart := 0; cStart < len(runes); cStart += step {
			cEnd := cStart + childSize
			if cEnd > len(runes) {
				cEnd = len(runes)
			}
			result.Pieces = append(result.Pieces, types.ChunkPiece{
				Ordinal:       ordinal,
				Type:          types.ChunkTypeChild,
				ParentOrdinal: parentOrdinal,
				Text:          string(runes[cStart:cEnd]),
				Metadata:      map[string]any{"child_index": childIndex},
			})
			ordinal++
			childIndex++
			if cEnd == len(runes) {
				break
			}
		}
	}
	return result, nil
}

// buildParents builds the document's parent windows per mode: "fixed"
// slices it into parent_size rune windows; "paragraph" groups whole
// double-newline-separated paragraphs up to parent_size, hard-splitting
// only a paragraph that alone exceeds it.
func buildParents(text string, mode string, parentSize int) []string {
	if mode == "paragraph" {
		var paragraphs []string
		for _, p := range strings.Split(text, "\n\n") {
			if p != "" {
				paragraphs = append(paragraphs, p)
			}
		}
		if len(paragraphs) == 0 {
			return nil
		}
		return mergeFragments(paragraphs, parentSize, 0)
	}

	runes := []rune(text)
	var parents []string
	for start := 0; start < len(runes); start += parentSize {
		end := start + parentSize
		if end > len(runes) {
			end = len(runes)
		}
		parents = append(parents, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return parents
}
