package chunkers

import (
	"strings"

	"github.com/kbvault/kbvault/internal/types"
)

// MarkdownChunker splits on heading boundaries (lines starting with one or
// more '#'), one piece per section, recording the heading path in each
// piece's metadata so retrieval results can show their section context.
type MarkdownChunker struct {
	maxSize int
}

func NewMarkdownChunker(params map[string]any) *MarkdownChunker {
	return &MarkdownChunker{maxSize: intParam(params, "chunk_size", 1024)}
}

func (c *MarkdownChunker) Name() string { return "markdown" }

type mdSection struct {
	headingPath []string
	lines       []string
}

func (c *MarkdownChunker) Chunk(text string, params map[string]any) (*types.ChunkingResult, error) {
	maxSize := c.maxSize
	if v := intParam(params, "chunk_size", 0); v > 0 {
		maxSize = v
	}

	var sections []mdSection
	var pathStack []string
	current := mdSection{}

	flush := func() {
		if len(current.lines) > 0 {
			sections = append(sections, current)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, "#")
		level := len(line) - len(trimmed)
		isHeading := level > 0 && level <= 6 && strings.HasPrefix(trimmed, " ")
		if isHeading {
			flush()
			title := strings.TrimSpace(trimmed)
			if level-1 < len(pathStack) {
				pathStack = pathStack[:level-1]
			}
			pathStack = append(pathStack, title)
			current = mdSection{headingPath: append([]string{}, pathStack...)}
			continue
		}
		current.lines = append(current.lines, line)
	}
	flush()

	result := &types.ChunkingResult{}
	ordinal := 0
	for _, sec := range sections {
		body := strings.TrimSpace(strings.Join(sec.lines, "\n"))
		if body == "" {
			continue
		}
		for _, part := range chunkBySize(body, maxSize) {
			result.Pieces = append(result.Pieces, types.ChunkPiece{
				Ordinal:       ordinal,
				Type:          types.ChunkTypeStandard,
				ParentOrdinal: -1,
				Text:          part,
				Metadata:      map[string]any{"heading_path": sec.headingPath},
			})
			ordinal++
		}
	}
	return result, nil
}

func chunkBySize(text string, size int) []string {
	if size <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}
