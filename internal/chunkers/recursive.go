package chunkers

import (
	"strings"

	"github.com/kbvault/kbvault/internal/types"
)

// RecursiveChunker splits on a descending list of separators (paragraph,
// then line, then sentence, then word), merging the resulting fragments back together up
// to chunk_size so pieces respect natural text boundaries instead of
// cutting mid-sentence.
type RecursiveChunker struct {
	chunkSize, overlap int
	separators         []string
}

var defaultSeparators = []string{"\n\n", "\n", ". ", " "}

func NewRecursiveChunker(params map[string]any) *RecursiveChunker {
	return &RecursiveChunker{
		chunkSize:  intParam(params, "chunk_size", 512),
		overlap:    intParam(params, "chunk_overlap", 64),
		separators: defaultSeparators,
	}
}

func (c *RecursiveChunker) Name() string { return "recursive" }

func (c *RecursiveChunker) Chunk(text string, params map[string]any) (*types.ChunkingResult, error) {
	size := c.chunkSize
	if v := intParam(params, "chunk_size", 0); v > 0 {
		size = v
	}
	if size <= 0 {
		size = 512
	}
	overlap := intParam(params, "chunk_overlap", c.overlap)

	fragments := split(text, c.separators, size)
	merged := mergeFragments(fragments, size, overlap)

	result := &types.ChunkingResult{}
	for i, m := range merged {
		result.Pieces = append(result.Pieces, types.ChunkPiece{
			Ordinal:       i,
			Type:          types.ChunkTypeStandard,
			ParentOrdinal: -1,
			Text:          m,
		})
	}
	return result, nil
}

// split breaks text on the first separator that occurs in it, then
// recurses each resulting fragment against the remaining separators only
// when that fragment is still too large — never returning a fragment
// bigger than size when separators or a final hard cut can still shrink
// it, per the size invariant every chunker must uphold.
func split(text string, separators []string, size int) []string {
	if len([]rune(text)) <= size {
		return []string{text}
	}
	if len(separators) == 0 {
		return chunkBySize(text, size)
	}

	sep := separators[0]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return split(text, separators[1:], size)
	}

	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += sep
		}
		if p == "" {
			continue
		}
		if len([]rune(p)) <= size {
			out = append(out, p)
		} else {
			out = append(out, split(p, separators[1:], size)...)
		}
	}
	return out
}

// mergeFragments packs already size-bounded fragments (as produced by
// split) into pieces up to size, carrying an overlap tail into the next
// piece. A fragment that is itself too large to carry alongside the
// previous piece's overlap is hard-split rather than allowed to exceed
// size, and a fragment still oversized on its own (should not occur given
// split's guarantee, but kept as a defensive floor) is hard-split too.
func mergeFragments(fragments []string, size, overlap int) []string {
	var merged []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			merged = append(merged, string(current))
			current = nil
		}
	}

	for _, frag := range fragments {
		fragRunes := []rune(frag)

		if len(fragRunes) > size {
			flush()
			merged = append(merged, chunkBySize(frag, size)...)
			continue
		}

		if len(current) > 0 && len(current)+len(fragRunes) > size {
			carry := []rune(carryOverlap(string(current), overlap))
			flush()
			current = carry
		}
		if len(current)+len(fragRunes) > size {
			current = nil
		}
		current = append(current, fragRunes...)
	}
	flush()
	return merged
}

func carryOverlap(s string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= overlap {
		return s
	}
	return string(runes[len(runes)-overlap:])
}
