package chunkers

import (
	"regexp"
	"strings"

	"github.com/kbvault/kbvault/internal/types"
)

// CodeChunker splits source on function/class boundaries detected by
// regex (Go/Python/JS-style signatures), merging adjacent small blocks up
// to chunk_size and hard-splitting any block that alone exceeds it. Each
// piece carries the language plus whichever function/class name and
// import list its boundary detection found.
type CodeChunker struct {
	maxSize  int
	language string
}

func NewCodeChunker(params map[string]any) *CodeChunker {
	return &CodeChunker{
		maxSize:  intParam(params, "chunk_size", 1024),
		language: strParam(params, "language", ""),
	}
}

func (c *CodeChunker) Name() string { return "code" }

var (
	funcNameRe   = regexp.MustCompile(`^\s*(?:[\w.]+\s+)*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`)
	defNameRe    = regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	jsFuncNameRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+([A-Za-z_]\w*)\s*\(`)
	classNameRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_]\w*)`)
)

type codeBlock struct {
	text         string
	functionName string
	className    string
}

func (c *CodeChunker) Chunk(text string, params map[string]any) (*types.ChunkingResult, error) {
	maxSize := c.maxSize
	if v := intParam(params, "chunk_size", 0); v > 0 {
		maxSize = v
	}
	if maxSize <= 0 {
		maxSize = 1024
	}

	blocks := splitCodeBlocks(text)
	imports := collectImports(text, c.language)
	merged := mergeCodeBlocks(blocks, maxSize)

	result := &types.ChunkingResult{}
	ordinal := 0
	for _, b := range merged {
		body := strings.TrimRight(b.text, "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		for _, part := range chunkBySize(body, maxSize) {
			meta := map[string]any{"language": c.language}
			if b.functionName != "" {
				meta["function_name"] = b.functionName
			}
			if b.className != "" {
				meta["class_name"] = b.className
			}
			if len(imports) > 0 {
				meta["imports"] = imports
			}
			result.Pieces = append(result.Pieces, types.ChunkPiece{
				Ordinal:       ordinal,
				Type:          types.ChunkTypeStandard,
				ParentOrdinal: -1,
				Text:          part,
				Metadata:      meta,
			})
			ordinal++
		}
	}
	return result, nil
}

// splitCodeBlocks breaks text into one block per function/class start, so
// each boundary line begins a fresh block instead of being merged with
// whatever precedes it.
func splitCodeBlocks(text string) []codeBlock {
	var blocks []codeBlock
	var cur codeBlock

	flush := func() {
		if strings.TrimSpace(cur.text) != "" {
			blocks = append(blocks, cur)
		}
		cur = codeBlock{}
	}

	for _, line := range strings.Split(text, "\n") {
		if fn := matchFunctionName(line); fn != "" {
			flush()
			cur.functionName = fn
		} else if cn := matchClassName(line); cn != "" {
			flush()
			cur.className = cn
		}
		cur.text += line + "\n"
	}
	flush()

	if len(blocks) == 0 {
		blocks = []codeBlock{{text: text}}
	}
	return blocks
}

func matchFunctionName(line string) string {
	for _, re := range [...]*regexp.Regexp{funcNameRe, defNameRe, jsFuncNameRe} {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

func matchClassName(line string) string {
	if m := classNameRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// collectImports gathers the file's import lines so they can be attached
// to every piece's metadata (spec's "optionally prepend imports").
func collectImports(text, language string) []string {
	var imports []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isImportLine(trimmed, language) {
			imports = append(imports, trimmed)
		}
	}
	return imports
}

func isImportLine(trimmed, language string) bool {
	switch language {
	case "python", "py":
		return strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ")
	case "go", "golang":
		return trimmed == "import (" || strings.HasPrefix(trimmed, `import "`)
	default:
		return strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ")
	}
}

// mergeCodeBlocks merges adjacent blocks up to size, keeping the first
// block's function/class name for the merged piece. A block that alone
// exceeds size is kept standalone for the caller to hard-split.
func mergeCodeBlocks(blocks []codeBlock, size int) []codeBlock {
	var merged []codeBlock
	var cur codeBlock
	curLen := 0

	flush := func() {
		if curLen > 0 {
			merged = append(merged, cur)
		}
		cur = codeBlock{}
		curLen = 0
	}

	for _, b := range blocks {
		bLen := len([]rune(b.text))
		if bLen > size {
			flush()
			merged = append(merged, b)
			continue
		}
		if curLen > 0 && curLen+bLen > size {
			flush()
		}
		if curLen == 0 {
			cur.functionName = b.functionName
			cur.className = b.className
		}
		cur.text += b.text
		curLen += bLen
	}
	flush()
	return merged
}
