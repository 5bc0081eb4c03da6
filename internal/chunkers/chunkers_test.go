package chunkers

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kbvault/kbvault/internal/types"
)

const sampleText = `Lorem ipsum dolor sit amet, consectetur adipiscing elit.
Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.

Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris.
Nisi ut aliquip ex ea commodo consequat.

Duis aute irure dolor in reprehenderit in voluptate velit esse cillum.`

func TestSimpleChunkerDeterministic(t *testing.T) {
	c := NewSimpleChunker(map[string]any{"chunk_size": 40})
	a, err := c.Chunk(sampleText, nil)
	require.NoError(t, err)
	b, err := c.Chunk(sampleText, nil)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("chunking not deterministic: %s", diff)
	}
	for _, p := range a.Pieces {
		require.LessOrEqual(t, len([]rune(p.Text)), 40)
	}
}

func TestSimpleChunkerSplitsOnSeparator(t *testing.T) {
	c := NewSimpleChunker(map[string]any{"chunk_size": 1024})
	res, err := c.Chunk(sampleText, nil)
	require.NoError(t, err)
	require.Len(t, res.Pieces, 3) // sampleText has three "\n\n"-separated paragraphs
}

func TestSimpleChunkerSplitsOversizedSegment(t *testing.T) {
	c := NewSimpleChunker(map[string]any{"chunk_size": 40})
	res, err := c.Chunk(sampleText, nil)
	require.NoError(t, err)
	require.Greater(t, len(res.Pieces), 3)
	for _, p := range res.Pieces {
		require.LessOrEqual(t, len([]rune(p.Text)), 40)
	}
}

func TestSlidingWindowChunkerOverlap(t *testing.T) {
	c := NewSlidingWindowChunker(map[string]any{"chunk_size": 50, "chunk_overlap": 10})
	res, err := c.Chunk(sampleText, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Pieces)
	for _, p := range res.Pieces {
		require.LessOrEqual(t, len([]rune(p.Text)), 50)
	}
	if len(res.Pieces) > 1 {
		first := res.Pieces[0].Text
		second := res.Pieces[1].Text
		tail := []rune(first)
		tail = tail[len(tail)-10:]
		require.True(t, strings.HasPrefix(second, string(tail)))
	}
}

func TestRecursiveChunkerRespectsSize(t *testing.T) {
	c := NewRecursiveChunker(map[string]any{"chunk_size": 80, "chunk_overlap": 10})
	res, err := c.Chunk(sampleText, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Pieces)
	for _, p := range res.Pieces {
		require.LessOrEqual(t, len([]rune(p.Text)), 80)
	}
}

func TestMarkdownChunkerHeadingPath(t *testing.T) {
	text := "# Title\nintro text\n\n## Section A\nbody a\n\n## Section B\nbody b\n"
	c := NewMarkdownChunker(map[string]any{"chunk_size": 1024})
	res, err := c.Chunk(text, nil)
	require.NoError(t, err)
	require.Len(t, res.Pieces, 3)
	require.Equal(t, []string{"Title"}, res.Pieces[0].Metadata["heading_path"])
	require.Equal(t, []string{"Title", "Section A"}, res.Pieces[1].Metadata["heading_path"])
	require.Equal(t, []string{"Title", "Section B"}, res.Pieces[2].Metadata["heading_path"])
}

func TestCodeChunkerGroupsBlocks(t *testing.T) {
	code := "func a() {\n  return 1\n}\n\nfunc b() {\n  return 2\n}\n"
	c := NewCodeChunker(map[string]any{"chunk_size": 1024, "language": "go"})
	res, err := c.Chunk(code, nil)
	require.NoError(t, err)
	require.Len(t, res.Pieces, 1) // both blocks merged under the size cap
	require.Equal(t, "go", res.Pieces[0].Metadata["language"])
}

func TestCodeChunkerSplitsOversizedBlocks(t *testing.T) {
	code := "func a() {\n  return 1\n}\n\nfunc b() {\n  return 2\n}\n"
	c := NewCodeChunker(map[string]any{"chunk_size": 10, "language": "go"})
	res, err := c.Chunk(code, nil)
	require.NoError(t, err)
	require.Greater(t, len(res.Pieces), 1)
}

func TestCodeChunkerPopulatesFunctionAndClassMetadata(t *testing.T) {
	code := "import \"fmt\"\n\nfunc a() {\n  return 1\n}\n\ntype T struct{}\n\nclass Widget {\n  render() {}\n}\n"
	c := NewCodeChunker(map[string]any{"chunk_size": 10, "language": "go"})
	res, err := c.Chunk(code, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Pieces)

	var sawFunc, sawImports bool
	for _, p := range res.Pieces {
		if p.Metadata["function_name"] == "a" {
			sawFunc = true
		}
		if imports, ok := p.Metadata["imports"].([]string); ok && len(imports) > 0 {
			sawImports = true
		}
	}
	require.True(t, sawFunc, "expected a piece with function_name=a")
	require.True(t, sawImports, "expected pieces to carry collected imports")
}

func TestParentChildChunkerParagraphMode(t *testing.T) {
	c := NewParentChildChunker(map[string]any{"parent_size": 100, "chunk_size": 30, "chunk_overlap": 5, "parent_mode": "paragraph"})
	res, err := c.Chunk(sampleText, nil)
	require.NoError(t, err)

	var sawParent bool
	for _, p := range res.Pieces {
		if p.Type == types.ChunkTypeParent {
			sawParent = true
			require.Equal(t, "paragraph", p.Metadata["parent_mode"])
			require.LessOrEqual(t, len([]rune(p.Text)), 100)
		}
		if p.Type == types.ChunkTypeChild {
			require.Contains(t, p.Metadata, "child_index")
		}
	}
	require.True(t, sawParent)
}

func TestParentChildChunkerLinksChildrenToParent(t *testing.T) {
	c := NewParentChildChunker(map[string]any{"parent_size": 100, "chunk_size": 30, "chunk_overlap": 5})
	res, err := c.Chunk(sampleText, nil)
	require.NoError(t, err)

	parentOrdinals := map[int]bool{}
	for _, p := range res.Pieces {
		if p.Type == "parent" {
			parentOrdinals[p.Ordinal] = true
		}
	}
	require.NotEmpty(t, parentOrdinals)
	for _, p := range res.Pieces {
		if p.Type == "child" {
			require.True(t, parentOrdinals[p.ParentOrdinal], "child %d references unknown parent %d", p.Ordinal, p.ParentOrdinal)
		}
	}
}

func TestRegistryBuildsAllSixChunkers(t *testing.T) {
	r := NewDefaultRegistry()
	for _, name := range []string{"simple", "sliding_window", "recursive", "markdown", "code", "parent_child"} {
		ch, err := r.Build(name, map[string]any{})
		require.NoError(t, err)
		require.Equal(t, name, ch.Name())
	}
	_, err := r.Build("unknown", nil)
	require.Error(t, err)
}
