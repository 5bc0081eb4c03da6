package rag

import (
	"bytes"
	"text/template"

	"github.com/kbvault/kbvault/internal/types"
)

// promptTemplate formats the fixed system preamble plus a numbered context
// section, the same text/template-driven assembly shape as the teacher's
// into_chat_message.go (swapped from html/template to text/template since
// this output goes to an LLM prompt, not HTML).
var promptTemplate = template.Must(template.New("rag_prompt").Parse(
	`{{.Preamble}}

Context:
{{range .Contexts}}[{{.Index}}] {{.Text}}
{{end}}
Question: {{.Query}}`))

type contextEntry struct {
	Index int
	Text  string
}

// buildPrompt truncates hit texts to fit maxChars of combined context,
// preserving retrieval order (spec.md §4.7 step 2): hits earlier in the
// slice are kept whole for as long as the budget allows, and the first
// hit that would overflow is cut rather than dropped, so a query with
// exactly one relevant hit still gets some context.
func buildPrompt(preamble, query string, hits []types.Hit, maxChars int) (string, error) {
	contexts := make([]contextEntry, 0, len(hits))
	remaining := maxChars
	for i, h := range hits {
		if remaining <= 0 {
			break
		}
		text := h.Text
		if len(text) > remaining {
			text = text[:remaining]
		}
		contexts = append(contexts, contextEntry{Index: i + 1, Text: text})
		remaining -= len(text)
	}

	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, map[string]any{
		"Preamble": preamble,
		"Contexts": contexts,
		"Query":    query,
	})
	return buf.String(), err
}
