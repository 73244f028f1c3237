package llm

import (
	"context"
	"fmt"
	"strings"
)

const notesSystemPrompt = `You reformat the notes to financial statements from raw extracted PDF text into clean markdown.
Rules:
- Each note heading ("Note 1 — Summary of Significant Accounting Policies") becomes a "### " heading.
- Reflow broken lines into paragraphs; keep the original wording verbatim.
- Preserve tabular data as markdown tables.
- Remove page numbers, repeated page headers, and footer artifacts.
- Output markdown only, no commentary.`

// FormatNotes reformats the notes section through the model, chunked at
// note boundaries so requests stay within the context window. Callers keep
// a local cleanup fallback for when this errors.
func FormatNotes(ctx context.Context, p Provider, text string) (string, error) {
	chunks := ChunkNotes(text, ChunkCharLimit)
	var out []string
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		resp, err := p.GenerateResponse(ctx, chunk, notesSystemPrompt, nil)
		if err != nil {
			return "", fmt.Errorf("notes formatting (chunk %d/%d): %w", i+1, len(chunks), err)
		}
		out = append(out, strings.TrimSpace(stripCodeFence(resp)))
	}
	return strings.Join(out, "\n\n"), nil
}

// stripCodeFence unwraps a response the model wrapped in ```markdown fences.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
