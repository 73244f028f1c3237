package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeProvider struct {
	resp string
	err  error

	prompts []string
	options []map[string]interface{}
}

func (f *fakeProvider) GenerateResponse(_ context.Context, prompt, _ string, options map[string]interface{}) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, options)
	return f.resp, f.err
}

func TestChunkNotesRespectsBoundaries(t *testing.T) {
	note1 := "Note 1 — Basis of Presentation\n" + strings.Repeat("aaaa ", 30)
	note2 := "Note 2 — Revenue\n" + strings.Repeat("bbbb ", 30)
	note3 := "Note 3 — Leases\n" + strings.Repeat("cccc ", 30)
	text := note1 + "\n" + note2 + "\n" + note3

	chunks := ChunkNotes(text, len(note1)+len(note2)+10)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[1], "Note 3") {
		t.Errorf("chunk 2 should open at a note boundary: %q", chunks[1][:20])
	}

	if got := ChunkNotes("short", 0); len(got) != 1 || got[0] != "short" {
		t.Errorf("under-limit text must pass through: %v", got)
	}
}

func TestChunkNotesOversizedNoteSplitsAtParagraphs(t *testing.T) {
	para1 := strings.Repeat("a", 60)
	para2 := strings.Repeat("b", 60)
	text := "Note 1 — Segments\n" + para1 + "\n\n" + para2

	chunks := ChunkNotes(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk over limit: %d", len(c))
		}
		total += len(c)
	}
	if total != len(text) {
		t.Errorf("content lost: %d of %d", total, len(text))
	}
	if chunks[1] != para2 {
		t.Errorf("split should land on the paragraph break, got %q", chunks[1][:10])
	}
}

func TestChunkProseHardSplit(t *testing.T) {
	// No headings, no paragraph breaks: the packer must still terminate.
	text := strings.Repeat("x", 250)
	chunks := ChunkProse(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk over limit: %d", len(c))
		}
		total += len(c)
	}
	if total != 250 {
		t.Errorf("content lost: %d of 250", total)
	}
}

func TestClassifyLabels(t *testing.T) {
	// Fenced, trailing comma: the tolerant decode chain has to absorb both.
	fake := &fakeProvider{resp: "```json\n" + `{
  "Net sales": "Revenue",
  "Provision for income taxes": "UNMAPPED",
  "Total shareholders' equity": "total stockholders' equity",
  "Made-up line": "Revenue",
}` + "\n```"}

	c := &LabelClassifier{Provider: fake}
	got, err := c.ClassifyLabels(context.Background(),
		[]string{"Net sales", "Provision for income taxes", "Total shareholders' equity"},
		[]string{"Revenue", "Total Stockholders' Equity"})
	if err != nil {
		t.Fatal(err)
	}

	if got["Net sales"] != "Revenue" {
		t.Errorf("Net sales = %q", got["Net sales"])
	}
	// Canonical casing comes from the allowed list, not the model.
	if got["Total shareholders' equity"] != "Total Stockholders' Equity" {
		t.Errorf("case normalization failed: %q", got["Total shareholders' equity"])
	}
	if _, ok := got["Provision for income taxes"]; ok {
		t.Error("UNMAPPED answers must be dropped")
	}
	if _, ok := got["Made-up line"]; ok {
		t.Error("answers for labels never asked must be dropped")
	}

	if !strings.Contains(fake.prompts[0], "- Revenue\n") {
		t.Error("prompt should list canonicals")
	}
	format, _ := fake.options[0]["response_format"].(map[string]interface{})
	if format["type"] != "json_object" {
		t.Errorf("classifier should request a JSON response, options = %v", fake.options[0])
	}
}

func TestClassifyLabelsEmptyAndError(t *testing.T) {
	c := &LabelClassifier{Provider: &fakeProvider{err: errors.New("quota")}}
	if got, err := c.ClassifyLabels(context.Background(), nil, nil); err != nil || len(got) != 0 {
		t.Errorf("empty input should short-circuit: %v, %v", got, err)
	}
	if _, err := c.ClassifyLabels(context.Background(), []string{"x"}, []string{"Revenue"}); err == nil {
		t.Error("provider errors must propagate so callers can degrade")
	}

	// A response no strategy can decode degrades the same way.
	c = &LabelClassifier{Provider: &fakeProvider{resp: "I cannot map these labels."}}
	if _, err := c.ClassifyLabels(context.Background(), []string{"x"}, []string{"Revenue"}); err == nil {
		t.Error("unparseable responses must propagate as errors")
	}
}

func TestFormatNotesStripsFences(t *testing.T) {
	fake := &fakeProvider{resp: "```markdown\n### Note 1 — Basis\n\nBody text.\n```"}
	got, err := FormatNotes(context.Background(), fake, "Note 1 Basis\nBody text.")
	if err != nil {
		t.Fatal(err)
	}
	if got != "### Note 1 — Basis\n\nBody text." {
		t.Errorf("fence not stripped: %q", got)
	}
}

func TestSmartParse(t *testing.T) {
	type payload struct {
		Company string `json:"company"`
		Quarter int    `json:"quarter"`
	}

	tests := []struct {
		name string
		in   string
	}{
		{"clean", `{"company": "Apple", "quarter": 4}`},
		{"fenced with trailing comma", "```json\n{\"company\": \"Apple\", \"quarter\": 4,}\n```"},
		{"hjson", "{\n  company: Apple\n  quarter: 4\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			if _, err := SmartParse(tt.in, &p); err != nil {
				t.Fatalf("SmartParse: %v", err)
			}
			if p.Company != "Apple" || p.Quarter != 4 {
				t.Errorf("decoded %+v", p)
			}
		})
	}

	var p payload
	if _, err := SmartParse("", &p); err == nil {
		t.Error("an empty response should fail every strategy")
	}
}
