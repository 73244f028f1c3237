package store

import (
	"context"
	"strings"
	"testing"
)

func TestRepoWithoutPool(t *testing.T) {
	r := NewRunRepo()
	if err := r.Save(context.Background(), &ParseRun{SourcePDF: "a.pdf"}); err == nil {
		t.Error("Save without an initialized pool should error")
	}
	if _, err := r.Load(context.Background(), "a.pdf"); err == nil {
		t.Error("Load without an initialized pool should error")
	}
}

func TestSchemaMatchesRepoQueries(t *testing.T) {
	for _, col := range []string{"source_pdf", "run_id", "run_json", "updated_at"} {
		if !strings.Contains(schemaDDL, col) {
			t.Errorf("schema missing column %s", col)
		}
	}
	// The upsert in Save conflicts on source_pdf.
	if !strings.Contains(schemaDDL, "source_pdf TEXT PRIMARY KEY") {
		t.Error("source_pdf must be the primary key for the upsert to work")
	}
}
