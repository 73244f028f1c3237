package assemble

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"secparse/pkg/core/section"
)

func TestBuildOrderAndPlaceholders(t *testing.T) {
	doc := Document{
		SourceFilename: "aapl-20250628.pdf",
		FrontMatter:    "---\ncompany: Apple Inc.\n---\n",
		Sections: map[string]string{
			section.CoverPage:       "| Field | Value |\n|-------|-------|\n| Filing Type | 10-Q |",
			section.BalanceSheet:    "| Assets | 100 |",
			section.IncomeStatement: "| Revenue | 50 |",
		},
	}
	md := Build(doc)

	if !strings.HasPrefix(md, "---\ncompany: Apple Inc.\n---\n") {
		t.Errorf("front matter missing:\n%s", md[:60])
	}
	if !strings.Contains(md, "# aapl-20250628\n") {
		t.Error("title should use the filename stem")
	}

	// Missing required sections get placeholders; optional ones vanish.
	if !strings.Contains(md, "## Consolidated Statements of Cash Flows\n\n"+MissingPlaceholder) {
		t.Errorf("cash flow placeholder missing:\n%s", md)
	}
	if strings.Contains(md, section.Titles[section.MDA]) {
		t.Error("absent optional section should be omitted entirely")
	}

	// Balance sheet precedes income statement in filing order.
	if strings.Index(md, "| Assets |") > strings.Index(md, "| Revenue |") {
		t.Error("sections out of order")
	}
}

func TestBuildDataQualityAppendix(t *testing.T) {
	md := Build(Document{
		SourceFilename: "x.pdf",
		Sections:       map[string]string{},
		ValidationMD:   "| Check | Status | Detail |\n| :--- | :--- | :--- |\n| BS Balance (Assets vs L+E) | PASS | ok |",
		ConfidenceMD:   "| Statement | Confidence | Source |\n| :--- | ---: | :--- |\n| Balance Sheet | 1.00 | xbrl+pdf |",
	})
	if !strings.Contains(md, "## Data Quality") {
		t.Fatal("appendix missing")
	}
	// Confidence is the headline; validation detail follows.
	if strings.Index(md, "### Extraction Confidence") > strings.Index(md, "### Validation Checks") {
		t.Error("appendix subsections out of order")
	}

	if got := Build(Document{SourceFilename: "x.pdf", Sections: map[string]string{}}); strings.Contains(got, "Data Quality") {
		t.Error("empty appendix should be omitted")
	}
}

func TestVerify(t *testing.T) {
	if err := Verify("# Title\n\n| a | b |\n| :--- | ---: |\n| 1 | 2 |\n"); err != nil {
		t.Errorf("well-formed markdown rejected: %v", err)
	}
	if err := Verify(""); err == nil {
		t.Error("empty document should be rejected")
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "report.md")
	if err := Write(path, "# Report\n\nBody.\n"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Report\n\nBody.\n" {
		t.Errorf("content mismatch: %q", data)
	}
}
