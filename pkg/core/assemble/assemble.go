// Package assemble stitches processed sections into the final markdown
// document: YAML front matter, title, sections in filing order, and the
// data-quality appendix. The output is parsed once with goldmark as a
// structural sanity check before it is written.
package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"secparse/pkg/core/section"
)

// SectionOrder mirrors the 10-Q/10-K reading order.
var SectionOrder = []string{
	section.CoverPage,
	section.BalanceSheet,
	section.IncomeStatement,
	section.CashFlow,
	section.StockholdersEquity,
	section.ComprehensiveIncome,
	section.Notes,
	section.MDA,
	section.MarketRisk,
	section.Controls,
	section.LegalProceedings,
	section.RiskFactors,
	section.Exhibits,
	section.Signatures,
}

// IFRSSectionOrder follows the conventional IFRS statement ordering.
var IFRSSectionOrder = []string{
	section.IncomeStatement,
	section.BalanceSheet,
	section.StockholdersEquity,
	section.CashFlow,
	section.Notes,
}

// Required sections render a placeholder when missing; everything else is
// silently omitted.
var Required = map[string]bool{
	section.IncomeStatement:    true,
	section.BalanceSheet:       true,
	section.CashFlow:           true,
	section.StockholdersEquity: true,
	section.Notes:              true,
}

// IFRSRequired marks every IFRS section required.
var IFRSRequired = map[string]bool{
	section.IncomeStatement:    true,
	section.BalanceSheet:       true,
	section.StockholdersEquity: true,
	section.CashFlow:           true,
	section.Notes:              true,
}

const MissingPlaceholder = "*Section not found in filing.*"

// Document carries everything the final markdown is built from.
type Document struct {
	SourceFilename string
	FrontMatter    string // rendered YAML block, empty to omit
	Sections       map[string]string
	Order          []string // defaults to SectionOrder
	Required       map[string]bool

	// Data-quality appendix, each empty to omit.
	ValidationMD  string
	ConfidenceMD  string
	DiscrepancyMD string
}

// Build renders the complete markdown document.
func Build(doc Document) string {
	order := doc.Order
	if order == nil {
		order = SectionOrder
	}
	required := doc.Required
	if required == nil {
		required = Required
	}

	var parts []string
	if doc.FrontMatter != "" {
		parts = append(parts, strings.TrimRight(doc.FrontMatter, "\n"))
	}

	stem := strings.TrimSuffix(filepath.Base(doc.SourceFilename), filepath.Ext(doc.SourceFilename))
	parts = append(parts, "# "+stem+"\n")

	for _, key := range order {
		content, ok := doc.Sections[key]
		if !ok {
			if required[key] {
				parts = append(parts, "## "+section.Titles[key]+"\n")
				parts = append(parts, MissingPlaceholder)
				parts = append(parts, "")
			}
			continue
		}
		parts = append(parts, "## "+section.Titles[key]+"\n")
		parts = append(parts, content)
		parts = append(parts, "")
	}

	if doc.ValidationMD != "" || doc.ConfidenceMD != "" || doc.DiscrepancyMD != "" {
		parts = append(parts, "## Data Quality\n")
		if doc.ConfidenceMD != "" {
			parts = append(parts, "### Extraction Confidence\n")
			parts = append(parts, strings.TrimRight(doc.ConfidenceMD, "\n"))
			parts = append(parts, "")
		}
		if doc.ValidationMD != "" {
			parts = append(parts, "### Validation Checks\n")
			parts = append(parts, strings.TrimRight(doc.ValidationMD, "\n"))
			parts = append(parts, "")
		}
		if doc.DiscrepancyMD != "" {
			parts = append(parts, "### Source Discrepancies\n")
			parts = append(parts, strings.TrimRight(doc.DiscrepancyMD, "\n"))
			parts = append(parts, "")
		}
	}

	return strings.Join(parts, "\n") + "\n"
}

// Verify runs the document through goldmark's parser. Rendering problems
// in generated tables show up here instead of in the reader's viewer.
func Verify(md string) error {
	root := goldmark.DefaultParser().Parse(text.NewReader([]byte(md)))
	if root == nil || !root.HasChildren() {
		return fmt.Errorf("markdown parse produced an empty document")
	}
	return nil
}

// Write verifies and writes the document, creating parent directories.
func Write(path, content string) error {
	if err := Verify(content); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}
