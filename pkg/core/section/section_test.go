package section

import (
	"strings"
	"testing"

	"secparse/pkg/core/pdfext"
)

func page(n int, text string) pdfext.Page {
	return pdfext.Page{PageNumber: n, Text: text}
}

func TestIsHeadingMatch(t *testing.T) {
	re := Patterns[2].Re // balance sheet

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"standalone heading", "APPLE INC.\nCONDENSED CONSOLIDATED BALANCE SHEETS\n(In millions)", true},
		{"toc entry with page number", "CONSOLIDATED BALANCE SHEETS   34\n", false},
		{"cross reference", "See the Consolidated Balance Sheets for details.\n", false},
		{"connective prefix", "and Consolidated Balance Sheets\n", false},
		{"trailing analysis vocab", "CONSOLIDATED BALANCE SHEETS DISCUSSION\n", false},
		{"trailing punctuation", "CONSOLIDATED BALANCE SHEETS, which are\n", false},
		{"trailing as-of", "CONSOLIDATED BALANCE SHEETS as of\n", false},
		{"unaudited suffix ok", "CONSOLIDATED BALANCE SHEETS (Unaudited)\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := re.FindStringIndex(tt.text)
			if loc == nil {
				t.Fatalf("pattern did not match %q", tt.text)
			}
			if got := isHeadingMatch(tt.text, loc[0], loc[1]); got != tt.want {
				t.Errorf("isHeadingMatch(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsTOCPage(t *testing.T) {
	toc := page(2, `TABLE OF CONTENTS
Item 1. Business .................... 4
Item 1A. Risk Factors .............. 12
Item 7. Management's Discussion .... 30
Item 8. Financial Statements ....... 45
`)
	if !isTOCPage(toc) {
		t.Error("dotted-leader TOC page not detected")
	}

	// A data page carrying only a running "Table of Contents" header must
	// not be treated as a TOC.
	data := page(30, `Table of Contents
CONDENSED CONSOLIDATED BALANCE SHEETS
Total assets $ 364,980 $ 352,583
Total liabilities 308,030 290,437
Total shareholders' equity 56,950 62,146
`)
	if isTOCPage(data) {
		t.Error("data page with running TOC header misclassified as TOC")
	}
}

func TestSplitBasic(t *testing.T) {
	pages := []pdfext.Page{
		page(1, "APPLE INC.\nFORM 10-Q\nCommission File Number: 001-36743"),
		page(2, "CONDENSED CONSOLIDATED STATEMENTS OF OPERATIONS\nNet sales $ 94,836"),
		page(3, "CONDENSED CONSOLIDATED BALANCE SHEETS\nTotal assets $ 364,980"),
		page(4, "CONDENSED CONSOLIDATED STATEMENTS OF CASH FLOWS\nCash generated by operating activities"),
		page(5, "NOTES TO CONDENSED CONSOLIDATED FINANCIAL STATEMENTS\nNote 1 — Summary"),
		page(6, "Note 2 — Revenue"),
	}

	sections := Split(pages)

	wantRanges := map[string][2]int{
		CoverPage:       {1, 1},
		IncomeStatement: {2, 2},
		BalanceSheet:    {3, 3},
		CashFlow:        {4, 4},
		Notes:           {5, 6},
	}
	for key, want := range wantRanges {
		sec, ok := sections[key]
		if !ok {
			t.Fatalf("section %s not found", key)
		}
		if sec.StartPage != want[0] || sec.EndPage != want[1] {
			t.Errorf("%s pages = [%d,%d], want [%d,%d]", key, sec.StartPage, sec.EndPage, want[0], want[1])
		}
	}
}

func TestSplitSharedBoundaryPage(t *testing.T) {
	pages := []pdfext.Page{
		page(1, "CONDENSED CONSOLIDATED STATEMENTS OF OPERATIONS\nNet sales $ 94,836\nTotal net sales 94,836\nCONDENSED CONSOLIDATED BALANCE SHEETS\nTotal assets $ 364,980"),
	}
	sections := Split(pages)

	is, bs := sections[IncomeStatement], sections[BalanceSheet]
	if is == nil || bs == nil {
		t.Fatal("both sections should be detected on the shared page")
	}
	if strings.Contains(is.Text, "Total assets") {
		t.Error("income statement text bleeds past the balance sheet header")
	}
	if !strings.Contains(bs.Text, "Total assets") || strings.Contains(bs.Text, "Net sales") {
		t.Errorf("balance sheet text not split at its header: %q", bs.Text)
	}
}

func TestSplitNoHeadings(t *testing.T) {
	pages := []pdfext.Page{
		page(1, "An unstructured document."),
		page(2, "With no recognizable sections at all."),
	}
	sections := Split(pages)
	if len(sections) != 1 || sections[CoverPage] == nil {
		t.Fatalf("expected a single undivided cover section, got %d sections", len(sections))
	}
	if sections[CoverPage].EndPage != 2 {
		t.Errorf("undivided section should span all pages, got end=%d", sections[CoverPage].EndPage)
	}
}

func TestStatementPageCap(t *testing.T) {
	pages := []pdfext.Page{
		page(1, "CONDENSED CONSOLIDATED BALANCE SHEETS\nTotal assets $ 364,980"),
	}
	for i := 2; i <= 12; i++ {
		pages = append(pages, page(i, "continued line items"))
	}
	sections := Split(pages)
	bs := sections[BalanceSheet]
	if bs == nil {
		t.Fatal("balance sheet not found")
	}
	if got := bs.EndPage - bs.StartPage + 1; got > maxStatementPages {
		t.Errorf("balance sheet spans %d pages, cap is %d", got, maxStatementPages)
	}
}

func TestDetectReportType(t *testing.T) {
	sec := []pdfext.Page{page(1, "UNITED STATES SECURITIES AND EXCHANGE COMMISSION\nFORM 10-K\nCommission File Number: 001-36743")}
	if got := DetectReportType(sec); got != ReportSEC {
		t.Errorf("DetectReportType(sec) = %s", got)
	}

	ifrs := []pdfext.Page{page(1, "Annual Report 2024\nAmounts in NOK'000 unless stated\nPrepared in accordance with IFRS\nListed on Oslo Børs")}
	if got := DetectReportType(ifrs); got != ReportIFRS {
		t.Errorf("DetectReportType(ifrs) = %s", got)
	}

	// Tie (no signals) defaults to SEC.
	if got := DetectReportType([]pdfext.Page{page(1, "hello")}); got != ReportSEC {
		t.Errorf("DetectReportType(empty) = %s, want sec", got)
	}
}

func TestDetect10KStartPage(t *testing.T) {
	pages := []pdfext.Page{
		page(1, "2024 Annual Report\nA letter to our shareholders"),
		page(2, "Financial highlights and photography"),
		page(3, "UNITED STATES SECURITIES AND EXCHANGE COMMISSION\nWashington, D.C. 20549\nFORM 10-K"),
		page(4, "PART I"),
	}
	if got := Detect10KStartPage(pages); got != 3 {
		t.Errorf("Detect10KStartPage = %d, want 3", got)
	}

	bare := []pdfext.Page{page(1, "FORM 10-Q quarterly report")}
	if got := Detect10KStartPage(bare); got != 1 {
		t.Errorf("Detect10KStartPage(bare) = %d, want 1", got)
	}
}

func TestSplitIFRS(t *testing.T) {
	// Statement pages need enough text to not read as divider pages.
	notesRef := "The accompanying notes form an integral part of these financial statements."
	pages := []pdfext.Page{
		page(1, "Annual Report 2024\nPrepared in accordance with IFRS as adopted by the European Union.\nAll amounts in EUR'000 unless otherwise stated.\nCVR no 12345678"),
		page(2, "Consolidated Statement of Profit or Loss\nfor the year ended 31 December 2024\nRevenue 120,000\n"+notesRef),
		page(3, "Consolidated Statement of Financial Position\nas at 31 December 2024\nTotal assets 300,000\n"+notesRef),
		page(4, "Consolidated Statement of Cash Flows\nfor the year ended 31 December 2024\nCash flows from operating activities 45,000\n"+notesRef),
		page(5, "Notes to the Consolidated Financial Statements\nNote 1 Accounting policies\nThe consolidated financial statements have been prepared under the historical cost convention."),
		page(6, "Parent Company Income Statement\nRevenue 80,000"),
	}
	sections := SplitIFRS(pages)

	if sec := sections[IncomeStatement]; sec == nil || sec.StartPage != 2 {
		t.Fatalf("income statement = %+v", sec)
	}
	notes := sections[Notes]
	if notes == nil {
		t.Fatal("notes not found")
	}
	if notes.EndPage != 5 {
		t.Errorf("notes should stop before parent company pages, end=%d", notes.EndPage)
	}
	if strings.Contains(notes.Text, "Parent Company") {
		t.Error("parent company text leaked into notes")
	}
}
