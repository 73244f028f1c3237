package cover

import (
	"strings"
	"testing"
)

const appleCover = `UNITED STATES
SECURITIES AND EXCHANGE COMMISSION
Washington, D.C. 20549
FORM 10-Q
QUARTERLY REPORT PURSUANT TO SECTION 13 OR 15(d) OF THE SECURITIES EXCHANGE ACT OF 1934
For the quarterly period ended June 28, 2025
Commission File Number: 001-36743
Apple Inc.
(Exact name of registrant as specified in its charter)
Securities registered pursuant to Section 12(b) of the Act:
Title of Each Class Trading Symbol(s) Name of Each Exchange on Which Registered
Common Stock, $0.00001 par value per share AAPL The Nasdaq Stock Market LLC
Indicate by check mark whether the registrant has filed all reports
14,840,392,000 shares of common stock were issued and outstanding as of July 18, 2025.`

func TestFields(t *testing.T) {
	lookup := Lookup(Fields(appleCover))

	want := map[string]string{
		"Filing Type":            "10-Q",
		"Company":                "Apple Inc.",
		"Period":                 "June 28, 2025",
		"Commission File Number": "001-36743",
		"Ticker":                 "AAPL",
		"Shares Outstanding":     "14,840,392,000",
	}
	for label, value := range want {
		if lookup[label] != value {
			t.Errorf("%s = %q, want %q", label, lookup[label], value)
		}
	}
}

func TestFieldsSkipsCommissionAsCompany(t *testing.T) {
	text := "Commission File Number: 001-36743\n(Exact name of registrant as specified in its charter)"
	for _, f := range Fields(text) {
		if f.Label == "Company" {
			t.Errorf("commission line misread as company: %q", f.Value)
		}
	}
}

func TestTickerStopwords(t *testing.T) {
	// An inline match landing on a stopword must not produce a ticker.
	text := "Trading Symbol(s): THE registrant has..."
	for _, f := range Fields(text) {
		if f.Label == "Ticker" {
			t.Errorf("stopword accepted as ticker: %q", f.Value)
		}
	}
}

func TestRenderTable(t *testing.T) {
	md := RenderTable([]Field{{"Filing Type", "10-K"}}, "raw")
	if !strings.Contains(md, "| Filing Type | 10-K |") {
		t.Errorf("table row missing:\n%s", md)
	}
	if got := RenderTable(nil, "raw text"); got != "raw text" {
		t.Errorf("no fields should fall back to raw text, got %q", got)
	}
}

func TestInferPeriodType(t *testing.T) {
	tests := []struct {
		filingType string
		period     string
		fyEnd      int
		want       string
	}{
		{"10-K", "September 28, 2024", 0, "FY"},
		{"10-K/A", "June 30, 2024", 6, "FY"},
		{"10-Q", "June 28, 2025", 0, "Q2"},
		{"10-Q", "March 29, 2025", 0, "Q1"},
		{"10-Q", "December 28, 2024", 9, "Q1"}, // Sep year-end: Oct-Dec is fiscal Q1
		{"10-Q", "June 28, 2025", 9, "Q3"},
		{"10-Q", "April 30, 2025", 0, "Q?"}, // off-quarter month, calendar fallback
		{"10-Q", "", 0, "Q?"},
	}
	for _, tt := range tests {
		if got := InferPeriodType(tt.filingType, tt.period, tt.fyEnd); got != tt.want {
			t.Errorf("InferPeriodType(%q, %q, %d) = %q, want %q",
				tt.filingType, tt.period, tt.fyEnd, got, tt.want)
		}
	}
}

func TestInferScale(t *testing.T) {
	tests := []struct{ in, want string }{
		{"(In millions, except number of shares which are reflected in thousands)", "millions"},
		{"(in thousands, except per share data)", "thousands"},
		{"(in billions)", "billions"},
		{"", "units"},
	}
	for _, tt := range tests {
		if got := InferScale(tt.in); got != tt.want {
			t.Errorf("InferScale(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePeriodDate(t *testing.T) {
	iso, year := ParsePeriodDate("June 28, 2025")
	if iso != "2025-06-28" || year != 2025 {
		t.Errorf("= (%q, %d)", iso, year)
	}
	iso, year = ParsePeriodDate("sometime in 2024")
	if iso != "" || year != 2024 {
		t.Errorf("year salvage = (%q, %d)", iso, year)
	}
	if iso, year = ParsePeriodDate(""); iso != "" || year != 0 {
		t.Errorf("empty = (%q, %d)", iso, year)
	}
}

func TestExtractMetadata(t *testing.T) {
	fields := Fields(appleCover)
	meta := ExtractMetadata(fields, "(In millions, except number of shares which are reflected in thousands)", "aapl-10q.pdf", appleCover)

	get := func(key string) interface{} {
		v, _ := MetadataValue(meta, key)
		return v
	}
	if get("company") != "Apple Inc." {
		t.Errorf("company = %v", get("company"))
	}
	if get("period_end") != "2025-06-28" {
		t.Errorf("period_end = %v", get("period_end"))
	}
	if get("period_type") != "Q2" {
		t.Errorf("period_type = %v", get("period_type"))
	}
	if get("scale") != "millions" {
		t.Errorf("scale = %v", get("scale"))
	}
	if get("audited") != false {
		t.Errorf("10-Q must be unaudited, got %v", get("audited"))
	}

	fm := RenderFrontMatter(meta)
	if !strings.HasPrefix(fm, "---\n") || !strings.HasSuffix(fm, "---\n") {
		t.Errorf("front matter not delimited:\n%s", fm)
	}
	// Key order is part of the contract: company first, parsed_at last.
	if strings.Index(fm, "company:") > strings.Index(fm, "parsed_at:") {
		t.Error("front matter keys out of order")
	}
}

func TestDetectFiscalYearEnd(t *testing.T) {
	if got := DetectFiscalYearEnd("for the fiscal year ended June 30, 2024"); got != 6 {
		t.Errorf("= %d, want 6", got)
	}
	if got := DetectFiscalYearEnd("no period phrasing here"); got != 0 {
		t.Errorf("= %d, want 0", got)
	}
}
