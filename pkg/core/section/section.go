// Package section locates filing sections inside an extracted page stream
// and maps them to page ranges.
//
// Matching is pattern-table driven: an ordered list of (key, regexp) pairs
// evaluated in priority order. Candidate matches are filtered hard — most of
// the logic here exists to reject things that look like headings but are
// not: table-of-contents listings, mid-sentence cross-references, and
// analysis-section titles that merely mention a statement.
package section

import (
	"regexp"
	"sort"
	"strings"

	"secparse/pkg/core/pdfext"
)

// Section keys used throughout the pipeline.
const (
	CoverPage           = "cover_page"
	IncomeStatement     = "income_statement"
	BalanceSheet        = "balance_sheet"
	CashFlow            = "cash_flow"
	StockholdersEquity  = "stockholders_equity"
	ComprehensiveIncome = "comprehensive_income"
	Notes               = "notes"
	MDA                 = "mda"
	MarketRisk          = "market_risk"
	Controls            = "controls"
	LegalProceedings    = "legal_proceedings"
	RiskFactors         = "risk_factors"
	Exhibits            = "exhibits"
	Signatures          = "signatures"
)

// Titles maps section keys to display headings.
var Titles = map[string]string{
	CoverPage:           "Cover Page",
	IncomeStatement:     "Consolidated Statements of Income",
	BalanceSheet:        "Consolidated Balance Sheets",
	CashFlow:            "Consolidated Statements of Cash Flows",
	StockholdersEquity:  "Consolidated Statements of Stockholders' Equity",
	ComprehensiveIncome: "Consolidated Statements of Comprehensive Income",
	Notes:               "Notes to Financial Statements",
	MDA:                 "Management's Discussion and Analysis",
	MarketRisk:          "Quantitative and Qualitative Disclosures About Market Risk",
	Controls:            "Controls and Procedures",
	LegalProceedings:    "Legal Proceedings",
	RiskFactors:         "Risk Factors",
	Exhibits:            "Exhibits",
	Signatures:          "Signatures",
}

// Pattern pairs a section key with its heading matcher. Order matters for
// boundary detection, so Patterns is a slice, not a map.
type Pattern struct {
	Key string
	Re  *regexp.Regexp
}

// Patterns is the ordered SEC heading pattern table.
var Patterns = []Pattern{
	{IncomeStatement, regexp.MustCompile(`(?i)(?:CONDENSED\s+)?CONSOLIDATED\s+STATEMENTS?\s+OF\s+(?:INCOME|OPERATIONS|EARNINGS)(?:\s+AND\s+COMPREHENSIVE\s+(?:INCOME|LOSS)(?:\s*\(LOSS\))?)?`)},
	{ComprehensiveIncome, regexp.MustCompile(`(?i)(?:CONDENSED\s+)?CONSOLIDATED\s+STATEMENTS?\s+OF\s+COMPREHENSIVE\s+(?:INCOME|LOSS)(?:\s*\(LOSS\))?`)},
	{BalanceSheet, regexp.MustCompile(`(?i)(?:CONDENSED\s+)?CONSOLIDATED\s+(?:BALANCE\s+SHEETS?|STATEMENTS?\s+OF\s+FINANCIAL\s+CONDITION)`)},
	{CashFlow, regexp.MustCompile(`(?i)(?:CONDENSED\s+)?CONSOLIDATED\s+STATEMENTS?\s+OF\s+CASH\s+FLOWS?`)},
	{StockholdersEquity, regexp.MustCompile(`(?i)(?:CONDENSED\s+)?CONSOLIDATED\s+STATEMENTS?\s+OF\s+(?:(?:STOCKHOLDERS|SHAREHOLDERS|CHANGES\s+IN\s+(?:STOCKHOLDERS|SHAREHOLDERS))['\x{2019}]?\s*(?:EQUITY|DEFICIT)|CHANGES\s+IN\s+EQUITY)`)},
	{Notes, regexp.MustCompile(`(?i)NOTES\s+TO\s+(?:THE\s+)?(?:CONDENSED\s+)?(?:CONSOLIDATED\s+)?(?:CONDENSED\s+)?(?:INTERIM\s+)?FINANCIAL\s+STATEMENTS`)},
	{MDA, regexp.MustCompile(`(?i)(?:Item\s+(?:2|7)[.\s]*)?MANAGEMENT['\x{2019}]?S\s+DISCUSSION\s+AND\s+ANALYSIS(?:\s+OF\s+FINANCIAL\s+CONDITION\s+AND\s+RESULTS\s+OF\s+OPERATIONS)?`)},
	{MarketRisk, regexp.MustCompile(`(?i)QUANTITATIVE\s+AND\s+QUALITATIVE\s+DISCLOSURES?\s+ABOUT\s+MARKET\s+RISK`)},
	{Controls, regexp.MustCompile(`(?i)(?:Item\s+4[.\s]*)?CONTROLS\s+AND\s+PROCEDURES`)},
	{LegalProceedings, regexp.MustCompile(`(?i)Item\s+(?:1|3)[.\s]+LEGAL\s+PROCEEDINGS`)},
	{RiskFactors, regexp.MustCompile(`(?i)Item\s+1A[.\s]+RISK\s+FACTORS`)},
	{Exhibits, regexp.MustCompile(`(?i)Item\s+(?:6|15|16)[.\s]+EXHIBITS`)},
	{Signatures, regexp.MustCompile(`(?im)^SIGNATURES?\s*$`)},
}

// Data is a located section: a page range plus the concatenated text and
// table grids of those pages. Created here, consumed read-only downstream.
type Data struct {
	Name      string
	StartPage int // 1-indexed inclusive
	EndPage   int // 1-indexed inclusive
	Text      string
	Tables    [][][]string
}

// Heading validation thresholds. A heading is an isolated short line; the
// numbers below separate real headings from prose references empirically.
const (
	maxHeadingLineLen   = 120 // headings never wrap past this
	maxMatchOffset      = 10  // match must start near the line start
	maxTrailingLen      = 50  // longer trailing text means prose
	maxStatementPages   = 5   // financial statements rarely exceed this
	tocTrailingNumLines = 3
	tocLeadingNumLines  = 5
	tocPatternMatches   = 4
)

var (
	tocHeadingRe    = regexp.MustCompile(`(?i)TABLE\s+OF\s+CONTENTS`)
	tocLineNumberRe = regexp.MustCompile(`\s+\d{1,3}\s*$`)
	tocLeadingNumRe = regexp.MustCompile(`^\s*\d{1,3}\s+[A-Z]`)
	analysisVocabRe = regexp.MustCompile(`(?i)\b(?:ANALYSIS|DISCUSSION|SUMMARY|HIGHLIGHTS?|OVERVIEW|SELECTED|DATA)\b`)
	financialDataRe = regexp.MustCompile(`(?i)(?:total\s+(?:assets|liabilities|revenue|equity|current)\s.*[\d,]+|net\s+(?:income|loss|cash)\s.*[\d,]+|operating\s+(?:income|loss|expenses)\s.*[\d,]+|\$\s*[\d,]+)`)
)

// referencePrefixes are first words that mark a line as a cross-reference,
// not a heading ("and the Consolidated Statements of Cash Flows on ...").
var referencePrefixes = map[string]bool{
	"and": true, "or": true, "the": true, "refer": true, "see": true, "selected": true,
}

// isHeadingMatch checks that a regexp match falls on a standalone heading
// line rather than inside prose or a TOC entry.
func isHeadingMatch(pageText string, start, end int) bool {
	lineStart := strings.LastIndexByte(pageText[:start], '\n') + 1
	lineEnd := strings.IndexByte(pageText[end:], '\n')
	if lineEnd == -1 {
		lineEnd = len(pageText)
	} else {
		lineEnd += end
	}
	line := pageText[lineStart:lineEnd]

	if len(line) > maxHeadingLineLen {
		return false
	}
	if start-lineStart > maxMatchOffset {
		return false
	}
	if tocLineNumberRe.MatchString(line) {
		return false
	}

	stripped := strings.TrimLeft(line, " \t")
	if stripped != "" && stripped[0] >= 'a' && stripped[0] <= 'z' {
		return false
	}
	if words := strings.Fields(stripped); len(words) > 0 && referencePrefixes[strings.ToLower(words[0])] {
		return false
	}

	trailing := strings.TrimSpace(pageText[end:lineEnd])
	if len(trailing) > maxTrailingLen {
		return false
	}
	if trailing != "" {
		if strings.ContainsRune(".;,", rune(trailing[0])) {
			return false
		}
		if analysisVocabRe.MatchString(trailing) {
			return false
		}
		first := strings.Fields(trailing)[0]
		if first[0] >= 'a' && first[0] <= 'z' {
			return false
		}
		lower := strings.ToLower(first)
		if lower == "at" || lower == "as" {
			return false
		}
	}
	return true
}

// hasTOCEntries reports whether a page carries multiple TOC-style lines,
// either trailing page numbers ("Item 1. Business ..... 5") or leading ones
// in two-column layouts ("52 Introduction").
func hasTOCEntries(text string) bool {
	lines := strings.Split(text, "\n")
	trailing := 0
	leading := 0
	for _, line := range lines {
		if tocLineNumberRe.MatchString(line) {
			trailing++
		}
		if tocLeadingNumRe.MatchString(line) {
			leading++
		}
	}
	return trailing >= tocTrailingNumLines || leading >= tocLeadingNumLines
}

// isTOCPage detects table-of-contents pages so their section mentions are
// never mistaken for headings. Running "Table of Contents" page headers on
// data pages are distinguished from real TOCs by the presence of financial
// figures.
func isTOCPage(page pdfext.Page) bool {
	text := page.Text
	if tocHeadingRe.MatchString(text) && hasTOCEntries(text) {
		// Financial figures mean this is a data page with a running
		// "Table of Contents" header, not the TOC itself.
		if financialDataRe.MatchString(text) {
			return false
		}
		return true
	}

	// Many distinct section headings on one page is itself a TOC signal.
	matches := 0
	for _, p := range Patterns {
		if p.Re.MatchString(text) {
			matches++
		}
	}
	return matches >= tocPatternMatches
}

type sectionStart struct {
	key  string
	page int
}

// findSectionStarts returns the first valid heading page for each pattern,
// sorted by page number.
func findSectionStarts(pages []pdfext.Page) []sectionStart {
	var found []sectionStart
	seen := make(map[string]bool)

	for _, page := range pages {
		if isTOCPage(page) {
			continue
		}
		for _, pat := range Patterns {
			if seen[pat.Key] {
				continue
			}
			for _, loc := range pat.Re.FindAllStringIndex(page.Text, -1) {
				if isHeadingMatch(page.Text, loc[0], loc[1]) {
					found = append(found, sectionStart{pat.Key, page.PageNumber})
					seen[pat.Key] = true
					break
				}
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].page < found[j].page })
	return found
}

// splitAtHeader splits page text at the first match of pattern, returning
// (before, fromHeader). The split point is the start of the matched line so
// no characters are duplicated between adjacent sections.
func splitAtHeader(pageText string, re *regexp.Regexp) (string, string) {
	loc := re.FindStringIndex(pageText)
	if loc == nil {
		return pageText, ""
	}
	lineStart := strings.LastIndexByte(pageText[:loc[0]], '\n') + 1
	return pageText[:lineStart], pageText[lineStart:]
}

// detectCoverPage collects everything before the first detected section.
func detectCoverPage(pages []pdfext.Page, starts []sectionStart) *Data {
	if len(starts) == 0 || len(pages) == 0 {
		return nil
	}
	firstPage := starts[0].page
	if firstPage <= pages[0].PageNumber {
		return nil
	}

	var texts []string
	var tables [][][]string
	for _, p := range pages {
		if p.PageNumber < firstPage {
			texts = append(texts, p.Text)
			tables = append(tables, p.Tables...)
		}
	}
	if len(texts) == 0 {
		return nil
	}
	return &Data{
		Name:      CoverPage,
		StartPage: pages[0].PageNumber,
		EndPage:   firstPage - 1,
		Text:      strings.Join(texts, "\n\n"),
		Tables:    tables,
	}
}

// statementPageCaps limits financial-statement sections so they never
// absorb unrelated trailing pages when the next heading is far away.
var statementPageCaps = map[string]int{
	IncomeStatement:     maxStatementPages,
	ComprehensiveIncome: maxStatementPages,
	BalanceSheet:        maxStatementPages,
	CashFlow:            maxStatementPages,
	StockholdersEquity:  maxStatementPages,
}

// Split maps extracted pages to filing sections. Missing sections are
// omitted from the result; a document with no matching heading anywhere
// comes back as a single undivided cover section, never an error.
func Split(pages []pdfext.Page) map[string]*Data {
	if len(pages) == 0 {
		return map[string]*Data{}
	}

	lastPage := pages[len(pages)-1].PageNumber
	starts := findSectionStarts(pages)

	// MD&A stub fallback: some filings open MD&A with a one-page forward
	// reference ("see Financial Section") and carry the real section later.
	// If the detected range is a single page, prefer a later heading match.
	for i, s := range starts {
		if s.key != MDA {
			continue
		}
		nextPg := lastPage + 1
		if i+1 < len(starts) {
			nextPg = starts[i+1].page
		}
		if nextPg-s.page > 1 {
			break
		}
		var mdaRe *regexp.Regexp
		for _, p := range Patterns {
			if p.Key == MDA {
				mdaRe = p.Re
				break
			}
		}
		for _, page := range pages {
			if page.PageNumber <= s.page || isTOCPage(page) {
				continue
			}
			matched := false
			for _, loc := range mdaRe.FindAllStringIndex(page.Text, -1) {
				if isHeadingMatch(page.Text, loc[0], loc[1]) {
					starts[i] = sectionStart{MDA, page.PageNumber}
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		sort.SliceStable(starts, func(a, b int) bool { return starts[a].page < starts[b].page })
		break
	}

	patternByKey := make(map[string]*regexp.Regexp, len(Patterns))
	for _, p := range Patterns {
		patternByKey[p.Key] = p.Re
	}

	sections := make(map[string]*Data)
	if cover := detectCoverPage(pages, starts); cover != nil {
		sections[CoverPage] = cover
	}

	// If nothing matched, the whole document is one undivided section.
	if len(starts) == 0 {
		var texts []string
		var tables [][][]string
		for _, p := range pages {
			texts = append(texts, p.Text)
			tables = append(tables, p.Tables...)
		}
		sections[CoverPage] = &Data{
			Name:      CoverPage,
			StartPage: pages[0].PageNumber,
			EndPage:   lastPage,
			Text:      strings.Join(texts, "\n\n"),
			Tables:    tables,
		}
		return sections
	}

	for i, start := range starts {
		endPg := lastPage
		if i+1 < len(starts) {
			endPg = starts[i+1].page - 1
			if endPg < start.page {
				endPg = start.page
			}
		}
		if cap, ok := statementPageCaps[start.key]; ok && endPg-start.page >= cap {
			endPg = start.page + cap - 1
		}

		var nextKey string
		nextStartPg := -1
		if i+1 < len(starts) {
			nextKey = starts[i+1].key
			nextStartPg = starts[i+1].page
		}

		var texts []string
		var tables [][][]string
		for _, page := range pages {
			if page.PageNumber < start.page || page.PageNumber > endPg {
				continue
			}
			text := page.Text

			// Shared start page: trim text to begin at this section's
			// header when the previous section also touches this page.
			if page.PageNumber == start.page && i > 0 && starts[i-1].page == start.page {
				if re := patternByKey[start.key]; re != nil {
					if _, from := splitAtHeader(text, re); from != "" {
						text = from
					}
				}
			}

			// Shared end page: trim before the next section's header.
			if nextKey != "" && nextStartPg == page.PageNumber && nextStartPg == endPg {
				if re := patternByKey[nextKey]; re != nil {
					if before, _ := splitAtHeader(text, re); strings.TrimSpace(before) != "" {
						text = before
					}
				}
			}

			texts = append(texts, text)
			tables = append(tables, page.Tables...)
		}

		sections[start.key] = &Data{
			Name:      start.key,
			StartPage: start.page,
			EndPage:   endPg,
			Text:      strings.Join(texts, "\n\n"),
			Tables:    tables,
		}
	}

	return sections
}
