package section

import (
	"regexp"
	"strings"

	"secparse/pkg/core/pdfext"
)

// IFRS statement headings allow the full interim/condensed/consolidated
// qualifier stack in any truncation.
const ifrsPrefix = `(?:(?:Interim\s+)?(?:Condensed\s+)?(?:Consolidated\s+)?)?`

var ifrsPatterns = []Pattern{
	{IncomeStatement, regexp.MustCompile(`(?i)` + ifrsPrefix + `(?:Income\s+Statement|Statement\s+of\s+(?:Profit\s+or\s+Loss|Comprehensive\s+Income))`)},
	{BalanceSheet, regexp.MustCompile(`(?i)` + ifrsPrefix + `(?:Balance\s+Sheet|Statement\s+of\s+Financial\s+Position)`)},
	{CashFlow, regexp.MustCompile(`(?i)` + ifrsPrefix + `(?:Cash\s+Flow\s+Statement|Statement\s+of\s+Cash\s+Flows?)`)},
	{StockholdersEquity, regexp.MustCompile(`(?i)` + ifrsPrefix + `Statement\s+of\s+Changes\s+in\s+Equity`)},
	{Notes, regexp.MustCompile(`(?i)Notes\s+to\s+the\s+` + ifrsPrefix + `Financial\s+Statements`)},
}

const (
	ifrsDividerMaxChars    = 100 // near-blank divider pages between statements
	ifrsParentCompanyScope = 200 // "Parent Company" in the first N chars marks the page
)

var parentCompanyRe = regexp.MustCompile(`(?i)Parent\s+Company`)

// SplitIFRS maps pages of an IFRS filing to the five IFRS sections. IFRS
// annual reports commonly repeat every statement for the parent company
// after the group statements; parent-company pages are skipped, and the
// first one also terminates the notes range.
func SplitIFRS(pages []pdfext.Page) map[string]*Data {
	sections := make(map[string]*Data)
	if len(pages) == 0 {
		return sections
	}

	isDivider := func(p pdfext.Page) bool {
		return len(strings.TrimSpace(p.Text)) < ifrsDividerMaxChars
	}
	isParent := func(p pdfext.Page) bool {
		head := p.Text
		if len(head) > ifrsParentCompanyScope {
			head = head[:ifrsParentCompanyScope]
		}
		return parentCompanyRe.MatchString(head)
	}

	var starts []sectionStart
	seen := make(map[string]bool)
	for _, page := range pages {
		if isDivider(page) || isParent(page) {
			continue
		}
		for _, pat := range ifrsPatterns {
			if seen[pat.Key] {
				continue
			}
			for _, loc := range pat.Re.FindAllStringIndex(page.Text, -1) {
				if isHeadingMatch(page.Text, loc[0], loc[1]) {
					starts = append(starts, sectionStart{pat.Key, page.PageNumber})
					seen[pat.Key] = true
					break
				}
			}
		}
	}
	if len(starts) == 0 {
		return sections
	}

	lastPage := pages[len(pages)-1].PageNumber
	parentStart := lastPage + 1
	for _, p := range pages {
		if isParent(p) {
			parentStart = p.PageNumber
			break
		}
	}

	for i, start := range starts {
		endPg := lastPage
		if i+1 < len(starts) {
			endPg = starts[i+1].page - 1
		}
		if start.key == Notes && parentStart <= endPg {
			endPg = parentStart - 1
		}
		if endPg < start.page {
			endPg = start.page
		}

		var texts []string
		var tables [][][]string
		for _, page := range pages {
			if page.PageNumber < start.page || page.PageNumber > endPg {
				continue
			}
			// A near-blank page mid-range is a divider; the section's own
			// start page is kept no matter how sparse its text is.
			if isDivider(page) && page.PageNumber != start.page {
				continue
			}
			if isParent(page) {
				continue
			}
			texts = append(texts, page.Text)
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

	if cover := detectCoverPage(pages, starts); cover != nil {
		sections[CoverPage] = cover
	}
	return sections
}
