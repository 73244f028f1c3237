package section

import (
	"regexp"
	"strings"

	"secparse/pkg/core/pdfext"
)

// ReportType identifies which pattern table and pipeline path a document
// gets.
type ReportType string

const (
	ReportSEC  ReportType = "sec"
	ReportIFRS ReportType = "ifrs"
)

// Scoring is over distinct patterns, not total matches, so a single phrase
// repeated on every page (a running header) counts once.
var secSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)FORM\s+10-[KQ]`),
	regexp.MustCompile(`(?i)SECURITIES\s+AND\s+EXCHANGE\s+COMMISSION`),
	regexp.MustCompile(`(?i)Central\s+Index\s+Key`),
	regexp.MustCompile(`(?i)Commission\s+File\s+Number`),
	regexp.MustCompile(`(?i)pursuant\s+to\s+Section\s+13\s+or\s+15\(d\)`),
}

var ifrsSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:EUR|NOK|DKK|SEK|GBP)\s*['\x{2019}]?000`),
	regexp.MustCompile(`\bIFRS\b`),
	regexp.MustCompile(`(?i)(?:CVR|Org\.?\s*nr)`),
	regexp.MustCompile(`(?i)Statement\s+of\s+Profit\s+or\s+Loss`),
	regexp.MustCompile(`(?i)Statement\s+of\s+Financial\s+Position`),
	regexp.MustCompile(`(?i)(?:Oslo\s+B\x{00f8}rs|Euronext)`),
}

const detectPageWindow = 10

// DetectReportType classifies a document as SEC or IFRS by counting which
// signal set has more distinct hits over the first pages. Ties go to SEC —
// the SEC path is the richer one and degrades more gracefully.
func DetectReportType(pages []pdfext.Page) ReportType {
	var sample strings.Builder
	for i, p := range pages {
		if i >= detectPageWindow {
			break
		}
		sample.WriteString(p.Text)
		sample.WriteByte('\n')
	}
	text := sample.String()

	secScore := 0
	for _, re := range secSignals {
		if re.MatchString(text) {
			secScore++
		}
	}
	ifrsScore := 0
	for _, re := range ifrsSignals {
		if re.MatchString(text) {
			ifrsScore++
		}
	}

	if ifrsScore > secScore {
		return ReportIFRS
	}
	return ReportSEC
}

var (
	commissionHeaderRe = regexp.MustCompile(`(?i)UNITED\s+STATES\s+SECURITIES\s+AND\s+EXCHANGE\s+COMMISSION`)
	form10KRe          = regexp.MustCompile(`(?i)FORM\s+10-K`)
	registrantRe       = regexp.MustCompile(`(?i)\(Exact\s+name\s+of\s+[Rr]egistrant`)
	formFooterRe       = regexp.MustCompile(`(?i)ANNUAL\s+REPORT\s+PURSUANT\s+TO\s+SECTION\s+13\s+OR\s+15\(d\)`)
)

// Detect10KStartPage finds where the actual 10-K begins inside a combined
// annual-report document (glossy shareholder letter pages stapled in front
// of the filing). Returns the 1-indexed page number; 1 means no wrapper.
// Pages before the start still matter: callers keep their text for metadata
// fallback.
func Detect10KStartPage(pages []pdfext.Page) int {
	for _, p := range pages {
		if commissionHeaderRe.MatchString(p.Text) && form10KRe.MatchString(p.Text) {
			return p.PageNumber
		}
	}
	for _, p := range pages {
		if registrantRe.MatchString(p.Text) {
			return p.PageNumber
		}
	}
	for _, p := range pages {
		if p.PageNumber > 1 && formFooterRe.MatchString(p.Text) {
			return p.PageNumber
		}
	}
	return 1
}
