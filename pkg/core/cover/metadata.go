package cover

import (
	"regexp"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v2"
)

var monthNumbers = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

// Calendar-year quarters by fiscal-quarter-end month. Months that do not
// end a calendar quarter stay unresolved.
var monthToQuarter = map[string]string{
	"march": "Q1", "june": "Q2", "september": "Q3", "december": "Q4",
}

var (
	fiscalYearEndRe = regexp.MustCompile(`(?i)(?:fiscal\s+)?year\s+ended\s+(\w+)\s+\d{1,2}`)
	firstWordRe     = regexp.MustCompile(`[A-Za-z]+`)
	yearRe          = regexp.MustCompile(`\d{4}`)
)

// DetectFiscalYearEnd finds the fiscal year-end month (1-12) from phrases
// like "fiscal year ended June 30". Zero when not detected.
func DetectFiscalYearEnd(coverText string) int {
	if m := fiscalYearEndRe.FindStringSubmatch(coverText); m != nil {
		return monthNumbers[strings.ToLower(m[1])]
	}
	return 0
}

// computeFiscalYear names the fiscal year by the calendar year it ends in:
// period Sep 2025 with a June year-end belongs to FY2026.
func computeFiscalYear(periodYear, periodMonth, fyEndMonth int) int {
	if periodYear == 0 || periodMonth == 0 {
		return periodYear
	}
	if fyEndMonth == 0 || fyEndMonth == 12 {
		return periodYear
	}
	if periodMonth > fyEndMonth {
		return periodYear + 1
	}
	return periodYear
}

// InferPeriodType returns Q1..Q4 or FY. A 10-K is always FY; a 10-Q's
// quarter comes from the period month, computed against the fiscal year-end
// when known and calendar quarters otherwise.
func InferPeriodType(filingType, periodStr string, fyEndMonth int) string {
	if strings.HasPrefix(strings.ToUpper(filingType), "10-K") {
		return "FY"
	}

	m := firstWordRe.FindString(periodStr)
	if m == "" {
		return "Q?"
	}
	monthName := strings.ToLower(m)
	monthNum := monthNumbers[monthName]
	if monthNum == 0 {
		return "Q?"
	}

	if fyEndMonth != 0 {
		// Fiscal Q1 starts the month after the fiscal year-end.
		fyStart := fyEndMonth%12 + 1
		monthsInto := ((monthNum-fyStart)%12+12)%12 + 1
		quarter := (monthsInto-1)/3 + 1
		return "Q" + string(rune('0'+quarter))
	}

	if q, ok := monthToQuarter[monthName]; ok {
		return q
	}
	return "Q?"
}

// InferScale parses a scale hint like "(in thousands, except per share
// data)". When both millions and thousands appear, the dollar-amount scale
// (millions) wins over the per-share one.
func InferScale(hint string) string {
	lower := strings.ToLower(hint)
	hasMillion := strings.Contains(lower, "million")
	hasThousand := strings.Contains(lower, "thousand")
	switch {
	case hasMillion && hasThousand:
		return "millions"
	case strings.Contains(lower, "billion"):
		return "billions"
	case hasMillion:
		return "millions"
	case hasThousand:
		return "thousands"
	default:
		return "units"
	}
}

// ParsePeriodDate parses "June 30, 2024" into ("2024-06-30", 2024). When
// full parsing fails it still tries to salvage the year.
func ParsePeriodDate(periodStr string) (string, int) {
	s := strings.TrimSpace(periodStr)
	if s == "" {
		return "", 0
	}
	for _, layout := range []string{"January 2, 2006", "January 2 2006"} {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt.Format("2006-01-02"), dt.Year()
		}
	}
	if m := yearRe.FindString(s); m != "" {
		year := 0
		for _, r := range m {
			year = year*10 + int(r-'0')
		}
		return "", year
	}
	return "", 0
}

// ExtractMetadata builds the ordered front-matter metadata from the cover
// fields. coverText feeds fiscal year-end detection; scaleHint is the
// "(in thousands ...)" line captured near the statements.
func ExtractMetadata(fields []Field, scaleHint, sourcePDF, coverText string) yaml.MapSlice {
	lookup := Lookup(fields)

	filingType := lookup["Filing Type"]
	periodStr := lookup["Period"]
	periodEnd, fiscalYear := ParsePeriodDate(periodStr)

	fyEndMonth := 0
	if coverText != "" {
		fyEndMonth = DetectFiscalYearEnd(coverText)
	}
	periodType := ""
	if filingType != "" {
		periodType = InferPeriodType(filingType, periodStr, fyEndMonth)
	}

	periodMonth := 0
	if m := firstWordRe.FindString(periodStr); m != "" {
		periodMonth = monthNumbers[strings.ToLower(m)]
	}
	fiscalYear = computeFiscalYear(fiscalYear, periodMonth, fyEndMonth)

	var fyValue interface{} = ""
	if fiscalYear != 0 {
		fyValue = fiscalYear
	}

	is10K := strings.HasPrefix(strings.ToUpper(filingType), "10-K")

	return yaml.MapSlice{
		{Key: "company", Value: lookup["Company"]},
		{Key: "ticker", Value: lookup["Ticker"]},
		{Key: "cik", Value: lookup["CIK"]},
		{Key: "commission_file_number", Value: lookup["Commission File Number"]},
		{Key: "filing_type", Value: filingType},
		{Key: "period_end", Value: periodEnd},
		{Key: "period_type", Value: periodType},
		{Key: "fiscal_year", Value: fyValue},
		{Key: "scale", Value: InferScale(scaleHint)},
		{Key: "currency", Value: "USD"},
		{Key: "audited", Value: is10K},
		{Key: "source_pdf", Value: sourcePDF},
		{Key: "parsed_at", Value: time.Now().UTC().Format("2006-01-02T15:04:05Z")},
	}
}

// RenderFrontMatter writes the metadata as a --- delimited YAML block,
// preserving key order.
func RenderFrontMatter(meta yaml.MapSlice) string {
	body, err := yaml.Marshal(meta)
	if err != nil {
		return "---\n---\n"
	}
	return "---\n" + string(body) + "---\n"
}

// MetadataValue reads one key back out of the ordered metadata.
func MetadataValue(meta yaml.MapSlice, key string) (interface{}, bool) {
	for _, item := range meta {
		if k, ok := item.Key.(string); ok && k == key {
			return item.Value, true
		}
	}
	return nil, false
}
