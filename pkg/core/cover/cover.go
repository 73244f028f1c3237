// Package cover extracts registrant metadata from a filing's cover page:
// filing type, company, period, CIK, ticker, and the rest of the fields the
// front matter and EDGAR lookups need. Pure regex, no LLM.
package cover

import (
	"regexp"
	"strings"
)

// Field is one extracted cover-page fact.
type Field struct {
	Label string
	Value string
}

var (
	filingTypeRe = regexp.MustCompile(`(?i)FORM\s+(10-[QK](?:/A)?)`)
	registrantRe = regexp.MustCompile(`(?m)^(.+)\n\s*\((?:Exact|exact)\s+name\s+of\s+registrant`)
	notCompanyRe = regexp.MustCompile(`(?i)^(?:Commission|File\s+Number|\d+-\d+)`)
	periodRe     = regexp.MustCompile(`(?i)(?:(?:quarterly|annual)\s+period\s+ended|(?:fiscal\s+)?year\s+ended|period\s+of\s+report)[:\s]+(\w+\s+\d{1,2},?\s+\d{4})`)
	commissionRe = regexp.MustCompile(`(?i)Commission\s+File\s+Number[:\s]+([\d-]+)`)
	cikRe        = regexp.MustCompile(`(?i)(?:Central\s+Index\s+Key|CIK)[:\s]+(\d+)`)
	sharesRe     = regexp.MustCompile(`(?i)(\d[\d,]+)\s+shares\s+of\s+common\s+stock`)
	exchangeRe   = regexp.MustCompile(`(?i)(?:Name\s+of\s+.*exchange|registered)[:\s]*((?:NYSE|NASDAQ|New\s+York\s+Stock\s+Exchange)[^\n]*)`)

	// 12(b) registration table: header line, then data rows like
	// "Class A common stock, $0.001 par value ASST The Nasdaq Stock Market LLC".
	tickerTableRe  = regexp.MustCompile(`(?i)Title\s+of\s+Each\s+Class\s+Trading\s+Symbol`)
	tickerRowRe    = regexp.MustCompile(`(?:par\s+value(?:\s+per\s+share)?|per\s+share|stock|warrant[s]?|unit[s]?|right[s]?|debenture[s]?|shares)\s+([A-Z]{2,5})\s`)
	tickerInlineRe = regexp.MustCompile(`(?i)Trading\s+Symbol\(?s?\)?[:\s]+([A-Z]{2,5})\b`)
)

// tickerStopwords are uppercase tokens the row pattern can misread as a
// trading symbol.
var tickerStopwords = map[string]bool{
	"THE": true, "LLC": true, "INC": true, "NYSE": true,
	"EACH": true, "NAME": true, "OF": true,
}

// Fields extracts every detectable cover-page field, in a stable order.
func Fields(text string) []Field {
	var fields []Field

	if m := filingTypeRe.FindStringSubmatch(text); m != nil {
		fields = append(fields, Field{"Filing Type", strings.ToUpper(m[1])})
	}

	if m := registrantRe.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		if !notCompanyRe.MatchString(name) {
			fields = append(fields, Field{"Company", name})
		}
	}

	if m := periodRe.FindStringSubmatch(text); m != nil {
		fields = append(fields, Field{"Period", strings.TrimSpace(m[1])})
	}
	if m := commissionRe.FindStringSubmatch(text); m != nil {
		fields = append(fields, Field{"Commission File Number", strings.TrimSpace(m[1])})
	}
	if m := cikRe.FindStringSubmatch(text); m != nil {
		fields = append(fields, Field{"CIK", strings.TrimSpace(m[1])})
	}
	if m := sharesRe.FindStringSubmatch(text); m != nil {
		fields = append(fields, Field{"Shares Outstanding", strings.TrimSpace(m[1])})
	}

	if ticker := extractTicker(text); ticker != "" {
		fields = append(fields, Field{"Ticker", ticker})
	}

	if m := exchangeRe.FindStringSubmatch(text); m != nil {
		exchange := strings.TrimRight(strings.TrimSpace(m[1]), ".")
		fields = append(fields, Field{"Exchange", exchange})
	}

	return fields
}

// extractTicker reads the 12(b) table first, then falls back to the inline
// "Trading Symbol(s): AAPL" form.
func extractTicker(text string) string {
	if loc := tickerTableRe.FindStringIndex(text); loc != nil {
		after := text[loc[1]:]
		lines := strings.Split(after, "\n")
		if len(lines) > 10 {
			lines = lines[:10]
		}
		for _, line := range lines {
			s := strings.TrimSpace(line)
			lower := strings.ToLower(s)
			// Header continuation lines name the exchange column.
			if s == "" || strings.Contains(lower, "exchange") || strings.Contains(lower, "registered") {
				continue
			}
			if strings.HasPrefix(lower, "indicate") {
				break
			}
			if m := tickerRowRe.FindStringSubmatch(s + " "); m != nil {
				if !tickerStopwords[m[1]] {
					return m[1]
				}
			}
		}
	}

	if m := tickerInlineRe.FindStringSubmatch(text); m != nil {
		tok := strings.ToUpper(strings.TrimSpace(m[1]))
		if !tickerStopwords[tok] {
			return m[1]
		}
	}
	return ""
}

// Lookup builds a label → value map, first value winning.
func Lookup(fields []Field) map[string]string {
	out := map[string]string{}
	for _, f := range fields {
		if _, ok := out[f.Label]; !ok {
			out[f.Label] = f.Value
		}
	}
	return out
}

// RenderTable writes the fields as a two-column markdown table. With no
// fields detected the raw text is returned unchanged.
func RenderTable(fields []Field, raw string) string {
	if len(fields) == 0 {
		return raw
	}
	var b strings.Builder
	b.WriteString("| Field | Value |\n|-------|-------|\n")
	for _, f := range fields {
		b.WriteString("| " + f.Label + " | " + f.Value + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
