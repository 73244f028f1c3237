package tablerec

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	periodEndedRe = regexp.MustCompile(`(?i)((?:Three|Six|Nine|Twelve)\s+Months\s+Ended(?:\s+` + monthNames + `\s+\d{1,2},?\s+\d{4})?)`)
	yearEndedRe   = regexp.MustCompile(`(?i)^((?:Fiscal\s+)?(?:Year|Period)s?\s+Ended[^\n]*)$`)
	headerDateRe  = regexp.MustCompile(monthNames + `\s+\d{1,2},?\s+\d{4}`)
	yearLineRe    = regexp.MustCompile(`^(\d{4}(?:\s+\d{4})+)$`)

	periodFromRe  = regexp.MustCompile(`(?i)Period\s+from\b`)
	monthsCountRe = regexp.MustCompile(`(?i)(One|Two|Three|Four|Five|Six|Seven|Eight|Nine|Ten|Eleven|Twelve)\s+Months\s+Ended`)
	predSuccRe    = regexp.MustCompile(`(?i)Predecessor`)
	succRe        = regexp.MustCompile(`(?i)Successor`)
)

// headerScanLimit bounds how far into the section text period phrases are
// searched; column headers always precede the first data rows.
const headerScanLimit = 1500

// extractColumnHeaders pulls period phrases, standalone dates, and year
// lines from the text above a table.
func extractColumnHeaders(sectionText string) (periods []string, years []string) {
	scan := sectionText
	if len(scan) > headerScanLimit {
		scan = scan[:headerScanLimit]
	}

	for _, m := range periodEndedRe.FindAllStringSubmatch(scan, -1) {
		periods = append(periods, strings.TrimSpace(m[1]))
	}

	for _, line := range strings.Split(scan, "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= 60 {
			continue
		}
		if m := yearEndedRe.FindStringSubmatch(line); m != nil {
			periods = append(periods, strings.TrimSpace(m[1]))
			continue
		}
		if len(periods) == 0 && headerDateRe.MatchString(line) && strings.TrimSpace(headerDateRe.ReplaceAllString(line, "")) == "" {
			periods = append(periods, headerDateRe.FindAllString(line, -1)...)
			continue
		}
		if m := yearLineRe.FindStringSubmatch(line); m != nil {
			years = strings.Fields(m[1])
		}
	}
	return periods, years
}

// buildHeaderRows arranges extracted periods into rows of colCount cells.
// The shapes cover the layouts statements actually use: one label column
// plus one cell (or one cell pair) per period.
func buildHeaderRows(periods, years []string, colCount int) [][]string {
	var rows [][]string

	switch {
	case len(periods) == colCount-1:
		row := append([]string{""}, periods...)
		rows = append(rows, row)
	case len(periods) == 2 && colCount == 5:
		rows = append(rows, []string{"", periods[0], "", periods[1], ""})
	case len(periods) == 1 && colCount == 3:
		rows = append(rows, []string{"", periods[0], ""})
	case len(periods) == 1 && colCount == 2:
		rows = append(rows, []string{"", periods[0]})
	}

	if len(years) > 0 {
		row := make([]string, colCount)
		for i, y := range years {
			if i+1 >= colCount {
				break
			}
			row[i+1] = y
		}
		rows = append(rows, row)
	}
	return rows
}

func parseHeaderDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"January 2, 2006", "January 2 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// inferTransitionHeaders handles statements that straddle an ownership
// change and present predecessor and successor entity columns side by side
// with uneven periods. All dates in the header block are sorted; the two
// oldest bound the predecessor stub period, each remaining date becomes a
// months-ended successor column, and columns run most recent first.
func inferTransitionHeaders(sectionText string, colCount int) [][]string {
	scan := sectionText
	if len(scan) > headerScanLimit {
		scan = scan[:headerScanLimit]
	}
	if !predSuccRe.MatchString(scan) || !succRe.MatchString(scan) {
		return nil
	}
	if !periodFromRe.MatchString(scan) && !monthsCountRe.MatchString(scan) {
		return nil
	}

	raw := headerDateRe.FindAllString(scan, -1)
	type dated struct {
		t time.Time
		s string
	}
	var dates []dated
	seen := map[string]bool{}
	for _, r := range raw {
		if seen[r] {
			continue
		}
		seen[r] = true
		if t, ok := parseHeaderDate(r); ok {
			dates = append(dates, dated{t, r})
		}
	}
	if len(dates) < 3 || len(dates)-1 != colCount-1 {
		return nil
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].t.Before(dates[j].t) })

	monthsWord := "Twelve"
	if m := monthsCountRe.FindStringSubmatch(scan); m != nil {
		w := strings.ToLower(m[1])
		monthsWord = strings.ToUpper(w[:1]) + w[1:]
	}

	predecessor := fmt.Sprintf("Period from %s to %s", dates[0].s, dates[1].s)
	var successors []string
	for i := len(dates) - 1; i >= 2; i-- {
		successors = append(successors, fmt.Sprintf("%s Months Ended %s", monthsWord, dates[i].s))
	}

	entityRow := []string{""}
	periodRow := []string{""}
	for range successors {
		entityRow = append(entityRow, "Successor")
	}
	entityRow = append(entityRow, "Predecessor")
	periodRow = append(periodRow, successors...)
	periodRow = append(periodRow, predecessor)

	return [][]string{entityRow, periodRow}
}

// inferHeaders decides the header rows for a merged table. A leading
// all-text row in the data wins; otherwise headers come from the section
// text above the table.
func inferHeaders(rows [][]string, sectionText string, colCount int) (headers [][]string, data [][]string) {
	data = rows
	if len(rows) > 0 {
		first := rows[0]
		filled := 0
		allText := true
		for _, c := range first {
			if strings.TrimSpace(c) == "" {
				continue
			}
			filled++
			if IsNumeric(c) {
				allText = false
			}
		}
		if allText && filled > 1 {
			h := make([]string, colCount)
			copy(h, first)
			return [][]string{h}, rows[1:]
		}
	}

	if trans := inferTransitionHeaders(sectionText, colCount); trans != nil {
		return trans, data
	}

	periods, years := extractColumnHeaders(sectionText)
	return buildHeaderRows(periods, years, colCount), data
}
