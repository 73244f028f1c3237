package tablerec

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	monthNames     = `(?:January|February|March|April|May|June|July|August|September|October|November|December)`
	calendarDateRe = regexp.MustCompile(monthNames + `\s+\d{1,2},?\s+\d{4}`)
	currencyRunRe  = regexp.MustCompile(`[$€£]\s*[\d,]+`)
)

// maskDates replaces calendar dates with digit-free placeholders so the
// years inside row labels ("Balances as of September 28, 2024") are not
// mistaken for trailing values. The returned func restores them.
func maskDates(line string) (string, func(string) string) {
	var found []string
	masked := calendarDateRe.ReplaceAllStringFunc(line, func(m string) string {
		found = append(found, m)
		return "\x00DATE" + strconv.Itoa(len(found)-1) + "\x00"
	})
	restore := func(s string) string {
		for i, d := range found {
			s = strings.Replace(s, "\x00DATE"+strconv.Itoa(i)+"\x00", d, 1)
		}
		return s
	}
	return masked, restore
}

func isValueToken(tok string) bool {
	if isCurrencySymbol(tok) || tok == ")" || dashValues[tok] {
		return true
	}
	if strings.TrimSpace(tok) == "" {
		return false
	}
	return IsNumeric(tok)
}

// SplitLine separates a flattened table line into label plus value cells by
// peeling the maximal trailing run of numeric and dash tokens. Lines with
// no label or no values come back as a single cell.
func SplitLine(line string) []string {
	masked, restore := maskDates(strings.TrimSpace(line))
	toks := strings.Fields(masked)
	if len(toks) == 0 {
		return nil
	}

	i := len(toks)
	for i > 0 && isValueToken(toks[i-1]) {
		i--
	}
	if i == len(toks) || i == 0 {
		return []string{restore(strings.Join(toks, " "))}
	}

	label := restore(strings.Join(toks[:i], " "))
	cells := append([]string{label}, CollapseRow(toks[i:])...)
	for j := range cells {
		cells[j] = restore(cells[j])
	}
	return cells
}

// splitSingleColumn rebuilds a grid whose rows arrived as single flattened
// cells, the common failure mode when an extractor loses column geometry.
func splitSingleColumn(grid [][]string) [][]string {
	out := make([][]string, 0, len(grid))
	for _, row := range grid {
		line := strings.Join(row, " ")
		if cells := SplitLine(line); len(cells) > 0 {
			out = append(out, cells)
		}
	}
	return out
}

const maxNoteRef = 30

var noteRefListRe = regexp.MustCompile(`^\d{1,2}(?:\s*,\s*\d{1,2})*$`)

func isNoteRefCell(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" {
		return true
	}
	if !noteRefListRe.MatchString(s) {
		return false
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n > maxNoteRef {
			return false
		}
	}
	return true
}

// stripNoteRefColumn removes the note-reference column IFRS statements
// place between the label and the figures. The candidate column must hold
// small integers (or comma lists of them) in a majority of rows at a
// consistent index, and is never touched when it carries currency-formatted
// or thousands-grouped values.
func stripNoteRefColumn(rows [][]string) [][]string {
	if len(rows) < 3 {
		return rows
	}

	// Only the column right after the label can be a note-ref column.
	const col = 1
	refs, filled := 0, 0
	for _, row := range rows {
		if len(row) <= col {
			continue
		}
		s := strings.TrimSpace(row[col])
		if s == "" {
			continue
		}
		filled++
		if strings.ContainsAny(s, "$€£") || strings.Contains(s, ",") && len(s) > 5 {
			return rows
		}
		if isNoteRefCell(s) {
			refs++
		}
	}
	if filled == 0 || refs*2 <= filled {
		return rows
	}

	// The row must keep at least one value after the strip, otherwise the
	// "note ref" was the data itself.
	for _, row := range rows {
		if len(row) == col+1 && strings.TrimSpace(row[col]) != "" {
			return rows
		}
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) > col {
			stripped := make([]string, 0, len(row)-1)
			stripped = append(stripped, row[:col]...)
			stripped = append(stripped, row[col+1:]...)
			out = append(out, stripped)
		} else {
			out = append(out, row)
		}
	}
	return out
}

// recoverOrphanRows pulls leading line items back into the table when the
// extractor's grid starts a few rows into the statement. Lines immediately
// preceding the first captured label that carry currency values are parsed
// with the same tokenizer and prepended.
func recoverOrphanRows(rows [][]string, sectionText string) [][]string {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return rows
	}
	firstLabel := strings.TrimSpace(rows[0][0])
	if firstLabel == "" {
		return rows
	}
	idx := strings.Index(sectionText, firstLabel)
	if idx <= 0 {
		return rows
	}

	lines := strings.Split(sectionText[:idx], "\n")
	var recovered [][]string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if !currencyRunRe.MatchString(line) {
			break
		}
		cells := SplitLine(line)
		if len(cells) < 2 {
			break
		}
		recovered = append([][]string{cells}, recovered...)
	}
	if len(recovered) == 0 {
		return rows
	}
	return append(recovered, rows...)
}
