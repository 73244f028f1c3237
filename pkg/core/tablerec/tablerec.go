// Package tablerec rebuilds financial statement tables from the ragged cell
// grids that PDF extraction produces. The input is messy in predictable
// ways: currency symbols split from values, negatives split at the paren,
// multi-page tables arriving as separate grids, headers living in the page
// text instead of the grid. Reconstruction is a pure function of the grids
// and the section text, so running it twice gives identical output.
package tablerec

import (
	"regexp"
	"strings"
)

// Table is a reconstructed statement table ready for rendering.
type Table struct {
	HeaderRows [][]string
	Rows       [][]string
	ColCount   int
}

// Result carries the reconstructed tables in document order, or the
// raw-text fallback when the grids could not be shaped into any. A section
// can legitimately hold more than one table: the statement itself plus a
// supporting breakdown laid out beside it.
type Result struct {
	Tables    []*Table
	RawText   string
	Abandoned bool
}

// Prose rejection thresholds. Extractors sometimes emit paragraphs as
// "tables"; these filters keep them out of the statement path.
const (
	proseLargeRows     = 15
	proseLargeNumRatio = 0.30
	proseNumRatio      = 0.15
	proseAvgCellLen    = 40
	proseSampleWords   = 8
	minLabelRatio      = 0.20
)

var (
	scaleHeaderRe = regexp.MustCompile(`(?i)\(in\s+(?:thousands|millions|billions)`)
	dateHeaderRe  = regexp.MustCompile(monthNames + `\s+\d{1,2}`)
	bareYearRe    = regexp.MustCompile(`^(?:Q\d|FY)?\s*\d{4}$`)
)

func numericRatio(grid [][]string) float64 {
	total, numeric := 0, 0
	for _, row := range grid {
		for _, c := range row {
			if strings.TrimSpace(c) == "" {
				continue
			}
			total++
			if IsNumeric(c) {
				numeric++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(numeric) / float64(total)
}

// isProseGrid rejects grids that are paragraphs in disguise. Large grids
// fail on numeric density alone; small grids need two of the softer
// signals.
func isProseGrid(grid [][]string) bool {
	ratio := numericRatio(grid)
	if len(grid) > proseLargeRows {
		return ratio < proseLargeNumRatio
	}

	cells, totalLen := 0, 0
	for _, row := range grid {
		for _, c := range row {
			if s := strings.TrimSpace(c); s != "" {
				cells++
				totalLen += len(s)
			}
		}
	}
	if cells == 0 {
		return true
	}
	avgLen := float64(totalLen) / float64(cells)

	score := 0
	if ratio < proseNumRatio {
		score++
	}
	if avgLen > proseAvgCellLen {
		score++
	}
	sample := grid[len(grid)/2]
	if len(sample) > 0 &&
		len(strings.Fields(strings.Join(sample, " "))) > proseSampleWords &&
		!IsNumeric(sample[len(sample)-1]) {
		score++
	}
	return score >= 2
}

// isRepeatedHeaderRow drops the scale and date lines that reappear
// mid-table at page breaks.
func isRepeatedHeaderRow(row []string) bool {
	if len(row) > 3 {
		return false
	}
	joined := strings.Join(row, " ")
	return scaleHeaderRe.MatchString(joined) || (dateHeaderRe.MatchString(joined) && IsNumericRow(row))
}

// IsNumericRow reports whether every filled cell after the first is a
// value.
func IsNumericRow(row []string) bool {
	for _, c := range row[1:] {
		if strings.TrimSpace(c) != "" && !IsNumeric(c) {
			return false
		}
	}
	return true
}

func dominantWidth(grid [][]string) int {
	counts := map[int]int{}
	for _, row := range grid {
		counts[len(row)]++
	}
	best, bestN := 0, 0
	for w, n := range counts {
		if n > bestN || (n == bestN && w > best) {
			best, bestN = w, n
		}
	}
	return best
}

func hasPlausibleLabel(row []string) bool {
	if len(row) == 0 {
		return false
	}
	label := strings.TrimSpace(row[0])
	return !IsNumeric(label) && len(label) > 3 && !bareYearRe.MatchString(label)
}

// cleanGrid runs the per-grid shaping steps in order and returns the
// cleaned data rows, or nil when the grid is not a table.
func cleanGrid(grid [][]string) [][]string {
	if len(grid) == 0 || isProseGrid(grid) {
		return nil
	}

	rawWidth := 0
	for _, row := range grid {
		if len(row) > rawWidth {
			rawWidth = len(row)
		}
	}
	if rawWidth >= positionalCollapseWidth {
		grid = collapsePositional(grid)
	}

	var rows [][]string
	for _, row := range grid {
		collapsed := CollapseRow(row)
		if len(collapsed) == 0 || isRepeatedHeaderRow(collapsed) {
			continue
		}
		rows = append(rows, collapsed)
	}

	if dominantWidth(rows) == 1 {
		rows = splitSingleColumn(rows)
	}

	rows = stripNoteRefColumn(rows)

	// Unlabeled single-value rows are subtotals whose label landed in the
	// preceding prose line.
	for i, row := range rows {
		if len(row) == 1 && IsNumeric(row[0]) && strings.TrimSpace(row[0]) != "" {
			rows[i] = []string{"Total", row[0]}
		}
	}
	return rows
}

const mergeMinRows = 15

func isTitleOnlyRow(row []string) bool {
	filled := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			filled++
		}
	}
	return filled == 1 && !IsNumeric(row[0])
}

func rowsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != strings.TrimSpace(b[i]) {
			return false
		}
	}
	return true
}

// mergeGrids joins the per-page pieces of one statement. Pieces merge when
// their dominant widths agree, the continuation does not open with a title
// row, and at least one side is long enough to plausibly span pages.
func mergeGrids(grids [][][]string) [][][]string {
	var merged [][][]string
	for _, g := range grids {
		if len(merged) == 0 {
			merged = append(merged, g)
			continue
		}
		prev := merged[len(merged)-1]
		if dominantWidth(prev) == dominantWidth(g) &&
			!isTitleOnlyRow(g[0]) &&
			(len(prev) >= mergeMinRows || len(g) >= mergeMinRows) {
			if rowsEqual(prev[0], g[0]) {
				g = g[1:]
			}
			merged[len(merged)-1] = append(prev, g...)
			continue
		}
		merged = append(merged, g)
	}
	return merged
}

// padRows forces every data row to colCount cells: value gaps fill with an
// em-dash, overruns fold into the last cell.
func padRows(rows [][]string, colCount int) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		padded := make([]string, 0, colCount)
		for i, c := range row {
			if i >= colCount {
				padded[colCount-1] = strings.TrimSpace(padded[colCount-1] + " " + c)
				continue
			}
			padded = append(padded, c)
		}
		for len(padded) < colCount {
			if len(padded) >= 2 && hasPlausibleLabel(row) {
				padded = append(padded, "—")
			} else {
				padded = append(padded, "")
			}
		}
		out = append(out, padded)
	}
	return out
}

// Reconstruct shapes a section's raw grids into tables, keeping every grid
// that survives merging. When fewer than a fifth of the surviving rows
// across all grids carry a plausible label the section is judged
// unrecoverable and its text is returned as-is.
func Reconstruct(grids [][][]string, sectionText string) Result {
	var cleaned [][][]string
	for _, g := range grids {
		if rows := cleanGrid(g); len(rows) > 0 {
			cleaned = append(cleaned, rows)
		}
	}
	if len(cleaned) == 0 {
		return Result{RawText: sectionText, Abandoned: true}
	}

	cleaned = mergeGrids(cleaned)

	total, labeled := 0, 0
	for _, g := range cleaned {
		for _, row := range g {
			total++
			if hasPlausibleLabel(row) {
				labeled++
			}
		}
	}
	if float64(labeled) < minLabelRatio*float64(total) {
		return Result{RawText: sectionText, Abandoned: true}
	}

	// Rows the extractor dropped can only precede the first table.
	cleaned[0] = recoverOrphanRows(cleaned[0], sectionText)

	tables := make([]*Table, 0, len(cleaned))
	for _, rows := range cleaned {
		colCount := dominantWidth(rows)
		if colCount < 2 {
			colCount = 2
		}
		headers, data := inferHeaders(rows, sectionText, colCount)
		data = padRows(data, colCount)
		tables = append(tables, &Table{HeaderRows: headers, Rows: data, ColCount: colCount})
	}
	return Result{Tables: tables}
}
