package tablerec

import (
	"regexp"
	"strings"
)

var innerWhitespaceRe = regexp.MustCompile(`\s+`)

func cleanCell(c string) string {
	return innerWhitespaceRe.ReplaceAllString(strings.TrimSpace(c), " ")
}

func renderRow(b *strings.Builder, row []string, colCount int) {
	b.WriteString("|")
	for i := 0; i < colCount; i++ {
		c := ""
		if i < len(row) {
			c = cleanCell(row[i])
		}
		b.WriteString(" ")
		b.WriteString(c)
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func renderTable(headers, rows [][]string, colCount, leftCols int) string {
	var b strings.Builder

	if len(headers) == 0 {
		headers = [][]string{make([]string, colCount)}
	}
	for _, h := range headers {
		renderRow(&b, h, colCount)
	}

	b.WriteString("|")
	for i := 0; i < colCount; i++ {
		if i < leftCols {
			b.WriteString(" :--- |")
		} else {
			b.WriteString(" ---: |")
		}
	}
	b.WriteString("\n")

	for _, row := range rows {
		renderRow(&b, row, colCount)
	}
	return b.String()
}

// Render emits a table as GitHub-flavored markdown: label column left
// aligned, value columns right aligned, every row exactly ColCount cells.
func Render(t *Table) string {
	return renderTable(t.HeaderRows, t.Rows, t.ColCount, 1)
}

// RenderAll renders every reconstructed table in document order, separated
// by blank lines.
func RenderAll(tables []*Table) string {
	parts := make([]string, 0, len(tables))
	for _, t := range tables {
		parts = append(parts, strings.TrimRight(Render(t), "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// RenderNormalized renders rows that carry a canonical-name column at
// index 1 (one column wider than the table's raw shape). Header rows are
// widened to match and the canonical column is titled.
func RenderNormalized(t *Table, normalized [][]string) string {
	colCount := t.ColCount + 1

	headers := make([][]string, 0, len(t.HeaderRows))
	for i, h := range t.HeaderRows {
		wide := make([]string, 0, colCount)
		if len(h) > 0 {
			wide = append(wide, h[0])
		} else {
			wide = append(wide, "")
		}
		if i == len(t.HeaderRows)-1 {
			wide = append(wide, "Canonical")
		} else {
			wide = append(wide, "")
		}
		if len(h) > 1 {
			wide = append(wide, h[1:]...)
		}
		headers = append(headers, wide)
	}
	if len(headers) == 0 {
		h := make([]string, colCount)
		h[1] = "Canonical"
		headers = [][]string{h}
	}

	return renderTable(headers, normalized, colCount, 2)
}
