// Package pdfext extracts per-page text and table grids from filing PDFs.
//
// The rest of the pipeline only depends on the Page shape produced here, so
// the extraction backend can be swapped (the table grids in particular may
// come from any cell-level extractor that emits ragged row/cell slices).
package pdfext

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page holds everything extracted from a single PDF page. Pages are treated
// as immutable once produced: downstream stages read text and tables but
// never write back.
type Page struct {
	PageNumber int    // 1-indexed
	Text       string
	Tables     [][][]string // table -> row -> cell; rows are ragged
}

// Extract reads text (and any pre-extracted table grids) from every page of
// a PDF. Pages that fail text extraction are kept with empty text so page
// numbering stays aligned with the source document.
func Extract(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	var pages []Page
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{PageNumber: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}

		pages = append(pages, Page{
			PageNumber: i,
			Text:       text,
			Tables:     extractGrids(page),
		})
	}

	return pages, nil
}

// extractGrids rebuilds coarse cell grids from the page content stream by
// clustering positioned text runs into rows and splitting rows on wide
// horizontal gaps. This mirrors what cell-level extractors emit: ragged
// rows, empty cells, currency symbols isolated from their values.
func extractGrids(page pdf.Page) [][][]string {
	rows, err := page.GetTextByRow()
	if err != nil || len(rows) == 0 {
		return nil
	}

	var grid [][]string
	for _, row := range rows {
		var cells []string
		var current strings.Builder
		lastEnd := -1.0
		for _, word := range row.Content {
			// A gap wider than roughly three spaces starts a new cell.
			if lastEnd >= 0 && word.X-lastEnd > 12 {
				cells = append(cells, strings.TrimSpace(current.String()))
				current.Reset()
			}
			current.WriteString(word.S)
			lastEnd = word.X + word.W
		}
		if current.Len() > 0 {
			cells = append(cells, strings.TrimSpace(current.String()))
		}
		if len(cells) > 1 {
			grid = append(grid, cells)
		}
	}

	if len(grid) < 2 {
		return nil
	}
	return [][][]string{grid}
}

// DefaultScannedThreshold and DefaultMinChars define when a document is
// rejected as image-only: more than 80% of pages carrying fewer than 50
// characters of extractable text.
const (
	DefaultScannedThreshold = 0.8
	DefaultMinChars         = 50
)

// DetectScanned returns an error when the PDF appears to be scanned
// (image-based). This is the only fatal pre-flight check in the pipeline.
func DetectScanned(pages []Page, threshold float64, minChars int) error {
	if len(pages) == 0 {
		return nil
	}
	sparse := 0
	for _, p := range pages {
		if len(strings.TrimSpace(p.Text)) < minChars {
			sparse++
		}
	}
	if float64(sparse)/float64(len(pages)) > threshold {
		return fmt.Errorf(
			"PDF appears to be scanned (%d/%d pages have <%d chars); OCR is not supported",
			sparse, len(pages), minChars,
		)
	}
	return nil
}
