package edgar

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"secparse/pkg/core/taxonomy"
)

// unitPreference orders the XBRL units worth reading. Monetary facts first;
// per-share and ratio units only matter when a concept reports nothing in
// USD. The first unit with usable items wins and the rest are ignored.
var unitPreference = []string{"USD", "USD/shares", "shares", "pure"}

// minFactItems is the floor below which the facts are judged too sparse to
// stand in for a statement.
const minFactItems = 3

// maxFactPeriods caps how many period columns a statement renders.
const maxFactPeriods = 4

// StatementFacts is one statement reconstructed from XBRL facts: period end
// dates (most recent first) and per-canonical values aligned to them. A nil
// value is a gap, not a zero.
type StatementFacts struct {
	Periods []string
	Items   map[string][]*float64
	order   []string
}

type factCell struct {
	value    float64
	duration int
}

func durationDays(start, end string) int {
	if start == "" {
		return 0
	}
	s, err1 := time.Parse("2006-01-02", start)
	e, err2 := time.Parse("2006-01-02", end)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(e.Sub(s).Hours() / 24)
}

// selectUnitItems picks the preferred unit's items, filtered to the target
// accession (dashes ignored) and stripped of segment-dimensioned facts.
func selectUnitItems(fact Fact, accession string) []FactItem {
	for _, unit := range unitPreference {
		var out []FactItem
		for _, item := range fact.Units[unit] {
			if item.Segments != nil {
				continue
			}
			if accession != "" && strings.ReplaceAll(item.Accn, "-", "") != accession {
				continue
			}
			out = append(out, item)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// ExtractStatementFacts builds one statement from a company's facts using
// the ordered concept map. The first concept reporting data claims its
// canonical; per end date the longest-duration value wins (full-period over
// quarter-to-date). Returns nil when fewer than three line items have data.
func ExtractStatementFacts(facts *CompanyFacts, mappings []taxonomy.ConceptMapping, accession string) *StatementFacts {
	gaap := facts.Facts["us-gaap"]
	if gaap == nil {
		return nil
	}
	accn := strings.ReplaceAll(accession, "-", "")

	byCanonical := map[string]map[string]factCell{}
	var order []string
	endDates := map[string]bool{}

	for _, m := range mappings {
		if _, claimed := byCanonical[m.Canonical]; claimed {
			continue
		}
		fact, ok := gaap[m.Concept]
		if !ok {
			continue
		}
		items := selectUnitItems(fact, accn)
		if len(items) == 0 {
			continue
		}

		cells := map[string]factCell{}
		for _, item := range items {
			if item.End == "" {
				continue
			}
			d := durationDays(item.Start, item.End)
			if prev, ok := cells[item.End]; !ok || d > prev.duration {
				cells[item.End] = factCell{item.Value, d}
			}
		}
		if len(cells) == 0 {
			continue
		}
		byCanonical[m.Canonical] = cells
		order = append(order, m.Canonical)
		for e := range cells {
			endDates[e] = true
		}
	}

	if len(byCanonical) < minFactItems {
		return nil
	}

	var periods []string
	for e := range endDates {
		periods = append(periods, e)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods))) // ISO dates sort lexically
	if len(periods) > maxFactPeriods {
		periods = periods[:maxFactPeriods]
	}

	items := map[string][]*float64{}
	for canonical, cells := range byCanonical {
		vals := make([]*float64, len(periods))
		for i, p := range periods {
			if cell, ok := cells[p]; ok {
				v := cell.value
				vals[i] = &v
			}
		}
		items[canonical] = vals
	}

	return &StatementFacts{Periods: periods, Items: items, order: order}
}

// Values flattens to the reconciliation shape: canonical → the non-gap
// values in period order.
func (sf *StatementFacts) Values() map[string][]float64 {
	out := map[string][]float64{}
	for canonical, vals := range sf.Items {
		for _, v := range vals {
			if v != nil {
				out[canonical] = append(out[canonical], *v)
			}
		}
	}
	return out
}

// RenderMarkdown writes the statement as a table in concept-map order, one
// column per period, em-dashes for gaps.
func (sf *StatementFacts) RenderMarkdown() string {
	var b strings.Builder

	b.WriteString("| Line Item |")
	for _, p := range sf.Periods {
		b.WriteString(" " + p + " |")
	}
	b.WriteString("\n| :--- |")
	for range sf.Periods {
		b.WriteString(" ---: |")
	}
	b.WriteString("\n")

	for _, canonical := range sf.order {
		vals := sf.Items[canonical]
		b.WriteString("| " + canonical + " |")
		for _, v := range vals {
			if v == nil {
				b.WriteString(" — |")
			} else {
				b.WriteString(" " + formatFactValue(*v) + " |")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatFactValue renders whole-dollar facts with thousands separators and
// leaves small fractional values (per-share figures) as decimals.
func formatFactValue(v float64) string {
	if v != math.Trunc(v) && math.Abs(v) < 1000 {
		return fmt.Sprintf("%.2f", v)
	}
	neg := v < 0
	s := fmt.Sprintf("%.0f", math.Abs(v))
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "(" + s + ")"
	}
	return s
}
