// Package reconcile compares statement figures extracted from the PDF
// against the same figures from an alternate structured source (EDGAR XBRL
// facts), grades the disagreements, and folds everything into a confidence
// score per statement.
package reconcile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"secparse/pkg/core/validate"
)

// Severity of one disagreement.
type Severity string

const (
	Info  Severity = "info"
	Warn  Severity = "warn"
	Error Severity = "error"
)

// Severity bands as relative differences. DefaultTolerance is the rounding
// band; past warnCeiling a figure is simply wrong in one of the sources.
const (
	DefaultTolerance = 0.01
	warnCeiling      = 0.05
)

// Discrepancy is one compared line item. Items that agree exactly are
// recorded too (severity info, zero difference) so callers can tell "all
// agreed" from "nothing was comparable".
type Discrepancy struct {
	LineItem      string
	XBRLValue     float64
	PDFValue      float64
	Difference    float64
	PctDifference float64
	Severity      Severity
}

// CrossValidate compares the first value of every canonical the two
// sources share. Keys are walked in sorted order so output is stable.
func CrossValidate(xbrl, pdf map[string][]float64, tolerance float64) []Discrepancy {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	var keys []string
	for k, vals := range xbrl {
		if len(vals) == 0 {
			continue
		}
		if pv, ok := pdf[k]; ok && len(pv) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []Discrepancy
	for _, k := range keys {
		xv := xbrl[k][0]
		pv := pdf[k][0]
		diff := math.Abs(xv - pv)

		denom := math.Abs(xv)
		if denom == 0 {
			denom = math.Abs(pv)
		}
		pct := 0.0
		if denom != 0 {
			pct = diff / denom
		}

		severity := Info
		switch {
		case pct <= tolerance:
			severity = Info
		case pct <= warnCeiling:
			severity = Warn
		default:
			severity = Error
		}
		out = append(out, Discrepancy{
			LineItem:      k,
			XBRLValue:     xv,
			PDFValue:      pv,
			Difference:    diff,
			PctDifference: pct,
			Severity:      severity,
		})
	}
	return out
}

// Confidence is the per-statement trust grade and the source that won.
type Confidence struct {
	Score  float64
	Source string // "xbrl+pdf", "xbrl", "pdf", "none"
}

// ComputeConfidence grades one statement. Pure function of its inputs:
//
//	both sources, no disagreement past tolerance → 1.0
//	both sources, worst disagreement is a warn   → 0.95
//	both sources, any error                      → 0.8, XBRL wins
//	XBRL only                                    → 0.9
//	PDF only                                     → 0.7/0.5/0.3 by validation,
//	                                               0.6 when unvalidated
//	neither                                      → 0.0
//
// An empty discrepancy list scores 1.0 like an all-info one: with both
// sources in hand and nothing flagged, there is nothing to distrust.
func ComputeConfidence(hasXBRL, hasPDF bool, discrepancies []Discrepancy, valStatus validate.Status) Confidence {
	switch {
	case hasXBRL && hasPDF:
		worst := Info
		for _, d := range discrepancies {
			if d.Severity == Error {
				worst = Error
				break
			}
			if d.Severity == Warn {
				worst = Warn
			}
		}
		switch worst {
		case Error:
			return Confidence{0.8, "xbrl"}
		case Warn:
			return Confidence{0.95, "xbrl+pdf"}
		default:
			return Confidence{1.0, "xbrl+pdf"}
		}
	case hasXBRL:
		return Confidence{0.9, "xbrl"}
	case hasPDF:
		switch valStatus {
		case validate.Pass:
			return Confidence{0.7, "pdf"}
		case validate.Warn:
			return Confidence{0.5, "pdf"}
		case validate.Fail:
			return Confidence{0.3, "pdf"}
		default:
			return Confidence{0.6, "pdf"}
		}
	default:
		return Confidence{0.0, "none"}
	}
}

// RenderSummary writes the per-statement confidence table in the order
// given; statements missing from the map are skipped.
func RenderSummary(confidences map[string]Confidence, titles map[string]string, order []string) string {
	var b strings.Builder
	b.WriteString("| Statement | Confidence | Source |\n| :--- | ---: | :--- |\n")
	rows := 0
	for _, key := range order {
		c, ok := confidences[key]
		if !ok {
			continue
		}
		title := titles[key]
		if title == "" {
			title = key
		}
		fmt.Fprintf(&b, "| %s | %.2f | %s |\n", title, c.Score, c.Source)
		rows++
	}
	if rows == 0 {
		return ""
	}
	return b.String()
}

// RenderDiscrepancies writes the disagreement detail for one statement,
// omitting items that agreed within tolerance.
func RenderDiscrepancies(discrepancies []Discrepancy) string {
	var notable []Discrepancy
	for _, d := range discrepancies {
		if d.Severity != Info {
			notable = append(notable, d)
		}
	}
	if len(notable) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("| Line Item | XBRL | PDF | Diff | % | Severity |\n")
	b.WriteString("| :--- | ---: | ---: | ---: | ---: | :--- |\n")
	for _, d := range notable {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %.1f%% | %s |\n",
			d.LineItem, formatValue(d.XBRLValue), formatValue(d.PDFValue),
			formatValue(d.Difference), d.PctDifference*100, d.Severity)
	}
	return b.String()
}

func formatValue(v float64) string {
	neg := v < 0
	s := fmt.Sprintf("%.0f", math.Abs(v))
	// Insert thousands separators.
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "(" + s + ")"
	}
	return s
}
