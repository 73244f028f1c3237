package reconcile

import (
	"strings"
	"testing"

	"secparse/pkg/core/validate"
)

func TestCrossValidateSeverityBands(t *testing.T) {
	xbrl := map[string][]float64{
		"Revenue":      {100000},
		"Net Income":   {100000},
		"Total Assets": {100000},
		"Gross Profit": {100000},
		"XBRL Only":    {5},
	}
	pdf := map[string][]float64{
		"Revenue":      {101000}, // 1.0% — rounding
		"Net Income":   {103000}, // 3.0% — warn
		"Total Assets": {120000}, // 20% — error
		"Gross Profit": {100000}, // exact
		"PDF Only":     {7},
	}

	got := CrossValidate(xbrl, pdf, DefaultTolerance)
	if len(got) != 4 {
		t.Fatalf("expected 4 compared items, got %d", len(got))
	}

	bySeverity := map[string]Severity{}
	for _, d := range got {
		bySeverity[d.LineItem] = d.Severity
	}
	if bySeverity["Revenue"] != Info {
		t.Errorf("1%% difference = %s, want info", bySeverity["Revenue"])
	}
	if bySeverity["Net Income"] != Warn {
		t.Errorf("3%% difference = %s, want warn", bySeverity["Net Income"])
	}
	if bySeverity["Total Assets"] != Error {
		t.Errorf("20%% difference = %s, want error", bySeverity["Total Assets"])
	}
	if bySeverity["Gross Profit"] != Info {
		t.Errorf("exact match = %s, want info", bySeverity["Gross Profit"])
	}

	// Sorted output is part of the contract.
	for i := 1; i < len(got); i++ {
		if got[i-1].LineItem > got[i].LineItem {
			t.Fatal("discrepancies not sorted by line item")
		}
	}
}

func TestComputeConfidence(t *testing.T) {
	agree := []Discrepancy{{LineItem: "Revenue", Severity: Info}}
	warns := []Discrepancy{{LineItem: "Revenue", Severity: Info}, {LineItem: "Net Income", Severity: Warn}}
	errs := []Discrepancy{{LineItem: "Revenue", Severity: Error}}

	tests := []struct {
		name       string
		hasXBRL    bool
		hasPDF     bool
		disc       []Discrepancy
		valStatus  validate.Status
		wantScore  float64
		wantSource string
	}{
		{"both agree", true, true, agree, validate.Pass, 1.0, "xbrl+pdf"},
		{"both warns only", true, true, warns, validate.Pass, 0.95, "xbrl+pdf"},
		{"both with error", true, true, errs, validate.Pass, 0.8, "xbrl"},
		{"both nothing comparable", true, true, nil, validate.Pass, 1.0, "xbrl+pdf"},
		{"both empty non-nil list", true, true, []Discrepancy{}, validate.Pass, 1.0, "xbrl+pdf"},
		{"xbrl only", true, false, nil, "", 0.9, "xbrl"},
		{"pdf only validated pass", false, true, nil, validate.Pass, 0.7, "pdf"},
		{"pdf only validated warn", false, true, nil, validate.Warn, 0.5, "pdf"},
		{"pdf only validated fail", false, true, nil, validate.Fail, 0.3, "pdf"},
		{"pdf only unvalidated", false, true, nil, "", 0.6, "pdf"},
		{"neither", false, false, nil, "", 0.0, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeConfidence(tt.hasXBRL, tt.hasPDF, tt.disc, tt.valStatus)
			if got.Score != tt.wantScore || got.Source != tt.wantSource {
				t.Errorf("= (%.2f, %s), want (%.2f, %s)", got.Score, got.Source, tt.wantScore, tt.wantSource)
			}
		})
	}
}

func TestRenderSummary(t *testing.T) {
	confidences := map[string]Confidence{
		"income_statement": {1.0, "xbrl+pdf"},
		"balance_sheet":    {0.6, "pdf"},
	}
	titles := map[string]string{
		"income_statement": "Consolidated Statements of Income",
		"balance_sheet":    "Consolidated Balance Sheets",
	}
	md := RenderSummary(confidences, titles, []string{"income_statement", "balance_sheet", "cash_flow"})
	if !strings.Contains(md, "| Consolidated Statements of Income | 1.00 | xbrl+pdf |") {
		t.Errorf("summary row missing:\n%s", md)
	}
	if strings.Contains(md, "cash_flow") {
		t.Error("absent statements must be skipped")
	}
}

func TestRenderDiscrepancies(t *testing.T) {
	disc := []Discrepancy{
		{LineItem: "Revenue", XBRLValue: 100000, PDFValue: 100000, Severity: Info},
		{LineItem: "Net Income", XBRLValue: 93736, PDFValue: 90000, Difference: 3736, PctDifference: 0.0399, Severity: Warn},
	}
	md := RenderDiscrepancies(disc)
	if strings.Contains(md, "| Revenue |") {
		t.Error("in-tolerance items must not be listed")
	}
	if !strings.Contains(md, "93,736") {
		t.Errorf("thousands formatting missing:\n%s", md)
	}
	if RenderDiscrepancies(disc[:1]) != "" {
		t.Error("all-info list should render nothing")
	}
}
