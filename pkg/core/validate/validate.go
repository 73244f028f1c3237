// Package validate runs arithmetic tie-out checks over normalized statement
// data: the balance sheet equation, gross profit, the cash walk, and the
// cross-statement agreements between them. Checks report, they never abort
// the pipeline.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Status of one check.
type Status string

const (
	Pass Status = "PASS"
	Warn Status = "WARN"
	Fail Status = "FAIL"
	Skip Status = "SKIP"
)

// Check is a single named tie-out result.
type Check struct {
	Name   string
	Status Status
	Detail string
}

// relTolerance is the relative difference treated as rounding rather than
// error. Filings round to the nearest unit of their scale, so a small
// residual is expected.
const relTolerance = 0.01

var dashValues = map[string]bool{"—": true, "-": true, "–": true}

// ParseNumeric converts a table cell to a float. Dashes and empty cells
// report ok=false: absent is not zero.
func ParseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || dashValues[s] {
		return 0, false
	}
	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", "%", "", " ", "").Replace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// ExtractStatementData collects canonical → column values from normalized
// rows of the shape [label, canonical, values...]. The first row claiming a
// canonical wins; later duplicates are usually parenthetical repeats.
func ExtractStatementData(rows [][]string) map[string][]float64 {
	data := map[string][]float64{}
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		canonical := strings.TrimSpace(row[1])
		if canonical == "" {
			continue
		}
		if _, ok := data[canonical]; ok {
			continue
		}
		var vals []float64
		for _, cell := range row[2:] {
			if v, ok := ParseNumeric(cell); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) > 0 {
			data[canonical] = vals
		}
	}
	return data
}

func first(data map[string][]float64, key string) (float64, bool) {
	vals, ok := data[key]
	if !ok || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// checkEquality bands an expected/actual pair: exact PASS, within the
// relative tolerance WARN, beyond it FAIL.
func checkEquality(name string, expected, actual float64) Check {
	diff := math.Abs(expected - actual)
	if diff == 0 {
		return Check{name, Pass, fmt.Sprintf("%.0f = %.0f", expected, actual)}
	}
	denom := math.Abs(expected)
	if denom == 0 {
		denom = math.Abs(actual)
	}
	detail := fmt.Sprintf("expected %.0f, got %.0f (diff %.0f)", expected, actual, diff)
	if denom != 0 && diff/denom <= relTolerance {
		return Check{name, Warn, detail}
	}
	return Check{name, Fail, detail}
}

// CheckBalanceSheet verifies Assets = Liabilities + Equity. A reported
// combined total wins over summing the parts.
func CheckBalanceSheet(data map[string][]float64) Check {
	const name = "BS Balance (Assets vs L+E)"

	assets, ok := first(data, "Total Assets")
	if !ok {
		return Check{name, Skip, "Total Assets not found"}
	}
	if combined, ok := first(data, "Total Liabilities & Stockholders' Equity"); ok {
		return checkEquality(name, assets, combined)
	}
	liabilities, okL := first(data, "Total Liabilities")
	equity, okE := first(data, "Total Stockholders' Equity")
	if !okL || !okE {
		return Check{name, Skip, "liabilities or equity total not found"}
	}
	return checkEquality(name, assets, liabilities+equity)
}

// CheckIncomeStatement returns the gross profit tie-out and a net income
// presence check. Cost of revenue appears signed either way depending on
// the filing, so its magnitude is used.
func CheckIncomeStatement(data map[string][]float64) []Check {
	var checks []Check

	revenue, okR := first(data, "Revenue")
	cost, okC := first(data, "Cost of Revenue")
	gross, okG := first(data, "Gross Profit")
	if okR && okC && okG {
		checks = append(checks, checkEquality("IS Gross Profit Check", revenue-math.Abs(cost), gross))
	} else {
		checks = append(checks, Check{"IS Gross Profit Check", Skip, "revenue, cost, or gross profit not found"})
	}

	if _, ok := first(data, "Net Income"); ok {
		checks = append(checks, Check{"IS Net Income Present", Pass, "found"})
	} else {
		checks = append(checks, Check{"IS Net Income Present", Skip, "not found"})
	}
	return checks
}

// CheckCashFlow verifies the cash walk and that the three activity
// subtotals are present.
func CheckCashFlow(data map[string][]float64) []Check {
	var checks []Check

	beginning, okB := first(data, "Beginning Cash")
	change, okC := first(data, "Net Change in Cash")
	ending, okE := first(data, "Ending Cash")
	if okB && okC && okE {
		checks = append(checks, checkEquality("CF Cash Reconciliation", beginning+change, ending))
	} else {
		checks = append(checks, Check{"CF Cash Reconciliation", Skip, "beginning, change, or ending cash not found"})
	}

	found := 0
	for _, key := range []string{"Net Cash from Operations", "Net Cash from Investing", "Net Cash from Financing"} {
		if _, ok := first(data, key); ok {
			found++
		}
	}
	switch found {
	case 3:
		checks = append(checks, Check{"CF Activity Sections", Pass, "all three activity sections found"})
	case 2:
		checks = append(checks, Check{"CF Activity Sections", Warn, "only two activity sections found"})
	default:
		checks = append(checks, Check{"CF Activity Sections", Fail, fmt.Sprintf("only %d activity sections found", found)})
	}
	return checks
}

// withinUnit reports agreement within one reporting unit or 1% of the
// reference, whichever is larger.
func withinUnit(a, b float64) bool {
	return math.Abs(a-b) <= math.Max(1, math.Abs(a)*relTolerance)
}

func anyPairAgrees(as, bs []float64) bool {
	for _, a := range as {
		for _, b := range bs {
			if withinUnit(a, b) {
				return true
			}
		}
	}
	return false
}

// CrossChecks compares figures that appear on two statements. Column order
// differs between statements, so any agreeing pair passes.
func CrossChecks(is, cf, bs map[string][]float64) []Check {
	var checks []Check

	if isNI, ok := is["Net Income"]; ok {
		if cfNI, ok := cf["Net Income"]; ok {
			status := Fail
			if anyPairAgrees(isNI, cfNI) {
				status = Pass
			}
			checks = append(checks, Check{"Cross: Net Income (IS vs CF)", status, ""})
		}
	}

	if ending, ok := cf["Ending Cash"]; ok {
		if cash, ok := bs["Cash & Cash Equivalents"]; ok {
			name := "Cross: Cash (CF Ending vs BS)"
			switch {
			case anyPairAgrees(ending, cash):
				checks = append(checks, Check{name, Pass, ""})
			default:
				// Ending cash on the CF commonly includes restricted cash
				// the balance sheet breaks out.
				restricted, ok := bs["Restricted Cash"]
				if ok && len(restricted) > 0 {
					combined := make([]float64, 0, len(cash))
					for i, c := range cash {
						r := restricted[0]
						if i < len(restricted) {
							r = restricted[i]
						}
						combined = append(combined, c+r)
					}
					if anyPairAgrees(ending, combined) {
						checks = append(checks, Check{name, Pass, "matches including restricted cash"})
						break
					}
				}
				checks = append(checks, Check{name, Fail, ""})
			}
		}
	}
	return checks
}

// RunAll executes every applicable check for the statements present, keyed
// by section name (income_statement, balance_sheet, cash_flow).
func RunAll(statements map[string]map[string][]float64) []Check {
	var checks []Check

	if bs, ok := statements["balance_sheet"]; ok {
		checks = append(checks, CheckBalanceSheet(bs))
	}
	if is, ok := statements["income_statement"]; ok {
		checks = append(checks, CheckIncomeStatement(is)...)
	}
	if cf, ok := statements["cash_flow"]; ok {
		checks = append(checks, CheckCashFlow(cf)...)
	}

	if len(statements) >= 2 {
		checks = append(checks, CrossChecks(
			statements["income_statement"],
			statements["cash_flow"],
			statements["balance_sheet"],
		)...)
	}
	return checks
}

// StatusForStatement folds the checks targeting one statement prefix
// ("BS", "IS", "CF") into a single status for confidence scoring. An empty
// status means no check applied.
func StatusForStatement(checks []Check, prefix string) Status {
	status := Status("")
	for _, c := range checks {
		if !strings.HasPrefix(c.Name, prefix+" ") {
			continue
		}
		switch c.Status {
		case Fail:
			return Fail
		case Warn:
			status = Warn
		case Pass:
			if status == "" {
				status = Pass
			}
		}
	}
	return status
}

// RenderChecks writes the validation results as a markdown table.
func RenderChecks(checks []Check) string {
	if len(checks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("| Check | Status | Detail |\n| :--- | :--- | :--- |\n")
	for _, c := range checks {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", c.Name, c.Status, c.Detail)
	}
	return b.String()
}
