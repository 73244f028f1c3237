package normalize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secparse/pkg/core/taxonomy"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("net sales", "net sales"))
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))

	// "bcd" is the longest block; nothing else matches.
	assert.InDelta(t, 0.75, Ratio("abcd", "bcde"), 1e-9)
}

func TestFuzzyThresholdBoundary(t *testing.T) {
	common := strings.Repeat("a", 17)
	accept := Ratio(common+"xyz", common+"123") // 34/40
	assert.InDelta(t, 0.85, accept, 1e-9)
	assert.GreaterOrEqual(t, accept, FuzzyThreshold)

	common = strings.Repeat("a", 21)
	reject := Ratio(common+"wxyz", common+"1234") // 42/50
	assert.InDelta(t, 0.84, reject, 1e-9)
	assert.Less(t, reject, FuzzyThreshold)
}

func TestMatcherExactAndFuzzy(t *testing.T) {
	m := NewMatcher(taxonomy.Default().Index("income_statement"))

	match, ok := m.Match("Net sales")
	require.True(t, ok)
	assert.Equal(t, "Revenue", match.Canonical)
	assert.Equal(t, "exact", match.Method)
	assert.Equal(t, 1.0, match.Confidence)

	// One-character corruption still clears the fuzzy threshold.
	match, ok = m.Match("Net salez")
	require.True(t, ok)
	assert.Equal(t, "Revenue", match.Canonical)
	assert.Equal(t, "fuzzy", match.Method)
	assert.GreaterOrEqual(t, match.Confidence, FuzzyThreshold)

	_, ok = m.Match("zzzz qqqq xxxx vvvv")
	assert.False(t, ok)
}

func TestMatcherContextDisambiguation(t *testing.T) {
	m := NewMatcher(taxonomy.Default().Index("balance_sheet"))

	rows := [][]string{
		{"Current assets:", "", ""},
		{"Marketable securities", "31,590", "35,228"},
		{"Non-current assets:", "", ""},
		{"Marketable securities", "91,479", "100,544"},
	}
	normalized := TableRows(rows, m)

	assert.Equal(t, "", normalized[0][1], "sub-header must not be normalized")
	assert.Equal(t, "Short-Term Investments", normalized[1][1])
	assert.Equal(t, "Long-Term Investments", normalized[3][1])
}

func TestTableRowsShape(t *testing.T) {
	m := NewMatcher(taxonomy.Default().Index("income_statement"))
	rows := [][]string{
		{"Net sales", "94,836", "89,498"},
		{"Some bespoke item", "12", "34"},
		{"", "5", "6"},
	}
	normalized := TableRows(rows, m)
	require.Len(t, normalized, 3)
	for i, row := range normalized {
		assert.Len(t, row, len(rows[i])+1, "canonical cell inserted at index 1")
	}
	assert.Equal(t, []string{"Net sales", "Revenue", "94,836", "89,498"}, normalized[0])
	assert.Equal(t, "", normalized[1][1])
	assert.Equal(t, "", normalized[2][1])

	// Input rows untouched.
	assert.Equal(t, []string{"Net sales", "94,836", "89,498"}, rows[0])
}

func TestCollectUnmapped(t *testing.T) {
	normalized := [][]string{
		{"Net sales", "Revenue", "1"},
		{"Some bespoke item", "", "2"},
		{"Some bespoke item", "", "3"}, // duplicate collapses
		{"Operating activities:", "", ""},
		{"1,234", "", "5"},
	}
	got := CollectUnmapped(normalized)
	assert.Equal(t, []string{"Some bespoke item"}, got)
}

type fakeClassifier struct {
	mapping map[string]string
	err     error
	calls   int
}

func (f *fakeClassifier) ClassifyLabels(_ context.Context, labels, canonicals []string) (map[string]string, error) {
	f.calls++
	return f.mapping, f.err
}

func TestApplyClassifier(t *testing.T) {
	canonicals := []string{"Revenue", "Net Income"}
	normalized := [][]string{
		{"Turnover", "", "1"},
		{"Bottom line", "", "2"},
		{"Mystery", "", "3"},
	}
	c := &fakeClassifier{mapping: map[string]string{
		"Turnover":    "Revenue",
		"Bottom line": "UNMAPPED",
		"Mystery":     "Not A Canonical",
	}}
	got := ApplyClassifier(context.Background(), normalized, c, canonicals)
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, "Revenue", got[0][1])
	assert.Equal(t, "", got[1][1], "UNMAPPED response leaves the cell empty")
	assert.Equal(t, "", got[2][1], "responses outside the canonical set are rejected")
}

func TestApplyClassifierDegradesOnError(t *testing.T) {
	normalized := [][]string{{"Turnover", "", "1"}}
	c := &fakeClassifier{err: errors.New("quota exhausted")}
	got := ApplyClassifier(context.Background(), normalized, c, []string{"Revenue"})
	assert.Equal(t, "", got[0][1])
}

func TestConsistencyMap(t *testing.T) {
	cm := NewConsistencyMap()
	cm.Observe([][]string{{"Turnover", "Revenue", "1"}})
	cm.Observe([][]string{{"Turnover", "Net Income", "1"}}) // first decision wins

	rows := [][]string{{"turnover", "", "9"}}
	cm.Apply(rows)
	assert.Equal(t, "Revenue", rows[0][1])
}
