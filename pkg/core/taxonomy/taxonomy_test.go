package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTaxonomyParses(t *testing.T) {
	tax := Default()
	stmts := tax.Statements()
	require.Contains(t, stmts, "income_statement")
	require.Contains(t, stmts, "balance_sheet")
	require.Contains(t, stmts, "cash_flow")
}

func TestAliasIndexLookup(t *testing.T) {
	ix := Default().Index("income_statement")

	tests := []struct {
		label, want string
	}{
		{"Net sales", "Revenue"},
		{"NET SALES", "Revenue"},
		{"Revenue", "Revenue"}, // canonicals self-map
		{"Cost of sales", "Cost of Revenue"},
		{"  net income (loss)  ", "Net Income"},
	}
	for _, tt := range tests {
		got, ok := ix.Lookup(tt.label)
		require.True(t, ok, "Lookup(%q)", tt.label)
		assert.Equal(t, tt.want, got, "Lookup(%q)", tt.label)
	}

	_, ok := ix.Lookup("completely unrelated label")
	assert.False(t, ok)
}

func TestAliasesSortedAndStable(t *testing.T) {
	ix := Default().Index("balance_sheet")
	aliases := ix.Aliases()
	require.NotEmpty(t, aliases)
	for i := 1; i < len(aliases); i++ {
		assert.LessOrEqual(t, aliases[i-1], aliases[i], "alias list must be sorted")
	}

	// Rebuilding the index gives the same view.
	again := Default().Index("balance_sheet")
	assert.Equal(t, aliases, again.Aliases())
}

func TestValidationCanonicalsPresent(t *testing.T) {
	tax := Default()
	bs := tax.Index("balance_sheet")
	for _, c := range []string{"Total Assets", "Total Liabilities", "Total Stockholders' Equity", "Total Liabilities & Stockholders' Equity"} {
		_, ok := bs.Lookup(c)
		assert.True(t, ok, "balance sheet canonical %q missing", c)
	}
	cf := tax.Index("cash_flow")
	for _, c := range []string{"Beginning Cash", "Ending Cash", "Net Change in Cash", "Net Cash from Operations", "Net Cash from Investing", "Net Cash from Financing"} {
		_, ok := cf.Lookup(c)
		assert.True(t, ok, "cash flow canonical %q missing", c)
	}
}

func TestDefaultConcepts(t *testing.T) {
	cm := DefaultConcepts()

	is := cm.Mappings("income_statement")
	require.NotEmpty(t, is)
	// Preference order preserved: contract-revenue concept outranks the
	// generic Revenues concept.
	var idxContract, idxGeneric int = -1, -1
	for i, m := range is {
		switch m.Concept {
		case "RevenueFromContractWithCustomerExcludingAssessedTax":
			idxContract = i
		case "Revenues":
			idxGeneric = i
		}
	}
	require.NotEqual(t, -1, idxContract)
	require.NotEqual(t, -1, idxGeneric)
	assert.Less(t, idxContract, idxGeneric)

	bs := cm.Mappings("balance_sheet")
	found := map[string]string{}
	for _, m := range bs {
		found[m.Concept] = m.Canonical
	}
	assert.Equal(t, "Total Assets", found["Assets"])
	assert.Equal(t, "Total Liabilities & Stockholders' Equity", found["LiabilitiesAndStockholdersEquity"])
}
