// Package normalize maps filing line-item labels to the canonical taxonomy
// vocabulary: exact alias lookup first, fuzzy similarity second, and a
// batched classifier collaborator as the last resort for whatever is left.
// A failed collaborator never fails anything — unmapped labels simply keep
// an empty canonical cell.
package normalize

import (
	"context"
	"log"
	"strings"

	"secparse/pkg/core/tablerec"
	"secparse/pkg/core/taxonomy"
)

// FuzzyThreshold is the minimum similarity for a fuzzy match. 0.85 accepts;
// 0.84 does not.
const FuzzyThreshold = 0.85

// Match is one resolved label.
type Match struct {
	Canonical  string
	Confidence float64
	Method     string // "exact", "fuzzy", "classifier"
}

// ambiguousLabels maps labels whose canonical depends on the current /
// non-current sub-header they appear under.
var ambiguousLabels = map[string]map[string]string{
	"marketable securities": {
		"current":     "Short-Term Investments",
		"non-current": "Long-Term Investments",
	},
	"term debt": {
		"current":     "Short-Term Debt",
		"non-current": "Long-Term Debt",
	},
}

// Matcher resolves labels against one statement's alias index while
// tracking sub-header context as it walks the rows top to bottom.
type Matcher struct {
	ix      *taxonomy.AliasIndex
	context string // "", "current", "non-current"
}

func NewMatcher(ix *taxonomy.AliasIndex) *Matcher {
	return &Matcher{ix: ix}
}

// IsSubHeader reports whether a row is a grouping header rather than a line
// item: a trailing colon on the label, or no value cells at all.
func IsSubHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	label := strings.TrimSpace(row[0])
	if strings.HasSuffix(label, ":") {
		return true
	}
	for _, c := range row[1:] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return label != ""
}

// observeContext updates current/non-current tracking from a sub-header.
// Non-current is checked first: "non-current" contains "current".
func (m *Matcher) observeContext(label string) {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "non-current") || strings.Contains(lower, "noncurrent"):
		m.context = "non-current"
	case strings.Contains(lower, "current"):
		m.context = "current"
	}
}

// Match resolves one label. The boolean is false when nothing cleared the
// fuzzy threshold.
func (m *Matcher) Match(label string) (Match, bool) {
	clean := strings.ToLower(strings.TrimSpace(label))
	clean = strings.TrimSuffix(clean, ":")
	if clean == "" {
		return Match{}, false
	}

	if byCtx, ok := ambiguousLabels[clean]; ok && m.context != "" {
		if canonical, ok := byCtx[m.context]; ok {
			return Match{Canonical: canonical, Confidence: 1.0, Method: "exact"}, true
		}
	}

	if canonical, ok := m.ix.Lookup(clean); ok {
		return Match{Canonical: canonical, Confidence: 1.0, Method: "exact"}, true
	}

	best := ""
	bestScore := 0.0
	for _, alias := range m.ix.Aliases() {
		if score := Ratio(clean, alias); score > bestScore {
			bestScore = score
			best = alias
		}
	}
	if bestScore >= FuzzyThreshold {
		return Match{Canonical: m.ix.CanonicalFor(best), Confidence: bestScore, Method: "fuzzy"}, true
	}
	return Match{}, false
}

// TableRows inserts a canonical-name cell at index 1 of every data row.
// Sub-header rows update current/non-current context and rows without a
// usable label get an empty canonical. Input rows are not modified.
func TableRows(rows [][]string, m *Matcher) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		canonical := ""
		if len(row) > 0 {
			label := strings.TrimSpace(row[0])
			switch {
			case label == "" || tablerec.IsNumeric(label):
				// no label to normalize
			case IsSubHeader(row):
				m.observeContext(label)
			default:
				if match, ok := m.Match(label); ok {
					canonical = match.Canonical
				}
			}
		}
		normalized := make([]string, 0, len(row)+1)
		if len(row) > 0 {
			normalized = append(normalized, row[0])
		} else {
			normalized = append(normalized, "")
		}
		normalized = append(normalized, canonical)
		if len(row) > 1 {
			normalized = append(normalized, row[1:]...)
		}
		out = append(out, normalized)
	}
	return out
}

// CollectUnmapped returns the distinct labels that still have no canonical,
// in first-appearance order.
func CollectUnmapped(normalized [][]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, row := range normalized {
		if len(row) < 2 || strings.TrimSpace(row[1]) != "" {
			continue
		}
		label := strings.TrimSpace(row[0])
		if label == "" || tablerec.IsNumeric(label) || strings.HasSuffix(label, ":") {
			continue
		}
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}

// Classifier maps leftover labels to canonicals in one batched call.
// Implementations return "UNMAPPED" (or omit the key) for labels they
// cannot place.
type Classifier interface {
	ClassifyLabels(ctx context.Context, labels, canonicals []string) (map[string]string, error)
}

// ApplyClassifier fills empty canonical cells from a classifier response.
// Responses are validated against the canonical set; a classifier error
// degrades to leaving labels unmapped.
func ApplyClassifier(ctx context.Context, normalized [][]string, c Classifier, canonicals []string) [][]string {
	unmapped := CollectUnmapped(normalized)
	if len(unmapped) == 0 || c == nil {
		return normalized
	}

	mapping, err := c.ClassifyLabels(ctx, unmapped, canonicals)
	if err != nil {
		log.Printf("[Normalize] classifier failed, %d labels stay unmapped: %v", len(unmapped), err)
		return normalized
	}

	valid := make(map[string]bool, len(canonicals))
	for _, c := range canonicals {
		valid[c] = true
	}
	for _, row := range normalized {
		if len(row) < 2 || strings.TrimSpace(row[1]) != "" {
			continue
		}
		if canonical, ok := mapping[strings.TrimSpace(row[0])]; ok && canonical != "UNMAPPED" && valid[canonical] {
			row[1] = canonical
		}
	}
	return normalized
}
