// Package taxonomy loads the canonical line-item vocabulary and the XBRL
// concept mappings used to reconcile filings against it. The default
// taxonomy is embedded so the pipeline works with no external files; a
// custom YAML can be loaded to extend it.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

//go:embed concepts.yaml
var defaultConceptsYAML []byte

// Entry is one canonical line item and the filing labels that map to it.
type Entry struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

// Taxonomy is the full vocabulary keyed by statement type
// (income_statement, balance_sheet, cash_flow, ...).
type Taxonomy struct {
	statements map[string]map[string]Entry
	indexes    map[string]*AliasIndex
}

// Load reads a taxonomy YAML from disk.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy %s: %w", path, err)
	}
	return parse(data)
}

// Default returns the embedded taxonomy. The embedded file is validated by
// tests, so a parse failure here is a build defect.
func Default() *Taxonomy {
	t, err := parse(defaultTaxonomyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy invalid: %v", err))
	}
	return t
}

func parse(data []byte) (*Taxonomy, error) {
	var raw map[string]map[string]Entry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	return &Taxonomy{statements: raw, indexes: map[string]*AliasIndex{}}, nil
}

// Statements lists the statement types present, sorted.
func (t *Taxonomy) Statements() []string {
	out := make([]string, 0, len(t.statements))
	for s := range t.statements {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AliasIndex is the flattened lowercase alias → canonical lookup for one
// statement type. Canonical names map to themselves. Indexes are built
// once per taxonomy and reused; a taxonomy is immutable after load.
type AliasIndex struct {
	byAlias map[string]string
	aliases []string // sorted, for deterministic fuzzy scans
}

// Index returns the alias index for a statement type, building it on first
// use.
func (t *Taxonomy) Index(statement string) *AliasIndex {
	if ix, ok := t.indexes[statement]; ok {
		return ix
	}
	ix := &AliasIndex{byAlias: map[string]string{}}
	for _, entry := range t.statements[statement] {
		ix.byAlias[strings.ToLower(entry.Canonical)] = entry.Canonical
		for _, a := range entry.Aliases {
			ix.byAlias[strings.ToLower(a)] = entry.Canonical
		}
	}
	for a := range ix.byAlias {
		ix.aliases = append(ix.aliases, a)
	}
	sort.Strings(ix.aliases)
	t.indexes[statement] = ix
	return ix
}

// Lookup resolves a lowercase-normalized label to its canonical name.
func (ix *AliasIndex) Lookup(label string) (string, bool) {
	c, ok := ix.byAlias[strings.ToLower(strings.TrimSpace(label))]
	return c, ok
}

// Aliases returns every alias in sorted order.
func (ix *AliasIndex) Aliases() []string {
	return ix.aliases
}

// CanonicalFor returns the canonical for an already-lowercased alias.
func (ix *AliasIndex) CanonicalFor(alias string) string {
	return ix.byAlias[alias]
}

// Canonicals returns the distinct canonical names for a statement, sorted.
func (t *Taxonomy) Canonicals(statement string) []string {
	seen := map[string]bool{}
	for _, e := range t.statements[statement] {
		seen[e.Canonical] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ConceptMapping pairs a us-gaap concept with the canonical it feeds.
// Order matters: earlier concepts are preferred when several report the
// same canonical.
type ConceptMapping struct {
	Concept   string
	Canonical string
}

// ConceptMap holds the ordered XBRL concept mappings per statement type.
type ConceptMap struct {
	byStatement map[string][]ConceptMapping
}

// DefaultConcepts returns the embedded us-gaap concept map.
func DefaultConcepts() *ConceptMap {
	var raw yaml.MapSlice
	if err := yaml.Unmarshal(defaultConceptsYAML, &raw); err != nil {
		panic(fmt.Sprintf("embedded concept map invalid: %v", err))
	}
	cm := &ConceptMap{byStatement: map[string][]ConceptMapping{}}
	for _, stmt := range raw {
		name, ok := stmt.Key.(string)
		if !ok {
			continue
		}
		pairs, ok := stmt.Value.(yaml.MapSlice)
		if !ok {
			continue
		}
		for _, p := range pairs {
			concept, _ := p.Key.(string)
			canonical, _ := p.Value.(string)
			if concept == "" || canonical == "" {
				continue
			}
			cm.byStatement[name] = append(cm.byStatement[name], ConceptMapping{concept, canonical})
		}
	}
	return cm
}

// Mappings returns the ordered concept list for a statement type.
func (cm *ConceptMap) Mappings(statement string) []ConceptMapping {
	return cm.byStatement[statement]
}
