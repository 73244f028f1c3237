// Package pipeline manages the end-to-end parse of one filing PDF:
// extraction -> section split -> statement reconstruction -> normalization
// -> EDGAR reconciliation -> validation -> assembled markdown. Only a
// scanned or unreadable PDF is fatal; every other failure degrades to a
// poorer but still complete output.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	yaml "gopkg.in/yaml.v2"

	"secparse/pkg/core/assemble"
	"secparse/pkg/core/cover"
	"secparse/pkg/core/edgar"
	"secparse/pkg/core/llm"
	"secparse/pkg/core/normalize"
	"secparse/pkg/core/pdfext"
	"secparse/pkg/core/prose"
	"secparse/pkg/core/reconcile"
	"secparse/pkg/core/section"
	"secparse/pkg/core/store"
	"secparse/pkg/core/tablerec"
	"secparse/pkg/core/taxonomy"
	"secparse/pkg/core/validate"
)

// pre10KTextLimit caps how much wrapper text (shareholder-letter pages in a
// combined annual report) is kept for metadata fallback.
const pre10KTextLimit = 5000

var financialStatements = []string{
	section.BalanceSheet,
	section.IncomeStatement,
	section.CashFlow,
	section.StockholdersEquity,
	section.ComprehensiveIncome,
}

var proseSections = []string{
	section.MDA,
	section.MarketRisk,
	section.Controls,
	section.LegalProceedings,
	section.RiskFactors,
}

// xbrlStatements are the statements the concept map covers.
var xbrlStatements = []string{
	section.IncomeStatement,
	section.BalanceSheet,
	section.CashFlow,
}

var statementPrefixes = map[string]string{
	section.BalanceSheet:    "BS",
	section.IncomeStatement: "IS",
	section.CashFlow:        "CF",
}

// Scale hints live near the statements, in several phrasings.
var scaleHintRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(in\s+(?:\w+\s+)?(?:thousands|millions|billions)[^)]*\)`),
	regexp.MustCompile(`(?i)\bin\s+(?:(?:USD|U\.S\.\s*dollars?|CAD|EUR)\s*\$?\s*)?(?:thousands|millions|billions)\b`),
	regexp.MustCompile(`(?i)(?:amounts?|tabular\s+amounts?)\s+in\s+(?:thousands|millions|billions)`),
	regexp.MustCompile(`(?i)\((?:thousands|millions|billions)\s+of\s+(?:dollars|euros|pounds)\)`),
}

// Result is what one processed filing produces.
type Result struct {
	RunID       string
	OutputPath  string
	Mappings    map[string]string // label -> canonical
	Metadata    yaml.MapSlice
	DataSources map[string]string // statement -> "xbrl"|"pdf"
	Confidences map[string]reconcile.Confidence
}

// Processor manages the parse of filings. The EDGAR client, LLM provider,
// and repository are all optional; the pipeline runs PDF-only without them.
type Processor struct {
	edgar       *edgar.Client
	llm         llm.Provider
	tax         *taxonomy.Taxonomy
	concepts    *taxonomy.ConceptMap
	consistency *normalize.ConsistencyMap
	repo        *store.RunRepo
	useXBRL     bool
}

// NewProcessor creates a processor with the default taxonomy and concept
// map. A nil edgarClient disables the XBRL path; a nil provider disables
// LLM note formatting and label classification.
func NewProcessor(edgarClient *edgar.Client, provider llm.Provider) *Processor {
	return &Processor{
		edgar:       edgarClient,
		llm:         provider,
		tax:         taxonomy.Default(),
		concepts:    taxonomy.DefaultConcepts(),
		consistency: normalize.NewConsistencyMap(),
		useXBRL:     edgarClient != nil,
	}
}

// SetRepository enables persistence of parse runs.
func (p *Processor) SetRepository(repo *store.RunRepo) {
	p.repo = repo
}

// SetConsistency shares a label-decision map across a batch of filings.
func (p *Processor) SetConsistency(cm *normalize.ConsistencyMap) {
	p.consistency = cm
}

// DisableXBRL forces the PDF-only path even with an EDGAR client present.
func (p *Processor) DisableXBRL() {
	p.useXBRL = false
}

// ProcessPDF parses one filing into outputDir/<stem>.md.
func (p *Processor) ProcessPDF(ctx context.Context, pdfPath, outputDir string) (*Result, error) {
	name := filepath.Base(pdfPath)
	log.Printf("[Pipeline] Extracting text from %s...", name)

	pages, err := pdfext.Extract(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	if err := pdfext.DetectScanned(pages, pdfext.DefaultScannedThreshold, pdfext.DefaultMinChars); err != nil {
		return nil, err
	}
	log.Printf("[Pipeline] %d pages extracted", len(pages))

	if section.DetectReportType(pages) == section.ReportIFRS {
		log.Printf("[Pipeline] Detected report type: IFRS")
		return p.processIFRS(ctx, pages, name, outputDir)
	}
	log.Printf("[Pipeline] Detected report type: SEC")
	return p.processSEC(ctx, pages, name, outputDir)
}

// processSEC runs the SEC 10-K/10-Q path.
func (p *Processor) processSEC(ctx context.Context, pages []pdfext.Page, name, outputDir string) (*Result, error) {
	// Combined annual-report documents staple glossy pages in front of the
	// 10-K. Keep a slice of their text for metadata fallback, then drop them.
	pre10KText := ""
	if start := section.Detect10KStartPage(pages); start > 1 {
		log.Printf("[Pipeline] Combined document detected: filing starts at page %d", start)
		var b strings.Builder
		trimmed := pages[:0:0]
		for _, page := range pages {
			if page.PageNumber < start {
				if b.Len() < pre10KTextLimit {
					b.WriteString(page.Text)
					b.WriteByte('\n')
				}
				continue
			}
			trimmed = append(trimmed, page)
		}
		pre10KText = b.String()
		if len(pre10KText) > pre10KTextLimit {
			pre10KText = pre10KText[:pre10KTextLimit]
		}
		pages = trimmed
	}

	sections := section.Split(pages)
	for _, key := range []string{section.IncomeStatement, section.BalanceSheet, section.CashFlow, section.Notes} {
		if _, ok := sections[key]; !ok {
			log.Printf("[Pipeline] WARNING: %s not found in %s", section.Titles[key], name)
		}
	}

	processed := map[string]string{}

	// Cover fields come first: the XBRL fetch needs the CIK and period.
	var coverFields []cover.Field
	coverText := ""
	if sec, ok := sections[section.CoverPage]; ok {
		coverText = sec.Text
		coverFields = cover.Fields(sec.Text)
		processed[section.CoverPage] = cover.RenderTable(coverFields, sec.Text)
	}
	if pre10KText != "" {
		coverFields = supplementFields(coverFields, cover.Fields(pre10KText))
	}
	lookup := cover.Lookup(coverFields)

	xbrl := p.fetchXBRL(lookup)

	classifier := p.classifier()
	normalizedRows := map[string][][]string{}

	for _, key := range financialStatements {
		sec, hasPDF := sections[key]
		sf, hasXBRL := xbrl[key]

		rendered := ""
		rawText := ""
		if hasPDF {
			rec := tablerec.Reconstruct(sec.Tables, sec.Text)
			rawText = rec.RawText
			if !rec.Abandoned && len(rec.Tables) > 0 {
				var rows [][]string
				rendered, rows = p.normalizeStatement(ctx, key, rec.Tables, classifier)
				normalizedRows[key] = rows
			}
		}

		switch {
		case hasXBRL:
			log.Printf("[Pipeline] Processing %s (XBRL)", section.Titles[key])
			processed[key] = sf.RenderMarkdown()
		case rendered != "":
			log.Printf("[Pipeline] Processing %s (PDF)", section.Titles[key])
			processed[key] = rendered
		case hasPDF:
			log.Printf("[Pipeline] Processing %s (PDF, tables unrecoverable)", section.Titles[key])
			processed[key] = rawText
		}
	}

	// Notes: the model formats them when available, the local fallback
	// otherwise. A model failure is a degradation, never an abort.
	if sec, ok := sections[section.Notes]; ok {
		log.Printf("[Pipeline] Processing %s...", section.Titles[section.Notes])
		done := false
		if p.llm != nil {
			if md, err := llm.FormatNotes(ctx, p.llm, sec.Text); err == nil {
				processed[section.Notes] = md
				done = true
			} else {
				log.Printf("[Pipeline] WARNING: notes formatting failed (%v), using local fallback", err)
			}
		}
		if !done {
			processed[section.Notes] = prose.NotesFallback(sec.Text, sec.Tables)
		}
	}

	for _, key := range proseSections {
		if sec, ok := sections[key]; ok {
			processed[key] = prose.Clean(sec.Text)
		}
	}
	if sec, ok := sections[section.Exhibits]; ok {
		processed[section.Exhibits] = prose.FormatExhibits(sec.Text)
	}
	if sec, ok := sections[section.Signatures]; ok {
		processed[section.Signatures] = prose.Clean(sec.Text)
	}

	scaleHint := findScaleHint(sections)
	metadata := cover.ExtractMetadata(coverFields, scaleHint, name, coverText)

	// Validation over the normalized PDF figures.
	statementData := map[string]map[string][]float64{}
	for key := range statementPrefixes {
		if rows, ok := normalizedRows[key]; ok {
			if data := validate.ExtractStatementData(rows); len(data) > 0 {
				statementData[key] = data
			}
		}
	}
	var checks []validate.Check
	if len(statementData) > 0 {
		checks = validate.RunAll(statementData)
		log.Printf("[Pipeline] Validation: %d checks run", len(checks))
	}

	// Reconcile XBRL against PDF and grade each statement.
	dataSources := map[string]string{}
	confidences := map[string]reconcile.Confidence{}
	var discParts []string
	for _, key := range financialStatements {
		sf, hasXBRL := xbrl[key]
		pdfData := statementData[key]
		hasPDFData := len(pdfData) > 0
		if !hasXBRL && !hasPDFData {
			continue
		}

		var discs []reconcile.Discrepancy
		if hasXBRL && hasPDFData {
			discs = reconcile.CrossValidate(sf.Values(), pdfData, reconcile.DefaultTolerance)
			for _, d := range discs {
				if d.Severity != reconcile.Info {
					log.Printf("[Pipeline] %s: %s.%s XBRL=%.0f PDF=%.0f (%.1f%%)",
						strings.ToUpper(string(d.Severity)), key, d.LineItem,
						d.XBRLValue, d.PDFValue, d.PctDifference*100)
				}
			}
			if md := reconcile.RenderDiscrepancies(discs); md != "" {
				discParts = append(discParts, "#### "+section.Titles[key]+"\n\n"+md)
			}
		}

		valStatus := validate.Status("")
		if prefix, ok := statementPrefixes[key]; ok {
			valStatus = validate.StatusForStatement(checks, prefix)
		}

		conf := reconcile.ComputeConfidence(hasXBRL, hasPDFData, discs, valStatus)
		confidences[key] = conf
		dataSources[key] = conf.Source
	}

	runID := uuid.NewString()
	doc := assemble.Document{
		SourceFilename: name,
		FrontMatter:    cover.RenderFrontMatter(metadata),
		Sections:       processed,
		ValidationMD:   validate.RenderChecks(checks),
		ConfidenceMD:   reconcile.RenderSummary(confidences, section.Titles, financialStatements),
		DiscrepancyMD:  strings.Join(discParts, "\n\n"),
	}
	outputPath := filepath.Join(outputDir, strings.TrimSuffix(name, filepath.Ext(name))+".md")
	if err := assemble.Write(outputPath, assemble.Build(doc)); err != nil {
		return nil, err
	}
	log.Printf("[Pipeline] Written to %s", outputPath)

	result := &Result{
		RunID:       runID,
		OutputPath:  outputPath,
		Mappings:    collectMappings(normalizedRows),
		Metadata:    metadata,
		DataSources: dataSources,
		Confidences: confidences,
	}
	p.persist(ctx, result, name)
	return result, nil
}

// processIFRS handles the IFRS path: the five statements reconstructed
// programmatically, notes through the model when available. No taxonomy
// normalization and no EDGAR — both are US-GAAP shaped.
func (p *Processor) processIFRS(ctx context.Context, pages []pdfext.Page, name, outputDir string) (*Result, error) {
	sections := section.SplitIFRS(pages)
	for _, key := range assemble.IFRSSectionOrder {
		if _, ok := sections[key]; !ok {
			log.Printf("[Pipeline] WARNING: %s not found in %s", section.Titles[key], name)
		}
	}

	processed := map[string]string{}
	for _, key := range []string{section.IncomeStatement, section.BalanceSheet, section.StockholdersEquity, section.CashFlow} {
		sec, ok := sections[key]
		if !ok {
			continue
		}
		log.Printf("[Pipeline] Processing %s...", section.Titles[key])
		rec := tablerec.Reconstruct(sec.Tables, sec.Text)
		if rec.Abandoned || len(rec.Tables) == 0 {
			processed[key] = rec.RawText
		} else {
			processed[key] = tablerec.RenderAll(rec.Tables)
		}
	}

	if sec, ok := sections[section.Notes]; ok {
		done := false
		if p.llm != nil {
			if md, err := llm.FormatNotes(ctx, p.llm, sec.Text); err == nil {
				processed[section.Notes] = md
				done = true
			} else {
				log.Printf("[Pipeline] WARNING: notes formatting failed (%v), using raw text", err)
			}
		}
		if !done {
			processed[section.Notes] = prose.NotesFallback(sec.Text, sec.Tables)
		}
	}

	doc := assemble.Document{
		SourceFilename: name,
		Sections:       processed,
		Order:          assemble.IFRSSectionOrder,
		Required:       assemble.IFRSRequired,
	}
	outputPath := filepath.Join(outputDir, strings.TrimSuffix(name, filepath.Ext(name))+".md")
	if err := assemble.Write(outputPath, assemble.Build(doc)); err != nil {
		return nil, err
	}
	log.Printf("[Pipeline] Written to %s", outputPath)

	result := &Result{RunID: uuid.NewString(), OutputPath: outputPath}
	p.persist(ctx, result, name)
	return result, nil
}

// classifier wraps the LLM provider as a label classifier, nil when no
// provider is configured.
func (p *Processor) classifier() normalize.Classifier {
	if p.llm == nil {
		return nil
	}
	return &llm.LabelClassifier{Provider: p.llm}
}

// normalizeStatement inserts the canonical column into every table of a
// statement section and runs the fallback chain per table: consistency map
// from earlier filings, then the classifier. Returns the rendered markdown
// (tables blank-line separated, statement table first) and the normalized
// rows of all tables concatenated.
func (p *Processor) normalizeStatement(ctx context.Context, key string, tables []*tablerec.Table, classifier normalize.Classifier) (string, [][]string) {
	taxKey := key
	if key == section.ComprehensiveIncome {
		taxKey = section.IncomeStatement
	}
	m := normalize.NewMatcher(p.tax.Index(taxKey))

	var parts []string
	var all [][]string
	for _, table := range tables {
		rows := normalize.TableRows(table.Rows, m)
		if p.consistency != nil {
			p.consistency.Apply(rows)
		}
		if classifier != nil {
			rows = normalize.ApplyClassifier(ctx, rows, classifier, p.tax.Canonicals(taxKey))
		}
		if p.consistency != nil {
			p.consistency.Observe(rows)
		}
		parts = append(parts, strings.TrimRight(tablerec.RenderNormalized(table, rows), "\n"))
		all = append(all, rows...)
	}
	return strings.Join(parts, "\n\n"), all
}

// fetchXBRL pulls company facts for the filing and extracts the statements
// the concept map covers. Any failure logs and returns what it has — the
// PDF path covers the rest.
func (p *Processor) fetchXBRL(lookup map[string]string) map[string]*edgar.StatementFacts {
	out := map[string]*edgar.StatementFacts{}
	if !p.useXBRL || p.edgar == nil {
		return out
	}
	cik := lookup["CIK"]
	if cik == "" {
		log.Printf("[Pipeline] No CIK found, skipping XBRL fetch")
		return out
	}

	filingType := lookup["Filing Type"]
	periodEnd, _ := cover.ParsePeriodDate(lookup["Period"])
	if filingType == "" || periodEnd == "" {
		log.Printf("[Pipeline] Insufficient metadata for EDGAR filing match")
		return out
	}

	log.Printf("[Pipeline] Fetching XBRL data for CIK %s...", cik)
	facts, err := p.edgar.GetCompanyFacts(cik)
	if err != nil {
		log.Printf("[Pipeline] XBRL fetch failed: %v", err)
		return out
	}
	subs, err := p.edgar.GetSubmissions(cik)
	if err != nil {
		log.Printf("[Pipeline] XBRL fetch failed: %v", err)
		return out
	}

	accession, ok := edgar.FindFilingAccession(subs, filingType, periodEnd)
	if !ok {
		log.Printf("[Pipeline] No EDGAR filing match for %s %s", filingType, periodEnd)
		return out
	}
	log.Printf("[Pipeline] Found EDGAR filing: %s", accession)

	for _, stmt := range xbrlStatements {
		mappings := p.concepts.Mappings(stmt)
		if len(mappings) == 0 {
			continue
		}
		if sf := edgar.ExtractStatementFacts(facts, mappings, accession); sf != nil {
			out[stmt] = sf
		}
	}
	if len(out) > 0 {
		var names []string
		for key := range out {
			names = append(names, section.Titles[key])
		}
		log.Printf("[Pipeline] XBRL data found for: %s", strings.Join(names, ", "))
	}
	return out
}

// persist saves the run when a repository is configured; storage failures
// never fail the parse.
func (p *Processor) persist(ctx context.Context, result *Result, sourcePDF string) {
	if p.repo == nil {
		return
	}
	meta := map[string]interface{}{}
	for _, item := range result.Metadata {
		if k, ok := item.Key.(string); ok {
			meta[k] = item.Value
		}
	}
	confs := map[string]float64{}
	for k, c := range result.Confidences {
		confs[k] = c.Score
	}
	run := &store.ParseRun{
		RunID:       result.RunID,
		SourcePDF:   sourcePDF,
		OutputPath:  result.OutputPath,
		Metadata:    meta,
		Mappings:    result.Mappings,
		DataSources: result.DataSources,
		Confidences: confs,
	}
	if err := p.repo.Save(ctx, run); err != nil {
		log.Printf("[Pipeline] WARNING: failed to persist run: %v", err)
	}
}

// supplementFields adds wrapper-page fields for labels the cover page
// itself did not yield.
func supplementFields(fields, extra []cover.Field) []cover.Field {
	have := map[string]bool{}
	for _, f := range fields {
		have[f.Label] = true
	}
	for _, f := range extra {
		if !have[f.Label] {
			fields = append(fields, f)
			have[f.Label] = true
		}
	}
	return fields
}

// findScaleHint scans the financial statement text for a scale phrase.
func findScaleHint(sections map[string]*section.Data) string {
	for _, key := range financialStatements {
		sec, ok := sections[key]
		if !ok {
			continue
		}
		for _, re := range scaleHintRes {
			if m := re.FindString(sec.Text); m != "" {
				return m
			}
		}
	}
	return ""
}

// collectMappings flattens the resolved label -> canonical pairs from every
// normalized statement.
func collectMappings(normalizedRows map[string][][]string) map[string]string {
	out := map[string]string{}
	for _, rows := range normalizedRows {
		for _, row := range rows {
			if len(row) < 2 {
				continue
			}
			label := strings.TrimSpace(row[0])
			canonical := strings.TrimSpace(row[1])
			if label != "" && canonical != "" {
				out[label] = canonical
			}
		}
	}
	return out
}
