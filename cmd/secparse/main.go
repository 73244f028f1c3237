package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"secparse/internal/config"
	"secparse/pkg/core/edgar"
	"secparse/pkg/core/llm"
	"secparse/pkg/core/normalize"
	"secparse/pkg/core/pipeline"
	"secparse/pkg/core/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		os.Exit(1)
	}
	if !cfg.Verbose {
		log.SetOutput(&warningOnlyWriter{})
	}

	pdfs, err := collectPDFs(cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if len(pdfs) == 0 {
		log.Fatalf("Error: no PDF files found under %s", cfg.InputPath)
	}

	ctx := context.Background()

	var edgarClient *edgar.Client
	if !cfg.DisableXBRL {
		edgarClient, err = edgar.NewClient()
		if err != nil {
			fmt.Printf("⚠️  EDGAR disabled: %v\n", err)
		}
	}

	var provider llm.Provider
	if !cfg.DisableLLM {
		if os.Getenv("GEMINI_API_KEY") == "" {
			fmt.Println("⚠️  GEMINI_API_KEY not set; notes use the local formatter")
		} else {
			provider = &llm.GeminiProvider{Model: cfg.Model}
		}
	}

	var repo *store.RunRepo
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("⚠️  Persistence disabled: %v\n", err)
		} else {
			repo = store.NewRunRepo()
			defer store.Close()
		}
	}

	fmt.Printf("📄 Parsing %d filing(s) -> %s\n", len(pdfs), cfg.OutputDir)

	// One consistency map for the whole batch keeps label decisions stable
	// across filings. Each worker gets its own processor around the shared
	// collaborators.
	consistency := normalize.NewConsistencyMap()
	newProcessor := func() *pipeline.Processor {
		p := pipeline.NewProcessor(edgarClient, provider)
		p.SetConsistency(consistency)
		if repo != nil {
			p.SetRepository(repo)
		}
		return p
	}

	failed := 0
	if len(pdfs) == 1 || cfg.Workers == 1 {
		failed = runSerial(ctx, newProcessor(), pdfs, cfg.OutputDir)
	} else {
		failed = runPool(ctx, newProcessor, pdfs, cfg.OutputDir, cfg.Workers)
	}

	fmt.Printf("\n✅ Done: %d parsed, %d failed\n", len(pdfs)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func runSerial(ctx context.Context, p *pipeline.Processor, pdfs []string, outputDir string) int {
	failed := 0
	for _, pdf := range pdfs {
		if err := processOne(ctx, p, pdf, outputDir); err != nil {
			failed++
		}
	}
	return failed
}

func runPool(ctx context.Context, newProcessor func() *pipeline.Processor, pdfs []string, outputDir string, workers int) int {
	if workers > len(pdfs) {
		workers = len(pdfs)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := newProcessor()
			for pdf := range jobs {
				if err := processOne(ctx, p, pdf, outputDir); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}
		}()
	}
	for _, pdf := range pdfs {
		jobs <- pdf
	}
	close(jobs)
	wg.Wait()
	return failed
}

func processOne(ctx context.Context, p *pipeline.Processor, pdf, outputDir string) error {
	result, err := p.ProcessPDF(ctx, pdf, outputDir)
	if err != nil {
		fmt.Printf("❌ %s: %v\n", filepath.Base(pdf), err)
		return err
	}
	fmt.Printf("✅ %s -> %s\n", filepath.Base(pdf), result.OutputPath)
	return nil
}

// collectPDFs expands the input path to the list of PDFs to parse, sorted
// for deterministic batch order.
func collectPDFs(cfg *config.Config) ([]string, error) {
	if !cfg.IsDirectory() {
		return []string{cfg.InputPath}, nil
	}

	entries, err := os.ReadDir(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	var pdfs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(cfg.InputPath, e.Name()))
		}
	}
	sort.Strings(pdfs)
	return pdfs, nil
}

// warningOnlyWriter drops per-stage progress lines in quiet mode while
// keeping warnings visible.
type warningOnlyWriter struct{}

func (warningOnlyWriter) Write(p []byte) (int, error) {
	if strings.Contains(string(p), "WARNING") {
		return os.Stderr.Write(p)
	}
	return len(p), nil
}
