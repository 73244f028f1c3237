package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ParseRun is the persisted record of one processed filing.
type ParseRun struct {
	RunID       string                 `json:"run_id"`
	SourcePDF   string                 `json:"source_pdf"`
	OutputPath  string                 `json:"output_path"`
	Metadata    map[string]interface{} `json:"metadata"`
	Mappings    map[string]string      `json:"mappings"`     // label -> canonical
	DataSources map[string]string      `json:"data_sources"` // statement -> "xbrl"|"pdf"
	Confidences map[string]float64     `json:"confidences"`  // statement -> score
}

// RunRepo handles the storage of parse runs.
type RunRepo struct{}

// NewRunRepo creates a new repository instance.
func NewRunRepo() *RunRepo {
	return &RunRepo{}
}

// Save persists a parse run, one row per source PDF, latest run winning.
// The parse_runs table is created by InitDB.
func (r *RunRepo) Save(ctx context.Context, run *ParseRun) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal parse run: %w", err)
	}

	query := `
		INSERT INTO parse_runs (source_pdf, run_id, run_json, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source_pdf)
		DO UPDATE SET
			run_id = EXCLUDED.run_id,
			run_json = EXCLUDED.run_json,
			updated_at = EXCLUDED.updated_at;
	`

	if _, err = pool.Exec(ctx, query, run.SourcePDF, run.RunID, jsonData, time.Now()); err != nil {
		return fmt.Errorf("failed to save parse run: %w", err)
	}
	return nil
}

// Load retrieves the latest parse run for a source PDF.
func (r *RunRepo) Load(ctx context.Context, sourcePDF string) (*ParseRun, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var jsonData []byte
	err := pool.QueryRow(ctx, `SELECT run_json FROM parse_runs WHERE source_pdf = $1`, sourcePDF).Scan(&jsonData)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no parse run found for %s", sourcePDF)
		}
		return nil, fmt.Errorf("failed to load parse run: %w", err)
	}

	var run ParseRun
	if err := json.Unmarshal(jsonData, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parse run: %w", err)
	}
	return &run, nil
}
