package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Analysis is one recorded pipeline run: who was analysed, whether it
// succeeded, and the full result payload for later inspection.
type Analysis struct {
	ID        int            `json:"id"`
	RunID     string         `json:"run_id"`
	ProductID int            `json:"product_id"`
	Status    string         `json:"status"`
	Result    map[string]any `json:"result"`
	CreatedAt time.Time      `json:"created_at"`
}

// RecordAnalysis persists a completed pipeline run and returns its run ID.
func (db *DB) RecordAnalysis(productID int, status string, result map[string]any) (string, error) {
	encoded, err := json.Marshal(emptyMapIfNil(result))
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis result: %w", err)
	}

	runID := uuid.NewString()
	_, err = db.Exec(
		"INSERT INTO analyses (run_id, product_id, status, result) VALUES (?, ?, ?, ?)",
		runID, productID, status, string(encoded))
	if err != nil {
		return "", fmt.Errorf("failed to record analysis: %w", err)
	}
	return runID, nil
}

// ListAnalyses returns the most recent analyses, newest first.
func (db *DB) ListAnalyses(limit int) ([]Analysis, error) {
	rows, err := db.Query(
		`SELECT id, run_id, product_id, status, result, created_at
		 FROM analyses ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		var a Analysis
		var result string
		var createdAtUnix int64
		if err := rows.Scan(&a.ID, &a.RunID, &a.ProductID, &a.Status, &result, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if err := json.Unmarshal([]byte(result), &a.Result); err != nil {
			return nil, fmt.Errorf("failed to decode analysis result: %w", err)
		}
		a.CreatedAt = time.Unix(createdAtUnix, 0)
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}
