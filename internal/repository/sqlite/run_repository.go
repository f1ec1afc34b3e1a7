package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"wildlifedetector/internal/models"
	"wildlifedetector/internal/repository"
)

// RunRepository implements repository.RunRepository for SQLite.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun stores a run summary plus every per-image result and detection in
// a single transaction.
func (r *RunRepository) SaveRun(job *models.BatchJob, progress models.BatchProgress, stats models.ProcessingStats, results []models.DetectionResult) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	startedAt := time.Now().Add(-progress.ElapsedTime)
	_, err = tx.Exec(`
		INSERT INTO runs (id, output_dir, total_images, processed, success, failed, total_detections, processing_time_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID.String(), job.OutputDir, job.TotalImages, progress.Processed, progress.Success,
		progress.Failed, stats.TotalDetections, stats.ProcessingTime.Milliseconds(), startedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	resultStmt, err := tx.Prepare(`
		INSERT INTO results (run_id, image_path, success, error_message, processing_time_ms)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result statement: %w", err)
	}
	defer resultStmt.Close()

	detectionStmt, err := tx.Prepare(`
		INSERT INTO detections (result_id, species, scientific_name, common_name, category, confidence, x1, y1, x2, y2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare detection statement: %w", err)
	}
	defer detectionStmt.Close()

	for _, result := range results {
		res, err := resultStmt.Exec(job.ID.String(), result.ImagePath, result.Success,
			result.ErrorMessage, result.ProcessingTime.Milliseconds())
		if err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
		resultID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read result id: %w", err)
		}

		for _, d := range result.Detections {
			if _, err := detectionStmt.Exec(resultID, d.Species, d.ScientificName, d.CommonName,
				d.Category, d.Confidence, d.X1, d.Y1, d.X2, d.Y2); err != nil {
				return fmt.Errorf("failed to insert detection: %w", err)
			}
		}
	}

	return tx.Commit()
}

// GetRun retrieves one stored run summary by ID.
func (r *RunRepository) GetRun(runID string) (*repository.RunRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var rec repository.RunRecord
	var processingMs int64
	err := r.db.Conn().QueryRow(`
		SELECT id, output_dir, total_images, processed, success, failed, total_detections, processing_time_ms, started_at
		FROM runs WHERE id = ?
	`, runID).Scan(&rec.ID, &rec.OutputDir, &rec.TotalImages, &rec.Processed, &rec.Success,
		&rec.Failed, &rec.TotalDetections, &processingMs, &rec.StartedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	rec.ProcessingTime = time.Duration(processingMs) * time.Millisecond
	return &rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(limit int) ([]repository.RunRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, output_dir, total_images, processed, success, failed, total_detections, processing_time_ms, started_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []repository.RunRecord
	for rows.Next() {
		var rec repository.RunRecord
		var processingMs int64
		if err := rows.Scan(&rec.ID, &rec.OutputDir, &rec.TotalImages, &rec.Processed, &rec.Success,
			&rec.Failed, &rec.TotalDetections, &processingMs, &rec.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.ProcessingTime = time.Duration(processingMs) * time.Millisecond
		records = append(records, rec)
	}

	return records, rows.Err()
}

// SpeciesCounts tallies stored detections for a run by common name.
func (r *RunRepository) SpeciesCounts(runID string) (map[string]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT d.common_name, COUNT(*)
		FROM detections d
		JOIN results res ON res.id = d.result_id
		WHERE res.run_id = ?
		GROUP BY d.common_name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query species counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan species count: %w", err)
		}
		counts[name] = count
	}

	return counts, rows.Err()
}
