package repository

import (
	"time"

	"wildlifedetector/internal/models"
)

// RunRecord is a stored summary of one batch run.
type RunRecord struct {
	ID              string
	OutputDir       string
	TotalImages     int
	Processed       int
	Success         int
	Failed          int
	TotalDetections int
	ProcessingTime  time.Duration
	StartedAt       time.Time
}

// RunRepository defines the interface for persisting batch runs.
type RunRepository interface {
	SaveRun(job *models.BatchJob, progress models.BatchProgress, stats models.ProcessingStats, results []models.DetectionResult) error
	GetRun(runID string) (*RunRecord, error)
	ListRuns(limit int) ([]RunRecord, error)
	SpeciesCounts(runID string) (map[string]int, error)
}
