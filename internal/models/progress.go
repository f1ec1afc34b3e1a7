package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchProgress is a point-in-time snapshot of a running job. Snapshots are
// produced under the engine's progress lock, so Processed == Success + Failed
// holds for every snapshot handed out.
type BatchProgress struct {
	JobID              uuid.UUID     `json:"job_id"`
	Total              int           `json:"total"`
	Processed          int           `json:"processed"`
	Success            int           `json:"success"`
	Failed             int           `json:"failed"`
	CurrentFile        string        `json:"current_file"`
	ElapsedTime        time.Duration `json:"elapsed_time"`
	EstimatedRemaining time.Duration `json:"estimated_remaining"`
}

// ProgressPercentage returns completion as 0-100.
func (p BatchProgress) ProgressPercentage() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Processed) / float64(p.Total) * 100
}

// SuccessRate returns the share of processed images that succeeded, 0-100.
func (p BatchProgress) SuccessRate() float64 {
	if p.Processed == 0 {
		return 0
	}
	return float64(p.Success) / float64(p.Processed) * 100
}
