package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"wildlifedetector/internal/models"
)

// WriteSummaryJSON persists the run's stats and final progress as a single
// structured record.
func WriteSummaryJSON(stats models.ProcessingStats, progress models.BatchProgress, path string) error {
	summary := map[string]interface{}{
		"processing_stats": stats.ToRecord(),
		"progress": map[string]interface{}{
			"job_id":              progress.JobID.String(),
			"total":               progress.Total,
			"processed":           progress.Processed,
			"success":             progress.Success,
			"failed":              progress.Failed,
			"progress_percentage": progress.ProgressPercentage(),
			"success_rate":        progress.SuccessRate(),
			"elapsed_seconds":     progress.ElapsedTime.Seconds(),
		},
		"timestamp": time.Now().Unix(),
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}
