package batch

import (
	"time"

	"wildlifedetector/internal/models"
)

// Summarize reduces a completed (or partial, post-cancellation) result set
// into ProcessingStats. It is a pure function: calling it twice on the same
// results yields identical stats, and it is always recomputed from scratch
// rather than maintained incrementally.
//
// Species and category tallies only count detections from successful
// results; those detections already passed the engine's confidence filter.
// Timing stats are computed over results with a positive processing time;
// with no valid samples every derived value is zero, never NaN.
func Summarize(results []models.DetectionResult) models.ProcessingStats {
	stats := models.ProcessingStats{
		TotalImages:     len(results),
		ProcessedImages: len(results),
		SpeciesCounts:   make(map[string]int),
		CategoryCounts:  make(map[string]int),
		ErrorCounts:     make(map[string]int),
	}

	var (
		totalTime time.Duration
		samples   int
		minTime   time.Duration
		maxTime   time.Duration
	)

	for _, result := range results {
		if result.ProcessingTime > 0 {
			totalTime += result.ProcessingTime
			if samples == 0 || result.ProcessingTime < minTime {
				minTime = result.ProcessingTime
			}
			if result.ProcessingTime > maxTime {
				maxTime = result.ProcessingTime
			}
			samples++
		}

		if !result.Success {
			stats.FailedDetections++
			msg := result.ErrorMessage
			if msg == "" {
				msg = "Unknown Error"
			}
			stats.ErrorCounts[msg]++
			continue
		}

		stats.SuccessfulDetections++
		stats.TotalDetections += len(result.Detections)
		for _, d := range result.Detections {
			species := d.CommonName
			if species == "" {
				species = "Unknown"
			}
			stats.SpeciesCounts[species]++

			category := d.Category
			if category == "" {
				category = "Unknown"
			}
			stats.CategoryCounts[category]++
		}
	}

	stats.ProcessingTime = totalTime
	stats.MinTimePerImage = minTime
	stats.MaxTimePerImage = maxTime
	if samples > 0 {
		stats.AverageTimePerImage = totalTime / time.Duration(samples)
		if totalTime > 0 {
			stats.ImagesPerSecond = float64(samples) / totalTime.Seconds()
		}
	}

	return stats
}
