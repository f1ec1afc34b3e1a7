package models

import "time"

// ProcessingStats is a read-only summary computed from a completed (or
// partial, post-cancellation) result set. It is always recomputed from the
// full result set, never maintained incrementally.
type ProcessingStats struct {
	TotalImages          int            `json:"total_images"`
	ProcessedImages      int            `json:"processed_images"`
	SuccessfulDetections int            `json:"successful_detections"`
	FailedDetections     int            `json:"failed_detections"`
	TotalDetections      int            `json:"total_detections"`
	ProcessingTime       time.Duration  `json:"processing_time"`
	AverageTimePerImage  time.Duration  `json:"average_time_per_image"`
	MinTimePerImage      time.Duration  `json:"min_time_per_image"`
	MaxTimePerImage      time.Duration  `json:"max_time_per_image"`
	ImagesPerSecond      float64        `json:"images_per_second"`
	SpeciesCounts        map[string]int `json:"species_counts"`
	CategoryCounts       map[string]int `json:"category_counts"`
	ErrorCounts          map[string]int `json:"error_counts"`
}

// ToRecord flattens the stats into a field-name → value mapping for
// external reporting (JSON summary, CSV exporter).
func (s ProcessingStats) ToRecord() map[string]interface{} {
	return map[string]interface{}{
		"total_images":           s.TotalImages,
		"processed_images":       s.ProcessedImages,
		"successful_detections":  s.SuccessfulDetections,
		"failed_detections":      s.FailedDetections,
		"total_detections":       s.TotalDetections,
		"processing_time_sec":    s.ProcessingTime.Seconds(),
		"average_time_per_image": s.AverageTimePerImage.Seconds(),
		"min_time_per_image":     s.MinTimePerImage.Seconds(),
		"max_time_per_image":     s.MaxTimePerImage.Seconds(),
		"images_per_second":      s.ImagesPerSecond,
		"species_counts":         s.SpeciesCounts,
		"category_counts":        s.CategoryCounts,
		"error_counts":           s.ErrorCounts,
	}
}
