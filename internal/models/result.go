package models

import "time"

// DetectionResult holds the outcome of classifying one image. Exactly one
// result is produced per dispatched image, success or failure.
type DetectionResult struct {
	ImagePath      string        `json:"image_path"`
	Detections     []Detection   `json:"detections"`
	ProcessingTime time.Duration `json:"processing_time"`
	Success        bool          `json:"success"`
	ErrorMessage   string        `json:"error_message,omitempty"`
}

// BestDetection returns the highest-confidence detection, or nil when the
// result contains none.
func (r *DetectionResult) BestDetection() *Detection {
	if len(r.Detections) == 0 {
		return nil
	}
	best := &r.Detections[0]
	for i := range r.Detections[1:] {
		if r.Detections[i+1].Confidence > best.Confidence {
			best = &r.Detections[i+1]
		}
	}
	return best
}

// SpeciesCount returns the number of distinct species detected in the image.
func (r *DetectionResult) SpeciesCount() int {
	if len(r.Detections) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(r.Detections))
	for _, d := range r.Detections {
		seen[d.Species] = struct{}{}
	}
	return len(seen)
}
