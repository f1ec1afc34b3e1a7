package models

import "github.com/google/uuid"

// BatchJob describes one invocation of the batch engine over a fixed list
// of images. Immutable after creation; a new job replaces the previous one
// when the engine is reused.
type BatchJob struct {
	ID          uuid.UUID `json:"id"`
	ImagePaths  []string  `json:"image_paths"`
	OutputDir   string    `json:"output_dir"`
	TotalImages int       `json:"total_images"`
}

// NewBatchJob creates a job with a fresh ID and the total derived from the
// path list.
func NewBatchJob(imagePaths []string, outputDir string) *BatchJob {
	return &BatchJob{
		ID:          uuid.New(),
		ImagePaths:  imagePaths,
		OutputDir:   outputDir,
		TotalImages: len(imagePaths),
	}
}
