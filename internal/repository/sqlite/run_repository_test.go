package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"wildlifedetector/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *RunRepository {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(db)
}

func sampleRun() (*models.BatchJob, models.BatchProgress, models.ProcessingStats, []models.DetectionResult) {
	job := models.NewBatchJob([]string{"/images/deer.jpg", "/images/blur.jpg"}, "/out")

	results := []models.DetectionResult{
		{
			ImagePath: "/images/deer.jpg",
			Success:   true,
			Detections: []models.Detection{
				{Species: "Cervus nippon", ScientificName: "Cervus nippon", CommonName: "Sika deer", Category: "mammal", Confidence: 0.88, X1: 5, Y1: 5, X2: 100, Y2: 90},
				{Species: "Vulpes vulpes", ScientificName: "Vulpes vulpes", CommonName: "Red fox", Category: "mammal", Confidence: 0.71},
			},
			ProcessingTime: 800 * time.Millisecond,
		},
		{
			ImagePath:      "/images/blur.jpg",
			Success:        false,
			ErrorMessage:   "cannot read image",
			ProcessingTime: 30 * time.Millisecond,
		},
	}

	progress := models.BatchProgress{
		JobID:       job.ID,
		Total:       2,
		Processed:   2,
		Success:     1,
		Failed:      1,
		ElapsedTime: time.Second,
	}

	stats := models.ProcessingStats{
		TotalImages:     2,
		TotalDetections: 2,
		ProcessingTime:  830 * time.Millisecond,
	}

	return job, progress, stats, results
}

func TestSaveRunAndGetRun(t *testing.T) {
	repo := newTestRepo(t)
	job, progress, stats, results := sampleRun()

	require.NoError(t, repo.SaveRun(job, progress, stats, results))

	rec, err := repo.GetRun(job.ID.String())
	require.NoError(t, err)

	assert.Equal(t, job.ID.String(), rec.ID)
	assert.Equal(t, "/out", rec.OutputDir)
	assert.Equal(t, 2, rec.TotalImages)
	assert.Equal(t, 2, rec.Processed)
	assert.Equal(t, 1, rec.Success)
	assert.Equal(t, 1, rec.Failed)
	assert.Equal(t, 2, rec.TotalDetections)
	assert.Equal(t, 830*time.Millisecond, rec.ProcessingTime)
}

func TestGetRun_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetRun("no-such-run")
	assert.Error(t, err)
}

func TestSpeciesCounts(t *testing.T) {
	repo := newTestRepo(t)
	job, progress, stats, results := sampleRun()
	require.NoError(t, repo.SaveRun(job, progress, stats, results))

	counts, err := repo.SpeciesCounts(job.ID.String())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Sika deer": 1, "Red fox": 1}, counts)
}

func TestListRuns(t *testing.T) {
	repo := newTestRepo(t)

	first, firstProgress, firstStats, firstResults := sampleRun()
	require.NoError(t, repo.SaveRun(first, firstProgress, firstStats, firstResults))

	second := models.NewBatchJob([]string{"/images/a.jpg"}, "/out")
	require.NoError(t, repo.SaveRun(second, models.BatchProgress{JobID: second.ID, Total: 1, Processed: 1, Success: 1}, models.ProcessingStats{TotalImages: 1}, []models.DetectionResult{
		{ImagePath: "/images/a.jpg", Success: true, ProcessingTime: time.Millisecond},
	}))

	runs, err := repo.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	ids := []string{runs[0].ID, runs[1].ID}
	assert.Contains(t, ids, first.ID.String())
	assert.Contains(t, ids, second.ID.String())
}
