package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"wildlifedetector/internal/config"
	"wildlifedetector/internal/logger"
	"wildlifedetector/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDetector is a deterministic stand-in for the gocv detector.
type stubDetector struct {
	initErr    error
	delay      time.Duration
	classifyFn func(path string) ([]models.Detection, error)
}

func (s *stubDetector) Initialize() error { return s.initErr }
func (s *stubDetector) Cleanup()          {}

func (s *stubDetector) Classify(path string) ([]models.Detection, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.classifyFn != nil {
		return s.classifyFn(path)
	}
	return nil, nil
}

// birdClassifier returns one confident detection for paths containing
// "bird" and an empty list otherwise.
func birdClassifier(path string) ([]models.Detection, error) {
	if strings.Contains(path, "bird") {
		return []models.Detection{{
			Species:        "Passer montanus",
			ScientificName: "Passer montanus",
			CommonName:     "Eurasian tree sparrow",
			Category:       "bird",
			Confidence:     0.9,
		}}, nil
	}
	return []models.Detection{}, nil
}

func newTestEngine(t *testing.T, det Detector, workers int) *Engine {
	t.Helper()
	log, err := logger.NewLogger(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		ConfidenceThreshold: 0.5,
		MaxWorkers:          workers,
	}
	return New(det, cfg, log)
}

func imagePaths(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("/images/img_%03d.jpg", i)
	}
	return paths
}

func TestProcessBatch_NotInitialized(t *testing.T) {
	engine := newTestEngine(t, &stubDetector{}, 1)

	_, err := engine.ProcessBatch(context.Background(), imagePaths(3), "", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, 0, engine.Progress().Total)
}

func TestInitialize_DetectorFailure(t *testing.T) {
	engine := newTestEngine(t, &stubDetector{initErr: errors.New("no model")}, 1)

	err := engine.Initialize()
	require.Error(t, err)

	_, err = engine.ProcessBatch(context.Background(), imagePaths(3), "", nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestProcessBatch_EmptyInput(t *testing.T) {
	engine := newTestEngine(t, &stubDetector{}, 4)
	require.NoError(t, engine.Initialize())

	results, err := engine.ProcessBatch(context.Background(), nil, "", nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	progress := engine.Progress()
	assert.Equal(t, 0, progress.Total)
	assert.Equal(t, 0.0, progress.ProgressPercentage())
	assert.Equal(t, 0.0, progress.SuccessRate())
}

func TestProcessBatch_SequentialBirdScenario(t *testing.T) {
	paths := []string{
		"/images/bird_feeder.jpg",
		"/images/empty_field.jpg",
		"/images/bird_nest.jpg",
		"/images/forest.jpg",
		"/images/bird_flight.jpg",
	}

	engine := newTestEngine(t, &stubDetector{classifyFn: birdClassifier}, 1)
	require.NoError(t, engine.Initialize())

	var snapshots []models.BatchProgress
	results, err := engine.ProcessBatch(context.Background(), paths, "", func(p models.BatchProgress) {
		snapshots = append(snapshots, p)
	})
	require.NoError(t, err)
	require.Len(t, results, 5)

	// Single worker: output order matches input order exactly.
	for i, result := range results {
		assert.Equal(t, paths[i], result.ImagePath)
		assert.True(t, result.Success)
	}

	progress := engine.Progress()
	assert.Equal(t, 5, progress.Processed)
	assert.Equal(t, 5, progress.Success)
	assert.Equal(t, 0, progress.Failed)
	assert.Equal(t, 100.0, progress.ProgressPercentage())

	stats := Summarize(results)
	assert.Equal(t, 3, stats.SpeciesCounts["Eurasian tree sparrow"])
	assert.Equal(t, 3, stats.TotalDetections)
	assert.Len(t, snapshots, 5)
}

func TestProcessBatch_ConfidenceFilter(t *testing.T) {
	det := &stubDetector{classifyFn: func(path string) ([]models.Detection, error) {
		return []models.Detection{
			{CommonName: "Sika deer", Confidence: 0.9},
			{CommonName: "Red fox", Confidence: 0.4},
			{CommonName: "Wild boar", Confidence: 0.5},
		}, nil
	}}

	engine := newTestEngine(t, det, 1)
	require.NoError(t, engine.Initialize())

	results, err := engine.ProcessBatch(context.Background(), imagePaths(1), "", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Threshold 0.5 is inclusive.
	require.Len(t, results[0].Detections, 2)
	assert.Equal(t, "Sika deer", results[0].Detections[0].CommonName)
	assert.Equal(t, "Wild boar", results[0].Detections[1].CommonName)
}

func TestProcessBatch_PerItemFailureDoesNotAbort(t *testing.T) {
	paths := imagePaths(5)
	det := &stubDetector{classifyFn: func(path string) ([]models.Detection, error) {
		if path == paths[2] {
			return nil, errors.New("corrupt image header")
		}
		return birdClassifier(path)
	}}

	engine := newTestEngine(t, det, 1)
	require.NoError(t, engine.Initialize())

	results, err := engine.ProcessBatch(context.Background(), paths, "", nil)
	require.NoError(t, err)
	require.Len(t, results, 5)

	assert.False(t, results[2].Success)
	assert.Contains(t, results[2].ErrorMessage, "corrupt image header")
	assert.Empty(t, results[2].Detections)

	progress := engine.Progress()
	assert.Equal(t, 4, progress.Success)
	assert.Equal(t, 1, progress.Failed)
	assert.Equal(t, 5, progress.Processed)
}

func TestProcessBatch_CompletenessUnderParallelism(t *testing.T) {
	paths := imagePaths(50)
	engine := newTestEngine(t, &stubDetector{classifyFn: birdClassifier}, 4)
	require.NoError(t, engine.Initialize())

	results, err := engine.ProcessBatch(context.Background(), paths, "", nil)
	require.NoError(t, err)
	require.Len(t, results, 50)

	// Every input path appears exactly once, order notwithstanding.
	seen := make(map[string]int)
	for _, result := range results {
		seen[result.ImagePath]++
	}
	for _, path := range paths {
		assert.Equal(t, 1, seen[path], "path %s", path)
	}
}

func TestProcessBatch_ProgressInvariantUnderParallelism(t *testing.T) {
	engine := newTestEngine(t, &stubDetector{classifyFn: birdClassifier}, 4)
	require.NoError(t, engine.Initialize())

	var mu sync.Mutex
	var snapshots []models.BatchProgress
	_, err := engine.ProcessBatch(context.Background(), imagePaths(40), "", func(p models.BatchProgress) {
		mu.Lock()
		snapshots = append(snapshots, p)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, snapshots, 40)
	for _, p := range snapshots {
		assert.Equal(t, p.Processed, p.Success+p.Failed)
		assert.LessOrEqual(t, p.Processed, p.Total)
	}
}

func TestProcessBatch_Cancellation(t *testing.T) {
	const workers = 2
	engine := newTestEngine(t, &stubDetector{delay: 5 * time.Millisecond, classifyFn: birdClassifier}, workers)
	require.NoError(t, engine.Initialize())

	var once sync.Once
	results, err := engine.ProcessBatch(context.Background(), imagePaths(20), "", func(p models.BatchProgress) {
		if p.Processed >= 5 {
			once.Do(engine.RequestStop)
		}
	})
	require.NoError(t, err)

	progress := engine.Progress()
	// In-flight images finish; undispatched work is abandoned.
	assert.GreaterOrEqual(t, progress.Processed, 5)
	assert.LessOrEqual(t, progress.Processed, 5+workers)
	assert.Less(t, progress.Processed, 20)
	assert.Len(t, results, progress.Processed)
	assert.Equal(t, progress.Processed, progress.Success+progress.Failed)
}

func TestProcessBatch_ContextCancellation(t *testing.T) {
	engine := newTestEngine(t, &stubDetector{delay: 5 * time.Millisecond, classifyFn: birdClassifier}, 2)
	require.NoError(t, engine.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	results, err := engine.ProcessBatch(ctx, imagePaths(30), "", func(p models.BatchProgress) {
		if p.Processed == 4 {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.Less(t, len(results), 30)
	assert.GreaterOrEqual(t, len(results), 4)
}

func TestConcurrentReadsDuringRun(t *testing.T) {
	engine := newTestEngine(t, &stubDetector{delay: 2 * time.Millisecond, classifyFn: birdClassifier}, 2)
	require.NoError(t, engine.Initialize())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := engine.ProcessBatch(context.Background(), imagePaths(30), "", nil)
		assert.NoError(t, err)
	}()

	// Poll the engine from the outside the way a UI layer would.
	for i := 0; i < 50; i++ {
		p := engine.Progress()
		assert.Equal(t, p.Processed, p.Success+p.Failed)
		assert.LessOrEqual(t, len(engine.Results()), 30)
		engine.IsProcessing()
		time.Sleep(time.Millisecond)
	}
	<-done

	assert.False(t, engine.IsProcessing())
	assert.Len(t, engine.Results(), 30)
}

func TestProcessBatch_JobReplacedBetweenRuns(t *testing.T) {
	engine := newTestEngine(t, &stubDetector{classifyFn: birdClassifier}, 1)
	require.NoError(t, engine.Initialize())

	_, err := engine.ProcessBatch(context.Background(), imagePaths(3), "", nil)
	require.NoError(t, err)
	firstJob := engine.Job().ID

	results, err := engine.ProcessBatch(context.Background(), imagePaths(7), "", nil)
	require.NoError(t, err)

	assert.NotEqual(t, firstJob, engine.Job().ID)
	assert.Len(t, results, 7)
	assert.Equal(t, 7, engine.Progress().Total)
}

func TestProcessBatch_ElapsedTimeIsPositive(t *testing.T) {
	engine := newTestEngine(t, &stubDetector{delay: time.Millisecond, classifyFn: birdClassifier}, 1)
	require.NoError(t, engine.Initialize())

	var first models.BatchProgress
	var got bool
	_, err := engine.ProcessBatch(context.Background(), imagePaths(3), "", func(p models.BatchProgress) {
		if !got {
			first, got = p, true
		}
	})
	require.NoError(t, err)

	// Start time is captured before any worker begins, so even the first
	// snapshot has a meaningful elapsed duration.
	require.True(t, got)
	assert.Greater(t, first.ElapsedTime, time.Duration(0))
	assert.Greater(t, first.EstimatedRemaining, time.Duration(0))
}
