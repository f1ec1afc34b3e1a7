// Package batch runs an image classifier over large sets of files using a
// bounded worker pool, with live progress reporting and cooperative
// cancellation.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"wildlifedetector/internal/config"
	"wildlifedetector/internal/logger"
	"wildlifedetector/internal/models"
)

// Detector is the external classification collaborator. Classify may return
// an empty detection list; that is a valid, non-error outcome.
type Detector interface {
	Initialize() error
	Classify(path string) ([]models.Detection, error)
	Cleanup()
}

// ProgressFunc receives a progress snapshot after each completed image.
// It is called on whichever worker goroutine finished the image, so GUI or
// event-loop consumers must redispatch instead of touching their own state
// directly. It must return promptly; a slow observer delays its worker.
type ProgressFunc func(models.BatchProgress)

// ErrNotInitialized is returned by ProcessBatch when Initialize has not
// succeeded.
var ErrNotInitialized = errors.New("batch engine not initialized")

// Engine fans classification work out across a fixed-size worker pool.
//
// Input order is the dispatch order. With MaxWorkers == 1 results come back
// in strict input order; with more workers the completion order, and
// therefore the result order, is not guaranteed. Cancellation is
// cooperative: it takes effect between images, never mid-classification, so
// a hung Classify call blocks its worker until it returns.
type Engine struct {
	detector Detector
	cfg      *config.Config
	log      *logger.Logger

	mu          sync.Mutex // guards job, tracker, results, running
	job         *models.BatchJob
	tracker     *progressTracker
	results     []models.DetectionResult
	running     bool
	initialized bool

	stopRequested atomic.Bool
}

// New creates an engine around an injected detector. Initialize must be
// called before ProcessBatch.
func New(detector Detector, cfg *config.Config, log *logger.Logger) *Engine {
	return &Engine{
		detector: detector,
		cfg:      cfg,
		log:      log,
	}
}

// Initialize readies the detector. The engine stays unusable if this fails.
func (e *Engine) Initialize() error {
	if err := e.detector.Initialize(); err != nil {
		return fmt.Errorf("detector initialization failed: %w", err)
	}
	e.mu.Lock()
	e.initialized = true
	e.mu.Unlock()
	return nil
}

// Cleanup releases detector resources.
func (e *Engine) Cleanup() {
	e.detector.Cleanup()
}

// ProcessBatch classifies every image in paths and returns one
// DetectionResult per dispatched image. Per-image failures are captured in
// the result set and never abort the batch; only engine-level problems
// (uninitialized detector, unwritable output directory) are returned as
// errors. A stop request or context cancellation ends the batch at the next
// image boundary and returns the partial result set with a nil error.
func (e *Engine) ProcessBatch(ctx context.Context, paths []string, outputDir string, observer ProgressFunc) ([]models.DetectionResult, error) {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if e.running {
		e.mu.Unlock()
		return nil, errors.New("batch already in progress")
	}
	e.mu.Unlock()

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create output directory: %w", err)
		}
	}

	job := models.NewBatchJob(paths, outputDir)

	// The tracker captures the start time here, before any worker runs.
	e.mu.Lock()
	e.job = job
	e.tracker = newProgressTracker(job.ID, job.TotalImages)
	e.results = make([]models.DetectionResult, 0, len(paths))
	e.running = true
	e.mu.Unlock()
	e.stopRequested.Store(false)

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	e.log.Info("Batch %s started: %d images, %d workers", job.ID, job.TotalImages, e.workers())

	if len(paths) == 0 {
		return []models.DetectionResult{}, nil
	}

	if e.workers() == 1 {
		e.processSequential(ctx, paths, observer)
	} else {
		e.processParallel(ctx, paths, observer)
	}

	results := e.Results()
	progress := e.Progress()
	e.log.Info("Batch %s finished: %d/%d processed, %d success, %d failed",
		job.ID, progress.Processed, progress.Total, progress.Success, progress.Failed)
	return results, nil
}

// RequestStop asks the engine to stop at the next image boundary. Images
// already being classified run to completion; undispatched work is
// abandoned.
func (e *Engine) RequestStop() {
	e.stopRequested.Store(true)
	e.log.Info("Batch stop requested")
}

// Progress returns a snapshot of the current (or last) job's progress.
func (e *Engine) Progress() models.BatchProgress {
	e.mu.Lock()
	tracker := e.tracker
	e.mu.Unlock()

	if tracker == nil {
		return models.BatchProgress{}
	}
	return tracker.Snapshot()
}

// Job returns the current (or last) job descriptor, nil before any run.
func (e *Engine) Job() *models.BatchJob {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job
}

// IsProcessing reports whether a batch is currently running.
func (e *Engine) IsProcessing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Results returns a copy of the results collected so far.
func (e *Engine) Results() []models.DetectionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.DetectionResult, len(e.results))
	copy(out, e.results)
	return out
}

func (e *Engine) workers() int {
	if e.cfg.MaxWorkers < 1 {
		return 1
	}
	return e.cfg.MaxWorkers
}

func (e *Engine) stopped(ctx context.Context) bool {
	return e.stopRequested.Load() || ctx.Err() != nil
}

// processSequential handles the single-worker case on the calling
// goroutine, preserving strict input order.
func (e *Engine) processSequential(ctx context.Context, paths []string, observer ProgressFunc) {
	for _, path := range paths {
		if e.stopped(ctx) {
			e.log.Warning("Batch interrupted after %d images", e.Progress().Processed)
			return
		}
		e.recordResult(e.classifyOne(path), observer)
	}
}

// processParallel dispatches paths in FIFO order to a fixed pool of
// workers. Each path is consumed exactly once; paths left in the queue
// after a stop request are abandoned.
func (e *Engine) processParallel(ctx context.Context, paths []string, observer ProgressFunc) {
	queue := make(chan string, len(paths))
	for _, path := range paths {
		queue <- path
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < e.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range queue {
				if e.stopped(ctx) {
					return
				}
				e.recordResult(e.classifyOne(path), observer)
			}
		}()
	}
	wg.Wait()

	if e.stopped(ctx) {
		e.log.Warning("Batch interrupted after %d images", e.Progress().Processed)
	}
}

// classifyOne runs the detector on a single image and absorbs any failure
// into the result. No lock is held across the Classify call.
func (e *Engine) classifyOne(path string) models.DetectionResult {
	start := time.Now()
	detections, err := e.detector.Classify(path)
	elapsed := time.Since(start)

	if err != nil {
		e.log.Error("Classification failed (%s): %v", filepath.Base(path), err)
		return models.DetectionResult{
			ImagePath:      path,
			Detections:     []models.Detection{},
			ProcessingTime: elapsed,
			Success:        false,
			ErrorMessage:   err.Error(),
		}
	}

	kept := make([]models.Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= e.cfg.ConfidenceThreshold {
			kept = append(kept, d)
		}
	}

	return models.DetectionResult{
		ImagePath:      path,
		Detections:     kept,
		ProcessingTime: elapsed,
		Success:        true,
	}
}

// recordResult appends the result and updates progress, then notifies the
// observer outside both locks.
func (e *Engine) recordResult(result models.DetectionResult, observer ProgressFunc) {
	e.mu.Lock()
	e.results = append(e.results, result)
	tracker := e.tracker
	e.mu.Unlock()

	snapshot := tracker.recordItem(filepath.Base(result.ImagePath), result.Success)

	if observer != nil {
		observer(snapshot)
	}
}
