package batch

import (
	"sync"
	"time"

	"wildlifedetector/internal/models"

	"github.com/google/uuid"
)

// progressTracker owns the live counters for one job. All mutations happen
// inside one short critical section so processed stays equal to
// success + failed for every snapshot handed out.
type progressTracker struct {
	mu          sync.Mutex
	jobID       uuid.UUID
	total       int
	processed   int
	success     int
	failed      int
	currentFile string
	startTime   time.Time
}

// newProgressTracker captures the start time immediately, before any worker
// begins, so elapsed time is always well defined.
func newProgressTracker(jobID uuid.UUID, total int) *progressTracker {
	return &progressTracker{
		jobID:     jobID,
		total:     total,
		startTime: time.Now(),
	}
}

// recordItem counts one completed image and returns the resulting snapshot
// so the caller can notify observers outside the lock.
func (t *progressTracker) recordItem(file string, success bool) models.BatchProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed++
	if success {
		t.success++
	} else {
		t.failed++
	}
	t.currentFile = file

	return t.snapshotLocked()
}

// Snapshot returns the current progress. Safe to call from any goroutine.
func (t *progressTracker) Snapshot() models.BatchProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *progressTracker) snapshotLocked() models.BatchProgress {
	elapsed := time.Since(t.startTime)

	var remaining time.Duration
	if t.processed > 0 && t.processed < t.total {
		perItem := elapsed / time.Duration(t.processed)
		remaining = perItem * time.Duration(t.total-t.processed)
	}

	return models.BatchProgress{
		JobID:              t.jobID,
		Total:              t.total,
		Processed:          t.processed,
		Success:            t.success,
		Failed:             t.failed,
		CurrentFile:        t.currentFile,
		ElapsedTime:        elapsed,
		EstimatedRemaining: remaining,
	}
}
