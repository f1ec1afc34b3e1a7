package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"wildlifedetector/internal/config"
	"wildlifedetector/internal/export"
	"wildlifedetector/internal/finder"
	"wildlifedetector/internal/logger"
	"wildlifedetector/internal/repository/sqlite"
	"wildlifedetector/internal/services/ai"
	"wildlifedetector/internal/services/batch"
	"wildlifedetector/internal/services/monitor"
)

type App struct {
	config *config.Config
	log    *logger.Logger
	engine *batch.Engine
	hub    *monitor.Hub
}

func NewApp() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	detector := ai.NewSpeciesDetector(cfg, log)
	engine := batch.New(detector, cfg, log)
	hub := monitor.NewHub(log)

	return &App{
		config: cfg,
		log:    log,
		engine: engine,
		hub:    hub,
	}, nil
}

// Run processes every image under inputPath and writes CSV/JSON reports and
// a database record of the run. Cancelling ctx stops the batch at the next
// image boundary.
func (a *App) Run(ctx context.Context, inputPath string) error {
	paths, err := finder.Find(inputPath, a.config.RecursiveSearch)
	if err != nil {
		return fmt.Errorf("image discovery failed: %w", err)
	}
	a.log.Info("Found %d candidate images under %s", len(paths), inputPath)

	valid := finder.Validate(paths)
	if dropped := len(paths) - len(valid); dropped > 0 {
		a.log.Warning("Dropped %d unreadable or empty images", dropped)
	}

	db, err := sqlite.New(a.config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	repo := sqlite.NewRunRepository(db)

	if err := a.engine.Initialize(); err != nil {
		return err
	}
	defer a.engine.Cleanup()

	if a.config.MonitorEnabled {
		go a.hub.Run()
		go a.serveMonitor()
	}

	results, err := a.engine.ProcessBatch(ctx, valid, a.config.OutputDirectory, a.hub.BroadcastProgress)
	if err != nil {
		return err
	}

	stats := batch.Summarize(results)
	progress := a.engine.Progress()
	job := a.engine.Job()

	a.log.Info("Processed %d/%d images: %d success, %d failed, %d detections",
		progress.Processed, progress.Total, progress.Success, progress.Failed, stats.TotalDetections)

	timestamp := time.Now().Format("20060102_150405")
	resultsPath := filepath.Join(a.config.OutputDirectory, fmt.Sprintf("wildlife_detection_results_%s.csv", timestamp))
	summaryPath := filepath.Join(a.config.OutputDirectory, fmt.Sprintf("wildlife_detection_summary_%s.csv", timestamp))
	jsonPath := filepath.Join(a.config.OutputDirectory, fmt.Sprintf("wildlife_detection_summary_%s.json", timestamp))

	if err := export.ExportResults(results, resultsPath); err != nil {
		return fmt.Errorf("result export failed: %w", err)
	}
	if err := export.ExportSummary(stats, summaryPath); err != nil {
		return fmt.Errorf("summary export failed: %w", err)
	}
	if err := export.WriteSummaryJSON(stats, progress, jsonPath); err != nil {
		return fmt.Errorf("summary JSON failed: %w", err)
	}
	a.log.Info("Reports written to %s", a.config.OutputDirectory)

	if err := repo.SaveRun(job, progress, stats, results); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	a.log.Info("Run %s saved to %s", job.ID, a.config.DatabasePath)

	return nil
}

func (a *App) serveMonitor() {
	addr := fmt.Sprintf(":%d", a.config.MonitorPort)
	a.log.Info("Progress monitor listening on %s", addr)
	if err := http.ListenAndServe(addr, a.hub.Routes()); err != nil {
		a.log.Error("Monitor server stopped: %v", err)
	}
}
