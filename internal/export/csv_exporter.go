// Package export writes detection results and run summaries to CSV and
// JSON files for external reporting.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"wildlifedetector/internal/models"
)

var resultHeader = []string{
	"image_path", "image_filename", "processing_time_seconds", "success", "error_message",
	"detection_id", "species", "scientific_name", "common_name", "confidence", "category",
	"bbox_x1", "bbox_y1", "bbox_x2", "bbox_y2", "total_detections_in_image",
}

// ExportResults writes one CSV row per detection. Failed results and
// successful results without detections each get a single row with zeroed
// detection columns, so every input image appears in the file. An empty
// result set produces a header-only file.
func ExportResults(results []models.DetectionResult, path string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(resultHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writeResultRows(w, result); err != nil {
			return err
		}
	}

	if err := w.Error(); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	return nil
}

func writeResultRows(w *csv.Writer, result models.DetectionResult) error {
	base := []string{
		result.ImagePath,
		filepath.Base(result.ImagePath),
		strconv.FormatFloat(result.ProcessingTime.Seconds(), 'f', 3, 64),
		strconv.FormatBool(result.Success),
		result.ErrorMessage,
	}

	if !result.Success || len(result.Detections) == 0 {
		row := append(append([]string{}, base...),
			"0", "", "", "", "0", "", "0", "0", "0", "0", "0")
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
		return nil
	}

	for i, d := range result.Detections {
		row := append(append([]string{}, base...),
			strconv.Itoa(i+1),
			d.Species,
			d.ScientificName,
			d.CommonName,
			strconv.FormatFloat(d.Confidence, 'f', 4, 64),
			d.Category,
			strconv.Itoa(d.X1),
			strconv.Itoa(d.Y1),
			strconv.Itoa(d.X2),
			strconv.Itoa(d.Y2),
			strconv.Itoa(len(result.Detections)),
		)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	return nil
}

// ExportSummary writes processing stats as metric/value/description rows.
func ExportSummary(stats models.ProcessingStats, path string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	rows := [][]string{
		{"metric", "value", "description"},
		{"total_images", strconv.Itoa(stats.TotalImages), "Images in result set"},
		{"successful_detections", strconv.Itoa(stats.SuccessfulDetections), "Images processed without error"},
		{"failed_detections", strconv.Itoa(stats.FailedDetections), "Images that failed to process"},
		{"total_detections", strconv.Itoa(stats.TotalDetections), "Individual animals detected"},
		{"processing_time_seconds", strconv.FormatFloat(stats.ProcessingTime.Seconds(), 'f', 3, 64), "Summed per-image processing time"},
		{"average_time_per_image", strconv.FormatFloat(stats.AverageTimePerImage.Seconds(), 'f', 3, 64), "Average per-image processing time"},
		{"images_per_second", strconv.FormatFloat(stats.ImagesPerSecond, 'f', 2, 64), "Throughput over valid timing samples"},
		{"unique_species", strconv.Itoa(len(stats.SpeciesCounts)), "Distinct species detected"},
	}

	for _, species := range sortedKeys(stats.SpeciesCounts) {
		rows = append(rows, []string{
			"species_count." + species,
			strconv.Itoa(stats.SpeciesCounts[species]),
			"Detections of " + species,
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write summary CSV: %w", err)
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cannot create export file: %w", err)
	}
	return f, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
