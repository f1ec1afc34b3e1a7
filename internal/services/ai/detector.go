// Package ai implements the species classification collaborator on top of
// an OpenCV DNN model.
package ai

import (
	"fmt"
	"image"
	"os"
	"sync"

	"wildlifedetector/internal/config"
	"wildlifedetector/internal/logger"
	"wildlifedetector/internal/models"

	"gocv.io/x/gocv"
)

// rawConfidenceFloor discards DNN output rows that are pure noise. The
// caller applies the configured confidence threshold on top of this.
const rawConfidenceFloor = 0.1

// SpeciesDetector classifies wildlife in images using an SSD MobileNet
// network loaded through gocv.
type SpeciesDetector struct {
	modelPath  string
	configPath string
	log        *logger.Logger

	mu          sync.Mutex // the DNN forward pass is not goroutine safe
	net         gocv.Net
	initialized bool
}

// NewSpeciesDetector creates an uninitialized detector. Initialize loads
// the network.
func NewSpeciesDetector(cfg *config.Config, log *logger.Logger) *SpeciesDetector {
	return &SpeciesDetector{
		modelPath:  cfg.ModelPath,
		configPath: cfg.ModelConfigPath,
		log:        log,
	}
}

// Initialize loads the detection network from the model and config files.
func (d *SpeciesDetector) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	if _, err := os.Stat(d.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", d.modelPath)
	}
	if _, err := os.Stat(d.configPath); os.IsNotExist(err) {
		return fmt.Errorf("model config file not found: %s", d.configPath)
	}

	net := gocv.ReadNet(d.modelPath, d.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network from %s", d.modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return fmt.Errorf("failed to set network backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return fmt.Errorf("failed to set network target: %w", err)
	}

	d.net = net
	d.initialized = true
	d.log.Info("Species detection network initialized")
	return nil
}

// Classify runs the network on a single image file and returns every
// detection that maps to a known species. An empty list is a valid outcome.
func (d *SpeciesDetector) Classify(path string) ([]models.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, fmt.Errorf("detector not initialized")
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("cannot read image: %s", path)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	var detections []models.Detection

	outputReshaped := output.Reshape(1, output.Total()/7)
	defer outputReshaped.Close()

	for i := 0; i < outputReshaped.Rows(); i++ {
		confidence := float64(outputReshaped.GetFloatAt(i, 2))
		if confidence < rawConfidenceFloor {
			continue
		}

		classID := int(outputReshaped.GetFloatAt(i, 1))
		species, known := speciesTable[classID]
		if !known {
			continue
		}

		x1 := int(outputReshaped.GetFloatAt(i, 3) * float32(mat.Cols()))
		y1 := int(outputReshaped.GetFloatAt(i, 4) * float32(mat.Rows()))
		x2 := int(outputReshaped.GetFloatAt(i, 5) * float32(mat.Cols()))
		y2 := int(outputReshaped.GetFloatAt(i, 6) * float32(mat.Rows()))

		detections = append(detections, models.Detection{
			Species:        species.Scientific,
			ScientificName: species.Scientific,
			CommonName:     species.Common,
			Category:       species.Category,
			Confidence:     confidence,
			X1:             x1,
			Y1:             y1,
			X2:             x2,
			Y2:             y2,
		})
	}

	return detections, nil
}

// Cleanup releases the network.
func (d *SpeciesDetector) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		d.net.Close()
		d.initialized = false
		d.log.Info("Species detector cleaned up")
	}
}
