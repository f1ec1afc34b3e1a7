package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ConfidenceThreshold float64 // Minimum confidence for a detection to be kept
	MaxWorkers          int     // Worker goroutines for batch processing (1 = sequential)
	ModelPath           string
	ModelConfigPath     string
	OutputDirectory     string
	DatabasePath        string
	LogDirectory        string
	MonitorPort         int  // Port for the live progress monitor
	MonitorEnabled      bool // Serve websocket/HTTP progress endpoints
	RecursiveSearch     bool // Descend into subdirectories when scanning for images
}

func Load() *Config {
	// Optional .env; real environment variables take precedence.
	_ = godotenv.Load()

	return &Config{
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		MaxWorkers:          getEnvAsInt("MAX_WORKERS", 4),
		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ModelConfigPath:     getEnv("MODEL_CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		OutputDirectory:     getEnv("OUTPUT_DIR", filepath.Join(".", "output")),
		DatabasePath:        getEnv("DATABASE_PATH", filepath.Join(".", "detections.db")),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		MonitorPort:         getEnvAsInt("MONITOR_PORT", 8080),
		MonitorEnabled:      getEnvAsBool("MONITOR_ENABLED", false),
		RecursiveSearch:     getEnvAsBool("RECURSIVE_SEARCH", true),
	}
}

// Validate checks that the loaded values are usable before any processing
// starts.
func (c *Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be between 0.0 and 1.0, got %.2f", c.ConfidenceThreshold)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be at least 1, got %d", c.MaxWorkers)
	}
	if c.MonitorPort < 1 || c.MonitorPort > 65535 {
		return fmt.Errorf("monitor port out of range: %d", c.MonitorPort)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
