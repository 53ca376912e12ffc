package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	ImageDirectory      string  // Directory containing the photo zip archives
	ModelPath           string  // Path to the detection model weights
	ModelConfigPath     string  // Path to the detection model graph config
	DatabasePath        string  // SQLite database for detection search
	LogDirectory        string
	DetectionEnabled    bool
	DetectionChunkSize  int     // Photos per detector batch
	ConfidenceThreshold float64 // Minimum detection confidence
	IOUThreshold        float64 // NMS overlap threshold
}

func Load() *Config {
	return &Config{
		ImageDirectory:      getEnv("IMAGE_DIR", filepath.Join(os.Getenv("HOME"), "Pictures")),
		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ModelConfigPath:     getEnv("CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		DatabasePath:        getEnv("DB_PATH", filepath.Join(".", "photoinsight.db")),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		DetectionEnabled:    getEnvAsBool("DETECTION_ENABLED", true),
		DetectionChunkSize:  getEnvAsInt("DETECTION_CHUNK", 100),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.25),
		IOUThreshold:        getEnvAsFloat("IOU_THRESHOLD", 0.7),
	}
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
