// Package config loads service configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig
	Vision   VisionConfig
	Storage  StorageConfig
	Pipeline PipelineConfig
	Logger   LoggerConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
	AllowedOrigins []string
}

// VisionConfig configures the page-image extraction model.
type VisionConfig struct {
	Model         string
	MaxConcurrent int
	MaxAttempts   int
	RenderDPI     float64
}

// StorageConfig configures where uploads and generated workbooks live.
// If Bucket is set the GCS backend is used; otherwise files go to the
// local directories.
type StorageConfig struct {
	Bucket      string
	UploadDir   string
	ArtifactDir string
	ArtifactTTL time.Duration
}

// PipelineConfig configures job processing.
type PipelineConfig struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	RulesPath  string
}

// LoggerConfig configures log output.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout := getEnvInt("SERVER_READ_TIMEOUT", 30)
	writeTimeout := getEnvInt("SERVER_WRITE_TIMEOUT", 120)
	maxUploadMB := getEnvInt("MAX_UPLOAD_MB", 25)
	maxConcurrent := getEnvInt("VISION_MAX_CONCURRENT", 4)
	maxAttempts := getEnvInt("VISION_MAX_ATTEMPTS", 3)
	renderDPI := getEnvFloat("RENDER_DPI", 200)
	workers := getEnvInt("PIPELINE_WORKERS", 2)
	queueSize := getEnvInt("PIPELINE_QUEUE_SIZE", 100)
	maxRetries := getEnvInt("PIPELINE_MAX_RETRIES", 2)
	ttlHours := getEnvInt("ARTIFACT_TTL_HOURS", 24)

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			ReadTimeout:    time.Duration(readTimeout) * time.Second,
			WriteTimeout:   time.Duration(writeTimeout) * time.Second,
			MaxUploadBytes: int64(maxUploadMB) << 20,
			AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Vision: VisionConfig{
			Model:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxConcurrent: maxConcurrent,
			MaxAttempts:   maxAttempts,
			RenderDPI:     renderDPI,
		},
		Storage: StorageConfig{
			Bucket:      getEnv("GCS_BUCKET", ""),
			UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
			ArtifactDir: getEnv("ARTIFACT_DIR", "outputs"),
			ArtifactTTL: time.Duration(ttlHours) * time.Hour,
		},
		Pipeline: PipelineConfig{
			Workers:    workers,
			QueueSize:  queueSize,
			MaxRetries: maxRetries,
			RulesPath:  getEnv("CATEGORY_RULES_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt keeps the default when the variable is unset or malformed,
// so a typo never silently becomes zero.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
