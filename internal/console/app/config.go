package app

import (
	"os"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/console/facecapture"
	"github.com/aussiebroadwan/stockdesk/internal/console/notify"
	"github.com/aussiebroadwan/stockdesk/internal/console/session"
	"github.com/joho/godotenv"
)

type Config struct {
	APIURL      string        // Auth service base URL (default: http://localhost:8080)
	StateFile   string        // SQLite file holding the saved session (default: ./console.db)
	ExpiryCheck time.Duration // How often the session expiry is checked (default: 60s)

	FaceCloudURL      string // Face detection service; empty disables face capture
	FaceCloudEmail    string
	FaceCloudPassword string

	CameraDir      string        // Directory of image files used as camera frames (default: ./camera)
	SampleInterval time.Duration // Time between detection samples (default: 300ms)
	StartupDelay   time.Duration // Wait before the first sample (default: 500ms)
	RetryDelay     time.Duration // Wait before sampling again after a retry (default: 1s)
	NoticeTTL      time.Duration // How long notices stay visible (default: 8s)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: warn)
	LogFormat string // Log format (json, text) (default: text)
}

// LoadConfig reads the environment, after loading a .env file from the
// working directory when one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		APIURL:      getEnvOrDefault("CONSOLE_API_URL", "http://localhost:8080"),
		StateFile:   getEnvOrDefault("CONSOLE_STATE_FILE", "console.db"),
		ExpiryCheck: getEnvDurationOrDefault("CONSOLE_EXPIRY_CHECK", session.DefaultCheckInterval),

		FaceCloudURL:      os.Getenv("FACECLOUD_URL"),
		FaceCloudEmail:    os.Getenv("FACECLOUD_EMAIL"),
		FaceCloudPassword: os.Getenv("FACECLOUD_PASSWORD"),

		CameraDir:      getEnvOrDefault("CONSOLE_CAMERA_DIR", "camera"),
		SampleInterval: getEnvDurationOrDefault("CONSOLE_SAMPLE_INTERVAL", facecapture.DefaultSampleInterval),
		StartupDelay:   getEnvDurationOrDefault("CONSOLE_STARTUP_DELAY", facecapture.DefaultStartupDelay),
		RetryDelay:     getEnvDurationOrDefault("CONSOLE_RETRY_DELAY", facecapture.DefaultRetryDelay),
		NoticeTTL:      getEnvDurationOrDefault("CONSOLE_NOTICE_TTL", notify.DefaultTTL),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations only ("300ms", "90s"). "0"
// disables a delay.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil && duration >= 0 {
		return duration
	}
	return defaultValue
}
