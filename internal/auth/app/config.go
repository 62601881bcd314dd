package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/auth/domain"
	"github.com/aussiebroadwan/stockdesk/internal/auth/facematch"
	"github.com/aussiebroadwan/stockdesk/internal/auth/service"
	"github.com/aussiebroadwan/stockdesk/pkg/httpx"
	"github.com/aussiebroadwan/stockdesk/pkg/jwtx"
	"github.com/joho/godotenv"
)

type Config struct {
	Issuer         string        // Issuer claim for tokens (default: stockdesk-auth)
	DatabaseFile   string        // Path to SQLite database file (default: ./auth.db)
	PepperFile     string        // Path to file containing pepper for password hashing (default: ./pepper)
	SigningKeyFile string        // Optional: PKCS8 Ed25519 key file; empty means an ephemeral key
	TokenTTL       time.Duration // Access token lifetime (default: 8h)
	FaceThreshold  int           // Largest face hash distance accepted as a match (default: 10)

	Bootstrap domain.BootstrapAdmin // First administrator, created when none exists

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	FaceAttemptRetention time.Duration // Age at which face attempts are purged (default: 30 days)
	RateLimits           httpx.Limits  // Per-endpoint limits, AUTH_RATELIMIT_<ENDPOINT>=requests/window[/burst]
}

// LoadConfig reads the environment, after loading a .env file from the
// working directory when one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Issuer:         getEnvOrDefault("AUTH_ISSUER", "stockdesk-auth"),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		TokenTTL:       getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		FaceThreshold:  getEnvIntOrDefault("AUTH_FACE_THRESHOLD", facematch.DefaultThreshold),
		Bootstrap: domain.BootstrapAdmin{
			Username: getEnvOrDefault("BOOTSTRAP_ADMIN_USERNAME", "admin"),
			Email:    getEnvOrDefault("BOOTSTRAP_ADMIN_EMAIL", "admin@localhost"),
			Password: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		FaceAttemptRetention: getEnvDurationOrDefault("FACE_ATTEMPT_RETENTION", service.DefaultFaceAttemptRetention),
		RateLimits:           httpx.LimitsFromEnv(os.Getenv),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
