package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Escalation EscalationConfig
	Duplicate  DuplicateConfig
	AI         AIConfig
	Storage    StorageConfig
	Messaging  MessagingConfig
	JWTSecret  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port string
}

// EscalationConfig drives the SLA sweep
type EscalationConfig struct {
	Interval         time.Duration // ESCALATION_INTERVAL_HOURS: sweep cadence (default 6h)
	SignoffWindow    time.Duration // SIGNOFF_WINDOW_HOURS: citizen response window (default 72h)
	FiledStallWindow time.Duration // FILED_STALL_HOURS: FILED age that triggers an admin warning (default 48h)
	SweepBudget      time.Duration // ESCALATION_SWEEP_BUDGET_SECONDS: overall deadline per sweep (default 300s)
	LevelTwoBreach   time.Duration // breach age that advances level 1 to 2 (3 days)
}

// DuplicateConfig tunes the intake duplicate resolver
type DuplicateConfig struct {
	RadiusMeters   float64 // DUPLICATE_RADIUS_METERS (default 500)
	FlagThreshold  float64 // DUPLICATE_FLAG_THRESHOLD (default 0.6)
	BlockThreshold float64 // DUPLICATE_BLOCK_THRESHOLD (default 0.8)
}

// AIConfig configures the classification oracle
type AIConfig struct {
	Endpoint            string        // AI_ENDPOINT: HTTP oracle URL (empty = always degrade)
	Timeout             time.Duration // AI_TIMEOUT_SECONDS (default 20)
	ConfidenceThreshold float64       // AI_CONFIDENCE_THRESHOLD: below this, complaint waits in FILED (default 0.7)
	Required            bool          // AI_REQUIRED: hard-fail intake on oracle failure instead of degrading
}

// StorageConfig configures the object store
type StorageConfig struct {
	BasePath string // UPLOAD_BASE_PATH (default "uploads")
	Timeout  time.Duration
}

// MessagingConfig configures the outbound citizen messaging sink
type MessagingConfig struct {
	WebhookURL string // MESSAGING_WEBHOOK_URL (empty = delivery disabled)
	Timeout    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnv("DB_NAME", "civicfix"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("PORT", getEnv("SERVER_PORT", "8080")),
		},
		Escalation: EscalationConfig{
			Interval:         time.Duration(getEnvInt("ESCALATION_INTERVAL_HOURS", 6)) * time.Hour,
			SignoffWindow:    time.Duration(getEnvInt("SIGNOFF_WINDOW_HOURS", 72)) * time.Hour,
			FiledStallWindow: time.Duration(getEnvInt("FILED_STALL_HOURS", 48)) * time.Hour,
			SweepBudget:      time.Duration(getEnvInt("ESCALATION_SWEEP_BUDGET_SECONDS", 300)) * time.Second,
			LevelTwoBreach:   72 * time.Hour,
		},
		Duplicate: DuplicateConfig{
			RadiusMeters:   getEnvFloat("DUPLICATE_RADIUS_METERS", 500),
			FlagThreshold:  getEnvFloat("DUPLICATE_FLAG_THRESHOLD", 0.6),
			BlockThreshold: getEnvFloat("DUPLICATE_BLOCK_THRESHOLD", 0.8),
		},
		AI: AIConfig{
			Endpoint:            os.Getenv("AI_ENDPOINT"),
			Timeout:             time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 20)) * time.Second,
			ConfidenceThreshold: getEnvFloat("AI_CONFIDENCE_THRESHOLD", 0.7),
			Required:            getEnvBool("AI_REQUIRED", false),
		},
		Storage: StorageConfig{
			BasePath: getEnv("UPLOAD_BASE_PATH", "uploads"),
			Timeout:  time.Duration(getEnvInt("STORAGE_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Messaging: MessagingConfig{
			WebhookURL: os.Getenv("MESSAGING_WEBHOOK_URL"),
			Timeout:    time.Duration(getEnvInt("MESSAGING_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-production"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
