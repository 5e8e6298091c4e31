package config

import (
	"os"
	"strconv"
	"time"

	"crminsight/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Pipeline  PipelineConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds the optional run ledger connection.
// An empty URL disables the ledger.
type DatabaseConfig struct {
	URL             string
	Driver          string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether a ledger database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	GinMode      string
	MaxUploadMB  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MaxUploadBytes returns the upload limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// PipelineConfig holds modeling defaults
type PipelineConfig struct {
	ArtifactPath     string
	DefaultTarget    string
	DefaultIDColumn  string
	DefaultThreshold float64
	// MaxIterations caps optimizer iterations when fitting the classifier
	MaxIterations int
	// ExcelSheet selects the workbook sheet to ingest; empty means the first
	ExcelSheet string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:  *loadDatabaseConfig(),
		Server:    *loadServerConfig(),
		Pipeline:  *loadPipelineConfig(),
		Profiling: *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:             getEnvOrDefault("DATABASE_URL", ""),
		Driver:          getEnvOrDefault("DATABASE_DRIVER", "postgres"),
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 5),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:         getEnvOrDefault("PORT", "8000"),
		GinMode:      getEnvOrDefault("GIN_MODE", "debug"),
		MaxUploadMB:  getEnvIntOrDefault("MAX_UPLOAD_MB", 50),
		ReadTimeout:  getEnvDurationOrDefault("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getEnvDurationOrDefault("WRITE_TIMEOUT", 2*time.Minute),
	}
}

func loadPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		ArtifactPath:     getEnvOrDefault("ARTIFACT_PATH", "model.json"),
		DefaultTarget:    getEnvOrDefault("DEFAULT_TARGET", "churn"),
		DefaultIDColumn:  getEnvOrDefault("DEFAULT_ID_COLUMN", "customer_id"),
		DefaultThreshold: getEnvFloatOrDefault("DEFAULT_THRESHOLD", 0.5),
		MaxIterations:    getEnvIntOrDefault("MAX_ITERATIONS", 1000),
		ExcelSheet:       getEnvOrDefault("EXCEL_SHEET", ""),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if t := config.Pipeline.DefaultThreshold; t < 0 || t > 1 {
		return errors.ConfigInvalid("DEFAULT_THRESHOLD must be between 0 and 1")
	}
	if config.Pipeline.MaxIterations <= 0 {
		return errors.ConfigInvalid("MAX_ITERATIONS must be positive")
	}
	if config.Pipeline.ArtifactPath == "" {
		return errors.ConfigInvalid("ARTIFACT_PATH is required")
	}
	switch config.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite3")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
