package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Export ExportConfig
	Jobs   JobsConfig
	LLM    LLMConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Addr        string
	MaxUploadMB int
}

// ExportConfig holds workbook export configuration
type ExportConfig struct {
	Dir string
}

// JobsConfig holds the extraction-job history store configuration
type JobsConfig struct {
	DBPath string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model           string
	APIKey          string
	BaseURL         string
	Temperature     float32
	Timeout         time.Duration
	MaxOutputTokens int
	// RequireTables makes a request with zero accepted tables fail instead
	// of returning an empty result. Policy choice, off by default.
	RequireTables bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8080"),
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 32),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "./exports"),
		},
		Jobs: JobsConfig{
			DBPath: getEnv("JOBS_DB_PATH", "./cim-tables.db"),
		},
		LLM: LLMConfig{
			Model:           getEnv("OPENAI_MODEL", "gpt-4o"),
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:     getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:         getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
			MaxOutputTokens: getEnvAsInt("OPENAI_MAX_OUTPUT_TOKENS", 4982),
			RequireTables:   getEnvAsBool("REQUIRE_TABLES", false),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfigError, "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError(CodeConfigError, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Export.Dir == "" {
		return NewAppError(CodeConfigError, "EXPORT_DIR is required", ErrInvalidInput)
	}
	return nil
}
