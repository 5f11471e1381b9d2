package warehouse

import (
	"os"
	"strconv"
	"time"
)

// ConfigFromEnv loads PostgreSQL configuration from the DB_* environment variables
func ConfigFromEnv() *Config {
	def := DefaultConfig()
	return &Config{
		Host:         getEnv("DB_HOST", def.Host),
		Port:         getEnvInt("DB_PORT", def.Port),
		User:         getEnv("DB_USER", def.User),
		Password:     getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", def.DBName),
		SSLMode:      getEnv("DB_SSLMODE", def.SSLMode),
		QueryTimeout: getEnvDuration("DB_QUERY_TIMEOUT", def.QueryTimeout),
		MaxRows:      getEnvInt("DB_MAX_ROWS", def.MaxRows),
		SampleRows:   getEnvInt("DB_SAMPLE_ROWS", def.SampleRows),
		Tables:       def.Tables,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
