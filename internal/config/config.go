package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ingest   IngestConfig
}

type ServerConfig struct {
	Host string
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// IngestConfig controls the ingestion pipeline: where the source catalog
// lives, how many sources run in parallel and the per-call timeouts.
type IngestConfig struct {
	SourcesFile   string
	SourceWorkers int
	FetchTimeout  time.Duration
	EnrichTimeout time.Duration
	UserAgent     string
	LogLevel      string
}

func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	config := &Config{
		Server: ServerConfig{
			Host: getOr("SERVER_HOST", "0.0.0.0"),
			Port: getOr("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  getOr("DB_SSLMODE", "disable"),
		},
		Ingest: IngestConfig{
			SourcesFile:   getOr("SOURCES_FILE", "configs/sources.yaml"),
			SourceWorkers: getInt("SOURCE_WORKERS", 3),
			FetchTimeout:  getDuration("FETCH_TIMEOUT", 30*time.Second),
			EnrichTimeout: getDuration("ENRICH_TIMEOUT", 20*time.Second),
			UserAgent:     getOr("HTTP_USER_AGENT", "agendades-ingest/1.0"),
			LogLevel:      getOr("LOG_LEVEL", "info"),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

func getOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// ConnectionString returns a DSN string for GORM
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// MigrateURL returns a postgres:// URL for golang-migrate
func (c *DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
