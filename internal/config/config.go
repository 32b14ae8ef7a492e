package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Job      JobConfig
	Scrape   ScrapeConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// JobConfig holds curation job engine settings
type JobConfig struct {
	// ResetGrace bounds how long an unobserved terminal status blocks
	// a new trigger before the engine resets to idle anyway.
	ResetGrace time.Duration
	// PipelineTimeout caps a single scrape+curate run.
	PipelineTimeout time.Duration
	// MaxItems is the dataset size cap applied by the curator.
	MaxItems int
}

// ScrapeConfig holds shared scraper settings
type ScrapeConfig struct {
	RequestTimeout     time.Duration
	RequestDelay       time.Duration
	MaxRetries         int
	UserAgent          string
	SourcesFile        string
	RedditClientID     string
	RedditClientSecret string
	RedditTopN         int
	YouTubeMaxResults  int
}

const defaultUserAgent = "AgenteCassiano/1.0 (by /u/InbixBot) " +
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/131.0.0.0 Safari/537.36"

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "inbix"),
			Database:  getEnv("DB_DATABASE", "curadoria"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Job: JobConfig{
			ResetGrace:      getDurationEnv("JOB_RESET_GRACE", time.Minute),
			PipelineTimeout: getDurationEnv("JOB_PIPELINE_TIMEOUT", 10*time.Minute),
			MaxItems:        getIntEnv("JOB_MAX_ITEMS", 30),
		},
		Scrape: ScrapeConfig{
			RequestTimeout:     getDurationEnv("SCRAPE_REQUEST_TIMEOUT", 10*time.Second),
			RequestDelay:       getDurationEnv("SCRAPE_REQUEST_DELAY", 300*time.Millisecond),
			MaxRetries:         getIntEnv("SCRAPE_MAX_RETRIES", 2),
			UserAgent:          getEnv("SCRAPE_USER_AGENT", defaultUserAgent),
			SourcesFile:        getEnv("SCRAPE_SOURCES_FILE", ""),
			RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
			RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
			RedditTopN:         getIntEnv("REDDIT_TOP_N", 15),
			YouTubeMaxResults:  getIntEnv("YOUTUBE_MAX_RESULTS", 15),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	if c.Job.ResetGrace <= 0 {
		errs = append(errs, errors.New("JOB_RESET_GRACE must be positive"))
	}
	if c.Job.PipelineTimeout <= 0 {
		errs = append(errs, errors.New("JOB_PIPELINE_TIMEOUT must be positive"))
	}
	if c.Job.MaxItems <= 0 {
		errs = append(errs, errors.New("JOB_MAX_ITEMS must be positive"))
	}

	if c.Scrape.RequestTimeout <= 0 {
		errs = append(errs, errors.New("SCRAPE_REQUEST_TIMEOUT must be positive"))
	}
	if c.Scrape.MaxRetries < 1 {
		errs = append(errs, errors.New("SCRAPE_MAX_RETRIES must be at least 1"))
	}
	// OAuth credentials are optional (the Reddit scraper falls back to the
	// public JSON endpoint), but a lone ID or secret is a misconfiguration.
	if (c.Scrape.RedditClientID == "") != (c.Scrape.RedditClientSecret == "") {
		errs = append(errs, errors.New("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET must be set together"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
