package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Storage
	LibraryPath   string // directory holding uploaded documents
	CataloguePath string // JSON catalogue of read descriptions

	// Upload limits
	MaxUploadBytes int64

	// Reading defaults handed to clients
	WordFlipIntervalMillis int
	StepWordCount          int

	// PDF partial loading
	PDFPageWindow int

	// Session state
	SessionTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("READDESC_API_KEY"),

		LibraryPath:   envOr("LIBRARY_PATH", "./library"),
		CataloguePath: envOr("CATALOGUE_PATH", "./library/catalogue.json"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		WordFlipIntervalMillis: envInt("WORD_FLIP_INTERVAL_MS", 200),
		StepWordCount:          envInt("STEP_WORD_COUNT", 10),

		PDFPageWindow: envInt("PDF_PAGE_WINDOW", 4),

		SessionTTL: envDuration("SESSION_TTL", 1*time.Hour),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.WordFlipIntervalMillis <= 0 {
		cfg.WordFlipIntervalMillis = 200
	}
	if cfg.StepWordCount <= 0 {
		cfg.StepWordCount = 10
	}
	if cfg.PDFPageWindow <= 0 {
		cfg.PDFPageWindow = 4
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("READDESC_API_KEY is required")
	}
	if c.LibraryPath == "" {
		return fmt.Errorf("LIBRARY_PATH is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
