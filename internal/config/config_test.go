package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "READDESC_API_KEY", "LIBRARY_PATH", "CATALOGUE_PATH",
		"MAX_UPLOAD_BYTES", "WORD_FLIP_INTERVAL_MS", "STEP_WORD_COUNT",
		"PDF_PAGE_WINDOW", "SESSION_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("Port = %s, want 8090", cfg.Port)
	}
	if cfg.WordFlipIntervalMillis != 200 {
		t.Errorf("WordFlipIntervalMillis = %d, want 200", cfg.WordFlipIntervalMillis)
	}
	if cfg.StepWordCount != 10 {
		t.Errorf("StepWordCount = %d, want 10", cfg.StepWordCount)
	}
	if cfg.PDFPageWindow != 4 {
		t.Errorf("PDFPageWindow = %d, want 4", cfg.PDFPageWindow)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want 1h", cfg.SessionTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("STEP_WORD_COUNT", "25")
	t.Setenv("PDF_PAGE_WINDOW", "8")
	t.Setenv("SESSION_TTL", "30m")

	cfg := Load()

	if cfg.Port != "9100" {
		t.Errorf("Port = %s, want 9100", cfg.Port)
	}
	if cfg.StepWordCount != 25 {
		t.Errorf("StepWordCount = %d, want 25", cfg.StepWordCount)
	}
	if cfg.PDFPageWindow != 8 {
		t.Errorf("PDFPageWindow = %d, want 8", cfg.PDFPageWindow)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.SessionTTL)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STEP_WORD_COUNT", "not-a-number")
	t.Setenv("PDF_PAGE_WINDOW", "-3")
	t.Setenv("SESSION_TTL", "soon")

	cfg := Load()

	if cfg.StepWordCount != 10 {
		t.Errorf("StepWordCount = %d, want fallback 10", cfg.StepWordCount)
	}
	if cfg.PDFPageWindow != 4 {
		t.Errorf("PDFPageWindow = %d, want fallback 4", cfg.PDFPageWindow)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, want fallback 1h", cfg.SessionTTL)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{APIKey: "secret", LibraryPath: "./library"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	cfg.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing API key")
	}
}
