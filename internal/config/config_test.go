package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Analysis.ConfidenceLevel != 0.95 {
		t.Errorf("Expected default confidence 0.95, got %g", cfg.Analysis.ConfidenceLevel)
	}
	if cfg.Analysis.Tolerance != 1e-6 {
		t.Errorf("Expected default tolerance 1e-6, got %g", cfg.Analysis.Tolerance)
	}
	if cfg.Analysis.MaxIterations != 100 {
		t.Errorf("Expected default max iterations 100, got %d", cfg.Analysis.MaxIterations)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("CONFIDENCE_LEVEL", "0.90")
	t.Setenv("MAX_ITERATIONS", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", cfg.Server.Port)
	}
	if cfg.Analysis.ConfidenceLevel != 0.90 {
		t.Errorf("Expected confidence 0.90, got %g", cfg.Analysis.ConfidenceLevel)
	}
	if cfg.Analysis.MaxIterations != 25 {
		t.Errorf("Expected max iterations 25, got %d", cfg.Analysis.MaxIterations)
	}
}

func TestLoad_InvalidConfidence(t *testing.T) {
	t.Setenv("CONFIDENCE_LEVEL", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("Expected an error for confidence level outside (0,1)")
	}
}

func TestLoad_InvalidIterations(t *testing.T) {
	t.Setenv("MAX_ITERATIONS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Expected an error for zero max iterations")
	}
}
