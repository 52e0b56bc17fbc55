package config

import "testing"

// The shipped config must not soften or tighten the detection
// breakpoints: 3% fires a medium event, 5% high, 7% critical.
func TestShippedDetectorThresholds(t *testing.T) {
	cfg, err := Load("../../config/config.yaml")
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if cfg.Detector.PriceMedium != 3.0 {
		t.Fatalf("price_medium = %.1f, want 3.0", cfg.Detector.PriceMedium)
	}
	if cfg.Detector.PriceHigh != 5.0 {
		t.Fatalf("price_high = %.1f, want 5.0", cfg.Detector.PriceHigh)
	}
	if cfg.Detector.PriceCritical != 7.0 {
		t.Fatalf("price_critical = %.1f, want 7.0", cfg.Detector.PriceCritical)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "GOOG,META")
	t.Setenv("BACKEND", "inline")

	cfg, err := LoadWithEnv("../../config/config.yaml")
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if len(cfg.Yahoo.Symbols) != 2 || cfg.Yahoo.Symbols[0] != "GOOG" {
		t.Fatalf("symbols = %v", cfg.Yahoo.Symbols)
	}
	if cfg.Backend.Type != "inline" {
		t.Fatalf("backend = %q", cfg.Backend.Type)
	}
}
