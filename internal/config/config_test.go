package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServerURL == "" {
		t.Error("server url should have a default")
	}
	if cfg.Downsample < 1 {
		t.Error("downsample should be at least 1")
	}
	if cfg.AutoplayPeriod <= 0 {
		t.Error("autoplay period should be positive")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydrolab.yaml")
	data := []byte("server_url: http://example.org:9000\npalette: temperature\ndownsample: 2\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ServerURL != "http://example.org:9000" {
		t.Errorf("server url not loaded: %s", cfg.ServerURL)
	}
	if cfg.Palette != "temperature" {
		t.Errorf("palette not loaded: %s", cfg.Palette)
	}
	// unset fields keep defaults
	if cfg.Parameter != DefaultParameter {
		t.Errorf("parameter should default, got %s", cfg.Parameter)
	}
}

func TestLoad_NormalizesBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydrolab.yaml")
	data := []byte("downsample: 0\nautoplay_period: -1\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Downsample != DefaultDownsample {
		t.Errorf("zero downsample should normalize, got %d", cfg.Downsample)
	}
	if cfg.AutoplayPeriod != DefaultAutoplayPeriod {
		t.Errorf("negative period should normalize, got %f", cfg.AutoplayPeriod)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydrolab.yaml")
	cfg := DefaultConfig()
	cfg.Palette = "nutrient"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Palette != "nutrient" {
		t.Errorf("palette did not round-trip: %s", loaded.Palette)
	}
}
