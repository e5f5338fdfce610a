package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Screen.TargetFPS != 60 {
		t.Errorf("target fps = %d, want 60", cfg.Screen.TargetFPS)
	}
	if cfg.Quality.MinParticles <= 0 || cfg.Quality.MinParticles > cfg.Quality.MaxParticles {
		t.Errorf("bad default particle bounds: %d..%d", cfg.Quality.MinParticles, cfg.Quality.MaxParticles)
	}
	if cfg.Links.ConnectionDistance <= 0 {
		t.Errorf("connection distance = %v, want positive", cfg.Links.ConnectionDistance)
	}
	if cfg.Derived.AdjustInterval != 3*time.Second {
		t.Errorf("derived adjust interval = %v, want 3s", cfg.Derived.AdjustInterval)
	}
	if cfg.Derived.ConnDist32 != float32(cfg.Links.ConnectionDistance) {
		t.Error("derived connection distance mismatch")
	}
}

func TestLoad_UserOverridesMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "quality:\n  max_particles: 5000\nlinks:\n  max_segments: 99\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Quality.MaxParticles != 5000 {
		t.Errorf("max particles = %d, want override 5000", cfg.Quality.MaxParticles)
	}
	if cfg.Links.MaxSegments != 99 {
		t.Errorf("max segments = %d, want override 99", cfg.Links.MaxSegments)
	}
	// Untouched fields keep defaults.
	if cfg.Quality.MinParticles != 200 {
		t.Errorf("min particles = %d, want default 200", cfg.Quality.MinParticles)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("quality: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
