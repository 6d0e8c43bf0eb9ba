package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"physics-viewer/core"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Shadows.MapSize != 1024 {
		t.Errorf("map size: expected 1024, got %d", cfg.Shadows.MapSize)
	}
	if cfg.Camera.Near != 0.01 || cfg.Camera.Far != 100 {
		t.Errorf("clip planes: expected 0.01..100, got %v..%v", cfg.Camera.Near, cfg.Camera.Far)
	}
	if cfg.PickKey() != core.KeySpace {
		t.Errorf("pick key: expected %d, got %d", core.KeySpace, cfg.PickKey())
	}
	if cfg.PauseKey() != core.KeyP {
		t.Errorf("pause key: expected %d, got %d", core.KeyP, cfg.PauseKey())
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
physics:
  gravity: [0, -1.62, 0]
spring:
  stiffness: 250
  pick_key: enter
catalog:
  feed: http://example.com/scenes.json
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Physics.Gravity[1] != -1.62 {
		t.Errorf("gravity: expected -1.62, got %v", cfg.Physics.Gravity[1])
	}
	if cfg.Spring.Stiffness != 250 {
		t.Errorf("stiffness: expected 250, got %v", cfg.Spring.Stiffness)
	}
	if cfg.PickKey() != core.KeyEnter {
		t.Errorf("pick key: expected enter, got %d", cfg.PickKey())
	}
	if cfg.Catalog.Feed != "http://example.com/scenes.json" {
		t.Errorf("feed: got %q", cfg.Catalog.Feed)
	}
	if cfg.Spring.MaxImpulse != DefaultMaxImpulse {
		t.Errorf("max impulse: expected default %v, got %v", DefaultMaxImpulse, cfg.Spring.MaxImpulse)
	}
	if cfg.Shadows.MapSize != DefaultMapSize {
		t.Errorf("map size: expected default, got %d", cfg.Shadows.MapSize)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"map size not power of two", "shadows: {map_size: 1000}"},
		{"unknown pick key", "spring: {pick_key: hyper}"},
		{"far before near", "camera: {near: 5, far: 1}"},
		{"zero stiffness", "spring: {stiffness: 0}"},
		{"negative max step", "physics: {max_step: -1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	cfg := Default()
	cfg.Catalog.Feed = "scenes.json"
	cfg.Shadows.PoissonSampling = false
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Catalog.Feed != "scenes.json" || loaded.Shadows.PoissonSampling {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
