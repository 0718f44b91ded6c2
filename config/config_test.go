package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	raw := `
cabwatch:
  input:
    redis:
      addr: "127.0.0.1:6379"
      queue: "cab_positions"
      block_timeout: 5s
  publish:
    redis:
      addr: "127.0.0.1:6379"
      channel_prefix: "cabwatch"
  pipeline:
    workers: 4
    flush_interval: 2s
  zones:
    - id: "st-01"
      name: "Central"
      lat: 28.6315
      lon: 77.2167
      radius_km: 2
  scoring:
    road_points:
      - name: "NH-48"
        lat: 28.50
        lon: 77.10
    isolated_areas:
      - name: "ridge"
        min_lat: 28.58
        max_lat: 28.62
        min_lon: 77.15
        max_lon: 77.19
  predictor:
    horizon_seconds: 90
  server:
    addr: ":8080"
  logging:
    enabled: true
    level: "debug"
`
	path := filepath.Join(t.TempDir(), "cabwatch.yml")
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	cw := cfg.Cabwatch
	if cw.Input.Redis.Queue != "cab_positions" {
		t.Fatalf("unexpected input queue: %q", cw.Input.Redis.Queue)
	}
	if cw.Input.Redis.BlockTimeout != 5*time.Second {
		t.Fatalf("unexpected block timeout: %v", cw.Input.Redis.BlockTimeout)
	}
	if len(cw.Zones) != 1 || cw.Zones[0].ID != "st-01" || cw.Zones[0].RadiusKm != 2 {
		t.Fatalf("unexpected zones: %+v", cw.Zones)
	}
	if len(cw.Scoring.RoadPoints) != 1 || cw.Scoring.RoadPoints[0].Name != "NH-48" {
		t.Fatalf("unexpected road points: %+v", cw.Scoring.RoadPoints)
	}
	if len(cw.Scoring.IsolatedAreas) != 1 || cw.Scoring.IsolatedAreas[0].MaxLon != 77.19 {
		t.Fatalf("unexpected isolated areas: %+v", cw.Scoring.IsolatedAreas)
	}
	if cw.Predictor.HorizonSeconds != 90 {
		t.Fatalf("unexpected horizon: %d", cw.Predictor.HorizonSeconds)
	}
	if cw.Server.Addr != ":8080" {
		t.Fatalf("unexpected server addr: %q", cw.Server.Addr)
	}
	if !cw.Logging.Enabled || cw.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cw.Logging)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
