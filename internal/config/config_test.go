package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, info, err := LoadConfigWithInfo(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if info.PortSpecified {
		t.Fatalf("port should not be marked as specified")
	}
	if cfg.Server.Port != 20262 || cfg.Data.DBFile != "chartboard.db" || cfg.Export.PixelRatio != 2 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AnalysisTimeout() != 60*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.AnalysisTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 9000

[analysis]
endpoint = "http://analysis.local/api/analyze"
timeout = "15s"

[events]
nats_url = "nats://file:4222"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHARTBOARD_NATS_URL", "nats://env:4222")
	t.Setenv("CHARTBOARD_DATA_DIR", "/var/lib/chartboard")

	cfg, info, err := LoadConfigWithInfo(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !info.PortSpecified || cfg.Server.Port != 9000 {
		t.Fatalf("expected port 9000 from file, got %d (specified=%v)", cfg.Server.Port, info.PortSpecified)
	}
	if cfg.Analysis.Endpoint != "http://analysis.local/api/analyze" || cfg.AnalysisTimeout() != 15*time.Second {
		t.Fatalf("unexpected analysis config: %+v", cfg.Analysis)
	}
	if cfg.Events.NatsURL != "nats://env:4222" {
		t.Fatalf("env should override file, got %s", cfg.Events.NatsURL)
	}
	if cfg.Data.DataDir != "/var/lib/chartboard" {
		t.Fatalf("unexpected data dir %s", cfg.Data.DataDir)
	}
	if cfg.Events.SubjectPrefix != "chartboard" {
		t.Fatalf("unset keys should keep defaults, got %q", cfg.Events.SubjectPrefix)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level %s", cfg.Log.Level)
	}
}

func TestLoadConfig_InvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.Timeout = "soon"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid timeout error")
	}

	cfg = DefaultConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid port error")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Server.Port = 1234
	cfg.Export.CanvasWidth = 1920
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, info, err := LoadConfigWithInfo(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !info.PortSpecified || loaded.Server.Port != 1234 || loaded.Export.CanvasWidth != 1920 {
		t.Fatalf("unexpected round trip: %+v", loaded)
	}
}

func TestEnsureDataDir_Absolute(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	cfg := DefaultConfig()
	cfg.Data.DataDir = dir

	got, err := EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %s, got %s", dir, got)
	}
	if _, err := os.Stat(filepath.Join(dir, "exports")); err != nil {
		t.Fatalf("exports dir missing: %v", err)
	}
	if DBPath(got, cfg) != filepath.Join(dir, "chartboard.db") {
		t.Fatalf("unexpected db path")
	}
}
