package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 7433 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 7433)
	}
	if cfg.Data.Backend != "jsonl" {
		t.Errorf("Data.Backend = %q, want %q", cfg.Data.Backend, "jsonl")
	}
	if cfg.Sweep.Interval != "1m" {
		t.Errorf("Sweep.Interval = %q, want %q", cfg.Sweep.Interval, "1m")
	}
	if cfg.History.DisplayLimit != 500 {
		t.Errorf("History.DisplayLimit = %d, want %d", cfg.History.DisplayLimit, 500)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Port != DefaultConfig().API.Port {
		t.Errorf("API.Port = %d, want default", cfg.API.Port)
	}
}

func TestLoad_PartialFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[api]
port = 9000

[sweep]
interval = "30s"
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want default kept", cfg.API.Host)
	}
	if cfg.SweepInterval() != 30*time.Second {
		t.Errorf("SweepInterval() = %v, want 30s", cfg.SweepInterval())
	}
	if cfg.History.DisplayLimit != 500 {
		t.Errorf("History.DisplayLimit = %d, want default kept", cfg.History.DisplayLimit)
	}
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("[api\nport="), 0600)
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail on malformed toml")
	}
}

func TestSweepInterval_BadDurationFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sweep.Interval = "soon"
	if got := cfg.SweepInterval(); got != time.Minute {
		t.Errorf("SweepInterval() = %v, want 1m fallback", got)
	}
}

func TestAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Host = "0.0.0.0"
	cfg.API.Port = 8080
	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr() = %q, want 0.0.0.0:8080", got)
	}
}
