package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hearthio/hearth/pkg/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:7878" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "hearth.yaml", `
listen_addr: "0.0.0.0:9000"
workers: 8
static_dir: /srv/pages
sleep_delay: 250ms
metrics_addr: "127.0.0.1:9100"
log_level: debug
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.StaticDir != "/srv/pages" {
		t.Errorf("StaticDir = %q", cfg.StaticDir)
	}
	if cfg.SleepDelay != 250*time.Millisecond {
		t.Errorf("SleepDelay = %v", cfg.SleepDelay)
	}
	if cfg.MetricsAddr != "127.0.0.1:9100" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "hearth.yaml", "workers: 2\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.ListenAddr != config.Default().ListenAddr {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
	if cfg.SleepDelay != config.Default().SleepDelay {
		t.Errorf("SleepDelay = %v, want default", cfg.SleepDelay)
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "hearth.json", `{"workers": 3, "listen_addr": "127.0.0.1:8080"}`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 3 || cfg.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"zero workers", "bad.yaml", "workers: 0\n"},
		{"negative workers", "bad.yaml", "workers: -3\n"},
		{"bad duration", "bad.yaml", "sleep_delay: not-a-duration\n"},
		{"bad extension", "bad.toml", "workers = 4\n"},
		{"malformed yaml", "bad.yaml", "workers: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			if _, err := config.Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 6
	cfg.SleepDelay = 2 * time.Second

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}
