package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EMM_MODEL_DIR":    "/data/emm",
		"EMM_MIN_YEAR":     "2010",
		"EMM_EPOCHS":       "6",
		"EMM_MAIN_PATTERN": "M%d.COF",
		"EMM_SV_PATTERN":   "S%d.COF",
		"EMM_GEOID_FILE":   "/data/egm96.grd",
		"EMM_METRICS_FILE": "/var/lib/node_exporter/emm.prom",
		"EMM_PROGRESS":     "true",
		"EMM_LOG_LEVEL":    "debug",
	}

	cfg := Default()
	applyEnv(testLogger(), &cfg, func(k string) string { return env[k] })

	want := Config{
		ModelDir:    "/data/emm",
		MinYear:     2010,
		Epochs:      6,
		MainPattern: "M%d.COF",
		SVPattern:   "S%d.COF",
		GeoidFile:   "/data/egm96.grd",
		MetricsFile: "/var/lib/node_exporter/emm.prom",
		Progress:    true,
		LogLevel:    "debug",
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestApplyEnvInvalidKeepsDefaults(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"min year", "EMM_MIN_YEAR", "twenty"},
		{"epochs not a number", "EMM_EPOCHS", "x"},
		{"epochs zero", "EMM_EPOCHS", "0"},
		{"progress", "EMM_PROGRESS", "maybe"},
		{"log level", "EMM_LOG_LEVEL", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			applyEnv(testLogger(), &cfg, func(k string) string {
				if k == tt.key {
					return tt.value
				}
				return ""
			})
			if cfg != Default() {
				t.Errorf("invalid %s=%q changed config to %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emm.yaml")
	yamlDoc := "model_dir: /models\nmin_year: 2005\nepochs: 11\nprogress: true\nlog_level: warn\n"
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("EMM_CONFIG", path)
	t.Setenv("EMM_EPOCHS", "12")
	t.Setenv("EMM_MODEL_DIR", "")

	cfg, err := Load(testLogger())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ModelDir != "/models" || cfg.MinYear != 2005 || !cfg.Progress {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Epochs != 12 {
		t.Errorf("Epochs = %d, want environment override 12", cfg.Epochs)
	}
	if cfg.MainPattern != "EMM%d.COF" {
		t.Errorf("MainPattern = %q, want default", cfg.MainPattern)
	}
	if cfg.Level() != slog.LevelWarn {
		t.Errorf("Level() = %v, want warn", cfg.Level())
	}
}

func TestLoadBadFile(t *testing.T) {
	t.Setenv("EMM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(testLogger()); err == nil {
		t.Fatal("expected error for missing config file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("epochs: [1, 2\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("EMM_CONFIG", path)
	if _, err := Load(testLogger()); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestModelConfig(t *testing.T) {
	lc := Default().ModelConfig()
	if lc.MinYear != 2000 || lc.Epochs != 16 || lc.MainPattern != "EMM%d.COF" || lc.SVPattern != "EMM%dSV.COF" {
		t.Errorf("ModelConfig() = %+v", lc)
	}
}
