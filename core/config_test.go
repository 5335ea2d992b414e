package core

import (
	"os"
	"path/filepath"
	"testing"

	"fluxgen/engine"
)

func TestLoadFileConfig_MissingOptionalFile(t *testing.T) {
	cfg, err := LoadFileConfig(filepath.Join(t.TempDir(), "nope.yaml"), false)
	if err != nil {
		t.Fatalf("LoadFileConfig() = %v for missing optional file, want nil", err)
	}
	if cfg == nil {
		t.Fatal("LoadFileConfig() returned nil config")
	}
	if cfg.Width != 0 || cfg.HistoryDB != "" {
		t.Errorf("missing optional file yielded non-zero config: %+v", cfg)
	}
}

func TestLoadFileConfig_MissingExplicitFileIsError(t *testing.T) {
	_, err := LoadFileConfig(filepath.Join(t.TempDir(), "nope.yaml"), true)
	if err == nil {
		t.Fatal("LoadFileConfig() = nil for missing explicit file, want error")
	}
}

func TestLoadFileConfig_ParsesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluxgen.yaml")
	content := []byte("width: 512\nheight: 768\nsteps: 8\nguidance: 3.5\nstrength: 0.6\nhistory_db: runs.db\nlog_file: fluxgen.log\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFileConfig(path, true)
	if err != nil {
		t.Fatalf("LoadFileConfig() returned error: %v", err)
	}

	params := engine.DefaultParams()
	cfg.ApplyDefaults(&params)

	if params.Width != 512 || params.Height != 768 {
		t.Errorf("size = %dx%d, want 512x768", params.Width, params.Height)
	}
	if params.NumSteps != 8 {
		t.Errorf("NumSteps = %d, want 8", params.NumSteps)
	}
	if params.GuidanceScale != 3.5 {
		t.Errorf("GuidanceScale = %g, want 3.5", params.GuidanceScale)
	}
	if params.Strength != 0.6 {
		t.Errorf("Strength = %g, want 0.6", params.Strength)
	}
	if cfg.HistoryDB != "runs.db" {
		t.Errorf("HistoryDB = %q, want %q", cfg.HistoryDB, "runs.db")
	}
}

func TestLoadFileConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("width: [not an int\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(path, true); err == nil {
		t.Fatal("LoadFileConfig() = nil for invalid YAML, want error")
	}
}

func TestFileConfig_ApplyDefaultsKeepsBuiltins(t *testing.T) {
	params := engine.DefaultParams()
	(&FileConfig{}).ApplyDefaults(&params)

	want := engine.DefaultParams()
	if params != want {
		t.Errorf("empty config changed params: got %+v, want %+v", params, want)
	}
}

func TestFileConfig_EnvOverridesPaths(t *testing.T) {
	t.Setenv(EnvHistoryDB, "/tmp/env-runs.db")
	t.Setenv(EnvLogFile, "/tmp/env.log")

	cfg := &FileConfig{HistoryDB: "file-runs.db", LogFile: "file.log"}
	if got := cfg.HistoryDBPath(); got != "/tmp/env-runs.db" {
		t.Errorf("HistoryDBPath = %q, want env value", got)
	}
	if got := cfg.LogFilePath(); got != "/tmp/env.log" {
		t.Errorf("LogFilePath = %q, want env value", got)
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("FLUXGEN_TEST_KEY", "value")
	if got := GetEnvOrDefault("FLUXGEN_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("GetEnvOrDefault = %q, want %q", got, "value")
	}
	if got := GetEnvOrDefault("FLUXGEN_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnvOrDefault = %q, want %q", got, "fallback")
	}
}

func TestParseIntEnv(t *testing.T) {
	t.Setenv("FLUXGEN_TEST_INT", "17")
	if got := ParseIntEnv("FLUXGEN_TEST_INT", 3); got != 17 {
		t.Errorf("ParseIntEnv = %d, want 17", got)
	}
	t.Setenv("FLUXGEN_TEST_INT", "not a number")
	if got := ParseIntEnv("FLUXGEN_TEST_INT", 3); got != 3 {
		t.Errorf("ParseIntEnv = %d for garbage, want default 3", got)
	}
}

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"0", false},
		{"garbage", true}, // falls back to default
	}
	for _, tt := range tests {
		t.Setenv("FLUXGEN_TEST_BOOL", tt.value)
		if got := ParseBoolEnv("FLUXGEN_TEST_BOOL", true); got != tt.want {
			t.Errorf("ParseBoolEnv(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
