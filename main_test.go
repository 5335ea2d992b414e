package main

import (
	"os"
	"path/filepath"
	"testing"

	"fluxgen/core"
)

// isolateEnv keeps the ambient environment and working directory out of
// CLI tests.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(core.EnvConfigFile, "")
	t.Setenv(core.EnvHistoryDB, "")
	t.Setenv(core.EnvLogFile, "")
	t.Setenv(core.EnvVerbose, "")
}

func testModelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "model.safetensors"), []byte("weights"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRun_Help(t *testing.T) {
	isolateEnv(t)
	if code := run([]string{"--help"}); code != core.ExitCodeSuccess {
		t.Errorf("run(--help) = %d, want %d", code, core.ExitCodeSuccess)
	}
}

func TestRun_Version(t *testing.T) {
	isolateEnv(t)
	if code := run([]string{"-V"}); code != core.ExitCodeSuccess {
		t.Errorf("run(-V) = %d, want %d", code, core.ExitCodeSuccess)
	}
}

func TestRun_NoArguments(t *testing.T) {
	isolateEnv(t)
	if code := run(nil); code != core.ExitCodeError {
		t.Errorf("run() = %d, want %d", code, core.ExitCodeError)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	isolateEnv(t)
	if code := run([]string{"--no-such-flag"}); code != core.ExitCodeError {
		t.Errorf("run(--no-such-flag) = %d, want %d", code, core.ExitCodeError)
	}
}

func TestRun_MissingOutput(t *testing.T) {
	isolateEnv(t)
	args := []string{"-d", testModelDir(t), "-p", "a cat"}
	if code := run(args); code != core.ExitCodeError {
		t.Errorf("run without -o = %d, want %d", code, core.ExitCodeError)
	}
}

func TestRun_GeneratesImage(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "out.png")
	args := []string{
		"-d", testModelDir(t),
		"-p", "a cat on a rainbow",
		"-o", out,
		"-W", "64", "-H", "64", "-s", "1", "-S", "42",
	}
	if code := run(args); code != core.ExitCodeSuccess {
		t.Fatalf("run() = %d, want %d", code, core.ExitCodeSuccess)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output image not written: %v", err)
	}
}

func TestRun_MissingModelDirectory(t *testing.T) {
	isolateEnv(t)
	out := filepath.Join(t.TempDir(), "out.png")
	args := []string{
		"-d", filepath.Join(t.TempDir(), "absent"),
		"-p", "a cat",
		"-o", out,
	}
	if code := run(args); code != core.ExitCodeError {
		t.Errorf("run with missing model dir = %d, want %d", code, core.ExitCodeError)
	}
	if _, err := os.Stat(out); err == nil {
		t.Error("output file created despite the failed run")
	}
}

func TestRun_ConfigFileDefaults(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "fluxgen.yaml")
	if err := os.WriteFile(cfgPath, []byte("width: 64\nheight: 64\nsteps: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(core.EnvConfigFile, cfgPath)

	out := filepath.Join(dir, "out.png")
	args := []string{"-d", testModelDir(t), "-p", "a cat", "-o", out, "-S", "1"}
	if code := run(args); code != core.ExitCodeSuccess {
		t.Fatalf("run() = %d, want %d", code, core.ExitCodeSuccess)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output image not written: %v", err)
	}
}

func TestRun_ExplicitConfigFileMissing(t *testing.T) {
	isolateEnv(t)
	t.Setenv(core.EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))

	if code := run([]string{"-V"}); code != core.ExitCodeError {
		t.Errorf("run with missing explicit config = %d, want %d", code, core.ExitCodeError)
	}
}

func TestRun_RecordsHistoryWhenConfigured(t *testing.T) {
	isolateEnv(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	t.Setenv(core.EnvHistoryDB, dbPath)

	out := filepath.Join(t.TempDir(), "out.png")
	args := []string{
		"-d", testModelDir(t),
		"-p", "a cat",
		"-o", out,
		"-W", "64", "-H", "64", "-s", "1", "-S", "7",
	}
	if code := run(args); code != core.ExitCodeSuccess {
		t.Fatalf("run() = %d, want %d", code, core.ExitCodeSuccess)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("history database not created: %v", err)
	}
}
