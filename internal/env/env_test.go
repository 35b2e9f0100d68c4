package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetters(t *testing.T) {
	t.Setenv("ENV_TEST_INT", "42")
	t.Setenv("ENV_TEST_BAD_INT", "x")
	t.Setenv("ENV_TEST_BOOL", "true")
	t.Setenv("ENV_TEST_DUR", "1m30s")

	if got := GetInt("ENV_TEST_INT", 1); got != 42 {
		t.Errorf("GetInt = %d, want 42", got)
	}
	if got := GetInt("ENV_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetInt with bad value = %d, want fallback 7", got)
	}
	if got := GetBool("ENV_TEST_BOOL", false); !got {
		t.Error("GetBool = false, want true")
	}
	if got := GetDuration("ENV_TEST_DUR", time.Second); got != 90*time.Second {
		t.Errorf("GetDuration = %v, want 1m30s", got)
	}
	if got := GetString("ENV_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetString = %q, want fallback", got)
	}
}

func TestLoadDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ENV_TEST_FROM_FILE=file\nENV_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_TEST_PRESET", "process")
	t.Cleanup(func() { os.Unsetenv("ENV_TEST_FROM_FILE") })

	if err := Load(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := os.Getenv("ENV_TEST_FROM_FILE"); got != "file" {
		t.Errorf("ENV_TEST_FROM_FILE = %q, want file", got)
	}
	if got := os.Getenv("ENV_TEST_PRESET"); got != "process" {
		t.Errorf("ENV_TEST_PRESET = %q, want process", got)
	}
}
