package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestEnvironment lays out a config file, lock dir and shows dir in a
// temp tree and points SHOWRUNNER_CONFIG at the config. MQTT and InfluxDB
// stay disabled so run() needs no external services.
func writeTestEnvironment(t *testing.T, showYAML string) string {
	t.Helper()
	tmpDir := t.TempDir()

	showsDir := filepath.Join(tmpDir, "shows")
	if err := os.Mkdir(showsDir, 0750); err != nil {
		t.Fatalf("creating shows dir: %v", err)
	}
	if showYAML != "" {
		if err := os.WriteFile(filepath.Join(showsDir, "test.yaml"), []byte(showYAML), 0600); err != nil {
			t.Fatalf("writing show file: %v", err)
		}
	}

	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
site:
  id: test-site

database:
  path: "` + filepath.Join(tmpDir, "test.db") + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false
  qos: 1

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout

lock:
  name: showrunner-test
  dir: "` + tmpDir + `"
  acquire_timeout: 1

shows:
  dir: "` + showsDir + `"
  repeat: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	originalEnv := os.Getenv("SHOWRUNNER_CONFIG")
	t.Cleanup(func() { os.Setenv("SHOWRUNNER_CONFIG", originalEnv) })
	os.Setenv("SHOWRUNNER_CONFIG", configPath)

	return tmpDir
}

const quickShowYAML = `name: quick
duration: 0.3
events:
  - at: 0
    commands:
      - fixture_id: house-lights
        action: "on"
  - at: 0.1
    commands:
      - fixture_id: house-lights
        action: "off"
`

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("SHOWRUNNER_CONFIG")
	defer os.Setenv("SHOWRUNNER_CONFIG", originalEnv)

	os.Setenv("SHOWRUNNER_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_FullRotation runs the daemon end to end against a real temp
// database with MQTT and InfluxDB disabled. The rotation has a single
// short show and no repeat, so run() returns on its own.
func TestRun_FullRotation(t *testing.T) {
	writeTestEnvironment(t, quickShowYAML)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
}

// TestRun_NoShows verifies run fails when the shows directory is empty.
func TestRun_NoShows(t *testing.T) {
	writeTestEnvironment(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with no show definitions")
	}
}

// TestRun_LockContention verifies a second instance refuses to start
// while the lock file names a live process.
func TestRun_LockContention(t *testing.T) {
	tmpDir := writeTestEnvironment(t, quickShowYAML)

	// Plant a lock naming our own (definitely alive) PID.
	lockPath := filepath.Join(tmpDir, "showrunner-test.lock")
	if err := os.WriteFile(lockPath, []byte("1\n"), 0600); err != nil {
		t.Fatalf("writing lock file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail while another process holds the lock")
	}
}

// TestRun_CancelledDuringRotation verifies a shutdown signal interrupts
// a repeating rotation cleanly.
func TestRun_CancelledDuringRotation(t *testing.T) {
	tmpDir := writeTestEnvironment(t, quickShowYAML)

	// Rewrite the config with repeat enabled so the rotation never ends
	// on its own.
	configPath := filepath.Join(tmpDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	repeating := []byte(string(data[:len(data)-len("repeat: false\n")]) + "repeat: true\n")
	if err := os.WriteFile(configPath, repeating, 0600); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() should shut down cleanly on cancellation, got: %v", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("SHOWRUNNER_CONFIG")
	defer os.Setenv("SHOWRUNNER_CONFIG", originalEnv)

	os.Unsetenv("SHOWRUNNER_CONFIG")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("SHOWRUNNER_CONFIG")
	defer os.Setenv("SHOWRUNNER_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("SHOWRUNNER_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q", path)
	}
}
