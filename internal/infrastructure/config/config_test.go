package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create a temporary config file
	content := `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
lock:
  name: "showrunner-test"
  acquire_timeout: 5
shows:
  dir: "/tmp/shows"
  rotation: ["sunset", "aurora"]
  repeat: true
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	if cfg.Lock.AcquireTimeout != 5 {
		t.Errorf("Lock.AcquireTimeout = %v, want 5", cfg.Lock.AcquireTimeout)
	}
	if cfg.GetAcquireTimeout() != 5*time.Second {
		t.Errorf("GetAcquireTimeout() = %v, want 5s", cfg.GetAcquireTimeout())
	}

	if len(cfg.Shows.Rotation) != 2 || cfg.Shows.Rotation[0] != "sunset" {
		t.Errorf("Shows.Rotation = %v, want [sunset aurora]", cfg.Shows.Rotation)
	}

	if !cfg.Shows.Repeat {
		t.Error("Shows.Repeat = false, want true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
database:
  path: "/tmp/test.db"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Site:     SiteConfig{ID: "site-001"},
			Database: DatabaseConfig{Path: "/data/showrunner.db"},
			MQTT:     MQTTConfig{QoS: 1},
			Lock:     LockConfig{Name: "showrunner"},
			Shows:    ShowsConfig{Dir: "./shows"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing site ID",
			mutate:  func(c *Config) { c.Site.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name: "mqtt enabled without host",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.Broker.Host = ""
			},
			wantErr: true,
		},
		{
			name: "influxdb enabled without token",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
			},
			wantErr: true,
		},
		{
			name:    "missing lock name",
			mutate:  func(c *Config) { c.Lock.Name = "" },
			wantErr: true,
		},
		{
			name:    "negative lock timeout",
			mutate:  func(c *Config) { c.Lock.AcquireTimeout = -1 },
			wantErr: true,
		},
		{
			name:    "missing shows dir",
			mutate:  func(c *Config) { c.Shows.Dir = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	// Set environment variables
	t.Setenv("SHOWRUNNER_DATABASE_PATH", "/custom/path.db")
	t.Setenv("SHOWRUNNER_MQTT_HOST", "mqtt.example.com")
	t.Setenv("SHOWRUNNER_MQTT_USERNAME", "testuser")
	t.Setenv("SHOWRUNNER_MQTT_PASSWORD", "testpass")
	t.Setenv("SHOWRUNNER_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("SHOWRUNNER_LOCK_DIR", "/var/run/showrunner")
	t.Setenv("SHOWRUNNER_SHOWS_DIR", "/etc/showrunner/shows")
	t.Setenv("SHOWRUNNER_EXECUTOR_MAX_WORKERS", "8")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}

	if cfg.Lock.Dir != "/var/run/showrunner" {
		t.Errorf("Lock.Dir = %q, want %q", cfg.Lock.Dir, "/var/run/showrunner")
	}

	if cfg.Shows.Dir != "/etc/showrunner/shows" {
		t.Errorf("Shows.Dir = %q, want %q", cfg.Shows.Dir, "/etc/showrunner/shows")
	}

	if cfg.Executor.MaxWorkers != 8 {
		t.Errorf("Executor.MaxWorkers = %d, want 8", cfg.Executor.MaxWorkers)
	}
}

func TestApplyEnvOverrides_InvalidWorkerCount(t *testing.T) {
	cfg := defaultConfig()
	want := cfg.Executor.MaxWorkers

	t.Setenv("SHOWRUNNER_EXECUTOR_MAX_WORKERS", "not-a-number")
	applyEnvOverrides(cfg)

	if cfg.Executor.MaxWorkers != want {
		t.Errorf("Executor.MaxWorkers = %d, want unchanged %d", cfg.Executor.MaxWorkers, want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.Executor.MaxWorkers != 20 {
		t.Errorf("defaultConfig Executor.MaxWorkers = %d, want 20", cfg.Executor.MaxWorkers)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig does not validate: %v", err)
	}
}
