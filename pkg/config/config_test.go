package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/element-locator/pkg/core"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
port: 8080
corsOrigins: http://localhost:3000
device: emulator-5554
adbPath: /opt/android/platform-tools/adb
pollInterval: 2s
dumpRetries: 4
dumpDir: /data/local/tmp
logFile: /tmp/locator.log
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.CORSOrigins != "http://localhost:3000" {
		t.Errorf("expected corsOrigins http://localhost:3000, got %s", cfg.CORSOrigins)
	}
	if cfg.Device != "emulator-5554" {
		t.Errorf("expected device emulator-5554, got %s", cfg.Device)
	}
	if cfg.ADBPath != "/opt/android/platform-tools/adb" {
		t.Errorf("unexpected adbPath %s", cfg.ADBPath)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("expected pollInterval 2s, got %v", cfg.PollInterval)
	}
	if cfg.DumpRetries != 4 {
		t.Errorf("expected dumpRetries 4, got %d", cfg.DumpRetries)
	}
	if cfg.DumpDir != "/data/local/tmp" {
		t.Errorf("unexpected dumpDir %s", cfg.DumpDir)
	}
	if cfg.LogPath() != "/tmp/locator.log" {
		t.Errorf("unexpected log path %s", cfg.LogPath())
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `port: [invalid yaml`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestLoad_EmptyConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(``), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *cfg != *Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFromDir_ConfigYml(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`device: abc`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Device != "abc" {
		t.Errorf("expected device abc, got %s", cfg.Device)
	}
	if cfg.Port != 3001 {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *cfg != *Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`device: from-yaml`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(`device: from-yml`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Device != "from-yaml" {
		t.Errorf("expected device from config.yaml, got %s", cfg.Device)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPort:         "4000",
		EnvDevice:       "R58M123",
		EnvADBPath:      "/usr/bin/adb",
		EnvPollInterval: "750ms",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Defaults()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 4000 || cfg.Device != "R58M123" || cfg.ADBPath != "/usr/bin/adb" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.PollInterval != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %v", cfg.PollInterval)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		EnvPort:         "abc",
		EnvPollInterval: "soon",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			cfg := Defaults()
			err := cfg.applyEnv(func(k string) (string, bool) {
				if k == key {
					return value, true
				}
				return "", false
			})
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("expected invalid config error, got %v", err)
			}
		})
	}
}

func TestApplyEnv_FromProcess(t *testing.T) {
	t.Setenv(EnvDevice, "from-process")

	cfg := Defaults()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Device != "from-process" {
		t.Errorf("expected device from-process, got %s", cfg.Device)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("ELEMENT_LOCATOR_TEST_VALUE=hello\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ELEMENT_LOCATOR_TEST_VALUE") })

	if err := LoadEnvFile(envPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("ELEMENT_LOCATOR_TEST_VALUE"); got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should not be an error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }, true},
		{"negative retries", func(c *Config) { c.DumpRetries = -1 }, true},
		{"no retries", func(c *Config) { c.DumpRetries = 0 }, false},
		{"empty dump dir", func(c *Config) { c.DumpDir = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && core.CategoryOf(err) != core.ErrCategoryConfig {
				t.Errorf("expected config category, got %s", core.CategoryOf(err))
			}
		})
	}
}
