package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAuthConfig_Disabled(t *testing.T) {
	cfg := AuthConfig{Enabled: false, Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled auth should pass: %v", err)
	}
}

func TestAuthConfig_EnabledWithToken(t *testing.T) {
	cfg := AuthConfig{Enabled: true, Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("enabled auth with token should pass: %v", err)
	}
}

func TestAuthConfig_EnabledEmptyToken(t *testing.T) {
	cfg := AuthConfig{Enabled: true, Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("enabled auth with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplicationConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := ApplicationConfig{LogLevel: tt.name}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestApplicationConfig_InvalidLogLevel(t *testing.T) {
	cfg := ApplicationConfig{
		LogLevel: "verbose",
		HTTP:     HTTPConfig{Port: 8787},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown log level should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.App.HTTP.Port != 8787 {
		t.Errorf("port = %d, want 8787", cfg.App.HTTP.Port)
	}
	if cfg.State.Path != "./source_markers_db" {
		t.Errorf("state path = %q", cfg.State.Path)
	}
	if cfg.Intake.Dir != "" {
		t.Errorf("intake should be disabled by default, got %q", cfg.Intake.Dir)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("MARKERD_TEST_TOKEN", "sekrit")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
app:
  log_level: debug
  http:
    port: 9900
state:
  path: /tmp/markers/source_markers_db
sqlite:
  path: /tmp/markers/index.db
intake:
  dir: /tmp/markers/drop
auth:
  enabled: true
  token: ${MARKERD_TEST_TOKEN}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := LoadConfig(path, cfg); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.App.HTTP.Port != 9900 {
		t.Errorf("port = %d, want 9900", cfg.App.HTTP.Port)
	}
	if cfg.App.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", cfg.App.SlogLevel())
	}
	if cfg.Intake.Dir != "/tmp/markers/drop" {
		t.Errorf("intake dir = %q", cfg.Intake.Dir)
	}
	if cfg.Auth.Token != "sekrit" {
		t.Errorf("env expansion failed, token = %q", cfg.Auth.Token)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), cfg); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := LoadConfig(path, cfg); err == nil {
		t.Fatal("invalid yaml should fail")
	}
}
