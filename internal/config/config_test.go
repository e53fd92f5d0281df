package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
telegram:
  token: "123456:test-token"
godbolt:
  base_url: "https://ce.example.com"
allowlist:
  - 1111
  - 2222
log_file: "/tmp/test.log"
debug: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Telegram.Token != "123456:test-token" {
		t.Errorf("Token = %q", cfg.Telegram.Token)
	}
	if cfg.Godbolt.BaseURL != "https://ce.example.com" {
		t.Errorf("BaseURL = %q", cfg.Godbolt.BaseURL)
	}
	if len(cfg.Allowlist) != 2 || cfg.Allowlist[0] != 1111 {
		t.Errorf("Allowlist = %v", cfg.Allowlist)
	}
	if cfg.LogFile != "/tmp/test.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoadEnvTokenOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
telegram:
  token: "from-file"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvToken, "from-env")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Errorf("Token = %q, want %q", cfg.Telegram.Token, "from-env")
	}
}

func TestLoadMissingFileWithEnvToken(t *testing.T) {
	t.Setenv(EnvToken, "env-only")

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "env-only" {
		t.Errorf("Token = %q, want %q", cfg.Telegram.Token, "env-only")
	}
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv(EnvToken, "")

	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Error("Load() should error when no token is available")
	}
}

func TestIsAllowed(t *testing.T) {
	cfg := &Config{Allowlist: []int64{1111, 2222}}

	tests := []struct {
		userID int64
		want   bool
	}{
		{1111, true},
		{2222, true},
		{3333, false},
		{0, false},
	}

	for _, tt := range tests {
		if got := cfg.IsAllowed(tt.userID); got != tt.want {
			t.Errorf("IsAllowed(%d) = %v, want %v", tt.userID, got, tt.want)
		}
	}
}

func TestIsAllowedEmptyAllowlist(t *testing.T) {
	cfg := &Config{}
	if !cfg.IsAllowed(42) {
		t.Error("empty allowlist should allow everyone")
	}
}
