package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "DISMINE_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/dismine.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/dismine.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.OwnerEmail != "owner@dismine.com" {
		t.Errorf("OwnerEmail = %q, want %q", cfg.OwnerEmail, "owner@dismine.com")
	}
	if cfg.DoSeed {
		t.Error("DoSeed should default to false")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "DISMINE_SESSION_SECRET", "custom-secret-key-32-bytes-long!")
	setEnv(t, "DISMINE_DB_PATH", "/custom/path.db")
	setEnv(t, "DISMINE_SERVER_HOST", "0.0.0.0")
	setEnv(t, "DISMINE_SERVER_PORT", "3000")
	setEnv(t, "DISMINE_ENV", "production")
	setEnv(t, "DISMINE_OWNER_EMAIL", "root@example.com")
	setEnv(t, "DISMINE_DO_SEED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() should be false in production")
	}
	if cfg.OwnerEmail != "root@example.com" {
		t.Errorf("OwnerEmail = %q, want %q", cfg.OwnerEmail, "root@example.com")
	}
	if !cfg.DoSeed {
		t.Error("DoSeed should be true")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DISMINE_SESSION_SECRET is missing")
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "DISMINE_SESSION_SECRET", "too-short")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for short session secret")
	}
}

func TestLoad_WeakSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "DISMINE_SESSION_SECRET", "change-me-to-32-byte-secret-key!")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for known weak secret")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"abcdefghijklmnopqrstuvwxyz", false},
		{"abcDEF123", true},
		{"abc123!@#", true},
		{"ONLYUPPERCASE1234", false},
	}
	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
