package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("ADMIN_KEY", "test-admin-key")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Risk.WindowMinutes != 10 {
		t.Errorf("WindowMinutes: got %d, want 10", cfg.Risk.WindowMinutes)
	}
	if cfg.Risk.Window() != 10*time.Minute {
		t.Errorf("Window(): got %v, want 10m", cfg.Risk.Window())
	}
	if cfg.Risk.DefaultApplication != "default" {
		t.Errorf("DefaultApplication: got %q, want %q", cfg.Risk.DefaultApplication, "default")
	}
	if cfg.Server.Port != "5001" {
		t.Errorf("Port: got %q, want %q", cfg.Server.Port, "5001")
	}
}

func TestLoad_RequiresAdminKey(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() without ADMIN_KEY: got nil error, want error")
	}
}

func TestLoad_RequiresDatabasePassword(t *testing.T) {
	os.Setenv("ADMIN_KEY", "test-admin-key")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() without DB_PASSWORD: got nil error, want error")
	}
}

func TestLoad_RejectsNonPositiveWindow(t *testing.T) {
	os.Setenv("ADMIN_KEY", "test-admin-key")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("RISK_WINDOW_MINUTES", "0")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with zero window: got nil error, want error")
	}
}

func TestLoad_CustomWindow(t *testing.T) {
	os.Setenv("ADMIN_KEY", "test-admin-key")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("RISK_WINDOW_MINUTES", "5")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Risk.Window() != 5*time.Minute {
		t.Errorf("Window(): got %v, want 5m", cfg.Risk.Window())
	}
}

func TestLoad_RetentionMustCoverWindow(t *testing.T) {
	os.Setenv("ADMIN_KEY", "test-admin-key")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("RISK_WINDOW_MINUTES", "2880") // two days
	os.Setenv("RISK_RETENTION_DAYS", "1")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with retention inside the window: got nil error, want error")
	}
}

func TestLoad_RetentionDisabled(t *testing.T) {
	os.Setenv("ADMIN_KEY", "test-admin-key")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("RISK_RETENTION_DAYS", "0")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}
	if cfg.Risk.RetentionDays != 0 {
		t.Errorf("RetentionDays: got %d, want 0", cfg.Risk.RetentionDays)
	}
}

func TestLoadFrontend_Defaults(t *testing.T) {
	os.Setenv("CHALLENGE_SECRET", "a-long-enough-secret")
	defer os.Clearenv()

	cfg, err := LoadFrontend()
	if err != nil {
		t.Fatalf("LoadFrontend() = %v, want nil", err)
	}

	if cfg.GuardURL != "http://127.0.0.1:5001/decide" {
		t.Errorf("GuardURL: got %q", cfg.GuardURL)
	}
	if cfg.GuardTimeout != 1*time.Second {
		t.Errorf("GuardTimeout: got %v, want 1s", cfg.GuardTimeout)
	}
}

func TestLoadFrontend_RejectsShortSecret(t *testing.T) {
	os.Setenv("CHALLENGE_SECRET", "short")
	defer os.Clearenv()

	if _, err := LoadFrontend(); err == nil {
		t.Fatal("LoadFrontend() with short secret: got nil error, want error")
	}
}
