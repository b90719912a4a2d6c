package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) envLookup {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(nil, lookupFrom(map[string]string{
		"DATABASE_URI": "postgres://localhost/coursepay",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RunAddress != ":8080" {
		t.Errorf("RunAddress = %q, want :8080", cfg.RunAddress)
	}
	if cfg.ProviderAPIURL != "https://api.portone.io" {
		t.Errorf("ProviderAPIURL = %q", cfg.ProviderAPIURL)
	}
	if cfg.VerifyTimeout != 5*time.Second {
		t.Errorf("VerifyTimeout = %v", cfg.VerifyTimeout)
	}
	if cfg.WorkerPoolSize != 4 {
		t.Errorf("WorkerPoolSize = %d", cfg.WorkerPoolSize)
	}
	if cfg.VerificationEnabled() {
		t.Error("verification should be disabled without a provider secret")
	}
}

func TestLoadRequiresDatabaseURI(t *testing.T) {
	if _, err := load(nil, lookupFrom(nil)); err == nil {
		t.Fatal("expected error for missing database URI")
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	cfg, err := load(
		[]string{"-a", ":9090", "-d", "postgres://flag/db", "-verify-timeout", "2s", "-worker-pool", "8"},
		lookupFrom(map[string]string{
			"RUN_ADDRESS":  ":7070",
			"DATABASE_URI": "postgres://env/db",
		}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RunAddress != ":9090" {
		t.Errorf("RunAddress = %q, want :9090", cfg.RunAddress)
	}
	if cfg.DatabaseURI != "postgres://flag/db" {
		t.Errorf("DatabaseURI = %q", cfg.DatabaseURI)
	}
	if cfg.VerifyTimeout != 2*time.Second {
		t.Errorf("VerifyTimeout = %v", cfg.VerifyTimeout)
	}
	if cfg.WorkerPoolSize != 8 {
		t.Errorf("WorkerPoolSize = %d", cfg.WorkerPoolSize)
	}
}

func TestLoadSecretFiles(t *testing.T) {
	dir := t.TempDir()
	jwtFile := filepath.Join(dir, "jwt")
	providerFile := filepath.Join(dir, "provider")
	if err := os.WriteFile(jwtFile, []byte("file-jwt-secret"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(providerFile, []byte("file-provider-secret"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(nil, lookupFrom(map[string]string{
		"DATABASE_URI":             "postgres://localhost/coursepay",
		"JWT_SECRET":               "env-secret",
		"JWT_SECRET_FILE":          jwtFile,
		"PROVIDER_API_SECRET_FILE": providerFile,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.JWTSecret != "file-jwt-secret" {
		t.Errorf("JWTSecret = %q, file should win over env", cfg.JWTSecret)
	}
	if cfg.ProviderAPISecret != "file-provider-secret" {
		t.Errorf("ProviderAPISecret = %q", cfg.ProviderAPISecret)
	}
	if !cfg.VerificationEnabled() {
		t.Error("verification should be enabled with a provider secret")
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	_, err := load([]string{"-verify-timeout", "nonsense"}, lookupFrom(map[string]string{
		"DATABASE_URI": "postgres://localhost/coursepay",
	}))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
