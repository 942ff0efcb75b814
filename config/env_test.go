package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ZAIVIO_API_BASE_URL", "ZAIVIO_TOKEN_STORE", "ZAIVIO_HTTP_TIMEOUT",
		"ZAIVIO_REFRESH_TIMEOUT", "ZAIVIO_RATE_LIMIT", "REPORT_TTL", "SMTP_PORT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("ZAIVIO_HOME", t.TempDir())

	s, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.APIBaseURL != DefaultAPIBaseURL {
		t.Fatalf("unexpected base url: %s", s.APIBaseURL)
	}
	if s.TokenStore != TokenStoreFile {
		t.Fatalf("unexpected token store: %s", s.TokenStore)
	}
	if s.RefreshTimeout != DefaultRefreshTimeout {
		t.Fatalf("unexpected refresh timeout: %s", s.RefreshTimeout)
	}
	if s.SMTPPort != 25 {
		t.Fatalf("unexpected smtp port: %d", s.SMTPPort)
	}
	if s.RateLimit != 0 {
		t.Fatalf("expected rate limit disabled, got %v", s.RateLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("ZAIVIO_HOME", home)
	t.Setenv("ZAIVIO_API_BASE_URL", "https://api.zaivio.test/")
	t.Setenv("ZAIVIO_TOKEN_STORE", "Redis")
	t.Setenv("ZAIVIO_REFRESH_TIMEOUT", "5s")
	t.Setenv("ZAIVIO_RATE_LIMIT", "2.5")

	s, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.APIBaseURL != "https://api.zaivio.test" {
		t.Fatalf("expected trailing slash trimmed, got %s", s.APIBaseURL)
	}
	if s.TokenStore != TokenStoreRedis {
		t.Fatalf("unexpected token store: %s", s.TokenStore)
	}
	if s.RefreshTimeout != 5*time.Second {
		t.Fatalf("unexpected refresh timeout: %s", s.RefreshTimeout)
	}
	if s.RateLimit != 2.5 {
		t.Fatalf("unexpected rate limit: %v", s.RateLimit)
	}
	if s.CredentialFile() != filepath.Join(home, "credentials.json") {
		t.Fatalf("unexpected credential file: %s", s.CredentialFile())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("ZAIVIO_HOME", t.TempDir())

	t.Setenv("ZAIVIO_TOKEN_STORE", "keychain")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown token store")
	}

	t.Setenv("ZAIVIO_TOKEN_STORE", "")
	t.Setenv("ZAIVIO_REFRESH_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ZAIVIO_TEST_ONLY_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("ZAIVIO_TEST_ONLY_KEY") })

	if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := GetEnv("ZAIVIO_TEST_ONLY_KEY"); got != "from-dotenv" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestInitLoggerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	if err := InitLogger(dir, "debug"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(SyncLogger)
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected log dir to exist: %v", err)
	}
	if err := InitLogger(dir, "chatty"); err == nil {
		t.Fatal("expected invalid level error")
	}
}
