package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL     = "http://localhost:8000"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRefreshTimeout = 30 * time.Second
	DefaultReportTTL      = 24 * time.Hour
)

// Token store backends understood by ZAIVIO_TOKEN_STORE.
const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

// Settings is the resolved client configuration.
type Settings struct {
	APIBaseURL     string
	TokenStore     string
	Home           string
	RedisAddress   string
	HTTPTimeout    time.Duration
	RefreshTimeout time.Duration
	RateLimit      float64

	LogDir   string
	LogLevel string

	ReportDir string
	ReportTTL time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	TokenSymmetricKey string
	Port              string
}

// GetEnv returns the trimmed value of an environment variable.
func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// LoadEnv loads a .env file into the process environment. A missing file is not an error.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads Settings from the environment, applying defaults.
func Load() (*Settings, error) {
	s := &Settings{
		APIBaseURL:        strings.TrimRight(envOr("ZAIVIO_API_BASE_URL", DefaultAPIBaseURL), "/"),
		TokenStore:        strings.ToLower(envOr("ZAIVIO_TOKEN_STORE", TokenStoreFile)),
		RedisAddress:      envOr("REDIS_ADDRESS", "localhost:6379"),
		LogDir:            envOr("LOG_DIR", "logs"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		ReportDir:         envOr("REPORT_DIR", "reports"),
		SMTPHost:          GetEnv("SMTP_HOST"),
		SMTPUser:          GetEnv("SMTP_USER"),
		SMTPPassword:      GetEnv("SMTP_PASSWORD"),
		SMTPFrom:          GetEnv("SMTP_FROM"),
		TokenSymmetricKey: GetEnv("TOKEN_SYMMETRIC_KEY"),
		Port:              envOr("PORT", "8000"),
	}

	switch s.TokenStore {
	case TokenStoreFile, TokenStoreRedis, TokenStoreMemory:
	default:
		return nil, fmt.Errorf("invalid ZAIVIO_TOKEN_STORE %q", s.TokenStore)
	}

	home := GetEnv("ZAIVIO_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			userHome = "."
		}
		home = filepath.Join(userHome, ".zaivio")
	}
	s.Home = home

	var err error
	if s.HTTPTimeout, err = durationEnv("ZAIVIO_HTTP_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return nil, err
	}
	if s.RefreshTimeout, err = durationEnv("ZAIVIO_REFRESH_TIMEOUT", DefaultRefreshTimeout); err != nil {
		return nil, err
	}
	if s.ReportTTL, err = durationEnv("REPORT_TTL", DefaultReportTTL); err != nil {
		return nil, err
	}

	if v := GetEnv("ZAIVIO_RATE_LIMIT"); v != "" {
		s.RateLimit, err = strconv.ParseFloat(v, 64)
		if err != nil || s.RateLimit < 0 {
			return nil, fmt.Errorf("invalid ZAIVIO_RATE_LIMIT %q", v)
		}
	}

	s.SMTPPort = 25
	if v := GetEnv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		s.SMTPPort = port
	}

	return s, nil
}

// CredentialFile is where the file token store keeps the bearer credential.
func (s *Settings) CredentialFile() string {
	return filepath.Join(s.Home, "credentials.json")
}

// CookieFile is where the CLI persists the refresh cookie between runs.
func (s *Settings) CookieFile() string {
	return filepath.Join(s.Home, "cookies.json")
}

func envOr(key, fallback string) string {
	if v := GetEnv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := GetEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}
