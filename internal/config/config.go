package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	ServerPort     string
	SessionSecret  string
	DBDSN          string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LedgerTTL      time.Duration
	BackendTimeout time.Duration
	BackendRetries int
	RepairBaseURL  string
	LogLevel       string
	LogFormat      string
	// CORSOrigins lists the UI origins allowed to send credentials. Empty
	// allows any origin without credentials.
	CORSOrigins []string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	var errs []error
	getInt := func(key string, def int) int {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be an integer, got %q", key, raw))
			return def
		}
		return n
	}

	cfg := &Config{
		APIBaseURL:     strings.TrimRight(get("API_BASE_URL", "http://localhost:8000"), "/"),
		ServerPort:     get("SERVER_PORT", "8080"),
		SessionSecret:  get("SESSION_SECRET", ""),
		DBDSN:          get("DB_DSN", ""),
		RedisAddr:      get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  get("REDIS_PASSWORD", ""),
		RedisDB:        getInt("REDIS_DB", 0),
		LedgerTTL:      time.Duration(getInt("LEDGER_TTL_HOURS", 72)) * time.Hour,
		BackendTimeout: time.Duration(getInt("BACKEND_TIMEOUT_SECONDS", 10)) * time.Second,
		BackendRetries: getInt("BACKEND_RETRY_COUNT", 1),
		RepairBaseURL:  strings.TrimRight(get("REPAIR_BASE_URL", "http://localhost:8080"), "/"),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFormat:      get("LOG_FORMAT", "json"),
		CORSOrigins:    splitList(get("CORS_ALLOW_ORIGINS", "")),
	}

	if cfg.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is not set"))
	}
	if cfg.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is not set"))
	}
	if cfg.BackendTimeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT_SECONDS must be positive"))
	}
	if cfg.LedgerTTL <= 0 {
		errs = append(errs, errors.New("LEDGER_TTL_HOURS must be positive"))
	}
	// at most one retry per call
	if cfg.BackendRetries > 1 {
		cfg.BackendRetries = 1
	}
	if cfg.BackendRetries < 0 {
		cfg.BackendRetries = 0
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}
