package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvProduction is the CONGREGATION_ENV value that enables strict settings.
const EnvProduction = "production"

// Config holds every runtime setting of the server.
type Config struct {
	Addr            string
	DBPath          string
	Env             string
	LogLevel        slog.Level
	CSRFKey         []byte
	JWTSecret       []byte
	JWTTTL          time.Duration
	AdminEmail      string
	AdminPassword   string
	ResendKey       string
	ResendFrom      string
	BaseURL         string
	RateLimit       int
	SlowRequestMs   int
	SlowQueryMs     int
	SessionLifetime time.Duration
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// LoadDotEnv reads KEY=VALUE pairs from path into the environment.
// Variables already set win over the file. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment.
// PRE: LoadDotEnv has run if a .env file is used
// POST: production requires CONGREGATION_CSRF_KEY and CONGREGATION_JWT_SECRET
func Load() (Config, error) {
	cfg := Config{
		Addr:            getenv("CONGREGATION_ADDR", ":8080"),
		DBPath:          getenv("CONGREGATION_DB", "congregation.db"),
		Env:             getenv("CONGREGATION_ENV", "development"),
		LogLevel:        getenvLevel("CONGREGATION_LOG_LEVEL", slog.LevelInfo),
		JWTTTL:          getenvDuration("CONGREGATION_JWT_TTL", time.Hour),
		AdminEmail:      getenv("CONGREGATION_ADMIN_EMAIL", "admin@igreja.local"),
		AdminPassword:   getenv("CONGREGATION_ADMIN_PASSWORD", "troque-esta-senha"),
		ResendKey:       os.Getenv("CONGREGATION_RESEND_KEY"),
		ResendFrom:      getenv("CONGREGATION_RESEND_FROM", "Igreja <nao-responda@igreja.local>"),
		BaseURL:         strings.TrimRight(getenv("CONGREGATION_BASE_URL", "http://localhost:8080"), "/"),
		RateLimit:       getenvInt("CONGREGATION_RATE_LIMIT", 10),
		SlowRequestMs:   getenvInt("CONGREGATION_SLOW_REQUEST_MS", 500),
		SlowQueryMs:     getenvInt("CONGREGATION_SLOW_QUERY_MS", 50),
		SessionLifetime: 24 * time.Hour,
	}

	var err error
	if cfg.CSRFKey, err = secret("CONGREGATION_CSRF_KEY", cfg.IsProduction()); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret, err = secret("CONGREGATION_JWT_SECRET", cfg.IsProduction()); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// secret decodes a 32-byte hex key. Outside production a missing key is
// replaced by a random one, so sessions do not survive a restart.
func secret(key string, required bool) ([]byte, error) {
	if v := os.Getenv(key); v != "" {
		b, err := hex.DecodeString(v)
		if err != nil || len(b) != 32 {
			return nil, fmt.Errorf("%s must be 64 hex characters (32 bytes)", key)
		}
		return b, nil
	}
	if required {
		return nil, fmt.Errorf("%s is required in production", key)
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate %s: %w", key, err)
	}
	slog.Warn("random_secret", "key", key)
	return b, nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvLevel(key string, fallback slog.Level) slog.Level {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(val)); err != nil {
		return fallback
	}
	return level
}
