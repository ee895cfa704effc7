package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Limits     LimitsConfig
	Admin      AdminConfig
	Log        LogConfig
	CORSOrigin string
	Metrics    bool
	StaticDir  string
	SeedDemo   bool
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects and tunes the database.
type DatabaseConfig struct {
	URL          string // sqlite://<path> or postgres://<dsn>
	Debug        bool
	MaxOpenConns int
}

// LimitsConfig bounds what anonymous writers can submit.
type LimitsConfig struct {
	MaxConfessionLength int
	MaxCommentLength    int
	RateLimitRPS        float64 // 0 disables the write limiter
	RateLimitBurst      int
}

// AdminConfig controls the moderation endpoints.
type AdminConfig struct {
	Token           string // empty disables /api/admin
	ReportThreshold int
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			URL:          "sqlite://blushbox.db",
			MaxOpenConns: 100,
		},
		Limits: LimitsConfig{
			MaxConfessionLength: 500,
			MaxCommentLength:    500,
			RateLimitRPS:        1.0 / 3.0,
			RateLimitBurst:      3,
		},
		Admin: AdminConfig{
			ReportThreshold: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		CORSOrigin: "*",
		Metrics:    true,
		SeedDemo:   true,
	}
}

// Load reads a .env file if one exists, then overlays environment variables
// on top of Default.
func Load() (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	cfg := Default()
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.CORSOrigin = getEnv("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.Admin.Token = getEnv("X_ADMIN_TOKEN", cfg.Admin.Token)
	cfg.StaticDir = getEnv("STATIC_DIR", cfg.StaticDir)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	var err error
	if cfg.Server.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.Database.Debug, err = getBool("DB_DEBUG", cfg.Database.Debug); err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns); err != nil {
		return nil, err
	}
	if cfg.Limits.MaxConfessionLength, err = getInt("MAX_CONFESSION_LENGTH", cfg.Limits.MaxConfessionLength); err != nil {
		return nil, err
	}
	if cfg.Limits.MaxCommentLength, err = getInt("MAX_COMMENT_LENGTH", cfg.Limits.MaxCommentLength); err != nil {
		return nil, err
	}
	if cfg.Limits.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", cfg.Limits.RateLimitRPS); err != nil {
		return nil, err
	}
	if cfg.Limits.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", cfg.Limits.RateLimitBurst); err != nil {
		return nil, err
	}
	if cfg.Admin.ReportThreshold, err = getInt("ADMIN_REPORT_THRESHOLD", cfg.Admin.ReportThreshold); err != nil {
		return nil, err
	}
	if cfg.Metrics, err = getBool("METRICS_ENABLED", cfg.Metrics); err != nil {
		return nil, err
	}
	if cfg.SeedDemo, err = getBool("SEED_DEMO", cfg.SeedDemo); err != nil {
		return nil, err
	}

	if cfg.Limits.MaxConfessionLength <= 0 || cfg.Limits.MaxCommentLength <= 0 {
		return nil, fmt.Errorf("content length limits must be positive")
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want text or json", cfg.Log.Format)
	}

	return cfg, nil
}

// Addr returns the listen address for http.Server.
func (c *ServerConfig) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
