package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API                APIConfig
	Session            SessionConfig
	Credentials        CredentialsConfig
	GoogleBooksBaseURL string
	ActivityLogFile    string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	CheckInterval time.Duration
}

type CredentialsConfig struct {
	Backend     string
	FilePath    string
	DatabaseURL string
	Redis       RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// fileConfig is the optional YAML seed; environment variables override it.
type fileConfig struct {
	APIBaseURL          string `yaml:"api_base_url"`
	APITimeoutSec       int    `yaml:"api_timeout_sec"`
	SessionTTLHours     int    `yaml:"session_ttl_hours"`
	SessionCheckMinutes int    `yaml:"session_check_minutes"`
	CredentialsBackend  string `yaml:"credentials_backend"`
	CredentialsFile     string `yaml:"credentials_file"`
	DatabaseURL         string `yaml:"database_url"`
	Redis               struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	ActivityLogFile    string `yaml:"activity_log_file"`
	GoogleBooksBaseURL string `yaml:"google_books_base_url"`
}

// Load builds the configuration from, in increasing priority: built-in
// defaults, an optional YAML file named by BOOKLEND_CONFIG_FILE, and
// environment variables. A .env file in the working directory is honored
// when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	seed, err := loadFile(os.Getenv("BOOKLEND_CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		API: APIConfig{
			BaseURL: getEnv("BOOKLEND_API_URL", fallback(seed.APIBaseURL, "http://127.0.0.1:8000")),
			Timeout: time.Duration(getEnvInt("BOOKLEND_API_TIMEOUT_SEC", fallbackInt(seed.APITimeoutSec, 30))) * time.Second,
		},
		Session: SessionConfig{
			TTL:           time.Duration(getEnvInt("BOOKLEND_SESSION_TTL_HOURS", fallbackInt(seed.SessionTTLHours, 24))) * time.Hour,
			CheckInterval: time.Duration(getEnvInt("BOOKLEND_SESSION_CHECK_MIN", fallbackInt(seed.SessionCheckMinutes, 5))) * time.Minute,
		},
		Credentials: CredentialsConfig{
			Backend:     getEnv("BOOKLEND_CREDENTIALS_BACKEND", seed.CredentialsBackend),
			FilePath:    getEnv("BOOKLEND_CREDENTIALS_FILE", fallback(seed.CredentialsFile, "./data/credentials.json")),
			DatabaseURL: getEnv("BOOKLEND_DATABASE_URL", seed.DatabaseURL),
			Redis: RedisConfig{
				Addr:     getEnv("BOOKLEND_REDIS_ADDR", seed.Redis.Addr),
				Password: getEnv("BOOKLEND_REDIS_PASSWORD", seed.Redis.Password),
				DB:       getEnvInt("BOOKLEND_REDIS_DB", seed.Redis.DB),
				Prefix:   getEnv("BOOKLEND_REDIS_PREFIX", fallback(seed.Redis.Prefix, "booklend:")),
			},
		},
		GoogleBooksBaseURL: getEnv("BOOKLEND_GOOGLE_BOOKS_URL", seed.GoogleBooksBaseURL),
		ActivityLogFile:    getEnv("BOOKLEND_ACTIVITY_LOG_FILE", fallback(seed.ActivityLogFile, "./data/activity.log")),
	}

	if cfg.Credentials.Backend == "" {
		cfg.Credentials.Backend = deriveBackend(cfg.Credentials)
	}

	if cfg.API.BaseURL == "" {
		return Config{}, fmt.Errorf("BOOKLEND_API_URL must not be empty")
	}
	if cfg.API.Timeout <= 0 {
		return Config{}, fmt.Errorf("BOOKLEND_API_TIMEOUT_SEC must be > 0")
	}
	if cfg.Session.TTL <= 0 {
		return Config{}, fmt.Errorf("BOOKLEND_SESSION_TTL_HOURS must be > 0")
	}
	if cfg.Session.CheckInterval <= 0 {
		return Config{}, fmt.Errorf("BOOKLEND_SESSION_CHECK_MIN must be > 0")
	}
	switch cfg.Credentials.Backend {
	case "memory":
	case "file":
		if cfg.Credentials.FilePath == "" {
			return Config{}, fmt.Errorf("BOOKLEND_CREDENTIALS_FILE must not be empty")
		}
	case "redis":
		if cfg.Credentials.Redis.Addr == "" {
			return Config{}, fmt.Errorf("BOOKLEND_REDIS_ADDR must not be empty")
		}
	case "postgres":
		if cfg.Credentials.DatabaseURL == "" {
			return Config{}, fmt.Errorf("BOOKLEND_DATABASE_URL must not be empty")
		}
	default:
		return Config{}, fmt.Errorf("unknown credential backend %q", cfg.Credentials.Backend)
	}

	return cfg, nil
}

// deriveBackend picks storage when none is configured explicitly: a
// database URL wins, then redis, then the local file.
func deriveBackend(c CredentialsConfig) string {
	if c.DatabaseURL != "" {
		return "postgres"
	}
	if c.Redis.Addr != "" {
		return "redis"
	}
	return "file"
}

func loadFile(path string) (fileConfig, error) {
	var out fileConfig
	if path == "" {
		return out, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode config file: %w", err)
	}
	return out, nil
}

func fallback(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

func fallbackInt(val, def int) int {
	if val == 0 {
		return def
	}
	return val
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
