package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIBaseURL is the remote API used when none is configured.
const DefaultAPIBaseURL = "http://localhost:5220/api"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	API       APIConfig       `yaml:"api"`
	DB        DBConfig        `yaml:"db"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Log       LogConfig       `yaml:"log"`
	Profile   string          `yaml:"profile"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportConfig selects how MCP clients connect: "stdio" or "http".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// AuthConfig controls the bearer token gate in HTTP mode.
type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
	Burst     int           `yaml:"burst"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// CalendarConfig bounds the progress grid.
type CalendarConfig struct {
	MaxDays           int    `yaml:"max_days"`
	LookupConcurrency int    `yaml:"lookup_concurrency"`
	WeekAlignment     string `yaml:"week_alignment"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		API: APIConfig{
			BaseURL:   DefaultAPIBaseURL,
			Timeout:   15 * time.Second,
			RateLimit: 20,
			Burst:     10,
		},
		DB: DBConfig{
			Path: "challengr.db",
		},
		Calendar: CalendarConfig{
			MaxDays:           42,
			LookupConcurrency: 8,
			WeekAlignment:     "epoch",
		},
		Log: LogConfig{
			Level: "info",
		},
		Profile: "default",
	}
}

// Load reads configuration from an optional .env file, an optional YAML file and
// environment variables, in that order of increasing precedence.
func Load() (Config, error) {
	if err := loadDotEnv(os.Getenv("CHALLENGR_ENV_FILE")); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if path := os.Getenv("CHALLENGR_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.Calendar.WeekAlignment {
	case "epoch", "year":
	default:
		return fmt.Errorf("invalid week alignment %q", c.Calendar.WeekAlignment)
	}
	if c.Calendar.MaxDays < 1 {
		return fmt.Errorf("calendar max_days must be positive, got %d", c.Calendar.MaxDays)
	}
	if c.Calendar.LookupConcurrency < 1 {
		return fmt.Errorf("calendar lookup_concurrency must be positive, got %d", c.Calendar.LookupConcurrency)
	}
	if c.API.BaseURL == "" {
		return errors.New("api base_url is required")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("CHALLENGR_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CHALLENGR_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CHALLENGR_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("CHALLENGR_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("CHALLENGR_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid CHALLENGR_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if baseURL := os.Getenv("CHALLENGR_API_BASE_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if timeout := os.Getenv("CHALLENGR_API_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid CHALLENGR_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}
	if rateStr := os.Getenv("CHALLENGR_API_RATE_LIMIT"); rateStr != "" {
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			return fmt.Errorf("invalid CHALLENGR_API_RATE_LIMIT: %w", err)
		}
		cfg.API.RateLimit = rate
	}
	if dbPath := os.Getenv("CHALLENGR_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if maxDays := os.Getenv("CHALLENGR_CALENDAR_MAX_DAYS"); maxDays != "" {
		n, err := strconv.Atoi(maxDays)
		if err != nil {
			return fmt.Errorf("invalid CHALLENGR_CALENDAR_MAX_DAYS: %w", err)
		}
		cfg.Calendar.MaxDays = n
	}
	if align := os.Getenv("CHALLENGR_WEEK_ALIGNMENT"); align != "" {
		cfg.Calendar.WeekAlignment = align
	}
	if level := os.Getenv("CHALLENGR_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if profile := os.Getenv("CHALLENGR_PROFILE"); profile != "" {
		cfg.Profile = profile
	}
	return nil
}

// loadDotEnv loads path (".env" when empty) into the process environment.
// A missing file is not an error; variables already set are kept.
func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
