package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultNamespace     = "ptm"
	DefaultCapacityBytes = 5 * 1024 * 1024
	DefaultSaveDebounce  = 300
	DefaultTickInterval  = 1000
	DefaultJWTSecret     = "change-this-secret"
)

type Config struct {
	Port           string   `yaml:"port" mapstructure:"port"`
	DBPath         string   `yaml:"db_path" mapstructure:"db_path"`
	Namespace      string   `yaml:"namespace" mapstructure:"namespace"`
	CapacityBytes  int      `yaml:"capacity_bytes" mapstructure:"capacity_bytes"`
	SaveDebounceMS int      `yaml:"save_debounce_ms" mapstructure:"save_debounce_ms"`
	TickIntervalMS int      `yaml:"tick_interval_ms" mapstructure:"tick_interval_ms"`
	Version        string   `yaml:"version" mapstructure:"version"`
	AuthEnabled    bool     `yaml:"auth_enabled" mapstructure:"auth_enabled"`
	JWTSecret      string   `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTLHours  int      `yaml:"token_ttl_hours" mapstructure:"token_ttl_hours"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

func Default() Config {
	return Config{
		Port:           "8080",
		DBPath:         "./data/ptm.db",
		Namespace:      DefaultNamespace,
		CapacityBytes:  DefaultCapacityBytes,
		SaveDebounceMS: DefaultSaveDebounce,
		TickIntervalMS: DefaultTickInterval,
		Version:        "1.0.0",
		JWTSecret:      DefaultJWTSecret,
		TokenTTLHours:  72,
		CORSOrigins:    []string{"http://localhost:5173", "http://127.0.0.1:5173"},
	}
}

// Load starts from the defaults, applies the YAML file named by PTM_CONFIG
// (or ~/.ptm/config.yaml when present) and then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	path, explicit := FilePath()
	if path != "" {
		err := LoadFile(path, &cfg)
		if err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// FilePath reports the config file location and whether it was set
// explicitly through PTM_CONFIG.
func FilePath() (string, bool) {
	if path := os.Getenv("PTM_CONFIG"); path != "" {
		return path, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".ptm", "config.yaml"), false
}

// LoadFile merges the YAML file at path over cfg.
func LoadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.Namespace = getEnv("STORAGE_NAMESPACE", cfg.Namespace)
	cfg.CapacityBytes = getEnvInt("STORAGE_CAPACITY_BYTES", cfg.CapacityBytes)
	cfg.SaveDebounceMS = getEnvInt("SAVE_DEBOUNCE_MS", cfg.SaveDebounceMS)
	cfg.TickIntervalMS = getEnvInt("TICK_INTERVAL_MS", cfg.TickIntervalMS)
	cfg.Version = getEnv("APP_VERSION", cfg.Version)
	cfg.AuthEnabled = getEnvBool("AUTH_ENABLED", cfg.AuthEnabled)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTLHours = getEnvInt("TOKEN_TTL_HOURS", cfg.TokenTTLHours)
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)
}

// ValidateServer rejects settings the HTTP server must not run with.
func (c Config) ValidateServer() error {
	if c.AuthEnabled && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return errors.New("auth is enabled but JWT_SECRET is unset or the default")
	}
	return nil
}

func (c Config) SaveDelay() time.Duration {
	return time.Duration(c.SaveDebounceMS) * time.Millisecond
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
