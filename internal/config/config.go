package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPageNttID is the FINE board post that carries the current spreadsheet.
const DefaultPageNttID = "63573"

var nttIDPattern = regexp.MustCompile(`^\d{1,10}$`)

// Config holds all configuration for the application
type Config struct {
	PageNttID           string `yaml:"FINE_PAGE_NTT_ID"`
	APIAddr             string `yaml:"API_ADDR"`
	MetricsAddr         string `yaml:"METRICS_ADDR"`
	RefreshCron         string `yaml:"REFRESH_CRON"`
	PortalRatePerSecond int    `yaml:"PORTAL_RATE_PER_SECOND"`
	LogLevel            string `yaml:"LOG_LEVEL"`
}

// LoadConfig reads configuration from the optional YAML file named by
// EFB_CONFIG_FILE and from environment variables (.env file). Environment
// variables win over the file.
func LoadConfig() (*Config, error) {
	// Load .env file. In production, env variables are often set directly.
	_ = godotenv.Load()

	cfg := &Config{
		PageNttID:           DefaultPageNttID,
		APIAddr:             ":8080",
		PortalRatePerSecond: 2,
		LogLevel:            "info",
	}

	if path := getEnv("EFB_CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.PageNttID = getEnv("FINE_PAGE_NTT_ID", cfg.PageNttID)
	cfg.APIAddr = getEnv("API_ADDR", cfg.APIAddr)
	cfg.MetricsAddr = getEnv("METRICS_ADDR", cfg.MetricsAddr)
	cfg.RefreshCron = getEnv("REFRESH_CRON", cfg.RefreshCron)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if v := getEnv("PORTAL_RATE_PER_SECOND", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid PORTAL_RATE_PER_SECOND: %q", v)
		}
		cfg.PortalRatePerSecond = n
	}

	if err := ValidatePageNttID(cfg.PageNttID); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidatePageNttID rejects anything that is not 1-10 ASCII digits, since the
// value is spliced into the portal URL.
func ValidatePageNttID(v string) error {
	if !nttIDPattern.MatchString(v) {
		return fmt.Errorf("invalid FINE_PAGE_NTT_ID: %q (digits only)", v)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Helper function to get env var or return default
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
