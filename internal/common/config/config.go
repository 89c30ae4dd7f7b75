// Package config provides configuration management for SafeTrail services
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/safetrail/safetrail/internal/risk"
)

// Config holds all configuration for the application
type Config struct {
	// Service identification
	ServiceName string `mapstructure:"service_name"`
	Environment string `mapstructure:"environment"`
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log_level"`

	// Optional Redis used for distributed rate limiting
	RedisURL string `mapstructure:"redis_url"`

	CORSAllowedOrigins string `mapstructure:"cors_allowed_origins"`

	// Rate limiting
	EnableRateLimit   bool `mapstructure:"enable_rate_limit"`
	RateLimitRequests int  `mapstructure:"rate_limit_requests"`
	RateLimitWindow   int  `mapstructure:"rate_limit_window"`

	// Tracing
	TracingEnabled  bool   `mapstructure:"tracing_enabled"`
	TracingEndpoint string `mapstructure:"tracing_endpoint"`

	// Pattern analysis
	DefaultTimeRangeDays int `mapstructure:"default_time_range_days"`

	// Risk zone table and time windows
	Risk RiskConfig `mapstructure:"risk"`
}

// RiskConfig holds the static risk tables loaded at startup
type RiskConfig struct {
	Zones       []risk.Zone      `mapstructure:"zones"`
	TimeProfile risk.TimeProfile `mapstructure:"time_profile"`
}

// Load reads configuration from file and environment variables
func Load(serviceName string) (*Config, error) {
	return LoadFrom(serviceName, "")
}

// LoadFrom is Load with an explicit config file. An empty path searches the
// default locations.
func LoadFrom(serviceName, configFile string) (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v, serviceName)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/safetrail")
	}

	// Read config file (optional when searching)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SAFETRAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.ServiceName = serviceName

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, serviceName string) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	ports := map[string]int{
		"risk-service": 8000,
	}
	if port, ok := ports[serviceName]; ok {
		v.SetDefault("port", port)
	} else {
		v.SetDefault("port", 8080)
	}

	v.SetDefault("redis_url", "")
	v.SetDefault("cors_allowed_origins", "*")

	v.SetDefault("enable_rate_limit", false)
	v.SetDefault("rate_limit_requests", 100)
	v.SetDefault("rate_limit_window", 60)

	v.SetDefault("tracing_enabled", false)
	v.SetDefault("tracing_endpoint", "localhost:4317")

	v.SetDefault("default_time_range_days", 30)

	profile := risk.DefaultTimeProfile()
	v.SetDefault("risk.zones", zoneDefaults(risk.DefaultZones()))
	v.SetDefault("risk.time_profile.night_hours", profile.NightHours)
	v.SetDefault("risk.time_profile.weekend_multiplier", profile.WeekendMultiplier)
	v.SetDefault("risk.time_profile.holiday_multiplier", profile.HolidayMultiplier)
}

// zoneDefaults converts zones to the generic form viper merges with files.
func zoneDefaults(zones []risk.Zone) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(zones))
	for _, z := range zones {
		out = append(out, map[string]interface{}{
			"name":        z.Name,
			"latitude":    z.Latitude,
			"longitude":   z.Longitude,
			"radius":      z.Radius,
			"risk_factor": z.RiskFactor,
		})
	}
	return out
}

func bindEnvVars(v *viper.Viper) {
	envMappings := map[string]string{
		"redis_url":            "REDIS_URL",
		"environment":          "APP_ENV",
		"log_level":            "LOG_LEVEL",
		"port":                 "PORT",
		"tracing_enabled":      "TRACING_ENABLED",
		"tracing_endpoint":     "OTEL_EXPORTER_OTLP_ENDPOINT",
		"cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
	}

	for key, env := range envMappings {
		v.BindEnv(key, env)
	}
}

func validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.EnableRateLimit && (cfg.RateLimitRequests < 1 || cfg.RateLimitWindow < 1) {
		return fmt.Errorf("rate limit requests and window must be positive")
	}
	if cfg.DefaultTimeRangeDays < 1 {
		return fmt.Errorf("default_time_range_days must be positive")
	}
	if _, err := cfg.Registry(); err != nil {
		return fmt.Errorf("invalid risk configuration: %w", err)
	}
	return nil
}

// Registry builds the immutable risk registry described by the config
func (c *Config) Registry() (*risk.Registry, error) {
	return risk.NewRegistry(c.Risk.Zones, c.Risk.TimeProfile)
}

// GetCORSOrigins returns CORS allowed origins as a slice
func (c *Config) GetCORSOrigins() []string {
	if c.CORSAllowedOrigins == "*" {
		return []string{"*"}
	}
	return strings.Split(c.CORSAllowedOrigins, ",")
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
