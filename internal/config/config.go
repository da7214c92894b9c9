package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	OSM      OSMConfig
	Climate  ClimateConfig
	Cache    CacheConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	PoolMin     int
	PoolMax     int
	AutoMigrate bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// OSMConfig holds settings for the Overpass map-feature provider.
type OSMConfig struct {
	OverpassURL string
	Timeout     time.Duration
	RatePerSec  float64
}

// ClimateConfig holds settings for the live and historical weather providers.
type ClimateConfig struct {
	OpenWeatherAPIKey  string
	OpenWeatherURL     string
	OpenWeatherTimeout time.Duration
	NASAPowerURL       string
	NASAPowerTimeout   time.Duration
	RetryAttempts      int
}

// CacheConfig holds the optional Redis cache used for provider responses.
// An empty RedisAddr disables caching.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ClimateTTL    time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables.
// A .env file in the working directory (or the path in ENV_FILE) is loaded
// first when present; real environment variables always win.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "siteanalysis")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter")
	v.SetDefault("OVERPASS_TIMEOUT", "60s")
	v.SetDefault("OVERPASS_RATE_PER_SEC", 1.0)
	v.SetDefault("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("OPENWEATHER_TIMEOUT", "10s")
	v.SetDefault("NASA_POWER_URL", "https://power.larc.nasa.gov/api/temporal/daily/point")
	v.SetDefault("NASA_POWER_TIMEOUT", "30s")
	v.SetDefault("CLIMATE_RETRY_ATTEMPTS", 2)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CLIMATE_CACHE_TTL", "6h")
	v.SetDefault("METRICS_ENABLED", true)

	// Bind environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			PoolMin:     v.GetInt("DB_POOL_MIN"),
			PoolMax:     v.GetInt("DB_POOL_MAX"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		OSM: OSMConfig{
			OverpassURL: v.GetString("OVERPASS_URL"),
			Timeout:     v.GetDuration("OVERPASS_TIMEOUT"),
			RatePerSec:  v.GetFloat64("OVERPASS_RATE_PER_SEC"),
		},
		Climate: ClimateConfig{
			OpenWeatherAPIKey:  v.GetString("OPENWEATHER_API_KEY"),
			OpenWeatherURL:     v.GetString("OPENWEATHER_URL"),
			OpenWeatherTimeout: v.GetDuration("OPENWEATHER_TIMEOUT"),
			NASAPowerURL:       v.GetString("NASA_POWER_URL"),
			NASAPowerTimeout:   v.GetDuration("NASA_POWER_TIMEOUT"),
			RetryAttempts:      v.GetInt("CLIMATE_RETRY_ATTEMPTS"),
		},
		Cache: CacheConfig{
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			ClimateTTL:    v.GetDuration("CLIMATE_CACHE_TTL"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.OSM.OverpassURL == "" {
		return fmt.Errorf("OVERPASS_URL is required")
	}
	if c.OSM.Timeout <= 0 {
		return fmt.Errorf("OVERPASS_TIMEOUT must be positive")
	}
	if c.OSM.RatePerSec <= 0 {
		return fmt.Errorf("OVERPASS_RATE_PER_SEC must be positive")
	}

	if c.Climate.OpenWeatherURL == "" {
		return fmt.Errorf("OPENWEATHER_URL is required")
	}
	if c.Climate.NASAPowerURL == "" {
		return fmt.Errorf("NASA_POWER_URL is required")
	}
	if c.Climate.OpenWeatherTimeout <= 0 || c.Climate.NASAPowerTimeout <= 0 {
		return fmt.Errorf("climate provider timeouts must be positive")
	}
	if c.Climate.RetryAttempts < 1 {
		return fmt.Errorf("CLIMATE_RETRY_ATTEMPTS must be at least 1")
	}

	if c.Cache.RedisAddr != "" && c.Cache.ClimateTTL <= 0 {
		return fmt.Errorf("CLIMATE_CACHE_TTL must be positive when REDIS_ADDR is set")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// loadDotEnv loads variables from a dotenv file without overriding the process
// environment. A missing file is not an error; an unreadable or malformed
// one is.
func loadDotEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
