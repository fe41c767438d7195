package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime settings. Values come from the environment, with a
// local .env file loaded first when present.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Geocoder GeocoderConfig
	CORS     CORSConfig
	LogLevel string
}

// MinGeocodeInterval is the shortest tick the geocoding worker accepts.
const MinGeocodeInterval = 100 * time.Millisecond

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the vendor store. When URL is empty the server falls
// back to SnapshotPath.
type DatabaseConfig struct {
	URL          string
	SnapshotPath string
}

type GeocoderConfig struct {
	APIKey      string
	Interval    time.Duration
	BatchSize   int
	Concurrency int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "3003")
	v.SetDefault("READ_TIMEOUT", 15*time.Second)
	v.SetDefault("WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SNAPSHOT_PATH", "")
	v.SetDefault("GOOGLE_MAPS_API_KEY", "")
	v.SetDefault("GEOCODE_INTERVAL", 2*time.Second)
	v.SetDefault("GEOCODE_BATCH_SIZE", 200)
	v.SetDefault("GEOCODE_CONCURRENCY", 50)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("HOST"),
			Port:            v.GetString("PORT"),
			ReadTimeout:     duration(v, "READ_TIMEOUT"),
			WriteTimeout:    duration(v, "WRITE_TIMEOUT"),
			RequestTimeout:  duration(v, "REQUEST_TIMEOUT"),
			ShutdownTimeout: duration(v, "SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL:          v.GetString("DATABASE_URL"),
			SnapshotPath: v.GetString("SNAPSHOT_PATH"),
		},
		Geocoder: GeocoderConfig{
			APIKey:      v.GetString("GOOGLE_MAPS_API_KEY"),
			Interval:    duration(v, "GEOCODE_INTERVAL"),
			BatchSize:   v.GetInt("GEOCODE_BATCH_SIZE"),
			Concurrency: v.GetInt("GEOCODE_CONCURRENCY"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Database.URL == "" && c.Database.SnapshotPath == "" {
		return fmt.Errorf("either DATABASE_URL or SNAPSHOT_PATH must be set")
	}
	if c.Geocoder.BatchSize <= 0 {
		return fmt.Errorf("GEOCODE_BATCH_SIZE must be positive")
	}
	if c.Geocoder.Concurrency <= 0 {
		return fmt.Errorf("GEOCODE_CONCURRENCY must be positive")
	}
	if c.Geocoder.Interval < MinGeocodeInterval {
		return fmt.Errorf("GEOCODE_INTERVAL must be at least %s", MinGeocodeInterval)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.Server.WriteTimeout > 0 && c.Server.RequestTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must be shorter than WRITE_TIMEOUT (%s)", c.Server.RequestTimeout, c.Server.WriteTimeout)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// duration reads a duration setting. A bare integer is taken as seconds, so
// GEOCODE_INTERVAL=5 means 5s rather than 5ns.
func duration(v *viper.Viper, key string) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key))); err == nil {
		return time.Duration(n) * time.Second
	}
	return v.GetDuration(key)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
