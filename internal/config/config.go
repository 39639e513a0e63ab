package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Data modes. These mirror the provider package constants; config does not
// import provider to keep the dependency graph acyclic.
const (
	ModeSynthetic = "synthetic"
	ModeFile      = "file"
	ModePostgres  = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	StaticDir string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	PoolMin  int
	PoolMax  int
}

// DataConfig selects and configures the data source.
type DataConfig struct {
	Mode          string
	Dir           string
	Format        string
	Seed          uint64
	Farmers       int
	Crops         int
	Livestock     int
	Aquaculture   int
	MaxAcreage    float64
	LocationsFile string
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("STATIC_DIR", "web/dist")

	v.SetDefault("DATA_MODE", ModeSynthetic)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("DATA_FORMAT", "csv")
	v.SetDefault("DATA_SEED", 0)
	v.SetDefault("DATA_FARMERS", 100)
	v.SetDefault("DATA_CROPS", 150)
	v.SetDefault("DATA_LIVESTOCK", 120)
	v.SetDefault("DATA_AQUACULTURE", 80)
	v.SetDefault("DATA_MAX_ACREAGE", 10.0)
	v.SetDefault("LOCATIONS_FILE", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "agristat")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)

	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetString("PORT"),
			Env:       v.GetString("ENV"),
			LogLevel:  v.GetString("LOG_LEVEL"),
			StaticDir: v.GetString("STATIC_DIR"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		Data: DataConfig{
			Mode:          strings.ToLower(strings.TrimSpace(v.GetString("DATA_MODE"))),
			Dir:           v.GetString("DATA_DIR"),
			Format:        strings.ToLower(strings.TrimSpace(v.GetString("DATA_FORMAT"))),
			Seed:          v.GetUint64("DATA_SEED"),
			Farmers:       v.GetInt("DATA_FARMERS"),
			Crops:         v.GetInt("DATA_CROPS"),
			Livestock:     v.GetInt("DATA_LIVESTOCK"),
			Aquaculture:   v.GetInt("DATA_AQUACULTURE"),
			MaxAcreage:    v.GetFloat64("DATA_MAX_ACREAGE"),
			LocationsFile: v.GetString("LOCATIONS_FILE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
// Database settings are only checked in postgres mode.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if err := c.Data.Validate(); err != nil {
		return err
	}

	if c.Data.Mode == ModePostgres {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// Validate checks the data source settings.
func (d DataConfig) Validate() error {
	switch d.Mode {
	case ModeSynthetic:
		if d.Farmers < 0 || d.Crops < 0 || d.Livestock < 0 || d.Aquaculture < 0 {
			return fmt.Errorf("DATA_FARMERS, DATA_CROPS, DATA_LIVESTOCK and DATA_AQUACULTURE must be non-negative")
		}
		if d.MaxAcreage <= 0 {
			return fmt.Errorf("DATA_MAX_ACREAGE must be positive")
		}
	case ModeFile:
		if d.Dir == "" {
			return fmt.Errorf("DATA_DIR is required in file mode")
		}
		if d.Format != "csv" && d.Format != "xlsx" {
			return fmt.Errorf("DATA_FORMAT must be csv or xlsx, got %q", d.Format)
		}
	case ModePostgres:
	default:
		return fmt.Errorf("DATA_MODE must be one of %s, %s, %s; got %q",
			ModeSynthetic, ModeFile, ModePostgres, d.Mode)
	}
	return nil
}

// Validate checks the postgres connection settings.
func (d DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
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
