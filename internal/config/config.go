package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the pawdex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Media      MediaConfig      `yaml:"media"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Duplicates DuplicatesConfig `yaml:"duplicates"`
	Search     SearchConfig     `yaml:"search"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// CacheConfig holds the cache-aside layer settings.
type CacheConfig struct {
	Driver             string `yaml:"driver"` // redis, memory (default: redis)
	ListingTTLSec      int    `yaml:"listing_ttl_sec"`
	ReverseTTLSec      int    `yaml:"reverse_ttl_sec"`
	SlowThresholdMilli int    `yaml:"slow_threshold_ms"`
}

// RenditionTarget holds one rendition's bounding box and encode quality.
type RenditionTarget struct {
	BoxPx   int `yaml:"box_px"`
	Quality int `yaml:"quality"`
}

// MediaConfig holds image pipeline and rendition storage settings.
type MediaConfig struct {
	Dir       string          `yaml:"dir"`
	MinSidePx int             `yaml:"min_side_px"`
	MaxSidePx int             `yaml:"max_side_px"`
	Thumbnail RenditionTarget `yaml:"thumbnail"`
	Medium    RenditionTarget `yaml:"medium"`
	Large     RenditionTarget `yaml:"large"`
}

// SimilarityConfig holds the external similarity service settings.
type SimilarityConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	TimeoutSec    int    `yaml:"timeout_sec"`
	RegisterRetry int    `yaml:"register_retry"`
}

// DuplicatesConfig holds duplicate detection settings.
type DuplicatesConfig struct {
	RadiusMeters float64 `yaml:"radius_meters"`
	WindowHours  int     `yaml:"window_hours"`
	MaxResults   int     `yaml:"max_results"`
	TimeoutSec   int     `yaml:"timeout_sec"`
}

// SearchConfig holds listing and reverse-search pagination settings.
type SearchConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
	ReversePageSize int `yaml:"reverse_page_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "pawdex:"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "redis"
	}
	if c.Cache.ListingTTLSec <= 0 {
		c.Cache.ListingTTLSec = 300
	}
	if c.Cache.ReverseTTLSec <= 0 {
		c.Cache.ReverseTTLSec = 600
	}
	if c.Cache.SlowThresholdMilli <= 0 {
		c.Cache.SlowThresholdMilli = 500
	}
	if c.Media.Dir == "" {
		c.Media.Dir = "media"
	}
	if c.Media.MinSidePx <= 0 {
		c.Media.MinSidePx = 32
	}
	if c.Media.MaxSidePx <= 0 {
		c.Media.MaxSidePx = 4096
	}
	if c.Media.Thumbnail.BoxPx <= 0 {
		c.Media.Thumbnail.BoxPx = 300
	}
	if c.Media.Thumbnail.Quality <= 0 {
		c.Media.Thumbnail.Quality = 70
	}
	if c.Media.Medium.BoxPx <= 0 {
		c.Media.Medium.BoxPx = 800
	}
	if c.Media.Medium.Quality <= 0 {
		c.Media.Medium.Quality = 80
	}
	if c.Media.Large.BoxPx <= 0 {
		c.Media.Large.BoxPx = 1200
	}
	if c.Media.Large.Quality <= 0 {
		c.Media.Large.Quality = 85
	}
	if c.Similarity.TimeoutSec <= 0 {
		c.Similarity.TimeoutSec = 10
	}
	if c.Similarity.RegisterRetry <= 0 {
		c.Similarity.RegisterRetry = 3
	}
	if c.Duplicates.RadiusMeters <= 0 {
		c.Duplicates.RadiusMeters = 100
	}
	if c.Duplicates.WindowHours <= 0 {
		c.Duplicates.WindowHours = 24
	}
	if c.Duplicates.MaxResults <= 0 {
		c.Duplicates.MaxResults = 5
	}
	if c.Duplicates.TimeoutSec <= 0 {
		c.Duplicates.TimeoutSec = 5
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 21
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.ReversePageSize <= 0 {
		c.Search.ReversePageSize = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Cache.Driver {
	case "redis", "memory":
		// ok
	default:
		return fmt.Errorf("cache.driver must be \"redis\" or \"memory\", got %q", c.Cache.Driver)
	}
	if c.Similarity.BaseURL == "" {
		return fmt.Errorf("similarity.base_url is required")
	}
	if c.Media.MinSidePx >= c.Media.MaxSidePx {
		return fmt.Errorf(
			"media.min_side_px (%d) must be smaller than media.max_side_px (%d)",
			c.Media.MinSidePx, c.Media.MaxSidePx,
		)
	}
	for name, t := range map[string]RenditionTarget{
		"thumbnail": c.Media.Thumbnail,
		"medium":    c.Media.Medium,
		"large":     c.Media.Large,
	} {
		if t.Quality < 1 || t.Quality > 100 {
			return fmt.Errorf("media.%s.quality must be between 1 and 100, got %d", name, t.Quality)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
