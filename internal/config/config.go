package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/communitypulse/internal/pattern"
	"github.com/rohankatakam/communitypulse/internal/window"
)

// EnvPrefix prefixes every environment variable viper binds (CPULSE_GITHUB_TOKEN, ...).
const EnvPrefix = "CPULSE"

// Config holds all configuration settings
type Config struct {
	Window      WindowConfig       `mapstructure:"window" yaml:"window"`
	Thresholds  pattern.Thresholds `mapstructure:"thresholds" yaml:"thresholds"`
	GitHub      GitHubConfig       `mapstructure:"github" yaml:"github"`
	Geocoding   GeocodingConfig    `mapstructure:"geocoding" yaml:"geocoding"`
	Cache       CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Concurrency ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	Output      OutputConfig       `mapstructure:"output" yaml:"output"`
	Logging     LoggingConfig      `mapstructure:"logging" yaml:"logging"`
}

type WindowConfig struct {
	Days       int    `mapstructure:"days" yaml:"days"`
	End        string `mapstructure:"end" yaml:"end"` // YYYY-MM-DD, empty = today
	MinMembers int    `mapstructure:"min_members" yaml:"min_members"`
}

type GitHubConfig struct {
	Token      string `mapstructure:"token" yaml:"token,omitempty"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url,omitempty"` // GitHub Enterprise API root
	RateLimit  int    `mapstructure:"rate_limit" yaml:"rate_limit"`       // Requests per second
	MaxWorkers int    `mapstructure:"max_workers" yaml:"max_workers"`
}

type GeocodingConfig struct {
	// Endpoint is the Nominatim base URL; a trailing "search" path is accepted.
	Endpoint  string        `mapstructure:"endpoint" yaml:"endpoint"`
	RateLimit float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// MaxRequests caps uncached lookups per run, 0 = unlimited. Providers
	// with a daily quota stop the run before it is exceeded.
	MaxRequests int `mapstructure:"max_requests" yaml:"max_requests"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"` // bolt, redis
	Directory     string        `mapstructure:"directory" yaml:"directory"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Disabled      bool          `mapstructure:"disabled" yaml:"disabled"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr,omitempty"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"-"`
}

type ConcurrencyConfig struct {
	Communities int `mapstructure:"communities" yaml:"communities"`
}

type OutputConfig struct {
	Format  string `mapstructure:"format" yaml:"format"` // text, yaml, json
	Results string `mapstructure:"results" yaml:"results"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level" yaml:"level"`
	Directory string `mapstructure:"directory" yaml:"directory"`
	JSON      bool   `mapstructure:"json" yaml:"json"`
}

// HomeDir is ~/.cpulse, the default home of the config file, cache and logs.
func HomeDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".cpulse")
}

// Default returns default configuration
func Default() *Config {
	home := HomeDir()
	return &Config{
		Window: WindowConfig{
			Days:       window.DefaultDays,
			MinMembers: window.DefaultMinMembers,
		},
		Thresholds: pattern.DefaultThresholds(),
		GitHub: GitHubConfig{
			RateLimit:  10, // 10 requests per second
			MaxWorkers: 8,
		},
		Geocoding: GeocodingConfig{
			Endpoint:  "https://nominatim.openstreetmap.org/",
			RateLimit: 1, // Nominatim usage policy
			Timeout:   10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:   "bolt",
			Directory: filepath.Join(home, "cache"),
			TTL:       7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Communities: 2,
		},
		Output: OutputConfig{
			Format:  "text",
			Results: "results.csv",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Directory: filepath.Join(home, "logs"),
		},
	}
}

// Load loads configuration from file, .env files and the environment.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".cpulse")
		v.AddConfigPath(".")
		v.AddConfigPath(HomeDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// setDefaults registers every leaf key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("window.days", cfg.Window.Days)
	v.SetDefault("window.end", cfg.Window.End)
	v.SetDefault("window.min_members", cfg.Window.MinMembers)

	v.SetDefault("thresholds.dispersion_km", cfg.Thresholds.DispersionKm)
	v.SetDefault("thresholds.formality_low", cfg.Thresholds.FormalityLow)
	v.SetDefault("thresholds.formality_high", cfg.Thresholds.FormalityHigh)
	v.SetDefault("thresholds.engagement", cfg.Thresholds.Engagement)
	v.SetDefault("thresholds.longevity_days", cfg.Thresholds.LongevityDays)

	v.SetDefault("github.token", cfg.GitHub.Token)
	v.SetDefault("github.base_url", cfg.GitHub.BaseURL)
	v.SetDefault("github.rate_limit", cfg.GitHub.RateLimit)
	v.SetDefault("github.max_workers", cfg.GitHub.MaxWorkers)

	v.SetDefault("geocoding.endpoint", cfg.Geocoding.Endpoint)
	v.SetDefault("geocoding.rate_limit", cfg.Geocoding.RateLimit)
	v.SetDefault("geocoding.timeout", cfg.Geocoding.Timeout)
	v.SetDefault("geocoding.max_requests", cfg.Geocoding.MaxRequests)

	v.SetDefault("cache.backend", cfg.Cache.Backend)
	v.SetDefault("cache.directory", cfg.Cache.Directory)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.disabled", cfg.Cache.Disabled)
	v.SetDefault("cache.redis_addr", cfg.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", cfg.Cache.RedisPassword)

	v.SetDefault("concurrency.communities", cfg.Concurrency.Communities)

	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.results", cfg.Output.Results)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.directory", cfg.Logging.Directory)
	v.SetDefault("logging.json", cfg.Logging.JSON)
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file) // never overrides variables already set
		}
	}

	homeEnvFile := filepath.Join(HomeDir(), ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies the unprefixed variables people already have set
func applyEnvOverrides(cfg *Config) {
	if cfg.GitHub.Token == "" {
		for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
			if token := os.Getenv(envVar); token != "" {
				cfg.GitHub.Token = token
				break
			}
		}
	}
	if rateLimit := os.Getenv("GITHUB_RATE_LIMIT"); rateLimit != "" {
		if rate, err := strconv.Atoi(rateLimit); err == nil {
			cfg.GitHub.RateLimit = rate
		}
	}
	if dir := os.Getenv("CACHE_DIRECTORY"); dir != "" {
		cfg.Cache.Directory = expandPath(dir)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" && cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" && cfg.Cache.RedisPassword == "" {
		cfg.Cache.RedisPassword = pw
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	cfg.Cache.Directory = expandPath(cfg.Cache.Directory)
	cfg.Logging.Directory = expandPath(cfg.Logging.Directory)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// WindowEnd parses Window.End, falling back to now when unset.
func (c *Config) WindowEnd() (time.Time, error) {
	if c.Window.End == "" {
		return time.Now(), nil
	}
	end, err := time.Parse(time.DateOnly, c.Window.End)
	if err != nil {
		return time.Time{}, fmt.Errorf("window.end %q is not a YYYY-MM-DD date: %w", c.Window.End, err)
	}
	return end, nil
}

// SnapshotWindow returns the configured snapshot window.
func (c *Config) SnapshotWindow() (window.Window, error) {
	end, err := c.WindowEnd()
	if err != nil {
		return window.Window{}, err
	}
	return window.New(end, c.Window.Days), nil
}

// Save writes the configuration as YAML. The GitHub token is never written;
// use the keychain instead.
func (c *Config) Save(path string) error {
	out := *c
	out.GitHub.Token = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
