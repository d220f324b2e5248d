package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rohankatakam/communitypulse/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextFetch - fetch talks to GitHub and the geocoder
	ValidationContextFetch ValidationContext = "fetch"
	// ValidationContextCompute - compute and classify only need the window and thresholds
	ValidationContextCompute ValidationContext = "compute"
	// ValidationContextAll - analyze does both
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ! %s\n", warn))
		}
	}

	return sb.String()
}

// Err converts a failed result into a config error, nil otherwise.
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigError(strings.TrimSpace(vr.Error()))
}

// Validate validates configuration for the given context with auto-detected mode
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	return c.ValidateWithMode(ctx, DetectMode())
}

// ValidateWithMode validates configuration for the given context and deployment mode
func (c *Config) ValidateWithMode(ctx ValidationContext, mode DeploymentMode) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextFetch:
		c.validateWindow(result)
		c.validateGitHub(result, mode)
		c.validateGeocoding(result)
		c.validateCache(result)
		c.validateConcurrency(result)
	case ValidationContextCompute:
		c.validateWindow(result)
		c.validateThresholds(result)
	case ValidationContextAll:
		c.validateWindow(result)
		c.validateThresholds(result)
		c.validateGitHub(result, mode)
		c.validateGeocoding(result)
		c.validateCache(result)
		c.validateConcurrency(result)
		c.validateOutput(result)
	}

	return result
}

func (c *Config) validateWindow(result *ValidationResult) {
	if c.Window.Days <= 0 {
		result.AddError("window.days must be positive, got %d", c.Window.Days)
	}
	if c.Window.MinMembers < 0 {
		result.AddError("window.min_members must not be negative, got %d", c.Window.MinMembers)
	}
	if c.Window.End != "" {
		end, err := time.Parse(time.DateOnly, c.Window.End)
		if err != nil {
			result.AddError("window.end %q is not a YYYY-MM-DD date", c.Window.End)
		} else if end.After(time.Now()) {
			result.AddWarning("window.end %s is in the future", c.Window.End)
		}
	}
}

func (c *Config) validateThresholds(result *ValidationResult) {
	if err := c.Thresholds.Validate(); err != nil {
		result.AddError("thresholds: %v", err)
	}
}

func (c *Config) validateGitHub(result *ValidationResult, mode DeploymentMode) {
	if c.GitHub.Token == "" {
		if mode.RequiresStrictValidation() {
			result.AddError("GITHUB_TOKEN is required in %s mode (%s)", mode, mode.Description())
		} else {
			result.AddWarning("GITHUB_TOKEN is not set, anonymous requests are limited to 60 per hour")
		}
	}
	if c.GitHub.BaseURL != "" {
		if u, err := url.Parse(c.GitHub.BaseURL); err != nil || u.Scheme == "" {
			result.AddError("github.base_url %q is not an absolute URL", c.GitHub.BaseURL)
		}
	}
	if c.GitHub.RateLimit <= 0 {
		result.AddError("github.rate_limit must be positive, got %d", c.GitHub.RateLimit)
	}
	if c.GitHub.MaxWorkers <= 0 {
		result.AddError("github.max_workers must be positive, got %d", c.GitHub.MaxWorkers)
	}
}

func (c *Config) validateGeocoding(result *ValidationResult) {
	if c.Geocoding.Endpoint == "" {
		result.AddWarning("geocoding.endpoint is not set, only literal coordinates in member locations will be used")
	} else if u, err := url.Parse(c.Geocoding.Endpoint); err != nil || u.Scheme == "" {
		result.AddError("geocoding.endpoint %q is not an absolute URL", c.Geocoding.Endpoint)
	}
	if c.Geocoding.MaxRequests < 0 {
		result.AddError("geocoding.max_requests must not be negative, got %d", c.Geocoding.MaxRequests)
	}
	if c.Geocoding.RateLimit <= 0 {
		result.AddError("geocoding.rate_limit must be positive, got %v", c.Geocoding.RateLimit)
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if c.Cache.Disabled {
		return
	}
	switch c.Cache.Backend {
	case "", "bolt":
		if c.Cache.Directory == "" {
			result.AddWarning("cache.directory is not set, caching disabled")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			result.AddError("cache.redis_addr is required for the redis cache backend")
		}
	default:
		result.AddError("cache.backend must be bolt or redis; got %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		result.AddError("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
}

func (c *Config) validateConcurrency(result *ValidationResult) {
	if c.Concurrency.Communities <= 0 {
		result.AddError("concurrency.communities must be positive, got %d", c.Concurrency.Communities)
	}
}

func (c *Config) validateOutput(result *ValidationResult) {
	switch c.Output.Format {
	case "text", "yaml", "json":
	default:
		result.AddError("output.format must be one of text, yaml, json; got %q", c.Output.Format)
	}
}
