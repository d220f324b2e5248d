package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/communitypulse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CommunityPulse configuration",
	Long:  `View, create and validate CommunityPulse configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging the config file, .env files and
CPULSE_* environment variables. The GitHub token is masked.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for an analysis run",
	RunE:  runConfigValidate,
}

var configForce bool

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	printConfig(os.Stdout, cfg)
	return nil
}

func printConfig(w io.Writer, c *config.Config) {
	fmt.Fprintln(w, "📋 CommunityPulse Configuration")
	fmt.Fprintln(w, "══════════════════════════════")

	fmt.Fprintf(w, "\n🗓️  Window:\n")
	fmt.Fprintf(w, "  window.days = %d\n", c.Window.Days)
	if c.Window.End != "" {
		fmt.Fprintf(w, "  window.end = %s\n", c.Window.End)
	} else {
		fmt.Fprintf(w, "  window.end = (today)\n")
	}
	fmt.Fprintf(w, "  window.min_members = %d\n", c.Window.MinMembers)

	fmt.Fprintf(w, "\n📐 Thresholds:\n")
	fmt.Fprintf(w, "  thresholds.dispersion_km = %g\n", c.Thresholds.DispersionKm)
	fmt.Fprintf(w, "  thresholds.formality_low = %g\n", c.Thresholds.FormalityLow)
	fmt.Fprintf(w, "  thresholds.formality_high = %g\n", c.Thresholds.FormalityHigh)
	fmt.Fprintf(w, "  thresholds.engagement = %g\n", c.Thresholds.Engagement)
	fmt.Fprintf(w, "  thresholds.longevity_days = %g\n", c.Thresholds.LongevityDays)

	fmt.Fprintf(w, "\n🐙 GitHub:\n")
	if c.GitHub.Token != "" {
		fmt.Fprintf(w, "  github.token = %s\n", config.MaskToken(c.GitHub.Token))
	} else {
		fmt.Fprintf(w, "  github.token = (not set)\n")
	}
	if c.GitHub.BaseURL != "" {
		fmt.Fprintf(w, "  github.base_url = %s\n", c.GitHub.BaseURL)
	}
	fmt.Fprintf(w, "  github.rate_limit = %d\n", c.GitHub.RateLimit)
	fmt.Fprintf(w, "  github.max_workers = %d\n", c.GitHub.MaxWorkers)

	fmt.Fprintf(w, "\n🌍 Geocoding:\n")
	fmt.Fprintf(w, "  geocoding.endpoint = %s\n", c.Geocoding.Endpoint)
	fmt.Fprintf(w, "  geocoding.rate_limit = %g\n", c.Geocoding.RateLimit)
	fmt.Fprintf(w, "  geocoding.timeout = %s\n", c.Geocoding.Timeout)
	if c.Geocoding.MaxRequests > 0 {
		fmt.Fprintf(w, "  geocoding.max_requests = %d\n", c.Geocoding.MaxRequests)
	}

	fmt.Fprintf(w, "\n🗂️  Cache:\n")
	fmt.Fprintf(w, "  cache.disabled = %v\n", c.Cache.Disabled)
	fmt.Fprintf(w, "  cache.backend = %s\n", c.Cache.Backend)
	if c.Cache.Backend == "redis" {
		fmt.Fprintf(w, "  cache.redis_addr = %s\n", c.Cache.RedisAddr)
	} else {
		fmt.Fprintf(w, "  cache.directory = %s\n", c.Cache.Directory)
	}
	fmt.Fprintf(w, "  cache.ttl = %s\n", c.Cache.TTL)

	fmt.Fprintf(w, "\n⚙️  Run:\n")
	fmt.Fprintf(w, "  concurrency.communities = %d\n", c.Concurrency.Communities)
	fmt.Fprintf(w, "  output.format = %s\n", c.Output.Format)
	fmt.Fprintf(w, "  output.results = %s\n", c.Output.Results)
	fmt.Fprintf(w, "  logging.level = %s\n", c.Logging.Level)
	fmt.Fprintf(w, "  logging.directory = %s\n", c.Logging.Directory)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil && !configForce {
		fmt.Printf("Configuration file already exists at %s\n", configPath)
		fmt.Println("Use --force to overwrite it")
		return nil
	}

	if err := config.Default().Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("✅ Created configuration file: %s\n", configPath)
	fmt.Println("\n💡 Next steps:")
	fmt.Println("  1. Store your GitHub token: cpulse auth login")
	fmt.Println("  2. Adjust window and thresholds in the file if needed")
	fmt.Println("  3. Run: cpulse analyze --input communities.csv")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if err := resolveToken(); err != nil {
		return err
	}

	result := cfg.Validate(config.ValidationContextAll)
	for _, warning := range result.Warnings {
		fmt.Printf("⚠️  %s\n", warning)
	}
	if err := result.Err(); err != nil {
		return err
	}
	fmt.Printf("✅ Configuration is valid (%s mode)\n", config.DetectMode())
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return filepath.Join(config.HomeDir(), "config.yaml")
}
