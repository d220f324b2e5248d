package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/communitypulse/internal/cache"
	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/github"
)

const tokenSettingsURL = "https://github.com/settings/tokens"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the GitHub token",
	Long: `Store, inspect and remove the GitHub token used for retrieval.

The token is kept in the OS keychain when one is available and in
~/.cpulse/credentials.yaml otherwise. GITHUB_TOKEN, GH_TOKEN and
CPULSE_GITHUB_TOKEN take precedence over both.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitHub token",
	Long: `Prompt for a GitHub personal access token, verify it and store it.

A classic token without scopes is enough for public repositories.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored GitHub token",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the GitHub token comes from and the cache state",
	RunE:  runAuthStatus,
}

var authOpen bool

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)

	authLoginCmd.Flags().BoolVar(&authOpen, "open", false, "open the GitHub token settings page in a browser")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("GitHub authentication")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if authOpen {
		fmt.Printf("🔐 Opening %s...\n", tokenSettingsURL)
		if err := browser.OpenURL(tokenSettingsURL); err != nil {
			fmt.Printf("⚠️  Could not open browser automatically. Please visit the URL above.\n")
		}
	}

	cm := config.NewCredentialManager()
	token, err := cm.PromptForToken()
	if err != nil {
		return err
	}
	if token == "" {
		fmt.Println("No token entered, nothing stored")
		return nil
	}

	login, remaining, err := verifyToken(token)
	if err != nil {
		fmt.Printf("⚠️  Token stored but could not be verified: %v\n", err)
		return nil
	}

	fmt.Println()
	fmt.Printf("✓ Authenticated as %s (%d requests left this hour)\n", login, remaining)
	if km := config.NewKeyringManager(); km.IsAvailable() {
		fmt.Println("→ Token stored in the OS keychain")
	} else {
		fmt.Printf("→ Token stored in %s\n", cm.CredentialsPath())
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	if err := config.NewCredentialManager().DeleteToken(); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	fmt.Println("✓ Stored GitHub token removed")
	if src := config.NewKeyringManager().GetTokenSource(cfg); src.Source == "env" || src.Source == "config" {
		fmt.Printf("⚠️  A token is still set: %s\n", src.Recommended)
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	fmt.Printf("🔍 CommunityPulse Status\n")
	fmt.Printf("══════════════════════════════════════════════════\n")

	mode := config.DetectMode()
	fmt.Printf("\n📋 Mode: %s (%s)\n", mode, mode.Description())

	km := config.NewKeyringManager()
	src := km.GetTokenSource(cfg)

	fmt.Printf("\n🐙 GitHub token:\n")
	fmt.Printf("  Source: %s\n", src.Source)
	if src.Secure {
		fmt.Println("  Security: ✅ Secure")
	} else {
		fmt.Println("  Security: ⚠️  " + src.Recommended)
	}

	token := cfg.GitHub.Token
	if token == "" {
		token, _ = km.GetGitHubToken()
	}
	if token != "" {
		fmt.Printf("  Token: %s\n", config.MaskToken(token))
		if login, remaining, err := verifyToken(token); err != nil {
			fmt.Printf("  Status: ❌ %v\n", err)
		} else {
			fmt.Printf("  Status: ✅ %s, %d requests left\n", login, remaining)
		}
	}

	fmt.Printf("\n🗂️  Cache:\n")
	printCacheStatus()
	return nil
}

func verifyToken(token string) (string, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ghCfg := cfg.GitHub
	ghCfg.Token = token
	client, err := github.NewClient(ghCfg, nil, logger)
	if err != nil {
		return "", 0, err
	}
	return client.CurrentUser(ctx)
}

func printCacheStatus() {
	if cfg.Cache.Disabled {
		fmt.Println("  Status: disabled")
		return
	}
	if cfg.Cache.Backend == "redis" {
		fmt.Printf("  Backend: redis at %s\n", cfg.Cache.RedisAddr)
		return
	}

	store, err := cache.OpenBolt(cfg.Cache.Directory, cfg.Cache.TTL)
	if err != nil {
		fmt.Printf("  Status: ❌ %v\n", err)
		return
	}
	defer store.Close()

	fmt.Printf("  Path: %s\n", store.Path())
	stats, err := store.Stats()
	if err != nil {
		fmt.Printf("  Status: ❌ %v\n", err)
		return
	}
	for _, bucket := range []string{cache.BucketUsers, cache.BucketGeocode} {
		fmt.Printf("  %s: %d entries\n", bucket, stats[bucket])
	}
}
