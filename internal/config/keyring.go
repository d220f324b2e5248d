package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "CommunityPulse"

	// KeyringGitHubTokenItem is the key for the GitHub token
	KeyringGitHubTokenItem = "github-token"
)

// KeyringManager handles secure credential storage in OS keychain
type KeyringManager struct {
	logger *slog.Logger
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: slog.Default().With("component", "keyring"),
	}
}

// GetGitHubToken retrieves the GitHub token from the OS keychain. A missing
// entry is not an error.
func (km *KeyringManager) GetGitHubToken() (string, error) {
	token, err := keyring.Get(KeyringService, KeyringGitHubTokenItem)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.Error("failed to get GitHub token from keychain", "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}

	km.logger.Debug("github token retrieved from keychain")
	return token, nil
}

// SetGitHubToken stores the GitHub token in the OS keychain:
// macOS Keychain, Windows Credential Manager or the Linux Secret Service.
func (km *KeyringManager) SetGitHubToken(token string) error {
	if token == "" {
		return fmt.Errorf("github token cannot be empty")
	}

	if err := keyring.Set(KeyringService, KeyringGitHubTokenItem, token); err != nil {
		km.logger.Error("failed to save GitHub token to keychain", "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}

	km.logger.Info("github token saved to keychain", "service", KeyringService)
	return nil
}

// DeleteGitHubToken removes the GitHub token from the OS keychain
func (km *KeyringManager) DeleteGitHubToken() error {
	err := keyring.Delete(KeyringService, KeyringGitHubTokenItem)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		km.logger.Error("failed to delete GitHub token from keychain", "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}

	km.logger.Info("github token deleted from keychain")
	return nil
}

// IsAvailable reports whether the OS keychain can be used.
// Headless CI machines usually have none.
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == keyring.ErrNotFound {
		return true
	}
	if err != nil {
		km.logger.Debug("keychain not available", "error", err)
		return false
	}
	return true
}

// TokenSourceInfo describes where the GitHub token comes from
type TokenSourceInfo struct {
	Source      string // "env", "keychain", "config", "none"
	Secure      bool
	Recommended string
}

// GetTokenSource determines where the GitHub token is coming from
func (km *KeyringManager) GetTokenSource(cfg *Config) TokenSourceInfo {
	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN", EnvPrefix + "_GITHUB_TOKEN"} {
		if os.Getenv(envVar) != "" {
			return TokenSourceInfo{
				Source:      "env",
				Secure:      true,
				Recommended: fmt.Sprintf("Using %s (good for CI)", envVar),
			}
		}
	}

	if token, _ := km.GetGitHubToken(); token != "" {
		return TokenSourceInfo{
			Source:      "keychain",
			Secure:      true,
			Recommended: "Stored securely in OS keychain",
		}
	}

	if cfg != nil && cfg.GitHub.Token != "" {
		return TokenSourceInfo{
			Source:      "config",
			Secure:      false,
			Recommended: "Plaintext token in config file. Run: cpulse auth login",
		}
	}

	return TokenSourceInfo{
		Source:      "none",
		Secure:      false,
		Recommended: "No GitHub token configured. Run: cpulse auth login",
	}
}

// MaskToken masks a token for display: first 4 and last 4 characters.
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", token[:4], token[len(token)-4:])
}
