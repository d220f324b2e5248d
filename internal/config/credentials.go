package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/communitypulse/internal/errors"
)

// CredentialManager resolves the GitHub token.
// Priority: Environment Variables → Keychain → Credentials File → Interactive Prompt
type CredentialManager struct {
	mode      DeploymentMode
	keyring   *KeyringManager
	credsPath string

	// prompt input/output, stdin/stdout by default
	in  io.Reader
	out io.Writer
}

// Credentials is the on-disk fallback when no keychain exists
type Credentials struct {
	GitHubToken string `yaml:"github_token"`
}

// NewCredentialManager creates a new credential manager
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{
		mode:      DetectMode(),
		keyring:   NewKeyringManager(),
		credsPath: filepath.Join(HomeDir(), "credentials.yaml"),
		in:        os.Stdin,
		out:       os.Stdout,
	}
}

// GetGitHubToken retrieves the GitHub token using the priority chain.
// Anonymous access works for public repositories, so a missing token is
// only an error when interactive prompts are not allowed and required is set.
func (cm *CredentialManager) GetGitHubToken(required bool) (string, error) {
	// 1. Environment variable (highest priority)
	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN", EnvPrefix + "_GITHUB_TOKEN"} {
		if token := os.Getenv(envVar); token != "" {
			return token, nil
		}
	}

	// 2. Keychain
	if cm.keyring.IsAvailable() {
		if token, err := cm.keyring.GetGitHubToken(); err == nil && token != "" {
			return token, nil
		}
	}

	// 3. Credentials file
	if creds, err := cm.loadCredentialsFile(); err == nil && creds.GitHubToken != "" {
		return creds.GitHubToken, nil
	}

	// 4. Interactive prompt
	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		return cm.PromptForToken()
	}

	if required {
		return "", errors.ConfigErrorf(
			"GitHub token not found. Set it via:\n"+
				"  1. Environment variable: export GITHUB_TOKEN=ghp_...\n"+
				"  2. Run: cpulse auth login\n"+
				"  3. Credentials file: %s", cm.credsPath)
	}
	return "", nil
}

// PromptForToken asks for a token without echoing and stores it.
func (cm *CredentialManager) PromptForToken() (string, error) {
	fmt.Fprintln(cm.out, "\nGitHub token not found.")
	fmt.Fprintln(cm.out, "   Without one the API allows 60 requests per hour.")
	fmt.Fprintln(cm.out, "   Create one at: https://github.com/settings/tokens")
	fmt.Fprint(cm.out, "\nEnter GitHub token (or press Enter to skip): ")

	token, err := cm.readSecurely()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityMedium, "failed to read GitHub token")
	}
	if token == "" {
		return "", nil
	}

	if err := cm.SaveToken(token); err != nil {
		return "", err
	}
	return token, nil
}

// SaveToken saves the token to the keychain (preferred) or the credentials file (fallback)
func (cm *CredentialManager) SaveToken(token string) error {
	if cm.keyring.IsAvailable() {
		if err := cm.keyring.SetGitHubToken(token); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				"failed to save GitHub token to keychain")
		}
		return nil
	}
	return cm.saveCredentialsFile(Credentials{GitHubToken: token})
}

// DeleteToken removes the token from both the keychain and the credentials file.
func (cm *CredentialManager) DeleteToken() error {
	if cm.keyring.IsAvailable() {
		if err := cm.keyring.DeleteGitHubToken(); err != nil {
			return err
		}
	}
	if err := os.Remove(cm.credsPath); err != nil && !os.IsNotExist(err) {
		return errors.FileSystemErrorf(err, "failed to remove %s", cm.credsPath)
	}
	return nil
}

func (cm *CredentialManager) loadCredentialsFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.credsPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (cm *CredentialManager) saveCredentialsFile(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(cm.credsPath), 0700); err != nil {
		return errors.FileSystemErrorf(err, "failed to create %s", filepath.Dir(cm.credsPath))
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, errors.SeverityMedium, "failed to marshal credentials")
	}

	// user-only read/write
	if err := os.WriteFile(cm.credsPath, data, 0600); err != nil {
		return errors.FileSystemErrorf(err, "failed to write %s", cm.credsPath)
	}
	return nil
}

// readSecurely reads a token from the terminal without echoing, or a line from piped input.
func (cm *CredentialManager) readSecurely() (string, error) {
	if f, ok := cm.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cm.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	line, err := bufio.NewReader(cm.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// isInteractive returns true if stdin is a terminal (not piped)
func isInteractive() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// GetMode returns the current deployment mode
func (cm *CredentialManager) GetMode() DeploymentMode {
	return cm.mode
}

// CredentialsPath returns the path of the credentials file fallback
func (cm *CredentialManager) CredentialsPath() string {
	return cm.credsPath
}
