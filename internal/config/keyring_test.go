package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/rohankatakam/communitypulse/internal/errors"
)

// keyring mocks are process-global, so these tests do not run in parallel.

func TestKeyringManagerGitHubToken(t *testing.T) {
	keyring.MockInit()
	km := NewKeyringManager()
	require.True(t, km.IsAvailable())

	token, err := km.GetGitHubToken()
	require.NoError(t, err)
	assert.Empty(t, token)

	assert.Error(t, km.SetGitHubToken(""))
	require.NoError(t, km.SetGitHubToken("ghp_abcdefghijkl"))

	token, err = km.GetGitHubToken()
	require.NoError(t, err)
	assert.Equal(t, "ghp_abcdefghijkl", token)

	require.NoError(t, km.DeleteGitHubToken())
	require.NoError(t, km.DeleteGitHubToken())

	token, err = km.GetGitHubToken()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestKeyringUnavailable(t *testing.T) {
	keyring.MockInitWithError(stderrors.New("no secret service"))
	defer keyring.MockInit()

	km := NewKeyringManager()
	assert.False(t, km.IsAvailable())
	_, err := km.GetGitHubToken()
	assert.Error(t, err)
}

func TestGetTokenSource(t *testing.T) {
	keyring.MockInit()
	clearTokenEnv(t)
	km := NewKeyringManager()

	assert.Equal(t, "none", km.GetTokenSource(Default()).Source)

	cfg := Default()
	cfg.GitHub.Token = "ghp_plaintext"
	info := km.GetTokenSource(cfg)
	assert.Equal(t, "config", info.Source)
	assert.False(t, info.Secure)

	require.NoError(t, km.SetGitHubToken("ghp_keychain"))
	assert.Equal(t, "keychain", km.GetTokenSource(cfg).Source)

	t.Setenv("GH_TOKEN", "ghp_env")
	assert.Equal(t, "env", km.GetTokenSource(cfg).Source)
}

func TestMaskToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(not set)", MaskToken(""))
	assert.Equal(t, "***", MaskToken("short"))
	assert.Equal(t, "ghp_...wxyz", MaskToken("ghp_0123456789wxyz"))
}

func newTestCredentialManager(t *testing.T, mode DeploymentMode, input string) *CredentialManager {
	t.Helper()
	return &CredentialManager{
		mode:      mode,
		keyring:   NewKeyringManager(),
		credsPath: filepath.Join(t.TempDir(), "credentials.yaml"),
		in:        strings.NewReader(input),
		out:       &strings.Builder{},
	}
}

func TestCredentialChain(t *testing.T) {
	keyring.MockInit()
	clearTokenEnv(t)

	cm := newTestCredentialManager(t, ModeCI, "")

	token, err := cm.GetGitHubToken(false)
	require.NoError(t, err)
	assert.Empty(t, token)

	_, err = cm.GetGitHubToken(true)
	assert.ErrorIs(t, err, errors.ConfigError(""))

	require.NoError(t, cm.SaveToken("ghp_stored"))
	token, err = cm.GetGitHubToken(true)
	require.NoError(t, err)
	assert.Equal(t, "ghp_stored", token)

	t.Setenv("GITHUB_TOKEN", "ghp_env")
	token, err = cm.GetGitHubToken(true)
	require.NoError(t, err)
	assert.Equal(t, "ghp_env", token)

	require.NoError(t, cm.DeleteToken())
}

func TestCredentialFileFallback(t *testing.T) {
	keyring.MockInitWithError(stderrors.New("no secret service"))
	defer keyring.MockInit()
	clearTokenEnv(t)

	cm := newTestCredentialManager(t, ModeCI, "")
	require.NoError(t, cm.SaveToken("ghp_file"))

	info, err := os.Stat(cm.CredentialsPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, err := cm.GetGitHubToken(true)
	require.NoError(t, err)
	assert.Equal(t, "ghp_file", token)

	require.NoError(t, cm.DeleteToken())
	_, err = os.Stat(cm.CredentialsPath())
	assert.True(t, os.IsNotExist(err))
}

func TestPromptForTokenPipedInput(t *testing.T) {
	keyring.MockInit()
	clearTokenEnv(t)

	cm := newTestCredentialManager(t, ModeInteractive, "  ghp_typed  \n")
	token, err := cm.PromptForToken()
	require.NoError(t, err)
	assert.Equal(t, "ghp_typed", token)

	stored, err := cm.keyring.GetGitHubToken()
	require.NoError(t, err)
	assert.Equal(t, "ghp_typed", stored)

	cm = newTestCredentialManager(t, ModeInteractive, "\n")
	token, err = cm.PromptForToken()
	require.NoError(t, err)
	assert.Empty(t, token)
}
