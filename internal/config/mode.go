package config

import (
	"os"
	"strings"
)

// DeploymentMode represents the context cpulse runs in
type DeploymentMode string

const (
	// ModeInteractive is a person at a terminal: prompts and the keychain are allowed.
	ModeInteractive DeploymentMode = "interactive"

	// ModeCI is a pipeline run: credentials come from the environment only,
	// nothing prompts and validation is strict.
	ModeCI DeploymentMode = "ci"
)

// DetectMode determines the deployment context based on environment
func DetectMode() DeploymentMode {
	if mode := os.Getenv(EnvPrefix + "_MODE"); mode != "" {
		switch strings.ToLower(mode) {
		case "ci", "cicd", "batch":
			return ModeCI
		case "interactive", "local", "dev":
			return ModeInteractive
		}
	}

	if isCI() {
		return ModeCI
	}
	return ModeInteractive
}

// isCI detects if running in a CI/CD environment
func isCI() bool {
	ciEnvVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"JENKINS_URL",
		"BUILDKITE",
		"TF_BUILD", // Azure Pipelines
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}
	return false
}

func (m DeploymentMode) String() string {
	return string(m)
}

// AllowsInteractivePrompts returns true if cpulse may ask for input
func (m DeploymentMode) AllowsInteractivePrompts() bool {
	return m == ModeInteractive
}

// RequiresStrictValidation turns validation warnings about missing
// credentials into errors.
func (m DeploymentMode) RequiresStrictValidation() bool {
	return m == ModeCI
}

// Description returns a human-readable description of the mode
func (m DeploymentMode) Description() string {
	switch m {
	case ModeInteractive:
		return "Interactive terminal session"
	case ModeCI:
		return "CI/CD pipeline"
	default:
		return "Unknown mode"
	}
}
