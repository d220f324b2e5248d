package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/communitypulse/internal/cache"
	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/geocode"
	"github.com/rohankatakam/communitypulse/internal/github"
	"github.com/rohankatakam/communitypulse/internal/ingestion"
	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/output"
)

// signalContext is cancelled on Ctrl-C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// parseCommunity parses "owner/name", tolerating a github.com URL prefix
// and a trailing .git.
func parseCommunity(s string) (models.Community, error) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"https://", "http://", "github.com/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")

	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return models.Community{}, fmt.Errorf("invalid community %q, expected OWNER/REPO", s)
	}
	return models.Community{Owner: parts[0], Name: parts[1]}, nil
}

// applyWindowEnd overrides window.end when the flag is set.
func applyWindowEnd(windowEnd string) {
	if windowEnd != "" {
		cfg.Window.End = windowEnd
	}
}

// resolveToken fills the GitHub token from the credential chain
// (environment, keychain, credentials file, prompt) when config has none.
func resolveToken() error {
	if cfg.GitHub.Token != "" {
		return nil
	}
	token, err := config.NewCredentialManager().GetGitHubToken(false)
	if err != nil {
		return err
	}
	cfg.GitHub.Token = token
	return nil
}

// pipeline holds the collaborators of an online run.
type pipeline struct {
	store        cache.Store
	orchestrator *ingestion.Orchestrator
}

func (p *pipeline) Close() {
	if err := p.store.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close cache")
	}
}

// newPipeline validates the configuration for ctxName and wires the GitHub
// client, geocoder and cache into an orchestrator.
func newPipeline(ctx context.Context, ctxName config.ValidationContext) (*pipeline, error) {
	if err := resolveToken(); err != nil {
		return nil, err
	}

	result := cfg.Validate(ctxName)
	for _, warning := range result.Warnings {
		logger.Warn(warning)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	w, err := cfg.SnapshotWindow()
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	client, err := github.NewClient(cfg.GitHub, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	geocoder := geocode.NewCachedGeocoder(geocode.NewNominatimGeocoder(cfg.Geocoding), store)

	orch := ingestion.NewOrchestrator(
		github.NewSnapshotBuilder(client, cfg.Window.MinMembers),
		geocoder,
		ingestion.Options{
			Window:      w,
			Thresholds:  cfg.Thresholds,
			Concurrency: cfg.Concurrency.Communities,
		},
		logger,
	)

	logger.WithFields(logrus.Fields{
		"window":  w.String(),
		"cache":   cfg.Cache.Backend,
		"workers": cfg.GitHub.MaxWorkers,
	}).Debug("Pipeline ready")

	return &pipeline{store: store, orchestrator: orch}, nil
}

// consoleFormat picks the --format flag, then the hook/agent default from
// the environment, then output.format.
func consoleFormat(flag string) string {
	if flag != "" {
		return flag
	}
	if def := output.DefaultFormat(); def != output.FormatText {
		return def
	}
	return cfg.Output.Format
}
