// Package characteristics reduces a community snapshot bundle to the five
// community characteristics. Every sub-computation is a pure function of
// the bundle; Computer runs them concurrently.
package characteristics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
)

// Computer runs the five characteristic computations for one bundle.
type Computer struct {
	logger *slog.Logger
}

// NewComputer creates a computer logging through logger (slog.Default if nil).
func NewComputer(logger *slog.Logger) *Computer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Computer{logger: logger.With("component", "characteristics")}
}

// Compute evaluates Structure, Dispersion, Formality, Engagement and
// Longevity in parallel. The bundle is only read. The first failure aborts
// the snapshot and is returned with the community attached.
func (c *Computer) Compute(ctx context.Context, b *models.Bundle) (*models.Metrics, *models.Characteristics, error) {
	if b == nil {
		return nil, nil, errors.ValidationError("nil bundle")
	}

	start := time.Now()
	community := b.Community.String()

	metrics := &models.Metrics{}
	chars := &models.Characteristics{}

	g, ctx := errgroup.WithContext(ctx)

	run := func(name string, fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			if err := fn(); err != nil {
				c.logger.Debug("characteristic failed", "community", community, "characteristic", name, "error", err)
				return fmt.Errorf("%s: %w", name, err)
			}
			c.logger.Debug("characteristic computed",
				"community", community,
				"characteristic", name,
				"duration_ms", time.Since(t).Milliseconds(),
			)
			return nil
		})
	}

	// each closure writes only its own fields
	run("structure", func() (err error) {
		chars.Structure, metrics.Structure, err = ComputeStructure(b)
		return err
	})
	run("dispersion", func() (err error) {
		chars.Dispersion, metrics.Dispersion, err = ComputeDispersion(b)
		return err
	})
	run("formality", func() (err error) {
		chars.Formality, metrics.Formality, err = ComputeFormality(b)
		return err
	})
	run("engagement", func() (err error) {
		chars.Engagement, metrics.Engagement, err = ComputeEngagement(b)
		return err
	})
	run("longevity", func() (err error) {
		chars.Longevity, metrics.Longevity, err = ComputeLongevity(b)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, errors.ForCommunity(err, community)
	}

	c.logger.Info("characteristics computed",
		"community", community,
		"structure", chars.Structure,
		"dispersion_km", chars.Dispersion,
		"formality", chars.Formality,
		"engagement", chars.Engagement,
		"longevity_days", chars.Longevity,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return metrics, chars, nil
}
