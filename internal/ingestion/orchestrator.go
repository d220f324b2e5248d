// Package ingestion drives whole runs: it fetches each community's
// snapshot, resolves member locations, computes the characteristics and
// classifies the result.
package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/communitypulse/internal/characteristics"
	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/geocode"
	"github.com/rohankatakam/communitypulse/internal/logging"
	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/pattern"
	"github.com/rohankatakam/communitypulse/internal/window"
)

// BundleSource produces the filtered snapshot of one community together
// with the declared locations of its members.
type BundleSource interface {
	Build(ctx context.Context, community models.Community, w window.Window) (*models.Bundle, []string, error)
}

// Options configure a run.
type Options struct {
	Window      window.Window
	Thresholds  pattern.Thresholds
	Concurrency int
}

// Orchestrator coordinates the analysis of many communities
type Orchestrator struct {
	source      BundleSource
	geocoder    geocode.Geocoder
	computer    *characteristics.Computer
	classifier  *pattern.Classifier
	window      window.Window
	concurrency int
	logger      *logrus.Logger
	geoLog      *slog.Logger
}

// NewOrchestrator creates a new orchestrator. source may be nil when only
// offline bundles are analysed; geocoder may be nil, in which case only
// literal "lat,lon" locations are used.
func NewOrchestrator(source BundleSource, geocoder geocode.Geocoder, opts Options, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Orchestrator{
		source:      source,
		geocoder:    geocoder,
		computer:    characteristics.NewComputer(logging.Default()),
		classifier:  pattern.NewClassifier(opts.Thresholds),
		window:      opts.Window,
		concurrency: opts.Concurrency,
		logger:      logger,
		geoLog:      logging.Component("geocode"),
	}
}

// Window returns the snapshot window of the run.
func (o *Orchestrator) Window() window.Window {
	return o.window
}

// Run analyses every community, at most Concurrency at a time. A failing
// community is recorded in its Result and does not affect the others.
// Results come back in input order.
//
// The run stops early only when the geocoding quota is exhausted or ctx is
// done; the error is returned and communities that were never started carry
// it in their Result.
func (o *Orchestrator) Run(ctx context.Context, communities []models.Community) ([]models.Result, error) {
	runID := uuid.NewString()
	start := time.Now()

	o.logger.WithFields(logrus.Fields{
		"run_id":      runID,
		"communities": len(communities),
		"window":      o.window.String(),
		"concurrency": o.concurrency,
	}).Info("Starting analysis run")

	results := make([]models.Result, len(communities))
	started := make([]bool, len(communities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, community := range communities {
		if gctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			res, err := o.analyzeCommunity(gctx, runID, community)
			results[i] = res
			return err
		})
	}

	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		for i, community := range communities {
			if !started[i] {
				results[i] = o.failed(runID, community, runErr)
			}
		}
	}

	o.summarize(runID, results, time.Since(start))
	return results, runErr
}

// analyzeCommunity returns a non-nil error only when the whole run must stop.
func (o *Orchestrator) analyzeCommunity(ctx context.Context, runID string, community models.Community) (models.Result, error) {
	log := o.logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"community": community.String(),
	})
	log.Debug("Analysing community")

	bundle, err := o.Fetch(ctx, community)
	if err != nil {
		log.WithError(err).Warn("Community failed")
		if errors.Is(err, geocode.ErrQuotaExhausted) {
			return o.failed(runID, community, err), err
		}
		return o.failed(runID, community, err), nil
	}

	res := o.analyze(ctx, runID, bundle)
	if res.Failed() {
		log.WithField("error", res.Err).Warn("Community failed")
	}
	return res, nil
}

// Fetch builds the snapshot of community and fills its coordinates.
func (o *Orchestrator) Fetch(ctx context.Context, community models.Community) (*models.Bundle, error) {
	if o.source == nil {
		return nil, errors.InternalErrorf("no bundle source configured")
	}

	bundle, locations, err := o.source.Build(ctx, community, o.window)
	if err != nil {
		return nil, err
	}

	coords, err := geocode.Resolve(ctx, o.geocoder, locations, o.geoLog.With("community", community.String()))
	if err != nil {
		return nil, err
	}
	bundle.Coordinates = coords

	o.logger.WithFields(logrus.Fields{
		"community":   community.String(),
		"locations":   len(locations),
		"coordinates": len(coords),
	}).Debug("Locations resolved")

	return bundle, nil
}

// Analyze computes and classifies an already fetched bundle under a fresh
// run id.
func (o *Orchestrator) Analyze(ctx context.Context, bundle *models.Bundle) models.Result {
	return o.analyze(ctx, uuid.NewString(), bundle)
}

func (o *Orchestrator) analyze(ctx context.Context, runID string, bundle *models.Bundle) models.Result {
	if bundle == nil {
		return models.Result{RunID: runID, Err: "nil bundle"}
	}

	metrics, chars, err := o.computer.Compute(ctx, bundle)
	if err != nil {
		// Compute already attached the community
		return models.Result{Community: bundle.Community, RunID: runID, Err: err.Error()}
	}

	p := o.classifier.Classify(*chars)
	return models.Result{
		Community:       bundle.Community,
		RunID:           runID,
		Metrics:         metrics,
		Characteristics: chars,
		Pattern:         &p,
	}
}

func (o *Orchestrator) failed(runID string, community models.Community, err error) models.Result {
	return models.Result{
		Community: community,
		RunID:     runID,
		Err:       errors.ForCommunity(err, community.String()).Error(),
	}
}

func (o *Orchestrator) summarize(runID string, results []models.Result, d time.Duration) {
	var failed []string
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r.Community.String())
		}
	}

	entry := o.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"analysed": len(results) - len(failed),
		"failed":   len(failed),
		"duration": d.Round(time.Millisecond).String(),
	})
	if len(failed) > 0 {
		entry.WithField("communities", failed).Warn("Analysis run completed with failures")
		return
	}
	entry.Info("Analysis run completed")
}
