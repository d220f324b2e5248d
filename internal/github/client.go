package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/communitypulse/internal/cache"
	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/errors"
)

const (
	perPage = 100

	// maxAttempts bounds retries after a rate-limit response.
	maxAttempts = 3

	// maxRateLimitWait caps a single wait for the primary limit to reset.
	maxRateLimitWait = time.Hour
)

// ErrNotFound is returned for 404 responses: deleted users, private or
// renamed repositories, commits that vanished after a force push.
var ErrNotFound = stderrors.New("github: not found")

// Client wraps the GitHub API client with rate limiting, retries and concurrency
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	maxWorkers  int
	store       cache.Store
	logger      *logrus.Entry

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a GitHub client from configuration. An empty token
// gives anonymous access. store caches user lookups and may be nil.
func NewClient(cfg config.GitHubConfig, store cache.Store, logger *logrus.Logger) (*Client, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if store == nil {
		store = cache.Nop{}
	}

	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, errors.ConfigErrorf("invalid github.base_url %q: %v", cfg.BaseURL, err)
		}
	}

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 8
	}

	return &Client{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		maxWorkers:  maxWorkers,
		store:       store,
		logger:      logger.WithField("component", "github"),
		now:         time.Now,
		sleep:       sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// call runs one API request behind the rate limiter. Primary and secondary
// rate-limit responses are retried after the advertised wait, up to
// maxAttempts attempts in total.
func (c *Client) call(ctx context.Context, op string, fn func() (*github.Response, error)) error {
	for attempt := 1; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		_, err := fn()
		if err == nil {
			return nil
		}

		wait, limited := c.retryAfter(err)
		if !limited || attempt == maxAttempts {
			return classify(op, err)
		}

		c.logger.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"wait":    wait.Round(time.Second),
		}).Warn("GitHub rate limit hit, waiting for reset")

		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (c *Client) retryAfter(err error) (time.Duration, bool) {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		d := rle.Rate.Reset.Time.Sub(c.now()) + time.Second
		if d < time.Second {
			d = time.Second
		}
		return min(d, maxRateLimitWait), true
	}

	var arle *github.AbuseRateLimitError
	if errors.As(err, &arle) {
		d := arle.GetRetryAfter()
		if d <= 0 {
			d = time.Minute
		}
		return d, true
	}
	return 0, false
}

func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return errors.ExternalErrorf(err, "%s", op)
}

// collect follows pagination until the last page, or until more reports
// false for a page.
func collect[T any](ctx context.Context, c *Client, op string,
	list func(opts github.ListOptions) ([]T, *github.Response, error),
	more func(page []T) bool,
) ([]T, error) {
	var all []T
	opts := github.ListOptions{PerPage: perPage}

	for {
		var (
			items []T
			resp  *github.Response
		)
		err := c.call(ctx, op, func() (*github.Response, error) {
			var err error
			items, resp, err = list(opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		all = append(all, items...)

		if resp == nil || resp.NextPage == 0 || (more != nil && !more(items)) {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}
