package github

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/window"
)

// SnapshotBuilder retrieves one community and applies the window and
// membership filters, so the bundle it returns is ready for computation.
type SnapshotBuilder struct {
	client     *Client
	minMembers int
	logger     *logrus.Entry
}

// NewSnapshotBuilder creates a builder that rejects communities with fewer
// than minMembers members.
func NewSnapshotBuilder(client *Client, minMembers int) *SnapshotBuilder {
	return &SnapshotBuilder{
		client:     client,
		minMembers: minMembers,
		logger:     client.logger.WithField("stage", "snapshot"),
	}
}

// Build retrieves the bundle of community for w. The second result holds
// the declared profile locations of the members, for geocoding; the
// bundle's Coordinates are left empty.
func (b *SnapshotBuilder) Build(ctx context.Context, community models.Community, w window.Window) (*models.Bundle, []string, error) {
	owner, name := community.Owner, community.Name
	log := b.logger.WithFields(logrus.Fields{
		"community": community.String(),
		"window":    w.String(),
	})
	start := time.Now()

	repo, err := b.client.FetchRepository(ctx, owner, name)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("created_at", repo.CreatedAt.Format(time.DateOnly)).Debug("repository found")

	allCommits, err := b.client.FetchCommits(ctx, owner, name, w.End)
	if err != nil {
		return nil, nil, err
	}

	// Members: active accounts in the window that are people.
	candidates := w.ExtractMembers(w.FilterCommits(allCommits))
	profiles, err := b.client.FetchUserProfiles(ctx, candidates)
	if err != nil {
		return nil, nil, err
	}
	members := People(profiles)
	if len(members) < len(candidates) {
		log.WithFields(logrus.Fields{
			"candidates": len(candidates),
			"members":    len(members),
		}).Debug("dropped bots, organizations and deleted accounts")
	}
	if err := window.ValidateMembers(members, b.minMembers); err != nil {
		return nil, nil, err
	}
	memberSet := window.Set(members)

	commitsAllTime := window.FilterAllCommits(allCommits, memberSet)
	windowCommits := w.FilterCommits(allCommits)
	if err := b.attachFiles(ctx, owner, name, windowCommits, memberSet); err != nil {
		return nil, nil, err
	}

	var (
		prs            []models.PullRequest
		prComments     map[int][]models.Comment
		commitComments []models.Comment
		milestones     []models.Milestone
		watchers       []string
		stargazers     []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		prs, err = b.client.FetchPullRequests(gctx, owner, name, w.Start())
		return err
	})
	g.Go(func() (err error) {
		prComments, err = b.client.FetchPullRequestComments(gctx, owner, name, w.Start())
		return err
	})
	g.Go(func() (err error) {
		commitComments, err = b.client.FetchCommitComments(gctx, owner, name)
		return err
	})
	g.Go(func() (err error) {
		milestones, err = b.client.FetchMilestones(gctx, owner, name)
		return err
	})
	g.Go(func() (err error) {
		watchers, err = b.client.FetchWatchers(gctx, owner, name)
		return err
	})
	g.Go(func() (err error) {
		stargazers, err = b.client.FetchStargazers(gctx, owner, name)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	bundle := &models.Bundle{
		Community:       community,
		WindowEnd:       w.End,
		Members:         members,
		CommitsAllTime:  commitsAllTime,
		CommitsInWindow: windowCommits,
		PullRequests:    w.FilterPullRequests(prs, memberSet),
		CommitComments:  w.FilterComments(commitComments, memberSet),
		Milestones:      w.FilterMilestones(milestones),
		Watchers:        window.RestrictUsers(watchers, memberSet),
		Stargazers:      window.RestrictUsers(stargazers, memberSet),
		FollowersOf:     make(map[string][]string, len(members)),
		FollowingOf:     make(map[string][]string, len(members)),
		OwnedRepoNames:  make(map[string][]string, len(members)),
	}

	bundle.PullRequestComments = make(map[int][]models.Comment, len(bundle.PullRequests))
	for _, pr := range bundle.PullRequests {
		if cs := w.FilterComments(prComments[pr.Number], memberSet); len(cs) > 0 {
			bundle.PullRequestComments[pr.Number] = cs
		}
	}

	var locations []string
	for _, m := range members {
		p := profiles[m]
		bundle.FollowersOf[m] = window.RestrictUsers(p.Followers, memberSet)
		bundle.FollowingOf[m] = window.RestrictUsers(p.Following, memberSet)
		bundle.OwnedRepoNames[m] = window.RepoNamesExcluding(p.OwnedRepos, name)
		if p.Location != "" {
			locations = append(locations, p.Location)
		}
	}

	log.WithFields(logrus.Fields{
		"members":        len(members),
		"commits":        len(bundle.CommitsAllTime),
		"window_commits": len(bundle.CommitsInWindow),
		"pull_requests":  len(bundle.PullRequests),
		"locations":      len(locations),
		"duration":       time.Since(start).Round(time.Millisecond),
	}).Info("snapshot retrieved")

	return bundle, locations, nil
}

// attachFiles fills Files, in place, of the commits committed by a member;
// only those feed file collaboration. Commits whose detail is gone (404)
// keep nil Files.
func (b *SnapshotBuilder) attachFiles(ctx context.Context, owner, name string, commits []models.Commit, members map[string]struct{}) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.client.maxWorkers)

	for i := range commits {
		if _, ok := members[commits[i].CommitterLogin]; !ok {
			continue
		}
		g.Go(func() error {
			files, err := b.client.FetchCommitFiles(ctx, owner, name, commits[i].SHA)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			commits[i].Files = files
			return nil
		})
	}
	return g.Wait()
}
