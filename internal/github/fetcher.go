package github

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
)

// Repository is the part of the repository metadata the snapshot needs.
type Repository struct {
	FullName  string
	CreatedAt time.Time
	Archived  bool
}

// FetchRepository gets repository metadata. A missing repository yields
// a validation error wrapping ErrNotFound.
func (c *Client) FetchRepository(ctx context.Context, owner, name string) (*Repository, error) {
	var repo *github.Repository
	err := c.call(ctx, "fetch repository", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		repo, resp, err = c.client.Repositories.Get(ctx, owner, name)
		return resp, err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, errors.SeverityHigh,
			fmt.Sprintf("repository %s/%s does not exist or is not accessible", owner, name))
	}
	if err != nil {
		return nil, err
	}

	return &Repository{
		FullName:  repo.GetFullName(),
		CreatedAt: repo.GetCreatedAt().Time,
		Archived:  repo.GetArchived(),
	}, nil
}

// FetchCommits retrieves every commit up to until, newest first. Files are
// not listed; see FetchCommitFiles.
func (c *Client) FetchCommits(ctx context.Context, owner, name string, until time.Time) ([]models.Commit, error) {
	opts := &github.CommitsListOptions{Until: until}

	commits, err := collect(ctx, c, "fetch commits", func(lo github.ListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
		opts.ListOptions = lo
		return c.client.Repositories.ListCommits(ctx, owner, name, opts)
	}, nil)
	if err != nil {
		return nil, err
	}

	out := make([]models.Commit, 0, len(commits))
	for _, rc := range commits {
		out = append(out, toCommit(rc))
	}
	return out, nil
}

func toCommit(rc *github.RepositoryCommit) models.Commit {
	c := models.Commit{
		SHA:            rc.GetSHA(),
		CommitterLogin: rc.GetCommitter().GetLogin(),
		AuthorLogin:    rc.GetAuthor().GetLogin(),
		CommitterDate:  rc.GetCommit().GetCommitter().GetDate().Time,
	}
	if author := rc.GetCommit().GetAuthor(); author != nil && author.Date != nil {
		t := author.Date.Time
		c.AuthorDate = &t
	}
	return c
}

// FetchCommitFiles lists the files changed by one commit, with rename sources.
func (c *Client) FetchCommitFiles(ctx context.Context, owner, name, sha string) ([]models.ChangedFile, error) {
	var rc *github.RepositoryCommit
	err := c.call(ctx, "fetch commit "+sha, func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		rc, resp, err = c.client.Repositories.GetCommit(ctx, owner, name, sha, &github.ListOptions{PerPage: perPage})
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	files := make([]models.ChangedFile, 0, len(rc.Files))
	for _, f := range rc.Files {
		files = append(files, models.ChangedFile{
			Filename:         f.GetFilename(),
			PreviousFilename: f.GetPreviousFilename(),
		})
	}
	return files, nil
}

// FetchPullRequests retrieves pull requests of every state, most recently
// updated first, stopping after the first page that reaches before since.
func (c *Client) FetchPullRequests(ctx context.Context, owner, name string, since time.Time) ([]models.PullRequest, error) {
	opts := &github.PullRequestListOptions{State: "all", Sort: "updated", Direction: "desc"}

	prs, err := collect(ctx, c, "fetch pull requests", func(lo github.ListOptions) ([]*github.PullRequest, *github.Response, error) {
		opts.ListOptions = lo
		return c.client.PullRequests.List(ctx, owner, name, opts)
	}, func(page []*github.PullRequest) bool {
		return len(page) > 0 && !page[len(page)-1].GetUpdatedAt().Time.Before(since)
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, models.PullRequest{
			Number:      pr.GetNumber(),
			AuthorLogin: pr.GetUser().GetLogin(),
			UpdatedAt:   pr.GetUpdatedAt().Time,
			Merged:      pr.MergedAt != nil,
		})
	}
	return out, nil
}

// FetchPullRequestComments retrieves the review comments of the whole
// repository updated since since, grouped by pull request number.
func (c *Client) FetchPullRequestComments(ctx context.Context, owner, name string, since time.Time) (map[int][]models.Comment, error) {
	opts := &github.PullRequestListCommentsOptions{Since: since}

	comments, err := collect(ctx, c, "fetch review comments", func(lo github.ListOptions) ([]*github.PullRequestComment, *github.Response, error) {
		opts.ListOptions = lo
		// number 0 lists the comments of every pull request
		return c.client.PullRequests.ListComments(ctx, owner, name, 0, opts)
	}, nil)
	if err != nil {
		return nil, err
	}

	out := make(map[int][]models.Comment)
	for _, pc := range comments {
		number, err := pullRequestNumber(pc.GetPullRequestURL())
		if err != nil {
			c.logger.WithError(err).WithField("comment", pc.GetID()).Debug("skipping review comment without pull request")
			continue
		}
		out[number] = append(out[number], models.Comment{
			AuthorLogin: pc.GetUser().GetLogin(),
			UpdatedAt:   pc.GetUpdatedAt().Time,
		})
	}
	return out, nil
}

// pullRequestNumber reads the number from ".../pulls/123".
func pullRequestNumber(url string) (int, error) {
	if url == "" {
		return 0, fmt.Errorf("empty pull request url")
	}
	n, err := strconv.Atoi(path.Base(url))
	if err != nil {
		return 0, fmt.Errorf("pull request url %q: %w", url, err)
	}
	return n, nil
}

// FetchCommitComments retrieves the commit comments of the repository.
func (c *Client) FetchCommitComments(ctx context.Context, owner, name string) ([]models.Comment, error) {
	comments, err := collect(ctx, c, "fetch commit comments", func(lo github.ListOptions) ([]*github.RepositoryComment, *github.Response, error) {
		return c.client.Repositories.ListComments(ctx, owner, name, &lo)
	}, nil)
	if err != nil {
		return nil, err
	}

	out := make([]models.Comment, 0, len(comments))
	for _, rc := range comments {
		out = append(out, models.Comment{
			AuthorLogin: rc.GetUser().GetLogin(),
			UpdatedAt:   rc.GetUpdatedAt().Time,
		})
	}
	return out, nil
}

// FetchMilestones retrieves the closed milestones.
func (c *Client) FetchMilestones(ctx context.Context, owner, name string) ([]models.Milestone, error) {
	opts := &github.MilestoneListOptions{State: "closed"}

	milestones, err := collect(ctx, c, "fetch milestones", func(lo github.ListOptions) ([]*github.Milestone, *github.Response, error) {
		opts.ListOptions = lo
		return c.client.Issues.ListMilestones(ctx, owner, name, opts)
	}, nil)
	if err != nil {
		return nil, err
	}

	out := make([]models.Milestone, 0, len(milestones))
	for _, m := range milestones {
		out = append(out, models.Milestone{
			Title:    m.GetTitle(),
			ClosedAt: m.GetClosedAt().Time,
		})
	}
	return out, nil
}

// FetchWatchers retrieves the logins watching the repository.
func (c *Client) FetchWatchers(ctx context.Context, owner, name string) ([]string, error) {
	users, err := collect(ctx, c, "fetch watchers", func(lo github.ListOptions) ([]*github.User, *github.Response, error) {
		return c.client.Activity.ListWatchers(ctx, owner, name, &lo)
	}, nil)
	if err != nil {
		return nil, err
	}
	return logins(users), nil
}

// FetchStargazers retrieves the logins that starred the repository.
func (c *Client) FetchStargazers(ctx context.Context, owner, name string) ([]string, error) {
	stars, err := collect(ctx, c, "fetch stargazers", func(lo github.ListOptions) ([]*github.Stargazer, *github.Response, error) {
		return c.client.Activity.ListStargazers(ctx, owner, name, &lo)
	}, nil)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(stars))
	for _, s := range stars {
		if login := s.GetUser().GetLogin(); login != "" {
			out = append(out, login)
		}
	}
	return out, nil
}

func logins(users []*github.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if login := u.GetLogin(); login != "" {
			out = append(out, login)
		}
	}
	return out
}
