package github

import (
	"context"
	"sort"
	"sync"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/communitypulse/internal/cache"
	"github.com/rohankatakam/communitypulse/internal/errors"
)

// AccountTypeUser is the account type of people; bots and organizations
// have other types.
const AccountTypeUser = "User"

// UserProfile is everything the snapshot needs about one login. GitHub only
// serves the current state, so profiles describe the time of retrieval.
type UserProfile struct {
	Login      string   `json:"login"`
	Type       string   `json:"type"`
	Location   string   `json:"location,omitempty"`
	Followers  []string `json:"followers"`
	Following  []string `json:"following"`
	OwnedRepos []string `json:"owned_repos"`
}

// IsPerson reports whether the account is a regular user.
func (p *UserProfile) IsPerson() bool {
	return p.Type == AccountTypeUser
}

// FetchUserProfile retrieves (or reads from cache) the profile of login.
func (c *Client) FetchUserProfile(ctx context.Context, login string) (*UserProfile, error) {
	var cached UserProfile
	found, err := c.store.Get(ctx, cache.BucketUsers, login, &cached)
	if err != nil {
		c.logger.WithError(err).WithField("login", login).Warn("user cache read failed")
	}
	if found {
		return &cached, nil
	}

	var user *github.User
	err = c.call(ctx, "fetch user "+login, func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		user, resp, err = c.client.Users.Get(ctx, login)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	p := &UserProfile{
		Login:    user.GetLogin(),
		Type:     user.GetType(),
		Location: user.GetLocation(),
	}

	// relations are only needed for people
	if p.IsPerson() {
		if p.Followers, err = c.fetchUserList(ctx, "fetch followers of "+login, func(lo github.ListOptions) ([]*github.User, *github.Response, error) {
			return c.client.Users.ListFollowers(ctx, login, &lo)
		}); err != nil {
			return nil, err
		}
		if p.Following, err = c.fetchUserList(ctx, "fetch following of "+login, func(lo github.ListOptions) ([]*github.User, *github.Response, error) {
			return c.client.Users.ListFollowing(ctx, login, &lo)
		}); err != nil {
			return nil, err
		}
		if p.OwnedRepos, err = c.fetchOwnedRepos(ctx, login); err != nil {
			return nil, err
		}
	}

	if err := c.store.Set(ctx, cache.BucketUsers, login, p); err != nil {
		c.logger.WithError(err).WithField("login", login).Warn("user cache write failed")
	}
	return p, nil
}

func (c *Client) fetchUserList(ctx context.Context, op string,
	list func(lo github.ListOptions) ([]*github.User, *github.Response, error),
) ([]string, error) {
	users, err := collect(ctx, c, op, list, nil)
	if err != nil {
		return nil, err
	}
	return logins(users), nil
}

func (c *Client) fetchOwnedRepos(ctx context.Context, login string) ([]string, error) {
	opts := &github.RepositoryListOptions{Type: "owner"}
	repos, err := collect(ctx, c, "fetch repositories of "+login, func(lo github.ListOptions) ([]*github.Repository, *github.Response, error) {
		opts.ListOptions = lo
		return c.client.Repositories.List(ctx, login, opts)
	}, nil)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.GetName())
	}
	return names, nil
}

// FetchUserProfiles retrieves the profiles of logins concurrently, at most
// maxWorkers at a time. Logins that no longer exist are left out.
func (c *Client) FetchUserProfiles(ctx context.Context, logins []string) (map[string]*UserProfile, error) {
	var mu sync.Mutex
	profiles := make(map[string]*UserProfile, len(logins))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxWorkers)

	for _, login := range logins {
		g.Go(func() error {
			p, err := c.FetchUserProfile(ctx, login)
			if errors.Is(err, ErrNotFound) {
				c.logger.WithField("login", login).Debug("user not found, skipping")
				return nil
			}
			if err != nil {
				return err
			}

			mu.Lock()
			profiles[login] = p
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// People returns the sorted logins whose profile is a regular user.
func People(profiles map[string]*UserProfile) []string {
	var out []string
	for login, p := range profiles {
		if p.IsPerson() {
			out = append(out, login)
		}
	}
	sort.Strings(out)
	return out
}

// CurrentUser returns the login the token authenticates as, together with
// the remaining core rate limit.
func (c *Client) CurrentUser(ctx context.Context) (login string, remaining int, err error) {
	var user *github.User
	var resp *github.Response
	err = c.call(ctx, "fetch authenticated user", func() (*github.Response, error) {
		var err error
		user, resp, err = c.client.Users.Get(ctx, "")
		return resp, err
	})
	if err != nil {
		return "", 0, err
	}
	return user.GetLogin(), resp.Rate.Remaining, nil
}
