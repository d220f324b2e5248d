package characteristics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/geo"
	"github.com/rohankatakam/communitypulse/internal/logging"
	"github.com/rohankatakam/communitypulse/internal/models"
)

var windowEnd = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// daysAgo returns noon, n days before the window end.
func daysAgo(n int) time.Time {
	return windowEnd.Add(12*time.Hour).AddDate(0, 0, -n)
}

func commit(sha, committer, author string, at time.Time, files ...models.ChangedFile) models.Commit {
	c := models.Commit{SHA: sha, CommitterLogin: committer, AuthorLogin: author, CommitterDate: at, Files: files}
	if author != "" {
		c.AuthorDate = &at
	}
	return c
}

func file(name string) models.ChangedFile { return models.ChangedFile{Filename: name} }

// fixture is a four member community:
// alice, bob and dave commit in the window, carol only authors.
func fixture() *models.Bundle {
	window := []models.Commit{
		commit("c1", "alice", "alice", daysAgo(5), file("a.go")),
		commit("c2", "bob", "bob", daysAgo(40), file("a.go"), file("b.go")),
		commit("c3", "alice", "carol", daysAgo(70), models.ChangedFile{Filename: "c.go", PreviousFilename: "b.go"}),
		commit("c4", "dave", "dave", daysAgo(10), file("c.go")),
	}
	allTime := append([]models.Commit{
		commit("c0", "alice", "alice", time.Date(2023, 6, 2, 12, 0, 0, 0, time.UTC)),
	}, window...)

	return &models.Bundle{
		Community:       models.Community{Owner: "octo", Name: "hello"},
		WindowEnd:       windowEnd,
		Members:         []string{"alice", "bob", "carol", "dave"},
		CommitsAllTime:  allTime,
		CommitsInWindow: window,
		PullRequests: []models.PullRequest{
			{Number: 1, AuthorLogin: "alice", UpdatedAt: daysAgo(3)},
			{Number: 2, AuthorLogin: "bob", UpdatedAt: daysAgo(50)},
		},
		PullRequestComments: map[int][]models.Comment{
			1: {
				{AuthorLogin: "bob", UpdatedAt: daysAgo(3)},
				{AuthorLogin: "carol", UpdatedAt: daysAgo(45)},
			},
		},
		CommitComments: []models.Comment{{AuthorLogin: "dave", UpdatedAt: daysAgo(80)}},
		Milestones: []models.Milestone{
			{Title: "v1", ClosedAt: daysAgo(20)},
			{Title: "v2", ClosedAt: daysAgo(2)},
		},
		Watchers:       []string{"alice"},
		Stargazers:     []string{"alice", "bob", "carol"},
		FollowersOf:    map[string][]string{"alice": {"bob"}},
		FollowingOf:    map[string][]string{},
		OwnedRepoNames: map[string][]string{"alice": {"tools", "hello"}, "bob": {"hello"}},
		Coordinates: []geo.Coordinate{
			geo.MustCoordinate(0, 0),
			geo.MustCoordinate(0, 1),
			geo.MustCoordinate(1, 0),
		},
	}
}

func TestComputerCompute(t *testing.T) {
	t.Parallel()

	metrics, chars, err := NewComputer(logging.Discard()).Compute(context.Background(), fixture())
	require.NoError(t, err)

	assert.True(t, chars.Structure)
	assert.InDelta(t, 126.2645, chars.Dispersion, 0.001)
	assert.InDelta(t, 315.0, chars.Formality, 1e-9)
	assert.InDelta(t, (1+1.0/3+0.5+0+1+0.25+1.25)/7, chars.Engagement, 1e-9)
	assert.InDelta(t, 90.0, chars.Longevity, 1e-9)

	assert.Equal(t, models.StructureMetrics{
		CommonProjects:           false,
		Followers:                true,
		PullReqInteraction:       true,
		CommonProjectConnections: 0,
		FollowConnections:        1,
		PullReqConnections:       2,
	}, metrics.Structure)

	assert.Equal(t, 1, metrics.Formality.Contributors)
	assert.Equal(t, 3, metrics.Formality.Collaborators)
	assert.InDelta(t, 1.75, metrics.Formality.MeanMembershipType, 1e-9)
	assert.Equal(t, 2, metrics.Formality.Milestones)
	assert.Equal(t, 360, metrics.Formality.Lifetime)

	e := metrics.Engagement
	assert.InDelta(t, 1.0, e.MedianNrPullReqComments, 1e-9)
	assert.InDelta(t, 1.0/3, e.MedianMonthlyPullCommitCommentsDistribution, 1e-9)
	assert.InDelta(t, 0.5, e.MedianActiveMember, 1e-9)
	assert.InDelta(t, 0.0, e.MedianWatcher, 1e-9)
	assert.InDelta(t, 1.0, e.MedianStargazer, 1e-9)
	assert.InDelta(t, 0.25, e.MedianCommitDistribution, 1e-9)
	assert.InDelta(t, 1.25, e.MedianFileCollabDistribution, 1e-9)

	assert.Equal(t, 3, metrics.Dispersion.Coordinates)
	assert.Zero(t, metrics.Dispersion.VincentyFallbacks)
	assert.Greater(t, metrics.Dispersion.VarianceGeographicalDistance, 0.0)
	assert.Equal(t, 4, metrics.Longevity.Committers)
}

func TestComputerAttachesCommunityToErrors(t *testing.T) {
	t.Parallel()

	b := fixture()
	b.Milestones = nil

	_, _, err := NewComputer(nil).Compute(context.Background(), b)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDivisionByZero)
	assert.Contains(t, err.Error(), "octo/hello")
	assert.Contains(t, err.Error(), "formality")
}

func TestComputerHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewComputer(logging.Discard()).Compute(ctx, fixture())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStructureSignals(t *testing.T) {
	t.Parallel()

	base := func() *models.Bundle {
		return &models.Bundle{
			Community: models.Community{Owner: "o", Name: "current"},
			Members:   []string{"alice", "bob", "carol"},
		}
	}

	tests := []struct {
		name   string
		mutate func(b *models.Bundle)
		want   bool
	}{
		{name: "nothing", mutate: func(*models.Bundle) {}, want: false},
		{name: "follower", mutate: func(b *models.Bundle) {
			b.FollowersOf = map[string][]string{"alice": {"bob"}}
		}, want: true},
		{name: "following_non_member", mutate: func(b *models.Bundle) {
			b.FollowingOf = map[string][]string{"alice": {"mallory"}}
		}, want: false},
		{name: "common_project", mutate: func(b *models.Bundle) {
			b.OwnedRepoNames = map[string][]string{"alice": {"dotfiles"}, "carol": {"dotfiles"}}
		}, want: true},
		{name: "only_current_repo_shared", mutate: func(b *models.Bundle) {
			b.OwnedRepoNames = map[string][]string{"alice": {"current"}, "carol": {"current"}}
		}, want: false},
		{name: "pull_request_review", mutate: func(b *models.Bundle) {
			b.PullRequests = []models.PullRequest{{Number: 7, AuthorLogin: "bob"}}
			b.PullRequestComments = map[int][]models.Comment{7: {{AuthorLogin: "carol"}}}
		}, want: true},
		{name: "self_review", mutate: func(b *models.Bundle) {
			b.PullRequests = []models.PullRequest{{Number: 7, AuthorLogin: "bob"}}
			b.PullRequestComments = map[int][]models.Comment{7: {{AuthorLogin: "bob"}}}
		}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := base()
			tt.mutate(b)
			got, _, err := ComputeStructure(b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispersion(t *testing.T) {
	t.Parallel()

	b := &models.Bundle{Coordinates: []geo.Coordinate{geo.MustCoordinate(52.52, 13.405)}}
	_, _, err := ComputeDispersion(b)
	assert.ErrorIs(t, err, errors.ErrEmptyInput)

	// near-antipodal pair: Vincenty does not converge, haversine is used
	a, c := geo.MustCoordinate(0, 0), geo.MustCoordinate(0.5, 179.7)
	b = &models.Bundle{Coordinates: []geo.Coordinate{a, c}}
	got, m, err := ComputeDispersion(b)
	require.NoError(t, err)
	assert.Equal(t, 1, m.VincentyFallbacks)
	assert.InDelta(t, geo.SphericalDistance(a, c)/1000, got, 1e-9)
	assert.InDelta(t, 0.0, m.VarianceGeographicalDistance, 1e-9)
}

func TestFormalityErrors(t *testing.T) {
	t.Parallel()

	b := fixture()
	b.Milestones = nil
	_, _, err := ComputeFormality(b)
	assert.ErrorIs(t, err, errors.ErrDivisionByZero)

	b = fixture()
	b.Members = append(b.Members, "erin")
	_, _, err = ComputeFormality(b)
	assert.ErrorIs(t, err, errors.ErrMembershipIntegrity)

	b = fixture()
	b.CommitsAllTime = []models.Commit{commit("x", "alice", "", daysAgo(5)), commit("y", "bob", "", daysAgo(5))}
	_, _, err = ComputeFormality(b)
	assert.ErrorIs(t, err, errors.ErrDivisionByZero)
}

func TestWindowCommitsWithoutDetailOrMemberCommitter(t *testing.T) {
	t.Parallel()

	// erin only authors through a bot; bob's latest commit lost its file list
	b := fixture()
	b.Members = append(b.Members, "erin")
	b.CommitsInWindow = append(b.CommitsInWindow,
		commit("c5", "ci[bot]", "erin", daysAgo(8)),
		commit("c6", "bob", "bob", daysAgo(9)),
	)

	_, fm, err := ComputeFormality(b)
	require.NoError(t, err)
	assert.Equal(t, 2, fm.Contributors)
	assert.Equal(t, 3, fm.Collaborators)

	_, em, err := ComputeEngagement(b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, em.MedianActiveMember, 1e-9)
	assert.InDelta(t, 1.25, em.MedianFileCollabDistribution, 1e-9, "commits without files are ignored")
}

func TestLongevityScenario(t *testing.T) {
	t.Parallel()

	day0 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	b := &models.Bundle{
		Members: []string{"alice", "bob", "carol"},
		CommitsAllTime: []models.Commit{
			{CommitterLogin: "alice", CommitterDate: day0},
			{CommitterLogin: "alice", CommitterDate: day0.AddDate(0, 0, 10)},
			{CommitterLogin: "bob", CommitterDate: day0.AddDate(0, 0, 5)},
		},
	}

	got, m, err := ComputeLongevity(b)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got, 1e-9)
	assert.Equal(t, 2, m.Committers)

	b.CommitsAllTime = nil
	_, _, err = ComputeLongevity(b)
	assert.ErrorIs(t, err, errors.ErrEmptyInput)
}

func TestEngagementEmptyPullRequests(t *testing.T) {
	t.Parallel()

	b := fixture()
	b.PullRequests = nil

	_, _, err := ComputeEngagement(b)
	assert.ErrorIs(t, err, errors.ErrEmptyInput)
}

func TestMedianContainsIndicators(t *testing.T) {
	t.Parallel()

	members := []string{"a", "b", "c", "d"}

	got, err := medianContains([]string{"a"}, members)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = medianContains([]string{"a", "b"}, members)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)
}
