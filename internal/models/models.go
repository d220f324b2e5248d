// Package models holds the community snapshot bundle consumed by the
// characteristic computations and the records they produce.
package models

import (
	"fmt"
	"time"

	"github.com/rohankatakam/communitypulse/internal/geo"
)

// Community identifies one repository analysed as a community.
type Community struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
}

// String returns "owner/name".
func (c Community) String() string {
	return fmt.Sprintf("%s/%s", c.Owner, c.Name)
}

// ChangedFile is one file touched by a commit. PreviousFilename is set when
// the commit renamed the file.
type ChangedFile struct {
	Filename         string `json:"filename"`
	PreviousFilename string `json:"previous_filename,omitempty"`
}

// Commit is a commit as seen by the engine. Logins are empty when GitHub
// could not link the git identity to an account.
type Commit struct {
	SHA            string        `json:"sha"`
	CommitterLogin string        `json:"committer_login,omitempty"`
	AuthorLogin    string        `json:"author_login,omitempty"`
	CommitterDate  time.Time     `json:"committer_date"`
	AuthorDate     *time.Time    `json:"author_date,omitempty"`
	Files          []ChangedFile `json:"files,omitempty"`
}

// PullRequest is a pull request updated inside the snapshot window.
type PullRequest struct {
	Number      int       `json:"number"`
	AuthorLogin string    `json:"author_login"`
	UpdatedAt   time.Time `json:"updated_at"`
	Merged      bool      `json:"merged,omitempty"`
}

// Comment is a pull request review comment or a commit comment.
type Comment struct {
	AuthorLogin string    `json:"author_login"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Milestone is a closed milestone of the repository.
type Milestone struct {
	Title    string    `json:"title,omitempty"`
	ClosedAt time.Time `json:"closed_at"`
}

// Bundle is the pre-filtered data for one community snapshot. Everything
// windowed is already restricted to [WindowEnd−90d, WindowEnd) and every
// user relation is already restricted to Members.
//
// CommitsAllTime holds the history committed by members. CommitsInWindow
// holds every window commit with a linked committer, the set membership was
// extracted from, so a member authoring through a bot committer is still
// seen. Files is nil on window commits whose detail was not retrieved.
type Bundle struct {
	Community Community `json:"community"`
	WindowEnd time.Time `json:"window_end"`

	Members         []string `json:"members"`
	CommitsAllTime  []Commit `json:"commits_all_time"`
	CommitsInWindow []Commit `json:"commits_in_window"`

	PullRequests        []PullRequest     `json:"pull_requests"`
	PullRequestComments map[int][]Comment `json:"pull_request_comments"`
	CommitComments      []Comment         `json:"commit_comments"`

	Milestones []Milestone `json:"milestones"`
	Watchers   []string    `json:"watchers"`
	Stargazers []string    `json:"stargazers"`

	FollowersOf    map[string][]string `json:"followers_of"`
	FollowingOf    map[string][]string `json:"following_of"`
	OwnedRepoNames map[string][]string `json:"owned_repo_names"`

	Coordinates []geo.Coordinate `json:"coordinates"`
}

// MemberSet returns the members as a lookup set.
func (b *Bundle) MemberSet() map[string]struct{} {
	set := make(map[string]struct{}, len(b.Members))
	for _, m := range b.Members {
		set[m] = struct{}{}
	}
	return set
}

// Characteristics are the five summary values of a community snapshot.
type Characteristics struct {
	Structure  bool    `json:"structure" yaml:"structure"`
	Dispersion float64 `json:"dispersion_km" yaml:"dispersion_km"`
	Formality  float64 `json:"formality" yaml:"formality"`
	Engagement float64 `json:"engagement" yaml:"engagement"`
	Longevity  float64 `json:"longevity_days" yaml:"longevity_days"`
}

// Pattern holds the nine community patterns. A community may match several.
type Pattern struct {
	SocialNetwork       bool `json:"social_network" yaml:"social_network"`
	FormalGroup         bool `json:"formal_group" yaml:"formal_group"`
	ProjectTeam         bool `json:"project_team" yaml:"project_team"`
	WorkGroup           bool `json:"work_group" yaml:"work_group"`
	NetworkOfPractice   bool `json:"network_of_practice" yaml:"network_of_practice"`
	InformalCommunity   bool `json:"informal_community" yaml:"informal_community"`
	FormalNetwork       bool `json:"formal_network" yaml:"formal_network"`
	InformalNetwork     bool `json:"informal_network" yaml:"informal_network"`
	CommunityOfPractice bool `json:"community_of_practice" yaml:"community_of_practice"`
}

// PatternNames lists the patterns in report column order.
var PatternNames = []string{
	"SocialNetwork",
	"FormalGroup",
	"ProjectTeam",
	"WorkGroup",
	"NetworkOfPractice",
	"InformalCommunity",
	"FormalNetwork",
	"InformalNetwork",
	"CommunityOfPractice",
}

// Flags returns the nine flags in PatternNames order.
func (p Pattern) Flags() []bool {
	return []bool{
		p.SocialNetwork,
		p.FormalGroup,
		p.ProjectTeam,
		p.WorkGroup,
		p.NetworkOfPractice,
		p.InformalCommunity,
		p.FormalNetwork,
		p.InformalNetwork,
		p.CommunityOfPractice,
	}
}

// Names returns the names of the patterns that hold.
func (p Pattern) Names() []string {
	var names []string
	for i, ok := range p.Flags() {
		if ok {
			names = append(names, PatternNames[i])
		}
	}
	return names
}

// Result is the outcome of analysing one community. Err is set instead of
// the computed records when the community failed.
type Result struct {
	Community       Community        `json:"community" yaml:"community"`
	RunID           string           `json:"run_id" yaml:"run_id"`
	Metrics         *Metrics         `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Characteristics *Characteristics `json:"characteristics,omitempty" yaml:"characteristics,omitempty"`
	Pattern         *Pattern         `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Err             string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the community could not be analysed.
func (r Result) Failed() bool {
	return r.Err != ""
}
