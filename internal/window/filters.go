package window

import (
	"sort"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
)

// DefaultMinMembers is the smallest community the engine analyses.
const DefaultMinMembers = 10

// Set builds a lookup set from logins, dropping empty names.
func Set(logins []string) map[string]struct{} {
	set := make(map[string]struct{}, len(logins))
	for _, l := range logins {
		if l != "" {
			set[l] = struct{}{}
		}
	}
	return set
}

// FilterCommits keeps commits committed inside the window by a linked account.
func (w Window) FilterCommits(commits []models.Commit) []models.Commit {
	var out []models.Commit
	for _, c := range commits {
		if c.CommitterLogin != "" && w.Contains(c.CommitterDate) {
			out = append(out, c)
		}
	}
	return out
}

// FilterDetailedCommits is FilterCommits restricted to commits whose
// changed-file list was retrieved.
func (w Window) FilterDetailedCommits(commits []models.Commit) []models.Commit {
	var out []models.Commit
	for _, c := range w.FilterCommits(commits) {
		if c.Files != nil {
			out = append(out, c)
		}
	}
	return out
}

// FilterAllCommits keeps commits, from any date, whose committer is a member.
func FilterAllCommits(commits []models.Commit, members map[string]struct{}) []models.Commit {
	var out []models.Commit
	for _, c := range commits {
		if _, ok := members[c.CommitterLogin]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ExtractMembers returns the sorted logins active in the window: every
// committer of a window commit, plus its author when the author date also
// falls in the window. windowCommits must come from FilterCommits.
func (w Window) ExtractMembers(windowCommits []models.Commit) []string {
	set := make(map[string]struct{})
	for _, c := range windowCommits {
		if c.CommitterLogin != "" {
			set[c.CommitterLogin] = struct{}{}
		}
		if c.AuthorLogin != "" && c.AuthorDate != nil && w.Contains(*c.AuthorDate) {
			set[c.AuthorLogin] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// FilterPullRequests keeps pull requests updated in the window by a member.
func (w Window) FilterPullRequests(prs []models.PullRequest, members map[string]struct{}) []models.PullRequest {
	var out []models.PullRequest
	for _, pr := range prs {
		if _, ok := members[pr.AuthorLogin]; ok && w.Contains(pr.UpdatedAt) {
			out = append(out, pr)
		}
	}
	return out
}

// FilterComments keeps comments written in the window by a member.
func (w Window) FilterComments(comments []models.Comment, members map[string]struct{}) []models.Comment {
	var out []models.Comment
	for _, c := range comments {
		if _, ok := members[c.AuthorLogin]; ok && w.Contains(c.UpdatedAt) {
			out = append(out, c)
		}
	}
	return out
}

// FilterMilestones keeps milestones closed before the window end.
func (w Window) FilterMilestones(milestones []models.Milestone) []models.Milestone {
	var out []models.Milestone
	for _, m := range milestones {
		if !m.ClosedAt.IsZero() && m.ClosedAt.Before(w.End) {
			out = append(out, m)
		}
	}
	return out
}

// RestrictUsers returns the sorted, de-duplicated logins that are members.
func RestrictUsers(logins []string, members map[string]struct{}) []string {
	set := make(map[string]struct{})
	for _, l := range logins {
		if _, ok := members[l]; ok {
			set[l] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// RepoNamesExcluding returns the sorted, de-duplicated repository names
// other than current.
func RepoNamesExcluding(names []string, current string) []string {
	set := make(map[string]struct{})
	for _, n := range names {
		if n != "" && n != current {
			set[n] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// ValidateMembers fails when a community has fewer than minMembers members.
func ValidateMembers(members []string, minMembers int) error {
	if len(members) < minMembers {
		return errors.ValidationErrorf("community has %d members, at least %d required", len(members), minMembers).
			WithContext("members", len(members))
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
