package characteristics

import (
	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/window"
)

// Membership weights: a collaborator can commit, a contributor only authors.
const (
	contributorWeight  = 1
	collaboratorWeight = 2
)

// ComputeFormality divides the mean membership type by the milestone rate
// (closed milestones per day of project lifetime).
func ComputeFormality(b *models.Bundle) (float64, models.FormalityMetrics, error) {
	var m models.FormalityMetrics

	contributors, collaborators := membershipTypes(b.CommitsInWindow, b.MemberSet())
	m.Contributors = contributors
	m.Collaborators = collaborators

	if contributors+collaborators != len(b.Members) {
		return 0, m, errors.MembershipIntegrityErrorf(
			"%d contributors + %d collaborators != %d members", contributors, collaborators, len(b.Members))
	}
	if len(b.Members) == 0 {
		return 0, m, errors.EmptyInputError("members")
	}

	m.MeanMembershipType = float64(contributors*contributorWeight+collaborators*collaboratorWeight) /
		float64(len(b.Members))

	m.Milestones = len(b.Milestones)
	if m.Milestones == 0 {
		return 0, m, errors.DivisionByZeroError("no closed milestones")
	}

	lifetime, err := projectLifetimeInDays(b.CommitsAllTime)
	if err != nil {
		return 0, m, err
	}
	m.Lifetime = lifetime
	if m.Lifetime == 0 {
		return 0, m, errors.DivisionByZeroError("project lifetime is zero days")
	}

	milestoneRate := float64(m.Milestones) / float64(m.Lifetime)
	return m.MeanMembershipType / milestoneRate, m, nil
}

// membershipTypes splits the member logins seen on window commits into
// collaborators (committed) and contributors (authored but never committed).
func membershipTypes(commits []models.Commit, members map[string]struct{}) (contributors, collaborators int) {
	committers := make(map[string]struct{})
	authors := make(map[string]struct{})

	for _, c := range commits {
		if _, ok := members[c.CommitterLogin]; ok {
			committers[c.CommitterLogin] = struct{}{}
		}
		if _, ok := members[c.AuthorLogin]; ok {
			authors[c.AuthorLogin] = struct{}{}
		}
	}

	for a := range authors {
		if _, ok := committers[a]; !ok {
			contributors++
		}
	}
	return contributors, len(committers)
}

// projectLifetimeInDays is the span between the first and last committer
// date of the history.
func projectLifetimeInDays(commits []models.Commit) (int, error) {
	if len(commits) == 0 {
		return 0, errors.EmptyInputError("project lifetime needs at least one commit")
	}

	first, last := commits[0].CommitterDate, commits[0].CommitterDate
	for _, c := range commits[1:] {
		if c.CommitterDate.Before(first) {
			first = c.CommitterDate
		}
		if c.CommitterDate.After(last) {
			last = c.CommitterDate
		}
	}
	return window.DaysBetween(first, last), nil
}
