package characteristics

import (
	"time"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/stats"
	"github.com/rohankatakam/communitypulse/internal/window"
)

// ComputeLongevity is the mean, over members with at least one commit in
// the whole history, of the days between their first and last commit.
// A commit counts for its committer and, if different, its author; both are
// dated by the committer date. Members without commits are left out.
func ComputeLongevity(b *models.Bundle) (float64, models.LongevityMetrics, error) {
	var m models.LongevityMetrics
	members := b.MemberSet()

	type span struct{ first, last time.Time }
	spans := make(map[string]*span)

	record := func(login string, at time.Time) {
		if _, ok := members[login]; !ok {
			return
		}
		s, ok := spans[login]
		if !ok {
			spans[login] = &span{first: at, last: at}
			return
		}
		if at.Before(s.first) {
			s.first = at
		}
		if at.After(s.last) {
			s.last = at
		}
	}

	for _, c := range b.CommitsAllTime {
		record(c.CommitterLogin, c.CommitterDate)
		if c.AuthorLogin != c.CommitterLogin {
			record(c.AuthorLogin, c.CommitterDate)
		}
	}

	if len(spans) == 0 {
		return 0, m, errors.EmptyInputError("no member has a commit")
	}

	days := make([]int, 0, len(spans))
	for _, s := range spans {
		days = append(days, window.DaysBetween(s.first, s.last))
	}

	mean, err := stats.Mean(stats.Floats(days))
	if err != nil {
		return 0, m, err
	}
	m.MeanCommitterLongevity = mean
	m.Committers = len(spans)
	return mean, m, nil
}
