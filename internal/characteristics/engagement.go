package characteristics

import (
	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/fileidentity"
	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/stats"
	"github.com/rohankatakam/communitypulse/internal/window"
)

const (
	activeMemberDays = 30
	monthDays        = 30
	monthBuckets     = 3
)

// ComputeEngagement is the mean of seven medians describing how actively
// members take part: PR comments, monthly comment volume, recent activity,
// watching, starring, commit spread and file collaboration.
func ComputeEngagement(b *models.Bundle) (float64, models.EngagementMetrics, error) {
	var m models.EngagementMetrics
	var err error

	members := b.MemberSet()
	w := window.New(b.WindowEnd, window.DefaultDays)

	if m.MedianNrPullReqComments, err = medianCommentsPerPullRequest(b.PullRequests, b.PullRequestComments); err != nil {
		return 0, m, err
	}
	if m.MedianMonthlyPullCommitCommentsDistribution, err = medianMonthlyComments(w, b, members); err != nil {
		return 0, m, err
	}
	if m.MedianActiveMember, err = medianActiveMember(w, b.CommitsInWindow, b.Members, members); err != nil {
		return 0, m, err
	}
	if m.MedianWatcher, err = medianContains(b.Watchers, b.Members); err != nil {
		return 0, m, err
	}
	if m.MedianStargazer, err = medianContains(b.Stargazers, b.Members); err != nil {
		return 0, m, err
	}
	if m.MedianCommitDistribution, err = medianCommitDistribution(b.CommitsInWindow, b.Members); err != nil {
		return 0, m, err
	}
	if m.MedianFileCollabDistribution, err = medianFileCollabDistribution(w, b, members); err != nil {
		return 0, m, err
	}

	engagement, err := stats.Mean([]float64{
		m.MedianNrPullReqComments,
		m.MedianMonthlyPullCommitCommentsDistribution,
		m.MedianActiveMember,
		m.MedianWatcher,
		m.MedianStargazer,
		m.MedianCommitDistribution,
		m.MedianFileCollabDistribution,
	})
	return engagement, m, err
}

func medianCommentsPerPullRequest(prs []models.PullRequest, comments map[int][]models.Comment) (float64, error) {
	counts := make([]int, len(prs))
	for i, pr := range prs {
		counts[i] = len(comments[pr.Number])
	}
	return stats.Median(stats.Floats(counts))
}

// medianMonthlyComments averages each member's PR and commit comments over
// the three trailing 30-day buckets of the window.
func medianMonthlyComments(w window.Window, b *models.Bundle, members map[string]struct{}) (float64, error) {
	perMember := make(map[string]*[monthBuckets]int, len(b.Members))
	for _, u := range b.Members {
		perMember[u] = &[monthBuckets]int{}
	}

	count := func(c models.Comment) {
		buckets, ok := perMember[c.AuthorLogin]
		if !ok {
			return
		}
		if i := w.Bucket(c.UpdatedAt, monthDays, monthBuckets); i >= 0 {
			buckets[i]++
		}
	}
	for _, comments := range b.PullRequestComments {
		for _, c := range comments {
			count(c)
		}
	}
	for _, c := range b.CommitComments {
		count(c)
	}

	averages := make([]float64, 0, len(b.Members))
	for _, u := range b.Members {
		total := 0
		for _, n := range perMember[u] {
			total += n
		}
		averages = append(averages, float64(total)/monthBuckets)
	}
	return stats.Median(averages)
}

// medianActiveMember is the median over members of "committed or authored a
// commit in the last 30 days".
func medianActiveMember(w window.Window, commits []models.Commit, memberList []string, members map[string]struct{}) (float64, error) {
	active := make(map[string]struct{})
	for _, c := range commits {
		if !w.Within(c.CommitterDate, activeMemberDays) {
			continue
		}
		for _, login := range []string{c.CommitterLogin, c.AuthorLogin} {
			if _, ok := members[login]; ok {
				active[login] = struct{}{}
			}
		}
	}
	return medianContains(keys(active), memberList)
}

// medianContains is the median of the 0/1 indicator "member is in users".
func medianContains(users []string, members []string) (float64, error) {
	set := window.Set(users)
	flags := make([]bool, len(members))
	for i, m := range members {
		_, flags[i] = set[m]
	}
	return stats.Median(stats.Indicators(flags))
}

// medianCommitDistribution is the median commits per member divided by the
// number of commits in the window.
func medianCommitDistribution(commits []models.Commit, memberList []string) (float64, error) {
	if len(commits) == 0 {
		return 0, errors.DivisionByZeroError("no commits in window")
	}

	perMember := make(map[string]int, len(memberList))
	for _, c := range commits {
		perMember[c.CommitterLogin]++
		if c.AuthorLogin != "" && c.AuthorLogin != c.CommitterLogin {
			perMember[c.AuthorLogin]++
		}
	}

	counts := make([]int, len(memberList))
	for i, u := range memberList {
		counts[i] = perMember[u]
	}

	median, err := stats.Median(stats.Floats(counts))
	if err != nil {
		return 0, err
	}
	return median / float64(len(commits)), nil
}

// medianFileCollabDistribution is the median number of member committers
// per logical file, with renamed files merged, divided by the number of
// logical files. Only window commits whose file list was retrieved count.
func medianFileCollabDistribution(w window.Window, b *models.Bundle, members map[string]struct{}) (float64, error) {
	detailed := w.FilterDetailedCommits(b.CommitsInWindow)

	graph := fileidentity.NewGraph()
	graph.AddEdges(fileidentity.RenamePairs(b.CommitsAllTime))
	graph.AddEdges(fileidentity.RenamePairs(detailed))

	perFile := fileidentity.MergeByComponents(
		fileidentity.CommittersPerFile(detailed, members),
		graph.ConnectedComponents(),
	)
	if len(perFile) == 0 {
		return 0, errors.EmptyInputError("no files touched in window")
	}

	counts := make([]int, 0, len(perFile))
	for _, committers := range perFile {
		counts = append(counts, len(committers))
	}

	median, err := stats.Median(stats.Floats(counts))
	if err != nil {
		return 0, err
	}
	return median / float64(len(perFile)), nil
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
