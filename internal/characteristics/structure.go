package characteristics

import (
	"github.com/rohankatakam/communitypulse/internal/models"
)

// ComputeStructure reports whether members are connected at all. It is the
// OR of three signals: two members own a repository with the same name,
// a member follows or is followed by another member, or a member commented
// on another member's pull request.
func ComputeStructure(b *models.Bundle) (bool, models.StructureMetrics, error) {
	members := b.MemberSet()

	var m models.StructureMetrics

	m.CommonProjectConnections = commonProjectConnections(b.Members, b.OwnedRepoNames, b.Community.Name)
	m.CommonProjects = m.CommonProjectConnections > 0

	m.FollowConnections = followConnections(members, b.FollowersOf, b.FollowingOf)
	m.Followers = m.FollowConnections > 0

	m.PullReqConnections = pullReqConnections(members, b.PullRequests, b.PullRequestComments)
	m.PullReqInteraction = m.PullReqConnections > 0

	return m.CommonProjects || m.Followers || m.PullReqInteraction, m, nil
}

// commonProjectConnections counts unordered member pairs sharing an owned
// repository name other than the analysed one.
func commonProjectConnections(members []string, owned map[string][]string, current string) int {
	sets := make([]map[string]struct{}, len(members))
	for i, u := range members {
		sets[i] = make(map[string]struct{})
		for _, name := range owned[u] {
			if name != current {
				sets[i][name] = struct{}{}
			}
		}
	}

	count := 0
	for i := range members {
		for j := i + 1; j < len(members); j++ {
			if members[i] == members[j] {
				continue
			}
			if intersects(sets[i], sets[j]) {
				count++
			}
		}
	}
	return count
}

func intersects(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// followConnections counts unordered member pairs linked by a follow in
// either direction.
func followConnections(members map[string]struct{}, followers, following map[string][]string) int {
	pairs := make(map[[2]string]struct{})
	add := func(u string, others []string) {
		if _, ok := members[u]; !ok {
			return
		}
		for _, v := range others {
			if _, ok := members[v]; !ok || v == u {
				continue
			}
			pairs[pairKey(u, v)] = struct{}{}
		}
	}

	for u, others := range followers {
		add(u, others)
	}
	for u, others := range following {
		add(u, others)
	}
	return len(pairs)
}

// pullReqConnections counts unordered member pairs where one commented on
// the other's pull request.
func pullReqConnections(members map[string]struct{}, prs []models.PullRequest, comments map[int][]models.Comment) int {
	pairs := make(map[[2]string]struct{})
	for _, pr := range prs {
		if _, ok := members[pr.AuthorLogin]; !ok {
			continue
		}
		for _, c := range comments[pr.Number] {
			if _, ok := members[c.AuthorLogin]; !ok || c.AuthorLogin == pr.AuthorLogin {
				continue
			}
			pairs[pairKey(pr.AuthorLogin, c.AuthorLogin)] = struct{}{}
		}
	}
	return len(pairs)
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
