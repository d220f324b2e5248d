package fileidentity

import (
	"sort"

	"github.com/rohankatakam/communitypulse/internal/models"
)

// Set is a set of committer logins.
type Set map[string]struct{}

// NewSet builds a set from logins.
func NewSet(logins ...string) Set {
	s := make(Set, len(logins))
	for _, l := range logins {
		s[l] = struct{}{}
	}
	return s
}

// Sorted returns the logins in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (s Set) clone() Set {
	c := make(Set, len(s))
	for l := range s {
		c[l] = struct{}{}
	}
	return c
}

// MergeByComponents folds the committer sets of renamed files together.
// For each component the canonical name is the first member that is a key
// of perFile; the other members' sets are unioned into it and their keys
// dropped. Names absent from perFile are ignored. perFile is not modified,
// and merging an already merged map returns an equal map.
func MergeByComponents(perFile map[string]Set, components []Component) map[string]Set {
	merged := make(map[string]Set, len(perFile))
	for name, committers := range perFile {
		merged[name] = committers.clone()
	}

	for _, component := range components {
		canonical := ""
		for _, name := range component {
			if _, ok := merged[name]; ok {
				canonical = name
				break
			}
		}
		if canonical == "" {
			continue
		}

		target := merged[canonical]
		for _, name := range component {
			if name == canonical {
				continue
			}
			committers, ok := merged[name]
			if !ok {
				continue
			}
			for l := range committers {
				target[l] = struct{}{}
			}
			delete(merged, name)
		}
	}

	return merged
}

// CommittersPerFile maps every filename touched by commits to the set of
// member logins that committed to it. Commits without a member committer
// are skipped.
func CommittersPerFile(commits []models.Commit, members map[string]struct{}) map[string]Set {
	perFile := make(map[string]Set)
	for _, c := range commits {
		if _, ok := members[c.CommitterLogin]; !ok {
			continue
		}
		for _, f := range c.Files {
			if f.Filename == "" {
				continue
			}
			set, ok := perFile[f.Filename]
			if !ok {
				set = make(Set)
				perFile[f.Filename] = set
			}
			set[c.CommitterLogin] = struct{}{}
		}
	}
	return perFile
}
