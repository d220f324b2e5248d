package fileidentity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/communitypulse/internal/models"
)

func TestConnectedComponentsInsertionOrder(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddEdge("a.go", "b.go")
	g.AddEdge("x.go", "y.go")
	g.AddEdge("b.go", "c.go")
	g.AddEdge("c.go", "a.go") // cycle
	g.AddEdge("a.go", "b.go") // duplicate
	g.AddEdge("z.go", "z.go") // self-loop
	g.AddEdge("", "q.go")

	assert.Equal(t, 5, g.Len())
	assert.Equal(t, []Component{
		{"a.go", "b.go", "c.go"},
		{"x.go", "y.go"},
	}, g.ConnectedComponents())
}

func TestConnectedComponentsResultIsDetached(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddEdge("a", "b")

	first := g.ConnectedComponents()
	first[0][0] = "mutated"

	assert.Equal(t, []Component{{"a", "b"}}, g.ConnectedComponents())
}

func TestMergeRenameChain(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	g.AddEdges([]RenamePair{{Previous: "A", Current: "B"}, {Previous: "B", Current: "C"}})
	components := g.ConnectedComponents()

	perFile := map[string]Set{
		"A": NewSet("x"),
		"B": NewSet("y"),
		"C": NewSet("z"),
	}

	merged := MergeByComponents(perFile, components)
	require.Len(t, merged, 1)
	assert.Equal(t, []string{"x", "y", "z"}, merged["A"].Sorted())

	// input untouched
	assert.Len(t, perFile, 3)
	assert.Equal(t, []string{"x"}, perFile["A"].Sorted())

	// idempotent
	assert.Equal(t, merged, MergeByComponents(merged, components))
}

func TestMergeCanonicalIsFirstPresentName(t *testing.T) {
	t.Parallel()

	components := []Component{{"old/path.go", "mid/path.go", "new/path.go"}}
	perFile := map[string]Set{
		"mid/path.go": NewSet("alice"),
		"new/path.go": NewSet("bob", "alice"),
		"other.go":    NewSet("carol"),
	}

	merged := MergeByComponents(perFile, components)

	assert.Equal(t, map[string]Set{
		"mid/path.go": NewSet("alice", "bob"),
		"other.go":    NewSet("carol"),
	}, merged)
}

func TestMergeIgnoresComponentsWithoutKeys(t *testing.T) {
	t.Parallel()

	merged := MergeByComponents(map[string]Set{"f": NewSet("u")}, []Component{{"g", "h"}})
	assert.Equal(t, map[string]Set{"f": NewSet("u")}, merged)
}

func TestRenamePairsAndCommittersPerFile(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	commits := []models.Commit{
		{
			CommitterLogin: "alice",
			CommitterDate:  now,
			Files: []models.ChangedFile{
				{Filename: "pkg/new.go", PreviousFilename: "pkg/old.go"},
				{Filename: "README.md"},
			},
		},
		{
			CommitterLogin: "bob",
			CommitterDate:  now,
			Files:          []models.ChangedFile{{Filename: "pkg/old.go"}},
		},
		{
			CommitterLogin: "web-flow",
			CommitterDate:  now,
			Files:          []models.ChangedFile{{Filename: "README.md"}},
		},
	}

	assert.Equal(t, []RenamePair{{Previous: "pkg/old.go", Current: "pkg/new.go"}}, RenamePairs(commits))

	members := map[string]struct{}{"alice": {}, "bob": {}}
	perFile := CommittersPerFile(commits, members)
	assert.Equal(t, map[string]Set{
		"pkg/new.go": NewSet("alice"),
		"README.md":  NewSet("alice"),
		"pkg/old.go": NewSet("bob"),
	}, perFile)

	merged := MergeByComponents(perFile, BuildGraph(commits).ConnectedComponents())
	assert.Len(t, merged, 2)
	assert.Equal(t, []string{"alice", "bob"}, merged["pkg/old.go"].Sorted())
}
