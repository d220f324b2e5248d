// Package fileidentity links filenames that were renamed across a commit
// history so that committers to the old and new names count toward one
// logical file.
package fileidentity

import (
	"github.com/rohankatakam/communitypulse/internal/models"
)

// RenamePair is one observed rename, Previous -> Current.
type RenamePair struct {
	Previous string
	Current  string
}

// Component is a maximal set of filenames linked by renames, in the order
// the names were first added to the graph.
type Component []string

// Graph is an undirected rename graph backed by union-find. Vertices keep
// their insertion order so components come out deterministically.
type Graph struct {
	names  []string
	index  map[string]int
	parent []int
	rank   []int
}

// NewGraph creates an empty rename graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddEdge links a and b. Self-loops and empty names are ignored; repeated
// edges are harmless.
func (g *Graph) AddEdge(a, b string) {
	if a == "" || b == "" || a == b {
		return
	}
	g.union(g.vertex(a), g.vertex(b))
}

// AddEdges adds one edge per rename pair.
func (g *Graph) AddEdges(pairs []RenamePair) {
	for _, p := range pairs {
		g.AddEdge(p.Previous, p.Current)
	}
}

// Len returns the number of distinct filenames in the graph.
func (g *Graph) Len() int {
	return len(g.names)
}

// ConnectedComponents returns the components ordered by their first-inserted
// member. The returned slices are fresh and may be modified by the caller.
func (g *Graph) ConnectedComponents() []Component {
	byRoot := make(map[int]int)
	var components []Component

	for i, name := range g.names {
		root := g.find(i)
		pos, ok := byRoot[root]
		if !ok {
			pos = len(components)
			byRoot[root] = pos
			components = append(components, nil)
		}
		components[pos] = append(components[pos], name)
	}

	return components
}

func (g *Graph) vertex(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.names)
	g.names = append(g.names, name)
	g.index[name] = i
	g.parent = append(g.parent, i)
	g.rank = append(g.rank, 0)
	return i
}

func (g *Graph) find(i int) int {
	for g.parent[i] != i {
		g.parent[i] = g.parent[g.parent[i]]
		i = g.parent[i]
	}
	return i
}

func (g *Graph) union(a, b int) {
	ra, rb := g.find(a), g.find(b)
	if ra == rb {
		return
	}
	switch {
	case g.rank[ra] < g.rank[rb]:
		g.parent[ra] = rb
	case g.rank[ra] > g.rank[rb]:
		g.parent[rb] = ra
	default:
		g.parent[rb] = ra
		g.rank[ra]++
	}
}

// RenamePairs collects every (previous, current) filename pair recorded in
// the commits' changed-file lists.
func RenamePairs(commits []models.Commit) []RenamePair {
	var pairs []RenamePair
	for _, c := range commits {
		for _, f := range c.Files {
			if f.PreviousFilename != "" && f.PreviousFilename != f.Filename {
				pairs = append(pairs, RenamePair{Previous: f.PreviousFilename, Current: f.Filename})
			}
		}
	}
	return pairs
}

// BuildGraph returns the rename graph of a commit history.
func BuildGraph(commits []models.Commit) *Graph {
	g := NewGraph()
	g.AddEdges(RenamePairs(commits))
	return g
}
