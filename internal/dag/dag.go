// Package dag provides directed acyclic graph operations for tier inheritance.
// It supports cycle detection, topological ordering and descendant lookups.
package dag

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// ErrCycle is returned (wrapped) when an operation requires an acyclic graph.
var ErrCycle = errors.New("cycle detected")

// Graph represents a directed graph where an edge parent -> child means the
// child extends the parent.
type Graph struct {
	nodes   map[string]struct{}
	edges   map[string][]string // parent -> children
	parents map[string][]string // child -> parents
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]struct{}),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if _, exists := g.nodes[id]; exists {
		return
	}
	g.nodes[id] = struct{}{}
	g.edges[id] = []string{}
	g.parents[id] = []string{}
}

// HasNode reports whether id was added to the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge adds a directed edge from parent to child (child extends parent).
func (g *Graph) AddEdge(parentID, childID string) error {
	if !g.HasNode(parentID) {
		return errors.Newf("parent node %q does not exist", parentID)
	}
	if !g.HasNode(childID) {
		return errors.Newf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return errors.Mark(errors.Newf("self-loop detected: %s", parentID), ErrCycle)
	}

	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Parents returns the nodes id extends.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// Children returns the nodes extending id.
func (g *Graph) Children(id string) []string {
	return g.edges[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
// Nodes are visited in sorted order so the reported path is deterministic.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.sortedIDs() {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// TopologicalSort returns node IDs with every parent before its children.
// Ties are broken by name. Returns an error marked ErrCycle if the graph has a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, errors.Mark(errors.Newf("cycle detected: %v", cyclePath), ErrCycle)
	}

	visited := make(map[string]bool)
	result := make([]string, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		parents := append([]string(nil), g.parents[id]...)
		sort.Strings(parents)
		for _, parentID := range parents {
			visit(parentID)
		}

		result = append(result, id)
	}

	for _, id := range g.sortedIDs() {
		visit(id)
	}

	return result, nil
}

// Descendants returns every node that directly or transitively extends id.
func (g *Graph) Descendants(id string) []string {
	seen := make(map[string]bool)

	var walk func(nodeID string)
	walk = func(nodeID string) {
		for _, childID := range g.edges[nodeID] {
			if !seen[childID] {
				seen[childID] = true
				walk(childID)
			}
		}
	}
	walk(id)

	result := make([]string, 0, len(seen))
	for nodeID := range seen {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// Roots returns nodes with no parents.
func (g *Graph) Roots() []string {
	var roots []string
	for _, id := range g.sortedIDs() {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
