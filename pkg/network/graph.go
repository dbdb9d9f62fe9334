package network

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmptyID is returned when a node or branch is added without an id.
	ErrEmptyID = errors.New("id must not be empty")

	// ErrDuplicateID is returned when a node or branch id is already taken.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrUnknownNode is returned when a branch references a node that does
	// not exist in the graph.
	ErrUnknownNode = errors.New("unknown node")
)

// Graph owns the nodes and branches of one network. Lookup is by string id;
// every derived numeric structure orders elements by sorted id, so the
// insertion order never influences a result.
type Graph struct {
	nodes    map[string]*Node
	branches map[string]Branch
}

// NewGraph returns an empty network graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		branches: make(map[string]Branch),
	}
}

// AddNode inserts a node. The id must be non-empty and unused.
func (g *Graph) AddNode(n *Node) error {
	if n.ID == "" {
		return fmt.Errorf("node: %w", ErrEmptyID)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateID)
	}
	g.nodes[n.ID] = n
	return nil
}

// AddBranch inserts a branch. Both terminal nodes must already exist.
func (g *Graph) AddBranch(b Branch) error {
	if b.ID() == "" {
		return fmt.Errorf("branch: %w", ErrEmptyID)
	}
	if _, exists := g.branches[b.ID()]; exists {
		return fmt.Errorf("branch %q: %w", b.ID(), ErrDuplicateID)
	}
	if _, ok := g.nodes[b.FromNode()]; !ok {
		return fmt.Errorf("branch %q from_node %q: %w", b.ID(), b.FromNode(), ErrUnknownNode)
	}
	if _, ok := g.nodes[b.ToNode()]; !ok {
		return fmt.Errorf("branch %q to_node %q: %w", b.ID(), b.ToNode(), ErrUnknownNode)
	}
	g.branches[b.ID()] = b
	return nil
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node { return g.nodes[id] }

// Branch returns the branch with the given id, or nil.
func (g *Graph) Branch(id string) Branch { return g.branches[id] }

// NumNodes returns the total node count, isolated nodes included.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NodeIDs returns all node ids sorted ascending.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BranchIDs returns all branch ids sorted ascending.
func (g *Graph) BranchIDs() []string {
	ids := make([]string, 0, len(g.branches))
	for id := range g.branches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Branches returns all branches in sorted-id order.
func (g *Graph) Branches() []Branch {
	ids := g.BranchIDs()
	out := make([]Branch, len(ids))
	for i, id := range ids {
		out[i] = g.branches[id]
	}
	return out
}

// SlackNodes returns the ids of all SLACK nodes in sorted order.
func (g *Graph) SlackNodes() []string {
	var out []string
	for _, id := range g.NodeIDs() {
		if g.nodes[id].Type == NodeSlack {
			out = append(out, id)
		}
	}
	return out
}
