// Package scenario provides the scenario tree for multi-stage stochastic
// programs: a rooted DAG whose edges carry branching probabilities and
// whose nodes own the decision variables of their stage.
package scenario

import (
	"fmt"
	"math"
	"sort"
)

// ProbTolerance is the allowed deviation when branching probabilities
// are checked to sum to one.
const ProbTolerance = 1e-6

// Node is a single decision point in the tree.
type Node struct {
	// Name is the unique node identifier ("Root", "P1_HIGH", ...).
	Name string
	// Stage is 1-based; the root is stage 1.
	Stage int
	// Prob is the conditional probability of reaching this node from
	// its parent. The root has probability 1.
	Prob float64
	// CostLabel names the stage cost expression attached to this node.
	CostLabel string
	// VarGroups lists the variable groups decided at this node.
	VarGroups []string
}

// Tree is a rooted probability tree. Children keep insertion order so
// traversal and rendering are deterministic.
type Tree struct {
	nodes    map[string]*Node
	children map[string][]string
	parent   map[string]string
	root     string
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parent:   make(map[string]string),
	}
}

// AddRoot adds the stage-1 root node.
func (t *Tree) AddRoot(name, costLabel string, varGroups []string) (*Node, error) {
	if t.root != "" {
		return nil, fmt.Errorf("tree already has root %q", t.root)
	}
	if name == "" {
		return nil, fmt.Errorf("root name must not be empty")
	}
	n := &Node{Name: name, Stage: 1, Prob: 1, CostLabel: costLabel, VarGroups: varGroups}
	t.nodes[name] = n
	t.root = name
	return n, nil
}

// AddChild adds a node beneath parent with the given conditional
// probability.
func (t *Tree) AddChild(parent, name string, prob float64, costLabel string, varGroups []string) (*Node, error) {
	p, ok := t.nodes[parent]
	if !ok {
		return nil, fmt.Errorf("parent node %q does not exist", parent)
	}
	if _, exists := t.nodes[name]; exists {
		return nil, fmt.Errorf("duplicate node %q", name)
	}
	if prob < 0 || prob > 1 {
		return nil, fmt.Errorf("node %q: probability %g out of [0,1]", name, prob)
	}
	n := &Node{Name: name, Stage: p.Stage + 1, Prob: prob, CostLabel: costLabel, VarGroups: varGroups}
	t.nodes[name] = n
	t.parent[name] = parent
	t.children[parent] = append(t.children[parent], name)
	return n, nil
}

// Node returns a node by name.
func (t *Tree) Node(name string) (*Node, bool) {
	n, ok := t.nodes[name]
	return n, ok
}

// Root returns the root node name.
func (t *Tree) Root() string {
	return t.root
}

// Parent returns the parent of a node, or "" for the root.
func (t *Tree) Parent(name string) string {
	return t.parent[name]
}

// Children returns child node names in insertion order.
func (t *Tree) Children(name string) []string {
	return t.children[name]
}

// NodeCount returns the number of nodes.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// Stages returns the number of stages (depth of the deepest leaf).
func (t *Tree) Stages() int {
	max := 0
	for _, n := range t.nodes {
		if n.Stage > max {
			max = n.Stage
		}
	}
	return max
}

// Nodes returns all nodes in breadth-first order from the root.
func (t *Tree) Nodes() []*Node {
	if t.root == "" {
		return nil
	}
	var out []*Node
	queue := []string{t.root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		out = append(out, t.nodes[name])
		queue = append(queue, t.children[name]...)
	}
	return out
}

// Validate checks tree structure: a root exists, every non-root node is
// reachable, child stages increment, and sibling probabilities sum to 1.
func (t *Tree) Validate() error {
	if t.root == "" {
		return fmt.Errorf("tree has no root")
	}
	reached := 0
	for _, n := range t.Nodes() {
		reached++
		kids := t.children[n.Name]
		if len(kids) == 0 {
			continue
		}
		sum := 0.0
		for _, kid := range kids {
			c := t.nodes[kid]
			if c.Stage != n.Stage+1 {
				return fmt.Errorf("node %q: stage %d under parent stage %d", kid, c.Stage, n.Stage)
			}
			sum += c.Prob
		}
		if math.Abs(sum-1) > ProbTolerance {
			return fmt.Errorf("node %q: child probabilities sum to %g, want 1", n.Name, sum)
		}
	}
	if reached != len(t.nodes) {
		return fmt.Errorf("%d node(s) are unreachable from root", len(t.nodes)-reached)
	}
	return nil
}

// Scenario is a root-to-leaf path with its cumulative probability. A
// scenario takes its name from its leaf node.
type Scenario struct {
	Name        string
	Path        []string
	Probability float64
}

// Scenarios enumerates all root-to-leaf paths in deterministic order.
func (t *Tree) Scenarios() []Scenario {
	var out []Scenario
	var walk func(name string, path []string, prob float64)
	walk = func(name string, path []string, prob float64) {
		n := t.nodes[name]
		path = append(path, name)
		prob *= n.Prob
		kids := t.children[name]
		if len(kids) == 0 {
			s := Scenario{Name: name, Path: make([]string, len(path)), Probability: prob}
			copy(s.Path, path)
			out = append(out, s)
			return
		}
		for _, kid := range kids {
			walk(kid, path, prob)
		}
	}
	if t.root != "" {
		walk(t.root, nil, 1)
	}
	return out
}

// NodesAtStage returns node names of a given stage in lexical order.
func (t *Tree) NodesAtStage(stage int) []string {
	var out []string
	for name, n := range t.nodes {
		if n.Stage == stage {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
