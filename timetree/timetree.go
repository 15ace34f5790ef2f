// Package timetree records when each plugin of a boot started and finished
// loading, shaped as the load tree.
package timetree

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m1gwings/treedrawer/tree"
)

// Node is one timed entry. Diff is -1 until the node is stopped.
type Node struct {
	ID     int        `json:"id"`
	Parent *string    `json:"parent"`
	Label  string     `json:"label"`
	Start  time.Time  `json:"start"`
	Stop   *time.Time `json:"stop"`
	Diff   int64      `json:"diff"`
	Nodes  []*Node    `json:"nodes"`
}

// Tree is an arena of nodes addressed by id, plus a label table that maps a
// label to the ids currently open under it, most recent last.
//
// Tree is safe for concurrent use.
type Tree struct {
	mu    sync.Mutex
	nodes []*Node
	root  *Node
	open  map[string][]int
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{open: make(map[string][]int)}
}

// Start opens a node labelled label under the most recently opened node
// labelled *parent. A nil parent makes it the root; a parent that is not
// open attaches it to the root. The first node always becomes the root.
func (t *Tree) Start(parent *string, label string, ts time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := &Node{
		ID:    len(t.nodes),
		Label: label,
		Start: ts,
		Diff:  -1,
		Nodes: []*Node{},
	}
	if parent != nil {
		p := *parent
		n.Parent = &p
	}
	// The parent is resolved before n takes its label slot, so a plugin
	// that registers a child with its own name nests under itself.
	var pn *Node
	if parent != nil {
		pn = t.lastOpen(*parent)
	}

	t.nodes = append(t.nodes, n)
	t.open[label] = append(t.open[label], n.ID)

	switch {
	case t.root == nil:
		t.root = n
	case pn == nil:
		t.root.Nodes = append(t.root.Nodes, n)
	default:
		pn.Nodes = append(pn.Nodes, n)
	}
	return n.ID
}

// Stop closes node id at ts. Unknown or already stopped ids are ignored.
func (t *Tree) Stop(id int, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < 0 || id >= len(t.nodes) {
		return
	}
	n := t.nodes[id]
	if n.Stop != nil {
		return
	}
	stop := ts
	n.Stop = &stop
	n.Diff = stop.Sub(n.Start).Milliseconds()

	ids := t.open[n.Label]
	for i := len(ids) - 1; i >= 0; i-- {
		if ids[i] == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(t.open, n.Label)
	} else {
		t.open[n.Label] = ids
	}
}

func (t *Tree) lastOpen(label string) *Node {
	ids := t.open[label]
	if len(ids) == 0 {
		return nil
	}
	return t.nodes[ids[len(ids)-1]]
}

// Root returns a copy of the root node and its subtree, nil when empty.
func (t *Tree) Root() *Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		return nil
	}
	return t.root.clone()
}

// Len returns the number of nodes ever started.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.nodes)
}

// ToJSON renders the root node and its subtree.
func (t *Tree) ToJSON() ([]byte, error) {
	return json.Marshal(t.Root())
}

// MarshalJSON implements json.Marshaler.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return t.ToJSON()
}

// PrettyPrint renders one line per node, "label <diff> ms", joined by
// box-drawing branches.
func (t *Tree) PrettyPrint() string {
	root := t.Root()
	if root == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(root.line())
	sb.WriteByte('\n')
	writeChildren(&sb, root, "")
	return sb.String()
}

func writeChildren(sb *strings.Builder, n *Node, prefix string) {
	for i, c := range n.Nodes {
		last := i == len(n.Nodes)-1

		branch := "├─"
		next := prefix + "│ "
		if last {
			branch = "└─"
			next = prefix + "  "
		}
		if len(c.Nodes) > 0 {
			branch += "┬ "
		} else {
			branch += "─ "
		}

		sb.WriteString(prefix)
		sb.WriteString(branch)
		sb.WriteString(c.line())
		sb.WriteByte('\n')
		writeChildren(sb, c, next)
	}
}

// Draw renders the tree top-down with treedrawer.
func (t *Tree) Draw() string {
	root := t.Root()
	if root == nil {
		return ""
	}
	drawing := tree.NewTree(tree.NodeString(root.line()))
	addDrawn(drawing, root)
	return drawing.String()
}

func addDrawn(parent *tree.Tree, n *Node) {
	for _, c := range n.Nodes {
		child := parent.AddChild(tree.NodeString(c.line()))
		addDrawn(child, c)
	}
}

func (n *Node) line() string {
	return fmt.Sprintf("%s %d ms", n.Label, n.Diff)
}

func (n *Node) clone() *Node {
	c := *n
	c.Nodes = make([]*Node, len(n.Nodes))
	for i, child := range n.Nodes {
		c.Nodes[i] = child.clone()
	}
	return &c
}
