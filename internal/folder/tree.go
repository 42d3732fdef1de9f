// Package folder models the caller's bookmark folder hierarchy and maps
// free-form model suggestions back onto concrete nodes of it.
package folder

import (
	"fmt"
	"strings"
)

// Folder is the nested shape bookmark files and API payloads carry.
type Folder struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Children []*Folder `json:"children,omitempty"`
}

// Node is one folder inside an indexed Tree. Children are identifiers,
// resolved through the owning tree, so nodes stay free of pointer cycles.
type Node struct {
	ID       string
	Name     string
	Children []string
}

// Tree is an immutable, indexed snapshot of a folder hierarchy. Parent
// relations are lookup-only indices held by the tree, not embedded
// pointers. A Tree is never mutated after construction and is safe to
// share across goroutines.
type Tree struct {
	roots  []string
	nodes  map[string]*Node
	parent map[string]string
	order  []string // depth-first id order, for deterministic iteration
}

// NewTree indexes a nested folder structure. Identifiers must be unique
// across the whole tree; depth and breadth bounds are the caller's
// responsibility.
func NewTree(folders []*Folder) (*Tree, error) {
	t := &Tree{
		nodes:  make(map[string]*Node),
		parent: make(map[string]string),
	}
	for _, f := range folders {
		if err := t.index(f, ""); err != nil {
			return nil, err
		}
		t.roots = append(t.roots, f.ID)
	}
	return t, nil
}

func (t *Tree) index(f *Folder, parentID string) error {
	if f == nil {
		return fmt.Errorf("folder tree contains a nil folder")
	}
	if f.ID == "" {
		return fmt.Errorf("folder %q has an empty identifier", f.Name)
	}
	if _, dup := t.nodes[f.ID]; dup {
		return fmt.Errorf("duplicate folder identifier %q", f.ID)
	}

	node := &Node{ID: f.ID, Name: f.Name}
	t.nodes[f.ID] = node
	t.order = append(t.order, f.ID)
	if parentID != "" {
		t.parent[f.ID] = parentID
	}

	for _, child := range f.Children {
		if child == nil {
			continue
		}
		node.Children = append(node.Children, child.ID)
		if err := t.index(child, f.ID); err != nil {
			return err
		}
	}
	return nil
}

// Node looks a node up by identifier.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Parent returns the parent of id, or false for roots and unknown ids.
func (t *Tree) Parent(id string) (*Node, bool) {
	pid, ok := t.parent[id]
	if !ok {
		return nil, false
	}
	return t.nodes[pid], true
}

// Path returns the root-to-node display path, e.g. "Work/Projects/Alpha".
func (t *Tree) Path(id string) string {
	var parts []string
	for cur := id; cur != ""; {
		n, ok := t.nodes[cur]
		if !ok {
			break
		}
		parts = append(parts, n.Name)
		cur = t.parent[cur]
	}
	// parts were collected leaf-first
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// IDs returns every node id in depth-first order.
func (t *Tree) IDs() []string {
	return t.order
}

// Paths returns every root-to-node path in depth-first order, the
// serialization sent to the model inside the classification prompt.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.order))
	for _, id := range t.order {
		paths = append(paths, t.Path(id))
	}
	return paths
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.order) }
