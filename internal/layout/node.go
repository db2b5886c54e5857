package layout

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies the role of a node in the layout tree.
type Kind string

const (
	KindRow    Kind = "row"
	KindColumn Kind = "column"
	KindTabset Kind = "tabset"
)

// Content types recognized by the UI renderer. Free-form values are
// tolerated and rendered as a generic placeholder.
const (
	ContentLecture     = "lecture"
	ContentQuiz        = "quiz"
	ContentDiagram     = "diagram"
	ContentSummary     = "summary"
	ContentPlaceholder = "placeholder"
)

// Tab is a single content slot within a tabset.
type Tab struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ContentID string `json:"contentId"`
	// Data is an opaque payload attached by content-generation callbacks
	// (generated markdown, a quiz object). The tree never inspects it.
	Data any `json:"data,omitempty"`
}

// Node is one node of the layout tree. Rows and columns carry Children;
// tabsets carry Tabs and an ActiveTabID that must reference one of them.
type Node struct {
	ID          string  `json:"id"`
	Kind        Kind    `json:"type"`
	Weight      float64 `json:"weight"`
	Children    []*Node `json:"children,omitempty"`
	Tabs        []*Tab  `json:"tabs,omitempty"`
	ActiveTabID string  `json:"activeTabId,omitempty"`
}

// NewNodeID returns a fresh tree-unique id with the given prefix
// ("tabset", "tab", "row", "column").
func NewNodeID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// FindNode returns the node with the given id, or nil.
func FindNode(root *Node, id string) *Node {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, child := range root.Children {
		if found := FindNode(child, id); found != nil {
			return found
		}
	}
	return nil
}

// FindParent returns the parent of the node with the given id, or nil for
// the root or an unknown id. Parent links are never stored on the nodes;
// they are recomputed per lookup to keep ownership strictly top-down.
func FindParent(root *Node, id string) *Node {
	if root == nil {
		return nil
	}
	for _, child := range root.Children {
		if child.ID == id {
			return root
		}
		if found := FindParent(child, id); found != nil {
			return found
		}
	}
	return nil
}

// FindTab returns the tab with the given id and the tabset that owns it.
func FindTab(root *Node, tabID string) (*Node, *Tab) {
	var ownerOut *Node
	var tabOut *Tab
	Walk(root, func(n *Node) bool {
		if n.Kind != KindTabset {
			return true
		}
		for _, tab := range n.Tabs {
			if tab.ID == tabID {
				ownerOut = n
				tabOut = tab
				return false
			}
		}
		return true
	})
	return ownerOut, tabOut
}

// Walk visits nodes depth-first. Returning false from fn stops the walk.
func Walk(root *Node, fn func(*Node) bool) bool {
	if root == nil {
		return true
	}
	if !fn(root) {
		return false
	}
	for _, child := range root.Children {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// FirstTabset returns the node itself when it is a tabset, otherwise its
// first direct tabset child. Tool calls frequently address a row or column
// when they mean "the pane in there".
func FirstTabset(node *Node) *Node {
	if node == nil {
		return nil
	}
	if node.Kind == KindTabset {
		return node
	}
	for _, child := range node.Children {
		if child.Kind == KindTabset {
			return child
		}
	}
	return nil
}

// Clone returns a deep copy of the tree. Tab Data payloads are shared, not
// copied; they are opaque and never mutated in place.
func Clone(root *Node) *Node {
	if root == nil {
		return nil
	}
	out := &Node{
		ID:          root.ID,
		Kind:        root.Kind,
		Weight:      root.Weight,
		ActiveTabID: root.ActiveTabID,
	}
	if len(root.Children) > 0 {
		out.Children = make([]*Node, len(root.Children))
		for i, child := range root.Children {
			out.Children[i] = Clone(child)
		}
	}
	if len(root.Tabs) > 0 {
		out.Tabs = make([]*Tab, len(root.Tabs))
		for i, tab := range root.Tabs {
			copied := *tab
			out.Tabs[i] = &copied
		}
	}
	return out
}

// Validate checks the structural invariants: ids unique across the whole
// tree, every ActiveTabID references a direct child tab, containers and
// tabsets non-empty (the root alone may be empty), tabsets carry no child
// nodes and containers carry no tabs.
func Validate(root *Node) error {
	if root == nil {
		return fmt.Errorf("layout tree is nil")
	}
	seen := make(map[string]struct{})
	return validateNode(root, root, seen)
}

func validateNode(n, root *Node, seen map[string]struct{}) error {
	if _, dup := seen[n.ID]; dup {
		return fmt.Errorf("duplicate node id %q", n.ID)
	}
	seen[n.ID] = struct{}{}

	switch n.Kind {
	case KindRow, KindColumn:
		if len(n.Tabs) > 0 {
			return fmt.Errorf("%s %q carries tabs", n.Kind, n.ID)
		}
		if len(n.Children) == 0 && n != root {
			return fmt.Errorf("empty %s %q", n.Kind, n.ID)
		}
	case KindTabset:
		if len(n.Children) > 0 {
			return fmt.Errorf("tabset %q carries child nodes", n.ID)
		}
		if len(n.Tabs) == 0 && n != root {
			return fmt.Errorf("empty tabset %q", n.ID)
		}
		if n.ActiveTabID != "" {
			found := false
			for _, tab := range n.Tabs {
				if tab.ID == n.ActiveTabID {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("tabset %q activeTabId %q is not a child tab", n.ID, n.ActiveTabID)
			}
		}
	default:
		return fmt.Errorf("node %q has unknown kind %q", n.ID, n.Kind)
	}

	for _, tab := range n.Tabs {
		if _, dup := seen[tab.ID]; dup {
			return fmt.Errorf("duplicate tab id %q", tab.ID)
		}
		seen[tab.ID] = struct{}{}
	}
	for _, child := range n.Children {
		if err := validateNode(child, root, seen); err != nil {
			return err
		}
	}
	return nil
}

// Tabsets returns all tabsets in depth-first order.
func Tabsets(root *Node) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind == KindTabset {
			out = append(out, n)
		}
		return true
	})
	return out
}

// CountTabs returns the number of tabs in the whole tree.
func CountTabs(root *Node) int {
	count := 0
	Walk(root, func(n *Node) bool {
		count += len(n.Tabs)
		return true
	})
	return count
}
