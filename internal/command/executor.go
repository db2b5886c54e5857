package command

import (
	"fmt"

	"github.com/lfedronic/deskd/internal/layout"
	"github.com/lfedronic/deskd/internal/oplog"
	"github.com/lfedronic/deskd/internal/store"
)

// Options tunes executor behavior.
type Options struct {
	// MaxSplitDepth caps container nesting after splitPane; 0 disables
	// the guard.
	MaxSplitDepth int
	// Log receives an audit entry per executed command. Nil disables.
	Log *oplog.Logger
}

// Executor applies commands to the store's tree, one atomic mutation per
// call. It is synchronous and non-suspending: no two commands can
// interleave mid-mutation.
type Executor struct {
	store *store.Store
	opts  Options
}

// New creates an executor bound to a store.
func New(st *store.Store, opts Options) *Executor {
	return &Executor{store: st, opts: opts}
}

// resultErr carries a precondition failure out of an Update closure
// without committing anything.
type resultErr struct{ res Result }

func (e resultErr) Error() string { return e.res.Message }

func failureFrom(err error) Result {
	if re, ok := err.(resultErr); ok {
		return re.res
	}
	return Fail(ErrExecutionError, err.Error())
}

// Execute runs one command and returns its discriminated result. Expected
// failures come back tagged; unexpected panics are recovered into
// ExecutionError rather than crashing the adapter loop.
func (e *Executor) Execute(cmd Command) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Fail(ErrExecutionError, fmt.Sprintf("unexpected failure executing %s: %v", cmd.Verb(), r))
		}
	}()

	if !e.store.Ready() {
		return Fail(ErrModelUnavailable, "layout tree not initialized")
	}

	switch c := cmd.(type) {
	case AddTab:
		res = e.addTab(c)
	case ActivateTab:
		res = e.activateTab(c)
	case CloseTab:
		res = e.closeTab(c)
	case SplitPane:
		res = e.splitPane(c)
	case MoveTab:
		res = e.moveTab(c)
	case GetEnv:
		res = e.getEnv()
	default:
		res = Fail(ErrExecutionError, fmt.Sprintf("unhandled command %T", cmd))
	}

	e.audit(cmd, res)
	return res
}

// ResolveAndExecute substitutes semantic labels on node-reference fields,
// then executes. All adapters funnel through here.
func (e *Executor) ResolveAndExecute(cmd Command) Result {
	return e.Execute(ResolveRefs(cmd, e.store.ResolveLabel))
}

// Undo rolls the tree back one mutation.
func (e *Executor) Undo() Result {
	if err := e.store.Undo(); err != nil {
		return Fail(ErrExecutionError, err.Error())
	}
	if e.opts.Log != nil {
		e.opts.Log.Log(oplog.ActionUndo, nil)
	}
	return Ok("reverted last layout mutation")
}

func (e *Executor) addTab(c AddTab) Result {
	var out Result
	err := e.store.Update(func(root *layout.Node) error {
		pane := layout.FirstTabset(layout.FindNode(root, c.PaneID))
		if pane == nil {
			return resultErr{Fail(ErrPaneNotFound, fmt.Sprintf("pane %s not found", c.PaneID))}
		}

		// De-dup by title: an agent issuing the same content request twice
		// gets the existing tab activated instead of a duplicate.
		for _, tab := range pane.Tabs {
			if tab.Name == c.Title {
				pane.ActiveTabID = tab.ID
				out = Ok(fmt.Sprintf("activated existing tab %q in pane %s", c.Title, pane.ID))
				out.TabID = tab.ID
				return nil
			}
		}

		tab := &layout.Tab{ID: layout.NewNodeID("tab"), Name: c.Title, ContentID: c.ContentID}
		pane.Tabs = append(pane.Tabs, tab)
		if c.MakeActive || pane.ActiveTabID == "" {
			pane.ActiveTabID = tab.ID
		}
		out = Ok(fmt.Sprintf("added tab %q to pane %s", c.Title, pane.ID))
		out.TabID = tab.ID
		return nil
	})
	if err != nil {
		return failureFrom(err)
	}
	return out
}

func (e *Executor) activateTab(c ActivateTab) Result {
	var out Result
	err := e.store.Update(func(root *layout.Node) error {
		pane := layout.FindNode(root, c.PaneID)
		if pane == nil {
			return resultErr{Fail(ErrPaneNotFound, fmt.Sprintf("pane %s not found", c.PaneID))}
		}
		if pane.Kind != layout.KindTabset {
			return resultErr{Fail(ErrInvalidPane, fmt.Sprintf("node %s is a %s, not a tabset", c.PaneID, pane.Kind))}
		}
		for _, tab := range pane.Tabs {
			if tab.ID == c.TabID {
				pane.ActiveTabID = tab.ID
				out = Ok(fmt.Sprintf("activated tab %s in pane %s", c.TabID, pane.ID))
				return nil
			}
		}
		return resultErr{Fail(ErrTabNotFound, fmt.Sprintf("tab %s is not a child of pane %s", c.TabID, c.PaneID))}
	})
	if err != nil {
		return failureFrom(err)
	}
	return out
}

func (e *Executor) closeTab(c CloseTab) Result {
	var out Result
	err := e.store.Update(func(root *layout.Node) error {
		owner, tab := layout.FindTab(root, c.TabID)
		if tab == nil {
			return resultErr{Fail(ErrTabNotFound, fmt.Sprintf("tab %s not found", c.TabID))}
		}

		removeTab(owner, c.TabID)
		if len(owner.Tabs) == 0 {
			removeEmptyNode(root, owner.ID)
		}

		out = Ok(fmt.Sprintf("closed tab %q", tab.Name))
		return nil
	})
	if err != nil {
		return failureFrom(err)
	}
	return out
}

func (e *Executor) splitPane(c SplitPane) Result {
	ratio := clampRatio(c.Ratio)
	kind := layout.KindRow
	if c.Orientation == OrientColumn {
		kind = layout.KindColumn
	}

	var out Result
	err := e.store.Update(func(root *layout.Node) error {
		target := layout.FindNode(root, c.TargetID)
		if target == nil {
			return resultErr{Fail(ErrPaneNotFound, fmt.Sprintf("pane %s not found", c.TargetID))}
		}

		tab := &layout.Tab{ID: layout.NewNodeID("tab"), Name: "New Tab", ContentID: layout.ContentPlaceholder}
		fresh := &layout.Node{
			ID:          layout.NewNodeID("tabset"),
			Kind:        layout.KindTabset,
			Tabs:        []*layout.Tab{tab},
			ActiveTabID: tab.ID,
		}

		parent := layout.FindParent(root, target.ID)
		switch {
		case parent == nil && len(root.Children) == 0 && len(root.Tabs) == 0:
			// An emptied root (every tab closed) is repopulated by making the
			// fresh tabset its sole child.
			root.Kind = kind
			fresh.Weight = 100
			root.Children = []*layout.Node{fresh}

		case parent == nil:
			// Splitting the root: either grow it in place or re-orient it
			// around its previous content. The root id never changes.
			if root.Kind == kind && len(root.Children) > 0 {
				total := 0.0
				for _, child := range root.Children {
					child.Weight *= 1 - ratio
					total += child.Weight
				}
				fresh.Weight = total / (1 - ratio) * ratio
				root.Children = append(root.Children, fresh)
			} else {
				inner := &layout.Node{
					ID:          layout.NewNodeID(string(root.Kind)),
					Kind:        root.Kind,
					Weight:      (1 - ratio) * 100,
					Children:    root.Children,
					Tabs:        root.Tabs,
					ActiveTabID: root.ActiveTabID,
				}
				fresh.Weight = ratio * 100
				root.Kind = kind
				root.Children = []*layout.Node{inner, fresh}
				root.Tabs = nil
				root.ActiveTabID = ""
			}

		case parent.Kind == kind:
			// New pane takes ratio of the target's share; sibling weight
			// sum is unchanged.
			fresh.Weight = target.Weight * ratio
			target.Weight -= fresh.Weight
			for i, child := range parent.Children {
				if child.ID == target.ID {
					parent.Children = append(parent.Children[:i+1], append([]*layout.Node{fresh}, parent.Children[i+1:]...)...)
					break
				}
			}

		default:
			// Orientation differs from the parent's axis: wrap the target
			// in a fresh container along the requested axis.
			wrapper := &layout.Node{
				ID:     layout.NewNodeID(string(kind)),
				Kind:   kind,
				Weight: target.Weight,
			}
			target.Weight = (1 - ratio) * 100
			fresh.Weight = ratio * 100
			wrapper.Children = []*layout.Node{target, fresh}
			for i, child := range parent.Children {
				if child.ID == wrapper.Children[0].ID {
					parent.Children[i] = wrapper
					break
				}
			}
		}

		if e.opts.MaxSplitDepth > 0 && treeDepth(root, 0) > e.opts.MaxSplitDepth {
			return resultErr{Fail(ErrInvalidPane, fmt.Sprintf("split would exceed max depth %d", e.opts.MaxSplitDepth))}
		}

		out = Ok(fmt.Sprintf("split pane %s (%s)", c.TargetID, c.Orientation))
		out.PaneID = fresh.ID
		out.TabID = tab.ID
		return nil
	})
	if err != nil {
		return failureFrom(err)
	}
	return out
}

func (e *Executor) moveTab(c MoveTab) Result {
	var out Result
	err := e.store.Update(func(root *layout.Node) error {
		owner, tab := layout.FindTab(root, c.TabID)
		if tab == nil {
			return resultErr{Fail(ErrTabNotFound, fmt.Sprintf("tab %s not found", c.TabID))}
		}
		target := layout.FindNode(root, c.ToPaneID)
		if target == nil {
			return resultErr{Fail(ErrPaneNotFound, fmt.Sprintf("pane %s not found", c.ToPaneID))}
		}
		if target.Kind != layout.KindTabset {
			return resultErr{Fail(ErrInvalidPane, fmt.Sprintf("node %s is a %s, not a tabset", c.ToPaneID, target.Kind))}
		}

		if owner.ID == target.ID {
			// Pure reordering: the active tab stays active even when it is
			// the one being moved.
			active := owner.ActiveTabID
			removeTab(owner, c.TabID)
			insertTab(target, tab, c.Position)
			target.ActiveTabID = active
			out = Ok(fmt.Sprintf("reordered tab %q within pane %s", tab.Name, target.ID))
			return nil
		}

		removeTab(owner, c.TabID)
		insertTab(target, tab, c.Position)

		if target.ActiveTabID == "" {
			target.ActiveTabID = tab.ID
		}
		if len(owner.Tabs) == 0 {
			removeEmptyNode(root, owner.ID)
		}
		out = Ok(fmt.Sprintf("moved tab %q to pane %s", tab.Name, target.ID))
		return nil
	})
	if err != nil {
		return failureFrom(err)
	}
	return out
}

func (e *Executor) getEnv() Result {
	root := e.store.SnapshotTree()
	desc := &EnvDescription{Labels: e.store.Labels()}
	for _, ts := range layout.Tabsets(root) {
		pane := PaneDesc{ID: ts.ID, ActiveTabID: ts.ActiveTabID, Tabs: make([]TabDesc, 0, len(ts.Tabs))}
		for _, tab := range ts.Tabs {
			pane.Tabs = append(pane.Tabs, TabDesc{ID: tab.ID, Name: tab.Name, ContentID: tab.ContentID})
		}
		desc.Panes = append(desc.Panes, pane)
		desc.TotalTabs += len(ts.Tabs)
	}
	desc.TotalPanes = len(desc.Panes)

	res := Ok(fmt.Sprintf("%d panes, %d tabs", desc.TotalPanes, desc.TotalTabs))
	res.Environment = desc
	return res
}

func (e *Executor) audit(cmd Command, res Result) {
	if e.opts.Log == nil {
		return
	}
	details := map[string]interface{}{
		"verb":    cmd.Verb(),
		"success": res.Success,
	}
	if res.Error != "" {
		details["error"] = string(res.Error)
	}
	if res.Message != "" {
		details["message"] = res.Message
	}
	e.opts.Log.Log(actionFor(cmd), details)
}

func actionFor(cmd Command) oplog.Action {
	switch cmd.(type) {
	case AddTab:
		return oplog.ActionAddTab
	case ActivateTab:
		return oplog.ActionActivateTab
	case CloseTab:
		return oplog.ActionCloseTab
	case SplitPane:
		return oplog.ActionSplitPane
	case MoveTab:
		return oplog.ActionMoveTab
	default:
		return oplog.ActionGetEnv
	}
}

// clampRatio pins the split fraction into [0.1, 0.9]; zero means an even
// split. Clamping beats rejecting here: agents retry rejected calls with
// made-up numbers.
func clampRatio(ratio float64) float64 {
	if ratio == 0 {
		return 0.5
	}
	if ratio < 0.1 {
		return 0.1
	}
	if ratio > 0.9 {
		return 0.9
	}
	return ratio
}

func removeTab(owner *layout.Node, tabID string) {
	for i, tab := range owner.Tabs {
		if tab.ID == tabID {
			owner.Tabs = append(owner.Tabs[:i], owner.Tabs[i+1:]...)
			break
		}
	}
	if owner.ActiveTabID == tabID {
		owner.ActiveTabID = ""
		if len(owner.Tabs) > 0 {
			owner.ActiveTabID = owner.Tabs[0].ID
		}
	}
}

func insertTab(target *layout.Node, tab *layout.Tab, position int) {
	if position < 0 || position >= len(target.Tabs) {
		target.Tabs = append(target.Tabs, tab)
		return
	}
	target.Tabs = append(target.Tabs[:position], append([]*layout.Tab{tab}, target.Tabs[position:]...)...)
}

// removeEmptyNode detaches an emptied node from its parent, cascading
// upward while parents become empty. The root is never removed; an empty
// root is a legal final state.
func removeEmptyNode(root *layout.Node, id string) {
	if root.ID == id {
		return
	}
	parent := layout.FindParent(root, id)
	if parent == nil {
		return
	}
	for i, child := range parent.Children {
		if child.ID == id {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	if len(parent.Children) == 0 && len(parent.Tabs) == 0 {
		removeEmptyNode(root, parent.ID)
	}
}

// treeDepth returns the deepest container nesting above any tabset.
func treeDepth(n *layout.Node, depth int) int {
	if n.Kind == layout.KindTabset {
		return depth
	}
	max := depth
	for _, child := range n.Children {
		if d := treeDepth(child, depth+1); d > max {
			max = d
		}
	}
	return max
}
