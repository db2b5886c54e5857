// Package command defines the closed set of layout commands and the
// executor that applies them. Adapters decode loosely-typed tool arguments
// into these variants exactly once at their boundary; the executor then
// switches exhaustively over the set.
package command

import (
	"fmt"
	"strings"
)

// Orientation selects the split direction: row puts the new pane to the
// right, column puts it below.
type Orientation string

const (
	OrientRow    Orientation = "row"
	OrientColumn Orientation = "column"
)

// Command is one layout mutation or query. The interface is sealed: the
// only implementations are the variants in this package.
type Command interface {
	Verb() string
	// resolveRefs returns a copy with every node-reference field passed
	// through the resolver. Titles, content ids, and numbers are never
	// touched.
	resolveRefs(resolve func(string) string) Command
}

// AddTab appends a tab to a pane, or activates an existing tab with the
// same title.
type AddTab struct {
	PaneID     string
	Title      string
	ContentID  string
	MakeActive bool
}

// ActivateTab makes a tab the visible one in its pane.
type ActivateTab struct {
	PaneID string
	TabID  string
}

// CloseTab removes a tab, cascading away containers it empties.
type CloseTab struct {
	TabID string
}

// SplitPane inserts a new placeholder tabset adjacent to the target.
// Ratio is the fraction assigned to the new pane, clamped into
// [0.1, 0.9]; zero means 0.5.
type SplitPane struct {
	TargetID    string
	Orientation Orientation
	Ratio       float64
}

// MoveTab relocates a tab into another pane, or reorders within its own.
// Position appends when negative.
type MoveTab struct {
	TabID    string
	ToPaneID string
	Position int
}

// GetEnv queries the current layout without mutating it.
type GetEnv struct{}

func (AddTab) Verb() string      { return "addTab" }
func (ActivateTab) Verb() string { return "activateTab" }
func (CloseTab) Verb() string    { return "closeTab" }
func (SplitPane) Verb() string   { return "splitPane" }
func (MoveTab) Verb() string     { return "moveTab" }
func (GetEnv) Verb() string      { return "getEnv" }

func (c AddTab) resolveRefs(resolve func(string) string) Command {
	c.PaneID = resolve(c.PaneID)
	return c
}

func (c ActivateTab) resolveRefs(resolve func(string) string) Command {
	c.PaneID = resolve(c.PaneID)
	c.TabID = resolve(c.TabID)
	return c
}

func (c CloseTab) resolveRefs(resolve func(string) string) Command {
	c.TabID = resolve(c.TabID)
	return c
}

func (c SplitPane) resolveRefs(resolve func(string) string) Command {
	c.TargetID = resolve(c.TargetID)
	return c
}

func (c MoveTab) resolveRefs(resolve func(string) string) Command {
	c.TabID = resolve(c.TabID)
	c.ToPaneID = resolve(c.ToPaneID)
	return c
}

func (c GetEnv) resolveRefs(func(string) string) Command { return c }

// ResolveRefs substitutes semantic labels for node ids on the fields that
// are declared node references. Non-reference strings pass through
// untouched.
func ResolveRefs(cmd Command, resolve func(string) string) Command {
	return cmd.resolveRefs(resolve)
}

// Decode maps a stringly-typed action plus argument bag (the webhook and
// REST surfaces) into a typed command. A non-nil Result reports the
// failure to hand straight back to the caller.
func Decode(action string, args map[string]any) (Command, *Result) {
	get := func(key string) string {
		v, _ := args[key].(string)
		return strings.TrimSpace(v)
	}
	getBool := func(key string, def bool) bool {
		if v, ok := args[key].(bool); ok {
			return v
		}
		return def
	}
	getFloat := func(key string) float64 {
		switch v := args[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
		return 0
	}
	getInt := func(key string, def int) int {
		switch v := args[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
		return def
	}

	missing := func(fields string) *Result {
		r := Fail(ErrMissingParameters, fmt.Sprintf("missing required parameters for %s: %s", action, fields))
		return &r
	}

	switch action {
	case "addTab":
		c := AddTab{
			PaneID:     get("paneId"),
			Title:      get("title"),
			ContentID:  get("contentId"),
			MakeActive: getBool("makeActive", true),
		}
		if c.PaneID == "" || c.Title == "" || c.ContentID == "" {
			return nil, missing("paneId, title, contentId")
		}
		return c, nil

	case "activateTab":
		c := ActivateTab{PaneID: get("paneId"), TabID: get("tabId")}
		if c.PaneID == "" || c.TabID == "" {
			return nil, missing("paneId, tabId")
		}
		return c, nil

	case "closeTab":
		c := CloseTab{TabID: get("tabId")}
		if c.TabID == "" {
			return nil, missing("tabId")
		}
		return c, nil

	case "split", "splitPane":
		c := SplitPane{
			TargetID:    get("targetId"),
			Orientation: Orientation(get("orientation")),
			Ratio:       getFloat("ratio"),
		}
		if c.TargetID == "" {
			// The older tool shape says paneId where the newer says targetId.
			c.TargetID = get("paneId")
		}
		if c.TargetID == "" || (c.Orientation != OrientRow && c.Orientation != OrientColumn) {
			return nil, missing("targetId, orientation(row|column)")
		}
		return c, nil

	case "moveTab":
		c := MoveTab{
			TabID:    get("tabId"),
			ToPaneID: get("toPaneId"),
			Position: getInt("position", -1),
		}
		if c.TabID == "" || c.ToPaneID == "" {
			return nil, missing("tabId, toPaneId")
		}
		return c, nil

	case "getEnv", "getEnvironment":
		return GetEnv{}, nil
	}

	r := Fail(ErrMissingParameters, fmt.Sprintf("unknown action %q", action))
	return nil, &r
}
