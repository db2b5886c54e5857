package mcp

import (
	"github.com/lfedronic/deskd/internal/command"
	"github.com/lfedronic/deskd/internal/env"
)

// AddTabInput is the input for the add_tab tool.
type AddTabInput struct {
	PaneID     string `json:"paneId" jsonschema:"required,Target pane id or semantic label (e.g. lectureNotesPane)"`
	Title      string `json:"title" jsonschema:"required,Tab title shown in the tab strip"`
	ContentID  string `json:"contentId" jsonschema:"required,Content kind to render: lecture quiz diagram summary or a custom id"`
	MakeActive *bool  `json:"makeActive,omitempty" jsonschema:"Focus the tab after adding (default: true)"`
}

// ActivateTabInput is the input for the activate_tab tool.
type ActivateTabInput struct {
	PaneID string `json:"paneId" jsonschema:"required,Pane id or semantic label that owns the tab"`
	TabID  string `json:"tabId" jsonschema:"required,Tab id to focus"`
}

// CloseTabInput is the input for the close_tab tool.
type CloseTabInput struct {
	TabID string `json:"tabId" jsonschema:"required,Tab id to close. Containers emptied by the close are removed."`
}

// SplitPaneInput is the input for the split_pane tool.
type SplitPaneInput struct {
	TargetID    string  `json:"targetId" jsonschema:"required,Pane id or semantic label to split. Use rootRow for the whole surface."`
	Orientation string  `json:"orientation" jsonschema:"required,row places the new pane to the right; column places it below"`
	Ratio       float64 `json:"ratio,omitempty" jsonschema:"Fraction of the target's space given to the new pane (0.1-0.9 default 0.5)"`
}

// MoveTabInput is the input for the move_tab tool.
type MoveTabInput struct {
	TabID    string `json:"tabId" jsonschema:"required,Tab id to move"`
	ToPaneID string `json:"toPaneId" jsonschema:"required,Destination pane id or semantic label"`
	Position *int   `json:"position,omitempty" jsonschema:"Insert index in the destination tab strip (default: append)"`
}

// GetEnvironmentInput is the input for the get_environment tool.
type GetEnvironmentInput struct{}

// UndoInput is the input for the undo tool.
type UndoInput struct{}

// CommandOutput mirrors the executor result for mutating tools.
type CommandOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	TabID   string `json:"tabId,omitempty"`
	PaneID  string `json:"paneId,omitempty"`
}

// GetEnvironmentOutput describes the current layout plus measured
// geometry, enough for an agent to plan its next command.
type GetEnvironmentOutput struct {
	Success     bool                    `json:"success"`
	Message     string                  `json:"message,omitempty"`
	Error       string                  `json:"error,omitempty"`
	Environment *command.EnvDescription `json:"environment,omitempty"`
	Geometry    *env.Snapshot           `json:"geometry,omitempty"`
}

func outputFrom(res command.Result) CommandOutput {
	return CommandOutput{
		Success: res.Success,
		Message: res.Message,
		Error:   string(res.Error),
		TabID:   res.TabID,
		PaneID:  res.PaneID,
	}
}
