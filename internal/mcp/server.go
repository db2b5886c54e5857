// Package mcp exposes the layout engine as MCP tools over stdio, the
// surface a voice or chat agent drives directly.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lfedronic/deskd/internal/command"
	"github.com/lfedronic/deskd/internal/config"
	"github.com/lfedronic/deskd/internal/env"
	"github.com/lfedronic/deskd/internal/store"
)

const (
	ServerName    = "deskd"
	ServerVersion = "0.1.0"
)

// Server is the MCP server wrapping the command executor.
type Server struct {
	mcpServer *mcpsdk.Server
	store     *store.Store
	executor  *command.Executor
	config    *config.Config
}

// NewServer creates an MCP server bound to a store and executor.
func NewServer(st *store.Store, exec *command.Executor, cfg *config.Config) *Server {
	s := &Server{
		store:    st,
		executor: exec,
		config:   cfg,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "add_tab",
		Description: "Add a content tab to a pane. Panes are addressed by id or semantic label (e.g. lectureNotesPane). Adding a tab whose title already exists in the pane activates the existing tab instead of duplicating it.",
	}, s.handleAddTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "activate_tab",
		Description: "Bring a tab to the front of its pane. The tab must be a direct child of the given pane.",
	}, s.handleActivateTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_tab",
		Description: "Close a tab by id. Panes and containers left empty by the close are removed automatically; the root always survives.",
	}, s.handleCloseTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "split_pane",
		Description: "Split a pane to create a new empty pane next to it. Orientation row puts the new pane to the right, column puts it below. Returns the new pane id for follow-up add_tab calls.",
	}, s.handleSplitPane)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_tab",
		Description: "Move a tab into another pane, or reorder it within its own pane via position.",
	}, s.handleMoveTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_environment",
		Description: "Describe the current layout: panes, their tabs and labels, and measured pane geometry. Call this before mutating when unsure of the current state.",
	}, s.handleGetEnvironment)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "undo",
		Description: "Revert the most recent layout mutation.",
	}, s.handleUndo)
}

// execute routes every mutating tool through label resolution. Expected
// failures come back in the output payload, not as protocol errors; the
// agent reads the error kind and adjusts.
func (s *Server) execute(cmd command.Command) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return nil, outputFrom(s.executor.ResolveAndExecute(cmd)), nil
}

func (s *Server) handleAddTab(_ context.Context, _ *mcpsdk.CallToolRequest, args AddTabInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	makeActive := true
	if args.MakeActive != nil {
		makeActive = *args.MakeActive
	}
	return s.execute(command.AddTab{
		PaneID:     args.PaneID,
		Title:      args.Title,
		ContentID:  args.ContentID,
		MakeActive: makeActive,
	})
}

func (s *Server) handleActivateTab(_ context.Context, _ *mcpsdk.CallToolRequest, args ActivateTabInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return s.execute(command.ActivateTab{PaneID: args.PaneID, TabID: args.TabID})
}

func (s *Server) handleCloseTab(_ context.Context, _ *mcpsdk.CallToolRequest, args CloseTabInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return s.execute(command.CloseTab{TabID: args.TabID})
}

func (s *Server) handleSplitPane(_ context.Context, _ *mcpsdk.CallToolRequest, args SplitPaneInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	orient := command.Orientation(args.Orientation)
	if orient != command.OrientRow && orient != command.OrientColumn {
		res := command.Fail(command.ErrMissingParameters, fmt.Sprintf("orientation must be row or column, got %q", args.Orientation))
		return nil, outputFrom(res), nil
	}
	return s.execute(command.SplitPane{
		TargetID:    args.TargetID,
		Orientation: orient,
		Ratio:       args.Ratio,
	})
}

func (s *Server) handleMoveTab(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveTabInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	position := -1
	if args.Position != nil {
		position = *args.Position
	}
	return s.execute(command.MoveTab{TabID: args.TabID, ToPaneID: args.ToPaneID, Position: position})
}

func (s *Server) handleGetEnvironment(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetEnvironmentInput) (*mcpsdk.CallToolResult, GetEnvironmentOutput, error) {
	res := s.executor.Execute(command.GetEnv{})
	out := GetEnvironmentOutput{
		Success:     res.Success,
		Message:     res.Message,
		Error:       string(res.Error),
		Environment: res.Environment,
	}
	if res.Success {
		snap := s.measureGeometry()
		out.Geometry = &snap
	}
	return nil, out, nil
}

func (s *Server) handleUndo(_ context.Context, _ *mcpsdk.CallToolRequest, _ UndoInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return nil, outputFrom(s.executor.Undo()), nil
}

// measureGeometry prefers client-reported geometry and falls back to the
// configured headless viewport.
func (s *Server) measureGeometry() env.Snapshot {
	root := s.store.SnapshotTree()
	if last, ok := s.store.Env(); ok {
		return env.ReportedGeometry{Last: last}.Measure(root)
	}
	g := env.WeightGeometry{Viewport: env.Viewport{
		W:   s.config.Viewport.Width,
		H:   s.config.Viewport.Height,
		DPR: s.config.Viewport.DPR,
	}}
	return g.Measure(root)
}
