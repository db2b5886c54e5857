package mcp

import (
	"context"
	"testing"

	"github.com/lfedronic/deskd/internal/command"
	"github.com/lfedronic/deskd/internal/config"
	"github.com/lfedronic/deskd/internal/env"
	"github.com/lfedronic/deskd/internal/layout"
	"github.com/lfedronic/deskd/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := store.New(layout.Seed())
	exec := command.New(st, command.Options{})
	return NewServer(st, exec, config.Default())
}

func TestHandleAddTabViaLabel(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleAddTab(context.Background(), nil, AddTabInput{
		PaneID:    "lectureNotesPane",
		Title:     "Recap",
		ContentID: "summary",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !out.Success || out.TabID == "" {
		t.Fatalf("unexpected output: %+v", out)
	}

	pane := layout.FindNode(s.store.SnapshotTree(), "tabset-lecture")
	if len(pane.Tabs) != 2 {
		t.Fatalf("tab not added via label, got %d tabs", len(pane.Tabs))
	}
}

func TestHandleAddTabFailureIsOutputNotError(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleAddTab(context.Background(), nil, AddTabInput{
		PaneID:    "nonexistent-pane",
		Title:     "X",
		ContentID: "quiz",
	})
	if err != nil {
		t.Fatalf("expected failures to be tool output, got protocol error: %v", err)
	}
	if out.Success || out.Error != string(command.ErrPaneNotFound) {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestHandleSplitPaneRejectsBadOrientation(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleSplitPane(context.Background(), nil, SplitPaneInput{
		TargetID:    "rootRow",
		Orientation: "diagonal",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if out.Success || out.Error != string(command.ErrMissingParameters) {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestHandleGetEnvironmentWeightFallback(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleGetEnvironment(context.Background(), nil, GetEnvironmentInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !out.Success || out.Environment == nil || out.Geometry == nil {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Environment.TotalPanes != 4 {
		t.Fatalf("expected 4 panes, got %d", out.Environment.TotalPanes)
	}
	// No client has reported geometry, so boxes derive from the configured
	// headless viewport.
	if out.Geometry.Viewport.W != config.Default().Viewport.Width {
		t.Fatalf("expected headless viewport, got %+v", out.Geometry.Viewport)
	}
	if len(out.Geometry.Panes) != 4 {
		t.Fatalf("expected geometry for 4 panes, got %d", len(out.Geometry.Panes))
	}
}

func TestHandleGetEnvironmentPrefersReported(t *testing.T) {
	s := newTestServer(t)
	s.store.SetEnv(env.Snapshot{
		Viewport: env.Viewport{W: 1440, H: 900, DPR: 2},
		Panes:    []env.PaneBox{{ID: "tabset-lecture", Widget: "lecture", Box: env.Box{W: 720, H: 450}}},
	})

	_, out, err := s.handleGetEnvironment(context.Background(), nil, GetEnvironmentInput{})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if out.Geometry.Viewport.W != 1440 {
		t.Fatalf("expected reported viewport, got %+v", out.Geometry.Viewport)
	}
}

func TestHandleUndo(t *testing.T) {
	s := newTestServer(t)

	_, added, _ := s.handleAddTab(context.Background(), nil, AddTabInput{
		PaneID:    "tabset-quiz",
		Title:     "Extra",
		ContentID: "quiz",
	})
	if !added.Success {
		t.Fatalf("setup addTab failed: %+v", added)
	}

	_, out, err := s.handleUndo(context.Background(), nil, UndoInput{})
	if err != nil || !out.Success {
		t.Fatalf("undo failed: %+v %v", out, err)
	}
	pane := layout.FindNode(s.store.SnapshotTree(), "tabset-quiz")
	if len(pane.Tabs) != 1 {
		t.Fatalf("undo did not restore, got %d tabs", len(pane.Tabs))
	}
}
