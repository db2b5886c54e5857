// Package env builds serializable descriptions of pane geometry for AI
// grounding context. The snapshot shape is the contract; where the numbers
// come from is abstracted behind the Geometry interface so the engine works
// headless (weight-derived boxes) or with client-reported measurements.
package env

import (
	"math"

	"github.com/lfedronic/deskd/internal/layout"
)

// Minimum pane floor reported to agents so they can reason about whether a
// further split is feasible.
const (
	MinPaneWidth  = 320
	MinPaneHeight = 240
)

// Viewport describes the rendering surface.
type Viewport struct {
	W   int     `json:"w"`
	H   int     `json:"h"`
	DPR float64 `json:"dpr"`
}

// Box is a measured pane size in pixels.
type Box struct {
	W int `json:"w"`
	H int `json:"h"`
}

// PaneBox is one pane entry of a snapshot.
type PaneBox struct {
	ID     string `json:"id"`
	Widget string `json:"widget"`
	Box    Box    `json:"box"`
	MinW   int    `json:"minW"`
	MinH   int    `json:"minH"`
}

// Snapshot is a point-in-time description of viewport and pane geometry.
type Snapshot struct {
	Viewport Viewport  `json:"viewport"`
	Panes    []PaneBox `json:"panes"`
}

// Geometry supplies the current measured geometry of each pane.
type Geometry interface {
	Measure(root *layout.Node) Snapshot
}

// WeightGeometry derives pane boxes by partitioning a fixed viewport among
// the tree's tabsets according to their weights: rows split width,
// columns split height. It is the headless stand-in for a real renderer.
type WeightGeometry struct {
	Viewport Viewport
}

// Measure walks the tree and assigns each tabset its weight share of the
// viewport.
func (g WeightGeometry) Measure(root *layout.Node) Snapshot {
	snap := Snapshot{Viewport: g.Viewport}
	if root == nil {
		return snap
	}
	measureInto(root, Box{W: g.Viewport.W, H: g.Viewport.H}, &snap.Panes)
	return snap
}

func measureInto(n *layout.Node, box Box, out *[]PaneBox) {
	if n.Kind == layout.KindTabset {
		widget := ""
		for _, tab := range n.Tabs {
			if tab.ID == n.ActiveTabID {
				widget = tab.ContentID
				break
			}
		}
		if widget == "" && len(n.Tabs) > 0 {
			widget = n.Tabs[0].ContentID
		}
		*out = append(*out, PaneBox{
			ID:     n.ID,
			Widget: widget,
			Box:    box,
			MinW:   MinPaneWidth,
			MinH:   MinPaneHeight,
		})
		return
	}

	total := 0.0
	for _, child := range n.Children {
		total += child.Weight
	}
	if total <= 0 {
		total = float64(len(n.Children))
	}
	for _, child := range n.Children {
		share := child.Weight / total
		if child.Weight <= 0 {
			share = 1 / total
		}
		childBox := box
		if n.Kind == layout.KindRow {
			childBox.W = int(math.Round(float64(box.W) * share))
		} else {
			childBox.H = int(math.Round(float64(box.H) * share))
		}
		measureInto(child, childBox, out)
	}
}

// ReportedGeometry replays the most recent client-reported snapshot (the
// browser ResizeObserver path). Panes missing from the report fall back to
// zero boxes rather than stale guesses.
type ReportedGeometry struct {
	Last Snapshot
}

// Measure returns the reported boxes for panes still present in the tree.
func (g ReportedGeometry) Measure(root *layout.Node) Snapshot {
	byID := make(map[string]PaneBox, len(g.Last.Panes))
	for _, p := range g.Last.Panes {
		byID[p.ID] = p
	}
	snap := Snapshot{Viewport: g.Last.Viewport}
	for _, ts := range layout.Tabsets(root) {
		if p, ok := byID[ts.ID]; ok {
			snap.Panes = append(snap.Panes, p)
			continue
		}
		snap.Panes = append(snap.Panes, PaneBox{
			ID:   ts.ID,
			MinW: MinPaneWidth,
			MinH: MinPaneHeight,
		})
	}
	return snap
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Panes = make([]PaneBox, len(s.Panes))
	copy(out.Panes, s.Panes)
	return out
}
