package env

import (
	"testing"

	"github.com/lfedronic/deskd/internal/layout"
)

func TestWeightGeometryPartitionsViewport(t *testing.T) {
	g := WeightGeometry{Viewport: Viewport{W: 1600, H: 900, DPR: 1}}
	snap := g.Measure(layout.Seed())

	if len(snap.Panes) != 4 {
		t.Fatalf("expected 4 panes, got %d", len(snap.Panes))
	}

	byID := make(map[string]PaneBox)
	for _, p := range snap.Panes {
		byID[p.ID] = p
	}

	// Seed: root row splits width evenly, each column splits height evenly.
	lecture := byID["tabset-lecture"]
	if lecture.Box.W != 800 || lecture.Box.H != 450 {
		t.Fatalf("unexpected lecture box: %+v", lecture.Box)
	}
	if lecture.Widget != layout.ContentLecture {
		t.Fatalf("widget must come from the active tab, got %q", lecture.Widget)
	}
	if lecture.MinW != MinPaneWidth || lecture.MinH != MinPaneHeight {
		t.Fatalf("pane floors missing: %+v", lecture)
	}
}

func TestWeightGeometryUnevenWeights(t *testing.T) {
	root := &layout.Node{
		ID:   "root",
		Kind: layout.KindRow,
		Children: []*layout.Node{
			{ID: "a", Kind: layout.KindTabset, Weight: 75,
				Tabs: []*layout.Tab{{ID: "t1", Name: "A", ContentID: "lecture"}}, ActiveTabID: "t1"},
			{ID: "b", Kind: layout.KindTabset, Weight: 25,
				Tabs: []*layout.Tab{{ID: "t2", Name: "B", ContentID: "quiz"}}, ActiveTabID: "t2"},
		},
	}
	snap := WeightGeometry{Viewport: Viewport{W: 1000, H: 600, DPR: 1}}.Measure(root)
	if snap.Panes[0].Box.W != 750 || snap.Panes[1].Box.W != 250 {
		t.Fatalf("weights not honored: %+v %+v", snap.Panes[0].Box, snap.Panes[1].Box)
	}
	if snap.Panes[0].Box.H != 600 {
		t.Fatalf("row split must keep full height, got %d", snap.Panes[0].Box.H)
	}
}

func TestWeightGeometryZeroWeightsSplitEvenly(t *testing.T) {
	root := &layout.Node{
		ID:   "root",
		Kind: layout.KindColumn,
		Children: []*layout.Node{
			{ID: "a", Kind: layout.KindTabset,
				Tabs: []*layout.Tab{{ID: "t1", Name: "A", ContentID: "lecture"}}},
			{ID: "b", Kind: layout.KindTabset,
				Tabs: []*layout.Tab{{ID: "t2", Name: "B", ContentID: "quiz"}}},
		},
	}
	snap := WeightGeometry{Viewport: Viewport{W: 800, H: 600, DPR: 1}}.Measure(root)
	if snap.Panes[0].Box.H != 300 || snap.Panes[1].Box.H != 300 {
		t.Fatalf("zero weights must split evenly: %+v %+v", snap.Panes[0].Box, snap.Panes[1].Box)
	}
}

func TestReportedGeometryReplaysAndBackfills(t *testing.T) {
	root := layout.Seed()
	g := ReportedGeometry{Last: Snapshot{
		Viewport: Viewport{W: 1440, H: 900, DPR: 2},
		Panes: []PaneBox{
			{ID: "tabset-lecture", Widget: "lecture", Box: Box{W: 720, H: 450}, MinW: MinPaneWidth, MinH: MinPaneHeight},
			{ID: "tabset-gone", Widget: "quiz", Box: Box{W: 1, H: 1}},
		},
	}}
	snap := g.Measure(root)

	if len(snap.Panes) != 4 {
		t.Fatalf("expected one entry per live tabset, got %d", len(snap.Panes))
	}
	byID := make(map[string]PaneBox)
	for _, p := range snap.Panes {
		byID[p.ID] = p
	}
	if byID["tabset-lecture"].Box.W != 720 {
		t.Fatalf("reported box lost: %+v", byID["tabset-lecture"])
	}
	if _, ok := byID["tabset-gone"]; ok {
		t.Fatalf("panes no longer in the tree must not be reported")
	}
	// tabset-quiz was not in the report; it gets a zero box, not a guess.
	if byID["tabset-quiz"].Box.W != 0 || byID["tabset-quiz"].MinW != MinPaneWidth {
		t.Fatalf("unreported pane must get zero box with floors: %+v", byID["tabset-quiz"])
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	orig := Snapshot{
		Viewport: Viewport{W: 100, H: 100, DPR: 1},
		Panes:    []PaneBox{{ID: "a", Box: Box{W: 50, H: 50}}},
	}
	clone := orig.Clone()
	clone.Panes[0].Box.W = 999
	if orig.Panes[0].Box.W != 50 {
		t.Fatalf("clone must not share pane slice")
	}
}
