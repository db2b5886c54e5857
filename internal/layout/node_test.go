package layout

import "testing"

func TestSeedValidates(t *testing.T) {
	root := Seed()
	if err := Validate(root); err != nil {
		t.Fatalf("seed layout invalid: %v", err)
	}
	if got := len(Tabsets(root)); got != 4 {
		t.Fatalf("expected 4 tabsets in seed, got %d", got)
	}
	if got := CountTabs(root); got != 4 {
		t.Fatalf("expected 4 tabs in seed, got %d", got)
	}
}

func TestFindNodeAndParent(t *testing.T) {
	root := Seed()

	n := FindNode(root, "tabset-quiz")
	if n == nil || n.Kind != KindTabset {
		t.Fatalf("expected to find tabset-quiz, got %+v", n)
	}

	parent := FindParent(root, "tabset-quiz")
	if parent == nil || parent.ID != "left-column" {
		t.Fatalf("expected parent left-column, got %+v", parent)
	}

	if FindParent(root, "root") != nil {
		t.Fatalf("root must have no parent")
	}
	if FindNode(root, "no-such-id") != nil {
		t.Fatalf("expected nil for unknown id")
	}
}

func TestFindTab(t *testing.T) {
	root := Seed()
	owner, tab := FindTab(root, "tab-diagram")
	if owner == nil || owner.ID != "tabset-diagram" {
		t.Fatalf("expected owner tabset-diagram, got %+v", owner)
	}
	if tab == nil || tab.Name != "Diagram" {
		t.Fatalf("expected tab Diagram, got %+v", tab)
	}

	owner, tab = FindTab(root, "missing")
	if owner != nil || tab != nil {
		t.Fatalf("expected nil/nil for unknown tab")
	}
}

func TestFirstTabset(t *testing.T) {
	root := Seed()

	col := FindNode(root, "left-column")
	ts := FirstTabset(col)
	if ts == nil || ts.ID != "tabset-lecture" {
		t.Fatalf("expected first tabset of left-column to be tabset-lecture, got %+v", ts)
	}

	// A tabset resolves to itself.
	self := FirstTabset(FindNode(root, "tabset-summary"))
	if self == nil || self.ID != "tabset-summary" {
		t.Fatalf("expected tabset to resolve to itself, got %+v", self)
	}

	// The root row has no direct tabset child.
	if FirstTabset(root) != nil {
		t.Fatalf("root row should have no direct tabset child")
	}
}

func TestCloneIsDeep(t *testing.T) {
	root := Seed()
	copy := Clone(root)

	copy.Children[0].Children[0].Tabs[0].Name = "Mutated"
	copy.Children[0].Children[0].ActiveTabID = ""

	if root.Children[0].Children[0].Tabs[0].Name != "Lecture Notes" {
		t.Fatalf("clone mutation leaked into original tab")
	}
	if root.Children[0].Children[0].ActiveTabID != "tab-lecture" {
		t.Fatalf("clone mutation leaked into original node")
	}
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	root := Seed()
	root.Children[1].ID = "left-column"
	if err := Validate(root); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidateRejectsDanglingActiveTab(t *testing.T) {
	root := Seed()
	FindNode(root, "tabset-quiz").ActiveTabID = "tab-lecture"
	if err := Validate(root); err == nil {
		t.Fatalf("expected dangling activeTabId error")
	}
}

func TestValidateRejectsEmptyNonRootContainer(t *testing.T) {
	root := Seed()
	FindNode(root, "left-column").Children = nil
	if err := Validate(root); err == nil {
		t.Fatalf("expected empty container error")
	}
}

func TestValidateAllowsEmptyRoot(t *testing.T) {
	root := &Node{ID: "root", Kind: KindRow, Weight: 100}
	if err := Validate(root); err != nil {
		t.Fatalf("empty root should be well-formed: %v", err)
	}
}

func TestNewNodeIDUnique(t *testing.T) {
	a := NewNodeID("tab")
	b := NewNodeID("tab")
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	if len(a) <= len("tab-") {
		t.Fatalf("id %q missing random suffix", a)
	}
}
