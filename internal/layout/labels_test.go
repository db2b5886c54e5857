package layout

import "testing"

func TestBuildLabelMapSeed(t *testing.T) {
	labels := BuildLabelMap(Seed())

	want := map[string]string{
		"lectureNotesPane": "tabset-lecture",
		"quizPane":         "tabset-quiz",
		"diagramPane":      "tabset-diagram",
		"summaryPane":      "tabset-summary",
		RootLabel:          "root",
	}
	if len(labels) != len(want) {
		t.Fatalf("expected %d labels, got %d: %v", len(want), len(labels), labels)
	}
	for key, id := range want {
		if labels[key] != id {
			t.Fatalf("label %q: expected %q, got %q", key, id, labels[key])
		}
	}
}

func TestBuildLabelMapSkipsUnnamedFirstTab(t *testing.T) {
	root := Seed()
	FindNode(root, "tabset-quiz").Tabs[0].Name = ""

	labels := BuildLabelMap(root)
	for key, id := range labels {
		if id == "tabset-quiz" {
			t.Fatalf("unnamed tabset should carry no label, got %q", key)
		}
	}
}

func TestBuildLabelMapSkipsUnmappableName(t *testing.T) {
	root := Seed()
	FindNode(root, "tabset-quiz").Tabs[0].Name = "日本語"

	labels := BuildLabelMap(root)
	if id, ok := labels["Pane"]; ok {
		t.Fatalf("bare Pane label must never exist, got %q", id)
	}
	for key, id := range labels {
		if id == "tabset-quiz" {
			t.Fatalf("unmappable name should yield no label, got %q", key)
		}
	}
}

func TestBuildLabelMapFirstWinsOnCollision(t *testing.T) {
	root := Seed()
	// Give two tabsets identical first-tab names.
	FindNode(root, "tabset-summary").Tabs[0].Name = "Quiz"

	labels := BuildLabelMap(root)
	if labels["quizPane"] != "tabset-quiz" {
		t.Fatalf("expected first tabset in walk order to win, got %q", labels["quizPane"])
	}
}

func TestResolveLabel(t *testing.T) {
	labels := BuildLabelMap(Seed())

	if got := ResolveLabel(labels, "quizPane"); got != "tabset-quiz" {
		t.Fatalf("expected tabset-quiz, got %q", got)
	}
	// Raw ids and unknown strings pass through unchanged.
	if got := ResolveLabel(labels, "tabset-quiz"); got != "tabset-quiz" {
		t.Fatalf("raw id must pass through, got %q", got)
	}
	if got := ResolveLabel(labels, "nonexistent-pane"); got != "nonexistent-pane" {
		t.Fatalf("unknown ref must pass through, got %q", got)
	}
}

func TestCamelKey(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"Quiz", "quiz"},
		{"Lecture Notes", "lectureNotes"},
		{"My   Homework-2", "myHomework2"},
		{"!!!", ""},
		{"日本語", ""},
	}
	for _, tc := range cases {
		if got := camelKey(tc.in); got != tc.out {
			t.Fatalf("camelKey(%q): expected %q, got %q", tc.in, tc.out, got)
		}
	}
}
