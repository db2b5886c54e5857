package layout

// Seed returns the fixed 2×2 starter layout: a root row holding two
// columns, each with two single-tab tabsets (lecture, quiz, diagram,
// summary). Ids are stable so tests and agents can address the seed panes
// directly; everything created afterwards gets generated ids.
func Seed() *Node {
	return &Node{
		ID:     "root",
		Kind:   KindRow,
		Weight: 100,
		Children: []*Node{
			{
				ID:     "left-column",
				Kind:   KindColumn,
				Weight: 50,
				Children: []*Node{
					{
						ID:     "tabset-lecture",
						Kind:   KindTabset,
						Weight: 50,
						Tabs: []*Tab{
							{ID: "tab-lecture", Name: "Lecture Notes", ContentID: ContentLecture},
						},
						ActiveTabID: "tab-lecture",
					},
					{
						ID:     "tabset-quiz",
						Kind:   KindTabset,
						Weight: 50,
						Tabs: []*Tab{
							{ID: "tab-quiz", Name: "Quiz", ContentID: ContentQuiz},
						},
						ActiveTabID: "tab-quiz",
					},
				},
			},
			{
				ID:     "right-column",
				Kind:   KindColumn,
				Weight: 50,
				Children: []*Node{
					{
						ID:     "tabset-diagram",
						Kind:   KindTabset,
						Weight: 50,
						Tabs: []*Tab{
							{ID: "tab-diagram", Name: "Diagram", ContentID: ContentDiagram},
						},
						ActiveTabID: "tab-diagram",
					},
					{
						ID:     "tabset-summary",
						Kind:   KindTabset,
						Weight: 50,
						Tabs: []*Tab{
							{ID: "tab-summary", Name: "Summary", ContentID: ContentSummary},
						},
						ActiveTabID: "tab-summary",
					},
				},
			},
		},
	}
}
