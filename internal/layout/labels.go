package layout

import "strings"

// RootLabel is always present in a label map and names the tree root.
const RootLabel = "rootRow"

// BuildLabelMap derives human-guessable keys for every tabset whose first
// tab has a name: "Quiz" becomes "quizPane". The map is rebuilt from
// scratch on every mutation; trees are tens of nodes, so a full walk is
// cheaper than keeping it incrementally correct.
func BuildLabelMap(root *Node) map[string]string {
	labels := make(map[string]string)
	if root == nil {
		return labels
	}
	Walk(root, func(n *Node) bool {
		if n.Kind == KindTabset && len(n.Tabs) > 0 && n.Tabs[0].Name != "" {
			// A name with no usable characters gets no label at all; a bare
			// "Pane" key would be meaningless and collide across panes.
			stem := camelKey(n.Tabs[0].Name)
			if stem == "" {
				return true
			}
			key := stem + "Pane"
			if _, taken := labels[key]; !taken {
				labels[key] = n.ID
			}
		}
		return true
	})
	labels[RootLabel] = root.ID
	return labels
}

// ResolveLabel substitutes a label-map key with its node id; any other
// string passes through unchanged (it may already be a raw id). Adapters
// apply this to node-reference fields only, never to titles or content.
func ResolveLabel(labels map[string]string, ref string) string {
	if id, ok := labels[ref]; ok {
		return id
	}
	return ref
}

// camelKey lowercases, strips non-alphanumerics, and camel-cases the
// remaining words: "Lecture Notes" -> "lectureNotes".
func camelKey(name string) string {
	var words []string
	var current strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	if len(words) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(words[0])
	for _, w := range words[1:] {
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(w[1:])
	}
	return sb.String()
}
