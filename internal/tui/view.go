package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lfedronic/deskd/internal/env"
	"github.com/lfedronic/deskd/internal/layout"
)

type envData struct {
	snapshot *env.Snapshot
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1)
)

// View implements tea.Model.
func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.statusBar())
	b.WriteString("\n\n")

	if m.lastError != "" {
		b.WriteString(errorStyle.Render("daemon unreachable: " + m.lastError))
		b.WriteString("\n")
	} else {
		switch m.activeView {
		case viewLayout:
			b.WriteString(m.layoutView())
		case viewEnv:
			b.WriteString(m.envView())
		}
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(m.notice))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab: switch view · r: refresh · u: undo · q: quit"))
	return b.String()
}

func (m model) statusBar() string {
	name := "layout"
	if m.activeView == viewEnv {
		name = "environment"
	}
	header := titleStyle.Render(fmt.Sprintf("deskd · %s", name))
	if m.status == nil {
		return header
	}
	return header + dimStyle.Render(fmt.Sprintf(
		"   %d panes, %d tabs, up %ds",
		m.status.PaneCount, m.status.TabCount, m.status.UptimeSeconds,
	))
}

func (m model) layoutView() string {
	if m.layout == nil || m.layout.Tree == nil {
		return dimStyle.Render("waiting for layout...")
	}

	var b strings.Builder
	renderNode(&b, m.layout.Tree, "", m.layout.Labels)
	return b.String()
}

// renderNode draws one node and its subtree with box-drawing indents.
func renderNode(b *strings.Builder, n *layout.Node, indent string, labels map[string]string) {
	label := labelFor(n.ID, labels)
	switch n.Kind {
	case layout.KindTabset:
		fmt.Fprintf(b, "%s%s %s%s\n", indent, "▣", n.ID, label)
		for _, tab := range n.Tabs {
			marker := " "
			name := tab.Name
			if tab.ID == n.ActiveTabID {
				marker = "●"
				name = activeStyle.Render(name)
			}
			fmt.Fprintf(b, "%s  %s %s %s\n", indent, marker, name, dimStyle.Render("("+tab.ContentID+")"))
		}
	default:
		fmt.Fprintf(b, "%s%s %s %s (%.0f)%s\n", indent, "▤", n.Kind, n.ID, n.Weight, label)
		for _, child := range n.Children {
			renderNode(b, child, indent+"  ", labels)
		}
	}
}

func labelFor(id string, labels map[string]string) string {
	for label, target := range labels {
		if target == id {
			return "  " + labelStyle.Render(label)
		}
	}
	return ""
}

func (m model) envView() string {
	if m.env == nil || m.env.snapshot == nil {
		return dimStyle.Render("waiting for environment...")
	}
	snap := m.env.snapshot

	var b strings.Builder
	fmt.Fprintf(&b, "viewport: %dx%d @%gx\n\n", snap.Viewport.W, snap.Viewport.H, snap.Viewport.DPR)

	panes := make([]env.PaneBox, len(snap.Panes))
	copy(panes, snap.Panes)
	sort.Slice(panes, func(i, j int) bool { return panes[i].ID < panes[j].ID })

	for _, p := range panes {
		fits := ""
		if p.Box.W > 0 && (p.Box.W < p.MinW || p.Box.H < p.MinH) {
			fits = errorStyle.Render("  below minimum")
		}
		fmt.Fprintf(&b, "%-40s %-10s %4dx%-4d%s\n", p.ID, p.Widget, p.Box.W, p.Box.H, fits)
	}
	return b.String()
}
