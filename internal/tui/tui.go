// Package tui is a terminal inspector for a running daemon: it renders
// the layout tree and pane geometry live over IPC, mainly for debugging
// agent sessions without a browser attached.
package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/lfedronic/deskd/internal/ipc"
)

// refreshInterval paces the IPC polling loop.
const refreshInterval = time.Second

// Run starts the inspector, blocking until the user quits.
func Run(socketPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(ipc.NewClient(socketPath)), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type view int

const (
	viewLayout view = iota
	viewEnv
)

type tickMsg time.Time

type refreshMsg struct {
	layout *ipc.LayoutData
	env    *envData
	status *ipc.StatusData
	err    error
}

// model is the root bubbletea model for the inspector.
type model struct {
	client *ipc.Client

	activeView view
	layout     *ipc.LayoutData
	env        *envData
	status     *ipc.StatusData
	lastError  string
	notice     string

	width  int
	height int
}

func newModel(client *ipc.Client) model {
	return model{client: client, activeView: viewLayout}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.refresh, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh pulls a fresh snapshot from the daemon.
func (m model) refresh() tea.Msg {
	msg := refreshMsg{}

	msg.status, msg.err = m.client.GetStatus()
	if msg.err != nil {
		return msg
	}
	if msg.layout, msg.err = m.client.GetLayout(); msg.err != nil {
		return msg
	}
	snap, err := m.client.GetEnv()
	if err != nil {
		msg.err = err
		return msg
	}
	msg.env = &envData{snapshot: snap}
	return msg
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refresh, tick())

	case refreshMsg:
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		m.layout = msg.layout
		m.env = msg.env
		m.status = msg.status
		return m, nil

	case undoMsg:
		m.notice = msg.text
		return m, m.refresh

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "e":
			if m.activeView == viewLayout {
				m.activeView = viewEnv
			} else {
				m.activeView = viewLayout
			}
			return m, nil
		case "r":
			m.notice = ""
			return m, m.refresh
		case "u":
			return m, m.undo
		}
	}
	return m, nil
}

type undoMsg struct{ text string }

func (m model) undo() tea.Msg {
	res, err := m.client.Undo()
	if err != nil {
		return refreshMsg{err: err}
	}
	if !res.Success {
		return undoMsg{text: res.Message}
	}
	return undoMsg{text: "reverted last mutation"}
}
