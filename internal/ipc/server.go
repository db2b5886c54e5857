package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/lfedronic/deskd/internal/command"
	"github.com/lfedronic/deskd/internal/env"
	"github.com/lfedronic/deskd/internal/layout"
	"github.com/lfedronic/deskd/internal/runtimepath"
	"github.com/lfedronic/deskd/internal/store"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	store        *store.Store
	executor     *command.Executor
	geometry     func() env.Snapshot
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. geometry supplies the current pane
// measurements for GET_ENV; reloadChan is tickled on RELOAD so the daemon
// can re-read its config.
func NewServer(st *store.Store, exec *command.Executor, geometry func() env.Snapshot, socketPath string, reloadChan chan struct{}) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		store:      st,
		executor:   exec,
		geometry:   geometry,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	slog.Info("ipc server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			slog.Warn("ipc accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection: one JSON request per
// line, one JSON response back.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		slog.Warn("ipc read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		slog.Warn("ipc marshal error", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		slog.Warn("ipc write error", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandExec:
		return s.handleExec(req.Payload)
	case CommandGetLayout:
		return s.handleGetLayout()
	case CommandGetEnv:
		return s.handleGetEnv()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandReload:
		return s.handleReload()
	case CommandUndo:
		return s.handleUndo()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleExec decodes and runs one layout command. Executor failures are
// still OK responses; the caller inspects the embedded result.
func (s *Server) handleExec(payload json.RawMessage) *Response {
	var exec ExecPayload
	if err := json.Unmarshal(payload, &exec); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid exec payload: %v", err))
	}
	if exec.Action == "" {
		return NewErrorResponse("action is required")
	}

	cmd, fail := command.Decode(exec.Action, exec.Args)
	if fail != nil {
		resp, _ := NewOKResponse(fail)
		return resp
	}

	res := s.executor.ResolveAndExecute(cmd)
	resp, err := NewOKResponse(res)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetLayout() *Response {
	tree := s.store.SnapshotTree()
	if tree == nil {
		return NewErrorResponse("layout tree not initialized")
	}
	resp, err := NewOKResponse(map[string]any{
		"tree":   tree,
		"labels": s.store.Labels(),
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetEnv() *Response {
	if !s.store.Ready() {
		return NewErrorResponse("layout tree not initialized")
	}
	resp, err := NewOKResponse(s.geometry())
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetStatus() *Response {
	tree := s.store.SnapshotTree()
	status := StatusData{
		Ready:         tree != nil,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	if tree != nil {
		status.PaneCount = len(layout.Tabsets(tree))
		status.TabCount = layout.CountTabs(tree)
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleReload() *Response {
	slog.Info("ipc reload requested")

	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleUndo() *Response {
	res := s.executor.Undo()
	resp, err := NewOKResponse(res)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
