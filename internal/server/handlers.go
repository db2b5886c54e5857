package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lfedronic/deskd/internal/command"
	"github.com/lfedronic/deskd/internal/env"
	"github.com/lfedronic/deskd/internal/relay"
)

// handleVoiceToolsGet serves two things from one path: a health probe
// (?health=true) and the per-client SSE stream (?clientId=...).
func (s *Server) handleVoiceToolsGet(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("health") == "true" {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"ready":         s.store.Ready(),
			"clients":       s.registry.ClientCount(),
			"uptimeSeconds": int64(time.Since(s.started).Seconds()),
		})
		return
	}

	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		writeJSONError(w, http.StatusBadRequest, "clientId query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancelEvents := s.registry.Add(clientID)
	defer cancelEvents()
	pending, cancelPending := s.broker.Subscribe()
	defer cancelPending()

	heartbeat := time.NewTicker(s.config.SSEHeartbeat())
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if ok && !writeSSE(w, flusher, ev.Name, ev.Data) {
				return
			}
			if !ok {
				// Superseded by a reconnect with the same clientId.
				return
			}
		case call := <-pending:
			data, err := json.Marshal(call)
			if err != nil {
				continue
			}
			if !writeSSE(w, flusher, "toolCall", data) {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data []byte) bool {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

// handleGetLayout returns the current tree and label map.
func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	tree := s.store.SnapshotTree()
	if tree == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "layout tree not initialized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tree":   tree,
		"labels": s.store.Labels(),
	})
}

type layoutCommandRequest struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args"`
}

// handlePostLayout executes one decoded layout command. The executor's
// discriminated result is always the body; HTTP status reflects only
// transport-level problems.
func (s *Server) handlePostLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.Action == "undo" {
		writeJSON(w, http.StatusOK, s.executor.Undo())
		return
	}

	cmd, fail := command.Decode(req.Action, req.Args)
	if fail != nil {
		writeJSON(w, http.StatusOK, fail)
		return
	}
	writeJSON(w, http.StatusOK, s.executor.ResolveAndExecute(cmd))
}

// handleGetEnv returns measured pane geometry.
func (s *Server) handleGetEnv(w http.ResponseWriter, r *http.Request) {
	if !s.store.Ready() {
		writeJSONError(w, http.StatusServiceUnavailable, "layout tree not initialized")
		return
	}
	writeJSON(w, http.StatusOK, s.measureGeometry())
}

// handlePostEnv accepts a client-reported geometry snapshot (the browser
// ResizeObserver path).
func (s *Server) handlePostEnv(w http.ResponseWriter, r *http.Request) {
	var snap env.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid snapshot: %v", err))
		return
	}
	if snap.Viewport.W <= 0 || snap.Viewport.H <= 0 {
		writeJSONError(w, http.StatusBadRequest, "viewport dimensions must be positive")
		return
	}
	s.store.SetEnv(snap)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleRelayCall dispatches a tool call to connected clients and blocks
// until a result is posted or the tool timeout expires.
func (s *Server) handleRelayCall(w http.ResponseWriter, r *http.Request) {
	var call relay.Call
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid call: %v", err))
		return
	}
	if call.Tool == "" {
		writeJSONError(w, http.StatusBadRequest, "tool is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.ToolTimeout())
	defer cancel()

	result, err := s.broker.Dispatch(ctx, call.Tool, call.Args)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": json.RawMessage(result)})
}

type relayResultRequest struct {
	CallID string          `json:"callId"`
	Result json.RawMessage `json:"result"`
}

// handleRelayResult completes a pending client-executed call. Unknown or
// duplicate results are acknowledged but reported as not delivered.
func (s *Server) handleRelayResult(w http.ResponseWriter, r *http.Request) {
	var req relayResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid result: %v", err))
		return
	}
	if req.CallID == "" {
		writeJSONError(w, http.StatusBadRequest, "callId is required")
		return
	}

	delivered := s.broker.Complete(req.CallID, string(req.Result))
	writeJSON(w, http.StatusOK, map[string]any{"delivered": delivered})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
