package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lfedronic/deskd/internal/command"
	"github.com/lfedronic/deskd/internal/content"
)

// toolCall is the normalized form of one webhook tool invocation.
type toolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// webhookRequest accepts both wire shapes the voice platform emits: a
// flat toolCalls array with nested function objects, and the
// message.toolCallList form.
type webhookRequest struct {
	ToolCalls []rawToolCall `json:"toolCalls"`
	Message   struct {
		ToolCallList []rawToolCall `json:"toolCallList"`
	} `json:"message"`
}

type rawToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Function  *struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type toolCallResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

type webhookResponse struct {
	Results []toolCallResult `json:"results"`
}

// handleWebhook processes one batch of voice-platform tool calls. Every
// call gets a result string back regardless of outcome; a timeout or
// failure in one call never aborts the rest of the batch.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	calls, err := normalizeCalls(req)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(calls) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no tool calls in request")
		return
	}

	resp := webhookResponse{Results: make([]toolCallResult, 0, len(calls))}
	for i, call := range calls {
		result := s.runToolCall(r.Context(), call)
		resp.Results = append(resp.Results, toolCallResult{ToolCallID: call.ID, Result: result})

		// Pacing between calls gives the UI time to animate each change.
		if i < len(calls)-1 {
			select {
			case <-time.After(s.config.InterCallDelay()):
			case <-r.Context().Done():
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func normalizeCalls(req webhookRequest) ([]toolCall, error) {
	raw := req.ToolCalls
	if len(raw) == 0 {
		raw = req.Message.ToolCallList
	}

	calls := make([]toolCall, 0, len(raw))
	for i, rc := range raw {
		call := toolCall{ID: rc.ID, Name: rc.Name}
		args := rc.Arguments
		if rc.Function != nil {
			call.Name = rc.Function.Name
			args = rc.Function.Arguments
		}
		if call.Name == "" {
			return nil, fmt.Errorf("tool call %d has no name", i)
		}
		if call.ID == "" {
			call.ID = fmt.Sprintf("call-%d", i)
		}

		parsed, err := parseArgs(args)
		if err != nil {
			return nil, fmt.Errorf("tool call %q: %w", call.Name, err)
		}
		call.Args = parsed
		calls = append(calls, call)
	}
	return calls, nil
}

// parseArgs tolerates both an arguments object and the double-encoded
// JSON string some tool-calling runtimes emit.
func parseArgs(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err == nil {
		return args, nil
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("arguments are neither an object nor a JSON string")
	}
	if encoded == "" {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal([]byte(encoded), &args); err != nil {
		return nil, fmt.Errorf("failed to parse argument string: %w", err)
	}
	return args, nil
}

// runToolCall executes one call under the per-call timeout and returns
// the result string handed back to the voice platform. Successes are
// also broadcast to open browser streams; the webhook caller and the
// browser are different connections.
func (s *Server) runToolCall(ctx context.Context, call toolCall) string {
	ctx, cancel := context.WithTimeout(ctx, s.config.ToolTimeout())
	defer cancel()

	type outcome struct {
		result    string
		broadcast any
		err       error
	}
	done := make(chan outcome, 1)
	go func() {
		result, payload, err := s.dispatchTool(ctx, call)
		done <- outcome{result: result, broadcast: payload, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			slog.Warn("tool call failed", "tool", call.Name, "error", out.err)
			return fmt.Sprintf("Error executing %s: %v", call.Name, out.err)
		}
		if out.broadcast != nil {
			if err := s.registry.Broadcast("toolResult", out.broadcast); err != nil {
				slog.Warn("tool result broadcast failed", "tool", call.Name, "error", err)
			}
		}
		return out.result
	case <-ctx.Done():
		slog.Warn("tool call timed out", "tool", call.Name, "timeout", s.config.ToolTimeout())
		return fmt.Sprintf("Error executing %s: timed out after %s", call.Name, s.config.ToolTimeout())
	}
}

// dispatchTool routes a named call to the right backend: layout verbs to
// the executor, content generators locally, anything else to connected
// clients via the relay broker.
func (s *Server) dispatchTool(ctx context.Context, call toolCall) (string, any, error) {
	if isLayoutVerb(call.Name) {
		cmd, fail := command.Decode(call.Name, call.Args)
		if fail != nil {
			return "", nil, fmt.Errorf("%s", fail.Message)
		}
		res := s.executor.ResolveAndExecute(cmd)
		data, err := json.Marshal(res)
		if err != nil {
			return "", nil, err
		}
		if !res.Success {
			return "", nil, fmt.Errorf("%s: %s", res.Error, res.Message)
		}
		payload := map[string]any{"tool": call.Name, "result": res}
		return string(data), payload, nil
	}

	if s.content != nil && isContentTool(call.Name) {
		req := contentRequest(call.Args)
		out, err := s.content.Generate(contentKind(call.Name), req)
		if err != nil {
			return "", nil, err
		}
		data, err := json.Marshal(map[string]any{"success": true, "content": out})
		if err != nil {
			return "", nil, err
		}
		payload := map[string]any{"tool": call.Name, "content": out}
		return string(data), payload, nil
	}

	// Unknown tools are assumed client-executed.
	result, err := s.broker.Dispatch(ctx, call.Name, call.Args)
	if err != nil {
		return "", nil, err
	}
	payload := map[string]any{"tool": call.Name, "result": json.RawMessage(result)}
	return result, payload, nil
}

func isLayoutVerb(name string) bool {
	switch name {
	case "addTab", "activateTab", "closeTab", "split", "splitPane", "moveTab", "getEnv", "getEnvironment":
		return true
	}
	return false
}

// isContentTool matches the generate* tool family.
func isContentTool(name string) bool {
	switch name {
	case "generateSummary", "generateQuiz", "generateDiagram", "generateWebpage":
		return true
	}
	return false
}

// contentKind maps tool names to registry content ids.
func contentKind(name string) string {
	switch name {
	case "generateSummary":
		return "summary"
	case "generateQuiz":
		return "quiz"
	case "generateDiagram":
		return "diagram"
	case "generateWebpage":
		return "webpage"
	}
	return name
}

func contentRequest(args map[string]any) content.Request {
	req := content.Request{}
	if v, ok := args["topic"].(string); ok {
		req.Topic = v
	}
	if v, ok := args["length"].(string); ok {
		req.Length = v
	}
	switch v := args["count"].(type) {
	case float64:
		req.Count = int(v)
	case int:
		req.Count = v
	}
	return req
}
