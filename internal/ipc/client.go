package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/lfedronic/deskd/internal/command"
	"github.com/lfedronic/deskd/internal/env"
	"github.com/lfedronic/deskd/internal/layout"
	"github.com/lfedronic/deskd/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client. An empty socketPath uses the
// runtime-dir default.
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			// Keep constructor non-failing; sendRequest surfaces connection errors.
			socketPath = ""
		}
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Exec runs one layout command on the daemon and returns its result.
func (c *Client) Exec(action string, args map[string]any) (*command.Result, error) {
	payload, err := json.Marshal(ExecPayload{Action: action, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exec payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandExec, Payload: payload})
	if err != nil {
		return nil, err
	}

	var res command.Result
	if err := json.Unmarshal(resp.Data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse command result: %w", err)
	}
	return &res, nil
}

// LayoutData is the tree and label map returned by GET_LAYOUT.
type LayoutData struct {
	Tree   *layout.Node      `json:"tree"`
	Labels map[string]string `json:"labels"`
}

// GetLayout retrieves the current tree and labels.
func (c *Client) GetLayout() (*LayoutData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetLayout})
	if err != nil {
		return nil, err
	}

	var data LayoutData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse layout data: %w", err)
	}
	return &data, nil
}

// GetEnv retrieves the current geometry snapshot.
func (c *Client) GetEnv() (*env.Snapshot, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetEnv})
	if err != nil {
		return nil, err
	}

	var snap env.Snapshot
	if err := json.Unmarshal(resp.Data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse env snapshot: %w", err)
	}
	return &snap, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}
	return &status, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// Undo reverts the daemon's most recent layout mutation.
func (c *Client) Undo() (*command.Result, error) {
	resp, err := c.sendRequest(&Request{Command: CommandUndo})
	if err != nil {
		return nil, err
	}

	var res command.Result
	if err := json.Unmarshal(resp.Data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse command result: %w", err)
	}
	return &res, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
