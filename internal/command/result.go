package command

// ErrorKind tags an expected precondition failure. The executor returns
// these as values; it never panics or errors for anything an agent can
// recover from by rephrasing.
type ErrorKind string

const (
	ErrPaneNotFound      ErrorKind = "PaneNotFound"
	ErrTabNotFound       ErrorKind = "TabNotFound"
	ErrInvalidPane       ErrorKind = "InvalidPane"
	ErrMissingParameters ErrorKind = "MissingParameters"
	ErrExecutionError    ErrorKind = "ExecutionError"
	ErrModelUnavailable  ErrorKind = "ModelUnavailable"
)

// TabDesc describes one tab in an environment description.
type TabDesc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ContentID string `json:"contentId"`
}

// PaneDesc describes one tabset in an environment description.
type PaneDesc struct {
	ID          string    `json:"id"`
	ActiveTabID string    `json:"activeTabId,omitempty"`
	Tabs        []TabDesc `json:"tabs"`
}

// EnvDescription grounds an agent's next command in current state.
type EnvDescription struct {
	Panes      []PaneDesc        `json:"panes"`
	Labels     map[string]string `json:"labels"`
	TotalPanes int               `json:"totalPanes"`
	TotalTabs  int               `json:"totalTabs"`
}

// Result is the discriminated outcome of every command.
type Result struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Error   ErrorKind `json:"error,omitempty"`
	// TabID carries the created (or reactivated) tab for addTab and the
	// placeholder tab for splitPane.
	TabID string `json:"tabId,omitempty"`
	// PaneID carries the tabset created by splitPane.
	PaneID      string          `json:"paneId,omitempty"`
	Environment *EnvDescription `json:"environment,omitempty"`
}

// Ok builds a success result.
func Ok(message string) Result {
	return Result{Success: true, Message: message}
}

// Fail builds a tagged failure result.
func Fail(kind ErrorKind, message string) Result {
	return Result{Success: false, Error: kind, Message: message}
}
