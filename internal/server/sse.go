package server

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Event is one named SSE payload.
type Event struct {
	Name string
	Data []byte
}

// sseClient is one open event-stream connection.
type sseClient struct {
	id     string
	events chan Event
}

// SSERegistry tracks open per-client event streams. Broadcasts are
// isolated per client: a full or dead client is dropped without
// affecting delivery to the rest.
type SSERegistry struct {
	mu      sync.Mutex
	clients map[string]*sseClient
}

// NewSSERegistry creates an empty registry.
func NewSSERegistry() *SSERegistry {
	return &SSERegistry{clients: make(map[string]*sseClient)}
}

// Add registers a client stream, replacing any previous connection with
// the same id (a reconnecting browser supersedes its old stream).
func (r *SSERegistry) Add(clientID string) (<-chan Event, func()) {
	c := &sseClient{id: clientID, events: make(chan Event, 32)}

	r.mu.Lock()
	if old, ok := r.clients[clientID]; ok {
		close(old.events)
	}
	r.clients[clientID] = c
	r.mu.Unlock()

	return c.events, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// Only remove if this connection still owns the id.
		if cur, ok := r.clients[clientID]; ok && cur == c {
			delete(r.clients, clientID)
			close(c.events)
		}
	}
}

// ClientCount reports how many streams are open.
func (r *SSERegistry) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Broadcast serializes payload and queues it on every open stream. A
// client whose buffer is full is disconnected rather than blocked on.
func (r *SSERegistry) Broadcast(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		select {
		case c.events <- Event{Name: event, Data: data}:
		default:
			delete(r.clients, id)
			close(c.events)
		}
	}
	return nil
}

// Send queues an event for one client only.
func (r *SSERegistry) Send(clientID, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[clientID]
	if !ok {
		return fmt.Errorf("no stream for client %q", clientID)
	}
	select {
	case c.events <- Event{Name: event, Data: data}:
		return nil
	default:
		delete(r.clients, clientID)
		close(c.events)
		return fmt.Errorf("client %q stream is stalled", clientID)
	}
}
