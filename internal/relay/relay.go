// Package relay brokers tool calls that must execute in the browser. The
// daemon cannot run a quiz grader or content renderer itself; it forwards
// the call to connected UI clients over SSE, parks the caller, and
// completes it when a client posts the result back.
package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Call is one pending client-side tool invocation.
type Call struct {
	ID   string         `json:"id"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// Broker fans pending calls out to subscribed clients and routes posted
// results back to the waiting dispatcher.
type Broker struct {
	mu      sync.Mutex
	waiters map[string]chan string
	subs    map[int]chan Call
	nextSub int
}

// New creates an empty broker.
func New() *Broker {
	return &Broker{
		waiters: make(map[string]chan string),
		subs:    make(map[int]chan Call),
	}
}

// Subscribe registers a client stream. Calls are dropped for subscribers
// whose buffer is full; a stalled client must not park the dispatcher.
func (b *Broker) Subscribe() (<-chan Call, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	ch := make(chan Call, 16)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// SubscriberCount reports how many clients are connected.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dispatch forwards a call to connected clients and blocks until a result
// is posted or ctx expires. With no subscribers it fails immediately
// instead of holding the caller for the full timeout.
func (b *Broker) Dispatch(ctx context.Context, tool string, args map[string]any) (string, error) {
	call := Call{ID: uuid.NewString(), Tool: tool, Args: args}

	b.mu.Lock()
	if len(b.subs) == 0 {
		b.mu.Unlock()
		return "", fmt.Errorf("no clients connected to execute %s", tool)
	}
	result := make(chan string, 1)
	b.waiters[call.ID] = result
	for _, sub := range b.subs {
		select {
		case sub <- call:
		default:
		}
	}
	b.mu.Unlock()

	select {
	case out := <-result:
		return out, nil
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.waiters, call.ID)
		b.mu.Unlock()
		return "", fmt.Errorf("client execution of %s timed out: %w", tool, ctx.Err())
	}
}

// Complete posts a client's result for a pending call. It reports whether
// a dispatcher was still waiting; late or duplicate results are dropped.
func (b *Broker) Complete(callID, result string) bool {
	b.mu.Lock()
	ch, ok := b.waiters[callID]
	if ok {
		delete(b.waiters, callID)
	}
	b.mu.Unlock()
	if !ok {
		return false
	}
	ch <- result
	return true
}
