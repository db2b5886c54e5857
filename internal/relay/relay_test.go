package relay

import (
	"context"
	"testing"
	"time"
)

func TestDispatchRoundTrip(t *testing.T) {
	b := New()
	calls, cancel := b.Subscribe()
	defer cancel()

	go func() {
		call := <-calls
		if call.Tool != "generateQuiz" {
			t.Errorf("unexpected tool %q", call.Tool)
		}
		if !b.Complete(call.ID, `{"success":true}`) {
			t.Errorf("complete must find the waiter")
		}
	}()

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	out, err := b.Dispatch(ctx, "generateQuiz", map[string]any{"topic": "fractions"})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if out != `{"success":true}` {
		t.Fatalf("unexpected result %q", out)
	}
}

func TestDispatchWithoutClients(t *testing.T) {
	b := New()
	_, err := b.Dispatch(context.Background(), "generateQuiz", nil)
	if err == nil {
		t.Fatalf("dispatch with no subscribers must fail fast")
	}
}

func TestDispatchTimeout(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe()
	defer cancel()

	ctx, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	_, err := b.Dispatch(ctx, "generateQuiz", nil)
	if err == nil {
		t.Fatalf("expected timeout")
	}

	// The waiter must be reaped; a late result is dropped, not delivered.
	if b.Complete("bogus", "late") {
		t.Fatalf("complete for unknown call must report false")
	}
}

func TestCompleteDuplicateDropped(t *testing.T) {
	b := New()
	calls, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		call := <-calls
		if !b.Complete(call.ID, "first") {
			t.Errorf("first complete must land")
		}
		if b.Complete(call.ID, "second") {
			t.Errorf("second complete must be dropped")
		}
	}()

	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	out, err := b.Dispatch(ctx, "gradeQuiz", nil)
	if err != nil || out != "first" {
		t.Fatalf("unexpected dispatch outcome: %q %v", out, err)
	}
	<-done
}

func TestUnsubscribedClientNotCounted(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber")
	}
	cancel()
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after cancel")
	}
}
