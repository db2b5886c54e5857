// Package store owns the live layout tree. Every mutation goes through
// Update under one mutex, commits atomically or not at all, and rebuilds
// the label map; readers only ever see deep copies. The store is an
// explicit dependency handed to every adapter at construction time — there
// is no package-level singleton.
package store

import (
	"fmt"
	"sync"

	"github.com/lfedronic/deskd/internal/env"
	"github.com/lfedronic/deskd/internal/layout"
)

// maxHistory bounds the undo stack.
const maxHistory = 50

// Store holds the current layout tree, its derived label map, and the most
// recent environment snapshot.
type Store struct {
	mu      sync.Mutex
	root    *layout.Node
	labels  map[string]string
	envSnap env.Snapshot
	hasEnv  bool
	past    []*layout.Node

	subsMu sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// New creates a store seeded with the given tree. A nil root models the
// "UI not mounted yet" state; commands against it fail with
// ModelUnavailable until Reset is called.
func New(root *layout.Node) *Store {
	s := &Store{subs: make(map[int]chan struct{})}
	if root != nil {
		s.root = layout.Clone(root)
		s.labels = layout.BuildLabelMap(s.root)
	}
	return s
}

// Ready reports whether a tree has been installed.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root != nil
}

// Update clones the current tree, applies fn to the clone, and commits the
// clone if fn returns nil. A failed fn leaves the tree untouched, which is
// what makes each command atomic. Committed trees must validate; a clean
// mutation that produces a broken tree is a bug, not a user error.
func (s *Store) Update(fn func(root *layout.Node) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == nil {
		return fmt.Errorf("layout tree not initialized")
	}

	working := layout.Clone(s.root)
	if err := fn(working); err != nil {
		return err
	}
	if err := layout.Validate(working); err != nil {
		return fmt.Errorf("mutation produced invalid tree: %w", err)
	}

	s.past = append(s.past, s.root)
	if len(s.past) > maxHistory {
		s.past = s.past[1:]
	}
	s.root = working
	s.labels = layout.BuildLabelMap(s.root)
	s.notify()
	return nil
}

// Undo restores the previous tree state, if any.
func (s *Store) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.past) == 0 {
		return fmt.Errorf("nothing to undo")
	}
	s.root = s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.labels = layout.BuildLabelMap(s.root)
	s.notify()
	return nil
}

// Reset replaces the tree wholesale (initial mount, reload) and clears
// history.
func (s *Store) Reset(root *layout.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = layout.Clone(root)
	s.labels = layout.BuildLabelMap(s.root)
	s.past = nil
	s.notify()
}

// SnapshotTree returns a deep copy of the current tree, or nil before
// initialization.
func (s *Store) SnapshotTree() *layout.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layout.Clone(s.root)
}

// Labels returns a copy of the current label map.
func (s *Store) Labels() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.labels))
	for k, v := range s.labels {
		out[k] = v
	}
	return out
}

// ResolveLabel maps a semantic label to a node id, passing raw ids and
// unknown strings through unchanged.
func (s *Store) ResolveLabel(ref string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layout.ResolveLabel(s.labels, ref)
}

// SetEnv installs the most recent geometry snapshot.
func (s *Store) SetEnv(snap env.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envSnap = snap.Clone()
	s.hasEnv = true
}

// Env returns the most recent geometry snapshot and whether one exists.
func (s *Store) Env() (env.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.envSnap.Clone(), s.hasEnv
}

// Subscribe returns a channel that receives a tick after every committed
// mutation, plus an unsubscribe func. Notifications are dropped rather
// than block a slow consumer.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
