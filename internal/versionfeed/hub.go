package versionfeed

import (
	"sync"
)

// Event describes a version bump of one authorization entity. Subscribers
// (the websocket feed, the reactive client cache behind it) only need to know
// that something reachable in their workspace changed; the engine's cache
// keys re-derive the details.
type Event struct {
	WorkspaceID string `json:"workspace_id"` // empty for global entities
	Kind        string `json:"kind"`         // role | permission_group | policy | member
	EntityID    string `json:"entity_id"`
	Version     int64  `json:"version"`
	Origin      string `json:"origin,omitempty"` // publishing instance, set by the redis bridge
}

// Hub fans version-bump events out to in-process subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]string // channel -> workspace filter ("" = all)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]string)}
}

// Subscribe registers interest in a workspace's bumps. Global-entity events
// (empty WorkspaceID) are delivered to every subscriber. The returned cancel
// func must be called to release the subscription.
func (h *Hub) Subscribe(workspaceID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subs[ch] = workspaceID
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers an event to matching subscribers. Slow subscribers are
// skipped rather than blocking the mutation path; the client cache recovers
// on its next pull.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch, filter := range h.subs {
		if filter != "" && ev.WorkspaceID != "" && ev.WorkspaceID != filter {
			continue
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
