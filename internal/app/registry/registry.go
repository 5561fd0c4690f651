package registry

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/chandra-gummaluru/beamer-plus/internal/core/contracts"
)

// Registry is the in-memory table of live connections and room
// membership. Rooms are plain name → connection maps; nothing outside
// this table references a connection, so disconnect cleanup is just
// Remove. State is process-local and volatile by design.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]contracts.Client
	rooms   map[string]map[string]contracts.Client
	joined  map[string]map[string]struct{} // conn id → rooms it is in
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]contracts.Client),
		rooms:   make(map[string]map[string]contracts.Client),
		joined:  make(map[string]map[string]struct{}),
	}
}

func (r *Registry) Join(c contracts.Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := c.ID()
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]contracts.Client)
	}
	r.rooms[room][id] = c
	if r.joined[id] == nil {
		r.joined[id] = make(map[string]struct{})
	}
	r.joined[id][room] = struct{}{}
	r.clients[id] = c
}

func (r *Registry) Leave(c contracts.Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c.ID(), room)
}

func (r *Registry) Remove(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := c.ID()
	for room := range r.joined[id] {
		r.leaveLocked(id, room)
	}
	delete(r.joined, id)
	delete(r.clients, id)
}

func (r *Registry) leaveLocked(id, room string) {
	delete(r.rooms[room], id)
	if len(r.rooms[room]) == 0 {
		delete(r.rooms, room)
	}
	delete(r.joined[id], room)
}

func (r *Registry) Members(room string) []contracts.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]contracts.Client, 0, len(r.rooms[room]))
	for _, c := range r.rooms[room] {
		members = append(members, c)
	}
	return members
}

func (r *Registry) SendTo(ctx context.Context, c contracts.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = c.Send(ctx, data)
}

func (r *Registry) Broadcast(ctx context.Context, room string, excludeID string, msg any) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	for id, c := range r.rooms[room] {
		if id == excludeID {
			continue
		}
		_ = c.Send(ctx, data)
	}
}
