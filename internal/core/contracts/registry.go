package contracts

import "context"

// Registry tracks live connections and the rooms they joined, and fans
// event frames out to room members. Membership changes are visible to
// the next broadcast immediately; nothing is buffered.
type Registry interface {
	// Join adds a client to a room. Joining a room twice is a no-op.
	Join(c Client, room string)
	// Leave removes the client from one room.
	Leave(c Client, room string)
	// Remove drops the client from every room it joined. Called on
	// disconnect; no other cleanup exists, rooms hold no back-references.
	Remove(c Client)
	// Members returns the clients currently in a room.
	Members(room string) []Client
	// SendTo delivers a frame to a single client.
	SendTo(ctx context.Context, c Client, msg any)
	// Broadcast delivers a frame to every client in a room, skipping
	// the client whose ID equals excludeID (empty excludes nobody).
	Broadcast(ctx context.Context, room string, excludeID string, msg any)
}

// Client is the minimal surface the registry and router need to talk
// to one WebSocket connection.
type Client interface {
	ID() string
	Send(ctx context.Context, data []byte) error
	Close()
}
