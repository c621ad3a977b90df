package collab

// ConnectionRegistry maps a user identifier to its currently active
// connection. A user has at most one live connection; registering again
// under the same identifier replaces the previous entry (last writer
// wins). The registry is owned by the hub's event loop and is never
// touched from another goroutine, so it carries no lock.
type ConnectionRegistry struct {
	conns map[string]*Client
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]*Client)}
}

// Register binds userID to client, replacing any prior entry. The
// inverse association is recorded on the client for the disconnect path.
func (r *ConnectionRegistry) Register(userID string, client *Client) {
	client.userID = userID
	r.conns[userID] = client
}

// Lookup returns the live connection for userID. Absence means the user
// is unreachable; callers drop the operation silently.
func (r *ConnectionRegistry) Lookup(userID string) (*Client, bool) {
	client, ok := r.conns[userID]
	return client, ok
}

// Remove drops the entry for the client's user, but only if the live
// entry still points at this exact client. A stale socket disconnecting
// after the user re-registered must not evict the newer connection.
func (r *ConnectionRegistry) Remove(client *Client) (string, bool) {
	if client.userID == "" {
		return "", false
	}
	if current, ok := r.conns[client.userID]; ok && current == client {
		delete(r.conns, client.userID)
		return client.userID, true
	}
	return "", false
}

// ListAll returns a snapshot of all online user identifiers.
func (r *ConnectionRegistry) ListAll() []string {
	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}

// All returns a snapshot of every live connection.
func (r *ConnectionRegistry) All() []*Client {
	clients := make([]*Client, 0, len(r.conns))
	for _, client := range r.conns {
		clients = append(clients, client)
	}
	return clients
}

func (r *ConnectionRegistry) Len() int {
	return len(r.conns)
}
