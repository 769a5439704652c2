package chat

import (
	"sync"

	"presencechat/internal/app/user"
)

// Registry maps joined connections to their identity. A connection absent from the
// registry is anonymous. The registry references connections but never owns them.
type Registry struct {
	// mu makes every operation atomic with respect to Snapshot.
	mu sync.RWMutex

	identities map[Conn]user.Identity
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{identities: make(map[Conn]user.Identity)}
}

// Register inserts or overwrites the identity of c. Several connections may share an identity.
func (r *Registry) Register(c Conn, identity user.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.identities[c] = identity
}

// Lookup returns the identity of c and whether c has joined.
func (r *Registry) Lookup(c Conn) (user.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.identities[c]
	return identity, ok
}

// Remove deletes c and returns its prior identity. The boolean is false when c was
// anonymous, which makes a repeated Remove a no-op.
func (r *Registry) Remove(c Conn) (user.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[c]
	if ok {
		delete(r.identities, c)
	}
	return identity, ok
}

// Snapshot returns a point-in-time copy of every joined identity, in no particular order.
func (r *Registry) Snapshot() []user.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]user.Identity, 0, len(r.identities))
	for _, identity := range r.identities {
		users = append(users, identity)
	}
	return users
}

// Size returns the number of joined connections.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.identities)
}
