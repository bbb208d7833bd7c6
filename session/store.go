// Package session provides an explicit store for concurrent adventure
// sessions. The game package models a single adventure and knows nothing
// about sessions; a presentation layer injects a [Store] to key independent
// adventures by identifier. Sessions share no mutable state with each other.
package session

import (
	"sort"
	"sync"

	"github.com/fablekit/fable/game"
	"github.com/google/uuid"
)

// Store creates, looks up, and deletes adventure sessions by id.
type Store interface {
	// Create registers an adventure and returns its new session id.
	Create(adventure *game.Adventure) string
	// Get returns the adventure for id, reporting whether it exists.
	Get(id string) (*game.Adventure, bool)
	// Delete removes the session for id; unknown ids are a no-op.
	Delete(id string)
	// List returns the known session ids in stable order.
	List() []string
}

// MemoryStore is an in-process [Store] backed by a map. It is safe for
// concurrent use; the adventures themselves remain single-session objects.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*game.Adventure
}

// NewMemoryStore returns an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*game.Adventure)}
}

// Create implements [Store], assigning a random UUID session id.
func (store *MemoryStore) Create(adventure *game.Adventure) string {
	id := uuid.NewString()
	store.mu.Lock()
	defer store.mu.Unlock()
	store.sessions[id] = adventure
	return id
}

// Get implements [Store].
func (store *MemoryStore) Get(id string) (*game.Adventure, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	adventure, ok := store.sessions[id]
	return adventure, ok
}

// Delete implements [Store].
func (store *MemoryStore) Delete(id string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.sessions, id)
}

// List implements [Store].
func (store *MemoryStore) List() []string {
	store.mu.RLock()
	defer store.mu.RUnlock()
	ids := make([]string, 0, len(store.sessions))
	for id := range store.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
