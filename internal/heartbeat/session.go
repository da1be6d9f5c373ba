package heartbeat

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// IDStore persists the heartbeat session id of a display token so a
// restarted session reconnects as the same viewer.
type IDStore interface {
	LoadSessionID(ctx context.Context, token string) (string, error)
	SaveSessionID(ctx context.Context, token, sessionID string) error
}

// MemoryIDStore keeps session ids for the lifetime of the process.
type MemoryIDStore struct {
	mu  sync.Mutex
	ids map[string]string
}

func NewMemoryIDStore() *MemoryIDStore {
	return &MemoryIDStore{ids: make(map[string]string)}
}

func (m *MemoryIDStore) LoadSessionID(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[token], nil
}

func (m *MemoryIDStore) SaveSessionID(_ context.Context, token, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[token] = sessionID
	return nil
}

// MintSessionID returns a fresh random session id.
func MintSessionID() string {
	return uuid.NewString()
}

// ResolveSessionID reuses the stored id for token or mints and stores a new
// one. Store failures fall back to an unsaved fresh id.
func ResolveSessionID(ctx context.Context, store IDStore, token string) string {
	if store == nil {
		return MintSessionID()
	}
	id, err := store.LoadSessionID(ctx, token)
	if err != nil {
		log.Printf("session id load failed token=%s error=%v", token, err)
	}
	if id != "" {
		return id
	}
	id = MintSessionID()
	if err := store.SaveSessionID(ctx, token, id); err != nil {
		log.Printf("session id save failed token=%s error=%v", token, err)
	}
	return id
}
