package sdk

import (
	"sync"

	"github.com/celerix-dev/celerix-builder/pkg/schema"
)

// MemoryTokenStore keeps the session in process memory.
type MemoryTokenStore struct {
	mu   sync.RWMutex
	sess *schema.Session
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load() (schema.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return schema.Session{}, ErrNoSession
	}
	return *m.sess, nil
}

func (m *MemoryTokenStore) Save(s schema.Session) error {
	m.mu.Lock()
	m.sess = &s
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()
	return nil
}
