package share

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps shares in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	shares map[string]*Share
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shares: make(map[string]*Share), now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, s *Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shares[s.Token] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shares[token]
	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired(m.now()) {
		delete(m.shares, token)
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shares[token]; !ok {
		return ErrNotFound
	}
	delete(m.shares, token)
	return nil
}

func (m *MemoryStore) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for k, s := range m.shares {
		if s.Expired(now) {
			delete(m.shares, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored shares, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shares)
}
