package storage

import (
	"context"
	"sync"

	"zenwriter/composer"
)

// MemoryStore keeps a document in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	text  string
	saved bool
	saves int
}

var _ composer.Store = (*MemoryStore)(nil)

func (m *MemoryStore) Save(_ context.Context, snapshot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = snapshot
	m.saved = true
	m.saves++
	return nil
}

func (m *MemoryStore) Load(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, m.saved, nil
}

// Saves reports how many writes happened.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// MemoryBackend hands out one MemoryStore per id.
type MemoryBackend struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{stores: make(map[string]*MemoryStore)}
}

func (b *MemoryBackend) Open(id string) (composer.Store, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return b.Store(id), nil
}

// Store returns the store for id, creating it if needed.
func (b *MemoryBackend) Store(id string) *MemoryStore {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.stores[id]
	if !ok {
		s = &MemoryStore{}
		b.stores[id] = s
	}
	return s
}
