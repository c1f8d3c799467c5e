package store

import (
	"sync"

	"BinaryTrade/internal/model"
)

// MemoryStore keeps wagers in memory only. Used when SQLite is not
// configured, and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	wagers map[string]model.Wager
	order  []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{wagers: make(map[string]model.Wager)}
}

func (m *MemoryStore) SaveWager(w *model.Wager) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.wagers[w.ID]; !exists {
		m.order = append(m.order, w.ID)
	}
	m.wagers[w.ID] = *w
	return nil
}

func (m *MemoryStore) LoadWagers() ([]model.Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Wager, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.wagers[id])
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
