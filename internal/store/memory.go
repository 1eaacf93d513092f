package store

import (
	"context"
	"sync"

	"wordpoll/internal/domain"
)

// MemoryStore keeps state in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.Mutex
	config *domain.PollConfig
	words  map[int][]string
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{words: make(map[int][]string)}
}

// Load implements Store
func (m *MemoryStore) Load(ctx context.Context, n int) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := NewSnapshot(n)
	if m.config != nil {
		snap.Config = m.config.Clone()
	}
	for q, words := range m.words {
		if q < n {
			snap.Words[q] = append([]string(nil), words...)
		}
	}
	return sanitize(snap, n), nil
}

// SaveConfig implements Store
func (m *MemoryStore) SaveConfig(ctx context.Context, cfg domain.PollConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := cfg.Clone()
	m.config = &c
	return nil
}

// AppendWords implements Store
func (m *MemoryStore) AppendWords(ctx context.Context, question, offset int, words []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.words[question] = append(m.words[question], words...)
	return nil
}

// Reset implements Store
func (m *MemoryStore) Reset(ctx context.Context, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := domain.NewPollConfig(n)
	m.config = &c
	m.words = make(map[int][]string)
	return nil
}

// Close implements Store
func (m *MemoryStore) Close() error {
	return nil
}
