package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps objects in memory for tests.
// Set FailUpload or FailDelete to inject backend failures.
type MemoryStore struct {
	mu         sync.Mutex
	seq        int
	Objects    map[string][]byte
	FailUpload error
	FailDelete error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: map[string][]byte{}}
}

func (m *MemoryStore) Upload(_ context.Context, userID uint64, filename string, r io.Reader) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpload != nil {
		return "", "", m.FailUpload
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", err
	}
	m.seq++
	key := fmt.Sprintf("%d/%d-%s", userID, m.seq, filename)
	m.Objects[key] = data
	return "mem://" + key, key, nil
}

func (m *MemoryStore) Delete(_ context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		return m.FailDelete
	}
	delete(m.Objects, externalID)
	return nil
}

// Has reports whether an object is stored under externalID.
func (m *MemoryStore) Has(externalID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[externalID]
	return ok
}
