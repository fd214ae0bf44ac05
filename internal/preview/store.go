package preview

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Artifact is a generated document held in memory.
type Artifact struct {
	ID        string
	BillID    int64
	FileName  string
	Data      []byte
	CreatedAt time.Time
}

// Store holds artifacts by handle until they are released.
type Store struct {
	mu        sync.Mutex
	artifacts map[string]Artifact
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{artifacts: make(map[string]Artifact)}
}

// Put stores data under a new handle.
func (s *Store) Put(billID int64, fileName string, data []byte) Artifact {
	a := Artifact{
		ID:        uuid.NewString(),
		BillID:    billID,
		FileName:  fileName,
		Data:      data,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.artifacts[a.ID] = a
	s.mu.Unlock()
	return a
}

// Get returns the artifact for id.
func (s *Store) Get(id string) (Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[id]
	return a, ok
}

// Release drops the artifact. Releasing an unknown handle is a no-op.
func (s *Store) Release(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[id]; !ok {
		return false
	}
	delete(s.artifacts, id)
	return true
}

// Len is the number of live artifacts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts)
}
