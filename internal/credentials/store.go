package credentials

import "sync"

// Store is the key-value persistence port for the credential record. Load
// reports found=false when no record has been saved; Save and Clear replace
// or remove the whole record atomically.
type Store interface {
	Load() (Record, bool, error)
	Save(rec Record) error
	Clear() error
}

type MemoryStore struct {
	mu    sync.RWMutex
	rec   Record
	saved bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec, s.saved, nil
}

func (s *MemoryStore) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	s.saved = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = Record{}
	s.saved = false
	return nil
}
