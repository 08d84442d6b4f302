package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps sessions in process. It is meant for tests and single-node development.
type MemoryBackend struct {
	mu       sync.Mutex
	sessions map[string]map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: map[string]map[string]string{}}
}

func (b *MemoryBackend) Open(id string) Store {
	return &memoryStore{backend: b, id: id}
}

func (b *MemoryBackend) Touch(context.Context, string) error {
	return nil
}

type memoryStore struct {
	backend *MemoryBackend
	id      string
}

func (s *memoryStore) ID() string {
	return s.id
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	value, ok := s.backend.sessions[s.id][key]

	return value, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	values, ok := s.backend.sessions[s.id]
	if !ok {
		values = map[string]string{}
		s.backend.sessions[s.id] = values
	}

	values[key] = value

	return nil
}

func (s *memoryStore) Delete(_ context.Context, keys ...string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	for _, key := range keys {
		delete(s.backend.sessions[s.id], key)
	}

	return nil
}
