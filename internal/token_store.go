package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Keys under which token material lives in the credential store.
const (
	KeyIDToken      = "id_key"
	KeyAccessToken  = "access_key"
	KeyRefreshToken = "refresh_key"
	KeyExpiresAt    = "expires_at"
)

// CredentialStore holds the signed-in user's token material. Populated on
// sign-in and refresh, cleared on sign-out. Injectable so tests run against
// an in-memory store.
type CredentialStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Clear()
}

// MemoryStore is an in-process CredentialStore.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key, if set.
func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value under key.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Clear removes all stored values.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
}

// FileStore is a CredentialStore backed by a 0600 JSON file, so tokens
// survive between command invocations.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStore opens (or initializes) a file-backed store at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// A corrupt credential file is unusable; start over rather than
		// carrying stale token material forward.
		LogWarn("Credential file %s is corrupt, resetting: %v", path, err)
		s.values = make(map[string]string)
	}

	return s, nil
}

// Get returns the value for key, if set.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value under key and persists the file.
func (s *FileStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	if err := s.save(); err != nil {
		LogWarn("Failed to persist credentials: %v", err)
	}
}

// Clear removes all values and deletes the backing file.
func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		LogWarn("Failed to remove credential file: %v", err)
	}
}

func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	data, err := json.Marshal(s.values)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}
