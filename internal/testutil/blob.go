package testutil

import (
	"context"
	"fmt"
	"sync"

	"inkwell/internal/blob"
)

// MemoryBlobStore is an in-memory blob.Store. Set UploadErr or DeleteErr
// to simulate an unavailable store.
type MemoryBlobStore struct {
	mu        sync.Mutex
	next      int
	Objects   map[string][]byte
	Deleted   []string
	UploadErr error
	DeleteErr error
}

// NewMemoryBlobStore returns an empty store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{Objects: map[string][]byte{}}
}

// Upload stores in under a sequential ref and returns its URL.
func (s *MemoryBlobStore) Upload(_ context.Context, in blob.Upload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	s.next++
	ref := fmt.Sprintf("blob-%d", s.next)
	s.Objects[ref] = in.Content
	return "https://cdn.example.com/blobs/" + ref + ".png", nil
}

// Delete removes ref and records the call.
func (s *MemoryBlobStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, ref)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.Objects, ref)
	return nil
}

// Has reports whether ref is stored.
func (s *MemoryBlobStore) Has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[ref]
	return ok
}
