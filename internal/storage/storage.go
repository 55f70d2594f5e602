// Package storage provides the durable key-value storage that persisted
// settings records live in.
package storage

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

// Store is a flat key-value store. A missing key is not an error: Get
// reports it through the boolean.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// DiskStore keeps one file per key under a base directory
type DiskStore struct {
	d *diskv.Diskv
}

// NewDiskStore opens (creating on first write) a store rooted at dir
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: empty base directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &DiskStore{d: diskv.New(diskv.Options{
		BasePath:     dir,
		CacheSizeMax: 256 * 1024,
	})}, nil
}

func (s *DiskStore) Get(key string) ([]byte, bool, error) {
	if !s.d.Has(key) {
		return nil, false, nil
	}
	val, err := s.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return val, true, nil
}

func (s *DiskStore) Set(key string, value []byte) error {
	if err := s.d.Write(key, value); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key succeeds.
func (s *DiskStore) Remove(key string) error {
	if !s.d.Has(key) {
		return nil
	}
	if err := s.d.Erase(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

// MemoryStore is an in-memory Store for tests and throwaway sessions
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	val, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), val...), true, nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	s.records[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// Prefixed namespaces every key of an underlying store, so several
// profiles can share one directory.
type Prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix wraps inner. An empty prefix returns inner unchanged.
func WithPrefix(inner Store, prefix string) Store {
	if prefix == "" {
		return inner
	}
	return &Prefixed{inner: inner, prefix: sanitize(prefix) + "."}
}

func (p *Prefixed) Get(key string) ([]byte, bool, error) { return p.inner.Get(p.prefix + key) }

func (p *Prefixed) Set(key string, value []byte) error { return p.inner.Set(p.prefix+key, value) }

func (p *Prefixed) Remove(key string) error { return p.inner.Remove(p.prefix + key) }

// sanitize keeps prefixes usable as file names
func sanitize(prefix string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, prefix)
}
