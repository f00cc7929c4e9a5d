// Package memhost provides ephemeral, thread-safe, in-memory implementations
// of the host services. They back the CLI when no external store is
// configured and serve as stubs in tests.
package memhost

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

// kv is a byte-keyed map safe for concurrent use. Values are copied on the
// way in and out so callers can never alias stored data.
type kv struct {
	m sync.Map // key: string(key), value: []byte
}

func (s *kv) get(key []byte) ([]byte, bool) {
	v, ok := s.m.Load(string(key))
	if !ok {
		return nil, false
	}
	return bytes.Clone(v.([]byte)), true
}

func (s *kv) set(key, value []byte) {
	s.m.Store(string(key), bytes.Clone(value))
}

func (s *kv) keys() []string {
	var keys []string
	s.m.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// StateDB is an in-memory host.StateDB.
type StateDB struct {
	kv kv
}

// NewStateDB creates an empty state store.
func NewStateDB() *StateDB {
	return &StateDB{}
}

// Get returns the value stored under key.
func (s *StateDB) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	v, ok := s.kv.get(key)
	return v, ok, nil
}

// Set stores value under key.
func (s *StateDB) Set(_ context.Context, key, value []byte) error {
	s.kv.set(key, value)
	return nil
}

// Keys returns every stored key, sorted.
func (s *StateDB) Keys() []string {
	return s.kv.keys()
}

// LocalDB is an in-memory host.LocalDB.
type LocalDB struct {
	kv kv
}

// NewLocalDB creates an empty local store.
func NewLocalDB() *LocalDB {
	return &LocalDB{}
}

// Get returns the value stored under key.
func (s *LocalDB) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	v, ok := s.kv.get(key)
	return v, ok, nil
}

// Set stores value under key. It always succeeds.
func (s *LocalDB) Set(_ context.Context, key, value []byte) (bool, error) {
	s.kv.set(key, value)
	return true, nil
}

// Keys returns every stored key, sorted.
func (s *LocalDB) Keys() []string {
	return s.kv.keys()
}
