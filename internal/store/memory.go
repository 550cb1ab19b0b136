package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is an in-process ledger with the same path semantics as the
// Firebase backend. Used in tests and for local development without a
// database URL.
type MemoryStore struct {
	mu   sync.RWMutex
	root map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: make(map[string]any)}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// normalize round-trips v through JSON so that stored values mirror what the
// realtime database would hand back.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemoryStore) lookup(segments []string) (any, bool) {
	var node any = s.root
	for _, seg := range segments {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// parent walks to the map holding the last path segment, creating
// intermediate maps on the way.
func (s *MemoryStore) parent(segments []string) (map[string]any, string) {
	node := s.root
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}
	return node, segments[len(segments)-1]
}

func (s *MemoryStore) Get(_ context.Context, path string, v any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.lookup(splitPath(path))
	if !ok {
		return nil
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (s *MemoryStore) Set(_ context.Context, path string, v any) error {
	value, err := normalize(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	segments := splitPath(path)
	if len(segments) == 0 {
		return fmt.Errorf("empty path")
	}
	node, key := s.parent(segments)
	node[key] = value
	return nil
}

func (s *MemoryStore) Update(_ context.Context, path string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments := splitPath(path)
	if len(segments) == 0 {
		return fmt.Errorf("empty path")
	}
	node, key := s.parent(segments)

	record, ok := node[key].(map[string]any)
	if !ok {
		record = make(map[string]any)
		node[key] = record
	}

	for k, v := range fields {
		// Nil clears a field, mirroring the realtime database.
		if v == nil {
			delete(record, k)
			continue
		}
		value, err := normalize(v)
		if err != nil {
			return err
		}
		record[k] = value
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	segments := splitPath(path)
	if len(segments) == 0 {
		return fmt.Errorf("empty path")
	}
	node, key := s.parent(segments)
	delete(node, key)
	return nil
}
