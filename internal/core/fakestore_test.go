package core

import (
	"context"
	"fmt"
	"sync"
)

// memStore is a Store kept in memory for importer and service tests.
type memStore struct {
	mu        sync.Mutex
	rows      map[string]Company
	order     []string
	sessions  int
	commits   int
	insertErr error
}

func newMemStore(seed ...Company) *memStore {
	m := &memStore{rows: make(map[string]Company)}
	for _, c := range seed {
		m.rows[c.RegistryCode] = c
		m.order = append(m.order, c.RegistryCode)
	}
	return m
}

func (m *memStore) WithSession(ctx context.Context, fn func(Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions++

	sess := &memSession{store: m, staged: make(map[string]Company)}
	if err := fn(sess); err != nil {
		return err
	}
	for _, code := range sess.order {
		m.rows[code] = sess.staged[code]
		m.order = append(m.order, code)
	}
	m.commits++
	return nil
}

func (m *memStore) EnsureSchema(context.Context) error { return nil }
func (m *memStore) Ping(context.Context) error         { return nil }
func (m *memStore) Close() error                       { return nil }

func (m *memStore) get(code string) (Company, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[code]
	return c, ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memSession struct {
	store  *memStore
	staged map[string]Company
	order  []string
}

func (s *memSession) FindByKey(_ context.Context, code string) (Company, bool, error) {
	if c, ok := s.staged[code]; ok {
		return c, true, nil
	}
	c, ok := s.store.rows[code]
	return c, ok, nil
}

func (s *memSession) InsertBatch(_ context.Context, companies []Company) error {
	if s.store.insertErr != nil {
		return s.store.insertErr
	}
	for _, c := range companies {
		if _, ok := s.store.rows[c.RegistryCode]; ok {
			return fmt.Errorf("insert %s: %w", c.RegistryCode, ErrDuplicateKey)
		}
		if _, ok := s.staged[c.RegistryCode]; ok {
			return fmt.Errorf("insert %s: %w", c.RegistryCode, ErrDuplicateKey)
		}
		s.staged[c.RegistryCode] = c
		s.order = append(s.order, c.RegistryCode)
	}
	return nil
}

func (s *memSession) Insert(ctx context.Context, c Company) (Company, error) {
	if err := s.InsertBatch(ctx, []Company{c}); err != nil {
		return Company{}, err
	}
	return c, nil
}

func (s *memSession) List(_ context.Context, offset, limit int) ([]Company, error) {
	var out []Company
	for i := offset; i < len(s.store.order) && len(out) < limit; i++ {
		out = append(out, s.store.rows[s.store.order[i]])
	}
	return out, nil
}
