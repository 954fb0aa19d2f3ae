package docstore

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errClosed = errors.New("memory store closed")

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, _, err := Split(path); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errClosed
	}

	data, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}

	return clone(data), nil
}

func (m *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errClosed
	}

	var docs []Document
	for path, data := range m.docs {
		c, _, err := Split(path)
		if err != nil || c != collection {
			continue
		}
		docs = append(docs, Document{Path: path, Data: clone(data)})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func (m *MemoryStore) Set(ctx context.Context, path string, data []byte) error {
	return m.Commit(ctx, NewBatch().Set(path, data))
}

func (m *MemoryStore) Delete(ctx context.Context, path string) error {
	return m.Commit(ctx, NewBatch().Delete(path))
}

func (m *MemoryStore) Commit(ctx context.Context, batch *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := batch.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed
	}

	for _, op := range batch.Ops() {
		switch op.Kind {
		case OpSet:
			m.docs[op.Path] = clone(op.Data)
		case OpDelete:
			delete(m.docs, op.Path)
		}
	}

	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
