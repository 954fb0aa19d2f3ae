// Package docstore is a small path-addressed document store abstraction.
//
// Paths alternate collection and document segments, e.g.
// "carts/u1/items/p1" is document "p1" in collection "carts/u1/items".
// Documents are opaque JSON blobs.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrUnavailable = errors.New("document store unavailable")
	ErrInvalidPath = errors.New("invalid document path")
)

type Document struct {
	Path string
	Data []byte
}

// ID returns the last path segment.
func (d Document) ID() string {
	_, id, _ := Split(d.Path)
	return id
}

type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	// List returns the direct documents of a collection ordered by path.
	List(ctx context.Context, collection string) ([]Document, error)
	Set(ctx context.Context, path string, data []byte) error
	// Delete is a no-op when the document does not exist.
	Delete(ctx context.Context, path string) error
	// Commit applies every operation of the batch or none of them.
	Commit(ctx context.Context, batch *Batch) error
	Close() error
}

func GetJSON[T any](ctx context.Context, s Store, path string) (*T, error) {
	data, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &v, nil
}

func SetJSON(ctx context.Context, s Store, path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return s.Set(ctx, path, data)
}

func ListJSON[T any](ctx context.Context, s Store, collection string) ([]T, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	res := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc.Data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.Path, err)
		}
		res = append(res, v)
	}

	return res, nil
}
