package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout bounds every round trip to next by d. A round trip that runs
// out of time while the caller's context is still live fails with
// ErrUnavailable.
func WithTimeout(next Store, d time.Duration) Store {
	if d <= 0 {
		return next
	}

	return &timeoutStore{next: next, timeout: d}
}

func (s *timeoutStore) Get(ctx context.Context, path string) ([]byte, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.next.Get(tctx, path)
	return data, s.classify(ctx, err)
}

func (s *timeoutStore) List(ctx context.Context, collection string) ([]Document, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs, err := s.next.List(tctx, collection)
	return docs, s.classify(ctx, err)
}

func (s *timeoutStore) Set(ctx context.Context, path string, data []byte) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.classify(ctx, s.next.Set(tctx, path, data))
}

func (s *timeoutStore) Delete(ctx context.Context, path string) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.classify(ctx, s.next.Delete(tctx, path))
}

func (s *timeoutStore) Commit(ctx context.Context, batch *Batch) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.classify(ctx, s.next.Commit(tctx, batch))
}

func (s *timeoutStore) Close() error {
	return s.next.Close()
}

func (s *timeoutStore) classify(parent context.Context, err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return fmt.Errorf("%w: no response within %s: %w", ErrUnavailable, s.timeout, err)
	}

	return err
}
