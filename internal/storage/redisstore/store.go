// Package redisstore stores documents as JSON strings in Redis. Every collection
// keeps a set of its document ids so List does not need KEYS or SCAN.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/storefront/pkg/docstore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	docPrefix   = "doc:"
	indexPrefix = "idx:"
)

type Store struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		tracer: otel.Tracer("storage/redis"),
	}
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "RedisStore.Get")
	defer span.End()

	span.SetAttributes(attribute.String("doc.path", path))

	if _, _, err := docstore.Split(path); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, docPrefix+path).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, docstore.ErrNotFound
		}

		span.RecordError(err)
		return nil, wrapErr("get", err)
	}

	return data, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	ctx, span := s.tracer.Start(ctx, "RedisStore.List")
	defer span.End()

	span.SetAttributes(attribute.String("doc.collection", collection))

	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}

	ids, err := s.client.SMembers(ctx, indexPrefix+collection).Result()
	if err != nil {
		span.RecordError(err)
		return nil, wrapErr("list index", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docPrefix + docstore.Join(collection, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		span.RecordError(err)
		return nil, wrapErr("list documents", err)
	}

	docs := make([]docstore.Document, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// index entry without a document
			continue
		}
		docs = append(docs, docstore.Document{
			Path: docstore.Join(collection, ids[i]),
			Data: []byte(str),
		})
	}

	span.SetAttributes(attribute.Int("result_count", len(docs)))
	return docs, nil
}

func (s *Store) Set(ctx context.Context, path string, data []byte) error {
	return s.Commit(ctx, docstore.NewBatch().Set(path, data))
}

func (s *Store) Delete(ctx context.Context, path string) error {
	return s.Commit(ctx, docstore.NewBatch().Delete(path))
}

// Commit runs the batch inside MULTI/EXEC.
func (s *Store) Commit(ctx context.Context, batch *docstore.Batch) error {
	ctx, span := s.tracer.Start(ctx, "RedisStore.Commit")
	defer span.End()

	span.SetAttributes(attribute.Int("batch.size", batch.Len()))

	if err := batch.Validate(); err != nil {
		return err
	}

	if batch.Len() == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range batch.Ops() {
			collection, id, _ := docstore.Split(op.Path)

			switch op.Kind {
			case docstore.OpSet:
				pipe.Set(ctx, docPrefix+op.Path, op.Data, 0)
				pipe.SAdd(ctx, indexPrefix+collection, id)
			case docstore.OpDelete:
				pipe.Del(ctx, docPrefix+op.Path)
				pipe.SRem(ctx, indexPrefix+collection, id)
			}
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		return wrapErr("commit", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// wrapErr marks transport failures as retryable. Errors replied by the
// server itself and context errors are returned as they are.
func wrapErr(op string, err error) error {
	var replyErr redis.Error
	if errors.As(err, &replyErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("redis %s: %w", op, err)
	}

	return fmt.Errorf("redis %s: %w: %w", op, docstore.ErrUnavailable, err)
}
