// Package pgstore keeps documents in a single Postgres table with a JSONB
// body. Batches run in one transaction.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/storefront/pkg/docstore"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Store struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *zap.Logger
}

func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{
		pool:   pool,
		tracer: otel.Tracer("storage/postgres"),
		logger: logger,
	}
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "PostgresStore.Get")
	defer span.End()

	span.SetAttributes(attribute.String("doc.path", path))

	if _, _, err := docstore.Split(path); err != nil {
		return nil, err
	}

	query := `
		SELECT data
		FROM documents
		WHERE path = $1;
	`

	var data []byte
	if err := s.pool.QueryRow(ctx, query, path).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docstore.ErrNotFound
		}

		span.RecordError(err)
		return nil, wrapErr("get document", err)
	}

	return data, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	ctx, span := s.tracer.Start(ctx, "PostgresStore.List")
	defer span.End()

	span.SetAttributes(attribute.String("doc.collection", collection))

	if err := docstore.ValidateCollection(collection); err != nil {
		return nil, err
	}

	query := `
		SELECT path, data
		FROM documents
		WHERE collection = $1
		ORDER BY path;
	`

	rows, err := s.pool.Query(ctx, query, collection)
	if err != nil {
		span.RecordError(err)
		return nil, wrapErr("list documents", err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var doc docstore.Document
		if err := rows.Scan(&doc.Path, &doc.Data); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, wrapErr("rows iteration", err)
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

func (s *Store) Commit(ctx context.Context, batch *docstore.Batch) error {
	ctx, span := s.tracer.Start(ctx, "PostgresStore.Commit")
	defer span.End()

	span.SetAttributes(attribute.Int("batch.size", batch.Len()))

	if err := batch.Validate(); err != nil {
		return err
	}

	if batch.Len() == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return wrapErr("begin transaction", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(cleanupCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Failed to rollback document batch",
				zap.Error(err),
			)
		}
	}()

	upsert := `
		INSERT INTO documents (path, collection, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE
		SET data = EXCLUDED.data, updated_at = NOW();
	`
	remove := `
		DELETE FROM documents
		WHERE path = $1;
	`

	for _, op := range batch.Ops() {
		collection, _, _ := docstore.Split(op.Path)

		switch op.Kind {
		case docstore.OpSet:
			_, err = tx.Exec(ctx, upsert, op.Path, collection, json.RawMessage(op.Data))
		case docstore.OpDelete:
			_, err = tx.Exec(ctx, remove, op.Path)
		}

		if err != nil {
			span.RecordError(err)
			return wrapErr(fmt.Sprintf("write %s", op.Path), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return wrapErr("commit transaction", err)
	}

	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// wrapErr marks connection level failures as retryable. Errors reported by
// the server (constraint violations, bad JSON) and context errors are
// returned as they are.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) || isContextErr(err) {
		return fmt.Errorf("postgres %s: %w", op, err)
	}

	return fmt.Errorf("postgres %s: %w: %w", op, docstore.ErrUnavailable, err)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
