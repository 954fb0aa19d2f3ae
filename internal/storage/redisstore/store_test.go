package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/storefront/pkg/docstore"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client), mr
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	_, err := s.Get(ctx, "orders/o1")
	require.ErrorIs(t, err, docstore.ErrNotFound)

	require.NoError(t, s.Set(ctx, "orders/o1", []byte(`{"id":"o1"}`)))

	data, err := s.Get(ctx, "orders/o1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"o1"}`, string(data))

	members, err := mr.Members(indexPrefix + "orders")
	require.NoError(t, err)
	require.Equal(t, []string{"o1"}, members)

	require.NoError(t, s.Delete(ctx, "orders/o1"))
	require.NoError(t, s.Delete(ctx, "orders/o1"))

	_, err = s.Get(ctx, "orders/o1")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_ListSortedByPath(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.Set(ctx, "carts/u1/items/p2", []byte(`{"q":2}`)))
	require.NoError(t, s.Set(ctx, "carts/u1/items/p1", []byte(`{"q":1}`)))
	require.NoError(t, s.Set(ctx, "carts/u2/items/p9", []byte(`{"q":9}`)))

	docs, err := s.List(ctx, "carts/u1/items")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "carts/u1/items/p1", docs[0].Path)
	require.Equal(t, "carts/u1/items/p2", docs[1].Path)

	empty, err := s.List(ctx, "carts/u3/items")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestStore_ListSkipsStaleIndexEntries(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.Set(ctx, "products/a", []byte(`{}`)))
	_, err := mr.SAdd(indexPrefix+"products", "ghost")
	require.NoError(t, err)

	docs, err := s.List(ctx, "products")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "a", docs[0].ID())
}

func TestStore_CommitAppliesEveryOperation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.Set(ctx, "carts/u1/items/p1", []byte(`{}`)))
	require.NoError(t, s.Set(ctx, "carts/u1/items/p2", []byte(`{}`)))

	batch := docstore.NewBatch().
		Set("orders/o1", []byte(`{"id":"o1"}`)).
		Delete("carts/u1/items/p1").
		Delete("carts/u1/items/p2")
	require.NoError(t, s.Commit(ctx, batch))

	items, err := s.List(ctx, "carts/u1/items")
	require.NoError(t, err)
	require.Empty(t, items)

	_, err = s.Get(ctx, "orders/o1")
	require.NoError(t, err)
}

func TestStore_CommitRejectsInvalidPathsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	batch := docstore.NewBatch().
		Set("orders/o1", []byte(`{}`)).
		Set("orders", []byte(`{}`))
	require.ErrorIs(t, s.Commit(ctx, batch), docstore.ErrInvalidPath)

	_, err := s.Get(ctx, "orders/o1")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStore_ServerDownIsUnavailable(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	mr.Close()

	_, err := s.Get(ctx, "orders/o1")
	require.ErrorIs(t, err, docstore.ErrUnavailable)

	err = s.Set(ctx, "orders/o1", []byte(`{}`))
	require.ErrorIs(t, err, docstore.ErrUnavailable)
}

func TestStore_CallerCancellationIsNotUnavailable(t *testing.T) {
	s, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "orders/o1")
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, docstore.ErrUnavailable)

	err = s.Commit(ctx, docstore.NewBatch().Set("orders/o1", []byte(`{}`)))
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, docstore.ErrUnavailable)
}
