package service

import (
	"context"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestUserLocks_SerializesSameUser(t *testing.T) {
	locks := NewUserLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock, err := locks.Lock(context.Background(), "u1")
			if err != nil {
				t.Error(err)
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, maxSeen)
	require.Zero(t, locks.size())
}

func TestUserLocks_DifferentUsersDoNotBlock(t *testing.T) {
	locks := NewUserLocks()

	unlock1, err := locks.Lock(context.Background(), "u1")
	require.NoError(t, err)
	defer unlock1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlock2, err := locks.Lock(ctx, "u2")
	require.NoError(t, err)
	unlock2()

	require.Equal(t, 1, locks.size())
}

func TestUserLocks_WaitHonoursContext(t *testing.T) {
	locks := NewUserLocks()

	unlock, err := locks.Lock(context.Background(), "u1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.Lock(ctx, "u1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	require.Zero(t, locks.size())

	unlock, err = locks.Lock(context.Background(), "u1")
	require.NoError(t, err)
	unlock()
}

func TestUserLocks_KeySurvivesCallerBufferReuse(t *testing.T) {
	locks := NewUserLocks()

	buf := []byte("u1")
	userID := unsafe.String(&buf[0], len(buf))

	unlock, err := locks.Lock(context.Background(), userID)
	require.NoError(t, err)
	defer unlock()

	copy(buf, "zz")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locks.Lock(ctx, "u1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
