package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) (*Store[doc], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New[doc](client, "test:docs", time.Minute), mr
}

func TestStoreCreateGetDelete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "a", doc{Name: "first"}))
	require.Error(t, s.Create(ctx, "a", doc{Name: "again"}))
	assert.True(t, mr.Exists("test:docs:a"))
	assert.Equal(t, time.Minute, mr.TTL("test:docs:a"))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "a", doc{}))

	mr.FastForward(2 * time.Minute)
	_, err := s.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdateWritesOnSuccessOnly(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "a", doc{Count: 1}))

	updated, err := s.Update(ctx, "a", func(d *doc) error {
		d.Count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Count)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "a", func(d *doc) error {
		d.Count = 99
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
}

func TestStoreUpdateMissing(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Update(context.Background(), "missing", func(*doc) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdateSerialisesWriters(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "a", doc{}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "a", func(d *doc) error {
				d.Count++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 8, got.Count)
}

func TestStoreUpdateReportsBusy(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "a", doc{}))
	s.retry = nil
	require.NoError(t, mr.Set("test:docs:a:lock", "held-elsewhere"))

	_, err := s.Update(ctx, "a", func(*doc) error { return nil })
	require.ErrorIs(t, err, ErrBusy)
}

func TestStoreTakeDeletesOnSuccessOnly(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "a", doc{Count: 3}))

	boom := errors.New("boom")
	err := s.Take(ctx, "a", func(d doc) error {
		assert.Equal(t, 3, d.Count)
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, s.Take(ctx, "a", func(doc) error { return nil }))
	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, s.Take(ctx, "a", func(doc) error { return nil }), ErrNotFound)
}

func TestStoreUpdateWaitsForTake(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "a", doc{Count: 1}))

	taken := make(chan struct{})
	release := make(chan struct{})
	takeErr := make(chan error, 1)
	go func() {
		takeErr <- s.Take(ctx, "a", func(d doc) error {
			close(taken)
			<-release
			assert.Equal(t, 1, d.Count)
			return nil
		})
	}()
	<-taken

	updateErr := make(chan error, 1)
	go func() {
		_, err := s.Update(ctx, "a", func(d *doc) error {
			d.Count++
			return nil
		})
		updateErr <- err
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-takeErr)
	require.ErrorIs(t, <-updateErr, ErrNotFound)
}
