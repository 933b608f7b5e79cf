// Package store keeps short-lived screen state as JSON documents in Redis.
// Mutations of a document are serialised with a per-key Redis lock.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/receiving/internal/shared"
)

var (
	// ErrNotFound indicates the document expired or never existed.
	ErrNotFound = errors.New("store: document not found")
	// ErrBusy indicates another request holds the document lock.
	ErrBusy = errors.New("store: document is locked by another request")
)

const (
	defaultLockTTL = 10 * time.Second
	// takeLockTTL covers the outbound call made while a document is taken.
	takeLockTTL = time.Minute
)

// Store persists values of type T under a key prefix with a sliding TTL.
type Store[T any] struct {
	client  *redis.Client
	locker  *redislock.Client
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
	takeTTL time.Duration
	retry   redislock.RetryStrategy
}

// New constructs a Store. Every write refreshes the TTL.
func New[T any](client *redis.Client, prefix string, ttl time.Duration) *Store[T] {
	return &Store[T]{
		client:  client,
		locker:  redislock.New(client),
		prefix:  prefix,
		ttl:     ttl,
		lockTTL: defaultLockTTL,
		takeTTL: takeLockTTL,
		retry:   redislock.LimitRetry(redislock.LinearBackoff(25*time.Millisecond), 40),
	}
}

func (s *Store[T]) key(id string) string {
	return s.prefix + ":" + id
}

// Create stores a new document, failing if the id is already taken.
func (s *Store[T]) Create(ctx context.Context, id string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", id, err)
	}
	ok, err := s.client.SetNX(ctx, s.key(id), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store: create %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("store: create %s: id already in use", id)
	}
	return nil
}

// Get loads a document.
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var value T
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, ErrNotFound
	}
	if err != nil {
		return value, fmt.Errorf("store: get %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("store: decode %s: %w", id, err)
	}
	return value, nil
}

// Update loads the document under lock, applies fn and writes the result
// back. When fn fails nothing is written and its error is returned as is.
func (s *Store[T]) Update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var zero T
	lock, err := s.lock(ctx, id, s.lockTTL)
	if err != nil {
		return zero, err
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()

	value, err := s.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := fn(&value); err != nil {
		return value, err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("store: encode %s: %w", id, err)
	}
	if err := s.client.Set(ctx, s.key(id), raw, s.ttl).Err(); err != nil {
		return zero, fmt.Errorf("store: write %s: %w", id, err)
	}
	return value, nil
}

// Take hands the document to fn under lock and deletes it once fn succeeds.
// When fn fails the document is left as it was and fn's error is returned as
// is. Updates queued behind the lock see ErrNotFound after a successful take.
func (s *Store[T]) Take(ctx context.Context, id string, fn func(T) error) error {
	lock, err := s.lock(ctx, id, s.takeTTL)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release(context.WithoutCancel(ctx))
	}()

	value, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(value); err != nil {
		return err
	}
	return s.Delete(context.WithoutCancel(ctx), id)
}

func (s *Store[T]) lock(ctx context.Context, id string, ttl time.Duration) (*redislock.Lock, error) {
	lock, err := s.locker.Obtain(ctx, shared.DocumentLockKey(s.prefix, id), ttl, &redislock.Options{RetryStrategy: s.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, fmt.Errorf("store: lock %s: %w", id, err)
	}
	return lock, nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}
