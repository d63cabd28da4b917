package cache

import (
	"context"
	"sync"
	"time"

	"chatapp-client/internal/snowflake"
)

type entry[T any] struct {
	value   *T
	expires time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !e.expires.IsZero() && e.expires.Before(now)
}

// Local keeps records in process memory. A zero ttl keeps them until
// removed.
type Local[T any] struct {
	mutex   sync.RWMutex
	hashmap map[snowflake.ID]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

func NewLocal[T any](ttl time.Duration) *Local[T] {
	return &Local[T]{
		hashmap: make(map[snowflake.ID]entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Sweep deletes expired records every interval until ctx is done.
func (l *Local[T]) Sweep(ctx context.Context, interval time.Duration) {
	if l.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.deleteExpired()
		}
	}
}

func (l *Local[T]) deleteExpired() {
	now := l.now()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	for id, e := range l.hashmap {
		if e.expired(now) {
			delete(l.hashmap, id)
		}
	}
}

func (l *Local[T]) Get(_ context.Context, id snowflake.ID) (*T, bool, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	e, ok := l.hashmap[id]
	if !ok || e.expired(l.now()) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (l *Local[T]) Put(_ context.Context, id snowflake.ID, value *T) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	e := entry[T]{value: value}
	if l.ttl > 0 {
		e.expires = l.now().Add(l.ttl)
	}
	l.hashmap[id] = e
	return nil
}

func (l *Local[T]) Remove(_ context.Context, id snowflake.ID) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	delete(l.hashmap, id)
	return nil
}

func (l *Local[T]) Len(_ context.Context) (int, error) {
	now := l.now()

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	n := 0
	for _, e := range l.hashmap {
		if !e.expired(now) {
			n++
		}
	}
	return n, nil
}
