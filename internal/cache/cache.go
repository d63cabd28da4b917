package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"chatapp-client/internal/metrics"
	"chatapp-client/internal/models"
	"chatapp-client/internal/snowflake"
)

// Backend stores records of one kind.
type Backend[T any] interface {
	Get(ctx context.Context, id snowflake.ID) (*T, bool, error)
	Put(ctx context.Context, id snowflake.ID, value *T) error
	Remove(ctx context.Context, id snowflake.ID) error
	Len(ctx context.Context) (int, error)
}

// Table is the cache of one entity kind. Records handed out by Get are
// snapshots: writers replace records instead of modifying them, so readers
// need no locking. A disabled table behaves as permanently empty.
type Table[T any] struct {
	kind    models.Kind
	enabled bool
	backend Backend[T]
	sugar   *zap.SugaredLogger

	// serializes read-modify-write updates
	writeMutex sync.Mutex
}

func NewTable[T any](kind models.Kind, enabled bool, backend Backend[T], sugar *zap.SugaredLogger) *Table[T] {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return &Table[T]{
		kind:    kind,
		enabled: enabled && backend != nil,
		backend: backend,
		sugar:   sugar,
	}
}

func (t *Table[T]) Kind() models.Kind {
	return t.kind
}

func (t *Table[T]) Enabled() bool {
	return t.enabled
}

// Get returns the cached record. It never fails: backend errors are logged
// and reported as a miss.
func (t *Table[T]) Get(ctx context.Context, id snowflake.ID) (*T, bool) {
	if !t.enabled {
		metrics.CacheLookups.WithLabelValues(string(t.kind), "disabled").Inc()
		return nil, false
	}
	if id == 0 {
		return nil, false
	}

	value, ok, err := t.backend.Get(ctx, id)
	if err != nil {
		t.sugar.Warnf("Getting %s [%d] from cache failed: %v", t.kind, id, err)
		metrics.CacheLookups.WithLabelValues(string(t.kind), "error").Inc()
		return nil, false
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues(string(t.kind), "miss").Inc()
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues(string(t.kind), "hit").Inc()
	return value, true
}

// Put inserts or replaces a record. The caller must not modify value
// afterwards.
func (t *Table[T]) Put(ctx context.Context, id snowflake.ID, value *T) error {
	if !t.enabled || id == 0 || value == nil {
		return nil
	}

	t.sugar.Debugf("Putting %s [%d] in cache", t.kind, id)
	metrics.CacheWrites.WithLabelValues(string(t.kind), "put").Inc()
	return t.backend.Put(ctx, id, value)
}

func (t *Table[T]) Remove(ctx context.Context, id snowflake.ID) error {
	if !t.enabled || id == 0 {
		return nil
	}

	t.sugar.Debugf("Removing %s [%d] from cache", t.kind, id)
	metrics.CacheWrites.WithLabelValues(string(t.kind), "remove").Inc()
	return t.backend.Remove(ctx, id)
}

// Update runs fn with the current record and stores what it returns.
// Returning nil removes the record. fn must not modify current.
func (t *Table[T]) Update(ctx context.Context, id snowflake.ID, fn func(current *T, found bool) (*T, error)) error {
	if !t.enabled || id == 0 {
		return nil
	}

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	current, found := t.Get(ctx, id)
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	if next == nil {
		if found {
			return t.Remove(ctx, id)
		}
		return nil
	}
	return t.Put(ctx, id, next)
}

func (t *Table[T]) Len(ctx context.Context) int {
	if !t.enabled {
		return 0
	}
	n, err := t.backend.Len(ctx)
	if err != nil {
		t.sugar.Warnf("Counting %s cache entries failed: %v", t.kind, err)
		return 0
	}
	return n
}
