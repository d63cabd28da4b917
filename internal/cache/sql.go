package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatapp-client/internal/models"
	"chatapp-client/internal/snowflake"
)

// SQL keeps records in the entity_cache table so a restarted client starts
// warm. It works with both sqlite and mysql.
type SQL[T any] struct {
	db    *sql.DB
	kind  models.Kind
	ttl   time.Duration
	codec Codec[T]
	now   func() time.Time
}

func NewSQL[T any](db *sql.DB, kind models.Kind, ttl time.Duration, codec Codec[T]) *SQL[T] {
	return &SQL[T]{
		db:    db,
		kind:  kind,
		ttl:   ttl,
		codec: codec,
		now:   time.Now,
	}
}

func (s *SQL[T]) Get(ctx context.Context, id snowflake.ID) (*T, bool, error) {
	var data []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, "SELECT data, expires_at FROM entity_cache WHERE kind = ? AND id = ?", string(s.kind), int64(id)).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	if expiresAt != 0 && expiresAt < s.now().UnixMilli() {
		return nil, false, nil
	}

	value, err := s.codec.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cached %s [%d]: %w", s.kind, id, err)
	}
	return value, true, nil
}

func (s *SQL[T]) Put(ctx context.Context, id snowflake.ID, value *T) error {
	data, err := s.codec.Encode(value)
	if err != nil {
		return err
	}

	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl).UnixMilli()
	}

	_, err = s.db.ExecContext(ctx, "REPLACE INTO entity_cache (kind, id, data, expires_at) VALUES (?, ?, ?, ?)", string(s.kind), int64(id), data, expiresAt)
	return err
}

func (s *SQL[T]) Remove(ctx context.Context, id snowflake.ID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM entity_cache WHERE kind = ? AND id = ?", string(s.kind), int64(id))
	return err
}

func (s *SQL[T]) Len(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entity_cache WHERE kind = ?", string(s.kind)).Scan(&count)
	return count, err
}
