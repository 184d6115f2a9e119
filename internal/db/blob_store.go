package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"horse.fit/agrolingo/internal/cache"
)

// PostgresStore persists translation cache snapshots in Postgres.
type PostgresStore struct {
	pool *Pool
}

var _ cache.BlobStore = (*PostgresStore)(nil)

func NewPostgresStore(pool *Pool) (*PostgresStore, error) {
	if pool == nil || pool.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, name string) ([]byte, error) {
	var row CacheBlob
	err := s.pool.gdb.WithContext(ctx).
		Where("name = ?", name).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cache.ErrBlobNotFound
		}
		return nil, fmt.Errorf("load cache blob %s: %w", name, err)
	}
	return row.Payload, nil
}

func (s *PostgresStore) Save(ctx context.Context, name string, data []byte) error {
	row := CacheBlob{
		Name:      name,
		Payload:   data,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.pool.gdb.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save cache blob %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	res := s.pool.gdb.WithContext(ctx).
		Where("name = ?", name).
		Delete(&CacheBlob{})
	if res.Error != nil {
		return fmt.Errorf("delete cache blob %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return cache.ErrBlobNotFound
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	return s.pool.Close()
}
