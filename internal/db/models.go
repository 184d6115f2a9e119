package db

import "time"

// CacheBlob maps agrolingo.cache_blobs.
type CacheBlob struct {
	Name      string    `gorm:"column:name;type:text;primaryKey"`
	Payload   []byte    `gorm:"column:payload;type:bytea;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (CacheBlob) TableName() string { return "agrolingo.cache_blobs" }

func autoMigrateModels() []any {
	return []any{
		&CacheBlob{},
	}
}
