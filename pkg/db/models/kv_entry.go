package models

import "time"

// KVEntry backs the database key-value store.
type KVEntry struct {
	Key       string     `gorm:"column:entry_key;primaryKey"`
	Value     string     `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
}

func (KVEntry) TableName() string { return "kv_entries" }
