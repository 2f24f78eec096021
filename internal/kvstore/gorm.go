package kvstore

import (
	"context"
	"time"

	"github.com/angelmondragon/foodyzone-backend/internal/repo"
	"github.com/angelmondragon/foodyzone-backend/pkg/db"
	"github.com/angelmondragon/foodyzone-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm stores values in the kv_entries table. Saves are upserts, so the last
// writer wins.
type Gorm struct {
	repo.Base
	ttl time.Duration
	now func() time.Time
}

func NewGorm(conn *gorm.DB, ttl time.Duration) *Gorm {
	return &Gorm{Base: repo.NewBase(conn), ttl: ttl, now: time.Now}
}

func (g *Gorm) Load(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := g.DB(ctx).
		Where("entry_key = ?", key).
		Where("expires_at IS NULL OR expires_at > ?", g.now().UTC()).
		First(&entry).Error
	if db.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (g *Gorm) Save(ctx context.Context, key, value string) error {
	now := g.now().UTC()
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: now}
	if g.ttl > 0 {
		expires := now.Add(g.ttl)
		entry.ExpiresAt = &expires
	}
	return g.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at", "expires_at"}),
		}).
		Create(&entry).Error
}

// DeleteExpired removes entries whose TTL has passed.
func (g *Gorm) DeleteExpired(ctx context.Context) (int64, error) {
	res := g.DB(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", g.now().UTC()).
		Delete(&models.KVEntry{})
	return res.RowsAffected, res.Error
}
