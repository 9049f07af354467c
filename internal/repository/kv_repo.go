package repository

import (
	"context"
	"errors"
	"time"

	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVStore is the local key-value storage of the device
type KVStore interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// ========== Redis ==========

const redisKeyPrefix = "raven:kv:"

// RedisKVRepository stores items as plain Redis strings
type RedisKVRepository struct {
	rdb *redis.Client
}

func NewRedisKVRepository(rdb *redis.Client) *RedisKVRepository {
	return &RedisKVRepository{rdb: rdb}
}

// GetItem returns the stored value; found is false when the key is absent
func (r *RedisKVRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem stores a value without expiry
func (r *RedisKVRepository) SetItem(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, redisKeyPrefix+key, value, 0).Err()
}

// RemoveItem deletes a key; removing an absent key is not an error
func (r *RedisKVRepository) RemoveItem(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

// ========== PostgreSQL ==========

// GormKVRepository stores items in the kv_items table
type GormKVRepository struct {
	db *gorm.DB
}

func NewGormKVRepository(db *gorm.DB) *GormKVRepository {
	return &GormKVRepository{db: db}
}

// GetItem returns the stored value; found is false when the key is absent
func (r *GormKVRepository) GetItem(ctx context.Context, key string) (string, bool, error) {
	var item model.KVItem
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return item.Value, true, nil
}

// SetItem inserts or overwrites an item
func (r *GormKVRepository) SetItem(ctx context.Context, key, value string) error {
	item := model.KVItem{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&item).Error
}

// RemoveItem deletes an item
func (r *GormKVRepository) RemoveItem(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&model.KVItem{}).Error
}
