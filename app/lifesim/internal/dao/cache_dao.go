package dao

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/database/redis"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

const (
	performerKeyPrefix = "performer"

	// DefaultPerformerTTL 表演者快照缓存时间
	DefaultPerformerTTL = 30 * time.Minute
)

// CacheDAO 表演者快照的 Redis 缓存；redis 为 nil 时所有操作为空操作
type CacheDAO struct {
	redis   *redis.Client
	ttl     time.Duration
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewCacheDAO 创建缓存 DAO
func NewCacheDAO(rdb *redis.Client, ttl time.Duration, l logger.Logger, m *metrics.Metrics) *CacheDAO {
	if ttl <= 0 {
		ttl = DefaultPerformerTTL
	}
	return &CacheDAO{
		redis:   rdb,
		ttl:     ttl,
		logger:  l.Named("dao.cache"),
		metrics: m,
	}
}

// Enabled 是否配置了 Redis
func (d *CacheDAO) Enabled() bool {
	return d != nil && d.redis != nil
}

func (d *CacheDAO) performerKey(id int64) string {
	return d.redis.Key(performerKeyPrefix, strconv.FormatInt(id, 10))
}

// GetPerformer 从缓存获取表演者，未命中返回 nil, nil
func (d *CacheDAO) GetPerformer(ctx context.Context, id int64) (*model.Performer, error) {
	if !d.Enabled() {
		return nil, nil
	}

	p, err := redis.GetObject[model.Performer](ctx, d.redis, d.performerKey(id))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			d.metrics.RecordCacheMiss("redis")
			return nil, nil
		}
		// 损坏的快照按未命中处理，由调用方回源后覆盖
		if errors.Is(err, redis.ErrCorruptObject) {
			d.logger.Warn("dropping corrupt performer cache entry", "performer_id", id, "error", err)
			_ = d.redis.Del(ctx, d.performerKey(id))
			d.metrics.RecordCacheMiss("redis")
			return nil, nil
		}
		d.logger.Error("failed to get performer from cache",
			"performer_id", id,
			"error", err,
		)
		return nil, errors.Wrap(err, "get performer from cache")
	}

	d.metrics.RecordCacheHit("redis")
	return p, nil
}

// SetPerformer 写入缓存
func (d *CacheDAO) SetPerformer(ctx context.Context, p *model.Performer) error {
	if !d.Enabled() {
		return nil
	}
	if err := redis.SetObject(ctx, d.redis, d.performerKey(p.ID), p, d.ttl); err != nil {
		d.logger.Error("failed to set performer cache",
			"performer_id", p.ID,
			"error", err,
		)
		return errors.Wrap(err, "set performer cache")
	}
	return nil
}

// DeletePerformers 删除缓存
func (d *CacheDAO) DeletePerformers(ctx context.Context, ids ...int64) error {
	if !d.Enabled() || len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, d.performerKey(id))
	}
	if err := d.redis.Del(ctx, keys...); err != nil {
		d.logger.Error("failed to delete performer cache", "performer_ids", ids, "error", err)
		return errors.Wrap(err, "delete performer cache")
	}
	return nil
}
