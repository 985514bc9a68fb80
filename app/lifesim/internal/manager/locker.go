package manager

import (
	"context"
	"encoding/binary"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/pkg/config"
	"github.com/lk2023060901/lifesim/pkg/database/redis"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

// DefaultStripes 本地锁分片数
const DefaultStripes = 256

// Locker 按表演者 ID 串行化变更操作
// 同时锁定多个 ID 时按固定顺序获取，调用方无需排序
type Locker interface {
	Lock(ctx context.Context, ids ...int64) (unlock func(), err error)
}

// LocalLocker 进程内分片互斥锁，分片由 xxhash 选择
type LocalLocker struct {
	stripes []sync.Mutex
	metrics *metrics.Metrics
}

// NewLocalLocker 创建本地锁，stripes <= 0 时使用 DefaultStripes
func NewLocalLocker(stripes int, m *metrics.Metrics) *LocalLocker {
	if stripes <= 0 {
		stripes = DefaultStripes
	}
	return &LocalLocker{
		stripes: make([]sync.Mutex, stripes),
		metrics: m,
	}
}

func (l *LocalLocker) stripe(id int64) int {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(id))
	return int(xxhash.Sum64(b[:]) % uint64(len(l.stripes)))
}

// Lock 获取 ids 对应的全部分片
func (l *LocalLocker) Lock(ctx context.Context, ids ...int64) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := make([]int, 0, len(ids))
	for _, id := range ids {
		idx = append(idx, l.stripe(id))
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)

	start := time.Now()
	for _, i := range idx {
		l.stripes[i].Lock()
	}
	l.metrics.RecordLockWait("local", time.Since(start))

	var once sync.Once
	return func() {
		once.Do(func() {
			for j := len(idx) - 1; j >= 0; j-- {
				l.stripes[idx[j]].Unlock()
			}
		})
	}, nil
}

// RedisLockerConfig 分布式锁配置
type RedisLockerConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

// DefaultRedisLockerConfig 默认配置
func DefaultRedisLockerConfig() *RedisLockerConfig {
	return &RedisLockerConfig{
		TTL:           10 * time.Second,
		RetryInterval: 50 * time.Millisecond,
		MaxRetries:    100,
	}
}

// RedisLocker 先获取本地锁，再获取 Redis 锁，用于多实例部署
type RedisLocker struct {
	local   *LocalLocker
	client  *redis.Client
	cfg     *RedisLockerConfig
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewRedisLocker 创建分布式锁
func NewRedisLocker(local *LocalLocker, client *redis.Client, cfg *RedisLockerConfig, m *metrics.Metrics, l logger.Logger) *RedisLocker {
	merged, err := config.MergeConfig(DefaultRedisLockerConfig(), cfg)
	if err != nil {
		merged = DefaultRedisLockerConfig()
	}
	return &RedisLocker{
		local:   local,
		client:  client,
		cfg:     merged,
		metrics: m,
		logger:  l.Named("manager.locker"),
	}
}

func (r *RedisLocker) Lock(ctx context.Context, ids ...int64) (func(), error) {
	unlockLocal, err := r.local.Lock(ctx, ids...)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	start := time.Now()
	held := make([]*redis.Lock, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Unlock(context.Background()); err != nil {
				r.logger.Warn("failed to release redis lock", "key", held[i].Key(), "error", err)
			}
		}
		unlockLocal()
	}

	for _, id := range sorted {
		lk := redis.NewLock(r.client, r.client.Key("lock", "performer", strconv.FormatInt(id, 10)), r.cfg.TTL)
		if err := lk.LockWithRetry(ctx, r.cfg.RetryInterval, r.cfg.MaxRetries); err != nil {
			release()
			return nil, errors.Wrapf(err, "lock performer %d", id)
		}
		held = append(held, lk)
	}
	r.metrics.RecordLockWait("redis", time.Since(start))

	var once sync.Once
	return func() { once.Do(release) }, nil
}
