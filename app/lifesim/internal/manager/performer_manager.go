package manager

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/dao"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/repository"
	"github.com/lk2023060901/lifesim/pkg/cache/lru"
	"github.com/lk2023060901/lifesim/pkg/config"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"
)

const cacheWriteTimeout = 3 * time.Second

// Config 表演者管理器配置
type Config struct {
	// MemorySize 内存缓存条目上限
	MemorySize int `mapstructure:"memory_size"`
	// MemoryTTL 内存快照有效期
	MemoryTTL time.Duration `mapstructure:"memory_ttl"`
	// WorkerPoolSize 异步回写 Redis 的协程数
	WorkerPoolSize int `mapstructure:"worker_pool_size"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MemorySize:     10000,
		MemoryTTL:      time.Minute,
		WorkerPoolSize: 16,
	}
}

// PerformerManager 表演者管理器
// 变更路径直接读写存储并同步刷新缓存；只读查询走 内存 -> Redis -> 存储 三级快照
type PerformerManager struct {
	logger   logger.Logger
	repo     repository.PerformerRepository
	cacheDAO *dao.CacheDAO
	metrics  *metrics.Metrics

	memory *lru.LRU[int64, *model.Performer]
	group  singleflight.Group
	pool   *ants.Pool

	// stamps 每个表演者最近一次同步写缓存或失效的代次，回源回写据此丢弃过期副本
	seq    atomic.Uint64
	stamps *lru.LRU[int64, uint64]
}

// NewPerformerManager 创建表演者管理器
func NewPerformerManager(
	cfg *Config,
	repo repository.PerformerRepository,
	cacheDAO *dao.CacheDAO,
	m *metrics.Metrics,
	l logger.Logger,
) (*PerformerManager, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "manager: merge config")
	}

	memory, err := lru.New[int64, *model.Performer](&lru.Config{
		MaxSize:    merged.MemorySize,
		DefaultTTL: merged.MemoryTTL,
	}, lru.WithOnEvict(func(int64, *model.Performer) { m.RecordCacheEvict("memory") }))
	if err != nil {
		return nil, errors.Wrap(err, "manager: create memory cache")
	}

	stamps, err := lru.New[int64, uint64](&lru.Config{MaxSize: merged.MemorySize})
	if err != nil {
		_ = memory.Close()
		return nil, errors.Wrap(err, "manager: create stamp cache")
	}

	pool, err := ants.NewPool(merged.WorkerPoolSize, ants.WithNonblocking(true))
	if err != nil {
		_ = memory.Close()
		_ = stamps.Close()
		return nil, errors.Wrap(err, "manager: create worker pool")
	}

	return &PerformerManager{
		logger:   l.Named("manager.performer"),
		repo:     repo,
		cacheDAO: cacheDAO,
		metrics:  m,
		memory:   memory,
		pool:     pool,
		stamps:   stamps,
	}, nil
}

// Snapshot 读取可能略旧但自洽的快照（内存 -> Redis -> 存储）
// 返回值为副本，调用方可以自由修改
func (m *PerformerManager) Snapshot(ctx context.Context, id int64) (*model.Performer, error) {
	// 1. 内存
	if p, ok := m.memory.Get(id); ok {
		m.metrics.RecordCacheHit("memory")
		return p.Clone(), nil
	}
	m.metrics.RecordCacheMiss("memory")

	v, err, _ := m.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		// 2. Redis
		p, err := m.cacheDAO.GetPerformer(ctx, id)
		if err != nil {
			m.logger.Warn("failed to get performer from redis",
				"performer_id", id,
				"error", err,
			)
			// 继续从存储加载
		}
		if p != nil {
			m.memory.Set(id, p)
			return p, nil
		}

		// 3. 存储；读取期间若有新版本写入缓存，不再用这份副本覆盖
		stamp := m.stamp(id)
		p, err = m.repo.GetPerformer(ctx, id)
		if err != nil {
			return nil, err
		}
		if m.stamp(id) == stamp {
			m.memory.Set(id, p)
			m.writeBackAsync(p, stamp)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Performer).Clone(), nil
}

// LoadPerformer 从存储读取最新数据，供持锁的变更路径使用
func (m *PerformerManager) LoadPerformer(ctx context.Context, id int64) (*model.Performer, error) {
	return m.repo.GetPerformer(ctx, id)
}

// LoadJobProgress 读取职业进度，不存在返回 nil, nil
func (m *PerformerManager) LoadJobProgress(ctx context.Context, performerID, jobID int64) (*model.JobProgress, error) {
	return m.repo.GetJobProgress(ctx, performerID, jobID)
}

// ListJobProgress 表演者的全部职业进度
func (m *PerformerManager) ListJobProgress(ctx context.Context, performerID int64) ([]*model.JobProgress, error) {
	return m.repo.ListJobProgress(ctx, performerID)
}

// ListCompanions 已关联到角色的伴侣（最新数据）
func (m *PerformerManager) ListCompanions(ctx context.Context, ownerID int64) ([]*model.Performer, error) {
	return m.repo.ListCompanions(ctx, ownerID)
}

// ListCharacters 用户拥有的角色
func (m *PerformerManager) ListCharacters(ctx context.Context, userID int64) ([]*model.Performer, error) {
	return m.repo.ListCharacters(ctx, userID)
}

// SaveAtomic 原子写入一次动作的全部变更，成功后刷新缓存
func (m *PerformerManager) SaveAtomic(ctx context.Context, performerID int64, mut *model.Mutation) error {
	if err := m.repo.Save(ctx, mut); err != nil {
		// 存储状态未知，丢弃缓存
		m.Invalidate(ctx, append(mut.PerformerIDs(), performerID)...)
		return err
	}
	for _, p := range mut.Performers {
		m.refresh(ctx, p)
	}

	m.logger.Debug("mutation saved",
		"performer_id", performerID,
		"performers", len(mut.Performers),
		"upserts", len(mut.UpsertProgress),
		"deletes", len(mut.DeleteProgress),
	)
	return nil
}

// CreatePerformer 插入新表演者并写入缓存
func (m *PerformerManager) CreatePerformer(ctx context.Context, p *model.Performer) error {
	if err := m.repo.Create(ctx, p); err != nil {
		return err
	}
	m.refresh(ctx, p)
	return nil
}

// DeletePerformer 删除表演者；被解除关联的伴侣缓存一并失效
func (m *PerformerManager) DeletePerformer(ctx context.Context, id int64) error {
	companions, err := m.repo.ListCompanions(ctx, id)
	if err != nil {
		return err
	}
	if err := m.repo.Delete(ctx, id); err != nil {
		return err
	}

	ids := []int64{id}
	for _, c := range companions {
		ids = append(ids, c.ID)
	}
	m.Invalidate(ctx, ids...)
	return nil
}

// Invalidate 删除内存与 Redis 中的快照
func (m *PerformerManager) Invalidate(ctx context.Context, ids ...int64) {
	m.bump(ids...)
	m.memory.Delete(ids...)
	if err := m.cacheDAO.DeletePerformers(ctx, ids...); err != nil {
		m.logger.Warn("failed to invalidate performer cache", "performer_ids", ids, "error", err)
	}
}

// refresh 写穿内存与 Redis
func (m *PerformerManager) refresh(ctx context.Context, p *model.Performer) {
	snapshot := p.Clone()
	m.bump(snapshot.ID)
	m.memory.Set(snapshot.ID, snapshot)
	if err := m.cacheDAO.SetPerformer(ctx, snapshot); err != nil {
		m.logger.Warn("failed to update performer cache", "performer_id", snapshot.ID, "error", err)
		m.memory.Delete(snapshot.ID)
		_ = m.cacheDAO.DeletePerformers(ctx, snapshot.ID)
	}
}

// stamp 当前代次，不存在时分配新值
func (m *PerformerManager) stamp(id int64) uint64 {
	return m.stamps.GetOrCreate(id, func() uint64 { return m.seq.Add(1) })
}

// bump 同步写缓存或失效前推进代次
func (m *PerformerManager) bump(ids ...int64) {
	for _, id := range ids {
		m.stamps.Set(id, m.seq.Add(1))
	}
}

// writeBackAsync 异步回写 Redis，协程池满时放弃
func (m *PerformerManager) writeBackAsync(p *model.Performer, stamp uint64) {
	if !m.cacheDAO.Enabled() {
		return
	}
	snapshot := p.Clone()
	err := m.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()
		m.writeBack(ctx, snapshot, stamp)
	})
	if err != nil {
		m.logger.Debug("skip performer cache write-back", "performer_id", snapshot.ID, "error", err)
	}
}

// writeBack 代次未变时写入 Redis；写入期间代次变化则删除，交给下次读取回源
func (m *PerformerManager) writeBack(ctx context.Context, p *model.Performer, stamp uint64) {
	if m.stamp(p.ID) != stamp {
		m.logger.Debug("drop stale performer write-back", "performer_id", p.ID)
		return
	}
	if err := m.cacheDAO.SetPerformer(ctx, p); err != nil {
		m.logger.Warn("failed to cache performer to redis",
			"performer_id", p.ID,
			"error", err,
		)
		return
	}
	if m.stamp(p.ID) != stamp {
		_ = m.cacheDAO.DeletePerformers(ctx, p.ID)
	}
}

// Close 等待异步回写完成并释放资源
func (m *PerformerManager) Close() error {
	err := m.pool.ReleaseTimeout(5 * time.Second)
	_ = m.memory.Close()
	_ = m.stamps.Close()
	if err != nil {
		return errors.Wrap(err, "manager: release worker pool")
	}
	return nil
}
