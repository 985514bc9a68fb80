//go:build wireinject
// +build wireinject

package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/wire"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/dao"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/events"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/gamedata"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/manager"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/repository"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/service"
	"github.com/lk2023060901/lifesim/pkg/database/postgres"
	"github.com/lk2023060901/lifesim/pkg/database/redis"
	"github.com/lk2023060901/lifesim/pkg/database/sqlite"
	"github.com/lk2023060901/lifesim/pkg/idgen"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/mq/kafka"
	"github.com/lk2023060901/lifesim/pkg/otel"
	"github.com/lk2023060901/lifesim/pkg/prometheus"
)

func InitRuntime(cfg *Config, l logger.Logger) (*Runtime, func(), error) {
	panic(wire.Build(
		// 1. 指标
		providePrometheusConfig,
		providePrometheus,
		metrics.New,

		// 2. 链路追踪
		provideTracerConfig,
		provideTracer,

		// 3. 存储（postgres 或 sqlite）
		provideStore,
		dao.NewPerformerDAO,
		dao.NewJobProgressDAO,
		repository.NewPerformerRepository,

		// 4. Redis（可选）
		provideRedis,
		provideCacheDAO,

		// 5. 管理层
		provideManagerConfig,
		provideManager,
		provideLocker,
		wire.Bind(new(service.Gateway), new(*manager.PerformerManager)),
		wire.Bind(new(service.SnapshotReader), new(*manager.PerformerManager)),

		// 6. 参考表
		provideTables,
		provideWatcher,
		wire.Bind(new(service.TableSource), new(*gamedata.Holder)),

		// 7. 事件发布（可选）
		provideEvents,

		// 8. 服务层
		provideIDGenerator,
		service.NewPerformerService,
		service.NewActionService,
		service.NewJobService,
		service.NewQueryService,

		wire.Struct(new(Runtime), "*"),
	))
}

// providePrometheusConfig 提供 Prometheus 配置
func providePrometheusConfig(cfg *Config) *prometheus.Config {
	return &cfg.Metrics
}

// providePrometheus 提供 Prometheus 客户端
func providePrometheus(c *prometheus.Config, l logger.Logger) (*prometheus.Client, func(), error) {
	client, err := prometheus.New(c, l)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// provideTracerConfig 提供追踪配置
func provideTracerConfig(cfg *Config) *otel.Config {
	return &cfg.Trace
}

// provideTracer 提供进程级 TracerProvider
func provideTracer(c *otel.Config) (*otel.TracerProvider, func(), error) {
	tp, err := otel.New(c, otel.WithGlobal())
	if err != nil {
		return nil, nil, err
	}
	return tp, func() { _ = tp.Close() }, nil
}

// provideStore 按 storage.driver 打开数据库，需要时执行迁移
func provideStore(cfg *Config, l logger.Logger, m *metrics.Metrics) (*dao.Store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		store   *dao.Store
		closeDB func() error
		err     error
	)
	switch cfg.Storage.Driver {
	case DriverPostgres:
		client, perr := postgres.New(&cfg.Storage.Postgres)
		if perr != nil {
			return nil, nil, perr
		}
		closeDB = client.Close
		store, err = dao.NewStore(client.DB(), dao.DialectPostgres, l, m)
	case DriverSQLite:
		db, serr := sqlite.Open(ctx, &cfg.Storage.SQLite)
		if serr != nil {
			return nil, nil, serr
		}
		closeDB = db.Close
		store, err = dao.NewStore(db, dao.DialectSQLite, l, m)
	default:
		return nil, nil, errors.Wrapf(dao.ErrUnknownDialect, "storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		_ = closeDB()
		return nil, nil, err
	}

	if cfg.Storage.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = closeDB()
			return nil, nil, err
		}
	}
	return store, func() { _ = closeDB() }, nil
}

// provideRedis 未配置 redis 时返回 nil，快照只走内存与存储
func provideRedis(cfg *Config) (*redis.Client, func(), error) {
	if cfg.Redis == nil {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// provideCacheDAO 提供 Redis 快照缓存
func provideCacheDAO(cfg *Config, rdb *redis.Client, l logger.Logger, m *metrics.Metrics) *dao.CacheDAO {
	return dao.NewCacheDAO(rdb, cfg.Engine.CacheTTL, l, m)
}

// provideManagerConfig 提供管理器配置
func provideManagerConfig(cfg *Config) *manager.Config {
	return &cfg.Engine.Manager
}

// provideManager 提供表演者管理器
func provideManager(
	c *manager.Config,
	repo repository.PerformerRepository,
	cacheDAO *dao.CacheDAO,
	m *metrics.Metrics,
	l logger.Logger,
) (*manager.PerformerManager, func(), error) {
	mgr, err := manager.NewPerformerManager(c, repo, cacheDAO, m, l)
	if err != nil {
		return nil, nil, err
	}
	return mgr, func() { _ = mgr.Close() }, nil
}

// provideLocker 配置了 redis 时使用分布式锁，否则只用进程内锁
func provideLocker(cfg *Config, rdb *redis.Client, m *metrics.Metrics, l logger.Logger) manager.Locker {
	local := manager.NewLocalLocker(cfg.Engine.LockStripes, m)
	if rdb == nil {
		return local
	}
	return manager.NewRedisLocker(local, rdb, &cfg.Engine.Lock, m, l)
}

// provideTables 加载参考表
func provideTables(cfg *Config, m *metrics.Metrics, l logger.Logger) (*gamedata.Holder, error) {
	tables, err := gamedata.Load(cfg.Gamedata.DataDir, l)
	if err != nil {
		return nil, err
	}
	holder := gamedata.NewHolder(tables)
	m.RecordGamedataReload(holder.Version(), nil)
	return holder, nil
}

// provideWatcher 提供参考表热加载监听器，仅 serve 启动
func provideWatcher(cfg *Config, holder *gamedata.Holder, m *metrics.Metrics, l logger.Logger) *gamedata.Watcher {
	return gamedata.NewWatcher(cfg.Gamedata.DataDir, holder, l,
		gamedata.WithDebounce(cfg.Gamedata.Debounce),
		gamedata.WithReloadHook(m.RecordGamedataReload),
	)
}

// provideEvents 配置了 kafka 时把提交后的事件写入 kafka，否则丢弃
func provideEvents(cfg *Config, m *metrics.Metrics, l logger.Logger) (events.Publisher, func(), error) {
	if cfg.Events.Kafka == nil {
		return events.Nop(), func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.Events.Kafka, l)
	if err != nil {
		return nil, nil, err
	}
	return events.NewKafkaPublisher(producer, m, l), func() { _ = producer.Close() }, nil
}

// provideIDGenerator 提供表演者 ID 生成器
func provideIDGenerator(cfg *Config) (idgen.Generator, error) {
	return idgen.NewSonyflake(cfg.Engine.MachineID)
}
