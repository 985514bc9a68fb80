package main

import (
	"time"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/manager"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/ratelimit"
	"github.com/lk2023060901/lifesim/pkg/database/postgres"
	"github.com/lk2023060901/lifesim/pkg/database/redis"
	"github.com/lk2023060901/lifesim/pkg/database/sqlite"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/mq/kafka"
	"github.com/lk2023060901/lifesim/pkg/otel"
	"github.com/lk2023060901/lifesim/pkg/prometheus"
	"github.com/lk2023060901/lifesim/pkg/sentry"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config lifesim 配置
type Config struct {
	Log      logger.Config     `mapstructure:"log"`
	Storage  StorageConfig     `mapstructure:"storage"`
	Redis    *redis.Config     `mapstructure:"redis"` // 为空时不启用快照缓存与分布式锁
	Gamedata GamedataConfig    `mapstructure:"gamedata"`
	Events   EventsConfig      `mapstructure:"events"`
	Console  ConsoleConfig     `mapstructure:"console"`
	Metrics  prometheus.Config `mapstructure:"metrics"`
	Trace    otel.Config       `mapstructure:"trace"`
	Sentry   sentry.Config     `mapstructure:"sentry"` // DSN 为空时不上报
	Engine   EngineConfig      `mapstructure:"engine"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	// AutoMigrate 启动时执行内嵌迁移
	AutoMigrate bool            `mapstructure:"auto_migrate"`
	Postgres    postgres.Config `mapstructure:"postgres"`
	SQLite      sqlite.Config   `mapstructure:"sqlite"`
}

// GamedataConfig 参考表配置
type GamedataConfig struct {
	// DataDir 覆盖内嵌默认表的目录，可为空
	DataDir  string        `mapstructure:"data_dir"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// EventsConfig 事件发布配置
type EventsConfig struct {
	// Kafka 为空时事件被丢弃
	Kafka *kafka.Config `mapstructure:"kafka"`
}

// ConsoleConfig serve --stdin 控制台配置
type ConsoleConfig struct {
	RateLimit ratelimit.Config `mapstructure:"rate_limit"`
}

// EngineConfig 引擎运行参数
type EngineConfig struct {
	MachineID   uint16                    `mapstructure:"machine_id"`
	LockStripes int                       `mapstructure:"lock_stripes" validate:"gte=0"`
	CacheTTL    time.Duration             `mapstructure:"cache_ttl"`
	Manager     manager.Config            `mapstructure:"manager"`
	Lock        manager.RedisLockerConfig `mapstructure:"lock"`
}

// defaultSettings 配置文件与环境变量都未提供时的取值
func defaultSettings() map[string]any {
	return map[string]any{
		"log.level":          "info",
		"log.format":         "console",
		"log.enable_console": true,

		"storage.driver":              DriverSQLite,
		"storage.auto_migrate":        true,
		"storage.sqlite.path":         "data/lifesim.sqlite",
		"storage.sqlite.busy_timeout": "5s",

		"gamedata.debounce": "200ms",

		"metrics.namespace":           "lifesim",
		"metrics.http_server.enabled": true,
		"metrics.http_server.addr":    ":9090",
		"metrics.http_server.path":    "/metrics",

		"trace.enabled":       false,
		"trace.service_name":  "lifesim",
		"trace.exporter_type": "noop",

		"engine.lock_stripes": manager.DefaultStripes,
		"engine.cache_ttl":    "30m",
	}
}
