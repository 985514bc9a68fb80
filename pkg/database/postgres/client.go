package postgres

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lk2023060901/lifesim/pkg/config"
)

// Client PostgreSQL 客户端
// 底层为 pgxpool，同时通过 stdlib 暴露 *sql.DB 供 database/sql 风格的 DAO 使用
type Client struct {
	pool   *pgxpool.Pool
	db     *sql.DB
	cfg    *Config
	closed atomic.Bool
}

// PoolStats 连接池统计信息
type PoolStats struct {
	AcquireCount    int64
	AcquireDuration time.Duration
	AcquiredConns   int32
	IdleConns       int32
	MaxConns        int32
	TotalConns      int32
}

// New 创建客户端并 Ping 一次
func New(cfg *Config) (*Client, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: merge config")
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(merged.ConnString())
	if err != nil {
		return nil, errors.Wrap(err, "postgres: parse pool config")
	}
	poolCfg.MaxConns = merged.Pool.MaxConns
	poolCfg.MinConns = merged.Pool.MinConns
	poolCfg.MaxConnLifetime = merged.Pool.MaxConnLifetime
	poolCfg.MaxConnIdleTime = merged.Pool.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = merged.Pool.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), merged.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "postgres: ping")
	}

	return &Client{
		pool: pool,
		db:   stdlib.OpenDBFromPool(pool),
		cfg:  merged,
	}, nil
}

// Pool 原生 pgx 连接池
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// DB database/sql 视图，与 Pool 共享连接
func (c *Client) DB() *sql.DB {
	return c.db
}

// QueryTimeout 单条查询超时
func (c *Client) QueryTimeout() time.Duration {
	return c.cfg.QueryTimeout
}

func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.pool.Ping(ctx)
}

func (c *Client) Stats() *PoolStats {
	s := c.pool.Stat()
	return &PoolStats{
		AcquireCount:    s.AcquireCount(),
		AcquireDuration: s.AcquireDuration(),
		AcquiredConns:   s.AcquiredConns(),
		IdleConns:       s.IdleConns(),
		MaxConns:        s.MaxConns(),
		TotalConns:      s.TotalConns(),
	}
}

// Close 关闭连接池，可重复调用
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.db.Close()
	c.pool.Close()
	return err
}
