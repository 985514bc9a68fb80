package redis

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/pkg/checksum"
	"github.com/lk2023060901/lifesim/pkg/compress"
	goredis "github.com/redis/go-redis/v9"
)

// Client Redis 客户端，对外隐藏 go-redis 类型
type Client struct {
	rdb        goredis.UniversalClient
	prefix     string
	compressor compress.Compressor
	hasher     checksum.Hasher
}

// NewClient 创建客户端
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	compressor, err := compress.New(cfg.Compression)
	if err != nil {
		return nil, err
	}

	pool := cfg.Pool
	if pool == (PoolConfig{}) {
		pool = DefaultPoolConfig()
	}

	var rdb goredis.UniversalClient
	if cfg.Standalone != nil {
		rdb = goredis.NewClient(&goredis.Options{
			Addr:            cfg.Standalone.Addr(),
			Password:        cfg.Standalone.Password,
			DB:              cfg.Standalone.DB,
			PoolSize:        pool.PoolSize,
			MinIdleConns:    pool.MinIdleConns,
			ConnMaxIdleTime: pool.ConnMaxIdleTime,
			DialTimeout:     pool.DialTimeout,
			ReadTimeout:     pool.ReadTimeout,
			WriteTimeout:    pool.WriteTimeout,
		})
	} else {
		rdb = goredis.NewClusterClient(&goredis.ClusterOptions{
			Addrs:           cfg.Cluster.Addrs,
			Password:        cfg.Cluster.Password,
			PoolSize:        pool.PoolSize,
			MinIdleConns:    pool.MinIdleConns,
			ConnMaxIdleTime: pool.ConnMaxIdleTime,
			DialTimeout:     pool.DialTimeout,
			ReadTimeout:     pool.ReadTimeout,
			WriteTimeout:    pool.WriteTimeout,
		})
	}

	return &Client{
		rdb:        rdb,
		prefix:     cfg.KeyPrefix,
		compressor: compressor,
		hasher:     checksum.Default(),
	}, nil
}

// Key 拼接业务前缀
func (c *Client) Key(parts ...string) string {
	k := c.prefix
	for i, p := range parts {
		if i > 0 {
			k += ":"
		}
		k += p
	}
	return k
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetBytes 读取原始值，键不存在返回 ErrNil
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNil
		}
		return nil, errors.Wrapf(err, "redis get %s", key)
	}
	return b, nil
}

// SetBytes 写入原始值，ttl <= 0 表示不过期
func (c *Client) SetBytes(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

// TTL 剩余过期时间
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "redis ttl %s", key)
	}
	return d, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
