// Package ratelimit 按用户限制操作请求速率
package ratelimit

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/pkg/cache/lru"
	"golang.org/x/time/rate"
)

// ErrRateLimited 请求超出速率限制
var ErrRateLimited = errors.New("rate limited")

// Config 限流配置
type Config struct {
	// RequestsPerSecond 每个用户每秒请求数，<= 0 时不限流
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// Burst 突发容量，零值取 RequestsPerSecond 向上取整
	Burst int `mapstructure:"burst"`

	// MaxUsers 同时跟踪的用户数
	MaxUsers int `mapstructure:"max_users"`

	// IdleTTL 用户限流器空闲多久后回收
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// Limiter 每个用户一个令牌桶，空闲的桶随 LRU 淘汰
// nil Limiter 放行全部请求
type Limiter struct {
	limit    rate.Limit
	burst    int
	limiters *lru.LRU[int64, *rate.Limiter]
}

// New 创建限流器；cfg 为 nil 或未设置速率时返回 nil
func New(cfg *Config) (*Limiter, error) {
	if cfg == nil || cfg.RequestsPerSecond <= 0 {
		return nil, nil
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.RequestsPerSecond)
		if float64(burst) < cfg.RequestsPerSecond {
			burst++
		}
	}

	limiters, err := lru.New[int64, *rate.Limiter](&lru.Config{
		MaxSize:    cfg.MaxUsers,
		DefaultTTL: cfg.IdleTTL,
	})
	if err != nil {
		return nil, err
	}
	return &Limiter{
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    burst,
		limiters: limiters,
	}, nil
}

// Allow 消耗 userID 的一个令牌
func (l *Limiter) Allow(userID int64) error {
	if l == nil {
		return nil
	}
	limiter := l.limiters.GetOrCreate(userID, func() *rate.Limiter {
		return rate.NewLimiter(l.limit, l.burst)
	})
	if !limiter.Allow() {
		return errors.Wrapf(ErrRateLimited, "user %d", userID)
	}
	return nil
}

// Close 停止回收协程
func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.limiters.Close()
}
