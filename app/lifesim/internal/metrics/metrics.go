// Package metrics 引擎的 Prometheus 指标
// 所有方法对 nil 接收者安全，单元测试可直接传 nil
package metrics

import (
	"time"

	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/prometheus"
	"go.uber.org/zap/zapcore"
)

// Metrics 引擎指标
type Metrics struct {
	// 动作指标
	ActionTotal    *prometheus.CounterVec   // 动作总数（按动作、结果码）
	ActionDuration *prometheus.HistogramVec // 动作处理延迟

	// 数据库指标
	DBQueryTotal    *prometheus.CounterVec   // 查询总数（按操作、结果）
	DBQueryDuration *prometheus.HistogramVec // 查询延迟

	// 缓存指标
	CacheHitTotal   *prometheus.CounterVec // 命中（按层级）
	CacheMissTotal  *prometheus.CounterVec // 未命中（按层级）
	CacheEvictTotal *prometheus.CounterVec // 移除次数（按层级），含过期与主动失效

	// 锁与配置
	LockWaitDuration *prometheus.HistogramVec // 等锁时间（按后端）
	GamedataReloads  *prometheus.CounterVec   // 配置表重载（按结果）
	GamedataVersion  *prometheus.GaugeVec     // 当前配置表版本

	// 事件
	EventsPublished *prometheus.CounterVec // 发布的事件（按结果）

	// 日志
	LogEntries *prometheus.CounterVec // 日志条数（按级别）
}

// New 在 Prometheus 客户端上注册全部指标
func New(c *prometheus.Client) (*Metrics, error) {
	var (
		m   = &Metrics{}
		err error
	)

	if m.ActionTotal, err = c.NewCounter("actions_total", "Executed actions by type and result code", []string{"action", "code"}); err != nil {
		return nil, err
	}
	if m.ActionDuration, err = c.NewHistogram("action_duration_seconds", "Action latency including lock wait", []string{"action"}, nil); err != nil {
		return nil, err
	}
	if m.DBQueryTotal, err = c.NewCounter("db_queries_total", "Database operations by kind and result", []string{"op", "result"}); err != nil {
		return nil, err
	}
	if m.DBQueryDuration, err = c.NewHistogram("db_query_duration_seconds", "Database operation latency", []string{"op"}, nil); err != nil {
		return nil, err
	}
	if m.CacheHitTotal, err = c.NewCounter("cache_hits_total", "Snapshot cache hits by layer", []string{"layer"}); err != nil {
		return nil, err
	}
	if m.CacheMissTotal, err = c.NewCounter("cache_misses_total", "Snapshot cache misses by layer", []string{"layer"}); err != nil {
		return nil, err
	}
	if m.CacheEvictTotal, err = c.NewCounter("cache_evictions_total", "Snapshot cache removals by layer", []string{"layer"}); err != nil {
		return nil, err
	}
	if m.LockWaitDuration, err = c.NewHistogram("lock_wait_seconds", "Time spent acquiring performer locks", []string{"backend"},
		[]float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}); err != nil {
		return nil, err
	}
	if m.GamedataReloads, err = c.NewCounter("gamedata_reloads_total", "Reference table reloads by result", []string{"result"}); err != nil {
		return nil, err
	}
	if m.GamedataVersion, err = c.NewGauge("gamedata_version", "Currently active reference table version", nil); err != nil {
		return nil, err
	}
	if m.EventsPublished, err = c.NewCounter("events_published_total", "Domain events handed to the publisher by result", []string{"result"}); err != nil {
		return nil, err
	}
	if m.LogEntries, err = c.NewCounter("log_entries_total", "Log entries by level", []string{"level"}); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordAction 记录一次动作
func (m *Metrics) RecordAction(action, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.ActionTotal.WithLabelValues(action, code).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(d.Seconds())
}

// RecordDBQuery 记录一次数据库操作
func (m *Metrics) RecordDBQuery(op string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.DBQueryTotal.WithLabelValues(op, result).Inc()
	m.DBQueryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordCacheHit 记录缓存命中
func (m *Metrics) RecordCacheHit(layer string) {
	if m == nil {
		return
	}
	m.CacheHitTotal.WithLabelValues(layer).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *Metrics) RecordCacheMiss(layer string) {
	if m == nil {
		return
	}
	m.CacheMissTotal.WithLabelValues(layer).Inc()
}

// RecordCacheEvict 记录缓存淘汰
func (m *Metrics) RecordCacheEvict(layer string) {
	if m == nil {
		return
	}
	m.CacheEvictTotal.WithLabelValues(layer).Inc()
}

// RecordLockWait 记录等锁时间
func (m *Metrics) RecordLockWait(backend string, d time.Duration) {
	if m == nil {
		return
	}
	m.LockWaitDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// RecordGamedataReload 配置表重载回调，可直接传给 gamedata.WithReloadHook
func (m *Metrics) RecordGamedataReload(version int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.GamedataReloads.WithLabelValues("failure").Inc()
		return
	}
	m.GamedataReloads.WithLabelValues("success").Inc()
	m.GamedataVersion.WithLabelValues().Set(float64(version))
}

// RecordEventPublish 记录一次事件发布
func (m *Metrics) RecordEventPublish(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.EventsPublished.WithLabelValues(result).Inc()
}

// LogHook 统计各级别日志条数的 logger.Hook
func (m *Metrics) LogHook() logger.Hook {
	return logger.HookFunc(func(entry zapcore.Entry, _ []zapcore.Field) bool {
		if m != nil {
			m.LogEntries.WithLabelValues(entry.Level.String()).Inc()
		}
		return true
	})
}
