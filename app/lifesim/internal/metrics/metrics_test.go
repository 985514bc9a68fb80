package metrics

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/pkg/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	c, err := prometheus.New(&prometheus.Config{Namespace: "lifesim_test"}, nil)
	require.NoError(t, err)
	m, err := New(c)
	require.NoError(t, err)
	return m
}

func TestRecorders(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordAction("work", "OK", 10*time.Millisecond)
	m.RecordAction("work", "INSUFFICIENT_RESOURCE", time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActionTotal.WithLabelValues("work", "OK")))

	m.RecordDBQuery("save", false, time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DBQueryTotal.WithLabelValues("save", "failure")))

	m.RecordCacheHit("memory")
	m.RecordCacheMiss("redis")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHitTotal.WithLabelValues("memory")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMissTotal.WithLabelValues("redis")))
	m.RecordCacheEvict("memory")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheEvictTotal.WithLabelValues("memory")))

	m.RecordGamedataReload(3, nil)
	m.RecordGamedataReload(3, errors.New("bad json"))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.GamedataVersion.WithLabelValues()))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GamedataReloads.WithLabelValues("failure")))

	m.RecordEventPublish(true)
	m.RecordEventPublish(false)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsPublished.WithLabelValues("failure")))

	assert.True(t, m.LogHook().OnWrite(zapcore.Entry{Level: zapcore.WarnLevel}, nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LogEntries.WithLabelValues("warn")))
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAction("sleep", "OK", time.Second)
		m.RecordDBQuery("load", true, time.Second)
		m.RecordCacheHit("memory")
		m.RecordCacheMiss("memory")
		m.RecordLockWait("local", time.Second)
		m.RecordGamedataReload(1, nil)
		m.RecordEventPublish(true)
		m.LogHook().OnWrite(zapcore.Entry{}, nil)
	})
}
