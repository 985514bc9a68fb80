package gamedata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	tables, err := Load("", logger.NewNoop())
	require.NoError(t, err)

	r := tables.Resolver
	assert.Equal(t, 60, r.Thresholds().NeededXP(model.StatSTR, 1))
	assert.Equal(t, 140, r.Thresholds().NeededXP(model.StatSTA, 5))
	assert.Equal(t, engine.MissingThreshold, r.Thresholds().NeededXP(model.StatSTA, 6))
	assert.Equal(t, 10, r.Jobs().Len())

	worker, err := r.Jobs().Job(1)
	require.NoError(t, err)
	assert.Equal(t, "Construction Worker I", worker.Name)
	assert.Equal(t, 5, worker.StrXP)

	next, ok := r.Jobs().NextTier(worker)
	require.True(t, ok)
	assert.Equal(t, 40, next.EntryLevelXP)

	master, err := r.Jobs().Job(105)
	require.NoError(t, err)
	assert.Equal(t, "office-master", master.Requirement)
	_, ok = r.Jobs().NextTier(master)
	assert.False(t, ok)

	lift, err := r.Scaler().LiftCapacityAt(model.GenderMale, 6)
	require.NoError(t, err)
	assert.Equal(t, 87.5, lift.BenchPress)

	treadmill, err := tables.SubActivity(4)
	require.NoError(t, err)
	require.Len(t, treadmill.Effects, 1)
	assert.Equal(t, model.EffectBonusXP, treadmill.Effects[0].Kind)
	assert.Equal(t, 3, treadmill.Effects[0].WhileLevelBelow)

	_, err = tables.SubActivity(999)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = tables.Achievement("construction-master")
	assert.NoError(t, err)
	_, err = tables.Achievement("nope")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	assert.Len(t, tables.SubActivities(2), 3)
	assert.Len(t, tables.Activities(2), 2)
	assert.Len(t, tables.Locations(), 4)
}

func TestLoadOverrideDir(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, TableStatRequirements, `[{"stat": "STR", "level": 1, "neededXp": 40}]`)

	tables, err := Load(dir, logger.NewNoop())
	require.NoError(t, err)
	assert.Equal(t, 40, tables.Resolver.Thresholds().NeededXP(model.StatSTR, 1))
	assert.Equal(t, engine.MissingThreshold, tables.Resolver.Thresholds().NeededXP(model.StatDEX, 1))
	// 其它表仍来自内嵌默认值
	assert.Equal(t, 10, tables.Resolver.Jobs().Len())
}

func TestLoadRejectsBadTables(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, TableJobs, `[{"id": 1, "jobType": "a", "level": 1}, {"id": 1, "jobType": "a", "level": 2}]`)
	_, err := Load(dir, logger.NewNoop())
	assert.ErrorContains(t, err, "duplicate id")

	dir = t.TempDir()
	writeTable(t, dir, TableStatRequirements, `[{"stat": "LUCK", "level": 1, "neededXp": 1}]`)
	_, err = Load(dir, logger.NewNoop())
	assert.ErrorContains(t, err, "unknown stat")
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, TableStatRequirements, `[{"stat": "STR", "level": 1, "neededXp": 40}]`)

	tables, err := Load(dir, logger.NewNoop())
	require.NoError(t, err)
	holder := NewHolder(tables)

	reloaded := make(chan int64, 4)
	w := NewWatcher(dir, holder, logger.NewNoop(),
		WithDebounce(20*time.Millisecond),
		WithReloadHook(func(v int64, err error) {
			if err == nil {
				reloaded <- v
			}
		}),
	)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	writeTable(t, dir, TableStatRequirements, `[{"stat": "STR", "level": 1, "neededXp": 25}]`)

	select {
	case v := <-reloaded:
		assert.Equal(t, int64(2), v)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
	assert.Equal(t, 25, holder.Resolver().Thresholds().NeededXP(model.StatSTR, 1))

	// 内容不变的写入不触发重新加载
	writeTable(t, dir, TableStatRequirements, `[{"stat": "STR", "level": 1, "neededXp": 25}]`)
	select {
	case v := <-reloaded:
		t.Fatalf("unexpected reload to version %d", v)
	case <-time.After(300 * time.Millisecond):
	}
	assert.Equal(t, int64(2), holder.Version())
	require.NoError(t, w.Stop())
}

func writeTable(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o644))
}
