package manager

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/dao"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/repository"
	"github.com/lk2023060901/lifesim/pkg/database/redis"
	"github.com/lk2023060901/lifesim/pkg/database/sqlite"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	c, err := redis.NewClient(&redis.Config{
		Standalone: &redis.NodeConfig{Host: mr.Host(), Port: port},
		KeyPrefix:  "lifesim:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func newTestManager(t *testing.T, rdb *redis.Client) *PerformerManager {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, &sqlite.Config{Path: filepath.Join(t.TempDir(), "manager.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l := logger.NewNoop()
	s, err := dao.NewStore(db, dao.DialectSQLite, l, nil)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	repo := repository.NewPerformerRepository(s, dao.NewPerformerDAO(s, l), dao.NewJobProgressDAO(s, l), l)
	m, err := NewPerformerManager(nil, repo, dao.NewCacheDAO(rdb, time.Minute, l, nil), nil, l)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestLocalLockerSerializes(t *testing.T) {
	l := NewLocalLocker(4, nil)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, 42)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLocalLockerMultipleIDs(t *testing.T) {
	// 单分片时所有 ID 映射到同一把锁，不能自死锁
	l := NewLocalLocker(1, nil)
	unlock, err := l.Lock(context.Background(), 1, 2, 3, 1)
	require.NoError(t, err)
	unlock()
	unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Lock(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisLocker(t *testing.T) {
	client, mr := newRedis(t)
	cfg := &RedisLockerConfig{TTL: time.Second, RetryInterval: time.Millisecond, MaxRetries: 3}
	rl := NewRedisLocker(NewLocalLocker(8, nil), client, cfg, nil, logger.NewNoop())
	ctx := context.Background()

	unlock, err := rl.Lock(ctx, 7, 3)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lifesim:lock:performer:3"))
	assert.True(t, mr.Exists("lifesim:lock:performer:7"))
	unlock()
	assert.False(t, mr.Exists("lifesim:lock:performer:7"))

	// 另一个实例持有锁时重试耗尽
	other := redis.NewLock(client, "lifesim:lock:performer:9", time.Minute)
	ok, err := other.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = rl.Lock(ctx, 9)
	assert.ErrorIs(t, err, redis.ErrLockFailed)

	// 失败后本地锁已释放
	unlock, err = rl.local.Lock(ctx, 9)
	require.NoError(t, err)
	unlock()
}

func TestSnapshotFallsThroughTiers(t *testing.T) {
	client, mr := newRedis(t)
	m := newTestManager(t, client)
	ctx := context.Background()

	p := model.NewCharacter(1, "Ann", model.GenderFemale)
	p.ID = 10
	require.NoError(t, m.repo.Create(ctx, p))

	got, err := m.Snapshot(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Eventually(t, func() bool { return mr.Exists("lifesim:performer:10") }, time.Second, 5*time.Millisecond)

	// 返回副本，修改不影响缓存
	got.Name = "changed"
	again, err := m.Snapshot(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Ann", again.Name)

	// 内存失效后从 Redis 读取
	m.memory.Delete(10)
	fromRedis, err := m.Snapshot(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Ann", fromRedis.Name)

	_, err = m.Snapshot(ctx, 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaveAtomicRefreshesCache(t *testing.T) {
	client, _ := newRedis(t)
	m := newTestManager(t, client)
	ctx := context.Background()

	p := model.NewCharacter(1, "Ann", model.GenderFemale)
	p.ID = 10
	require.NoError(t, m.CreatePerformer(ctx, p))

	snap, err := m.Snapshot(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, snap.Money)

	updated, err := m.LoadPerformer(ctx, 10)
	require.NoError(t, err)
	updated.Money = 75
	require.NoError(t, m.SaveAtomic(ctx, 10, &model.Mutation{Performers: []*model.Performer{updated}}))

	snap, err = m.Snapshot(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(75), snap.Money)

	cached, err := redis.GetObject[model.Performer](ctx, client, client.Key("performer", "10"))
	require.NoError(t, err)
	assert.Equal(t, int64(75), cached.Money)
}

func TestStaleWriteBackDropped(t *testing.T) {
	client, mr := newRedis(t)
	m := newTestManager(t, client)
	ctx := context.Background()

	p := model.NewCharacter(1, "Ann", model.GenderFemale)
	p.ID = 10
	require.NoError(t, m.repo.Create(ctx, p))

	// 回源读到旧副本后，变更路径先写入了新版本
	stamp := m.stamp(10)
	stale, err := m.repo.GetPerformer(ctx, 10)
	require.NoError(t, err)

	updated := stale.Clone()
	updated.Money = 75
	require.NoError(t, m.SaveAtomic(ctx, 10, &model.Mutation{Performers: []*model.Performer{updated}}))

	m.writeBack(ctx, stale, stamp)
	cached, err := redis.GetObject[model.Performer](ctx, client, client.Key("performer", "10"))
	require.NoError(t, err)
	assert.Equal(t, int64(75), cached.Money)

	// 代次未变时照常回写
	m.Invalidate(ctx, 10)
	assert.False(t, mr.Exists("lifesim:performer:10"))
	m.writeBack(ctx, updated, m.stamp(10))
	assert.True(t, mr.Exists("lifesim:performer:10"))
}

func TestDeletePerformerInvalidatesCompanions(t *testing.T) {
	m := newTestManager(t, nil)
	ctx := context.Background()

	owner := model.NewCharacter(1, "Owner", model.GenderMale)
	owner.ID = 1
	require.NoError(t, m.CreatePerformer(ctx, owner))
	comp := model.NewCompanion(1, "Pal", model.GenderFemale)
	comp.ID = 2
	require.NoError(t, m.CreatePerformer(ctx, comp))

	snap, err := m.Snapshot(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.OwnerID)

	require.NoError(t, m.DeletePerformer(ctx, 1))

	snap, err = m.Snapshot(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, snap.OwnerID)

	_, err = m.Snapshot(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
