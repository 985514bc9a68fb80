// Package service 编排引擎规则与持久化：加锁、加载、结算、原子保存、刷新缓存
package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/events"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/gamedata"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/manager"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/repository"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrStorage 标记所有持久化层故障，与业务规则错误区分
var ErrStorage = errors.New("storage failure")

// lockScopeAttempts 关联角色在加锁期间变化时的重试次数
const lockScopeAttempts = 3

// Gateway 持久化网关
type Gateway interface {
	LoadPerformer(ctx context.Context, id int64) (*model.Performer, error)
	LoadJobProgress(ctx context.Context, performerID, jobID int64) (*model.JobProgress, error)
	SaveAtomic(ctx context.Context, performerID int64, m *model.Mutation) error
	ListCompanions(ctx context.Context, ownerID int64) ([]*model.Performer, error)
	CreatePerformer(ctx context.Context, p *model.Performer) error
	DeletePerformer(ctx context.Context, id int64) error
}

// SnapshotReader 只读查询使用的快照来源，允许略旧
type SnapshotReader interface {
	Snapshot(ctx context.Context, id int64) (*model.Performer, error)
}

// TableSource 当前生效的参考表，gamedata.Holder 实现该接口
type TableSource interface {
	Tables() *gamedata.Tables
}

// Actor 发起操作的用户
type Actor struct {
	UserID int64
	Admin  bool
}

// CanUse 角色归属其用户；已关联的伴侣归属其角色的用户；未关联的伴侣只有管理员可用
// owner 为伴侣所属角色，角色本身传 nil
func (a Actor) CanUse(p, owner *model.Performer) bool {
	if a.Admin {
		return true
	}
	if !p.IsCompanion() {
		return p.UserID == a.UserID
	}
	return p.OwnerID != 0 && owner != nil && owner.ID == p.OwnerID && owner.UserID == a.UserID
}

// core 各服务共享的依赖与流程
type core struct {
	gateway   Gateway
	snapshots SnapshotReader
	locker    manager.Locker
	tables    TableSource
	events    events.Publisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    logger.Logger
}

func newCore(
	name string,
	gateway Gateway,
	snapshots SnapshotReader,
	locker manager.Locker,
	tables TableSource,
	pub events.Publisher,
	m *metrics.Metrics,
	tp *otel.TracerProvider,
	l logger.Logger,
) core {
	if pub == nil {
		pub = events.Nop()
	}
	return core{
		gateway:   gateway,
		snapshots: snapshots,
		locker:    locker,
		tables:    tables,
		events:    pub,
		metrics:   m,
		tracer:    tp.Tracer("lifesim/" + name),
		logger:    l.Named(name),
	}
}

// begin 开始一次操作的 span 与计时，返回的 finish 记录指标并结束 span
func (c *core) begin(ctx context.Context, op string, performerID int64) (context.Context, func(err error)) {
	ctx = logger.WithPerformerID(ctx, performerID)
	ctx, span := c.tracer.Start(ctx, op, otel.WithAttributes(
		otel.PerformerIDKey.Int64(performerID),
		otel.ActionTypeKey.String(op),
	))
	start := time.Now()

	return ctx, func(err error) {
		code := engine.Code(err)
		c.metrics.RecordAction(op, code, time.Since(start))
		switch {
		case err == nil:
		case engine.IsBusinessError(err):
			c.logger.InfoContext(ctx, "action rejected", "op", op, "code", code, "error", err)
		default:
			c.logger.ErrorContext(ctx, "action failed", "op", op, "error", err)
		}
		otel.End(span, err)
	}
}

// storageErr 包装网关错误：记录缺失映射为 NotFound，其余标记为 ErrStorage
func storageErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrapf(err, format, args...)
	if errors.Is(err, repository.ErrNotFound) {
		return errors.Mark(wrapped, engine.ErrNotFound)
	}
	if engine.IsBusinessError(err) {
		return wrapped
	}
	return errors.Mark(wrapped, ErrStorage)
}

// scope 持锁期间读到的最新数据：目标表演者及其所属角色
type scope struct {
	performers map[int64]*model.Performer
	unlock     func()
}

func (s *scope) get(id int64) *model.Performer {
	return s.performers[id]
}

// ownerOf 伴侣所属角色，未关联或本身是角色时返回 nil
func (s *scope) ownerOf(p *model.Performer) *model.Performer {
	if !p.IsCompanion() || p.OwnerID == 0 {
		return nil
	}
	return s.performers[p.OwnerID]
}

// lockScope 锁定 ids 以及其中伴侣所属的角色，再从存储读取最新数据
// 所属角色在首次加锁后才能确定，不在锁集合内时扩大集合重试
func (c *core) lockScope(ctx context.Context, ids ...int64) (*scope, error) {
	want := append([]int64(nil), ids...)

	for attempt := 0; attempt < lockScopeAttempts; attempt++ {
		unlock, err := c.locker.Lock(ctx, want...)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "acquire performer lock"), ErrStorage)
		}

		sc, missing, err := c.loadScope(ctx, ids, want)
		if err != nil {
			unlock()
			return nil, err
		}
		if len(missing) == 0 {
			sc.unlock = unlock
			return sc, nil
		}

		unlock()
		want = append(want, missing...)
	}
	return nil, errors.Mark(errors.Newf("lock scope for %v did not settle", ids), ErrStorage)
}

func (c *core) loadScope(ctx context.Context, ids, locked []int64) (*scope, []int64, error) {
	sc := &scope{performers: make(map[int64]*model.Performer, len(ids)+1)}
	held := make(map[int64]bool, len(locked))
	for _, id := range locked {
		held[id] = true
	}

	var missing []int64
	load := func(id int64) (*model.Performer, error) {
		if p, ok := sc.performers[id]; ok {
			return p, nil
		}
		p, err := c.gateway.LoadPerformer(ctx, id)
		if err != nil {
			return nil, storageErr(err, "load performer %d", id)
		}
		sc.performers[id] = p
		return p, nil
	}

	for _, id := range ids {
		p, err := load(id)
		if err != nil {
			return nil, nil, err
		}
		if !p.IsCompanion() || p.OwnerID == 0 {
			continue
		}
		if !held[p.OwnerID] {
			missing = append(missing, p.OwnerID)
			continue
		}
		if _, err := load(p.OwnerID); err != nil {
			return nil, nil, err
		}
	}
	return sc, missing, nil
}

// authorize 校验 actor 能否操作 p
func authorize(actor Actor, p, owner *model.Performer) error {
	if actor.CanUse(p, owner) {
		return nil
	}
	return errors.Wrapf(engine.ErrForbidden, "user %d cannot act on performer %d", actor.UserID, p.ID)
}

// withHousehold 为变更后的表演者重新计算相关角色的家庭金钱
// 变更前的所属角色从 scope 中读取，解除关联时旧角色同样需要重算
// 返回需要一并保存的全部表演者
func (c *core) withHousehold(ctx context.Context, sc *scope, changed []*model.Performer) ([]*model.Performer, error) {
	byID := make(map[int64]*model.Performer, len(changed))
	out := make([]*model.Performer, 0, len(changed)+1)
	for _, p := range changed {
		byID[p.ID] = p
		out = append(out, p)
	}

	// 受影响的角色：自身是角色、变更后或变更前的所属角色
	affected := make([]int64, 0, 2)
	seen := make(map[int64]bool)
	mark := func(id int64) {
		if id != 0 && !seen[id] {
			seen[id] = true
			affected = append(affected, id)
		}
	}
	for _, p := range changed {
		if !p.IsCompanion() {
			mark(p.ID)
			continue
		}
		mark(p.OwnerID)
		if before := sc.get(p.ID); before != nil {
			mark(before.OwnerID)
		}
	}

	for _, charID := range affected {
		char, ok := byID[charID]
		if !ok {
			base := sc.get(charID)
			if base == nil {
				// 所属角色不在锁范围内时不重算，读取时会重新计算
				continue
			}
			char = base.Clone()
		}

		stored, err := c.gateway.ListCompanions(ctx, charID)
		if err != nil {
			return nil, storageErr(err, "list companions of %d", charID)
		}
		companions := make([]*model.Performer, 0, len(stored)+1)
		for _, comp := range stored {
			if upd, ok := byID[comp.ID]; ok {
				comp = upd
			}
			companions = append(companions, comp)
		}
		for _, p := range changed {
			if p.IsCompanion() && p.OwnerID == charID && !containsID(stored, p.ID) {
				companions = append(companions, p)
			}
		}

		household := engine.HouseholdMoney(char, companions)
		if _, ok := byID[charID]; ok {
			char.HouseholdMoney = household
			continue
		}
		if household != char.HouseholdMoney {
			char.HouseholdMoney = household
			byID[charID] = char
			out = append(out, char)
		}
	}
	return out, nil
}

func containsID(ps []*model.Performer, id int64) bool {
	for _, p := range ps {
		if p.ID == id {
			return true
		}
	}
	return false
}

// commit 把引擎结算结果与家庭金钱重算打包为一次原子保存
func (c *core) commit(ctx context.Context, sc *scope, out *engine.Outcome) error {
	performers, err := c.withHousehold(ctx, sc, []*model.Performer{out.Performer})
	if err != nil {
		return err
	}

	mut := &model.Mutation{Performers: performers}
	if out.RemovedJobID != 0 {
		mut.DeleteProgress = append(mut.DeleteProgress, model.JobProgressKey{
			PerformerID: out.Performer.ID,
			JobID:       out.RemovedJobID,
		})
	}
	if out.Progress != nil {
		mut.UpsertProgress = append(mut.UpsertProgress, out.Progress)
	}

	if err := c.gateway.SaveAtomic(ctx, out.Performer.ID, mut); err != nil {
		return storageErr(err, "save performer %d", out.Performer.ID)
	}
	return nil
}

// mutate 锁定表演者，执行 fn 结算并原子保存
func (c *core) mutate(
	ctx context.Context,
	op string,
	actor Actor,
	performerID int64,
	fn func(ctx context.Context, p *model.Performer) (*engine.Outcome, error),
) (out *engine.Outcome, err error) {
	ctx, finish := c.begin(ctx, op, performerID)
	defer func() { finish(err) }()

	// 1. 加锁并读取最新数据
	sc, err := c.lockScope(ctx, performerID)
	if err != nil {
		return nil, err
	}
	defer sc.unlock()

	// 2. 权限
	p := sc.get(performerID)
	if err := authorize(actor, p, sc.ownerOf(p)); err != nil {
		return nil, err
	}

	// 3. 引擎结算，失败时没有任何写入
	out, err = fn(ctx, p)
	if err != nil {
		return nil, err
	}

	// 4. 原子保存
	if err := c.commit(ctx, sc, out); err != nil {
		return nil, err
	}

	// 5. 发布事件
	c.publish(ctx, op, actor, performerID, &out.Result)
	return out, nil
}

// publish 提交成功后发布事件，状态已落库，发布失败只记录日志
func (c *core) publish(ctx context.Context, op string, actor Actor, performerID int64, result *engine.Result) {
	err := c.events.Publish(ctx, events.Event{
		Op:          op,
		PerformerID: performerID,
		UserID:      actor.UserID,
		Result:      result,
		At:          time.Now().UTC(),
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to publish event", "op", op, "error", err)
	}
}

func (c *core) resolver() *engine.Resolver {
	return c.tables.Tables().Resolver
}
