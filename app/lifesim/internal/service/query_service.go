package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/manager"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/otel"
)

// Status 表演者当前状态
type Status struct {
	Performer *model.Performer `json:"performer"`
	Clock     engine.Clock     `json:"clock"`
	// NeededXP 每条属性轨道当前等级的升级阈值
	NeededXP map[model.StatType]int `json:"neededXp"`
}

// Catalog 活动目录
type Catalog struct {
	Locations     []model.Location     `json:"locations"`
	Activities    []model.Activity     `json:"activities"`
	SubActivities []*model.SubActivity `json:"subActivities"`
}

// QueryService 只读查询，基于可能略旧的快照，不加锁
type QueryService struct {
	core
}

// NewQueryService 创建查询服务
func NewQueryService(
	gateway Gateway,
	snapshots SnapshotReader,
	locker manager.Locker,
	tables TableSource,
	m *metrics.Metrics,
	tp *otel.TracerProvider,
	l logger.Logger,
) *QueryService {
	return &QueryService{core: newCore("service.query", gateway, snapshots, locker, tables, nil, m, tp, l)}
}

// snapshot 读取快照并校验权限
func (s *QueryService) snapshot(ctx context.Context, actor Actor, id int64) (*model.Performer, error) {
	p, err := s.snapshots.Snapshot(ctx, id)
	if err != nil {
		return nil, storageErr(err, "snapshot performer %d", id)
	}

	var owner *model.Performer
	if p.IsCompanion() && p.OwnerID != 0 && !actor.Admin {
		if owner, err = s.snapshots.Snapshot(ctx, p.OwnerID); err != nil {
			return nil, storageErr(err, "snapshot owner %d", p.OwnerID)
		}
	}
	if err := authorize(actor, p, owner); err != nil {
		return nil, err
	}
	return p, nil
}

// Status 当前状态
func (s *QueryService) Status(ctx context.Context, actor Actor, performerID int64) (st *Status, err error) {
	ctx, finish := s.begin(ctx, "query.status", performerID)
	defer func() { finish(err) }()

	p, err := s.snapshot(ctx, actor, performerID)
	if err != nil {
		return nil, err
	}

	thresholds := s.resolver().Thresholds()
	needed := make(map[model.StatType]int, len(model.AllStats))
	for _, stat := range model.AllStats {
		needed[stat] = thresholds.NeededXP(stat, p.Ledger.Level(stat))
	}

	return &Status{
		Performer: p,
		Clock:     engine.ClockOf(p),
		NeededXP:  needed,
	}, nil
}

// Measurements 按 STR 等级缩放的身体数据
func (s *QueryService) Measurements(ctx context.Context, actor Actor, performerID int64) (m *model.Measurements, err error) {
	ctx, finish := s.begin(ctx, "query.measurements", performerID)
	defer func() { finish(err) }()

	p, err := s.snapshot(ctx, actor, performerID)
	if err != nil {
		return nil, err
	}
	out, err := s.resolver().Scaler().MeasurementsAt(p.Gender, p.Ledger.STR.Level)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LiftCapacity 按 STR 等级缩放的举重能力
func (s *QueryService) LiftCapacity(ctx context.Context, actor Actor, performerID int64) (lc *model.LiftCapacity, err error) {
	ctx, finish := s.begin(ctx, "query.lift_capacity", performerID)
	defer func() { finish(err) }()

	p, err := s.snapshot(ctx, actor, performerID)
	if err != nil {
		return nil, err
	}
	out, err := s.resolver().Scaler().LiftCapacityAt(p.Gender, p.Ledger.STR.Level)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Endurance 按 STA 等级缩放的耐力
func (s *QueryService) Endurance(ctx context.Context, actor Actor, performerID int64) (e *model.Endurance, err error) {
	ctx, finish := s.begin(ctx, "query.endurance", performerID)
	defer func() { finish(err) }()

	p, err := s.snapshot(ctx, actor, performerID)
	if err != nil {
		return nil, err
	}
	out, err := s.resolver().Scaler().EnduranceAt(p.Gender, p.Ledger.STA.Level)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// HouseholdMoney 读取时重新计算家庭金钱；伴侣返回其所属角色的家庭金钱，未关联时为自身金钱
func (s *QueryService) HouseholdMoney(ctx context.Context, actor Actor, performerID int64) (total int64, err error) {
	ctx, finish := s.begin(ctx, "query.household_money", performerID)
	defer func() { finish(err) }()

	p, err := s.snapshot(ctx, actor, performerID)
	if err != nil {
		return 0, err
	}

	char := p
	if p.IsCompanion() {
		if p.OwnerID == 0 {
			return p.Money, nil
		}
		if char, err = s.snapshots.Snapshot(ctx, p.OwnerID); err != nil {
			return 0, storageErr(err, "snapshot owner %d", p.OwnerID)
		}
	}

	companions, err := s.gateway.ListCompanions(ctx, char.ID)
	if err != nil {
		return 0, storageErr(err, "list companions of %d", char.ID)
	}
	return engine.HouseholdMoney(char, companions), nil
}

// Catalog 活动目录，locationID 非 0 时只返回该地点下的活动
func (s *QueryService) Catalog(ctx context.Context, locationID int64) (cat *Catalog, err error) {
	_, finish := s.begin(ctx, "query.catalog", 0)
	defer func() { finish(err) }()

	t := s.tables.Tables()
	cat = &Catalog{
		Activities:    t.Activities(locationID),
		SubActivities: make([]*model.SubActivity, 0),
	}
	for _, loc := range t.Locations() {
		if locationID == 0 || loc.ID == locationID {
			cat.Locations = append(cat.Locations, loc)
		}
	}
	if len(cat.Locations) == 0 && locationID != 0 {
		return nil, errors.Wrapf(engine.ErrNotFound, "location %d", locationID)
	}
	for _, a := range cat.Activities {
		cat.SubActivities = append(cat.SubActivities, t.SubActivities(a.ID)...)
	}
	return cat, nil
}
