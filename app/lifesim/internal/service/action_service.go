package service

import (
	"context"

	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/events"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/manager"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/otel"
)

// ActionService 子活动与睡眠
type ActionService struct {
	core
}

// NewActionService 创建动作服务
func NewActionService(
	gateway Gateway,
	snapshots SnapshotReader,
	locker manager.Locker,
	tables TableSource,
	pub events.Publisher,
	m *metrics.Metrics,
	tp *otel.TracerProvider,
	l logger.Logger,
) *ActionService {
	return &ActionService{core: newCore("service.action", gateway, snapshots, locker, tables, pub, m, tp, l)}
}

// Execute 执行子活动；SLEEP 类型的子活动按睡眠结算
func (s *ActionService) Execute(ctx context.Context, actor Actor, performerID, subActivityID int64) (*engine.Outcome, error) {
	// 子活动在加锁前解析，不存在时不占用锁
	sub, err := s.tables.Tables().SubActivity(subActivityID)
	if err != nil {
		_, finish := s.begin(ctx, "action.execute", performerID)
		finish(err)
		return nil, err
	}

	out, err := s.mutate(ctx, "action.execute", actor, performerID, func(_ context.Context, p *model.Performer) (*engine.Outcome, error) {
		return s.resolver().Execute(p, sub)
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "sub-activity executed",
		"performer_id", performerID,
		"sub_activity_id", subActivityID,
		"time_after", out.Result.TimeAfter.Formatted,
	)
	return out, nil
}

// Sleep 睡眠：结算升级、重置体力、推进 480 分钟
func (s *ActionService) Sleep(ctx context.Context, actor Actor, performerID int64) (*engine.Outcome, error) {
	out, err := s.mutate(ctx, "action.sleep", actor, performerID, func(_ context.Context, p *model.Performer) (*engine.Outcome, error) {
		return s.resolver().Sleep(p)
	})
	if err != nil {
		return nil, err
	}

	if out.Result.LeveledUp {
		s.logger.InfoContext(ctx, "performer leveled up",
			"performer_id", performerID,
			"tracks", out.Result.LeveledTracks,
		)
	}
	return out, nil
}
