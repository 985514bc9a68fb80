package service

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/events"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/manager"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/metrics"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/idgen"
	"github.com/lk2023060901/lifesim/pkg/logger"
	"github.com/lk2023060901/lifesim/pkg/otel"
)

// PerformerService 表演者管理：创建、关联、成就、删除
type PerformerService struct {
	core
	ids idgen.Generator
}

// NewPerformerService 创建表演者服务
func NewPerformerService(
	gateway Gateway,
	snapshots SnapshotReader,
	locker manager.Locker,
	tables TableSource,
	ids idgen.Generator,
	pub events.Publisher,
	m *metrics.Metrics,
	tp *otel.TracerProvider,
	l logger.Logger,
) *PerformerService {
	return &PerformerService{
		core: newCore("service.performer", gateway, snapshots, locker, tables, pub, m, tp, l),
		ids:  ids,
	}
}

func validateNew(name string, gender model.Gender) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(engine.ErrRequirementNotMet, "name is required")
	}
	if gender != model.GenderMale && gender != model.GenderFemale {
		return errors.Wrapf(engine.ErrRequirementNotMet, "unknown gender %q", gender)
	}
	return nil
}

// CreateCharacter 为 actor 创建角色
func (s *PerformerService) CreateCharacter(ctx context.Context, actor Actor, name string, gender model.Gender) (p *model.Performer, err error) {
	ctx, finish := s.begin(ctx, "performer.create_character", 0)
	defer func() { finish(err) }()

	if err := validateNew(name, gender); err != nil {
		return nil, err
	}

	p = model.NewCharacter(actor.UserID, name, gender)
	if p.ID, err = s.ids.NextID(); err != nil {
		return nil, errors.Wrap(err, "generate performer id")
	}
	p.HouseholdMoney = p.Money

	if err := s.gateway.CreatePerformer(ctx, p); err != nil {
		return nil, storageErr(err, "create character")
	}

	s.logger.InfoContext(ctx, "character created",
		"performer_id", p.ID,
		"user_id", actor.UserID,
	)
	s.publish(ctx, "performer.create_character", actor, p.ID, nil)
	return p, nil
}

// CreateCompanion 创建伴侣；ownerID 为 0 时创建未关联的伴侣（仅管理员）
func (s *PerformerService) CreateCompanion(ctx context.Context, actor Actor, ownerID int64, name string, gender model.Gender) (p *model.Performer, err error) {
	ctx, finish := s.begin(ctx, "performer.create_companion", ownerID)
	defer func() { finish(err) }()

	if err := validateNew(name, gender); err != nil {
		return nil, err
	}

	p = model.NewCompanion(ownerID, name, gender)
	if p.ID, err = s.ids.NextID(); err != nil {
		return nil, errors.Wrap(err, "generate performer id")
	}

	if ownerID == 0 {
		if !actor.Admin {
			return nil, errors.Wrap(engine.ErrForbidden, "only admins create unlinked companions")
		}
		if err := s.gateway.CreatePerformer(ctx, p); err != nil {
			return nil, storageErr(err, "create companion")
		}
		s.publish(ctx, "performer.create_companion", actor, p.ID, nil)
		return p, nil
	}

	sc, err := s.lockScope(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer sc.unlock()

	owner := sc.get(ownerID)
	if owner.IsCompanion() {
		return nil, errors.Wrapf(engine.ErrRequirementNotMet, "performer %d is not a character", ownerID)
	}
	if err := authorize(actor, owner, nil); err != nil {
		return nil, err
	}

	if err := s.gateway.CreatePerformer(ctx, p); err != nil {
		return nil, storageErr(err, "create companion")
	}
	// 新伴侣金钱为 0，家庭金钱仍重新计算以修正历史偏差
	if err := s.saveHousehold(ctx, sc, p); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "companion created",
		"performer_id", p.ID,
		"owner_id", ownerID,
	)
	s.publish(ctx, "performer.create_companion", actor, p.ID, nil)
	return p, nil
}

// LinkCompanion 把伴侣关联到角色，旧角色与新角色的家庭金钱一并重算
func (s *PerformerService) LinkCompanion(ctx context.Context, actor Actor, companionID, characterID int64) (p *model.Performer, err error) {
	ctx, finish := s.begin(ctx, "performer.link_companion", companionID)
	defer func() { finish(err) }()

	sc, err := s.lockScope(ctx, companionID, characterID)
	if err != nil {
		return nil, err
	}
	defer sc.unlock()

	comp, char := sc.get(companionID), sc.get(characterID)
	if !comp.IsCompanion() {
		return nil, errors.Wrapf(engine.ErrRequirementNotMet, "performer %d is not a companion", companionID)
	}
	if char.IsCompanion() {
		return nil, errors.Wrapf(engine.ErrRequirementNotMet, "performer %d is not a character", characterID)
	}
	if err := authorize(actor, char, nil); err != nil {
		return nil, err
	}
	if err := authorize(actor, comp, sc.ownerOf(comp)); err != nil {
		return nil, err
	}

	next := comp.Clone()
	next.OwnerID = characterID
	performers, err := s.withHousehold(ctx, sc, []*model.Performer{next})
	if err != nil {
		return nil, err
	}
	if err := s.gateway.SaveAtomic(ctx, companionID, &model.Mutation{Performers: performers}); err != nil {
		return nil, storageErr(err, "link companion %d", companionID)
	}

	s.logger.InfoContext(ctx, "companion linked",
		"performer_id", companionID,
		"owner_id", characterID,
		"previous_owner_id", comp.OwnerID,
	)
	s.publish(ctx, "performer.link_companion", actor, companionID, nil)
	return next, nil
}

// GrantAchievement 授予成就（管理员操作），已持有时不重复写入
func (s *PerformerService) GrantAchievement(ctx context.Context, actor Actor, performerID int64, name string) (p *model.Performer, err error) {
	ctx, finish := s.begin(ctx, "performer.grant_achievement", performerID)
	defer func() { finish(err) }()

	if !actor.Admin {
		return nil, errors.Wrap(engine.ErrForbidden, "only admins grant achievements")
	}
	if _, err := s.tables.Tables().Achievement(name); err != nil {
		return nil, err
	}

	sc, err := s.lockScope(ctx, performerID)
	if err != nil {
		return nil, err
	}
	defer sc.unlock()

	p = sc.get(performerID)
	if p.HasAchievement(name) {
		return p, nil
	}

	next := p.Clone()
	next.Achievements = append(next.Achievements, name)
	if err := s.gateway.SaveAtomic(ctx, performerID, &model.Mutation{Performers: []*model.Performer{next}}); err != nil {
		return nil, storageErr(err, "grant achievement to %d", performerID)
	}

	s.logger.InfoContext(ctx, "achievement granted", "performer_id", performerID, "achievement", name)
	s.publish(ctx, "performer.grant_achievement", actor, performerID, nil)
	return next, nil
}

// Delete 删除表演者；角色的伴侣变为未关联，伴侣所属角色的家庭金钱重算
func (s *PerformerService) Delete(ctx context.Context, actor Actor, performerID int64) (err error) {
	ctx, finish := s.begin(ctx, "performer.delete", performerID)
	defer func() { finish(err) }()

	sc, err := s.lockScope(ctx, performerID)
	if err != nil {
		return err
	}
	defer sc.unlock()

	p := sc.get(performerID)
	owner := sc.ownerOf(p)
	if err := authorize(actor, p, owner); err != nil {
		return err
	}

	if err := s.gateway.DeletePerformer(ctx, performerID); err != nil {
		return storageErr(err, "delete performer %d", performerID)
	}

	// 家庭金钱只需最终一致，删除后单独重算
	if owner != nil {
		if err := s.saveHousehold(ctx, sc, owner); err != nil {
			s.logger.WarnContext(ctx, "failed to recompute household money",
				"owner_id", owner.ID,
				"error", err,
			)
		}
	}

	s.logger.InfoContext(ctx, "performer deleted", "performer_id", performerID, "kind", string(p.Kind))
	s.publish(ctx, "performer.delete", actor, performerID, nil)
	return nil
}

// saveHousehold 重新计算 p 所属（或自身）角色的家庭金钱，有变化时保存
func (s *PerformerService) saveHousehold(ctx context.Context, sc *scope, p *model.Performer) error {
	charID := p.ID
	if p.IsCompanion() {
		charID = p.OwnerID
	}
	char := sc.get(charID)
	if char == nil {
		return nil
	}

	companions, err := s.gateway.ListCompanions(ctx, charID)
	if err != nil {
		return storageErr(err, "list companions of %d", charID)
	}
	household := engine.HouseholdMoney(char, companions)
	if household == char.HouseholdMoney {
		return nil
	}

	next := char.Clone()
	next.HouseholdMoney = household
	if err := s.gateway.SaveAtomic(ctx, charID, &model.Mutation{Performers: []*model.Performer{next}}); err != nil {
		return storageErr(err, "save household money of %d", charID)
	}
	return nil
}
