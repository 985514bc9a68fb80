package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/dao"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

// ErrNotFound 表演者不存在
var ErrNotFound = dao.ErrNotFound

// PerformerRepository 表演者仓储接口，组合表演者与职业进度的持久化
type PerformerRepository interface {
	// GetPerformer 从存储加载最新的表演者
	GetPerformer(ctx context.Context, id int64) (*model.Performer, error)
	// ListCompanions 已关联到角色的伴侣
	ListCompanions(ctx context.Context, ownerID int64) ([]*model.Performer, error)
	// ListCharacters 用户拥有的角色
	ListCharacters(ctx context.Context, userID int64) ([]*model.Performer, error)
	// GetJobProgress 职业进度，不存在返回 nil, nil
	GetJobProgress(ctx context.Context, performerID, jobID int64) (*model.JobProgress, error)
	// ListJobProgress 表演者的全部职业进度
	ListJobProgress(ctx context.Context, performerID int64) ([]*model.JobProgress, error)
	// Create 插入新表演者
	Create(ctx context.Context, p *model.Performer) error
	// Save 在单个事务内应用一次动作的全部变更
	Save(ctx context.Context, m *model.Mutation) error
	// Delete 删除表演者，已关联的伴侣变为未关联
	Delete(ctx context.Context, id int64) error
}

type performerRepositoryImpl struct {
	store       *dao.Store
	performers  *dao.PerformerDAO
	jobProgress *dao.JobProgressDAO
	logger      logger.Logger
}

// NewPerformerRepository 创建表演者仓储
func NewPerformerRepository(
	store *dao.Store,
	performers *dao.PerformerDAO,
	jobProgress *dao.JobProgressDAO,
	l logger.Logger,
) PerformerRepository {
	return &performerRepositoryImpl{
		store:       store,
		performers:  performers,
		jobProgress: jobProgress,
		logger:      l.Named("repository.performer"),
	}
}

func (r *performerRepositoryImpl) GetPerformer(ctx context.Context, id int64) (*model.Performer, error) {
	return r.performers.GetByID(ctx, id)
}

func (r *performerRepositoryImpl) ListCompanions(ctx context.Context, ownerID int64) ([]*model.Performer, error) {
	ids, err := r.performers.ListCompanionIDs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return r.loadAll(ctx, ids)
}

func (r *performerRepositoryImpl) ListCharacters(ctx context.Context, userID int64) ([]*model.Performer, error) {
	ids, err := r.performers.ListCharacterIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.loadAll(ctx, ids)
}

func (r *performerRepositoryImpl) loadAll(ctx context.Context, ids []int64) ([]*model.Performer, error) {
	out := make([]*model.Performer, 0, len(ids))
	for _, id := range ids {
		p, err := r.performers.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *performerRepositoryImpl) GetJobProgress(ctx context.Context, performerID, jobID int64) (*model.JobProgress, error) {
	return r.jobProgress.Get(ctx, performerID, jobID)
}

func (r *performerRepositoryImpl) ListJobProgress(ctx context.Context, performerID int64) ([]*model.JobProgress, error) {
	return r.jobProgress.ListByPerformer(ctx, performerID)
}

func (r *performerRepositoryImpl) Create(ctx context.Context, p *model.Performer) error {
	err := r.store.WithTx(ctx, "performer.create", func(tx *sql.Tx) error {
		return r.performers.Insert(ctx, tx, p)
	})
	if err != nil {
		r.logger.Error("failed to create performer",
			"performer_id", p.ID,
			"kind", string(p.Kind),
			"error", err,
		)
		return errors.Wrap(err, "create performer")
	}

	r.logger.Debug("performer created", "performer_id", p.ID, "kind", string(p.Kind))
	return nil
}

func (r *performerRepositoryImpl) Save(ctx context.Context, m *model.Mutation) error {
	if m.Empty() {
		return nil
	}

	err := r.store.WithTx(ctx, "performer.save", func(tx *sql.Tx) error {
		// 1. 表演者整体覆盖
		for _, p := range m.Performers {
			if err := r.performers.Update(ctx, tx, p); err != nil {
				return err
			}
		}
		// 2. 删除旧职业进度（晋升时）
		for _, key := range m.DeleteProgress {
			if err := r.jobProgress.Delete(ctx, tx, key); err != nil {
				return err
			}
		}
		// 3. 写入新职业进度
		for _, jp := range m.UpsertProgress {
			if err := r.jobProgress.Upsert(ctx, tx, jp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to save mutation",
			"performer_ids", m.PerformerIDs(),
			"error", err,
		)
		return errors.Wrap(err, "save mutation")
	}
	return nil
}

func (r *performerRepositoryImpl) Delete(ctx context.Context, id int64) error {
	err := r.store.WithTx(ctx, "performer.delete", func(tx *sql.Tx) error {
		return r.performers.Delete(ctx, tx, id)
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.Error("failed to delete performer", "performer_id", id, "error", err)
		}
		return errors.Wrap(err, "delete performer")
	}

	r.logger.Info("performer deleted", "performer_id", id)
	return nil
}
