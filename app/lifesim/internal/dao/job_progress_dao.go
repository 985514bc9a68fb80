package dao

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

// JobProgressDAO 职业进度数据访问对象
type JobProgressDAO struct {
	store  *Store
	logger logger.Logger
}

// NewJobProgressDAO 创建职业进度 DAO
func NewJobProgressDAO(s *Store, l logger.Logger) *JobProgressDAO {
	return &JobProgressDAO{
		store:  s,
		logger: l.Named("dao.job_progress"),
	}
}

// Get 获取进度，不存在时返回 nil, nil
func (d *JobProgressDAO) Get(ctx context.Context, performerID, jobID int64) (*model.JobProgress, error) {
	var jp *model.JobProgress
	err := d.store.observe("job_progress.get", func() error {
		q, args, err := d.store.sb.Select("level", "current_xp").
			From("job_progress").
			Where(squirrel.Eq{"performer_id": performerID, "job_id": jobID}).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "build query")
		}

		p := model.JobProgress{PerformerID: performerID, JobID: jobID}
		err = d.store.db.QueryRowContext(ctx, q, args...).Scan(&p.Level, &p.CurrentXP)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "scan job progress %d/%d", performerID, jobID)
		}
		jp = &p
		return nil
	})
	if err != nil {
		d.logger.Error("failed to get job progress",
			"performer_id", performerID,
			"job_id", jobID,
			"error", err,
		)
		return nil, err
	}
	return jp, nil
}

// ListByPerformer 表演者的全部职业进度
func (d *JobProgressDAO) ListByPerformer(ctx context.Context, performerID int64) ([]*model.JobProgress, error) {
	var list []*model.JobProgress
	err := d.store.observe("job_progress.list", func() error {
		q, args, err := d.store.sb.Select("job_id", "level", "current_xp").
			From("job_progress").
			Where(squirrel.Eq{"performer_id": performerID}).
			OrderBy("job_id ASC").
			ToSql()
		if err != nil {
			return errors.Wrap(err, "build query")
		}
		rows, err := d.store.db.QueryContext(ctx, q, args...)
		if err != nil {
			return errors.Wrapf(err, "query job progress %d", performerID)
		}
		defer rows.Close()

		list = []*model.JobProgress{}
		for rows.Next() {
			p := &model.JobProgress{PerformerID: performerID}
			if err := rows.Scan(&p.JobID, &p.Level, &p.CurrentXP); err != nil {
				return errors.Wrap(err, "scan job progress")
			}
			list = append(list, p)
		}
		return errors.Wrap(rows.Err(), "iterate job progress")
	})
	if err != nil {
		d.logger.Error("failed to list job progress", "performer_id", performerID, "error", err)
		return nil, err
	}
	return list, nil
}

// Upsert 在事务内新建或覆盖进度
func (d *JobProgressDAO) Upsert(ctx context.Context, tx *sql.Tx, p *model.JobProgress) error {
	q, args, err := d.store.sb.Insert("job_progress").
		Columns("performer_id", "job_id", "level", "current_xp").
		Values(p.PerformerID, p.JobID, p.Level, p.CurrentXP).
		Suffix("ON CONFLICT (performer_id, job_id) DO UPDATE SET level = excluded.level, current_xp = excluded.current_xp").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build upsert job progress")
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "upsert job progress %d/%d", p.PerformerID, p.JobID)
	}
	return nil
}

// Delete 在事务内删除进度，记录不存在时忽略
func (d *JobProgressDAO) Delete(ctx context.Context, tx *sql.Tx, key model.JobProgressKey) error {
	q, args, err := d.store.sb.Delete("job_progress").
		Where(squirrel.Eq{"performer_id": key.PerformerID, "job_id": key.JobID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build delete job progress")
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "delete job progress %d/%d", key.PerformerID, key.JobID)
	}
	return nil
}
