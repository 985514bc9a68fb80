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

// JobService 职业分配、工作与晋升
type JobService struct {
	core
}

// NewJobService 创建职业服务
func NewJobService(
	gateway Gateway,
	snapshots SnapshotReader,
	locker manager.Locker,
	tables TableSource,
	pub events.Publisher,
	m *metrics.Metrics,
	tp *otel.TracerProvider,
	l logger.Logger,
) *JobService {
	return &JobService{core: newCore("service.job", gateway, snapshots, locker, tables, pub, m, tp, l)}
}

type jobTransition func(r *engine.Resolver, p *model.Performer, job *model.Job, progress *model.JobProgress) (*engine.Outcome, error)

// Assign 分配职业
func (s *JobService) Assign(ctx context.Context, actor Actor, performerID, jobID int64) (*engine.Outcome, error) {
	return s.transition(ctx, "job.assign", actor, performerID, jobID, (*engine.Resolver).Assign)
}

// Work 完成一次班次
func (s *JobService) Work(ctx context.Context, actor Actor, performerID, jobID int64) (*engine.Outcome, error) {
	return s.transition(ctx, "job.work", actor, performerID, jobID, (*engine.Resolver).Work)
}

// Promote 晋升到同族下一级职业
func (s *JobService) Promote(ctx context.Context, actor Actor, performerID, jobID int64) (*engine.Outcome, error) {
	out, err := s.transition(ctx, "job.promote", actor, performerID, jobID, (*engine.Resolver).Promote)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "performer promoted",
		"performer_id", performerID,
		"from_job_id", jobID,
		"to_job_id", out.Progress.JobID,
	)
	return out, nil
}

func (s *JobService) transition(ctx context.Context, op string, actor Actor, performerID, jobID int64, fn jobTransition) (*engine.Outcome, error) {
	return s.mutate(ctx, op, actor, performerID, func(ctx context.Context, p *model.Performer) (*engine.Outcome, error) {
		otel.SpanFromContext(ctx).SetAttributes(otel.JobIDKey.Int64(jobID))

		r := s.resolver()
		job, err := r.Jobs().Job(jobID)
		if err != nil {
			return nil, err
		}
		progress, err := s.gateway.LoadJobProgress(ctx, performerID, jobID)
		if err != nil {
			return nil, storageErr(err, "load job progress %d/%d", performerID, jobID)
		}
		return fn(r, p, job, progress)
	})
}
