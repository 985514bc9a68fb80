package engine

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
)

// JobCatalog 职业目录，按 ID 与 (职业族, 等级) 索引
type JobCatalog struct {
	byID   map[int64]*model.Job
	byTier map[string]map[int]*model.Job
	order  []int64
}

// NewJobCatalog 构建职业目录
func NewJobCatalog(jobs []model.Job) *JobCatalog {
	c := &JobCatalog{
		byID:   make(map[int64]*model.Job, len(jobs)),
		byTier: make(map[string]map[int]*model.Job),
	}
	for i := range jobs {
		j := jobs[i]
		c.byID[j.ID] = &j
		if c.byTier[j.JobType] == nil {
			c.byTier[j.JobType] = make(map[int]*model.Job)
		}
		c.byTier[j.JobType][j.Level] = &j
		c.order = append(c.order, j.ID)
	}
	slices.Sort(c.order)
	return c
}

// Job 按 ID 查找
func (c *JobCatalog) Job(id int64) (*model.Job, error) {
	if j, ok := c.byID[id]; ok {
		return j, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "job %d", id)
}

// NextTier 同一职业族的下一级职业
func (c *JobCatalog) NextTier(job *model.Job) (*model.Job, bool) {
	next, ok := c.byTier[job.JobType][job.Level+1]
	return next, ok
}

// Jobs 按 ID 升序返回全部职业
func (c *JobCatalog) Jobs() []*model.Job {
	out := make([]*model.Job, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len 目录条目数
func (c *JobCatalog) Len() int {
	return len(c.byID)
}

// CheckAssign 校验分配条件：属性下限、成就、入职经验门槛
// 入职门槛按该职业自身的进度记录判断，没有记录时经验视为 0
func CheckAssign(p *model.Performer, job *model.Job, progress *model.JobProgress) error {
	mins := job.MinLevels()
	for _, stat := range model.AllStats {
		need, ok := mins[stat]
		if !ok {
			continue
		}
		if have := p.Ledger.Level(stat); have < need {
			return errors.Wrapf(ErrRequirementNotMet, "%s level %d below required %d", stat, have, need)
		}
	}

	if job.Requirement != "" && !p.HasAchievement(job.Requirement) {
		return errors.Wrapf(ErrRequirementNotMet, "achievement %q required", job.Requirement)
	}

	xp := 0
	if progress != nil {
		xp = progress.CurrentXP
	}
	if xp < job.EntryLevelXP {
		return errors.Wrapf(ErrRequirementNotMet, "job xp %d below entry gate %d", xp, job.EntryLevelXP)
	}
	return nil
}

// replaceJob 断开旧职业并关联新职业
func replaceJob(ids []int64, oldID, newID int64) []int64 {
	out := slices.DeleteFunc(slices.Clone(ids), func(id int64) bool { return id == oldID || id == newID })
	return append(out, newID)
}
