package engine

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
)

// SleepMinutes 睡眠推进的分钟数
const SleepMinutes = 480

// Resolver 动作结算入口
// 输入的表演者从不被原地修改，所有变更作用于副本并通过 Outcome 返回
// 任一前置条件失败时返回错误且没有任何副作用
type Resolver struct {
	thresholds *RequirementTable
	scaler     *Scaler
	jobs       *JobCatalog
}

// NewResolver 创建结算器
func NewResolver(thresholds *RequirementTable, scaler *Scaler, jobs *JobCatalog) *Resolver {
	return &Resolver{thresholds: thresholds, scaler: scaler, jobs: jobs}
}

func (r *Resolver) Thresholds() *RequirementTable { return r.thresholds }
func (r *Resolver) Scaler() *Scaler               { return r.scaler }
func (r *Resolver) Jobs() *JobCatalog             { return r.jobs }

// Execute 执行一个子活动；SLEEP 类型转交 Sleep
func (r *Resolver) Execute(p *model.Performer, sub *model.SubActivity) (*Outcome, error) {
	if sub.IsSleep() {
		return r.sleep(p, sub.Description)
	}

	stat := model.StatType(sub.Type)
	if !stat.Valid() {
		return nil, errors.Wrapf(ErrInvalidActionType, "sub-activity %d has type %q", sub.ID, sub.Type)
	}
	for _, e := range sub.Effects {
		if e.Kind != model.EffectBonusXP || !e.Stat.Valid() {
			return nil, errors.Wrapf(ErrInvalidActionType, "sub-activity %d declares unsupported effect %q", sub.ID, e.Kind)
		}
	}

	next := p.Clone()

	// 1. 体力检查与扣除
	if err := SpendStamina(&next.Ledger, sub.StaminaCost); err != nil {
		return nil, err
	}

	// 2. 主属性经验
	if _, err := GrantXP(&next.Ledger, stat, sub.XPGained, r.thresholds); err != nil {
		return nil, err
	}

	// 3. 附加效果
	var sides []StatDelta
	for _, e := range sub.Effects {
		if e.WhileLevelBelow > 0 && next.Ledger.Level(e.Stat) >= e.WhileLevelBelow {
			continue
		}
		t, err := GrantXP(&next.Ledger, e.Stat, e.Amount, r.thresholds)
		if err != nil {
			return nil, err
		}
		sides = append(sides, StatDelta{Track: e.Stat, NewXP: t.CurrentXP, NeededXP: r.thresholds.NeededXP(e.Stat, t.Level)})
	}
	// 附加效果可能作用于同一轨道，以最终值为准
	track := *next.Ledger.Track(stat)

	// 4. 推进日历
	clock := r.advance(next, sub.Length)

	// 5. 渲染文本
	msg := defaultMessage(next, sub.Name)
	if sub.Description != "" {
		msg = Render(sub.Description, next, r.scaler)
	}

	return &Outcome{
		Performer: next,
		Result: Result{
			Message:    msg,
			StatDelta:  &StatDelta{Track: stat, NewXP: track.CurrentXP, NeededXP: r.thresholds.NeededXP(stat, track.Level)},
			SideDeltas: sides,
			TimeAfter:  clock,
		},
	}, nil
}

// Sleep 结算升级、重置体力并推进 480 分钟，不涉及职业经验
func (r *Resolver) Sleep(p *model.Performer) (*Outcome, error) {
	return r.sleep(p, "")
}

func (r *Resolver) sleep(p *model.Performer, tmpl string) (*Outcome, error) {
	next := p.Clone()
	prevStr := next.Ledger.STR.Level

	leveled := ApplyLevelUps(&next.Ledger, r.thresholds)
	RestoreStamina(&next.Ledger)
	clock := r.advance(next, SleepMinutes)

	res := Result{
		TimeAfter:     clock,
		LeveledUp:     len(leveled) > 0,
		LeveledTracks: leveled,
	}

	// STR 等级变化后身体数据需要重新解析
	if next.Ledger.STR.Level != prevStr && r.scaler != nil {
		if m, err := r.scaler.MeasurementsAt(next.Gender, next.Ledger.STR.Level); err == nil {
			res.Measurements = &m
		}
	}

	switch {
	case tmpl != "":
		res.Message = Render(tmpl, next, r.scaler)
	case len(leveled) > 0:
		names := make([]string, len(leveled))
		for i, s := range leveled {
			names[i] = string(s)
		}
		res.Message = fmt.Sprintf("%s slept and leveled up %s.", nameOr(next), strings.Join(names, ", "))
	default:
		res.Message = fmt.Sprintf("%s slept through the night.", nameOr(next))
	}

	return &Outcome{Performer: next, Result: res}, nil
}

// Assign 分配职业：校验门槛，必要时创建 0 经验的进度记录并关联职业
func (r *Resolver) Assign(p *model.Performer, job *model.Job, progress *model.JobProgress) (*Outcome, error) {
	if err := CheckAssign(p, job, progress); err != nil {
		return nil, err
	}

	next := p.Clone()
	if !next.HasJob(job.ID) {
		next.JobIDs = append(next.JobIDs, job.ID)
	}

	prog := &model.JobProgress{PerformerID: p.ID, JobID: job.ID, Level: job.Level}
	if progress != nil {
		cp := *progress
		prog = &cp
	}

	return &Outcome{
		Performer: next,
		Progress:  prog,
		Result: Result{
			Message:            fmt.Sprintf("%s started working as %s.", nameOr(next), job.Name),
			JobDelta:           &JobDelta{JobID: job.ID, NewXP: prog.CurrentXP, NeededXP: job.XPNeeded},
			TimeAfter:          ClockOf(next),
			PromotionAvailable: prog.CurrentXP >= job.XPNeeded,
		},
	}, nil
}

// Work 完成一次班次：职业经验（限制在 xpNeeded）、副属性经验、体力、工资与日历
// 不会自动提升职业等级，LeveledUp 仅表示可以晋升
func (r *Resolver) Work(p *model.Performer, job *model.Job, progress *model.JobProgress) (*Outcome, error) {
	if !p.HasJob(job.ID) {
		return nil, errors.Wrapf(ErrNotFound, "job %d is not assigned to performer %d", job.ID, p.ID)
	}

	next := p.Clone()

	// 1. 体力
	if err := SpendStamina(&next.Ledger, job.StaminaCost); err != nil {
		return nil, err
	}

	// 2. 职业经验，首次工作时惰性创建进度
	prog := &model.JobProgress{PerformerID: p.ID, JobID: job.ID, Level: job.Level}
	if progress != nil {
		cp := *progress
		prog = &cp
	}
	// 晋升带入的经验可能已超过本级上限，此时保持不变
	prog.CurrentXP = min(prog.CurrentXP+max(job.XPGained, 0), max(job.XPNeeded, prog.CurrentXP))

	// 3. 副属性经验
	var sides []StatDelta
	for _, g := range job.SideGrants() {
		t, err := GrantXP(&next.Ledger, g.Stat, g.Amount, r.thresholds)
		if err != nil {
			return nil, err
		}
		sides = append(sides, StatDelta{Track: g.Stat, NewXP: t.CurrentXP, NeededXP: r.thresholds.NeededXP(g.Stat, t.Level)})
	}

	// 4. 工资与日历
	next.Money += job.Money
	clock := r.advance(next, job.Length)

	promotable := prog.CurrentXP >= job.XPNeeded
	msg := fmt.Sprintf("%s worked a shift as %s and earned %d.", nameOr(next), job.Name, job.Money)
	if promotable {
		msg += " A promotion is available."
	}

	return &Outcome{
		Performer: next,
		Progress:  prog,
		Result: Result{
			Message:            msg,
			SideDeltas:         sides,
			JobDelta:           &JobDelta{JobID: job.ID, NewXP: prog.CurrentXP, NeededXP: job.XPNeeded},
			MoneyDelta:         job.Money,
			TimeAfter:          clock,
			LeveledUp:          promotable,
			PromotionAvailable: promotable,
		},
	}, nil
}

// Promote 晋升到同族下一级职业，经验原样带入，旧进度记录被替换
func (r *Resolver) Promote(p *model.Performer, job *model.Job, progress *model.JobProgress) (*Outcome, error) {
	if progress == nil {
		return nil, errors.Wrapf(ErrNotFound, "no progress for job %d", job.ID)
	}
	if progress.CurrentXP < job.XPNeeded {
		return nil, errors.Wrapf(ErrRequirementNotMet, "job xp %d below %d", progress.CurrentXP, job.XPNeeded)
	}
	nextJob, ok := r.jobs.NextTier(job)
	if !ok {
		return nil, errors.Wrapf(ErrNoHigherTier, "%s level %d", job.JobType, job.Level)
	}

	next := p.Clone()
	next.JobIDs = replaceJob(next.JobIDs, job.ID, nextJob.ID)

	prog := &model.JobProgress{
		PerformerID: p.ID,
		JobID:       nextJob.ID,
		Level:       nextJob.Level,
		CurrentXP:   progress.CurrentXP,
	}

	return &Outcome{
		Performer:    next,
		Progress:     prog,
		RemovedJobID: job.ID,
		Result: Result{
			Message:            fmt.Sprintf("%s was promoted to %s.", nameOr(next), nextJob.Name),
			JobDelta:           &JobDelta{JobID: nextJob.ID, NewXP: prog.CurrentXP, NeededXP: nextJob.XPNeeded},
			TimeAfter:          ClockOf(next),
			LeveledUp:          true,
			PromotionAvailable: prog.CurrentXP >= nextJob.XPNeeded,
		},
	}, nil
}

func (r *Resolver) advance(p *model.Performer, minutes int) Clock {
	c := Advance(p.TimeOfDay, p.Weekday, minutes)
	p.TimeOfDay = c.Minutes
	p.Weekday = c.Weekday
	return c
}

// ClockOf 表演者当前的日历，不推进也不做单位换算
func ClockOf(p *model.Performer) Clock {
	wd := p.Weekday
	if wd == "" {
		wd = DefaultWeekday
	}
	return Clock{Minutes: p.TimeOfDay, Weekday: wd, Formatted: FormatHHMM(p.TimeOfDay)}
}

func nameOr(p *model.Performer) string {
	if p.Name == "" {
		return fmt.Sprintf("Performer %d", p.ID)
	}
	return p.Name
}
