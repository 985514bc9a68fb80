package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
)

// MissingThreshold 阈值表缺失时的哨兵值，视为“永远达不到”
const MissingThreshold = 999

type requirementKey struct {
	stat  model.StatType
	level int
}

// RequirementTable (属性, 等级) -> 升级所需经验
type RequirementTable struct {
	needed map[requirementKey]int
}

// NewRequirementTable 由配置行构建阈值表，重复键以后者为准
func NewRequirementTable(rows []model.StatRequirement) *RequirementTable {
	t := &RequirementTable{needed: make(map[requirementKey]int, len(rows))}
	for _, r := range rows {
		t.needed[requirementKey{stat: r.Stat, level: r.Level}] = r.NeededXP
	}
	return t
}

// NeededXP 查询阈值，缺失返回 MissingThreshold
func (t *RequirementTable) NeededXP(stat model.StatType, level int) int {
	v, _ := t.lookup(stat, level)
	return v
}

// lookup 查询阈值并报告条目是否存在
func (t *RequirementTable) lookup(stat model.StatType, level int) (int, bool) {
	if t == nil {
		return MissingThreshold, false
	}
	if v, ok := t.needed[requirementKey{stat: stat, level: level}]; ok {
		return v, true
	}
	return MissingThreshold, false
}

// Len 表内条目数
func (t *RequirementTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.needed)
}

// GrantXP 给指定轨道加经验，结果限制在 [0, neededXp]，不改变等级
func GrantXP(l *model.StatLedger, stat model.StatType, amount int, t *RequirementTable) (model.Track, error) {
	track := l.Track(stat)
	if track == nil {
		return model.Track{}, errors.Wrapf(ErrInvalidActionType, "unknown stat track %q", stat)
	}

	needed := t.NeededXP(stat, track.Level)
	track.CurrentXP = min(max(track.CurrentXP+max(amount, 0), 0), needed)
	return *track, nil
}

// ApplyLevelUps 一次性结算五条轨道：达到阈值的轨道升 1 级并清零经验
// 每条轨道最多升一级，返回本次升级的轨道；阈值缺失的轨道永不升级
func ApplyLevelUps(l *model.StatLedger, t *RequirementTable) []model.StatType {
	var leveled []model.StatType
	for _, stat := range model.AllStats {
		track := l.Track(stat)
		needed, ok := t.lookup(stat, track.Level)
		if ok && track.CurrentXP >= needed {
			track.Level++
			track.CurrentXP = 0
			leveled = append(leveled, stat)
		}
	}
	return leveled
}

// SpendStamina 扣除体力，不足时返回 ErrInsufficientResource 且不修改账本
func SpendStamina(l *model.StatLedger, cost int) error {
	if cost <= 0 {
		return nil
	}
	if cost > l.CurrentStamina {
		return errors.Wrapf(ErrInsufficientResource, "stamina %d, cost %d", l.CurrentStamina, cost)
	}
	l.CurrentStamina = max(l.CurrentStamina-cost, 0)
	return nil
}

// RestoreStamina 体力重置为 STA 等级
func RestoreStamina(l *model.StatLedger) {
	l.CurrentStamina = l.STA.Level
}
