package engine

import "github.com/lk2023060901/lifesim/app/lifesim/internal/model"

// StatDelta 属性轨道变化后的状态
type StatDelta struct {
	Track    model.StatType `json:"track"`
	NewXP    int            `json:"newXp"`
	NeededXP int            `json:"neededXp"`
}

// JobDelta 职业进度变化后的状态
type JobDelta struct {
	JobID    int64 `json:"jobId"`
	NewXP    int   `json:"newXp"`
	NeededXP int   `json:"neededXp"`
}

// Result 单次动作的结算结果
type Result struct {
	Message    string      `json:"message"`
	StatDelta  *StatDelta  `json:"statDelta,omitempty"`
	SideDeltas []StatDelta `json:"sideDeltas,omitempty"`
	JobDelta   *JobDelta   `json:"jobDelta,omitempty"`
	MoneyDelta int64       `json:"moneyDelta"`
	TimeAfter  Clock       `json:"timeAfter"`

	LeveledUp          bool `json:"leveledUp"`
	PromotionAvailable bool `json:"promotionAvailable"`

	// LeveledTracks 睡眠时升级的轨道
	LeveledTracks []model.StatType `json:"leveledTracks,omitempty"`
	// Measurements STR 等级变化后重新解析的身体数据
	Measurements *model.Measurements `json:"measurements,omitempty"`
}

// Outcome 引擎输出：更新后的副本与结算结果，调用方负责原子保存
type Outcome struct {
	Performer *model.Performer
	// Progress 需要写入的职业进度（新建或更新）
	Progress *model.JobProgress
	// RemovedJobID 晋升时需要删除的旧职业进度
	RemovedJobID int64
	Result       Result
}

// HouseholdMoney 家庭金钱：角色自身金钱 + 已关联伴侣金钱之和
// 每次写入时重新计算，不做增量维护
func HouseholdMoney(character *model.Performer, companions []*model.Performer) int64 {
	total := character.Money
	for _, c := range companions {
		if c != nil && c.IsCompanion() && c.OwnerID == character.ID {
			total += c.Money
		}
	}
	return total
}
