package model

// ActionSleep 睡眠动作类型，走独立结算流程
const ActionSleep = "SLEEP"

// Location 地点
type Location struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Activity 地点下的活动分组
type Activity struct {
	ID          int64  `json:"id"`
	LocationID  int64  `json:"locationId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EffectKind 附加效果类型
type EffectKind string

const (
	// EffectBonusXP 在目标轨道等级低于阈值时额外发放经验
	EffectBonusXP EffectKind = "bonus_xp"
)

// Effect 子活动声明的附加效果
type Effect struct {
	Kind   EffectKind `json:"kind"`
	Stat   StatType   `json:"stat"`
	Amount int        `json:"amount"`
	// WhileLevelBelow 仅当 Stat 等级小于该值时生效，0 表示不限制
	WhileLevelBelow int `json:"whileLevelBelow"`
}

// SubActivity 可执行的子活动
type SubActivity struct {
	ID         int64  `json:"id"`
	ActivityID int64  `json:"activityId"`
	Name       string `json:"name"`
	// Type 目标属性轨道，或 SLEEP
	Type        string   `json:"type"`
	XPGained    int      `json:"xpGained"`
	StaminaCost int      `json:"staminaCost"`
	Length      int      `json:"length"`
	Description string   `json:"description"`
	Effects     []Effect `json:"effects"`
}

// IsSleep 是否为睡眠动作
func (s *SubActivity) IsSleep() bool {
	return s.Type == ActionSleep
}
