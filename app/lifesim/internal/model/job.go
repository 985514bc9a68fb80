package model

// Job 职业目录条目
type Job struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	JobType     string `json:"jobType"`
	Level       int    `json:"level"`
	Description string `json:"description"`

	XPGained     int `json:"xpGained"`
	XPNeeded     int `json:"xpNeeded"`
	EntryLevelXP int `json:"entryLevelXp"`

	// 副属性经验奖励
	StrXP  int `json:"strXp"`
	StaXP  int `json:"staXp"`
	IntXP  int `json:"intXp"`
	CharXP int `json:"charXp"`

	StaminaCost int   `json:"staminaCost"`
	Length      int   `json:"length"`
	Money       int64 `json:"money"`

	// 最低属性等级，0 表示不限制
	MinStr  int `json:"minStr"`
	MinDex  int `json:"minDex"`
	MinInt  int `json:"minInt"`
	MinChar int `json:"minChar"`

	// Requirement 需要持有的成就名，空表示无
	Requirement string `json:"requirement"`
}

// SideGrants 按固定顺序返回非零副属性奖励
func (j *Job) SideGrants() []StatGrant {
	grants := make([]StatGrant, 0, 4)
	for _, g := range []StatGrant{
		{Stat: StatSTR, Amount: j.StrXP},
		{Stat: StatSTA, Amount: j.StaXP},
		{Stat: StatINT, Amount: j.IntXP},
		{Stat: StatCHAR, Amount: j.CharXP},
	} {
		if g.Amount > 0 {
			grants = append(grants, g)
		}
	}
	return grants
}

// MinLevels 返回需要满足的最低属性等级
func (j *Job) MinLevels() map[StatType]int {
	out := make(map[StatType]int, 4)
	for s, v := range map[StatType]int{StatSTR: j.MinStr, StatDEX: j.MinDex, StatINT: j.MinInt, StatCHAR: j.MinChar} {
		if v > 0 {
			out[s] = v
		}
	}
	return out
}

// StatGrant 一次属性经验发放
type StatGrant struct {
	Stat   StatType `json:"stat"`
	Amount int      `json:"amount"`
}

// JobProgress 表演者在某职业上的进度
type JobProgress struct {
	PerformerID int64 `json:"performerId"`
	JobID       int64 `json:"jobId"`
	Level       int   `json:"level"`
	CurrentXP   int   `json:"currentXp"`
}

// Achievement 成就目录条目
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
