package model

import (
	"slices"
	"time"
)

// PerformerKind 表演者类型
type PerformerKind string

const (
	KindCharacter PerformerKind = "CHARACTER"
	KindCompanion PerformerKind = "COMPANION"
)

// Gender 性别，缩放表按性别分行
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Performer 角色或伴侣，属性与职业变更的主体
type Performer struct {
	ID     int64         `json:"id"`
	Kind   PerformerKind `json:"kind"`
	Name   string        `json:"name"`
	Gender Gender        `json:"gender"`

	// UserID 角色所属用户；伴侣为 0
	UserID int64 `json:"userId,omitempty"`
	// OwnerID 伴侣所属角色；0 表示未关联（孤儿）
	OwnerID int64 `json:"ownerId,omitempty"`

	Money int64 `json:"money"`
	// HouseholdMoney 仅角色有意义：自身金钱 + 已关联伴侣金钱之和
	HouseholdMoney int64 `json:"householdMoney"`

	TimeOfDay int    `json:"timeOfDay"`
	Weekday   string `json:"weekday"`

	Ledger       StatLedger `json:"stats"`
	JobIDs       []int64    `json:"jobIds"`
	Achievements []string   `json:"achievements"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCharacter 创建新角色实例
func NewCharacter(userID int64, name string, gender Gender) *Performer {
	now := time.Now()
	return &Performer{
		Kind:      KindCharacter,
		Name:      name,
		Gender:    gender,
		UserID:    userID,
		TimeOfDay: 480,
		Weekday:   "Monday",
		Ledger:    NewStatLedger(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewCompanion 创建新伴侣实例，ownerID 为 0 时为孤儿
func NewCompanion(ownerID int64, name string, gender Gender) *Performer {
	p := NewCharacter(0, name, gender)
	p.Kind = KindCompanion
	p.OwnerID = ownerID
	return p
}

// IsCompanion 是否为伴侣
func (p *Performer) IsCompanion() bool {
	return p.Kind == KindCompanion
}

// HasAchievement 是否持有成就
func (p *Performer) HasAchievement(name string) bool {
	return slices.Contains(p.Achievements, name)
}

// HasJob 是否关联职业
func (p *Performer) HasJob(jobID int64) bool {
	return slices.Contains(p.JobIDs, jobID)
}

// Clone 深拷贝，引擎从不原地修改输入
func (p *Performer) Clone() *Performer {
	if p == nil {
		return nil
	}
	c := *p
	c.JobIDs = slices.Clone(p.JobIDs)
	c.Achievements = slices.Clone(p.Achievements)
	return &c
}
