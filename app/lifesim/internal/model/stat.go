package model

// StatType 属性轨道类型
type StatType string

const (
	StatSTR  StatType = "STR"
	StatDEX  StatType = "DEX"
	StatINT  StatType = "INT"
	StatCHAR StatType = "CHAR"
	StatSTA  StatType = "STA"
)

// AllStats 固定顺序的五条轨道，升级结算按此顺序遍历
var AllStats = []StatType{StatSTR, StatDEX, StatINT, StatCHAR, StatSTA}

// Valid 是否为已知轨道
func (s StatType) Valid() bool {
	switch s {
	case StatSTR, StatDEX, StatINT, StatCHAR, StatSTA:
		return true
	}
	return false
}

// Track 单条属性轨道
type Track struct {
	Level     int `json:"level"`
	CurrentXP int `json:"currentXp"`
}

// StatLedger 表演者的属性账本
type StatLedger struct {
	STR  Track `json:"str"`
	DEX  Track `json:"dex"`
	INT  Track `json:"int"`
	CHAR Track `json:"char"`
	STA  Track `json:"sta"`

	// CurrentStamina 体力池，与 STA 轨道的等级/经验无关
	CurrentStamina int `json:"currentStamina"`
}

// NewStatLedger 默认账本：全部 1 级、0 经验，体力等于 STA 等级
func NewStatLedger() StatLedger {
	l := StatLedger{
		STR:  Track{Level: 1},
		DEX:  Track{Level: 1},
		INT:  Track{Level: 1},
		CHAR: Track{Level: 1},
		STA:  Track{Level: 1},
	}
	l.CurrentStamina = l.STA.Level
	return l
}

// Track 返回指定轨道的指针，未知类型返回 nil
func (l *StatLedger) Track(s StatType) *Track {
	switch s {
	case StatSTR:
		return &l.STR
	case StatDEX:
		return &l.DEX
	case StatINT:
		return &l.INT
	case StatCHAR:
		return &l.CHAR
	case StatSTA:
		return &l.STA
	}
	return nil
}

// Level 返回指定轨道等级，未知类型为 0
func (l *StatLedger) Level(s StatType) int {
	if t := l.Track(s); t != nil {
		return t.Level
	}
	return 0
}
