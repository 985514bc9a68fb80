package model

// StatRequirement 升级所需经验：(属性, 等级) -> 经验
type StatRequirement struct {
	Stat     StatType `json:"stat"`
	Level    int      `json:"level"`
	NeededXP int      `json:"neededXp"`
}

// Measurements 身体数据
type Measurements struct {
	Gender Gender  `json:"gender"`
	Level  int     `json:"level"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
	Biceps float64 `json:"biceps"`
	Chest  float64 `json:"chest"`
	Quads  float64 `json:"quads"`
	Calves float64 `json:"calves"`
	Back   float64 `json:"back"`
}

// LiftCapacity 力量项目负重（kg）
type LiftCapacity struct {
	Gender      Gender  `json:"gender"`
	Level       int     `json:"level"`
	BicepsCurl  float64 `json:"bicepsCurl"`
	BenchPress  float64 `json:"benchPress"`
	Squat       float64 `json:"squat"`
	LatPulldown float64 `json:"latPulldown"`
}

// Endurance 耐力：每小时距离，速度数值上与距离相同
type Endurance struct {
	Gender     Gender  `json:"gender"`
	Level      int     `json:"level"`
	DistanceKm float64 `json:"distanceKm"`
	Speed      float64 `json:"speed"`
}

// GrowthFactors 按性别的各项成长系数
type GrowthFactors struct {
	Gender Gender `json:"gender"`

	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
	Biceps float64 `json:"biceps"`
	Chest  float64 `json:"chest"`
	Quads  float64 `json:"quads"`
	Calves float64 `json:"calves"`
	Back   float64 `json:"back"`

	BicepsCurl  float64 `json:"bicepsCurl"`
	BenchPress  float64 `json:"benchPress"`
	Squat       float64 `json:"squat"`
	LatPulldown float64 `json:"latPulldown"`
	// LiftHigh 突破点（5 级）之后的力量成长系数
	LiftHigh float64 `json:"liftHigh"`

	Distance float64 `json:"distance"`
}
