package engine

import (
	"math"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
)

const (
	// LiftBreakpoint 力量成长的突破等级
	LiftBreakpoint = 5
	liftBaseSteps  = LiftBreakpoint - 1
)

// Scaler 根据等级、性别与成长系数推导身体数据、力量与耐力
// 表中存在精确等级的行时直接使用；否则以该性别最低等级的行为基准按指数推导
type Scaler struct {
	measurements map[model.Gender][]model.Measurements
	lifts        map[model.Gender][]model.LiftCapacity
	endurance    map[model.Gender][]model.Endurance
	growth       map[model.Gender]model.GrowthFactors
}

// NewScaler 构建缩放引擎，各表按等级升序
func NewScaler(
	measurements []model.Measurements,
	lifts []model.LiftCapacity,
	endurance []model.Endurance,
	growth []model.GrowthFactors,
) *Scaler {
	s := &Scaler{
		measurements: groupByGender(measurements, func(m model.Measurements) (model.Gender, int) { return m.Gender, m.Level }),
		lifts:        groupByGender(lifts, func(m model.LiftCapacity) (model.Gender, int) { return m.Gender, m.Level }),
		endurance:    groupByGender(endurance, func(m model.Endurance) (model.Gender, int) { return m.Gender, m.Level }),
		growth:       make(map[model.Gender]model.GrowthFactors, len(growth)),
	}
	for _, g := range growth {
		s.growth[g.Gender] = g
	}
	return s
}

func groupByGender[T any](rows []T, key func(T) (model.Gender, int)) map[model.Gender][]T {
	out := make(map[model.Gender][]T)
	for _, r := range rows {
		g, _ := key(r)
		out[g] = append(out[g], r)
	}
	for g := range out {
		slices.SortStableFunc(out[g], func(a, b T) int {
			_, la := key(a)
			_, lb := key(b)
			return la - lb
		})
	}
	return out
}

// pick 返回精确等级行，或最低等级行（exact=false）
func pick[T any](rows []T, level int, levelOf func(T) int) (row T, exact bool, ok bool) {
	if len(rows) == 0 {
		return row, false, false
	}
	for _, r := range rows {
		if levelOf(r) == level {
			return r, true, true
		}
	}
	return rows[0], false, true
}

// MeasurementsAt 身体数据：ceil(base * factor^(level-baseLevel))，按 STR 等级索引
func (s *Scaler) MeasurementsAt(gender model.Gender, strLevel int) (model.Measurements, error) {
	row, exact, ok := pick(s.measurements[gender], strLevel, func(m model.Measurements) int { return m.Level })
	if !ok {
		return model.Measurements{}, errors.Wrapf(ErrNotFound, "measurement base for gender %q", gender)
	}
	if exact {
		return row, nil
	}

	f := s.growth[gender]
	steps := float64(max(strLevel-row.Level, 0))
	grow := func(base, factor float64) float64 {
		return ceilStable(base * math.Pow(orOne(factor), steps))
	}

	return model.Measurements{
		Gender: gender,
		Level:  strLevel,
		Height: grow(row.Height, f.Height),
		Weight: grow(row.Weight, f.Weight),
		Biceps: grow(row.Biceps, f.Biceps),
		Chest:  grow(row.Chest, f.Chest),
		Quads:  grow(row.Quads, f.Quads),
		Calves: grow(row.Calves, f.Calves),
		Back:   grow(row.Back, f.Back),
	}, nil
}

// LiftCapacityAt 两段式指数：baseFactor^min(4,steps) * highFactor^max(0,steps-4)，steps = level-1
// 基准行不是 1 级时按 row * scale(level) / scale(row.Level) 换算，结果保留一位小数
func (s *Scaler) LiftCapacityAt(gender model.Gender, strLevel int) (model.LiftCapacity, error) {
	row, exact, ok := pick(s.lifts[gender], strLevel, func(m model.LiftCapacity) int { return m.Level })
	if !ok {
		return model.LiftCapacity{}, errors.Wrapf(ErrNotFound, "lift base for gender %q", gender)
	}
	if exact {
		return row, nil
	}

	f := s.growth[gender]
	level := max(strLevel, row.Level)
	grow := func(base, factor float64) float64 {
		ratio := tieredScale(orOne(factor), orOne(f.LiftHigh), level) / tieredScale(orOne(factor), orOne(f.LiftHigh), row.Level)
		return round1(base * ratio)
	}

	return model.LiftCapacity{
		Gender:      gender,
		Level:       strLevel,
		BicepsCurl:  grow(row.BicepsCurl, f.BicepsCurl),
		BenchPress:  grow(row.BenchPress, f.BenchPress),
		Squat:       grow(row.Squat, f.Squat),
		LatPulldown: grow(row.LatPulldown, f.LatPulldown),
	}, nil
}

// EnduranceAt 单一指数成长，速度数值等于每小时距离
func (s *Scaler) EnduranceAt(gender model.Gender, staLevel int) (model.Endurance, error) {
	row, exact, ok := pick(s.endurance[gender], staLevel, func(m model.Endurance) int { return m.Level })
	if !ok {
		return model.Endurance{}, errors.Wrapf(ErrNotFound, "endurance base for gender %q", gender)
	}
	if exact {
		if row.Speed == 0 {
			row.Speed = row.DistanceKm
		}
		return row, nil
	}

	steps := float64(max(staLevel-row.Level, 0))
	distance := round1(row.DistanceKm * math.Pow(orOne(s.growth[gender].Distance), steps))
	return model.Endurance{
		Gender:     gender,
		Level:      staLevel,
		DistanceKm: distance,
		Speed:      distance,
	}, nil
}

func tieredScale(baseFactor, highFactor float64, level int) float64 {
	steps := max(level-1, 0)
	return math.Pow(baseFactor, float64(min(liftBaseSteps, steps))) *
		math.Pow(highFactor, float64(max(0, steps-liftBaseSteps)))
}

// ceilStable 向上取整前先消除浮点尾差（70*1.1 不应得到 78）
func ceilStable(v float64) float64 {
	return math.Ceil(math.Round(v*1e6) / 1e6)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func orOne(f float64) float64 {
	if f <= 0 {
		return 1
	}
	return f
}
