// Package gamedata 加载只读参考表（阈值、缩放基准、成长系数、职业目录、活动目录）
package gamedata

import (
	"io/fs"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/engine"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/gameconfig"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

// 表名，对应 <name>.json
const (
	TableStatRequirements = "stat_requirements"
	TableMeasurements     = "measurements"
	TableLiftCapacity     = "lift_capacity"
	TableEndurance        = "endurance"
	TableGrowthFactors    = "growth_factors"
	TableJobs             = "jobs"
	TableAchievements     = "achievements"
	TableLocations        = "locations"
	TableActivities       = "activities"
	TableSubActivities    = "sub_activities"
)

// Tables 一次完整加载得到的参考数据，加载后只读
type Tables struct {
	Resolver *engine.Resolver

	achievements  map[string]model.Achievement
	locations     []model.Location
	activities    []model.Activity
	subActivities map[int64]*model.SubActivity
}

// Load 从数据目录（可为空）与内嵌默认表加载全部参考数据
func Load(dataDir string, l logger.Logger) (*Tables, error) {
	layers := make([]fs.FS, 0, 2)
	if dataDir != "" {
		layers = append(layers, os.DirFS(dataDir))
	}
	layers = append(layers, DefaultFS())

	loader, err := gameconfig.NewLayeredLoader(l.Named("gamedata"), layers...)
	if err != nil {
		return nil, err
	}
	return LoadWith(loader)
}

// LoadWith 使用指定的 JsonLoader 加载
func LoadWith(loader gameconfig.JsonLoader) (*Tables, error) {
	reqs, err := gameconfig.Load[model.StatRequirement](loader, TableStatRequirements)
	if err != nil {
		return nil, err
	}
	measurements, err := gameconfig.Load[model.Measurements](loader, TableMeasurements)
	if err != nil {
		return nil, err
	}
	lifts, err := gameconfig.Load[model.LiftCapacity](loader, TableLiftCapacity)
	if err != nil {
		return nil, err
	}
	endurance, err := gameconfig.Load[model.Endurance](loader, TableEndurance)
	if err != nil {
		return nil, err
	}
	growth, err := gameconfig.Load[model.GrowthFactors](loader, TableGrowthFactors)
	if err != nil {
		return nil, err
	}
	jobs, err := gameconfig.Load[model.Job](loader, TableJobs)
	if err != nil {
		return nil, err
	}
	achievements, err := gameconfig.Load[model.Achievement](loader, TableAchievements)
	if err != nil {
		return nil, err
	}
	locations, err := gameconfig.Load[model.Location](loader, TableLocations)
	if err != nil {
		return nil, err
	}
	activities, err := gameconfig.Load[model.Activity](loader, TableActivities)
	if err != nil {
		return nil, err
	}
	subs, err := gameconfig.Load[model.SubActivity](loader, TableSubActivities)
	if err != nil {
		return nil, err
	}

	if err := validate(reqs, jobs, subs); err != nil {
		return nil, err
	}

	t := &Tables{
		Resolver: engine.NewResolver(
			engine.NewRequirementTable(reqs),
			engine.NewScaler(measurements, lifts, endurance, growth),
			engine.NewJobCatalog(jobs),
		),
		achievements:  make(map[string]model.Achievement, len(achievements)),
		locations:     locations,
		activities:    activities,
		subActivities: make(map[int64]*model.SubActivity, len(subs)),
	}
	for _, a := range achievements {
		t.achievements[a.Name] = a
	}
	for i := range subs {
		t.subActivities[subs[i].ID] = &subs[i]
	}
	return t, nil
}

func validate(reqs []model.StatRequirement, jobs []model.Job, subs []model.SubActivity) error {
	for _, r := range reqs {
		if !r.Stat.Valid() {
			return errors.Newf("stat_requirements: unknown stat %q", r.Stat)
		}
	}

	seenJobs := make(map[int64]bool, len(jobs))
	type tierKey struct {
		family string
		level  int
	}
	tiers := make(map[tierKey]bool, len(jobs))
	for _, j := range jobs {
		if seenJobs[j.ID] {
			return errors.Newf("jobs: duplicate id %d", j.ID)
		}
		seenJobs[j.ID] = true

		tier := tierKey{family: j.JobType, level: j.Level}
		if tiers[tier] {
			return errors.Newf("jobs: duplicate tier %s level %d", j.JobType, j.Level)
		}
		tiers[tier] = true
	}

	seenSubs := make(map[int64]bool, len(subs))
	for _, s := range subs {
		if seenSubs[s.ID] {
			return errors.Newf("sub_activities: duplicate id %d", s.ID)
		}
		seenSubs[s.ID] = true
	}
	return nil
}

// SubActivity 按 ID 查找子活动
func (t *Tables) SubActivity(id int64) (*model.SubActivity, error) {
	if s, ok := t.subActivities[id]; ok {
		return s, nil
	}
	return nil, errors.Wrapf(engine.ErrNotFound, "sub-activity %d", id)
}

// SubActivities 某活动下的子活动，按 ID 升序；activityID 为 0 时返回全部
func (t *Tables) SubActivities(activityID int64) []*model.SubActivity {
	out := make([]*model.SubActivity, 0)
	for _, s := range t.subActivities {
		if activityID == 0 || s.ActivityID == activityID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Achievement 按名称查找成就
func (t *Tables) Achievement(name string) (model.Achievement, error) {
	if a, ok := t.achievements[name]; ok {
		return a, nil
	}
	return model.Achievement{}, errors.Wrapf(engine.ErrNotFound, "achievement %q", name)
}

// Locations 全部地点
func (t *Tables) Locations() []model.Location {
	return t.locations
}

// Activities 某地点下的活动；locationID 为 0 时返回全部
func (t *Tables) Activities(locationID int64) []model.Activity {
	out := make([]model.Activity, 0, len(t.activities))
	for _, a := range t.activities {
		if locationID == 0 || a.LocationID == locationID {
			out = append(out, a)
		}
	}
	return out
}
